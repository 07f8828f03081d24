package course

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/matokeo/core"
)

var (
	assessmentTypeTag  = "assessmenttype"
	assessmentTypeText = "invalid assessment type"
)

func init() {
	_ = core.Validate.RegisterValidation(assessmentTypeTag, assessmentTypeValidation)
	core.RegisterCustomTranslation(assessmentTypeTag, assessmentTypeText)
}

// assessmentTypeValidation checks that the provided type is one of AllAssessmentTypes.
func assessmentTypeValidation(fl validator.FieldLevel) bool {
	typ := fl.Field().String()
	for _, t := range AllAssessmentTypes {
		if typ == t {
			return true
		}
	}
	return false
}
