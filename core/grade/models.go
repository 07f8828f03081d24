package grade

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/matokeo/core"
)

var maxScore = decimal.NewFromInt(100)

// AssessmentGrade is one student's score on one assessment.
// Unique per (student, assessment).
type AssessmentGrade struct {
	ID           int             `json:"id"`
	StudentID    string          `json:"student_id"`
	AssessmentID int             `json:"assessment_id"`
	Score        decimal.Decimal `json:"score"` // 0-100, <= assessment max_score
	EnteredBy    null.String     `json:"entered_by"`
	CreatedAt    time.Time       `json:"created_at"` // UTC
	UpdatedAt    time.Time       `json:"updated_at"` // UTC
}

// NewGrade contains information needed to record a student's score.
type NewGrade struct {
	StudentID    string          `json:"student_id" validate:"required,uuid4"`
	AssessmentID int             `json:"assessment_id" validate:"required,min=1"`
	Score        decimal.Decimal `json:"score"`
}

func (ng *NewGrade) Validate() error {
	if ng.Score.IsNegative() || ng.Score.GreaterThan(maxScore) {
		return core.NewValidationError(nil, core.FieldError{Field: "score", Error: "score must be between 0 and 100"})
	}
	return core.Validate.Struct(ng)
}
