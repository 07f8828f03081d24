package outcome

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/matokeo/core"
)

// POPrefix is the normalized ProgramOutcome code prefix.
const POPrefix = "PO-"

type Department struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"` // unique, uppercase
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// ProgramOutcome is a department-level competency goal (PO).
type ProgramOutcome struct {
	ID           int         `json:"id"`
	DepartmentID int         `json:"department_id"`
	Code         string      `json:"code"` // normalized to "PO-<n>"
	Description  string      `json:"description"`
	IsActive     bool        `json:"is_active"`
	CreatedBy    null.String `json:"created_by"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
}

// FullCode returns the full PO identifier: e.g. "CSE-PO-1".
func (po ProgramOutcome) FullCode(dept Department) string {
	return dept.Code + "-" + po.Code
}

// NormalizePOCode converts a PO code to its standard form ("PO-1", "PO-2").
// Bare digits get the prefix; anything else must already carry it.
func NormalizePOCode(code string) (string, error) {
	cleaned := core.CleanCode(code)
	if cleaned == "" {
		return "", core.NewValidationError(nil, core.FieldError{Field: "code", Error: "code is required"})
	}
	if isDigits(cleaned) {
		return POPrefix + cleaned, nil
	}
	if !strings.HasPrefix(cleaned, POPrefix) {
		return "", core.NewValidationError(nil, core.FieldError{
			Field: "code",
			Error: `code must start with "` + POPrefix + `" or be a number`,
		})
	}
	return cleaned, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// NewDepartment contains information needed to create a new Department.
type NewDepartment struct {
	Code string `json:"code" validate:"required,max=10"`
	Name string `json:"name" validate:"required,max=100"`
}

func (nd *NewDepartment) Validate() error {
	nd.Code = core.CleanCode(nd.Code)
	nd.Name = core.CleanString(nd.Name)
	return core.Validate.Struct(nd)
}

// NewProgramOutcome contains information needed to create a new ProgramOutcome.
type NewProgramOutcome struct {
	DepartmentID int    `json:"department_id" validate:"required,min=1"`
	Code         string `json:"code" validate:"required,max=10"`
	Description  string `json:"description" validate:"required"`
}

func (np *NewProgramOutcome) Validate() error {
	code, err := NormalizePOCode(np.Code)
	if err != nil {
		return err
	}
	np.Code = code
	np.Description = core.CleanString(np.Description)
	return core.Validate.Struct(np)
}

// UpdateProgramOutcome defines what may be modified on an existing ProgramOutcome.
type UpdateProgramOutcome struct {
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (up *UpdateProgramOutcome) Validate() error {
	up.Description = core.CleanString(up.Description)
	return core.Validate.Struct(up)
}
