package course

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/outcome"
)

// LOPrefix is the normalized LearningOutcome code prefix.
const LOPrefix = "LO-"

// Assessment types
const (
	AssessmentMidterm  = "MIDTERM"
	AssessmentFinal    = "FINAL"
	AssessmentProject  = "PROJECT"
	AssessmentHomework = "HOMEWORK"
	AssessmentQuiz     = "QUIZ"
	AssessmentLab      = "LAB"
)

var AllAssessmentTypes = []string{
	AssessmentMidterm, AssessmentFinal, AssessmentProject,
	AssessmentHomework, AssessmentQuiz, AssessmentLab,
}

var (
	// contribution weight bounds (both edge types)
	MinContributionWeight = decimal.NewFromInt(1)
	MaxContributionWeight = decimal.NewFromInt(5)

	defaultMaxScore = decimal.NewFromInt(100)
)

// Template is the reusable curriculum definition of a course. Learning outcomes
// and their PO contributions live here; per-offering state lives on Instance.
type Template struct {
	ID           int       `json:"id"`
	DepartmentID int       `json:"department_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Credit       int       `json:"credit"` // positive
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullCode returns the full course code: e.g. "CSE-301".
func (t Template) FullCode(dept outcome.Department) string {
	return dept.Code + "-" + t.Code
}

// Instance is one concrete offering of a Template in a (semester, year).
type Instance struct {
	ID           int         `json:"id"`
	TemplateID   int         `json:"course_template_id"`
	Semester     string      `json:"semester"`
	Year         int         `json:"year"`
	InstructorID null.String `json:"instructor_id"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	// Template is populated on reads that join the curriculum definition.
	Template *Template `json:"course_template,omitempty"`
}

// LearningOutcome is a course-level skill/knowledge goal (LO), defined at the
// template level and therefore shared by every instance of that template.
type LearningOutcome struct {
	ID          int       `json:"id"`
	TemplateID  int       `json:"course_template_id"`
	Code        string    `json:"code"` // normalized to "LO-<n>"
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Assessment is one graded piece of work in a course instance.
type Assessment struct {
	ID         int             `json:"id"`
	InstanceID int             `json:"course_instance_id"`
	Name       string          `json:"name"` // e.g. "Midterm 1", "Final Exam"
	Type       string          `json:"assessment_type"`
	MaxScore   decimal.Decimal `json:"max_score"` // >= 0, default 100
	// Weight is the assessment's share of the instance's final grade (0-100).
	// It is persisted but not consumed by the achievement engine.
	Weight    decimal.Decimal `json:"weight"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AssessmentLOContribution links an Assessment to a LearningOutcome (edge A).
// Weight is 1.0-5.0 with one decimal place. Unique per (assessment, LO).
type AssessmentLOContribution struct {
	ID                int             `json:"id"`
	AssessmentID      int             `json:"assessment_id"`
	LearningOutcomeID int             `json:"learning_outcome_id"`
	Weight            decimal.Decimal `json:"weight"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// LOPOContribution links a LearningOutcome to a ProgramOutcome (edge B).
// Only approved contributions are visible to the achievement engine.
type LOPOContribution struct {
	ID                int             `json:"id"`
	LearningOutcomeID int             `json:"learning_outcome_id"`
	ProgramOutcomeID  int             `json:"program_outcome_id"`
	Weight            decimal.Decimal `json:"weight"`
	IsApproved        bool            `json:"is_approved"`
	ApprovedBy        null.String     `json:"approved_by"`
	ApprovedAt        null.Time       `json:"approved_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NormalizeLOCode converts an LO code to its standard form ("LO-1", "LO-2").
func NormalizeLOCode(code string) (string, error) {
	cleaned := core.CleanCode(code)
	if cleaned == "" {
		return "", core.NewValidationError(nil, core.FieldError{Field: "code", Error: "code is required"})
	}
	if isDigits(cleaned) {
		return LOPrefix + cleaned, nil
	}
	if !strings.HasPrefix(cleaned, LOPrefix) {
		return "", core.NewValidationError(nil, core.FieldError{
			Field: "code",
			Error: `code must start with "` + LOPrefix + `" or be a number`,
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

// validateContributionWeight enforces the 1.0-5.0, one-decimal-place contract
// shared by both contribution edge types.
func validateContributionWeight(w decimal.Decimal) error {
	if w.LessThan(MinContributionWeight) || w.GreaterThan(MaxContributionWeight) {
		return core.NewValidationError(nil, core.FieldError{Field: "weight", Error: "weight must be between 1.0 and 5.0"})
	}
	if !w.Equal(w.Round(1)) {
		return core.NewValidationError(nil, core.FieldError{Field: "weight", Error: "weight allows at most one decimal place"})
	}
	return nil
}

// Input structs

type NewTemplate struct {
	DepartmentID int    `json:"department_id" validate:"required,min=1"`
	Code         string `json:"code" validate:"required,max=10"`
	Name         string `json:"name" validate:"required,max=100"`
	Credit       int    `json:"credit" validate:"required,min=1"`
}

func (nt *NewTemplate) Validate() error {
	nt.Code = core.CleanCode(nt.Code)
	nt.Name = core.CleanString(nt.Name)
	return core.Validate.Struct(nt)
}

type NewInstance struct {
	TemplateID   int    `json:"course_template_id" validate:"required,min=1"`
	Semester     string `json:"semester" validate:"required,max=20"`
	Year         int    `json:"year" validate:"required,min=2000"`
	InstructorID string `json:"instructor_id" validate:"omitempty,uuid4"`
}

func (ni *NewInstance) Validate() error {
	ni.Semester = core.CleanString(ni.Semester)
	return core.Validate.Struct(ni)
}

type NewLearningOutcome struct {
	TemplateID  int    `json:"course_template_id" validate:"required,min=1"`
	Code        string `json:"code" validate:"required,max=10"`
	Description string `json:"description" validate:"required"`
}

func (nl *NewLearningOutcome) Validate() error {
	code, err := NormalizeLOCode(nl.Code)
	if err != nil {
		return err
	}
	nl.Code = code
	nl.Description = core.CleanString(nl.Description)
	return core.Validate.Struct(nl)
}

type NewAssessment struct {
	InstanceID int             `json:"course_instance_id" validate:"required,min=1"`
	Name       string          `json:"name" validate:"required,max=50"`
	Type       string          `json:"assessment_type" validate:"required,assessmenttype"`
	MaxScore   decimal.Decimal `json:"max_score"`
	Weight     decimal.Decimal `json:"weight"`
}

func (na *NewAssessment) Validate() error {
	na.Name = core.CleanString(na.Name)
	na.Type = core.CleanCode(na.Type)
	if na.MaxScore.IsZero() {
		na.MaxScore = defaultMaxScore
	}
	if na.MaxScore.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{Field: "max_score", Error: "max_score cannot be negative"})
	}
	if na.Weight.IsNegative() || na.Weight.GreaterThan(decimal.NewFromInt(100)) {
		return core.NewValidationError(nil, core.FieldError{Field: "weight", Error: "weight must be between 0 and 100"})
	}
	return core.Validate.Struct(na)
}

type NewAssessmentLOContribution struct {
	AssessmentID      int             `json:"assessment_id" validate:"required,min=1"`
	LearningOutcomeID int             `json:"learning_outcome_id" validate:"required,min=1"`
	Weight            decimal.Decimal `json:"weight"`
}

func (nc *NewAssessmentLOContribution) Validate() error {
	if err := validateContributionWeight(nc.Weight); err != nil {
		return err
	}
	return core.Validate.Struct(nc)
}

type NewLOPOContribution struct {
	LearningOutcomeID int             `json:"learning_outcome_id" validate:"required,min=1"`
	ProgramOutcomeID  int             `json:"program_outcome_id" validate:"required,min=1"`
	Weight            decimal.Decimal `json:"weight"`
}

func (nc *NewLOPOContribution) Validate() error {
	if err := validateContributionWeight(nc.Weight); err != nil {
		return err
	}
	return core.Validate.Struct(nc)
}
