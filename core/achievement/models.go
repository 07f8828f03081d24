package achievement

import (
	"github.com/shopspring/decimal"

	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/outcome"
)

// AssessmentLOEdge is the engine's projection of an Assessment->LO contribution
// (edge A). InstanceID locates the assessment's course instance so a
// multi-course scope can be partitioned.
type AssessmentLOEdge struct {
	AssessmentID      int
	LearningOutcomeID int
	InstanceID        int
	Weight            decimal.Decimal
}

// LOPOEdge is the engine's projection of an approved LO->PO contribution
// (edge B). TemplateID locates the LO's course template.
type LOPOEdge struct {
	LearningOutcomeID int
	ProgramOutcomeID  int
	TemplateID        int
	Weight            decimal.Decimal
}

// POAchievement is a student's achievement of one program outcome within one
// course instance. Achievement is a 0-100 percentage rounded to 2 decimal
// places; program outcomes with no graded evidence are never reported.
type POAchievement struct {
	ProgramOutcome outcome.ProgramOutcome `json:"program_outcome"`
	Achievement    float64                `json:"achievement"`
}

// CourseContribution is one course's share of an overall PO achievement.
type CourseContribution struct {
	Instance    course.Instance `json:"course"`
	Achievement float64         `json:"achievement"`
}

// OverallPOAchievement is a student's credit-weighted achievement of one
// program outcome across all their actively-enrolled courses.
type OverallPOAchievement struct {
	ProgramOutcome      outcome.ProgramOutcome `json:"program_outcome"`
	Achievement         float64                `json:"overall_achievement"`
	ContributingCourses []CourseContribution   `json:"contributing_courses"`
	CourseCount         int                    `json:"course_count"`
}

// LOStatistic is the spread of a course roster's achievement of one learning
// outcome. Students without graded evidence are excluded, not counted as zero.
type LOStatistic struct {
	LearningOutcome course.LearningOutcome `json:"learning_outcome"`
	Average         float64                `json:"average"`
	Min             float64                `json:"min"`
	Max             float64                `json:"max"`
	StudentCount    int                    `json:"student_count"`
}

// round2 converts a full-precision achievement to its reported form. Internal
// arithmetic stays decimal; this is the only place precision is dropped.
func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
