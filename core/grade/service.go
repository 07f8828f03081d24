package grade

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/user"
)

var (
	// errors
	ErrNotFound     = errors.New("grade not found")
	errScoreTooHigh = errors.New("score cannot exceed the assessment's max score")
	errNotEnrolled  = errors.New("the student is not enrolled in the assessment's course")
)

type (
	Repository interface {
		// UpsertGrade inserts or overwrites the (student, assessment) grade.
		UpsertGrade(ctx context.Context, g AssessmentGrade, exec ...core.DBExecutor) (AssessmentGrade, error)
		GetGrade(ctx context.Context, studentID string, assessmentID int, exec ...core.DBExecutor) (AssessmentGrade, error)
		QueryGradesByStudent(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]AssessmentGrade, error)
		DeleteGrade(ctx context.Context, studentID string, assessmentID int, exec ...core.DBExecutor) error
	}

	ServiceInterface interface {
		Record(ctx context.Context, actor user.User, ng NewGrade) (AssessmentGrade, error)
		Get(ctx context.Context, studentID string, assessmentID int) (AssessmentGrade, error)
		// PerformanceScore is the plain average of all of a student's scores,
		// rounded to 2 decimal places; nil when the student has no grades.
		PerformanceScore(ctx context.Context, studentID string) (*float64, error)
	}

	service struct {
		db         core.DB
		repo       Repository
		courseRepo course.Repository
	}
)

var _ ServiceInterface = (*service)(nil) // interface compliance check

func NewService(db core.DB, repo Repository, courseRepo course.Repository) *service {
	return &service{db: db, repo: repo, courseRepo: courseRepo}
}

// Record stores a student's score on an assessment, overwriting any previous
// score. The score may not exceed the assessment's max score and the student
// must be enrolled in the assessment's course instance.
func (svc *service) Record(ctx context.Context, actor user.User, ng NewGrade) (AssessmentGrade, error) {
	a, err := svc.courseRepo.GetAssessmentByID(ctx, ng.AssessmentID)
	if err != nil {
		return AssessmentGrade{}, err
	}
	if ng.Score.GreaterThan(a.MaxScore) {
		return AssessmentGrade{}, core.NewValidationError(errScoreTooHigh, core.FieldError{Field: "score", Error: errScoreTooHigh.Error()})
	}
	enrolled, err := svc.courseRepo.IsStudentEnrolled(ctx, a.InstanceID, ng.StudentID)
	if err != nil {
		return AssessmentGrade{}, err
	}
	if !enrolled {
		return AssessmentGrade{}, core.NewValidationError(errNotEnrolled, core.FieldError{Field: "student_id", Error: errNotEnrolled.Error()})
	}

	now := time.Now().UTC()
	g := AssessmentGrade{
		StudentID:    ng.StudentID,
		AssessmentID: ng.AssessmentID,
		Score:        ng.Score,
		EnteredBy:    null.NewString(actor.ID, actor.ID != ""),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.UpsertGrade(ctx, g)
}

func (svc *service) Get(ctx context.Context, studentID string, assessmentID int) (AssessmentGrade, error) {
	return svc.repo.GetGrade(ctx, studentID, assessmentID)
}

func (svc *service) PerformanceScore(ctx context.Context, studentID string) (*float64, error) {
	grades, err := svc.repo.QueryGradesByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(grades) == 0 {
		return nil, nil
	}

	total := decimal.Zero
	for _, g := range grades {
		total = total.Add(g.Score)
	}
	avg, _ := total.Div(decimal.NewFromInt(int64(len(grades)))).Round(2).Float64()
	return &avg, nil
}
