// Package achievement implements the outcome achievement aggregation engine:
// raw per-assessment scores are rolled up through the weighted
// assessment->LO->PO contribution graph into per-course and overall
// achievement percentages.
//
// The engine is a pure computation over a Source snapshot. It never mutates,
// never retries, and degrades missing data to absence rather than zero.
package achievement

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/outcome"
	"github.com/trezcool/matokeo/core/user"
)

var errNoTemplate = errors.New("course instance is missing its template")

// Source provides read access to the entity-graph snapshot an aggregation call
// consumes. Implementations must restrict LO->PO edges to approved ones and
// populate Instance.Template on ActiveEnrollments.
type Source interface {
	ActiveProgramOutcomes(ctx context.Context, departmentID int) ([]outcome.ProgramOutcome, error)
	LearningOutcomes(ctx context.Context, templateID int) ([]course.LearningOutcome, error)
	AssessmentLOEdges(ctx context.Context, instanceIDs ...int) ([]AssessmentLOEdge, error)
	ApprovedLOPOEdges(ctx context.Context, poIDs ...int) ([]LOPOEdge, error)
	// StudentGrades returns a student's scores within the given instances,
	// keyed by assessment id.
	StudentGrades(ctx context.Context, studentID string, instanceIDs ...int) (map[int]decimal.Decimal, error)
	// RosterGrades returns every enrolled student's scores within an instance,
	// keyed by student id then assessment id.
	RosterGrades(ctx context.Context, instanceID int) (map[string]map[int]decimal.Decimal, error)
	EnrolledStudents(ctx context.Context, instanceID int) ([]user.User, error)
	ActiveEnrollments(ctx context.Context, studentID string) ([]course.Instance, error)
}

type Engine struct {
	src Source
}

func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// CoursePOAchievements computes a student's achievement of every active
// program outcome of the course's department, within one course instance.
// POs with no graded evidence are omitted. inst.Template must be populated.
func (e *Engine) CoursePOAchievements(ctx context.Context, studentID string, inst course.Instance) ([]POAchievement, error) {
	if inst.Template == nil {
		return nil, errNoTemplate
	}

	pos, err := e.src.ActiveProgramOutcomes(ctx, inst.Template.DepartmentID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching program outcomes")
	}
	if len(pos) == 0 {
		return []POAchievement{}, nil
	}

	idx, err := e.loadIndex(ctx, []course.Instance{inst}, pos)
	if err != nil {
		return nil, err
	}
	grades, err := e.src.StudentGrades(ctx, studentID, inst.ID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching grades")
	}

	cache := make(loCache)
	results := make([]POAchievement, 0, len(pos))
	for _, po := range pos {
		res := resolvePO(idx, cache, grades, inst.ID, inst.TemplateID, po.ID)
		if !res.ok {
			continue
		}
		results = append(results, POAchievement{ProgramOutcome: po, Achievement: round2(res.val)})
	}
	return results, nil
}

// OverallPOAchievements computes a student's overall achievement of every
// active program outcome of their department, credit-weighted across their
// actively-enrolled courses. Courses contributing no graded evidence to a PO
// are excluded from both numerator and denominator; POs with no contributing
// course at all are omitted.
func (e *Engine) OverallPOAchievements(ctx context.Context, student user.User) ([]OverallPOAchievement, error) {
	if !student.DepartmentID.Valid {
		return []OverallPOAchievement{}, nil
	}

	pos, err := e.src.ActiveProgramOutcomes(ctx, student.DepartmentID.Int)
	if err != nil {
		return nil, errors.Wrap(err, "fetching program outcomes")
	}
	enrollments, err := e.src.ActiveEnrollments(ctx, student.ID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching enrollments")
	}
	if len(pos) == 0 || len(enrollments) == 0 {
		return []OverallPOAchievement{}, nil
	}

	instanceIDs := make([]int, 0, len(enrollments))
	for _, inst := range enrollments {
		if inst.Template == nil {
			return nil, errNoTemplate
		}
		instanceIDs = append(instanceIDs, inst.ID)
	}

	idx, err := e.loadIndex(ctx, enrollments, pos)
	if err != nil {
		return nil, err
	}
	grades, err := e.src.StudentGrades(ctx, student.ID, instanceIDs...)
	if err != nil {
		return nil, errors.Wrap(err, "fetching grades")
	}

	cache := make(loCache)
	results := make([]OverallPOAchievement, 0, len(pos))
	for _, po := range pos {
		achTotal := decimal.Zero
		creditTotal := decimal.Zero
		var contributing []CourseContribution

		for _, inst := range enrollments {
			res := resolvePO(idx, cache, grades, inst.ID, inst.TemplateID, po.ID)
			if !res.ok {
				continue // an ungraded course must not dilute the average
			}
			credit := decimal.NewFromInt(int64(inst.Template.Credit))
			achTotal = achTotal.Add(res.val.Mul(credit))
			creditTotal = creditTotal.Add(credit)
			contributing = append(contributing, CourseContribution{Instance: inst, Achievement: round2(res.val)})
		}

		if !creditTotal.IsPositive() {
			continue
		}
		results = append(results, OverallPOAchievement{
			ProgramOutcome:      po,
			Achievement:         round2(achTotal.Div(creditTotal)),
			ContributingCourses: contributing,
			CourseCount:         len(contributing),
		})
	}
	return results, nil
}

// CourseLOStatistics computes min/average/max achievement of each of the
// course's learning outcomes across the enrolled student population. LOs with
// no assessment contribution in this instance cannot be assessed this offering
// and are skipped; students with absent achievement are excluded from the
// statistic. inst.Template must be populated.
func (e *Engine) CourseLOStatistics(ctx context.Context, inst course.Instance) ([]LOStatistic, error) {
	if inst.Template == nil {
		return nil, errNoTemplate
	}

	los, err := e.src.LearningOutcomes(ctx, inst.TemplateID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching learning outcomes")
	}
	if len(los) == 0 {
		return []LOStatistic{}, nil
	}

	edgesA, err := e.src.AssessmentLOEdges(ctx, inst.ID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching assessment contributions")
	}
	idx := buildIndex(edgesA, nil)

	students, err := e.src.EnrolledStudents(ctx, inst.ID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching roster")
	}
	rosterGrades, err := e.src.RosterGrades(ctx, inst.ID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching roster grades")
	}

	results := make([]LOStatistic, 0, len(los))
	for _, lo := range los {
		if len(idx.assessmentToLO[lo.ID]) == 0 {
			continue
		}

		var achievements []decimal.Decimal
		for _, student := range students {
			// one cache per student: roster grade visibility differs per student
			res := resolveLO(idx, make(loCache), rosterGrades[student.ID], inst.ID, lo.ID)
			if res.ok {
				achievements = append(achievements, res.val)
			}
		}
		if len(achievements) == 0 {
			continue
		}

		min, max, sum := achievements[0], achievements[0], decimal.Zero
		for _, a := range achievements {
			if a.LessThan(min) {
				min = a
			}
			if a.GreaterThan(max) {
				max = a
			}
			sum = sum.Add(a)
		}
		results = append(results, LOStatistic{
			LearningOutcome: lo,
			Average:         round2(sum.Div(decimal.NewFromInt(int64(len(achievements))))),
			Min:             round2(min),
			Max:             round2(max),
			StudentCount:    len(achievements),
		})
	}
	return results, nil
}

// loadIndex fetches both edge tables for the scope and builds the adjacency
// index downstream resolvers share. An empty scope yields an empty index.
func (e *Engine) loadIndex(ctx context.Context, scope []course.Instance, pos []outcome.ProgramOutcome) (*contributionIndex, error) {
	instanceIDs := make([]int, 0, len(scope))
	for _, inst := range scope {
		instanceIDs = append(instanceIDs, inst.ID)
	}
	poIDs := make([]int, 0, len(pos))
	for _, po := range pos {
		poIDs = append(poIDs, po.ID)
	}

	edgesA, err := e.src.AssessmentLOEdges(ctx, instanceIDs...)
	if err != nil {
		return nil, errors.Wrap(err, "fetching assessment contributions")
	}
	edgesB, err := e.src.ApprovedLOPOEdges(ctx, poIDs...)
	if err != nil {
		return nil, errors.Wrap(err, "fetching approved PO contributions")
	}
	return buildIndex(edgesA, edgesB), nil
}
