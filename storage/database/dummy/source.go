package dummydb

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/trezcool/matokeo/core/achievement"
	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/outcome"
	"github.com/trezcool/matokeo/core/user"
)

// achievementSource feeds the achievement engine from the in-memory tables.
type achievementSource struct {
	db *DB
}

var _ achievement.Source = (*achievementSource)(nil) // interface compliance check

func NewAchievementSource(db *DB) *achievementSource {
	return &achievementSource{db: db}
}

func (src *achievementSource) ActiveProgramOutcomes(ctx context.Context, departmentID int) ([]outcome.ProgramOutcome, error) {
	return NewOutcomeRepository(src.db).QueryActiveProgramOutcomes(ctx, departmentID)
}

func (src *achievementSource) LearningOutcomes(ctx context.Context, templateID int) ([]course.LearningOutcome, error) {
	return NewCourseRepository(src.db).QueryLearningOutcomes(ctx, []int{templateID})
}

func (src *achievementSource) AssessmentLOEdges(_ context.Context, instanceIDs ...int) ([]achievement.AssessmentLOEdge, error) {
	src.db.course.RLock()
	defer src.db.course.RUnlock()

	inScope := make(map[int]bool, len(instanceIDs))
	for _, id := range instanceIDs {
		inScope[id] = true
	}
	edges := make([]achievement.AssessmentLOEdge, 0)
	for _, c := range src.db.course.edgesA {
		a, ok := src.db.course.assessments[c.AssessmentID]
		if !ok || !inScope[a.InstanceID] {
			continue
		}
		edges = append(edges, achievement.AssessmentLOEdge{
			AssessmentID:      c.AssessmentID,
			LearningOutcomeID: c.LearningOutcomeID,
			InstanceID:        a.InstanceID,
			Weight:            c.Weight,
		})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].AssessmentID < edges[j].AssessmentID })
	return edges, nil
}

func (src *achievementSource) ApprovedLOPOEdges(_ context.Context, poIDs ...int) ([]achievement.LOPOEdge, error) {
	src.db.course.RLock()
	defer src.db.course.RUnlock()

	inScope := make(map[int]bool, len(poIDs))
	for _, id := range poIDs {
		inScope[id] = true
	}
	edges := make([]achievement.LOPOEdge, 0)
	for _, c := range src.db.course.edgesB {
		if !c.IsApproved || !inScope[c.ProgramOutcomeID] {
			continue
		}
		lo, ok := src.db.course.los[c.LearningOutcomeID]
		if !ok {
			continue
		}
		edges = append(edges, achievement.LOPOEdge{
			LearningOutcomeID: c.LearningOutcomeID,
			ProgramOutcomeID:  c.ProgramOutcomeID,
			TemplateID:        lo.TemplateID,
			Weight:            c.Weight,
		})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].LearningOutcomeID < edges[j].LearningOutcomeID })
	return edges, nil
}

func (src *achievementSource) StudentGrades(_ context.Context, studentID string, instanceIDs ...int) (map[int]decimal.Decimal, error) {
	src.db.course.RLock()
	src.db.grade.RLock()
	defer src.db.grade.RUnlock()
	defer src.db.course.RUnlock()

	inScope := make(map[int]bool, len(instanceIDs))
	for _, id := range instanceIDs {
		inScope[id] = true
	}
	grades := make(map[int]decimal.Decimal)
	for key, g := range src.db.grade.table {
		if key.studentID != studentID {
			continue
		}
		if a, ok := src.db.course.assessments[key.assessmentID]; ok && inScope[a.InstanceID] {
			grades[key.assessmentID] = g.Score
		}
	}
	return grades, nil
}

func (src *achievementSource) RosterGrades(ctx context.Context, instanceID int) (map[string]map[int]decimal.Decimal, error) {
	src.db.course.RLock()
	roster := make([]string, 0, len(src.db.course.enrollments[instanceID]))
	for studentID := range src.db.course.enrollments[instanceID] {
		roster = append(roster, studentID)
	}
	src.db.course.RUnlock()

	grades := make(map[string]map[int]decimal.Decimal, len(roster))
	for _, studentID := range roster {
		studentGrades, err := src.StudentGrades(ctx, studentID, instanceID)
		if err != nil {
			return nil, err
		}
		grades[studentID] = studentGrades
	}
	return grades, nil
}

func (src *achievementSource) EnrolledStudents(_ context.Context, instanceID int) ([]user.User, error) {
	src.db.course.RLock()
	src.db.user.RLock()
	defer src.db.user.RUnlock()
	defer src.db.course.RUnlock()

	students := make([]user.User, 0, len(src.db.course.enrollments[instanceID]))
	for studentID := range src.db.course.enrollments[instanceID] {
		if usr, ok := src.db.user.table[studentID]; ok {
			students = append(students, *usr)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (src *achievementSource) ActiveEnrollments(_ context.Context, studentID string) ([]course.Instance, error) {
	src.db.course.RLock()
	defer src.db.course.RUnlock()

	insts := make([]course.Instance, 0)
	for instanceID, roster := range src.db.course.enrollments {
		if !roster[studentID] {
			continue
		}
		inst, ok := src.db.course.instances[instanceID]
		if !ok || !inst.IsActive {
			continue
		}
		out := *inst
		if tpl, ok := src.db.course.templates[inst.TemplateID]; ok {
			tplCopy := *tpl
			out.Template = &tplCopy
		}
		insts = append(insts, out)
	}
	sort.Slice(insts, func(i, j int) bool { return insts[i].ID < insts[j].ID })
	return insts, nil
}
