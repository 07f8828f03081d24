package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/grade"
)

type gradeRepository struct {
	db *gradeTable
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db.grade}
}

func (repo *gradeRepository) UpsertGrade(_ context.Context, g grade.AssessmentGrade, _ ...core.DBExecutor) (grade.AssessmentGrade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := gradeKey{studentID: g.StudentID, assessmentID: g.AssessmentID}
	if orig, ok := repo.db.table[key]; ok {
		orig.Score = g.Score
		orig.EnteredBy = g.EnteredBy
		orig.UpdatedAt = g.UpdatedAt
		return *orig, nil
	}

	repo.db.seq++
	g.ID = repo.db.seq
	repo.db.table[key] = &g
	return g, nil
}

func (repo *gradeRepository) GetGrade(_ context.Context, studentID string, assessmentID int, _ ...core.DBExecutor) (grade.AssessmentGrade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if g, ok := repo.db.table[gradeKey{studentID: studentID, assessmentID: assessmentID}]; ok {
		return *g, nil
	}
	return grade.AssessmentGrade{}, grade.ErrNotFound
}

func (repo *gradeRepository) QueryGradesByStudent(_ context.Context, studentID string, _ ...core.DBExecutor) ([]grade.AssessmentGrade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	grades := make([]grade.AssessmentGrade, 0)
	for key, g := range repo.db.table {
		if key.studentID == studentID {
			grades = append(grades, *g)
		}
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].AssessmentID < grades[j].AssessmentID })
	return grades, nil
}

func (repo *gradeRepository) DeleteGrade(_ context.Context, studentID string, assessmentID int, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.table, gradeKey{studentID: studentID, assessmentID: assessmentID})
	return nil
}
