package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/grade"
)

type gradeRow struct {
	ID           int             `db:"id"`
	StudentID    string          `db:"student_id"`
	AssessmentID int             `db:"assessment_id"`
	Score        decimal.Decimal `db:"score"`
	EnteredBy    null.String     `db:"entered_by"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (r gradeRow) grade() grade.AssessmentGrade {
	return grade.AssessmentGrade(r)
}

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *sqlx.DB) *gradeRepository {
	return &gradeRepository{db: db}
}

const gradeColumns = `id, student_id, assessment_id, score, entered_by, created_at, updated_at`

func (repo gradeRepository) UpsertGrade(ctx context.Context, g grade.AssessmentGrade, exec ...core.DBExecutor) (grade.AssessmentGrade, error) {
	query := `
		INSERT INTO assessment_grade (student_id, assessment_id, score, entered_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id, assessment_id) DO UPDATE SET
			score      = EXCLUDED.score,
			entered_by = EXCLUDED.entered_by,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + gradeColumns

	var row gradeRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query,
		g.StudentID, g.AssessmentID, g.Score, g.EnteredBy, g.CreatedAt.UTC(), g.UpdatedAt.UTC())
	if err != nil {
		return grade.AssessmentGrade{}, errors.Wrap(err, "upserting grade")
	}
	return row.grade(), nil
}

func (repo gradeRepository) GetGrade(ctx context.Context, studentID string, assessmentID int, exec ...core.DBExecutor) (grade.AssessmentGrade, error) {
	var row gradeRow
	query := `SELECT ` + gradeColumns + ` FROM assessment_grade WHERE student_id = $1 AND assessment_id = $2`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, studentID, assessmentID); err != nil {
		if isNoRows(err) {
			return grade.AssessmentGrade{}, grade.ErrNotFound
		}
		return grade.AssessmentGrade{}, errors.Wrap(err, "finding grade")
	}
	return row.grade(), nil
}

func (repo gradeRepository) QueryGradesByStudent(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]grade.AssessmentGrade, error) {
	query := `SELECT ` + gradeColumns + ` FROM assessment_grade WHERE student_id = $1 ORDER BY assessment_id`
	rows := make([]gradeRow, 0)
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying student grades")
	}
	grades := make([]grade.AssessmentGrade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, row.grade())
	}
	return grades, nil
}

func (repo gradeRepository) DeleteGrade(ctx context.Context, studentID string, assessmentID int, exec ...core.DBExecutor) error {
	query := `DELETE FROM assessment_grade WHERE student_id = $1 AND assessment_id = $2`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, studentID, assessmentID); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return nil
}
