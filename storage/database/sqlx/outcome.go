package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/outcome"
)

type departmentRow struct {
	ID        int       `db:"id"`
	Code      string    `db:"code"`
	Name      string    `db:"name"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r departmentRow) department() outcome.Department {
	return outcome.Department(r)
}

type programOutcomeRow struct {
	ID           int         `db:"id"`
	DepartmentID int         `db:"department_id"`
	Code         string      `db:"code"`
	Description  string      `db:"description"`
	IsActive     bool        `db:"is_active"`
	CreatedBy    null.String `db:"created_by"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r programOutcomeRow) programOutcome() outcome.ProgramOutcome {
	return outcome.ProgramOutcome(r)
}

type outcomeRepository struct {
	db *sqlx.DB
}

var _ outcome.Repository = (*outcomeRepository)(nil) // interface compliance check

func NewOutcomeRepository(db *sqlx.DB) *outcomeRepository {
	return &outcomeRepository{db: db}
}

const (
	departmentColumns = `id, code, name, is_active, created_at, updated_at`
	poColumns         = `id, department_id, code, description, is_active, created_by, created_at, updated_at`
)

func (repo outcomeRepository) CreateDepartment(ctx context.Context, dept outcome.Department, exec ...core.DBExecutor) (outcome.Department, error) {
	query := `
		INSERT INTO department (code, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &dept.ID, query,
		dept.Code, dept.Name, dept.IsActive, dept.CreatedAt.UTC(), dept.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return outcome.Department{}, outcome.ErrCodeExists
		}
		return outcome.Department{}, errors.Wrap(err, "inserting department")
	}
	return dept, nil
}

func (repo outcomeRepository) GetDepartmentByID(ctx context.Context, id int, exec ...core.DBExecutor) (outcome.Department, error) {
	var row departmentRow
	query := `SELECT ` + departmentColumns + ` FROM department WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		if isNoRows(err) {
			return outcome.Department{}, outcome.ErrDepartmentNotFound
		}
		return outcome.Department{}, errors.Wrap(err, "finding department by ID")
	}
	return row.department(), nil
}

func (repo outcomeRepository) GetDepartmentByCode(ctx context.Context, code string, exec ...core.DBExecutor) (outcome.Department, error) {
	var row departmentRow
	query := `SELECT ` + departmentColumns + ` FROM department WHERE code = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, code); err != nil {
		if isNoRows(err) {
			return outcome.Department{}, outcome.ErrDepartmentNotFound
		}
		return outcome.Department{}, errors.Wrap(err, "finding department by code")
	}
	return row.department(), nil
}

func (repo outcomeRepository) QueryDepartments(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]outcome.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM department`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY code`

	rows := make([]departmentRow, 0)
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying departments")
	}
	depts := make([]outcome.Department, 0, len(rows))
	for _, row := range rows {
		depts = append(depts, row.department())
	}
	return depts, nil
}

func (repo outcomeRepository) CreateProgramOutcome(ctx context.Context, po outcome.ProgramOutcome, exec ...core.DBExecutor) (outcome.ProgramOutcome, error) {
	query := `
		INSERT INTO program_outcome (department_id, code, description, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &po.ID, query,
		po.DepartmentID, po.Code, po.Description, po.IsActive, po.CreatedBy,
		po.CreatedAt.UTC(), po.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return outcome.ProgramOutcome{}, outcome.ErrCodeExists
		}
		return outcome.ProgramOutcome{}, errors.Wrap(err, "inserting program outcome")
	}
	return po, nil
}

func (repo outcomeRepository) GetProgramOutcomeByID(ctx context.Context, id int, exec ...core.DBExecutor) (outcome.ProgramOutcome, error) {
	var row programOutcomeRow
	query := `SELECT ` + poColumns + ` FROM program_outcome WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		if isNoRows(err) {
			return outcome.ProgramOutcome{}, outcome.ErrOutcomeNotFound
		}
		return outcome.ProgramOutcome{}, errors.Wrap(err, "finding program outcome by ID")
	}
	return row.programOutcome(), nil
}

func (repo outcomeRepository) QueryActiveProgramOutcomes(ctx context.Context, departmentID int, exec ...core.DBExecutor) ([]outcome.ProgramOutcome, error) {
	query := `SELECT ` + poColumns + ` FROM program_outcome WHERE department_id = $1 AND is_active ORDER BY code`
	rows := make([]programOutcomeRow, 0)
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, departmentID); err != nil {
		return nil, errors.Wrap(err, "querying active program outcomes")
	}
	pos := make([]outcome.ProgramOutcome, 0, len(rows))
	for _, row := range rows {
		pos = append(pos, row.programOutcome())
	}
	return pos, nil
}

func (repo outcomeRepository) UpdateProgramOutcome(ctx context.Context, po outcome.ProgramOutcome, isActive *bool, exec ...core.DBExecutor) (outcome.ProgramOutcome, error) {
	query := `
		UPDATE program_outcome SET
			description = COALESCE(NULLIF($2, ''), description),
			is_active   = COALESCE($3, is_active),
			updated_at  = $4
		WHERE id = $1
		RETURNING ` + poColumns

	var row programOutcomeRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query,
		po.ID, po.Description, null.BoolFromPtr(isActive), po.UpdatedAt.UTC())
	if err != nil {
		if isNoRows(err) {
			return outcome.ProgramOutcome{}, outcome.ErrOutcomeNotFound
		}
		return outcome.ProgramOutcome{}, errors.Wrap(err, "updating program outcome")
	}
	return row.programOutcome(), nil
}
