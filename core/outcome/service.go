package outcome

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/user"
)

var (
	// errors
	ErrDepartmentNotFound = errors.New("department not found")
	ErrOutcomeNotFound    = errors.New("program outcome not found")
	ErrCodeExists         = errors.New("this code is already in use")
)

type (
	Repository interface {
		CreateDepartment(ctx context.Context, dept Department, exec ...core.DBExecutor) (Department, error)
		GetDepartmentByID(ctx context.Context, id int, exec ...core.DBExecutor) (Department, error)
		GetDepartmentByCode(ctx context.Context, code string, exec ...core.DBExecutor) (Department, error)
		QueryDepartments(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]Department, error)

		CreateProgramOutcome(ctx context.Context, po ProgramOutcome, exec ...core.DBExecutor) (ProgramOutcome, error)
		GetProgramOutcomeByID(ctx context.Context, id int, exec ...core.DBExecutor) (ProgramOutcome, error)
		// QueryActiveProgramOutcomes returns active POs of a department ordered by code.
		QueryActiveProgramOutcomes(ctx context.Context, departmentID int, exec ...core.DBExecutor) ([]ProgramOutcome, error)
		UpdateProgramOutcome(ctx context.Context, po ProgramOutcome, isActive *bool, exec ...core.DBExecutor) (ProgramOutcome, error)
	}

	ServiceInterface interface {
		CreateDepartment(ctx context.Context, nd NewDepartment) (Department, error)
		GetDepartment(ctx context.Context, id int) (Department, error)
		QueryDepartments(ctx context.Context, activeOnly bool) ([]Department, error)
		CreateProgramOutcome(ctx context.Context, actor user.User, np NewProgramOutcome) (ProgramOutcome, error)
		GetProgramOutcome(ctx context.Context, id int) (ProgramOutcome, error)
		ActiveProgramOutcomes(ctx context.Context, departmentID int) ([]ProgramOutcome, error)
		UpdateProgramOutcome(ctx context.Context, id int, up UpdateProgramOutcome) (ProgramOutcome, error)
	}

	service struct {
		db   core.DB
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil) // interface compliance check

func NewService(db core.DB, repo Repository) *service {
	return &service{db: db, repo: repo}
}

func (svc *service) CreateDepartment(ctx context.Context, nd NewDepartment) (Department, error) {
	if _, err := svc.repo.GetDepartmentByCode(ctx, nd.Code); err == nil {
		return Department{}, core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
	} else if errors.Cause(err) != ErrDepartmentNotFound {
		return Department{}, err
	}

	now := time.Now().UTC()
	dept := Department{
		Code:      nd.Code,
		Name:      nd.Name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateDepartment(ctx, dept)
}

func (svc *service) GetDepartment(ctx context.Context, id int) (Department, error) {
	return svc.repo.GetDepartmentByID(ctx, id)
}

func (svc *service) QueryDepartments(ctx context.Context, activeOnly bool) ([]Department, error) {
	return svc.repo.QueryDepartments(ctx, activeOnly)
}

func (svc *service) CreateProgramOutcome(ctx context.Context, actor user.User, np NewProgramOutcome) (ProgramOutcome, error) {
	if _, err := svc.repo.GetDepartmentByID(ctx, np.DepartmentID); err != nil {
		return ProgramOutcome{}, err
	}

	now := time.Now().UTC()
	po := ProgramOutcome{
		DepartmentID: np.DepartmentID,
		Code:         np.Code,
		Description:  np.Description,
		IsActive:     true,
		CreatedBy:    null.NewString(actor.ID, actor.ID != ""),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateProgramOutcome(ctx, po)
}

func (svc *service) GetProgramOutcome(ctx context.Context, id int) (ProgramOutcome, error) {
	return svc.repo.GetProgramOutcomeByID(ctx, id)
}

func (svc *service) ActiveProgramOutcomes(ctx context.Context, departmentID int) ([]ProgramOutcome, error) {
	return svc.repo.QueryActiveProgramOutcomes(ctx, departmentID)
}

func (svc *service) UpdateProgramOutcome(ctx context.Context, id int, up UpdateProgramOutcome) (ProgramOutcome, error) {
	po := ProgramOutcome{
		ID:          id,
		Description: up.Description,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateProgramOutcome(ctx, po, up.IsActive)
}
