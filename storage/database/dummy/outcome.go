package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/outcome"
)

type outcomeRepository struct {
	db *outcomeTable
}

var _ outcome.Repository = (*outcomeRepository)(nil) // interface compliance check

func NewOutcomeRepository(db *DB) *outcomeRepository {
	return &outcomeRepository{db: db.outcome}
}

func (repo *outcomeRepository) CreateDepartment(_ context.Context, dept outcome.Department, _ ...core.DBExecutor) (outcome.Department, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.deptSeq++
	dept.ID = repo.db.deptSeq
	repo.db.departments[dept.ID] = &dept
	return dept, nil
}

func (repo *outcomeRepository) GetDepartmentByID(_ context.Context, id int, _ ...core.DBExecutor) (outcome.Department, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if dept, ok := repo.db.departments[id]; ok {
		return *dept, nil
	}
	return outcome.Department{}, outcome.ErrDepartmentNotFound
}

func (repo *outcomeRepository) GetDepartmentByCode(_ context.Context, code string, _ ...core.DBExecutor) (outcome.Department, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, dept := range repo.db.departments {
		if dept.Code == code {
			return *dept, nil
		}
	}
	return outcome.Department{}, outcome.ErrDepartmentNotFound
}

func (repo *outcomeRepository) QueryDepartments(_ context.Context, activeOnly bool, _ ...core.DBExecutor) ([]outcome.Department, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	depts := make([]outcome.Department, 0, len(repo.db.departments))
	for _, dept := range repo.db.departments {
		if activeOnly && !dept.IsActive {
			continue
		}
		depts = append(depts, *dept)
	}
	sort.Slice(depts, func(i, j int) bool { return depts[i].Code < depts[j].Code })
	return depts, nil
}

func (repo *outcomeRepository) CreateProgramOutcome(_ context.Context, po outcome.ProgramOutcome, _ ...core.DBExecutor) (outcome.ProgramOutcome, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.outcomes {
		if existing.DepartmentID == po.DepartmentID && existing.Code == po.Code {
			return outcome.ProgramOutcome{}, outcome.ErrCodeExists
		}
	}

	repo.db.poSeq++
	po.ID = repo.db.poSeq
	repo.db.outcomes[po.ID] = &po
	return po, nil
}

func (repo *outcomeRepository) GetProgramOutcomeByID(_ context.Context, id int, _ ...core.DBExecutor) (outcome.ProgramOutcome, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if po, ok := repo.db.outcomes[id]; ok {
		return *po, nil
	}
	return outcome.ProgramOutcome{}, outcome.ErrOutcomeNotFound
}

func (repo *outcomeRepository) QueryActiveProgramOutcomes(_ context.Context, departmentID int, _ ...core.DBExecutor) ([]outcome.ProgramOutcome, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	pos := make([]outcome.ProgramOutcome, 0)
	for _, po := range repo.db.outcomes {
		if po.DepartmentID == departmentID && po.IsActive {
			pos = append(pos, *po)
		}
	}
	sort.Slice(pos, func(i, j int) bool { return pos[i].Code < pos[j].Code })
	return pos, nil
}

func (repo *outcomeRepository) UpdateProgramOutcome(_ context.Context, po outcome.ProgramOutcome, isActive *bool, _ ...core.DBExecutor) (outcome.ProgramOutcome, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.outcomes[po.ID]
	if !ok {
		return outcome.ProgramOutcome{}, outcome.ErrOutcomeNotFound
	}

	if po.Description != "" {
		orig.Description = po.Description
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.UpdatedAt = po.UpdatedAt
	return *orig, nil
}
