package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/user"
)

type courseRepository struct {
	db    *courseTable
	users *userTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course, users: db.user}
}

func (repo *courseRepository) nextID() int {
	repo.db.seq++
	return repo.db.seq
}

func (repo *courseRepository) CreateTemplate(_ context.Context, tpl course.Template, _ ...core.DBExecutor) (course.Template, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	tpl.ID = repo.nextID()
	repo.db.templates[tpl.ID] = &tpl
	return tpl, nil
}

func (repo *courseRepository) GetTemplateByID(_ context.Context, id int, _ ...core.DBExecutor) (course.Template, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if tpl, ok := repo.db.templates[id]; ok {
		return *tpl, nil
	}
	return course.Template{}, course.ErrTemplateNotFound
}

func (repo *courseRepository) QueryTemplatesByDepartment(_ context.Context, departmentID int, _ ...core.DBExecutor) ([]course.Template, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tpls := make([]course.Template, 0)
	for _, tpl := range repo.db.templates {
		if tpl.DepartmentID == departmentID {
			tpls = append(tpls, *tpl)
		}
	}
	sort.Slice(tpls, func(i, j int) bool { return tpls[i].Code < tpls[j].Code })
	return tpls, nil
}

func (repo *courseRepository) CreateInstance(_ context.Context, inst course.Instance, _ ...core.DBExecutor) (course.Instance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	inst.ID = repo.nextID()
	repo.db.instances[inst.ID] = &inst
	repo.db.enrollments[inst.ID] = make(map[string]bool)
	return inst, nil
}

func (repo *courseRepository) GetInstanceByID(_ context.Context, id int, _ ...core.DBExecutor) (course.Instance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	inst, ok := repo.db.instances[id]
	if !ok {
		return course.Instance{}, course.ErrInstanceNotFound
	}
	out := *inst
	if tpl, ok := repo.db.templates[inst.TemplateID]; ok {
		tplCopy := *tpl
		out.Template = &tplCopy
	}
	return out, nil
}

func (repo *courseRepository) QueryInstancesByTemplate(_ context.Context, templateID int, activeOnly bool, _ ...core.DBExecutor) ([]course.Instance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	insts := make([]course.Instance, 0)
	for _, inst := range repo.db.instances {
		if inst.TemplateID != templateID {
			continue
		}
		if activeOnly && !inst.IsActive {
			continue
		}
		insts = append(insts, *inst)
	}
	sort.Slice(insts, func(i, j int) bool { return insts[i].ID < insts[j].ID })
	return insts, nil
}

func (repo *courseRepository) QueryInstructors(_ context.Context, templateID int, _ ...core.DBExecutor) ([]user.User, error) {
	repo.db.RLock()
	repo.users.RLock()
	defer repo.users.RUnlock()
	defer repo.db.RUnlock()

	seen := make(map[string]bool)
	instructors := make([]user.User, 0)
	for _, inst := range repo.db.instances {
		if inst.TemplateID != templateID || !inst.IsActive || !inst.InstructorID.Valid {
			continue
		}
		id := inst.InstructorID.String
		if seen[id] {
			continue
		}
		seen[id] = true
		if usr, ok := repo.users.table[id]; ok {
			instructors = append(instructors, *usr)
		}
	}
	return instructors, nil
}

func (repo *courseRepository) EnrollStudent(_ context.Context, instanceID int, studentID string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	roster, ok := repo.db.enrollments[instanceID]
	if !ok {
		return course.ErrInstanceNotFound
	}
	roster[studentID] = true
	return nil
}

func (repo *courseRepository) UnenrollStudent(_ context.Context, instanceID int, studentID string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if roster, ok := repo.db.enrollments[instanceID]; ok {
		delete(roster, studentID)
	}
	return nil
}

func (repo *courseRepository) IsStudentEnrolled(_ context.Context, instanceID int, studentID string, _ ...core.DBExecutor) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.db.enrollments[instanceID][studentID], nil
}

func (repo *courseRepository) CreateLearningOutcome(_ context.Context, lo course.LearningOutcome, _ ...core.DBExecutor) (course.LearningOutcome, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lo.ID = repo.nextID()
	repo.db.los[lo.ID] = &lo
	return lo, nil
}

func (repo *courseRepository) GetLearningOutcomeByID(_ context.Context, id int, _ ...core.DBExecutor) (course.LearningOutcome, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if lo, ok := repo.db.los[id]; ok {
		return *lo, nil
	}
	return course.LearningOutcome{}, course.ErrOutcomeNotFound
}

func (repo *courseRepository) QueryLearningOutcomes(_ context.Context, templateIDs []int, _ ...core.DBExecutor) ([]course.LearningOutcome, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	inScope := make(map[int]bool, len(templateIDs))
	for _, id := range templateIDs {
		inScope[id] = true
	}
	los := make([]course.LearningOutcome, 0)
	for _, lo := range repo.db.los {
		if inScope[lo.TemplateID] {
			los = append(los, *lo)
		}
	}
	sort.Slice(los, func(i, j int) bool { return los[i].Code < los[j].Code })
	return los, nil
}

func (repo *courseRepository) CreateAssessment(_ context.Context, a course.Assessment, _ ...core.DBExecutor) (course.Assessment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = repo.nextID()
	repo.db.assessments[a.ID] = &a
	return a, nil
}

func (repo *courseRepository) GetAssessmentByID(_ context.Context, id int, _ ...core.DBExecutor) (course.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.assessments[id]; ok {
		return *a, nil
	}
	return course.Assessment{}, course.ErrAssessmentNotFound
}

func (repo *courseRepository) QueryAssessmentsByInstance(_ context.Context, instanceID int, _ ...core.DBExecutor) ([]course.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	assessments := make([]course.Assessment, 0)
	for _, a := range repo.db.assessments {
		if a.InstanceID == instanceID {
			assessments = append(assessments, *a)
		}
	}
	sort.Slice(assessments, func(i, j int) bool { return assessments[i].ID < assessments[j].ID })
	return assessments, nil
}

func (repo *courseRepository) CreateAssessmentLOContribution(_ context.Context, c course.AssessmentLOContribution, _ ...core.DBExecutor) (course.AssessmentLOContribution, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.edgesA {
		if existing.AssessmentID == c.AssessmentID && existing.LearningOutcomeID == c.LearningOutcomeID {
			return course.AssessmentLOContribution{}, course.ErrContributionExists
		}
	}

	c.ID = repo.nextID()
	repo.db.edgesA[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) QueryAssessmentLOContributions(_ context.Context, instanceIDs []int, _ ...core.DBExecutor) ([]course.AssessmentLOContribution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	inScope := make(map[int]bool, len(instanceIDs))
	for _, id := range instanceIDs {
		inScope[id] = true
	}
	edges := make([]course.AssessmentLOContribution, 0)
	for _, c := range repo.db.edgesA {
		if a, ok := repo.db.assessments[c.AssessmentID]; ok && inScope[a.InstanceID] {
			edges = append(edges, *c)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges, nil
}

func (repo *courseRepository) CreateLOPOContribution(_ context.Context, c course.LOPOContribution, _ ...core.DBExecutor) (course.LOPOContribution, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.edgesB {
		if existing.LearningOutcomeID == c.LearningOutcomeID && existing.ProgramOutcomeID == c.ProgramOutcomeID {
			return course.LOPOContribution{}, course.ErrContributionExists
		}
	}

	c.ID = repo.nextID()
	repo.db.edgesB[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) GetLOPOContributionByID(_ context.Context, id int, _ ...core.DBExecutor) (course.LOPOContribution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.edgesB[id]; ok {
		return *c, nil
	}
	return course.LOPOContribution{}, course.ErrContributionNotFound
}

func (repo *courseRepository) QueryLOPOContributions(_ context.Context, poIDs []int, approvedOnly bool, _ ...core.DBExecutor) ([]course.LOPOContribution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	inScope := make(map[int]bool, len(poIDs))
	for _, id := range poIDs {
		inScope[id] = true
	}
	edges := make([]course.LOPOContribution, 0)
	for _, c := range repo.db.edgesB {
		if !inScope[c.ProgramOutcomeID] {
			continue
		}
		if approvedOnly && !c.IsApproved {
			continue
		}
		edges = append(edges, *c)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges, nil
}

func (repo *courseRepository) UpdateLOPOContributionApproval(_ context.Context, c course.LOPOContribution, _ ...core.DBExecutor) (course.LOPOContribution, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.edgesB[c.ID]
	if !ok {
		return course.LOPOContribution{}, course.ErrContributionNotFound
	}
	orig.IsApproved = c.IsApproved
	orig.ApprovedBy = c.ApprovedBy
	orig.ApprovedAt = c.ApprovedAt
	orig.UpdatedAt = c.UpdatedAt
	return *orig, nil
}
