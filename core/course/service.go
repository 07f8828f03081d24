package course

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/outcome"
	"github.com/trezcool/matokeo/core/user"
)

var (
	// errors
	ErrTemplateNotFound     = errors.New("course template not found")
	ErrInstanceNotFound     = errors.New("course instance not found")
	ErrOutcomeNotFound      = errors.New("learning outcome not found")
	ErrAssessmentNotFound   = errors.New("assessment not found")
	ErrContributionNotFound = errors.New("contribution not found")
	ErrContributionExists   = errors.New("this contribution already exists")
	ErrAlreadyEnrolled      = errors.New("student is already enrolled")

	errTemplateMismatch   = errors.New("learning outcome and assessment belong to different course templates")
	errDepartmentMismatch = errors.New("program outcome and learning outcome belong to different departments")
)

type (
	Repository interface {
		CreateTemplate(ctx context.Context, tpl Template, exec ...core.DBExecutor) (Template, error)
		GetTemplateByID(ctx context.Context, id int, exec ...core.DBExecutor) (Template, error)
		QueryTemplatesByDepartment(ctx context.Context, departmentID int, exec ...core.DBExecutor) ([]Template, error)

		CreateInstance(ctx context.Context, inst Instance, exec ...core.DBExecutor) (Instance, error)
		// GetInstanceByID populates Instance.Template.
		GetInstanceByID(ctx context.Context, id int, exec ...core.DBExecutor) (Instance, error)
		QueryInstancesByTemplate(ctx context.Context, templateID int, activeOnly bool, exec ...core.DBExecutor) ([]Instance, error)
		// QueryInstructors returns the instructors of a template's active instances.
		QueryInstructors(ctx context.Context, templateID int, exec ...core.DBExecutor) ([]user.User, error)

		EnrollStudent(ctx context.Context, instanceID int, studentID string, exec ...core.DBExecutor) error
		UnenrollStudent(ctx context.Context, instanceID int, studentID string, exec ...core.DBExecutor) error
		IsStudentEnrolled(ctx context.Context, instanceID int, studentID string, exec ...core.DBExecutor) (bool, error)

		CreateLearningOutcome(ctx context.Context, lo LearningOutcome, exec ...core.DBExecutor) (LearningOutcome, error)
		GetLearningOutcomeByID(ctx context.Context, id int, exec ...core.DBExecutor) (LearningOutcome, error)
		QueryLearningOutcomes(ctx context.Context, templateIDs []int, exec ...core.DBExecutor) ([]LearningOutcome, error)

		CreateAssessment(ctx context.Context, a Assessment, exec ...core.DBExecutor) (Assessment, error)
		GetAssessmentByID(ctx context.Context, id int, exec ...core.DBExecutor) (Assessment, error)
		QueryAssessmentsByInstance(ctx context.Context, instanceID int, exec ...core.DBExecutor) ([]Assessment, error)

		CreateAssessmentLOContribution(ctx context.Context, c AssessmentLOContribution, exec ...core.DBExecutor) (AssessmentLOContribution, error)
		QueryAssessmentLOContributions(ctx context.Context, instanceIDs []int, exec ...core.DBExecutor) ([]AssessmentLOContribution, error)

		CreateLOPOContribution(ctx context.Context, c LOPOContribution, exec ...core.DBExecutor) (LOPOContribution, error)
		GetLOPOContributionByID(ctx context.Context, id int, exec ...core.DBExecutor) (LOPOContribution, error)
		// QueryLOPOContributions restricts to the given POs; approvedOnly filters on is_approved.
		QueryLOPOContributions(ctx context.Context, poIDs []int, approvedOnly bool, exec ...core.DBExecutor) ([]LOPOContribution, error)
		UpdateLOPOContributionApproval(ctx context.Context, c LOPOContribution, exec ...core.DBExecutor) (LOPOContribution, error)
	}

	ServiceInterface interface {
		CreateTemplate(ctx context.Context, nt NewTemplate) (Template, error)
		GetTemplate(ctx context.Context, id int) (Template, error)
		CreateInstance(ctx context.Context, ni NewInstance) (Instance, error)
		GetInstance(ctx context.Context, id int) (Instance, error)
		Enroll(ctx context.Context, instanceID int, studentID string) error
		Unenroll(ctx context.Context, instanceID int, studentID string) error
		CreateLearningOutcome(ctx context.Context, nl NewLearningOutcome) (LearningOutcome, error)
		CreateAssessment(ctx context.Context, na NewAssessment) (Assessment, error)
		CreateAssessmentLOContribution(ctx context.Context, nc NewAssessmentLOContribution) (AssessmentLOContribution, error)
		CreateLOPOContribution(ctx context.Context, nc NewLOPOContribution) (LOPOContribution, error)
		ApproveLOPOContribution(ctx context.Context, actor user.User, id int) (LOPOContribution, error)
	}

	service struct {
		db          core.DB
		repo        Repository
		outcomeRepo outcome.Repository
		mailSvc     core.EmailService
	}
)

var _ ServiceInterface = (*service)(nil) // interface compliance check

func NewService(db core.DB, repo Repository, outcomeRepo outcome.Repository, mailSvc core.EmailService) *service {
	return &service{db: db, repo: repo, outcomeRepo: outcomeRepo, mailSvc: mailSvc}
}

func (svc *service) CreateTemplate(ctx context.Context, nt NewTemplate) (Template, error) {
	if _, err := svc.outcomeRepo.GetDepartmentByID(ctx, nt.DepartmentID); err != nil {
		return Template{}, err
	}

	now := time.Now().UTC()
	tpl := Template{
		DepartmentID: nt.DepartmentID,
		Code:         nt.Code,
		Name:         nt.Name,
		Credit:       nt.Credit,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateTemplate(ctx, tpl)
}

func (svc *service) GetTemplate(ctx context.Context, id int) (Template, error) {
	return svc.repo.GetTemplateByID(ctx, id)
}

func (svc *service) CreateInstance(ctx context.Context, ni NewInstance) (Instance, error) {
	if _, err := svc.repo.GetTemplateByID(ctx, ni.TemplateID); err != nil {
		return Instance{}, err
	}

	now := time.Now().UTC()
	inst := Instance{
		TemplateID:   ni.TemplateID,
		Semester:     ni.Semester,
		Year:         ni.Year,
		InstructorID: null.NewString(ni.InstructorID, ni.InstructorID != ""),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateInstance(ctx, inst)
}

func (svc *service) GetInstance(ctx context.Context, id int) (Instance, error) {
	return svc.repo.GetInstanceByID(ctx, id)
}

func (svc *service) Enroll(ctx context.Context, instanceID int, studentID string) error {
	if _, err := svc.repo.GetInstanceByID(ctx, instanceID); err != nil {
		return err
	}
	enrolled, err := svc.repo.IsStudentEnrolled(ctx, instanceID, studentID)
	if err != nil {
		return err
	}
	if enrolled {
		return core.NewValidationError(ErrAlreadyEnrolled)
	}
	return svc.repo.EnrollStudent(ctx, instanceID, studentID)
}

func (svc *service) Unenroll(ctx context.Context, instanceID int, studentID string) error {
	return svc.repo.UnenrollStudent(ctx, instanceID, studentID)
}

func (svc *service) CreateLearningOutcome(ctx context.Context, nl NewLearningOutcome) (LearningOutcome, error) {
	if _, err := svc.repo.GetTemplateByID(ctx, nl.TemplateID); err != nil {
		return LearningOutcome{}, err
	}

	now := time.Now().UTC()
	lo := LearningOutcome{
		TemplateID:  nl.TemplateID,
		Code:        nl.Code,
		Description: nl.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateLearningOutcome(ctx, lo)
}

func (svc *service) CreateAssessment(ctx context.Context, na NewAssessment) (Assessment, error) {
	if _, err := svc.repo.GetInstanceByID(ctx, na.InstanceID); err != nil {
		return Assessment{}, err
	}

	now := time.Now().UTC()
	a := Assessment{
		InstanceID: na.InstanceID,
		Name:       na.Name,
		Type:       na.Type,
		MaxScore:   na.MaxScore,
		Weight:     na.Weight,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateAssessment(ctx, a)
}

// CreateAssessmentLOContribution links an assessment to a learning outcome.
// The LO must belong to the same course template as the assessment's instance.
func (svc *service) CreateAssessmentLOContribution(ctx context.Context, nc NewAssessmentLOContribution) (AssessmentLOContribution, error) {
	a, err := svc.repo.GetAssessmentByID(ctx, nc.AssessmentID)
	if err != nil {
		return AssessmentLOContribution{}, err
	}
	inst, err := svc.repo.GetInstanceByID(ctx, a.InstanceID)
	if err != nil {
		return AssessmentLOContribution{}, err
	}
	lo, err := svc.repo.GetLearningOutcomeByID(ctx, nc.LearningOutcomeID)
	if err != nil {
		return AssessmentLOContribution{}, err
	}
	if lo.TemplateID != inst.TemplateID {
		return AssessmentLOContribution{}, core.NewValidationError(errTemplateMismatch)
	}

	now := time.Now().UTC()
	c := AssessmentLOContribution{
		AssessmentID:      nc.AssessmentID,
		LearningOutcomeID: nc.LearningOutcomeID,
		Weight:            nc.Weight,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return svc.repo.CreateAssessmentLOContribution(ctx, c)
}

// CreateLOPOContribution links a learning outcome to a program outcome. The PO
// must belong to the same department as the LO's course template. The new
// contribution starts out unapproved and is invisible to the achievement
// engine until a department head approves it.
func (svc *service) CreateLOPOContribution(ctx context.Context, nc NewLOPOContribution) (LOPOContribution, error) {
	lo, err := svc.repo.GetLearningOutcomeByID(ctx, nc.LearningOutcomeID)
	if err != nil {
		return LOPOContribution{}, err
	}
	tpl, err := svc.repo.GetTemplateByID(ctx, lo.TemplateID)
	if err != nil {
		return LOPOContribution{}, err
	}
	po, err := svc.outcomeRepo.GetProgramOutcomeByID(ctx, nc.ProgramOutcomeID)
	if err != nil {
		return LOPOContribution{}, err
	}
	if po.DepartmentID != tpl.DepartmentID {
		return LOPOContribution{}, core.NewValidationError(errDepartmentMismatch)
	}

	now := time.Now().UTC()
	c := LOPOContribution{
		LearningOutcomeID: nc.LearningOutcomeID,
		ProgramOutcomeID:  nc.ProgramOutcomeID,
		Weight:            nc.Weight,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return svc.repo.CreateLOPOContribution(ctx, c)
}

// ApproveLOPOContribution transitions a LO->PO contribution to approved.
// Only a department head may approve; anyone else gets core.ErrPermissionDenied.
// Re-approving is idempotent: approved_by/approved_at are simply overwritten.
func (svc *service) ApproveLOPOContribution(ctx context.Context, actor user.User, id int) (LOPOContribution, error) {
	if !actor.IsDepartmentHead() {
		return LOPOContribution{}, core.ErrPermissionDenied
	}

	c, err := svc.repo.GetLOPOContributionByID(ctx, id)
	if err != nil {
		return LOPOContribution{}, err
	}

	now := time.Now().UTC()
	c.IsApproved = true
	c.ApprovedBy = null.StringFrom(actor.ID)
	c.ApprovedAt = null.TimeFrom(now)
	c.UpdatedAt = now

	c, err = svc.repo.UpdateLOPOContributionApproval(ctx, c)
	if err != nil {
		return LOPOContribution{}, err
	}
	svc.notifyApproval(ctx, c, actor)
	return c, nil
}

// notifyApproval emails the instructors teaching the LO's template.
func (svc *service) notifyApproval(ctx context.Context, c LOPOContribution, actor user.User) {
	lo, err := svc.repo.GetLearningOutcomeByID(ctx, c.LearningOutcomeID)
	if err != nil {
		return
	}
	instructors, err := svc.repo.QueryInstructors(ctx, lo.TemplateID)
	if err != nil || len(instructors) == 0 {
		return
	}

	to := make([]mail.Address, 0, len(instructors))
	for _, ins := range instructors {
		if ins.Email != "" {
			to = append(to, mail.Address{Name: ins.Name, Address: ins.Email})
		}
	}
	if len(to) == 0 {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           to,
		Subject:      "Outcome mapping approved: " + lo.Code,
		TemplateName: "contribution-approved",
		TemplateData: struct {
			Outcome    LearningOutcome
			ApprovedBy user.User
		}{lo, actor},
	})
}
