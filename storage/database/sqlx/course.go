package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/user"
)

type templateRow struct {
	ID           int       `db:"id"`
	DepartmentID int       `db:"department_id"`
	Code         string    `db:"code"`
	Name         string    `db:"name"`
	Credit       int       `db:"credit"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r templateRow) template() course.Template {
	return course.Template(r)
}

type instanceRow struct {
	ID           int         `db:"id"`
	TemplateID   int         `db:"course_template_id"`
	Semester     string      `db:"semester"`
	Year         int         `db:"year"`
	InstructorID null.String `db:"instructor_id"`
	IsActive     bool        `db:"is_active"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`

	Template templateRow `db:"tpl"`
}

func (r instanceRow) instance() course.Instance {
	inst := course.Instance{
		ID:           r.ID,
		TemplateID:   r.TemplateID,
		Semester:     r.Semester,
		Year:         r.Year,
		InstructorID: r.InstructorID,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Template.ID > 0 {
		tpl := r.Template.template()
		inst.Template = &tpl
	}
	return inst
}

type learningOutcomeRow struct {
	ID          int       `db:"id"`
	TemplateID  int       `db:"course_template_id"`
	Code        string    `db:"code"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r learningOutcomeRow) learningOutcome() course.LearningOutcome {
	return course.LearningOutcome(r)
}

type assessmentRow struct {
	ID         int             `db:"id"`
	InstanceID int             `db:"course_instance_id"`
	Name       string          `db:"name"`
	Type       string          `db:"assessment_type"`
	MaxScore   decimal.Decimal `db:"max_score"`
	Weight     decimal.Decimal `db:"weight"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func (r assessmentRow) assessment() course.Assessment {
	return course.Assessment(r)
}

type assessmentLORow struct {
	ID                int             `db:"id"`
	AssessmentID      int             `db:"assessment_id"`
	LearningOutcomeID int             `db:"learning_outcome_id"`
	Weight            decimal.Decimal `db:"weight"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

func (r assessmentLORow) contribution() course.AssessmentLOContribution {
	return course.AssessmentLOContribution(r)
}

type loPORow struct {
	ID                int             `db:"id"`
	LearningOutcomeID int             `db:"learning_outcome_id"`
	ProgramOutcomeID  int             `db:"program_outcome_id"`
	Weight            decimal.Decimal `db:"weight"`
	IsApproved        bool            `db:"is_approved"`
	ApprovedBy        null.String     `db:"approved_by"`
	ApprovedAt        null.Time       `db:"approved_at"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

func (r loPORow) contribution() course.LOPOContribution {
	return course.LOPOContribution(r)
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

const (
	templateColumns   = `id, department_id, code, name, credit, created_at, updated_at`
	instanceColumns   = `id, course_template_id, semester, year, instructor_id, is_active, created_at, updated_at`
	loColumns         = `id, course_template_id, code, description, created_at, updated_at`
	assessmentColumns = `id, course_instance_id, name, assessment_type, max_score, weight, created_at, updated_at`
	edgeAColumns      = `id, assessment_id, learning_outcome_id, weight, created_at, updated_at`
	edgeBColumns      = `id, learning_outcome_id, program_outcome_id, weight, is_approved, approved_by, approved_at, created_at, updated_at`

	// instance joined with its template
	instanceJoinQuery = `
		SELECT ci.id, ci.course_template_id, ci.semester, ci.year, ci.instructor_id, ci.is_active, ci.created_at, ci.updated_at,
			ct.id "tpl.id", ct.department_id "tpl.department_id", ct.code "tpl.code", ct.name "tpl.name",
			ct.credit "tpl.credit", ct.created_at "tpl.created_at", ct.updated_at "tpl.updated_at"
		FROM course_instance ci
		INNER JOIN course_template ct ON ct.id = ci.course_template_id`
)

func (repo courseRepository) CreateTemplate(ctx context.Context, tpl course.Template, exec ...core.DBExecutor) (course.Template, error) {
	query := `
		INSERT INTO course_template (department_id, code, name, credit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &tpl.ID, query,
		tpl.DepartmentID, tpl.Code, tpl.Name, tpl.Credit, tpl.CreatedAt.UTC(), tpl.UpdatedAt.UTC())
	if err != nil {
		return course.Template{}, errors.Wrap(err, "inserting course template")
	}
	return tpl, nil
}

func (repo courseRepository) GetTemplateByID(ctx context.Context, id int, exec ...core.DBExecutor) (course.Template, error) {
	var row templateRow
	query := `SELECT ` + templateColumns + ` FROM course_template WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		if isNoRows(err) {
			return course.Template{}, course.ErrTemplateNotFound
		}
		return course.Template{}, errors.Wrap(err, "finding course template by ID")
	}
	return row.template(), nil
}

func (repo courseRepository) QueryTemplatesByDepartment(ctx context.Context, departmentID int, exec ...core.DBExecutor) ([]course.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM course_template WHERE department_id = $1 ORDER BY code`
	rows := make([]templateRow, 0)
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, departmentID); err != nil {
		return nil, errors.Wrap(err, "querying course templates")
	}
	tpls := make([]course.Template, 0, len(rows))
	for _, row := range rows {
		tpls = append(tpls, row.template())
	}
	return tpls, nil
}

func (repo courseRepository) CreateInstance(ctx context.Context, inst course.Instance, exec ...core.DBExecutor) (course.Instance, error) {
	query := `
		INSERT INTO course_instance (course_template_id, semester, year, instructor_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &inst.ID, query,
		inst.TemplateID, inst.Semester, inst.Year, inst.InstructorID, inst.IsActive,
		inst.CreatedAt.UTC(), inst.UpdatedAt.UTC())
	if err != nil {
		return course.Instance{}, errors.Wrap(err, "inserting course instance")
	}
	return inst, nil
}

func (repo courseRepository) GetInstanceByID(ctx context.Context, id int, exec ...core.DBExecutor) (course.Instance, error) {
	var row instanceRow
	query := instanceJoinQuery + ` WHERE ci.id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		if isNoRows(err) {
			return course.Instance{}, course.ErrInstanceNotFound
		}
		return course.Instance{}, errors.Wrap(err, "finding course instance by ID")
	}
	return row.instance(), nil
}

func (repo courseRepository) QueryInstancesByTemplate(ctx context.Context, templateID int, activeOnly bool, exec ...core.DBExecutor) ([]course.Instance, error) {
	query := instanceJoinQuery + ` WHERE ci.course_template_id = $1`
	if activeOnly {
		query += ` AND ci.is_active`
	}
	query += ` ORDER BY ci.year, ci.semester`

	rows := make([]instanceRow, 0)
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, templateID); err != nil {
		return nil, errors.Wrap(err, "querying course instances")
	}
	insts := make([]course.Instance, 0, len(rows))
	for _, row := range rows {
		insts = append(insts, row.instance())
	}
	return insts, nil
}

func (repo courseRepository) QueryInstructors(ctx context.Context, templateID int, exec ...core.DBExecutor) ([]user.User, error) {
	query := `
		SELECT DISTINCT u.id, u.name, u.username, u.email, u.role, u.department_id, u.student_number,
			u.is_active, u.password_hash, u.created_at, u.updated_at, u.last_login
		FROM "user" u
		INNER JOIN course_instance ci ON ci.instructor_id = u.id
		WHERE ci.course_template_id = $1 AND ci.is_active`

	rows := make([]userRow, 0)
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, templateID); err != nil {
		return nil, errors.Wrap(err, "querying instructors")
	}
	instructors := make([]user.User, 0, len(rows))
	for _, row := range rows {
		instructors = append(instructors, row.user())
	}
	return instructors, nil
}

func (repo courseRepository) EnrollStudent(ctx context.Context, instanceID int, studentID string, exec ...core.DBExecutor) error {
	query := `INSERT INTO enrollment (course_instance_id, student_id, created_at) VALUES ($1, $2, $3)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, instanceID, studentID, time.Now().UTC()); err != nil {
		if isUniqueViolation(err) {
			return course.ErrAlreadyEnrolled
		}
		return errors.Wrap(err, "enrolling student")
	}
	return nil
}

func (repo courseRepository) UnenrollStudent(ctx context.Context, instanceID int, studentID string, exec ...core.DBExecutor) error {
	query := `DELETE FROM enrollment WHERE course_instance_id = $1 AND student_id = $2`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, instanceID, studentID); err != nil {
		return errors.Wrap(err, "unenrolling student")
	}
	return nil
}

func (repo courseRepository) IsStudentEnrolled(ctx context.Context, instanceID int, studentID string, exec ...core.DBExecutor) (bool, error) {
	var enrolled bool
	query := `SELECT EXISTS (SELECT 1 FROM enrollment WHERE course_instance_id = $1 AND student_id = $2)`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &enrolled, query, instanceID, studentID); err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return enrolled, nil
}

func (repo courseRepository) CreateLearningOutcome(ctx context.Context, lo course.LearningOutcome, exec ...core.DBExecutor) (course.LearningOutcome, error) {
	query := `
		INSERT INTO learning_outcome (course_template_id, code, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &lo.ID, query,
		lo.TemplateID, lo.Code, lo.Description, lo.CreatedAt.UTC(), lo.UpdatedAt.UTC())
	if err != nil {
		return course.LearningOutcome{}, errors.Wrap(err, "inserting learning outcome")
	}
	return lo, nil
}

func (repo courseRepository) GetLearningOutcomeByID(ctx context.Context, id int, exec ...core.DBExecutor) (course.LearningOutcome, error) {
	var row learningOutcomeRow
	query := `SELECT ` + loColumns + ` FROM learning_outcome WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		if isNoRows(err) {
			return course.LearningOutcome{}, course.ErrOutcomeNotFound
		}
		return course.LearningOutcome{}, errors.Wrap(err, "finding learning outcome by ID")
	}
	return row.learningOutcome(), nil
}

func (repo courseRepository) QueryLearningOutcomes(ctx context.Context, templateIDs []int, exec ...core.DBExecutor) ([]course.LearningOutcome, error) {
	if len(templateIDs) == 0 {
		return []course.LearningOutcome{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+loColumns+` FROM learning_outcome WHERE course_template_id IN (?) ORDER BY code`, templateIDs)
	if err != nil {
		return nil, errors.Wrap(err, "binding template IDs")
	}

	exe := getExec(repo.db, exec)
	rows := make([]learningOutcomeRow, 0)
	if err = sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying learning outcomes")
	}
	los := make([]course.LearningOutcome, 0, len(rows))
	for _, row := range rows {
		los = append(los, row.learningOutcome())
	}
	return los, nil
}

func (repo courseRepository) CreateAssessment(ctx context.Context, a course.Assessment, exec ...core.DBExecutor) (course.Assessment, error) {
	query := `
		INSERT INTO assessment (course_instance_id, name, assessment_type, max_score, weight, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &a.ID, query,
		a.InstanceID, a.Name, a.Type, a.MaxScore, a.Weight, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return course.Assessment{}, errors.Wrap(err, "inserting assessment")
	}
	return a, nil
}

func (repo courseRepository) GetAssessmentByID(ctx context.Context, id int, exec ...core.DBExecutor) (course.Assessment, error) {
	var row assessmentRow
	query := `SELECT ` + assessmentColumns + ` FROM assessment WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		if isNoRows(err) {
			return course.Assessment{}, course.ErrAssessmentNotFound
		}
		return course.Assessment{}, errors.Wrap(err, "finding assessment by ID")
	}
	return row.assessment(), nil
}

func (repo courseRepository) QueryAssessmentsByInstance(ctx context.Context, instanceID int, exec ...core.DBExecutor) ([]course.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessment WHERE course_instance_id = $1 ORDER BY id`
	rows := make([]assessmentRow, 0)
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, instanceID); err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	assessments := make([]course.Assessment, 0, len(rows))
	for _, row := range rows {
		assessments = append(assessments, row.assessment())
	}
	return assessments, nil
}

func (repo courseRepository) CreateAssessmentLOContribution(ctx context.Context, c course.AssessmentLOContribution, exec ...core.DBExecutor) (course.AssessmentLOContribution, error) {
	query := `
		INSERT INTO assessment_lo_contribution (assessment_id, learning_outcome_id, weight, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &c.ID, query,
		c.AssessmentID, c.LearningOutcomeID, c.Weight, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return course.AssessmentLOContribution{}, course.ErrContributionExists
		}
		return course.AssessmentLOContribution{}, errors.Wrap(err, "inserting assessment-LO contribution")
	}
	return c, nil
}

func (repo courseRepository) QueryAssessmentLOContributions(ctx context.Context, instanceIDs []int, exec ...core.DBExecutor) ([]course.AssessmentLOContribution, error) {
	if len(instanceIDs) == 0 {
		return []course.AssessmentLOContribution{}, nil
	}
	query, args, err := sqlx.In(`
		SELECT c.id, c.assessment_id, c.learning_outcome_id, c.weight, c.created_at, c.updated_at
		FROM assessment_lo_contribution c
		INNER JOIN assessment a ON a.id = c.assessment_id
		WHERE a.course_instance_id IN (?)`, instanceIDs)
	if err != nil {
		return nil, errors.Wrap(err, "binding instance IDs")
	}

	exe := getExec(repo.db, exec)
	rows := make([]assessmentLORow, 0)
	if err = sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying assessment-LO contributions")
	}
	contribs := make([]course.AssessmentLOContribution, 0, len(rows))
	for _, row := range rows {
		contribs = append(contribs, row.contribution())
	}
	return contribs, nil
}

func (repo courseRepository) CreateLOPOContribution(ctx context.Context, c course.LOPOContribution, exec ...core.DBExecutor) (course.LOPOContribution, error) {
	query := `
		INSERT INTO lo_po_contribution (learning_outcome_id, program_outcome_id, weight, is_approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &c.ID, query,
		c.LearningOutcomeID, c.ProgramOutcomeID, c.Weight, c.IsApproved, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return course.LOPOContribution{}, course.ErrContributionExists
		}
		return course.LOPOContribution{}, errors.Wrap(err, "inserting LO-PO contribution")
	}
	return c, nil
}

func (repo courseRepository) GetLOPOContributionByID(ctx context.Context, id int, exec ...core.DBExecutor) (course.LOPOContribution, error) {
	var row loPORow
	query := `SELECT ` + edgeBColumns + ` FROM lo_po_contribution WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		if isNoRows(err) {
			return course.LOPOContribution{}, course.ErrContributionNotFound
		}
		return course.LOPOContribution{}, errors.Wrap(err, "finding LO-PO contribution by ID")
	}
	return row.contribution(), nil
}

func (repo courseRepository) QueryLOPOContributions(ctx context.Context, poIDs []int, approvedOnly bool, exec ...core.DBExecutor) ([]course.LOPOContribution, error) {
	if len(poIDs) == 0 {
		return []course.LOPOContribution{}, nil
	}
	base := `SELECT ` + edgeBColumns + ` FROM lo_po_contribution WHERE program_outcome_id IN (?)`
	if approvedOnly {
		base += ` AND is_approved`
	}
	query, args, err := sqlx.In(base, poIDs)
	if err != nil {
		return nil, errors.Wrap(err, "binding program outcome IDs")
	}

	exe := getExec(repo.db, exec)
	rows := make([]loPORow, 0)
	if err = sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying LO-PO contributions")
	}
	contribs := make([]course.LOPOContribution, 0, len(rows))
	for _, row := range rows {
		contribs = append(contribs, row.contribution())
	}
	return contribs, nil
}

func (repo courseRepository) UpdateLOPOContributionApproval(ctx context.Context, c course.LOPOContribution, exec ...core.DBExecutor) (course.LOPOContribution, error) {
	query := `
		UPDATE lo_po_contribution SET
			is_approved = $2,
			approved_by = $3,
			approved_at = $4,
			updated_at  = $5
		WHERE id = $1
		RETURNING ` + edgeBColumns

	var row loPORow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query,
		c.ID, c.IsApproved, c.ApprovedBy, c.ApprovedAt, c.UpdatedAt.UTC())
	if err != nil {
		if isNoRows(err) {
			return course.LOPOContribution{}, course.ErrContributionNotFound
		}
		return course.LOPOContribution{}, errors.Wrap(err, "updating LO-PO contribution approval")
	}
	return row.contribution(), nil
}
