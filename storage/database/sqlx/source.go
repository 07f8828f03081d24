package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/matokeo/core/achievement"
	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/outcome"
	"github.com/trezcool/matokeo/core/user"
)

// achievementSource feeds the achievement engine straight from psql, joining
// the contribution edges with their parents to carry the scoping IDs.
type achievementSource struct {
	db *sqlx.DB

	outcomeRepo *outcomeRepository
	courseRepo  *courseRepository
	userRepo    *userRepository
}

var _ achievement.Source = (*achievementSource)(nil) // interface compliance check

func NewAchievementSource(db *sqlx.DB) *achievementSource {
	return &achievementSource{
		db:          db,
		outcomeRepo: NewOutcomeRepository(db),
		courseRepo:  NewCourseRepository(db),
		userRepo:    NewUserRepository(db),
	}
}

func (src achievementSource) ActiveProgramOutcomes(ctx context.Context, departmentID int) ([]outcome.ProgramOutcome, error) {
	return src.outcomeRepo.QueryActiveProgramOutcomes(ctx, departmentID)
}

func (src achievementSource) LearningOutcomes(ctx context.Context, templateID int) ([]course.LearningOutcome, error) {
	return src.courseRepo.QueryLearningOutcomes(ctx, []int{templateID})
}

func (src achievementSource) AssessmentLOEdges(ctx context.Context, instanceIDs ...int) ([]achievement.AssessmentLOEdge, error) {
	if len(instanceIDs) == 0 {
		return []achievement.AssessmentLOEdge{}, nil
	}
	query, args, err := sqlx.In(`
		SELECT c.assessment_id, c.learning_outcome_id, a.course_instance_id, c.weight
		FROM assessment_lo_contribution c
		INNER JOIN assessment a ON a.id = c.assessment_id
		WHERE a.course_instance_id IN (?)`, instanceIDs)
	if err != nil {
		return nil, errors.Wrap(err, "binding instance IDs")
	}

	rows := make([]struct {
		AssessmentID      int             `db:"assessment_id"`
		LearningOutcomeID int             `db:"learning_outcome_id"`
		InstanceID        int             `db:"course_instance_id"`
		Weight            decimal.Decimal `db:"weight"`
	}, 0)
	if err = sqlx.SelectContext(ctx, src.db, &rows, src.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying assessment-LO edges")
	}

	edges := make([]achievement.AssessmentLOEdge, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, achievement.AssessmentLOEdge(row))
	}
	return edges, nil
}

func (src achievementSource) ApprovedLOPOEdges(ctx context.Context, poIDs ...int) ([]achievement.LOPOEdge, error) {
	if len(poIDs) == 0 {
		return []achievement.LOPOEdge{}, nil
	}
	query, args, err := sqlx.In(`
		SELECT c.learning_outcome_id, c.program_outcome_id, lo.course_template_id, c.weight
		FROM lo_po_contribution c
		INNER JOIN learning_outcome lo ON lo.id = c.learning_outcome_id
		WHERE c.program_outcome_id IN (?) AND c.is_approved`, poIDs)
	if err != nil {
		return nil, errors.Wrap(err, "binding program outcome IDs")
	}

	rows := make([]struct {
		LearningOutcomeID int             `db:"learning_outcome_id"`
		ProgramOutcomeID  int             `db:"program_outcome_id"`
		TemplateID        int             `db:"course_template_id"`
		Weight            decimal.Decimal `db:"weight"`
	}, 0)
	if err = sqlx.SelectContext(ctx, src.db, &rows, src.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying approved LO-PO edges")
	}

	edges := make([]achievement.LOPOEdge, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, achievement.LOPOEdge(row))
	}
	return edges, nil
}

func (src achievementSource) StudentGrades(ctx context.Context, studentID string, instanceIDs ...int) (map[int]decimal.Decimal, error) {
	if len(instanceIDs) == 0 {
		return map[int]decimal.Decimal{}, nil
	}
	query, args, err := sqlx.In(`
		SELECT g.assessment_id, g.score
		FROM assessment_grade g
		INNER JOIN assessment a ON a.id = g.assessment_id
		WHERE g.student_id = ? AND a.course_instance_id IN (?)`, studentID, instanceIDs)
	if err != nil {
		return nil, errors.Wrap(err, "binding instance IDs")
	}

	rows := make([]struct {
		AssessmentID int             `db:"assessment_id"`
		Score        decimal.Decimal `db:"score"`
	}, 0)
	if err = sqlx.SelectContext(ctx, src.db, &rows, src.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying student grades")
	}

	grades := make(map[int]decimal.Decimal, len(rows))
	for _, row := range rows {
		grades[row.AssessmentID] = row.Score
	}
	return grades, nil
}

func (src achievementSource) RosterGrades(ctx context.Context, instanceID int) (map[string]map[int]decimal.Decimal, error) {
	query := `
		SELECT g.student_id, g.assessment_id, g.score
		FROM assessment_grade g
		INNER JOIN assessment a ON a.id = g.assessment_id
		INNER JOIN enrollment e ON e.course_instance_id = a.course_instance_id AND e.student_id = g.student_id
		WHERE a.course_instance_id = $1`

	rows := make([]struct {
		StudentID    string          `db:"student_id"`
		AssessmentID int             `db:"assessment_id"`
		Score        decimal.Decimal `db:"score"`
	}, 0)
	if err := sqlx.SelectContext(ctx, src.db, &rows, query, instanceID); err != nil {
		return nil, errors.Wrap(err, "querying roster grades")
	}

	roster := make(map[string]map[int]decimal.Decimal)
	for _, row := range rows {
		grades, ok := roster[row.StudentID]
		if !ok {
			grades = make(map[int]decimal.Decimal)
			roster[row.StudentID] = grades
		}
		grades[row.AssessmentID] = row.Score
	}
	return roster, nil
}

func (src achievementSource) EnrolledStudents(ctx context.Context, instanceID int) ([]user.User, error) {
	query := `
		SELECT u.id, u.name, u.username, u.email, u.role, u.department_id, u.student_number,
			u.is_active, u.password_hash, u.created_at, u.updated_at, u.last_login
		FROM "user" u
		INNER JOIN enrollment e ON e.student_id = u.id
		WHERE e.course_instance_id = $1
		ORDER BY u.name`

	rows := make([]userRow, 0)
	if err := sqlx.SelectContext(ctx, src.db, &rows, query, instanceID); err != nil {
		return nil, errors.Wrap(err, "querying enrolled students")
	}
	students := make([]user.User, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.user())
	}
	return students, nil
}

func (src achievementSource) ActiveEnrollments(ctx context.Context, studentID string) ([]course.Instance, error) {
	query := instanceJoinQuery + `
		INNER JOIN enrollment e ON e.course_instance_id = ci.id
		WHERE e.student_id = $1 AND ci.is_active
		ORDER BY ci.id`

	rows := make([]instanceRow, 0)
	if err := sqlx.SelectContext(ctx, src.db, &rows, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying active enrollments")
	}
	insts := make([]course.Instance, 0, len(rows))
	for _, row := range rows {
		insts = append(insts, row.instance())
	}
	return insts, nil
}
