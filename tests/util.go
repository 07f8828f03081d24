package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/grade"
	"github.com/trezcool/matokeo/core/outcome"
	"github.com/trezcool/matokeo/core/user"
	dummydb "github.com/trezcool/matokeo/storage/database/dummy"
)

// PrepareDB returns a fresh in-memory database for a test.
func PrepareDB(t *testing.T) *dummydb.DB {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd, role string,
	departmentID int,
	isActive bool,
) user.User {
	now := time.Now().UTC()
	usr := user.User{
		Name:         name,
		Username:     uname,
		Email:        email,
		Role:         role,
		DepartmentID: null.NewInt(departmentID, departmentID > 0),
		IsActive:     isActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateDepartment(t *testing.T, repo outcome.Repository, code, name string) outcome.Department {
	now := time.Now().UTC()
	dept, err := repo.CreateDepartment(context.Background(), outcome.Department{
		Code:      code,
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateDepartment() failed: %v", err)
	}
	return dept
}

func CreateProgramOutcome(t *testing.T, repo outcome.Repository, departmentID int, code, description string) outcome.ProgramOutcome {
	now := time.Now().UTC()
	po, err := repo.CreateProgramOutcome(context.Background(), outcome.ProgramOutcome{
		DepartmentID: departmentID,
		Code:         code,
		Description:  description,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateProgramOutcome() failed: %v", err)
	}
	return po
}

func CreateTemplate(t *testing.T, repo course.Repository, departmentID int, code, name string, credit int) course.Template {
	now := time.Now().UTC()
	tpl, err := repo.CreateTemplate(context.Background(), course.Template{
		DepartmentID: departmentID,
		Code:         code,
		Name:         name,
		Credit:       credit,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateTemplate() failed: %v", err)
	}
	return tpl
}

func CreateInstance(t *testing.T, repo course.Repository, templateID int, semester string, year int, instructorID string) course.Instance {
	now := time.Now().UTC()
	inst, err := repo.CreateInstance(context.Background(), course.Instance{
		TemplateID:   templateID,
		Semester:     semester,
		Year:         year,
		InstructorID: null.NewString(instructorID, instructorID != ""),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateInstance() failed: %v", err)
	}
	return inst
}

func CreateLearningOutcome(t *testing.T, repo course.Repository, templateID int, code, description string) course.LearningOutcome {
	now := time.Now().UTC()
	lo, err := repo.CreateLearningOutcome(context.Background(), course.LearningOutcome{
		TemplateID:  templateID,
		Code:        code,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateLearningOutcome() failed: %v", err)
	}
	return lo
}

func CreateAssessment(t *testing.T, repo course.Repository, instanceID int, name, typ string, maxScore decimal.Decimal) course.Assessment {
	now := time.Now().UTC()
	a, err := repo.CreateAssessment(context.Background(), course.Assessment{
		InstanceID: instanceID,
		Name:       name,
		Type:       typ,
		MaxScore:   maxScore,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateAssessment() failed: %v", err)
	}
	return a
}

func LinkAssessmentLO(t *testing.T, repo course.Repository, assessmentID, loID int, weight decimal.Decimal) course.AssessmentLOContribution {
	now := time.Now().UTC()
	c, err := repo.CreateAssessmentLOContribution(context.Background(), course.AssessmentLOContribution{
		AssessmentID:      assessmentID,
		LearningOutcomeID: loID,
		Weight:            weight,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		t.Fatalf("LinkAssessmentLO() failed: %v", err)
	}
	return c
}

func LinkLOPO(t *testing.T, repo course.Repository, loID, poID int, weight decimal.Decimal, approvedBy string) course.LOPOContribution {
	now := time.Now().UTC()
	c := course.LOPOContribution{
		LearningOutcomeID: loID,
		ProgramOutcomeID:  poID,
		Weight:            weight,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	c, err := repo.CreateLOPOContribution(context.Background(), c)
	if err != nil {
		t.Fatalf("LinkLOPO() failed: %v", err)
	}
	if approvedBy != "" {
		c.IsApproved = true
		c.ApprovedBy = null.StringFrom(approvedBy)
		c.ApprovedAt = null.TimeFrom(now)
		if c, err = repo.UpdateLOPOContributionApproval(context.Background(), c); err != nil {
			t.Fatalf("LinkLOPO() failed: %v", err)
		}
	}
	return c
}

func Enroll(t *testing.T, repo course.Repository, instanceID int, studentID string) {
	if err := repo.EnrollStudent(context.Background(), instanceID, studentID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
}

func RecordGrade(t *testing.T, repo grade.Repository, studentID string, assessmentID int, score decimal.Decimal) grade.AssessmentGrade {
	now := time.Now().UTC()
	g, err := repo.UpsertGrade(context.Background(), grade.AssessmentGrade{
		StudentID:    studentID,
		AssessmentID: assessmentID,
		Score:        score,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("RecordGrade() failed: %v", err)
	}
	return g
}
