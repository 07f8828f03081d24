package course_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/outcome"
	"github.com/trezcool/matokeo/core/user"
	emailsvc "github.com/trezcool/matokeo/services/email"
	dummydb "github.com/trezcool/matokeo/storage/database/dummy"
	testutil "github.com/trezcool/matokeo/tests"
)

type fixture struct {
	svc        course.ServiceInterface
	courseRepo course.Repository
	head       user.User
	instructor user.User
	student    user.User
	dept       outcome.Department
	otherDept  outcome.Department
	po         outcome.ProgramOutcome
	otherPO    outcome.ProgramOutcome // belongs to otherDept
	tpl        course.Template
	otherTpl   course.Template // belongs to otherDept
	inst       course.Instance
	lo         course.LearningOutcome
	otherLO    course.LearningOutcome // belongs to otherTpl
	midterm    course.Assessment
}

func setup(t *testing.T) fixture {
	db := testutil.PrepareDB(t)
	usrRepo := dummydb.NewUserRepository(db)
	outcomeRepo := dummydb.NewOutcomeRepository(db)
	courseRepo := dummydb.NewCourseRepository(db)

	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock()

	dept := testutil.CreateDepartment(t, outcomeRepo, "CSE", "Computer Science")
	otherDept := testutil.CreateDepartment(t, outcomeRepo, "EEE", "Electrical Engineering")
	head := testutil.CreateUser(t, usrRepo, "Head", "head", "head@test.cd", "", user.RoleDepartmentHead, dept.ID, true)
	instructor := testutil.CreateUser(t, usrRepo, "Ins Tructor", "instructor", "ins@test.cd", "", user.RoleInstructor, dept.ID, true)
	student := testutil.CreateUser(t, usrRepo, "Stu Dent", "student", "stu@test.cd", "", user.RoleStudent, dept.ID, true)

	po := testutil.CreateProgramOutcome(t, outcomeRepo, dept.ID, "PO-1", "Able to design systems")
	otherPO := testutil.CreateProgramOutcome(t, outcomeRepo, otherDept.ID, "PO-1", "Able to analyze circuits")

	tpl := testutil.CreateTemplate(t, courseRepo, dept.ID, "301", "Algorithms", 4)
	otherTpl := testutil.CreateTemplate(t, courseRepo, otherDept.ID, "102", "Circuits", 3)
	inst := testutil.CreateInstance(t, courseRepo, tpl.ID, "FALL", 2021, instructor.ID)
	lo := testutil.CreateLearningOutcome(t, courseRepo, tpl.ID, "LO-1", "Analyze complexity")
	otherLO := testutil.CreateLearningOutcome(t, courseRepo, otherTpl.ID, "LO-1", "Build amplifiers")
	midterm := testutil.CreateAssessment(t, courseRepo, inst.ID, "Midterm", course.AssessmentMidterm, decimal.NewFromInt(100))

	return fixture{
		svc:        course.NewService(nil, courseRepo, outcomeRepo, mailSvc),
		courseRepo: courseRepo,
		head:       head,
		instructor: instructor,
		student:    student,
		dept:       dept,
		otherDept:  otherDept,
		po:         po,
		otherPO:    otherPO,
		tpl:        tpl,
		otherTpl:   otherTpl,
		inst:       inst,
		lo:         lo,
		otherLO:    otherLO,
		midterm:    midterm,
	}
}

func Test_service_Enroll(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	if err := fx.svc.Enroll(ctx, 999, fx.student.ID); err != course.ErrInstanceNotFound {
		t.Errorf("Enroll() error = %v, want %v", err, course.ErrInstanceNotFound)
	}
	if err := fx.svc.Enroll(ctx, fx.inst.ID, fx.student.ID); err != nil {
		t.Fatalf("Enroll() failed, %v", err)
	}

	err := fx.svc.Enroll(ctx, fx.inst.ID, fx.student.ID)
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("Enroll() error = %v, want ValidationError", err)
	}
	if vErr.Err != course.ErrAlreadyEnrolled {
		t.Errorf("Enroll() error = %v, want %v", vErr.Err, course.ErrAlreadyEnrolled)
	}
}

func Test_service_CreateAssessmentLOContribution(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	t.Run("template mismatch", func(t *testing.T) {
		nc := course.NewAssessmentLOContribution{
			AssessmentID:      fx.midterm.ID,
			LearningOutcomeID: fx.otherLO.ID,
			Weight:            decimal.NewFromInt(2),
		}
		_, err := fx.svc.CreateAssessmentLOContribution(ctx, nc)
		vErr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("CreateAssessmentLOContribution() error = %v, want ValidationError", err)
		}
		want := "learning outcome and assessment belong to different course templates"
		if vErr.Error() != want {
			t.Errorf("error = %s, want %s", vErr.Error(), want)
		}
	})

	t.Run("created", func(t *testing.T) {
		nc := course.NewAssessmentLOContribution{
			AssessmentID:      fx.midterm.ID,
			LearningOutcomeID: fx.lo.ID,
			Weight:            decimal.NewFromFloat(2.5),
		}
		c, err := fx.svc.CreateAssessmentLOContribution(ctx, nc)
		if err != nil {
			t.Fatalf("CreateAssessmentLOContribution() failed, %v", err)
		}
		if !c.Weight.Equal(decimal.NewFromFloat(2.5)) {
			t.Errorf("weight = %s, want 2.5", c.Weight)
		}
	})
}

func Test_service_CreateLOPOContribution(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	t.Run("department mismatch", func(t *testing.T) {
		nc := course.NewLOPOContribution{
			LearningOutcomeID: fx.lo.ID,
			ProgramOutcomeID:  fx.otherPO.ID,
			Weight:            decimal.NewFromInt(3),
		}
		_, err := fx.svc.CreateLOPOContribution(ctx, nc)
		vErr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("CreateLOPOContribution() error = %v, want ValidationError", err)
		}
		want := "program outcome and learning outcome belong to different departments"
		if vErr.Error() != want {
			t.Errorf("error = %s, want %s", vErr.Error(), want)
		}
	})

	t.Run("starts out unapproved", func(t *testing.T) {
		nc := course.NewLOPOContribution{
			LearningOutcomeID: fx.lo.ID,
			ProgramOutcomeID:  fx.po.ID,
			Weight:            decimal.NewFromInt(3),
		}
		c, err := fx.svc.CreateLOPOContribution(ctx, nc)
		if err != nil {
			t.Fatalf("CreateLOPOContribution() failed, %v", err)
		}
		if c.IsApproved {
			t.Error("new contribution must not be approved")
		}
		if c.ApprovedBy.Valid {
			t.Errorf("approved by = %v, want unset", c.ApprovedBy)
		}
	})
}

func Test_service_ApproveLOPOContribution(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	nc := course.NewLOPOContribution{
		LearningOutcomeID: fx.lo.ID,
		ProgramOutcomeID:  fx.po.ID,
		Weight:            decimal.NewFromInt(3),
	}
	c, err := fx.svc.CreateLOPOContribution(ctx, nc)
	if err != nil {
		t.Fatalf("CreateLOPOContribution() failed, %v", err)
	}

	t.Run("only department heads", func(t *testing.T) {
		if _, err := fx.svc.ApproveLOPOContribution(ctx, fx.instructor, c.ID); err != core.ErrPermissionDenied {
			t.Errorf("ApproveLOPOContribution() error = %v, want %v", err, core.ErrPermissionDenied)
		}
		if _, err := fx.svc.ApproveLOPOContribution(ctx, fx.student, c.ID); err != core.ErrPermissionDenied {
			t.Errorf("ApproveLOPOContribution() error = %v, want %v", err, core.ErrPermissionDenied)
		}
	})

	t.Run("unknown contribution", func(t *testing.T) {
		if _, err := fx.svc.ApproveLOPOContribution(ctx, fx.head, 999); err != course.ErrContributionNotFound {
			t.Errorf("ApproveLOPOContribution() error = %v, want %v", err, course.ErrContributionNotFound)
		}
	})

	t.Run("approved and instructors notified", func(t *testing.T) {
		emailsvc.ClearSentMessages()

		approved, err := fx.svc.ApproveLOPOContribution(ctx, fx.head, c.ID)
		if err != nil {
			t.Fatalf("ApproveLOPOContribution() failed, %v", err)
		}
		if !approved.IsApproved {
			t.Error("contribution must be approved")
		}
		if approved.ApprovedBy.String != fx.head.ID {
			t.Errorf("approved by = %s, want %s", approved.ApprovedBy.String, fx.head.ID)
		}

		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("sent messages = %d, want 1", len(emailsvc.SentMessages))
		}
		msg := emailsvc.SentMessages[0]
		if len(msg.To) != 1 || msg.To[0].Address != fx.instructor.Email {
			t.Errorf("recipients = %v, want %s", msg.To, fx.instructor.Email)
		}
	})

	t.Run("re-approving is idempotent", func(t *testing.T) {
		again, err := fx.svc.ApproveLOPOContribution(ctx, fx.head, c.ID)
		if err != nil {
			t.Fatalf("ApproveLOPOContribution() failed, %v", err)
		}
		if !again.IsApproved {
			t.Error("contribution must stay approved")
		}
	})
}
