package grade_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/grade"
	"github.com/trezcool/matokeo/core/user"
	dummydb "github.com/trezcool/matokeo/storage/database/dummy"
	testutil "github.com/trezcool/matokeo/tests"
)

type fixture struct {
	svc        grade.ServiceInterface
	gradeRepo  grade.Repository
	instructor user.User
	student    user.User
	quiz       course.Assessment // max score 20
	final      course.Assessment // max score 100
}

func setup(t *testing.T) fixture {
	db := testutil.PrepareDB(t)
	usrRepo := dummydb.NewUserRepository(db)
	outcomeRepo := dummydb.NewOutcomeRepository(db)
	courseRepo := dummydb.NewCourseRepository(db)
	gradeRepo := dummydb.NewGradeRepository(db)

	dept := testutil.CreateDepartment(t, outcomeRepo, "CSE", "Computer Science")
	instructor := testutil.CreateUser(t, usrRepo, "Ins Tructor", "instructor", "ins@test.cd", "", user.RoleInstructor, dept.ID, true)
	student := testutil.CreateUser(t, usrRepo, "Stu Dent", "student", "stu@test.cd", "", user.RoleStudent, dept.ID, true)

	tpl := testutil.CreateTemplate(t, courseRepo, dept.ID, "301", "Algorithms", 4)
	inst := testutil.CreateInstance(t, courseRepo, tpl.ID, "FALL", 2021, instructor.ID)
	quiz := testutil.CreateAssessment(t, courseRepo, inst.ID, "Quiz 1", course.AssessmentQuiz, decimal.NewFromInt(20))
	final := testutil.CreateAssessment(t, courseRepo, inst.ID, "Final Exam", course.AssessmentFinal, decimal.NewFromInt(100))
	testutil.Enroll(t, courseRepo, inst.ID, student.ID)

	return fixture{
		svc:        grade.NewService(nil, gradeRepo, courseRepo),
		gradeRepo:  gradeRepo,
		instructor: instructor,
		student:    student,
		quiz:       quiz,
		final:      final,
	}
}

func Test_service_Record(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	t.Run("unknown assessment", func(t *testing.T) {
		ng := grade.NewGrade{StudentID: fx.student.ID, AssessmentID: 999, Score: decimal.NewFromInt(50)}
		if _, err := fx.svc.Record(ctx, fx.instructor, ng); err != course.ErrAssessmentNotFound {
			t.Errorf("Record() error = %v, want %v", err, course.ErrAssessmentNotFound)
		}
	})

	t.Run("score exceeds max score", func(t *testing.T) {
		ng := grade.NewGrade{StudentID: fx.student.ID, AssessmentID: fx.quiz.ID, Score: decimal.NewFromInt(50)}
		_, err := fx.svc.Record(ctx, fx.instructor, ng)
		vErr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("Record() error = %v, want ValidationError", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "score" {
			t.Errorf("Record() fields = %v, want score", vErr.Fields)
		}
	})

	t.Run("student not enrolled", func(t *testing.T) {
		ng := grade.NewGrade{StudentID: fx.instructor.ID, AssessmentID: fx.quiz.ID, Score: decimal.NewFromInt(10)}
		_, err := fx.svc.Record(ctx, fx.instructor, ng)
		vErr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("Record() error = %v, want ValidationError", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "student_id" {
			t.Errorf("Record() fields = %v, want student_id", vErr.Fields)
		}
	})

	t.Run("recorded", func(t *testing.T) {
		ng := grade.NewGrade{StudentID: fx.student.ID, AssessmentID: fx.quiz.ID, Score: decimal.NewFromInt(15)}
		g, err := fx.svc.Record(ctx, fx.instructor, ng)
		if err != nil {
			t.Fatalf("Record() failed, %v", err)
		}
		if !g.Score.Equal(decimal.NewFromInt(15)) {
			t.Errorf("score = %s, want 15", g.Score)
		}
		if g.EnteredBy.String != fx.instructor.ID {
			t.Errorf("entered by = %s, want %s", g.EnteredBy.String, fx.instructor.ID)
		}
	})

	t.Run("re-recording overwrites", func(t *testing.T) {
		ng := grade.NewGrade{StudentID: fx.student.ID, AssessmentID: fx.quiz.ID, Score: decimal.NewFromInt(18)}
		if _, err := fx.svc.Record(ctx, fx.instructor, ng); err != nil {
			t.Fatalf("Record() failed, %v", err)
		}
		g, err := fx.svc.Get(ctx, fx.student.ID, fx.quiz.ID)
		if err != nil {
			t.Fatalf("Get() failed, %v", err)
		}
		if !g.Score.Equal(decimal.NewFromInt(18)) {
			t.Errorf("score = %s, want 18", g.Score)
		}
	})
}

func Test_service_PerformanceScore(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	t.Run("no grades", func(t *testing.T) {
		avg, err := fx.svc.PerformanceScore(ctx, fx.student.ID)
		if err != nil {
			t.Fatalf("PerformanceScore() failed, %v", err)
		}
		if avg != nil {
			t.Errorf("average = %v, want nil", *avg)
		}
	})

	t.Run("rounded average", func(t *testing.T) {
		testutil.RecordGrade(t, fx.gradeRepo, fx.student.ID, fx.quiz.ID, decimal.NewFromInt(15))
		testutil.RecordGrade(t, fx.gradeRepo, fx.student.ID, fx.final.ID, decimal.NewFromFloat(85.5))

		avg, err := fx.svc.PerformanceScore(ctx, fx.student.ID)
		if err != nil {
			t.Fatalf("PerformanceScore() failed, %v", err)
		}
		if avg == nil {
			t.Fatal("expected an average")
		}
		if *avg != 50.25 {
			t.Errorf("average = %v, want 50.25", *avg)
		}
	})
}
