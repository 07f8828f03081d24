package user_test

import (
	"context"
	"testing"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/user"
	emailsvc "github.com/trezcool/matokeo/services/email"
	dummydb "github.com/trezcool/matokeo/storage/database/dummy"
	testutil "github.com/trezcool/matokeo/tests"
)

func setup(t *testing.T) (user.ServiceInterface, user.Repository) {
	db := testutil.PrepareDB(t)
	repo := dummydb.NewUserRepository(db)
	emailsvc.ClearSentMessages()
	return user.NewService(nil, repo, emailsvc.NewConsoleServiceMock()), repo
}

func Test_service_CheckUniqueness(t *testing.T) {
	svc, repo := setup(t)

	usr := testutil.CreateUser(t, repo, "Awe", "awesome", "awe@test.cd", "", user.RoleStudent, 0, true)

	checkField := func(t *testing.T, err error, field string) {
		t.Helper()
		vErr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("CheckUniqueness() error = %v, want ValidationError", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != field {
			t.Errorf("CheckUniqueness() fields = %v, want %s", vErr.Fields, field)
		}
	}

	t.Run("available", func(t *testing.T) {
		if err := svc.CheckUniqueness("newuname", "new@test.cd"); err != nil {
			t.Errorf("CheckUniqueness() unexpected error = %v", err)
		}
	})
	t.Run("username taken", func(t *testing.T) {
		checkField(t, svc.CheckUniqueness(usr.Username, "new@test.cd"), "username")
	})
	t.Run("email taken", func(t *testing.T) {
		checkField(t, svc.CheckUniqueness("newuname", usr.Email), "email")
	})
	t.Run("excluded user skipped", func(t *testing.T) {
		if err := svc.CheckUniqueness(usr.Username, usr.Email, usr); err != nil {
			t.Errorf("CheckUniqueness() unexpected error = %v", err)
		}
	})
}

func Test_service_Create(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	nu := user.NewUser{
		Name:            "Stu Dent",
		Username:        "student",
		Email:           "stu@test.cd",
		Password:        "pwd",
		PasswordConfirm: "pwd",
		StudentNumber:   "20210042",
	}
	if err := nu.Validate(svc); err != nil {
		t.Fatalf("Validate() failed, %v", err)
	}
	if nu.Role != user.RoleStudent {
		t.Errorf("role = %s, want default %s", nu.Role, user.RoleStudent)
	}

	usr, err := svc.Create(ctx, nu)
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if usr.ID == "" {
		t.Error("expected an id")
	}
	if !usr.IsActive {
		t.Error("new user must be active")
	}
	if err = usr.CheckPassword("pwd"); err != nil {
		t.Error("password not set")
	}
	if usr.StudentNumber.String != "20210042" {
		t.Errorf("student number = %s, want 20210042", usr.StudentNumber.String)
	}

	// welcome email
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("sent messages = %d, want 1", len(emailsvc.SentMessages))
	}
	if to := emailsvc.SentMessages[0].To; len(to) != 1 || to[0].Address != usr.Email {
		t.Errorf("recipients = %v, want %s", to, usr.Email)
	}
}

func TestNewUser_Validate(t *testing.T) {
	svc, repo := setup(t)

	testutil.CreateUser(t, repo, "Awe", "awesome", "awe@test.cd", "", user.RoleStudent, 0, true)

	tests := []struct {
		name    string
		nu      user.NewUser
		wantErr bool
	}{
		{name: "empty", nu: user.NewUser{}, wantErr: true},
		{
			name:    "password mismatch",
			nu:      user.NewUser{Name: "T", Password: "pwd", PasswordConfirm: "dwp"},
			wantErr: true,
		},
		{
			name:    "short username",
			nu:      user.NewUser{Name: "T", Username: "abc", Password: "pwd", PasswordConfirm: "pwd"},
			wantErr: true,
		},
		{
			name:    "bad email",
			nu:      user.NewUser{Name: "T", Email: "nope", Password: "pwd", PasswordConfirm: "pwd"},
			wantErr: true,
		},
		{
			name:    "unknown role",
			nu:      user.NewUser{Name: "T", Password: "pwd", PasswordConfirm: "pwd", Role: "BOSS"},
			wantErr: true,
		},
		{
			name:    "student number not numeric",
			nu:      user.NewUser{Name: "T", Password: "pwd", PasswordConfirm: "pwd", StudentNumber: "no42"},
			wantErr: true,
		},
		{
			name:    "username taken",
			nu:      user.NewUser{Name: "T", Username: "awesome", Password: "pwd", PasswordConfirm: "pwd"},
			wantErr: true,
		},
		{
			name: "valid",
			nu:   user.NewUser{Name: "T", Username: "newperson", Email: "new@test.cd", Password: "pwd", PasswordConfirm: "pwd"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(svc)
			if tt.wantErr {
				if err == nil {
					t.Error("Validate() expected an error")
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
		})
	}
}
