package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/matokeo/apps/api/echo"
	"github.com/trezcool/matokeo/core/achievement"
	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/grade"
	"github.com/trezcool/matokeo/core/outcome"
	"github.com/trezcool/matokeo/core/user"
	"github.com/trezcool/matokeo/services/email"
	"github.com/trezcool/matokeo/services/logger"
	"github.com/trezcool/matokeo/storage/database/dummy"
	"github.com/trezcool/matokeo/tests"
)

var (
	app Server

	usrRepo     user.Repository
	outcomeRepo outcome.Repository
	courseRepo  course.Repository
	gradeRepo   grade.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func setup(t *testing.T) {
	// set up DB & repos
	db := testutil.PrepareDB(t)
	usrRepo = dummydb.NewUserRepository(db)
	outcomeRepo = dummydb.NewOutcomeRepository(db)
	courseRepo = dummydb.NewCourseRepository(db)
	gradeRepo = dummydb.NewGradeRepository(db)

	// set up services
	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc := user.NewService(nil, usrRepo, mailSvc)
	outcomeSvc := outcome.NewService(nil, outcomeRepo)
	courseSvc := course.NewService(nil, courseRepo, outcomeRepo, mailSvc)
	gradeSvc := grade.NewService(nil, gradeRepo, courseRepo)
	engine := achievement.NewEngine(dummydb.NewAchievementSource(db))

	// set up server
	app = NewServer(
		&Options{
			DisableReqLogs: true,
			Logger:         logsvc.NewStdLogger(log.New(os.Stdout, "TEST ", log.LstdFlags)),
			UserSvc:        usrSvc,
			OutcomeSvc:     outcomeSvc,
			CourseSvc:      courseSvc,
			GradeSvc:       gradeSvc,
			Engine:         engine,
		},
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
