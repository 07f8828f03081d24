package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	echoapi "github.com/trezcool/matokeo/apps/api/echo"
	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/user"
	testutil "github.com/trezcool/matokeo/tests"
)

func Test_userApi_login(t *testing.T) {
	setup(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "heroine", "hero@test.cd", "LolC@t123", user.RoleStudent, 0, true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "naughty", "ndog@test.cd", "LolC@t123", user.RoleStudent, 0, false)

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.LoginRequest{}),
			wantData: marchallObj(t, map[string]string{"username": reqMsg, "password": reqMsg}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: "lol", Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: student.Username, Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Username: naughty.Username, Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "login by username", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Username: student.Username, Password: "LolC@t123"}),
		},
		{
			name: "login by email", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Username: student.Email, Password: "LolC@t123"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess the token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	setup(t)

	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "naughty", "ndog@test.cd", "", user.RoleStudent, 0, false)
	student := testutil.CreateUser(t, usrRepo, "Hero", "heroine", "hero@test.cd", "", user.RoleStudent, 0, true)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   student.ID,
			Audience:  "Academia",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Username:     student.Username,
		Email:        student.Email,
		Role:         student.Role,
		IsStudent:    student.IsStudent(),
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive user not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_query(t *testing.T) {
	setup(t)

	path := func(search, role string, departmentID int, isActive *bool) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if role != "" {
			v.Add("role", role)
		}
		if departmentID > 0 {
			v.Add("department_id", strconv.Itoa(departmentID))
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	student := testutil.CreateUser(t, usrRepo, "Hero", "heroine", "hero@test.cd", "", user.RoleStudent, 1, true)
	instructor := testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.cd", "", user.RoleInstructor, 1, true)
	head := testutil.CreateUser(t, usrRepo, "Heady", "headboy", "head@test.cd", "", user.RoleDepartmentHead, 2, true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "naughty", "ndog@test.cd", "", user.RoleStudent, 2, false) // 😂

	headToken := getToken(t, head)
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Department head required", path: "/v1/users", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "Get all", path: "/v1/users", token: headToken, wantData: marchallList(t, student, instructor, head, naughty)},
		// filtering
		{name: "search (unknown)", path: path("lol", "", 0, nil), token: headToken, wantData: empty},
		{name: "search=HER", path: path("HER", "", 0, nil), token: headToken, wantData: marchallList(t, student)},
		{name: "role (unknown)", path: path("", "lol", 0, nil), token: headToken, wantData: empty},
		{name: "role=student", path: path("", user.RoleStudent, 0, nil), token: headToken, wantData: marchallList(t, student, naughty)},
		{name: "role=instructor", path: path("", user.RoleInstructor, 0, nil), token: headToken, wantData: marchallList(t, instructor)},
		{name: "department_id=1", path: path("", "", 1, nil), token: headToken, wantData: marchallList(t, student, instructor)},
		{name: "is_active=true", path: path("", "", 0, bPtr(true)), token: headToken, wantData: marchallList(t, student, instructor, head)},
		{name: "is_active=false", path: path("", "", 0, bPtr(false)), token: headToken, wantData: marchallList(t, naughty)},
		{name: "combo (empty)", path: path("teach", user.RoleStudent, 0, nil), token: headToken, wantData: empty},
		{name: "combo (found)", path: path("dog", user.RoleStudent, 2, bPtr(false)), token: headToken, wantData: marchallList(t, naughty)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_detail(t *testing.T) {
	setup(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "heroine", "hero@test.cd", "", user.RoleStudent, 1, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "othergirl", "other@test.cd", "", user.RoleStudent, 1, true)
	head := testutil.CreateUser(t, usrRepo, "Heady", "headboy", "head@test.cd", "", user.RoleDepartmentHead, 1, true)

	studentToken := getToken(t, student)
	headToken := getToken(t, head)

	tests := []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/users/" + student.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get self", method: http.MethodGet, path: "/v1/users/" + student.ID, token: studentToken, wantCode: http.StatusOK, wantData: marchallObj(t, student)},
		{
			name: "Get other (student)", method: http.MethodGet, path: "/v1/users/" + other.ID, token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "Get other (head)", method: http.MethodGet, path: "/v1/users/" + other.ID, token: headToken, wantCode: http.StatusOK, wantData: marchallObj(t, other)},
		{
			name: "Student cannot change own role", method: http.MethodPut, path: "/v1/users/" + student.ID, token: studentToken,
			body:     marchallObj(t, user.UpdateUser{Role: user.RoleDepartmentHead}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Student updates own name", method: http.MethodPut, path: "/v1/users/" + student.ID, token: studentToken,
			body: marchallObj(t, user.UpdateUser{Name: "Super Hero"}), wantCode: http.StatusOK, extra: "Super Hero",
		},
		{
			name: "Student cannot delete", method: http.MethodDelete, path: "/v1/users/" + student.ID, token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Head cannot delete self", method: http.MethodDelete, path: "/v1/users/" + head.ID, token: headToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "Head deletes other", method: http.MethodDelete, path: "/v1/users/" + other.ID, token: headToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if wantName, ok := tt.extra.(string); ok {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Name != wantName {
					t.Errorf("failed! name = %v; want %v", respData.Name, wantName)
				}
				return
			}
			if tt.wantCode == http.StatusNoContent {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}
