package tests

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/trezcool/matokeo/core/outcome"
	"github.com/trezcool/matokeo/core/user"
	testutil "github.com/trezcool/matokeo/tests"
)

func Test_outcomeApi_createDepartment(t *testing.T) {
	setup(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "heroine", "hero@test.cd", "", user.RoleStudent, 1, true)
	head := testutil.CreateUser(t, usrRepo, "Heady", "headboy", "head@test.cd", "", user.RoleDepartmentHead, 1, true)
	testutil.CreateDepartment(t, outcomeRepo, "CSE", "Computer Science")

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Department head required", token: getToken(t, student),
			body:     marchallObj(t, outcome.NewDepartment{Code: "EEE", Name: "Electrical Engineering"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "duplicate code", token: getToken(t, head),
			body:     marchallObj(t, outcome.NewDepartment{Code: "cse", Name: "Computer Science"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": "this code is already in use"}),
		},
		{
			name: "created", token: getToken(t, head),
			body:     marchallObj(t, outcome.NewDepartment{Code: "eee", Name: "Electrical Engineering"}),
			wantCode: http.StatusCreated, extra: "EEE",
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/departments"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if wantCode, ok := tt.extra.(string); ok {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData outcome.Department
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Code != wantCode {
					t.Errorf("failed! code = %v; want %v", respData.Code, wantCode)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_outcomeApi_createProgramOutcome(t *testing.T) {
	setup(t)

	head := testutil.CreateUser(t, usrRepo, "Heady", "headboy", "head@test.cd", "", user.RoleDepartmentHead, 1, true)
	dept := testutil.CreateDepartment(t, outcomeRepo, "CSE", "Computer Science")

	tests := []httpTest{
		{
			name: "bad code", body: marchallObj(t, outcome.NewProgramOutcome{DepartmentID: dept.ID, Code: "lol", Description: "Problem solving"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": `code must start with "PO-" or be a number`}),
		},
		{
			name: "bare number gets prefix", body: marchallObj(t, outcome.NewProgramOutcome{DepartmentID: dept.ID, Code: "1", Description: "Problem solving"}),
			wantCode: http.StatusCreated, extra: "PO-1",
		},
		{
			name: "prefixed code kept", body: marchallObj(t, outcome.NewProgramOutcome{DepartmentID: dept.ID, Code: "po-2", Description: "Teamwork"}),
			wantCode: http.StatusCreated, extra: "PO-2",
		},
		{
			name: "duplicate code", body: marchallObj(t, outcome.NewProgramOutcome{DepartmentID: dept.ID, Code: "PO-1", Description: "Problem solving"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "this code is already in use"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/outcomes"
		tt.token = getToken(t, head)

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if wantCode, ok := tt.extra.(string); ok {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData outcome.ProgramOutcome
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Code != wantCode {
					t.Errorf("failed! code = %v; want %v", respData.Code, wantCode)
				}
				if respData.CreatedBy.String != head.ID {
					t.Errorf("failed! created_by = %v; want %v", respData.CreatedBy.String, head.ID)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_outcomeApi_activeProgramOutcomes(t *testing.T) {
	setup(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "heroine", "hero@test.cd", "", user.RoleStudent, 1, true)
	dept := testutil.CreateDepartment(t, outcomeRepo, "CSE", "Computer Science")
	po1 := testutil.CreateProgramOutcome(t, outcomeRepo, dept.ID, "PO-1", "Problem solving")
	po2 := testutil.CreateProgramOutcome(t, outcomeRepo, dept.ID, "PO-2", "Teamwork")

	path := "/v1/departments/" + strconv.Itoa(dept.ID) + "/outcomes"
	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get all, ordered by code", path: path, token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallList(t, po1, po2)},
		{
			name: "Unknown department yields empty list", path: "/v1/departments/999/outcomes", token: getToken(t, student),
			wantCode: http.StatusOK, wantData: marchallList(t, []interface{}{}...),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
