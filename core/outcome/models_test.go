package outcome

import (
	"testing"

	"github.com/trezcool/matokeo/core"
)

func TestNormalizePOCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		want     string
		wantFErr string
	}{
		{name: "empty", code: "", wantFErr: "code is required"},
		{name: "blank", code: "   ", wantFErr: "code is required"},
		{name: "bare digits", code: "1", want: "PO-1"},
		{name: "multi digits", code: "42", want: "PO-42"},
		{name: "lowercase prefix", code: "po-3", want: "PO-3"},
		{name: "already normalized", code: "PO-7", want: "PO-7"},
		{name: "padded", code: "  po-9 ", want: "PO-9"},
		{name: "wrong prefix", code: "LO-1", wantFErr: `code must start with "PO-" or be a number`},
		{name: "garbage", code: "lol", wantFErr: `code must start with "PO-" or be a number`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePOCode(tt.code)
			if tt.wantFErr != "" {
				vErr, ok := err.(*core.ValidationError)
				if !ok {
					t.Fatalf("NormalizePOCode() error = %v, want ValidationError", err)
				}
				if len(vErr.Fields) != 1 || vErr.Fields[0].Error != tt.wantFErr {
					t.Errorf("NormalizePOCode() fields = %v, want %s", vErr.Fields, tt.wantFErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePOCode() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizePOCode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewProgramOutcome_Validate(t *testing.T) {
	tests := []struct {
		name     string
		np       NewProgramOutcome
		wantCode string
		wantErr  bool
	}{
		{name: "empty", np: NewProgramOutcome{}, wantErr: true},
		{
			name:    "missing description",
			np:      NewProgramOutcome{DepartmentID: 1, Code: "1"},
			wantErr: true,
		},
		{
			name:    "bad code",
			np:      NewProgramOutcome{DepartmentID: 1, Code: "nope", Description: "Able to design systems"},
			wantErr: true,
		},
		{
			name:     "normalizes code",
			np:       NewProgramOutcome{DepartmentID: 1, Code: "2", Description: "Able to design systems"},
			wantCode: "PO-2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.np.Validate()
			if tt.wantErr {
				if err == nil {
					t.Error("Validate() expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
			if tt.np.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", tt.np.Code, tt.wantCode)
			}
		})
	}
}

func TestProgramOutcome_FullCode(t *testing.T) {
	dept := Department{Code: "CSE"}
	po := ProgramOutcome{Code: "PO-1"}
	if got := po.FullCode(dept); got != "CSE-PO-1" {
		t.Errorf("FullCode() = %s, want CSE-PO-1", got)
	}
}
