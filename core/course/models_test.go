package course

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/trezcool/matokeo/core"
)

func firstFieldError(t *testing.T, err error) core.FieldError {
	t.Helper()
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if len(vErr.Fields) == 0 {
		t.Fatalf("ValidationError has no fields: %v", vErr)
	}
	return vErr.Fields[0]
}

func TestNormalizeLOCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		want     string
		wantFErr string
	}{
		{name: "empty", code: "", wantFErr: "code is required"},
		{name: "bare digits", code: "3", want: "LO-3"},
		{name: "lowercase prefix", code: "lo-1", want: "LO-1"},
		{name: "already normalized", code: "LO-12", want: "LO-12"},
		{name: "wrong prefix", code: "PO-1", wantFErr: `code must start with "LO-" or be a number`},
		{name: "garbage", code: "abc", wantFErr: `code must start with "LO-" or be a number`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeLOCode(tt.code)
			if tt.wantFErr != "" {
				if fErr := firstFieldError(t, err); fErr.Error != tt.wantFErr {
					t.Errorf("NormalizeLOCode() field error = %s, want %s", fErr.Error, tt.wantFErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeLOCode() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeLOCode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func Test_validateContributionWeight(t *testing.T) {
	tests := []struct {
		name     string
		weight   decimal.Decimal
		wantFErr string
	}{
		{name: "zero", weight: decimal.Zero, wantFErr: "weight must be between 1.0 and 5.0"},
		{name: "below min", weight: decimal.NewFromFloat(0.9), wantFErr: "weight must be between 1.0 and 5.0"},
		{name: "above max", weight: decimal.NewFromFloat(5.1), wantFErr: "weight must be between 1.0 and 5.0"},
		{name: "negative", weight: decimal.NewFromInt(-2), wantFErr: "weight must be between 1.0 and 5.0"},
		{name: "two decimal places", weight: decimal.NewFromFloat(2.55), wantFErr: "weight allows at most one decimal place"},
		{name: "min ok", weight: decimal.NewFromInt(1)},
		{name: "max ok", weight: decimal.NewFromInt(5)},
		{name: "one decimal place ok", weight: decimal.NewFromFloat(2.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContributionWeight(tt.weight)
			if tt.wantFErr != "" {
				if fErr := firstFieldError(t, err); fErr.Error != tt.wantFErr {
					t.Errorf("validateContributionWeight() field error = %s, want %s", fErr.Error, tt.wantFErr)
				}
				return
			}
			if err != nil {
				t.Errorf("validateContributionWeight() unexpected error = %v", err)
			}
		})
	}
}

func TestNewAssessment_Validate(t *testing.T) {
	tests := []struct {
		name         string
		na           NewAssessment
		wantMaxScore decimal.Decimal
		wantFErr     string
		wantErr      bool
	}{
		{name: "empty", na: NewAssessment{}, wantErr: true},
		{
			name:    "unknown type",
			na:      NewAssessment{InstanceID: 1, Name: "Pop Quiz", Type: "POP"},
			wantErr: true,
		},
		{
			name:     "negative max score",
			na:       NewAssessment{InstanceID: 1, Name: "Quiz 1", Type: "quiz", MaxScore: decimal.NewFromInt(-10)},
			wantFErr: "max_score cannot be negative",
		},
		{
			name:     "weight above 100",
			na:       NewAssessment{InstanceID: 1, Name: "Quiz 1", Type: "quiz", Weight: decimal.NewFromInt(120)},
			wantFErr: "weight must be between 0 and 100",
		},
		{
			name:         "zero max score defaults to 100",
			na:           NewAssessment{InstanceID: 1, Name: "Final Exam", Type: "final"},
			wantMaxScore: decimal.NewFromInt(100),
		},
		{
			name:         "explicit max score kept",
			na:           NewAssessment{InstanceID: 1, Name: "Quiz 1", Type: "QUIZ", MaxScore: decimal.NewFromInt(20)},
			wantMaxScore: decimal.NewFromInt(20),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.na.Validate()
			if tt.wantFErr != "" {
				if fErr := firstFieldError(t, err); fErr.Error != tt.wantFErr {
					t.Errorf("Validate() field error = %s, want %s", fErr.Error, tt.wantFErr)
				}
				return
			}
			if tt.wantErr {
				if err == nil {
					t.Error("Validate() expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
			if !tt.na.MaxScore.Equal(tt.wantMaxScore) {
				t.Errorf("max score = %s, want %s", tt.na.MaxScore, tt.wantMaxScore)
			}
		})
	}
}
