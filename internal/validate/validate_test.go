package validate

import (
	"errors"
	"testing"

	"github.com/milldesk/milldesk/internal/synth"
)

func TestClassifySQL(t *testing.T) {
	c := &synth.Candidate{
		SQL:    "select count(*) from AttendanceReport",
		Params: []any{"2026-01-15"},
	}

	mode, err := Classify(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != ModeSQL {
		t.Errorf("mode = %q, want sql", mode)
	}
}

func TestClassifyNormalizesNilParams(t *testing.T) {
	c := &synth.Candidate{SQL: "select count(*) from AttendanceReport"}

	mode, err := Classify(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != ModeSQL {
		t.Errorf("mode = %q, want sql", mode)
	}
	if c.Params == nil {
		t.Error("nil params should be normalized to an empty slice")
	}
	if len(c.Params) != 0 {
		t.Errorf("params = %v, want empty", c.Params)
	}
}

func TestClassifyUnsupported(t *testing.T) {
	c := &synth.Candidate{Unsupported: true, Message: "not an attendance question"}

	mode, err := Classify(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != ModeUnsupported {
		t.Errorf("mode = %q, want unsupported", mode)
	}
}

func TestClassifyUnsupportedWithCourtesySQL(t *testing.T) {
	// The model may generate SQL and still flag it unsupported; the
	// unsupported flag wins the classification.
	c := &synth.Candidate{
		Unsupported: true,
		Message:     "joins are not allowed",
		SQL:         "select * from AttendanceReport a join Salaries s on a.code = s.code",
	}

	mode, err := Classify(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != ModeUnsupported {
		t.Errorf("mode = %q, want unsupported", mode)
	}
}

func TestClassifyContractViolations(t *testing.T) {
	tests := []struct {
		name    string
		c       *synth.Candidate
		wantErr error
	}{
		{"nil candidate", nil, ErrNilCandidate},
		{"unsupported without message", &synth.Candidate{Unsupported: true}, ErrMissingMessage},
		{"unsupported with blank message", &synth.Candidate{Unsupported: true, Message: "   "}, ErrMissingMessage},
		{"missing sql", &synth.Candidate{}, ErrBlankSQL},
		{"blank sql", &synth.Candidate{SQL: "  \n "}, ErrBlankSQL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(tt.c)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
