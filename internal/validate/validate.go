// Package validate checks the synthesizer's output against the structural
// contract before anything downstream trusts it.
package validate

import (
	"errors"
	"strings"

	"github.com/milldesk/milldesk/internal/synth"
)

// Mode classifies a well-formed candidate.
type Mode string

const (
	// ModeSQL means the candidate carries an executable query.
	ModeSQL Mode = "sql"
	// ModeUnsupported means the model explicitly refused.
	ModeUnsupported Mode = "unsupported"
)

// Contract violations. These are programming-contract failures of the
// synthesizer's output, distinct from a business-level refusal; the
// orchestrator treats them like a synthesis failure.
var (
	ErrNilCandidate   = errors.New("candidate is nil")
	ErrMissingMessage = errors.New("unsupported candidate missing message")
	ErrBlankSQL       = errors.New("candidate sql is empty or blank")
)

// Classify validates a candidate's structure and returns its mode.
// A nil Params slice is normalized to empty so execution can bind zero
// parameters without a special case.
func Classify(c *synth.Candidate) (Mode, error) {
	if c == nil {
		return "", ErrNilCandidate
	}

	if c.Unsupported {
		if strings.TrimSpace(c.Message) == "" {
			return "", ErrMissingMessage
		}
		return ModeUnsupported, nil
	}

	if strings.TrimSpace(c.SQL) == "" {
		return "", ErrBlankSQL
	}
	if c.Params == nil {
		c.Params = []any{}
	}
	return ModeSQL, nil
}
