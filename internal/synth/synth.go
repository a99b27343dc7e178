// Package synth turns a natural-language question into a structured SQL
// candidate by delegating to an external reasoning service. The rest of the
// pipeline only ever sees the Candidate contract, so everything downstream
// can be tested with a deterministic stub.
package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnstructuredOutput marks synthesizer output that does not parse as the
// documented JSON contract. The orchestrator folds it into the generic
// unsupported outcome.
var ErrUnstructuredOutput = errors.New("synthesizer returned unstructured output")

// Candidate is the synthesizer's structured answer: either a read-only SQL
// query with positional parameters, or an explicit refusal with a message.
type Candidate struct {
	SQL         string `json:"sql,omitempty"`
	Params      []any  `json:"params,omitempty"`
	Unsupported bool   `json:"unsupported,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Synthesizer produces a Candidate for a question given the schema text.
type Synthesizer interface {
	Synthesize(ctx context.Context, question, schemaText string) (*Candidate, error)
}

// Parse decodes raw model output into a Candidate. Markdown code fences are
// tolerated since models wrap JSON in them despite instructions; anything
// that still fails to decode is ErrUnstructuredOutput.
func Parse(raw string) (*Candidate, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	c := &Candidate{}
	if err := json.Unmarshal([]byte(text), c); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnstructuredOutput, truncate(raw, 200))
	}
	return c, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
