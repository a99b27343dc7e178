package synth

import "context"

// MockSynthesizer is a deterministic test double for the Synthesizer
// interface. Candidates are keyed by question; Default answers anything
// without a specific entry.
type MockSynthesizer struct {
	Candidates map[string]*Candidate
	Default    *Candidate
	Err        error

	Questions   []string
	SchemaTexts []string
}

func (m *MockSynthesizer) Synthesize(_ context.Context, question, schemaText string) (*Candidate, error) {
	m.Questions = append(m.Questions, question)
	m.SchemaTexts = append(m.SchemaTexts, schemaText)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Candidates != nil {
		if c, ok := m.Candidates[question]; ok {
			return c, nil
		}
	}
	if m.Default != nil {
		return m.Default, nil
	}
	return &Candidate{Unsupported: true, Message: "no canned answer configured"}, nil
}
