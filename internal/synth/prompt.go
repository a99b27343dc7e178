package synth

import (
	"fmt"

	"github.com/milldesk/milldesk/prompts"
)

// BuildPrompt assembles the full user prompt: instruction set, safety
// rules, live schema, worked examples, then the question. The embedded
// documents are the only lever that shapes model behavior; treat them as
// configuration, not code.
func BuildPrompt(question, schemaText string) string {
	return fmt.Sprintf(`%s

%s

SCHEMA:
%s

EXAMPLES:
%s

USER QUESTION:
%s

Return ONLY valid JSON.
`, prompts.Instructions, prompts.Rules, schemaText, prompts.Examples, question)
}
