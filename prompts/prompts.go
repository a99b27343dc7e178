// Package prompts embeds the static documents given to the synthesizer:
// the instruction set, the safety rules, and the worked examples.
package prompts

import _ "embed"

//go:embed instructions.md
var Instructions string

//go:embed sql_rules.md
var Rules string

//go:embed examples.md
var Examples string
