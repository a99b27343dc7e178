// Package guard is the textual read-only filter applied to every candidate
// query before execution. It is a defense-in-depth denylist, not a SQL
// parser: deliberately conservative, ordered checks over the literal query
// text, with no I/O and no execution side effects.
package guard

import (
	"fmt"
	"regexp"
	"strings"
)

// forbiddenKeywords are statements that can modify or destroy data.
// Matched as whole words only, so identifiers like created_at never trip.
var forbiddenKeywords = []string{
	"insert", "update", "delete", "drop",
	"alter", "create", "merge", "exec",
	"truncate", "grant", "revoke",
}

// Violation identifies which check a query failed.
type Violation string

const (
	ViolationNone           Violation = ""
	ViolationEmpty          Violation = "empty_query"
	ViolationNotSelect      Violation = "non_select"
	ViolationMultiStatement Violation = "multi_statement"
	ViolationComment        Violation = "comment"
	ViolationKeyword        Violation = "forbidden_keyword"
	ViolationTable          Violation = "forbidden_table"
)

// Decision is the guard's verdict on one query.
type Decision struct {
	OK        bool
	Violation Violation
	Detail    string // offending keyword or table, when applicable
}

// Reason returns a human-readable rejection reason, empty when OK.
func (d Decision) Reason() string {
	switch d.Violation {
	case ViolationNone:
		return ""
	case ViolationEmpty:
		return "empty query"
	case ViolationNotSelect:
		return "non-SELECT statement"
	case ViolationMultiStatement:
		return "multi-statement: semicolons are not allowed"
	case ViolationComment:
		return "SQL comments are not allowed"
	case ViolationKeyword:
		return fmt.Sprintf("forbidden SQL keyword: %s", d.Detail)
	case ViolationTable:
		return fmt.Sprintf("access to table %q is not allowed", d.Detail)
	default:
		return string(d.Violation)
	}
}

var (
	keywordPatterns  map[string]*regexp.Regexp
	fromTablePattern = regexp.MustCompile(`\bfrom\s+([a-zA-Z0-9_]+)`)
)

func init() {
	keywordPatterns = make(map[string]*regexp.Regexp, len(forbiddenKeywords))
	for _, kw := range forbiddenKeywords {
		keywordPatterns[kw] = regexp.MustCompile(`\b` + kw + `\b`)
	}
}

// Guard holds the table allow-list policy.
type Guard struct {
	allowedTables map[string]bool
}

// New creates a Guard allowing exactly the given tables (case-insensitive).
func New(allowedTables []string) *Guard {
	allowed := make(map[string]bool, len(allowedTables))
	for _, t := range allowedTables {
		allowed[strings.ToLower(t)] = true
	}
	return &Guard{allowedTables: allowed}
}

// Check runs the ordered safety checks over the literal query text and
// short-circuits on the first violation. The original casing is never
// modified; a lowercased working copy is used for matching only.
func (g *Guard) Check(sql string) Decision {
	clean := strings.ToLower(strings.TrimSpace(sql))

	if clean == "" {
		return Decision{Violation: ViolationEmpty}
	}

	if !strings.HasPrefix(clean, "select") {
		return Decision{Violation: ViolationNotSelect}
	}

	if strings.Contains(clean, ";") {
		return Decision{Violation: ViolationMultiStatement}
	}

	// Comment markers trivially smuggle anything past the later checks.
	if strings.Contains(clean, "--") || strings.Contains(clean, "/*") {
		return Decision{Violation: ViolationComment}
	}

	for _, kw := range forbiddenKeywords {
		if keywordPatterns[kw].MatchString(clean) {
			return Decision{Violation: ViolationKeyword, Detail: kw}
		}
	}

	for _, m := range fromTablePattern.FindAllStringSubmatch(clean, -1) {
		if !g.allowedTables[m[1]] {
			return Decision{Violation: ViolationTable, Detail: m[1]}
		}
	}

	return Decision{OK: true}
}
