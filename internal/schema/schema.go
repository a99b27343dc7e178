package schema

import (
	"fmt"
	"strings"
)

// Schema is the described structure of the allow-listed tables in one store.
// It is rebuilt freshly for every pipeline run; nothing caches it.
type Schema struct {
	Store  string  `json:"store" yaml:"store"`
	Tables []Table `json:"tables" yaml:"tables"`
}

// Table is a described database table.
type Table struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
}

// Column is one column with its declared type.
type Column struct {
	Name     string `json:"name" yaml:"name"`
	DataType string `json:"data_type" yaml:"data_type"`
}

// RenderText renders the schema in the plain-text form given to the
// synthesizer as context:
//
//	Table: AttendanceReport
//	Columns:
//	- EmployeeCode (varchar)
func (s *Schema) RenderText() string {
	var b strings.Builder
	for _, t := range s.Tables {
		fmt.Fprintf(&b, "Table: %s\n", t.Name)
		b.WriteString("Columns:\n")
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "- %s (%s)\n", c.Name, c.DataType)
		}
		b.WriteString("\n")
	}
	return b.String()
}
