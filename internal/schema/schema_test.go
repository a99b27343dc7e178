package schema

import (
	"strings"
	"testing"
)

func TestRenderText(t *testing.T) {
	s := &Schema{
		Store: "hastings",
		Tables: []Table{
			{
				Name: "AttendanceReport",
				Columns: []Column{
					{Name: "EmployeeCode", DataType: "varchar"},
					{Name: "AttendanceDate", DataType: "date"},
					{Name: "OvertimeHours", DataType: "numeric"},
				},
			},
		},
	}

	text := s.RenderText()

	want := "Table: AttendanceReport\nColumns:\n- EmployeeCode (varchar)\n- AttendanceDate (date)\n- OvertimeHours (numeric)\n\n"
	if text != want {
		t.Errorf("RenderText mismatch:\ngot:\n%s\nwant:\n%s", text, want)
	}
}

func TestRenderTextColumnOrderPreserved(t *testing.T) {
	s := &Schema{
		Tables: []Table{
			{
				Name: "AttendanceReport",
				Columns: []Column{
					{Name: "Zeta", DataType: "int"},
					{Name: "Alpha", DataType: "int"},
				},
			},
		},
	}

	text := s.RenderText()
	if strings.Index(text, "Zeta") > strings.Index(text, "Alpha") {
		t.Error("columns must render in declared (ordinal) order, not sorted")
	}
}

func TestRenderTextEmpty(t *testing.T) {
	s := &Schema{}
	if s.RenderText() != "" {
		t.Errorf("empty schema should render empty text, got %q", s.RenderText())
	}
}
