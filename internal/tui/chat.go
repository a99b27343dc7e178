// Package tui is the terminal chat front end for the query pipeline.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/milldesk/milldesk/internal/pipeline"
)

// Runner is the pipeline surface the chat depends on.
type Runner interface {
	Run(ctx context.Context, question, store string) (pipeline.Outcome, error)
}

// exchange is one question and its rendered answer.
type exchange struct {
	question string
	answer   string
}

// ChatModel is the bubbletea model for the interactive chat.
type ChatModel struct {
	runner   Runner
	stores   []string
	storeIdx int

	input   textinput.Model
	spinner spinner.Model
	running bool
	history []exchange
	err     error
	done    bool
	width   int
}

type outcomeMsg struct {
	question string
	outcome  pipeline.Outcome
	err      error
}

var exampleQuestions = []string{
	"How many outsiders today?",
	"Show attendance of nz1073 between 10/01/2026 to 31/01/2026",
	"How many double duty workers today?",
}

// NewChatModel creates the chat model for the given stores.
func NewChatModel(runner Runner, stores []string) ChatModel {
	input := textinput.New()
	input.Placeholder = exampleQuestions[0]
	input.CharLimit = 500
	input.Width = 70
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ChatModel{
		runner:  runner,
		stores:  stores,
		input:   input,
		spinner: s,
		width:   80,
	}
}

// Cancelled reports whether the user quit the chat.
func (m ChatModel) Cancelled() bool {
	return m.done && m.err != nil
}

func (m ChatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.running {
			if msg.String() == "ctrl+c" {
				m.done = true
				m.err = fmt.Errorf("cancelled")
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "esc":
			m.done = true
			m.err = fmt.Errorf("cancelled")
			return m, tea.Quit

		case "ctrl+t":
			if len(m.stores) > 0 {
				m.storeIdx = (m.storeIdx + 1) % len(m.stores)
			}
			return m, nil

		case "enter":
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.running = true
			m.input.SetValue("")
			return m, tea.Batch(m.spinner.Tick, m.ask(question))
		}

	case outcomeMsg:
		m.running = false
		if msg.err != nil {
			m.history = append(m.history, exchange{
				question: msg.question,
				answer:   errStyle.Render(msg.err.Error()),
			})
			return m, nil
		}
		m.history = append(m.history, exchange{
			question: msg.question,
			answer:   renderOutcome(msg.outcome),
		})
		return m, nil

	case spinner.TickMsg:
		if m.running {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if !m.running {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ChatModel) ask(question string) tea.Cmd {
	store := ""
	if len(m.stores) > 0 {
		store = m.stores[m.storeIdx]
	}
	return func() tea.Msg {
		out, err := m.runner.Run(context.Background(), question, store)
		return outcomeMsg{question: question, outcome: out, err: err}
	}
}

func (m ChatModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("milldesk") + "\n\n")

	// Store picker
	var picker []string
	for i, s := range m.stores {
		if i == m.storeIdx {
			picker = append(picker, highlightStyle.Render("● "+s))
		} else {
			picker = append(picker, dimStyle.Render("○ "+s))
		}
	}
	b.WriteString("  Store: " + strings.Join(picker, "  ") + dimStyle.Render("  (ctrl+t to switch)") + "\n\n")

	for _, ex := range m.history {
		b.WriteString(questionStyle.Render("> "+ex.question) + "\n")
		b.WriteString(ex.answer + "\n\n")
	}

	if m.running {
		b.WriteString(m.spinner.View() + " thinking...\n")
	} else {
		b.WriteString("  " + m.input.View() + "\n")
		if len(m.history) == 0 {
			b.WriteString("\n" + dimStyle.Render("  Try:") + "\n")
			for _, q := range exampleQuestions {
				b.WriteString(dimStyle.Render("    "+q) + "\n")
			}
		}
	}

	b.WriteString("\n" + dimStyle.Render("  enter: ask • ctrl+t: switch store • esc: quit") + "\n")
	return b.String()
}

// renderOutcome turns a pipeline outcome into display text.
func renderOutcome(out pipeline.Outcome) string {
	switch out.Kind {
	case pipeline.OutcomeExecuted:
		var b strings.Builder
		b.WriteString(successStyle.Render(fmt.Sprintf("%d row(s)", out.RowCount)))
		b.WriteString(dimStyle.Render("  " + out.SQL))
		if len(out.Rows) > 0 {
			b.WriteString("\n" + renderRows(out.Rows))
		}
		return b.String()

	case pipeline.OutcomeBlocked:
		var b strings.Builder
		b.WriteString(warnStyle.Render(out.Message))
		if out.Reason != "" {
			b.WriteString(warnStyle.Render(" (" + out.Reason + ")"))
		}
		b.WriteString("\n" + dimStyle.Render("  "+out.SQL))
		return b.String()

	default:
		return warnStyle.Render(out.Message)
	}
}

// renderRows formats result rows as a fixed-width table. Columns are sorted
// by name since maps carry no column order.
func renderRows(rows []map[string]any) string {
	cols := make([]string, 0, len(rows[0]))
	for c := range rows[0] {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	cells := make([][]string, len(rows))
	for ri, row := range rows {
		cells[ri] = make([]string, len(cols))
		for ci, c := range cols {
			s := fmt.Sprint(row[c])
			cells[ri][ci] = s
			if len(s) > widths[ci] {
				widths[ci] = len(s)
			}
		}
	}

	var b strings.Builder
	b.WriteString("  ")
	for i, c := range cols {
		b.WriteString(headerStyle.Render(pad(c, widths[i])) + "  ")
	}
	b.WriteString("\n")
	for _, row := range cells {
		b.WriteString("  ")
		for i, cell := range row {
			b.WriteString(pad(cell, widths[i]) + "  ")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).BorderStyle(lipgloss.DoubleBorder()).BorderBottom(true).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	questionStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
)

// Run starts the chat program and blocks until the user quits.
func Run(runner Runner, stores []string) error {
	m := NewChatModel(runner, stores)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("running chat: %w", err)
	}

	cm := finalModel.(ChatModel)
	if cm.Cancelled() {
		return nil
	}
	return nil
}
