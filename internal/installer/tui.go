// Package installer — tui.go
//
// Interactive TUI for gathering the setup choices. Uses bubbletea
// for terminal UI with arrow key navigation and lipgloss for
// styling. Free-text input (subnets, auth key) happens later in a
// plain prompt phase; this wizard only covers the fixed choices.
package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ── Styles ───────────────────────────────────────────────

var (
	tuiTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("15")).
			Padding(0, 2)

	tuiSectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true)

	tuiSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("220")).
				Bold(true)

	tuiUnselectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250"))

	tuiDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	tuiWarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	tuiBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("245")).
			Padding(1, 2)

	tuiSummaryKeyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Width(18).
				Align(lipgloss.Right)

	tuiSummaryValStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Bold(true)
)

// ── Questions ────────────────────────────────────────────

type question struct {
	title   string
	options []option
}

type option struct {
	label string
	desc  string
	value string
	warn  string
}

func buildQuestions() []question {
	return []question{
		{
			title: "Exit Node",
			options: []option{
				{label: "Subnet router only", desc: "Advertise local subnets to the mesh", value: "no"},
				{label: "Subnet router + exit node", desc: "Also route internet traffic for peers", value: "yes",
					warn: "All peer traffic may flow through this host"},
			},
		},
		{
			title: "Legacy Source Routing",
			options: []option{
				{label: "Disabled", desc: "Recommended — modern networks do not need it", value: "no"},
				{label: "Enabled", desc: "accept_source_route sysctls for legacy setups", value: "yes",
					warn: "Source-routed packets are a known spoofing vector"},
			},
		},
	}
}

// ── TUI Model ────────────────────────────────────────────

type tuiPhase int

const (
	phaseQuestions tuiPhase = iota
	phaseSummary
	phaseConfirmed
	phaseCancelled
)

type tuiModel struct {
	questions []question
	current   int
	cursors   []int
	answers   []string
	phase     tuiPhase
	version   string
	width     int
	height    int
}

// SetupChoices holds the wizard answers.
type SetupChoices struct {
	ExitNode          bool
	AcceptSourceRoute bool
}

const tuiContentWidth = 60

func newTuiModel(version string) tuiModel {
	questions := buildQuestions()
	return tuiModel{
		questions: questions,
		cursors:   make([]int, len(questions)),
		answers:   make([]string, len(questions)),
		version:   version,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "escape":
			m.phase = phaseCancelled
			return m, tea.Quit
		case "up", "k":
			if m.phase == phaseQuestions && m.cursors[m.current] > 0 {
				m.cursors[m.current]--
			}
		case "down", "j":
			if m.phase == phaseQuestions {
				max := len(m.questions[m.current].options) - 1
				if m.cursors[m.current] < max {
					m.cursors[m.current]++
				}
			}
		case "enter":
			return m.handleEnter()
		case "backspace":
			if m.phase == phaseQuestions && m.current > 0 {
				m.current--
			} else if m.phase == phaseSummary {
				m.phase = phaseQuestions
				m.current = len(m.questions) - 1
			}
		}
	}
	return m, nil
}

func (m tuiModel) handleEnter() (tea.Model, tea.Cmd) {
	if m.phase == phaseSummary {
		m.phase = phaseConfirmed
		return m, tea.Quit
	}
	if m.phase != phaseQuestions {
		return m, nil
	}

	q := m.questions[m.current]
	m.answers[m.current] = q.options[m.cursors[m.current]].value

	if m.current < len(m.questions)-1 {
		m.current++
	} else {
		m.phase = phaseSummary
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	title := tuiTitleStyle.Width(tuiContentWidth).Align(lipgloss.Center).
		Render(fmt.Sprintf(" Mesh Subnet Node v%s ", m.version))
	b.WriteString(title)
	b.WriteString("\n\n")

	switch m.phase {
	case phaseQuestions:
		b.WriteString(m.renderQuestion())
	case phaseSummary:
		b.WriteString(m.renderSummary())
	}

	b.WriteString("\n")
	if m.phase == phaseQuestions {
		b.WriteString(tuiDimStyle.Render("↑↓ navigate • enter select • backspace back • esc quit"))
	} else {
		b.WriteString(tuiDimStyle.Render("enter confirm • backspace edit • esc cancel"))
	}

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		b.String(),
	)
}

func (m tuiModel) renderQuestion() string {
	var b strings.Builder

	b.WriteString(tuiDimStyle.Render(fmt.Sprintf(
		"Question %d of %d", m.current+1, len(m.questions))))
	b.WriteString("\n\n")

	q := m.questions[m.current]
	b.WriteString(tuiSectionStyle.Render(q.title))
	b.WriteString("\n\n")

	for i, opt := range q.options {
		cursor := "  "
		style := tuiUnselectedStyle
		if i == m.cursors[m.current] {
			cursor = "▸ "
			style = tuiSelectedStyle
		}
		b.WriteString(style.Render(cursor+opt.label) + tuiDimStyle.Render(" — "+opt.desc))
		b.WriteString("\n")
		if i == m.cursors[m.current] && opt.warn != "" {
			b.WriteString("  " + tuiWarningStyle.Render("WARNING: "+opt.warn))
			b.WriteString("\n")
		}
	}

	if m.current > 0 {
		b.WriteString("\n" + tuiDimStyle.Render("─────────────────────────────") + "\n")
		for i := 0; i < m.current; i++ {
			b.WriteString(tuiDimStyle.Render(m.questions[i].title+":") + " " + m.answers[i] + "\n")
		}
	}

	return b.String()
}

func (m tuiModel) renderSummary() string {
	var b strings.Builder

	b.WriteString(tuiSectionStyle.Render("Setup Summary"))
	b.WriteString("\n\n")

	c := m.getChoices()
	exitNode := "no"
	if c.ExitNode {
		exitNode = "yes"
	}
	srcRoute := "disabled"
	if c.AcceptSourceRoute {
		srcRoute = "enabled"
	}

	rows := []struct{ key, val string }{
		{"Exit node", exitNode},
		{"Source routing", srcRoute},
		{"Subnets", "collected next"},
		{"Auth key", "collected next"},
	}

	var content strings.Builder
	for _, row := range rows {
		content.WriteString(tuiSummaryKeyStyle.Render(row.key+":") +
			tuiSummaryValStyle.Render(" "+row.val) + "\n")
	}

	b.WriteString(tuiBoxStyle.Render(content.String()))
	b.WriteString("\n\n")
	b.WriteString(tuiSelectedStyle.Render("Press Enter to continue"))

	return b.String()
}

func (m tuiModel) getChoices() SetupChoices {
	var c SetupChoices
	for i, q := range m.questions {
		if i >= len(m.answers) || m.answers[i] == "" {
			continue
		}
		switch q.title {
		case "Exit Node":
			c.ExitNode = m.answers[i] == "yes"
		case "Legacy Source Routing":
			c.AcceptSourceRoute = m.answers[i] == "yes"
		}
	}
	return c
}

// RunTUI runs the wizard and returns the choices, or nil when the
// operator cancelled.
func RunTUI(version string) (*SetupChoices, error) {
	m := newTuiModel(version)
	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tuiModel)
	if final.phase == phaseCancelled {
		return nil, nil
	}

	c := final.getChoices()
	return &c, nil
}
