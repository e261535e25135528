package installer

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ripsline/mesh-subnet-node/internal/config"
	"github.com/ripsline/mesh-subnet-node/internal/logging"
)

// NeedsSetup reports whether the node still has to run the wizard.
func NeedsSetup() bool {
	return !config.Exists()
}

// ── Setup progress TUI ───────────────────────────────────

type stepStatus int

const (
	stepPending stepStatus = iota
	stepRunning
	stepDone
	stepFailed
)

type setupStep struct {
	name   string
	fn     func() error
	status stepStatus
	err    error
}

type stepDoneMsg struct {
	index int
	err   error
}

type setupModel struct {
	steps   []setupStep
	current int
	done    bool
	failed  bool
	version string
	width   int
	height  int
}

var (
	progTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("15")).
			Padding(0, 2)

	progBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("245")).
			Padding(1, 2)

	progDoneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	progRunStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	progPendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	progFailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	progDimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	progGoodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

const progWidth = 75

func (m setupModel) Init() tea.Cmd {
	return m.runStep(0)
}

func (m setupModel) runStep(index int) tea.Cmd {
	return func() tea.Msg {
		if index >= len(m.steps) {
			return stepDoneMsg{index: index}
		}
		err := m.steps[index].fn()
		return stepDoneMsg{index: index, err: err}
	}
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter", "q":
			if m.done {
				return m, tea.Quit
			}
		}

	case stepDoneMsg:
		if msg.index < len(m.steps) {
			if msg.err != nil {
				m.steps[msg.index].status = stepFailed
				m.steps[msg.index].err = msg.err
				m.failed = true
				m.done = true
				return m, nil
			}
			m.steps[msg.index].status = stepDone

			next := msg.index + 1
			if next < len(m.steps) {
				m.current = next
				m.steps[next].status = stepRunning
				return m, m.runStep(next)
			}

			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m setupModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	boxWidth := minInt(m.width-4, progWidth)

	title := progTitleStyle.Width(boxWidth).Align(lipgloss.Center).
		Render(fmt.Sprintf(" Mesh Subnet Node v%s ", m.version))

	var lines []string
	for i, s := range m.steps {
		var style lipgloss.Style
		var indicator string

		switch s.status {
		case stepDone:
			style = progDoneStyle
			indicator = "✓"
		case stepRunning:
			style = progRunStyle
			indicator = "⟳"
		case stepFailed:
			style = progFailStyle
			indicator = "✗"
		default:
			style = progPendingStyle
			indicator = "○"
		}

		lines = append(lines,
			style.Render(fmt.Sprintf("  %s [%d/%d] %s",
				indicator, i+1, len(m.steps), s.name)))

		if s.status == stepFailed && s.err != nil {
			lines = append(lines,
				progFailStyle.Render(fmt.Sprintf("      Error: %v", s.err)))
		}
	}

	content := strings.Join(lines, "\n")
	box := progBoxStyle.Width(boxWidth).Render(content)

	var footer string
	if m.done && !m.failed {
		footer = progGoodStyle.Render("  ✓ Host prepared  ")
	} else if m.failed {
		footer = progFailStyle.Render("  Setup failed. Press q to exit.  ")
	} else {
		footer = progDimStyle.Render("  Preparing host... please wait  ")
	}

	full := lipgloss.JoinVertical(lipgloss.Center,
		"", title, "", box, "", footer)

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center, full)
}

func runSetupTUI(steps []setupStep, version string) error {
	if len(steps) == 0 {
		return nil
	}
	steps[0].status = stepRunning

	m := setupModel{
		steps:   steps,
		current: 0,
		version: version,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("setup TUI error: %w", err)
	}

	final := result.(setupModel)
	if final.failed {
		for _, s := range final.steps {
			if s.status == stepFailed {
				return fmt.Errorf("%s failed: %w", s.name, s.err)
			}
		}
	}
	return nil
}

// ── Main setup flow ──────────────────────────────────────

// Run drives the whole setup: wizard, host preparation, interactive
// collection, bring-up, saved config.
func Run(version string) error {
	if err := checkOS(); err != nil {
		return err
	}

	run := NewRunner()
	if err := CheckRunningUser(); err != nil {
		return err
	}
	if err := CheckEscalationAvailable(run); err != nil {
		return err
	}

	choices, err := RunTUI(version)
	if err != nil {
		return err
	}
	if choices == nil {
		fmt.Println("\n  Setup cancelled.")
		return nil
	}

	orch := NewOrchestrator(run, choices.ExitNode, choices.AcceptSourceRoute)

	steps := []setupStep{
		{name: "Installing packages and mesh client", fn: orch.PreparePackages},
		{name: "Configuring kernel networking and NIC", fn: orch.ConfigureNetwork},
	}

	logging.SetMirror(false)
	err = runSetupTUI(steps, version)
	logging.SetMirror(true)
	if err != nil {
		return err
	}

	if err := collectInputs(orch); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("  Bringing up the mesh connection...")
	if err := orch.BringUp(); err != nil {
		return err
	}

	appCfg := &config.AppConfig{
		Subnets:           orch.Subnets(),
		ExitNode:          orch.ExitNode(),
		AcceptSourceRoute: choices.AcceptSourceRoute,
		Device:            orch.Device,
		OffloadPersisted:  orch.OffloadPersisted,
	}
	if err := config.Save(appCfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Println()
	fmt.Println("  ✓ This host is now a mesh subnet router.")
	fmt.Printf("    Advertised subnets: %s\n", strings.Join(orch.Subnets(), ", "))
	if orch.ExitNode() {
		fmt.Println("    Exit node: advertised (approve it in the admin console)")
	}
	fmt.Println("    Run rlmesh again for the status dashboard.")

	return nil
}

// collectInputs gathers the auth key and at least one subnet.
// Invalid input is re-prompted indefinitely, never a fatal error.
func collectInputs(orch *Orchestrator) error {
	fmt.Println()
	fmt.Println("  ═══════════════════════════════════════════")
	fmt.Println("    Mesh Authentication")
	fmt.Println("  ═══════════════════════════════════════════")
	fmt.Println()
	fmt.Println("  Generate a pre-auth key in the admin console")
	fmt.Println("  (Settings → Keys) and paste it below.")
	fmt.Println()

	key, err := collectAuthKey()
	if err != nil {
		return err
	}
	if err := orch.SetAuthKey(key); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("  ═══════════════════════════════════════════")
	fmt.Println("    Subnets to Advertise")
	fmt.Println("  ═══════════════════════════════════════════")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("  Subnet CIDR (e.g. 192.168.1.0/24): ")
		cidr := readLine(reader)
		if !ValidateCIDR(cidr) {
			fmt.Println("  Invalid CIDR, expected a.b.c.d/prefix. Try again.")
			continue
		}
		if !orch.AddSubnet(cidr) {
			fmt.Println("  Already added.")
		}

		fmt.Print("  Add another subnet? [y/N]: ")
		answer := strings.ToLower(readLine(reader))
		if answer != "y" && answer != "yes" {
			return orch.FinishSubnets()
		}
	}
}

// collectAuthKey prompts until the key passes the format check.
// The input never echoes.
func collectAuthKey() (*Secret, error) {
	for {
		key, err := readSecret("  Auth key (input hidden): ")
		if err != nil {
			return nil, err
		}
		if ValidateAuthKey(key.Value()) {
			return key, nil
		}
		key.Zero()
		fmt.Println("  Invalid key: expected tskey-... with at least 20 characters.")
	}
}

// ── Helpers ──────────────────────────────────────────────

// checkOS verifies we're on a Debian-family system, since package
// setup assumes apt.
func checkOS() error {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return fmt.Errorf("cannot read /etc/os-release — is this Linux?")
	}

	release := string(data)
	if !strings.Contains(release, "debian") && !strings.Contains(release, "ubuntu") {
		return fmt.Errorf("unsupported OS — a Debian or Ubuntu host is required")
	}

	return nil
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
