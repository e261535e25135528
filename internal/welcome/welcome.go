// Package welcome displays the post-setup dashboard shown whenever
// rlmesh runs on an already configured node. Three tabs:
//   - Status: daemon health, mesh addresses, system resources
//   - Routes: advertised subnets, approval state, admin console QR
//   - Logs: journalctl output for the mesh daemon
//
// Press esc to quit back to the shell.
package welcome

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/ripsline/mesh-subnet-node/internal/config"
	"github.com/ripsline/mesh-subnet-node/internal/installer"
)

// adminConsoleURL is where advertised routes and exit nodes are
// approved.
const adminConsoleURL = "https://login.tailscale.com/admin/machines"

// ── Styles ───────────────────────────────────────────────

var (
	wTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("15")).
			Padding(0, 2)

	wActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("15")).
			Padding(0, 2)

	wInactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Background(lipgloss.Color("236")).
				Padding(0, 2)

	wHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true)

	wLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	wValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15"))

	wGoodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true)

	wWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	wGreenDotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	wRedDotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	wDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	wBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("245"))

	wFooterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	wWarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	wActionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)
)

const wContentWidth = 76

// ── Enums ────────────────────────────────────────────────

type tab int

const (
	tabStatus tab = iota
	tabRoutes
	tabLogs
)

// ── Model ────────────────────────────────────────────────

type Model struct {
	cfg       *config.AppConfig
	version   string
	activeTab tab
	showQR    bool
	logLines  []string
	logOffset int
	width     int
	height    int
}

func NewModel(cfg *config.AppConfig, version string) Model {
	return Model{
		cfg:     cfg,
		version: version,
	}
}

// Show runs the dashboard until the operator quits.
func Show(cfg *config.AppConfig, version string) {
	m := NewModel(cfg, version)
	p := tea.NewProgram(m, tea.WithAltScreen())
	p.Run()
}

func (m Model) Init() tea.Cmd { return nil }

// boxHeight returns the fixed inner height for content boxes.
func (m Model) boxHeight() int {
	h := m.height - 12
	if h < 10 {
		h = 10
	}
	if h > 30 {
		h = 30
	}
	return h
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "escape" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.showQR {
			if msg.String() == "backspace" || msg.String() == "a" {
				m.showQR = false
			}
			return m, nil
		}

		switch msg.String() {
		case "tab", "right":
			if m.activeTab == tabLogs {
				m.activeTab = tabStatus
			} else {
				m.activeTab++
			}
		case "shift+tab", "left":
			if m.activeTab == tabStatus {
				m.activeTab = tabLogs
			} else {
				m.activeTab--
			}
		case "1":
			m.activeTab = tabStatus
		case "2":
			m.activeTab = tabRoutes
		case "3":
			m.activeTab = tabLogs

		case "a":
			if m.activeTab == tabRoutes {
				m.showQR = true
			}

		case "r":
			if m.activeTab == tabLogs {
				m.logLines = fetchLogLines("tailscaled", 200)
				m.logOffset = 0
			}

		case "up", "k":
			if m.activeTab == tabLogs {
				maxOffset := len(m.logLines) - m.logsVisible()
				if maxOffset < 0 {
					maxOffset = 0
				}
				if m.logOffset < maxOffset {
					m.logOffset++
				}
			}
		case "down", "j":
			if m.activeTab == tabLogs {
				if m.logOffset > 0 {
					m.logOffset--
				}
			}
		}
	}
	return m, nil
}

func (m Model) logsVisible() int {
	v := m.boxHeight() - 2
	if v < 5 {
		v = 5
	}
	return v
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.showQR {
		return m.renderQRScreen()
	}

	boxWidth := wMinInt(m.width-4, wContentWidth)

	var content string
	switch m.activeTab {
	case tabStatus:
		content = m.renderStatus(boxWidth)
	case tabRoutes:
		content = m.renderRoutes(boxWidth)
	case tabLogs:
		content = m.renderLogs(boxWidth)
	}

	title := wTitleStyle.Width(boxWidth).Align(lipgloss.Center).
		Render(" Mesh Subnet Node v" + m.version + " ")
	tabs := m.renderTabs(boxWidth)
	footer := m.renderFooter()

	body := lipgloss.JoinVertical(lipgloss.Center,
		"", title, "", tabs, "", content,
	)

	bodyHeight := lipgloss.Height(body)
	gap := m.height - bodyHeight - 2
	if gap < 0 {
		gap = 0
	}

	full := lipgloss.JoinVertical(lipgloss.Center,
		body,
		strings.Repeat("\n", gap),
		footer,
	)

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Top, full)
}

// ── Tab bar ──────────────────────────────────────────────

func (m Model) renderTabs(totalWidth int) string {
	tabs := []struct {
		name string
		id   tab
	}{
		{"Status", tabStatus},
		{"Routes", tabRoutes},
		{"Logs", tabLogs},
	}

	tabWidth := totalWidth / len(tabs)
	var rendered []string
	for _, t := range tabs {
		if t.id == m.activeTab {
			rendered = append(rendered,
				wActiveTabStyle.Width(tabWidth).Align(lipgloss.Center).Render(t.name))
		} else {
			rendered = append(rendered,
				wInactiveTabStyle.Width(tabWidth).Align(lipgloss.Center).Render(t.name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderFooter() string {
	var hint string
	switch m.activeTab {
	case tabStatus:
		hint = "← → switch tabs • esc quit to shell"
	case tabRoutes:
		hint = "a admin console QR • ← → tabs • esc quit"
	case tabLogs:
		hint = "↑↓ scroll • r refresh • ← → tabs • esc quit"
	}
	return wFooterStyle.Render("  " + hint + "  ")
}

// ── Status tab ───────────────────────────────────────────

func (m Model) renderStatus(boxWidth int) string {
	var sections []string

	sections = append(sections, wHeaderStyle.Render("Mesh"))
	sections = append(sections, "")
	sections = append(sections, renderServiceRow("tailscaled"))

	ip4 := meshIP("-4")
	ip6 := meshIP("-6")
	if ip4 != "" {
		sections = append(sections, "  "+wLabelStyle.Render("IPv4: ")+wValueStyle.Render(ip4))
	}
	if ip6 != "" {
		sections = append(sections, "  "+wLabelStyle.Render("IPv6: ")+wValueStyle.Render(ip6))
	}
	if device := m.cfg.Device; device != "" {
		offload := "not persisted"
		if m.cfg.OffloadPersisted {
			offload = "persisted"
		}
		sections = append(sections, "  "+wLabelStyle.Render("Device: ")+
			wValueStyle.Render(device)+wDimStyle.Render(" (offload "+offload+")"))
	}

	sections = append(sections, "")
	sections = append(sections, wHeaderStyle.Render("System"))
	sections = append(sections, "")
	sections = append(sections, renderSystemStats()...)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return m.padBox(content, boxWidth)
}

// ── Routes tab ───────────────────────────────────────────

func (m Model) renderRoutes(boxWidth int) string {
	var sections []string

	sections = append(sections, wHeaderStyle.Render("Advertised Subnets"))
	sections = append(sections, "")
	if m.cfg.HasSubnets() {
		for _, cidr := range m.cfg.Subnets {
			sections = append(sections, "  "+wValueStyle.Render(cidr))
		}
	} else {
		sections = append(sections, "  "+wDimStyle.Render("none"))
	}

	sections = append(sections, "")
	exitNode := wDimStyle.Render("no")
	if m.cfg.ExitNode {
		exitNode = wGoodStyle.Render("yes")
	}
	sections = append(sections, wHeaderStyle.Render("Exit Node")+"  "+exitNode)

	sections = append(sections, "")
	if statusOut := meshStatus(); statusOut == "" {
		sections = append(sections, wWarnStyle.Render("Mesh daemon not responding"))
	} else if installer.RoutesPendingApproval(statusOut) {
		sections = append(sections,
			wWarningStyle.Render("Routes are pending approval in the admin console."))
		sections = append(sections, "")
		sections = append(sections, wActionStyle.Render("Press [a] for the approval QR code"))
	} else {
		sections = append(sections, wGoodStyle.Render("✓ Routes approved and active"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return m.padBox(content, boxWidth)
}

func (m Model) renderQRScreen() string {
	qr := renderQRCode(adminConsoleURL)

	content := lipgloss.JoinVertical(lipgloss.Center,
		wHeaderStyle.Render("Admin Console"),
		"",
		qr,
		"",
		wValueStyle.Render(adminConsoleURL),
		"",
		wDimStyle.Render("Approve routes and exit nodes here. backspace to go back."),
	)

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center, content)
}

// ── Logs tab ─────────────────────────────────────────────

func (m Model) renderLogs(boxWidth int) string {
	logLines := m.logLines
	if logLines == nil {
		logLines = fetchLogLines("tailscaled", 200)
	}

	visible := m.logsVisible()
	totalLines := len(logLines)
	end := totalLines - m.logOffset
	if end < 0 {
		end = 0
	}
	start := end - visible
	if start < 0 {
		start = 0
	}

	var displayLines []string
	if totalLines == 0 {
		displayLines = []string{wDimStyle.Render("No logs available. Press r to refresh.")}
	} else {
		for _, line := range logLines[start:end] {
			displayLines = append(displayLines, wDimStyle.Render(line))
		}
	}

	scrollHint := ""
	if m.logOffset > 0 {
		scrollHint = wDimStyle.Render(fmt.Sprintf(" ↑ %d more lines above", start))
	}

	var contentParts []string
	contentParts = append(contentParts, wHeaderStyle.Render("tailscaled"))
	if scrollHint != "" {
		contentParts = append(contentParts, scrollHint)
	}
	contentParts = append(contentParts, "")
	contentParts = append(contentParts, strings.Join(displayLines, "\n"))

	content := lipgloss.JoinVertical(lipgloss.Left, contentParts...)
	return m.padBox(content, boxWidth)
}

// padBox pads content to the fixed box height and wraps it in the
// border.
func (m Model) padBox(content string, boxWidth int) string {
	contentHeight := lipgloss.Height(content)
	target := m.boxHeight()
	if contentHeight < target {
		content += strings.Repeat("\n", target-contentHeight)
	}
	return wBorderStyle.Width(boxWidth).Padding(1, 2).Render(content)
}

// ── QR rendering ─────────────────────────────────────────

func renderQRCode(data string) string {
	qr, err := qrcode.New(data, qrcode.Low)
	if err != nil {
		return ""
	}

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := len(bitmap[0])

	var b strings.Builder
	for y := 0; y < rows; y += 2 {
		for x := 0; x < cols; x++ {
			top := bitmap[y][x]
			bottom := false
			if y+1 < rows {
				bottom = bitmap[y+1][x]
			}
			switch {
			case top && bottom:
				b.WriteString("█")
			case top && !bottom:
				b.WriteString("▀")
			case !top && bottom:
				b.WriteString("▄")
			default:
				b.WriteString(" ")
			}
		}
		if y+2 < rows {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ── Helpers ──────────────────────────────────────────────

func renderServiceRow(name string) string {
	cmd := exec.Command("systemctl", "is-active", "--quiet", name)
	if cmd.Run() == nil {
		return "  " + wGreenDotStyle.Render("●") + " " + wValueStyle.Render(name)
	}
	return "  " + wRedDotStyle.Render("●") + " " + wDimStyle.Render(name)
}

func meshIP(family string) string {
	cmd := exec.Command("tailscale", "ip", family)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

func meshStatus() string {
	cmd := exec.Command("tailscale", "status")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return ""
	}
	return string(output)
}

func renderSystemStats() []string {
	var rows []string

	total, used, pct := diskUsage("/")
	rows = append(rows, "  "+wLabelStyle.Render("Disk: ")+
		wValueStyle.Render(fmt.Sprintf("%s / %s (%s)", used, total, pct)))

	ramTotal, ramUsed, ramPct := memUsage()
	rows = append(rows, "  "+wLabelStyle.Render("RAM:  ")+
		wValueStyle.Render(fmt.Sprintf("%s / %s (%s)", ramUsed, ramTotal, ramPct)))

	return rows
}

func diskUsage(path string) (string, string, string) {
	cmd := exec.Command("df", "-h", "--output=size,used,pcent", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "N/A", "N/A", "N/A"
	}
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) < 2 {
		return "N/A", "N/A", "N/A"
	}
	fields := strings.Fields(lines[1])
	if len(fields) < 3 {
		return "N/A", "N/A", "N/A"
	}
	return fields[0], fields[1], fields[2]
}

func memUsage() (string, string, string) {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return "N/A", "N/A", "N/A"
	}
	var total, available int
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "MemTotal:") {
			fmt.Sscanf(line, "MemTotal: %d kB", &total)
		}
		if strings.HasPrefix(line, "MemAvailable:") {
			fmt.Sscanf(line, "MemAvailable: %d kB", &available)
		}
	}
	if total == 0 {
		return "N/A", "N/A", "N/A"
	}
	used := total - available
	pct := float64(used) / float64(total) * 100
	return formatKB(total), formatKB(used), fmt.Sprintf("%.0f%%", pct)
}

func formatKB(kb int) string {
	if kb >= 1048576 {
		return fmt.Sprintf("%.1f GB", float64(kb)/1048576.0)
	}
	return fmt.Sprintf("%.0f MB", float64(kb)/1024.0)
}

// fetchLogLines fetches journal lines and returns them as a slice.
// No --plain flag as it causes exit code 1 on some Debian installs.
func fetchLogLines(service string, count int) []string {
	cmd := exec.Command("journalctl", "-u", service,
		"-n", fmt.Sprintf("%d", count),
		"--no-pager")
	output, err := cmd.CombinedOutput()
	if err != nil && len(output) == 0 {
		return []string{"Could not fetch logs: " + err.Error()}
	}
	text := strings.TrimSpace(string(output))
	if text == "" {
		return []string{"No logs available."}
	}
	return strings.Split(text, "\n")
}

func wMinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
