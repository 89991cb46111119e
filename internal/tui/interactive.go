package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/viz"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

// ComputeTimeout bounds one panel computation.
const ComputeTimeout = 30 * time.Second

type state int

const (
	stateMenu state = iota
	statePanel
)

type model struct {
	state  state
	cursor int
	models []string

	cfg      *config.Config
	registry *experiment.Registry
	panel    *experiment.Panel

	paramCursor int
	editing     bool
	editBuf     string
	notice      string

	presets     []string
	presetIndex int

	computing bool
	frame     int
	theme     viz.Theme

	width  int
	height int
}

// NewInteractiveApp builds the dashboard over cfg. The initial cursor sits on
// cfg's model.
func NewInteractiveApp(cfg *config.Config) *model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	registry := experiment.NewRegistry(cfg.Solver.NewSolver)

	m := &model{
		state:    stateMenu,
		models:   registry.ListModels(),
		cfg:      cfg,
		registry: registry,
		theme:    viz.ThemeCyberpunk,
		width:    100,
		height:   32,
	}
	for i, name := range m.models {
		if name == cfg.Model {
			m.cursor = i
		}
	}
	return m
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

type computedMsg struct {
	view *experiment.View
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) request() experiment.Request {
	return experiment.FromConfig(m.cfg)
}

func (m model) params() []param {
	return modelParams[m.cfg.Model]
}

// compute triggers the panel off the UI goroutine.
func (m model) compute() tea.Cmd {
	panel, req := m.panel, m.request()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ComputeTimeout)
		defer cancel()
		return computedMsg{view: panel.Trigger(ctx, req)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.computing {
			return m, nil
		}
		m.frame++
		return m, tick()
	case computedMsg:
		m.computing = false
		if !msg.view.Failed() {
			m.notice = fmt.Sprintf("computed %s", msg.view.Model)
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case statePanel:
		return m.panelKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.models)-1 {
			m.cursor++
		}
	case "t":
		m.theme = viz.NextTheme(m.theme)
	case "enter", " ":
		m.cfg.Model = m.models[m.cursor]
		m.state = statePanel
		m.paramCursor = 0
		m.notice = ""
		m.presets = config.ListPresets(m.cfg.Model)
		m.presetIndex = -1
		m.panel = experiment.NewPanel(m.registry, m.request())
	}
	return m, nil
}

func (m model) panelKey(msg tea.KeyMsg) (model, tea.Cmd) {
	params := m.params()
	if m.editing {
		return m.editKey(msg, params[m.paramCursor])
	}

	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
		return m, tea.ClearScreen
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(params)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing = true
		m.editBuf = params[m.paramCursor].format(m.cfg)
	case "left", "h":
		params[m.paramCursor].nudge(m.cfg, -1)
	case "right", "l":
		params[m.paramCursor].nudge(m.cfg, 1)
	case "p":
		if len(m.presets) > 0 {
			m.presetIndex = (m.presetIndex + 1) % len(m.presets)
			name := m.presets[m.presetIndex]
			applyPreset(m.cfg, m.cfg.Model, name)
			m.notice = "preset " + name
			m.panel.Reset(m.request())
		}
	case "x":
		m.panel.Reset(m.request())
		m.notice = "cleared"
	case "t":
		m.theme = viz.NextTheme(m.theme)
	case "g":
		if m.computing {
			return m, nil
		}
		m.computing = true
		m.notice = ""
		return m, tea.Batch(m.compute(), tick())
	}
	return m, nil
}

func (m model) editKey(msg tea.KeyMsg, p param) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if err := p.set(m.cfg, m.editBuf); err != nil {
			m.notice = err.Error()
		} else {
			m.notice = ""
		}
		m.editing = false
		m.editBuf = ""
	case tea.KeyEsc:
		m.editing = false
		m.editBuf = ""
	case tea.KeyBackspace:
		if r := []rune(m.editBuf); len(r) > 0 {
			m.editBuf = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		if p.isExpr() {
			m.editBuf += " "
		}
	case tea.KeyRunes:
		for _, c := range msg.Runes {
			if p.isExpr() || strings.ContainsRune("0123456789.-+eE", c) {
				m.editBuf += string(c)
			}
		}
	}
	return m, nil
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case statePanel:
		return m.viewPanel()
	}
	return ""
}

func (m model) title() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(m.theme.Secondary).Bold(true)
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + m.title().Render("p o p d y n") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.models {
		desc := modelInfo[name]
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-14s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-14s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render(fmt.Sprintf("      ↑↓ select   enter open   t theme (%s)   q quit", m.theme.Name)) + "\n")

	return b.String()
}

func (m model) viewPanel() string {
	var b strings.Builder
	view := m.panel.View()

	status := dim.Render("○ idle")
	switch {
	case m.computing:
		status = yellow.Render(viz.AnimatedSpinner(m.frame) + " computing")
	case view.State == experiment.Computed:
		status = green.Render("● computed")
	}
	b.WriteString(fmt.Sprintf("\n   %s  %s  %s\n", m.title().Render(m.cfg.Model), dim.Render(modelInfo[m.cfg.Model]), status))
	if m.cfg.Description != "" {
		b.WriteString("   " + dimmer.Render(m.cfg.Description) + "\n")
	}
	b.WriteString(dimmer.Render("   "+strings.Repeat("─", 40)) + "\n")

	for i, p := range m.params() {
		val := p.format(m.cfg)
		if m.editing && i == m.paramCursor {
			val = m.editBuf + "▋"
		}
		if i == m.paramCursor {
			b.WriteString("   " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-9s", p.name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("     " + dim.Render(fmt.Sprintf("%-9s", p.name)) + dim.Render(val) + "\n")
		}
	}
	b.WriteString("\n")

	w, h := m.chartSize()
	for _, line := range strings.Split(strings.TrimRight(viz.Chart(view, w, h), "\n"), "\n") {
		b.WriteString("   " + line + "\n")
	}

	if view.Failed() {
		errStyle := lipgloss.NewStyle().Foreground(m.theme.Error).Bold(true)
		b.WriteString("\n   " + errStyle.Render(string(view.Kind)) + " " + white.Render(view.Message) + "\n")
	}
	if metrics := viz.Metrics(view); metrics != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(strings.TrimRight(metrics, "\n"), "\n") {
			b.WriteString("   " + line + "\n")
		}
	}
	if m.notice != "" {
		b.WriteString("\n   " + yellow.Render(m.notice) + "\n")
	}

	help := "↑↓ select  ←→ adjust  enter edit  g generate  p preset  x clear  t theme  esc back"
	b.WriteString("\n" + dim.Render("   "+help) + "\n")
	return b.String()
}

// chartSize leaves room for the parameter list and the footer.
func (m model) chartSize() (int, int) {
	w := max(m.width-14, 40)
	h := max(m.height-len(m.params())-16, 8)
	if m.cfg.Model == "field" {
		// Braille cells are taller than wide
		h = max(min(h, w/3), 8)
	}
	return w, h
}

func RunInteractive(cfg *config.Config) error {
	p := tea.NewProgram(NewInteractiveApp(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
