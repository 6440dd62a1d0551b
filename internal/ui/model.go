// Package ui is the terminal front end of the launcher. It owns the
// Controller: every query change, selection move and activation runs on
// the bubbletea update loop.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/chess10kp/skoll/internal/config"
	"github.com/chess10kp/skoll/internal/launcher"
	"github.com/mattn/go-runewidth"
)

// ReloadMsg carries a rebuilt entry collection, sent from the app
// directory watcher through Program.Send.
type ReloadMsg struct {
	Collection *launcher.Collection
}

var (
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	windowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type Model struct {
	ctrl            *launcher.Controller
	keys            KeyMap
	query           []rune
	status          string
	maxResults      int
	closeOnActivate bool
	width           int
	height          int
	quitting        bool
}

func New(ctrl *launcher.Controller, cfg *config.Config) Model {
	return Model{
		ctrl:            ctrl,
		keys:            KeyMapFromConfig(cfg.Launcher.Keys),
		maxResults:      cfg.Launcher.Search.MaxResults,
		closeOnActivate: cfg.Launcher.Behavior.CloseOnActivate,
		width:           80,
		height:          24,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case ReloadMsg:
		m.ctrl.Replace(msg.Collection)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.ctrl.OnSelectPrev()
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.ctrl.OnSelectNext()
		return m, nil
	case key.Matches(msg, m.keys.Activate):
		return m.activate()
	}

	switch msg.Type {
	case tea.KeyBackspace:
		if len(m.query) > 0 {
			m.query = m.query[:len(m.query)-1]
			m.queryChanged()
		}
	case tea.KeyCtrlU:
		m.query = m.query[:0]
		m.queryChanged()
	case tea.KeyCtrlW:
		m.query = []rune(deleteWord(string(m.query)))
		m.queryChanged()
	case tea.KeySpace:
		m.query = append(m.query, ' ')
		m.queryChanged()
	case tea.KeyRunes:
		m.query = append(m.query, msg.Runes...)
		m.queryChanged()
	}
	return m, nil
}

func (m *Model) queryChanged() {
	m.status = ""
	m.ctrl.OnQueryChanged(string(m.query))
}

func (m Model) activate() (tea.Model, tea.Cmd) {
	act := m.ctrl.OnActivate()
	if act.Err != nil {
		m.status = act.Err.Error()
	} else {
		m.status = ""
	}
	if act.Launched && m.closeOnActivate {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// Status is the error line shown under the results.
func (m Model) Status() string {
	return m.status
}

func (m Model) Quitting() bool {
	return m.quitting
}

func deleteWord(s string) string {
	s = strings.TrimRight(s, " ")
	if i := strings.LastIndex(s, " "); i >= 0 {
		return s[:i+1]
	}
	return ""
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(promptStyle.Render("> "))
	b.WriteString(string(m.query))
	b.WriteString("\n")

	rows := m.height - 3
	if rows > m.maxResults {
		rows = m.maxResults
	}
	if rows < 1 {
		rows = 1
	}

	visible := m.ctrl.Visible()
	selected := m.ctrl.SelectedIndex()
	start := 0
	if selected >= rows {
		start = selected - rows + 1
	}

	if m.ctrl.CommandMode() {
		b.WriteString(dimStyle.Render("run: " + launcher.CommandText(string(m.query), m.ctrl.Prefix())))
		b.WriteString("\n")
	}

	for i := start; i < len(visible) && i < start+rows; i++ {
		b.WriteString(m.renderRow(visible[i], i == selected))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(errorStyle.Render(runewidth.Truncate(m.status, m.width, "…")))
		b.WriteString("\n")
	} else {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d/%d", len(visible), m.ctrl.Collection().Len())))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRow(e *launcher.Entry, selected bool) string {
	width := m.width - 2
	if width < 10 {
		width = 10
	}

	label := e.Name
	if e.Display && e.Workspace != "" {
		label = fmt.Sprintf("%s [%s]", e.Name, e.Workspace)
	}
	label = runewidth.FillRight(runewidth.Truncate(label, width, "…"), width)

	switch {
	case selected:
		return selectedStyle.Render("  " + label)
	case e.Display:
		return windowStyle.Render("  " + label)
	default:
		return "  " + label
	}
}
