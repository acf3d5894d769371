// Package tui provides a BubbleTea terminal simulator for perch. It
// drives the real engine against an in-memory overlay host and turns
// mouse input into touch events, so widgets can be dragged, locked and
// deleted without a compositor.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/perch/internal/config"
	"github.com/jmylchreest/perch/internal/engine"
	"github.com/jmylchreest/perch/internal/model"
	"github.com/jmylchreest/perch/internal/overlay"
)

// headerHeight is the number of lines above the canvas.
const headerHeight = 1

// refreshInterval repaints the canvas so dimming shows up.
const refreshInterval = 150 * time.Millisecond

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Model is the simulator TUI model.
type Model struct {
	ctx  context.Context
	cfg  *config.Config
	eng  *engine.Engine
	host *overlay.MemoryHost
	perm *overlay.SwitchPermission

	lifecycle <-chan bool

	// Components
	help     help.Model
	keys     KeyMap
	showHelp bool

	// State
	width, height int
	views         []overlay.MemoryView
	widgets       []model.Snapshot
	active        bool
	pressing      bool

	statusMsg string
	statusErr bool
}

// New creates the simulator model. The engine must already be running.
func New(ctx context.Context, cfg *config.Config, eng *engine.Engine, host *overlay.MemoryHost, perm *overlay.SwitchPermission) Model {
	return Model{
		ctx:       ctx,
		cfg:       cfg,
		eng:       eng,
		host:      host,
		perm:      perm,
		lifecycle: eng.Subscribe(),
		help:      help.New(),
		keys:      DefaultKeyMap(),
	}
}

// Init starts the refresh loop and the lifecycle watch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh, m.tick(), m.watchLifecycle)
}

type refreshMsg struct {
	views   []overlay.MemoryView
	widgets []model.Snapshot
}

type tickMsg struct{}

type lifecycleMsg struct {
	active bool
	closed bool
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

// refresh waits for queued engine work, then snapshots the screen.
func (m Model) refresh() tea.Msg {
	ctx, cancel := context.WithTimeout(m.ctx, time.Second)
	defer cancel()
	_ = m.eng.Flush(ctx)
	widgets, _ := m.eng.Widgets(ctx)
	return refreshMsg{views: m.host.Views(), widgets: widgets}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m Model) watchLifecycle() tea.Msg {
	active, ok := <-m.lifecycle
	return lifecycleMsg{active: active, closed: !ok}
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isErr: isErr} }
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case refreshMsg:
		m.views = msg.views
		m.widgets = msg.widgets
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh, m.tick())

	case lifecycleMsg:
		if msg.closed {
			return m, nil
		}
		m.active = msg.active
		return m, m.watchLifecycle

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.New):
		return m, m.showWidget

	case key.Matches(msg, m.keys.HideTop):
		return m, m.hideTop

	case key.Matches(msg, m.keys.HideAll):
		return m, m.hideAll

	case key.Matches(msg, m.keys.TogglePermission):
		granted := !m.perm.CanDrawOverlay()
		m.perm.Set(granted)
		if granted {
			return m, status("Overlay permission granted", false)
		}
		return m, status("Overlay permission revoked", false)

	case key.Matches(msg, m.keys.CancelTouch):
		if m.pressing {
			m.pressing = false
			m.host.Cancel()
			return m, m.refresh
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyJSON):
		return m, m.copyWidgets(false)

	case key.Matches(msg, m.keys.CopyYAML):
		return m, m.copyWidgets(true)
	}
	return m, nil
}

func (m Model) showWidget() tea.Msg {
	id, err := m.eng.ShowWidget(m.ctx)
	if err != nil {
		if m.perm.Requests() > 0 && !m.perm.CanDrawOverlay() {
			return statusMsg{text: err.Error() + " (press p to grant)", isErr: true}
		}
		return statusMsg{text: err.Error(), isErr: true}
	}
	return statusMsg{text: "Created widget " + id.Short()}
}

func (m Model) hideTop() tea.Msg {
	removed, err := m.eng.HideTopWidget(m.ctx)
	switch {
	case err != nil:
		return statusMsg{text: err.Error(), isErr: true}
	case !removed:
		return statusMsg{text: "No widget to hide"}
	default:
		return statusMsg{text: "Removed top widget"}
	}
}

func (m Model) hideAll() tea.Msg {
	n, err := m.eng.HideAllWidgets(m.ctx)
	if err != nil {
		return statusMsg{text: err.Error(), isErr: true}
	}
	return statusMsg{text: fmt.Sprintf("Removed %d widget(s)", n)}
}

func (m Model) copyWidgets(asYAML bool) tea.Cmd {
	widgets := m.widgets
	if widgets == nil {
		widgets = []model.Snapshot{}
	}
	return func() tea.Msg {
		var (
			data []byte
			err  error
		)
		if asYAML {
			data, err = yaml.Marshal(widgets)
		} else {
			data, err = json.MarshalIndent(widgets, "", "  ")
		}
		if err != nil {
			return statusMsg{text: "Failed to encode widgets: " + err.Error(), isErr: true}
		}
		if err := copyText(string(data)); err != nil {
			return statusMsg{text: "Copy failed: " + err.Error(), isErr: true}
		}
		return statusMsg{text: "Copied to clipboard"}
	}
}

func (m Model) canvas() Canvas {
	return Canvas{
		Cols:        m.width,
		Rows:        max(m.height-headerHeight-m.footerHeight(), 0),
		Screen:      m.host.Screen(),
		LockedGlyph: m.cfg.Widget.LockedGlyph,
	}
}

func (m Model) footerHeight() int {
	if m.showHelp {
		return 1 + len(m.keys.FullHelp())
	}
	return 2
}

// handleMouse converts left-button mouse input into touches on the
// virtual screen.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	c := m.canvas()
	col, row := msg.X, msg.Y-headerHeight
	p := c.ToScreen(col, row)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !c.Contains(col, row) {
			return m, nil
		}
		m.pressing = true
		m.host.Press(p)
	case tea.MouseActionMotion:
		if !m.pressing {
			return m, nil
		}
		m.host.Drag(p)
	case tea.MouseActionRelease:
		if !m.pressing {
			return m, nil
		}
		m.pressing = false
		m.host.Release(p)
	default:
		return m, nil
	}
	return m, m.refresh
}

// View renders the simulator.
func (m Model) View() string {
	if m.width == 0 {
		return "starting simulator..."
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")

	c := m.canvas()
	if c.Rows > 0 {
		sb.WriteString(c.Render(m.views))
		sb.WriteString("\n")
	}

	switch {
	case m.statusErr:
		sb.WriteString(errorStyle.Render(m.statusMsg))
	case m.statusMsg != "":
		sb.WriteString(statusStyle.Render(m.statusMsg))
	}
	sb.WriteString("\n")

	if m.showHelp {
		sb.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		sb.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return sb.String()
}

func (m Model) renderHeader() string {
	locked := 0
	for _, w := range m.widgets {
		if w.Locked {
			locked++
		}
	}
	perm := "granted"
	if !m.perm.CanDrawOverlay() {
		perm = "denied"
	}
	screen := m.host.Screen()
	info := fmt.Sprintf("  widgets %d  locked %d  active %t  permission %s  screen %.0fx%.0f",
		len(m.widgets), locked, m.active, perm, screen.Width, screen.Height)
	return titleStyle.Render("perch simulator") + mutedStyle.Render(info)
}
