// Package tui is the terminal front end of the graph chat. It draws the
// widget view model and feeds terminal events through its dispatch table.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ziadkadry99/flowgraph/internal/chat"
	"github.com/ziadkadry99/flowgraph/internal/widget"
)

// HistoryLoader fetches the server-side transcript at start-up.
type HistoryLoader interface {
	History(ctx context.Context) ([]chat.Entry, error)
}

// Options configures the terminal UI.
type Options struct {
	// ImagePath is where ctrl+s writes the current graph.
	ImagePath string
	// Style is a glamour style name, "auto" picks by terminal background.
	Style string
	// History, when set, seeds the transcript on start.
	History HistoryLoader
}

type generateDoneMsg struct {
	req  widget.Request
	resp *chat.GenerateResponse
	err  error
}

type clearDoneMsg struct {
	resp *chat.ClearResponse
	err  error
}

type historyMsg struct {
	entries []chat.Entry
	err     error
}

type savedMsg struct {
	path string
	err  error
}

// Model is the bubbletea model wrapping a widget.Controller.
type Model struct {
	ctrl    *widget.Controller
	disp    *widget.Dispatcher
	backend widget.Backend
	opts    Options

	input    textinput.Model
	vp       viewport.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	width  int
	height int
	status string

	// commands queued by dispatch handlers during one Update
	pending []tea.Cmd
}

// New creates the TUI model. Sending and clearing run as tea commands so
// the event loop never blocks on the network.
func New(backend widget.Backend, ctrl *widget.Controller, opts Options) *Model {
	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = ctrl.Placeholder()
	in.CharLimit = 0
	in.Width = 60
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle

	vp := viewport.New(80, 16)

	m := &Model{
		ctrl:     ctrl,
		backend:  backend,
		opts:     opts,
		input:    in,
		vp:       vp,
		spin:     sp,
		renderer: newRenderer(opts.Style, 78),
	}

	m.disp = widget.NewDispatcher(ctrl)
	send := func(context.Context, widget.Event) bool {
		req, ok := ctrl.BeginGenerate()
		if ok {
			m.pending = append(m.pending, m.generateCmd(req), m.spin.Tick)
		}
		return ok
	}
	m.disp.Handle(widget.ControlSend, widget.EventClick, send)
	m.disp.Handle(widget.ControlInput, widget.EventKeyDown, func(ctx context.Context, ev widget.Event) bool {
		if ev.Key != "Enter" || ev.Shift {
			return false
		}
		return send(ctx, ev)
	})
	m.disp.Handle(widget.ControlClear, widget.EventClick, func(context.Context, widget.Event) bool {
		m.pending = append(m.pending, m.clearCmd())
		return true
	})

	m.refresh()
	return m
}

func newRenderer(style string, width int) *glamour.TermRenderer {
	styleOpt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil
	}
	return r
}

// Controller returns the wrapped view model.
func (m *Model) Controller() *widget.Controller { return m.ctrl }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.opts.History != nil {
		loader := m.opts.History
		cmds = append(cmds, func() tea.Msg {
			entries, err := loader.History(context.Background())
			return historyMsg{entries: entries, err: err}
		})
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if cmd, done := m.handleKey(msg); done {
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.ctrl.SetInput(m.input.Value())
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		if m.handleMouse(msg) {
			break
		}
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		cmds = append(cmds, cmd)

	case generateDoneMsg:
		m.ctrl.CompleteGenerate(msg.req, msg.resp, msg.err)
		m.input.SetValue(m.ctrl.Input())

	case clearDoneMsg:
		if m.ctrl.CompleteClear(msg.resp, msg.err) {
			m.input.SetValue(m.ctrl.Input())
			m.status = ""
			cmds = append(cmds, m.input.Focus())
		}

	case historyMsg:
		// Arriving late must not wipe a conversation already under way.
		if msg.err == nil && m.ctrl.Pristine() {
			m.ctrl.LoadHistory(msg.entries)
		}

	case savedMsg:
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
		} else {
			m.status = "saved " + msg.path
		}

	case spinner.TickMsg:
		if m.ctrl.Loading() {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, m.flush())
	m.refresh()
	return m, tea.Batch(cmds...)
}

// handleKey maps terminal keys onto widget events. done reports that the
// key was consumed and must not reach the text input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	ctx := context.Background()
	switch msg.String() {
	case "ctrl+c", "esc":
		return tea.Quit, true
	case "enter":
		m.ctrl.SetInput(m.input.Value())
		m.disp.Dispatch(ctx, widget.Event{Control: widget.ControlInput, Kind: widget.EventKeyDown, Key: "Enter"})
	case "ctrl+r":
		m.disp.Dispatch(ctx, widget.Event{Control: widget.ControlRepair, Kind: widget.EventClick})
	case "ctrl+l":
		m.disp.Dispatch(ctx, widget.Event{Control: widget.ControlClear, Kind: widget.EventClick})
	case "ctrl+s":
		m.pending = append(m.pending, m.saveCmd())
	case "alt+=", "alt++", "alt+-":
		key := strings.TrimPrefix(msg.String(), "alt+")
		m.disp.Dispatch(ctx, widget.Event{Control: widget.ControlDocument, Kind: widget.EventKeyDown, Key: key, Meta: true})
	case "pgup", "pgdown":
		m.vp, _ = m.vp.Update(msg)
	default:
		return nil, false
	}
	m.refresh()
	return tea.Batch(m.flush()), true
}

// handleMouse turns ctrl+wheel into viewer zoom events.
func (m *Model) handleMouse(msg tea.MouseMsg) bool {
	var dy float64
	switch msg.Button {
	case tea.MouseButtonWheelDown:
		dy = 1
	case tea.MouseButtonWheelUp:
		dy = -1
	default:
		return false
	}
	return m.disp.Dispatch(context.Background(), widget.Event{
		Control: widget.ControlViewer,
		Kind:    widget.EventWheel,
		Ctrl:    msg.Ctrl,
		Meta:    msg.Alt,
		DeltaY:  dy,
	})
}

func (m *Model) flush() tea.Cmd {
	if len(m.pending) == 0 {
		return nil
	}
	cmds := m.pending
	m.pending = nil
	return tea.Batch(cmds...)
}

func (m *Model) generateCmd(req widget.Request) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		resp, err := backend.Generate(context.Background(), req.Input, req.Repair)
		return generateDoneMsg{req: req, resp: resp, err: err}
	}
}

func (m *Model) clearCmd() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		resp, err := backend.ClearSession(context.Background())
		return clearDoneMsg{resp: resp, err: err}
	}
}

func (m *Model) saveCmd() tea.Cmd {
	img := m.ctrl.Viewer().Image()
	path := m.opts.ImagePath
	return func() tea.Msg {
		if len(img) == 0 {
			return savedMsg{err: fmt.Errorf("no graph to save")}
		}
		if err := os.WriteFile(path, img, 0o644); err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{path: path}
	}
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.input.Width = max(w-4, 10)
	m.vp.Width = w
	// title, image panel (3), metrics, input, help
	m.vp.Height = max(h-9, 3)
	m.renderer = newRenderer(m.opts.Style, max(w-2, 20))
}

// refresh copies controller state into the bubbles components.
func (m *Model) refresh() {
	m.input.Placeholder = m.ctrl.Placeholder()
	m.vp.SetContent(m.renderTranscript())
	m.vp.GotoBottom()
}

func (m *Model) renderTranscript() string {
	var b strings.Builder
	for _, msg := range m.ctrl.Messages() {
		if msg.Role == chat.RoleUser {
			b.WriteString(userStyle.Render("You: ") + msg.Content + "\n\n")
			continue
		}
		b.WriteString(m.renderAssistant(msg))
		b.WriteString("\n")
	}
	return b.String()
}

// renderAssistant converts the bullet layout to markdown lists and runs it
// through glamour.
func (m *Model) renderAssistant(msg widget.Message) string {
	var md strings.Builder
	for _, l := range msg.Fragment() {
		text := strings.TrimSpace(l.Text)
		switch l.Kind {
		case widget.LineBullet:
			md.WriteString("- " + strings.TrimSpace(strings.TrimPrefix(text, "•")) + "\n")
		case widget.LineSubBullet:
			md.WriteString("    - " + strings.TrimSpace(strings.TrimPrefix(text, "-")) + "\n")
		default:
			md.WriteString(text + "\n\n")
		}
	}
	if m.renderer != nil {
		if out, err := m.renderer.Render(md.String()); err == nil {
			return out
		}
	}
	return msg.Content + "\n"
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	header := titleStyle.Render("Control Flow Graph Generator")
	if m.ctrl.RepairActive() {
		header += " " + repairStyle.Render("REFINE")
	}
	b.WriteString(header + "\n")
	b.WriteString(m.vp.View() + "\n")
	b.WriteString(m.imagePanel() + "\n")
	b.WriteString(m.metricsBar() + "\n")

	prefix := ""
	if m.ctrl.Loading() {
		prefix = m.spin.View() + " " + m.ctrl.SendLabel() + " "
	}
	b.WriteString(prefix + m.input.View() + "\n")

	help := "enter send · ctrl+r refine · ctrl+l clear · alt+=/alt+- or ctrl+wheel zoom · ctrl+s save · esc quit"
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "  ")
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func (m *Model) imagePanel() string {
	v := m.ctrl.Viewer()
	zoom := v.Zoom()

	out := disabledStyle.Render("[-]")
	if zoom.CanZoomOut() {
		out = enabledStyle.Render("[-]")
	}
	in := disabledStyle.Render("[+]")
	if zoom.CanZoomIn() {
		in = enabledStyle.Render("[+]")
	}

	desc := "no graph yet"
	if v.HasImage() {
		if w, h, err := v.ScaledSize(); err == nil {
			desc = fmt.Sprintf("graph %d×%d px", w, h)
		} else {
			desc = "graph (unreadable image)"
		}
	}
	return panelStyle.Render(lipgloss.JoinHorizontal(lipgloss.Center,
		labelStyle.Render(desc), "  ", out, " ", valueStyle.Render(zoom.String()), " ", in))
}

func (m *Model) metricsBar() string {
	nodes, edges, cyclomatic := m.ctrl.MetricsDisplay()
	item := func(label, value string) string {
		return labelStyle.Render(label+": ") + valueStyle.Render(value)
	}
	return strings.Join([]string{
		item("Nodes", nodes),
		item("Edges", edges),
		item("Cyclomatic", cyclomatic),
	}, "   ")
}

// Run starts the program on the alternate screen with mouse reporting.
func Run(m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
