package tui

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/flowgraph/internal/chat"
	"github.com/ziadkadry99/flowgraph/internal/graph"
	"github.com/ziadkadry99/flowgraph/internal/widget"
)

type stubBackend struct {
	inputs  []string
	repairs []bool
	clears  int
	resp    *chat.GenerateResponse
	err     error
	history []chat.Entry
}

func (s *stubBackend) Generate(_ context.Context, input string, repair bool) (*chat.GenerateResponse, error) {
	s.inputs = append(s.inputs, input)
	s.repairs = append(s.repairs, repair)
	return s.resp, s.err
}

func (s *stubBackend) ClearSession(context.Context) (*chat.ClearResponse, error) {
	s.clears++
	return &chat.ClearResponse{Status: chat.StatusSuccess}, nil
}

func (s *stubBackend) History(context.Context) ([]chat.Entry, error) {
	return s.history, nil
}

func testPNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 32))))
	return graph.EncodeImage(buf.Bytes())
}

func newTestModel(t *testing.T, b *stubBackend) *Model {
	t.Helper()
	ctrl := widget.NewController(b, nil)
	m := New(b, ctrl, Options{ImagePath: filepath.Join(t.TempDir(), "graph.png"), Style: "notty", History: b})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// run executes cmd and every command it batches, returning the messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// feed delivers the messages of our own types back into the model.
func feed(m *Model, msgs []tea.Msg) {
	for _, msg := range msgs {
		switch msg.(type) {
		case generateDoneMsg, clearDoneMsg, historyMsg, savedMsg:
			m.Update(msg)
		}
	}
}

func typeText(m *Model, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestInitLoadsHistory(t *testing.T) {
	b := &stubBackend{history: []chat.Entry{
		{Type: chat.RoleAssistant, Content: "• hello"},
		{Type: chat.RoleUser, Content: "earlier"},
	}}
	m := newTestModel(t, b)

	feed(m, run(m.Init()))
	msgs := m.Controller().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "earlier", msgs[1].Content)
}

func TestLateHistoryKeepsLiveTranscript(t *testing.T) {
	b := &stubBackend{
		resp: &chat.GenerateResponse{
			ChatHistory: []chat.Entry{{Type: chat.RoleAssistant, Content: "• fresh answer"}},
		},
		history: []chat.Entry{{Type: chat.RoleUser, Content: "stale"}},
	}
	m := newTestModel(t, b)
	startup := m.Init()

	typeText(m, "order flow")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	// History lands while the generation is in flight, then again after it.
	m.Update(historyMsg{entries: b.history})
	feed(m, run(cmd))
	feed(m, run(startup))

	msgs := m.Controller().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "order flow", msgs[1].Content)
	assert.Equal(t, "• fresh answer", msgs[2].Content)
}

func TestEnterGeneratesAsync(t *testing.T) {
	b := &stubBackend{resp: &chat.GenerateResponse{
		ChatHistory: []chat.Entry{{Type: chat.RoleAssistant, Content: "• Flow explained"}},
		CFGImage:    testPNG(t),
		Metrics:     &chat.Metrics{Nodes: 2, Edges: 1, Cyclomatic: 1},
	}}
	m := newTestModel(t, b)

	typeText(m, "order flow")
	assert.Equal(t, "order flow", m.Controller().Input())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.Controller().Loading())
	assert.False(t, m.Controller().SendEnabled())
	assert.Contains(t, m.View(), widget.LabelSending)
	assert.Empty(t, b.inputs, "network call runs in a command")

	feed(m, run(cmd))
	assert.Equal(t, []string{"order flow"}, b.inputs)
	assert.False(t, m.Controller().Loading())
	assert.Empty(t, m.input.Value())

	view := m.View()
	assert.Contains(t, view, "Flow explained")
	assert.Contains(t, view, "64×32 px")
	assert.Contains(t, view, "100%")
}

func TestEnterOnBlankInput(t *testing.T) {
	b := &stubBackend{}
	m := newTestModel(t, b)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	feed(m, run(cmd))
	assert.Empty(t, b.inputs)
	assert.False(t, m.Controller().Loading())
}

func TestGenerateErrorShown(t *testing.T) {
	b := &stubBackend{err: errors.New("server unreachable")}
	m := newTestModel(t, b)

	typeText(m, "x")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	feed(m, run(cmd))

	msgs := m.Controller().Messages()
	assert.Equal(t, "• Error: server unreachable", msgs[len(msgs)-1].Content)
	assert.Contains(t, m.View(), "server unreachable")
}

func TestRepairToggle(t *testing.T) {
	b := &stubBackend{resp: &chat.GenerateResponse{}}
	m := newTestModel(t, b)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, widget.PlaceholderRepair, m.input.Placeholder)
	assert.Contains(t, m.View(), "REFINE")

	typeText(m, "tighten")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	feed(m, run(cmd))
	assert.Equal(t, []bool{true}, b.repairs)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, widget.PlaceholderDescribe, m.input.Placeholder)
}

func TestZoomKeysAndWheel(t *testing.T) {
	m := newTestModel(t, &stubBackend{})
	zoom := m.Controller().Viewer().Zoom()

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("="), Alt: true})
	assert.Equal(t, 110, zoom.Percent())
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-"), Alt: true})
	assert.Equal(t, 100, zoom.Percent())
	assert.Empty(t, m.input.Value(), "shortcuts do not reach the input")

	m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress, Ctrl: true})
	assert.Equal(t, 110, zoom.Percent())
	m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress, Ctrl: true})
	m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress, Ctrl: true})
	assert.Equal(t, 90, zoom.Percent())

	m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	assert.Equal(t, 90, zoom.Percent(), "plain wheel scrolls the transcript")
}

func TestClearResets(t *testing.T) {
	b := &stubBackend{resp: &chat.GenerateResponse{
		ChatHistory: []chat.Entry{{Type: chat.RoleAssistant, Content: "• done"}},
		Metrics:     &chat.Metrics{Nodes: 1, Edges: 1, Cyclomatic: 2},
	}}
	m := newTestModel(t, b)
	typeText(m, "x")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	feed(m, run(cmd))
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	feed(m, run(cmd))

	assert.Equal(t, 1, b.clears)
	require.Len(t, m.Controller().Messages(), 1)
	assert.False(t, m.Controller().Repair())
	assert.Equal(t, widget.PlaceholderDescribe, m.input.Placeholder)
	nodes, _, _ := m.Controller().MetricsDisplay()
	assert.Equal(t, "-", nodes)
	assert.Contains(t, m.View(), "Nodes")
}

func TestSaveImage(t *testing.T) {
	b := &stubBackend{resp: &chat.GenerateResponse{CFGImage: testPNG(t)}}
	m := newTestModel(t, b)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	feed(m, run(cmd))
	assert.Contains(t, m.status, "no graph to save")

	typeText(m, "x")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	feed(m, run(cmd))

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	feed(m, run(cmd))
	assert.True(t, strings.HasPrefix(m.status, "saved "))

	data, err := os.ReadFile(m.opts.ImagePath)
	require.NoError(t, err)
	want, _ := graph.DecodeImage(testPNG(t))
	assert.Equal(t, want, data)
}

func TestQuitKeys(t *testing.T) {
	m := newTestModel(t, &stubBackend{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
