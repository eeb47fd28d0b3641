package widget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/flowgraph/internal/chat"
	"github.com/ziadkadry99/flowgraph/internal/graph"
)

// Send control labels and input placeholders.
const (
	LabelSend           = "Generate"
	LabelSending        = "Generating..."
	PlaceholderDescribe = "Describe your process..."
	PlaceholderRepair   = "Describe how to improve the current graph..."
	MetricPlaceholder   = "-"
)

var errEmptyResponse = errors.New("empty response from server")

// Backend performs the two network calls the widget makes.
// *client.Client satisfies it.
type Backend interface {
	Generate(ctx context.Context, input string, repair bool) (*chat.GenerateResponse, error)
	ClearSession(ctx context.Context) (*chat.ClearResponse, error)
}

// Request is an in-flight generate call started by BeginGenerate.
type Request struct {
	Input  string
	Repair bool
}

// Controller is the chat widget's state. It is not safe for concurrent use;
// callers mutate it from a single event loop and run network calls through
// the Begin/Complete pairs.
type Controller struct {
	backend Backend
	logger  *zap.Logger

	messages []Message
	input    string

	repair       bool
	repairActive bool
	placeholder  string

	loading     bool
	sendEnabled bool
	sendLabel   string
	focused     bool

	viewer  Viewer
	metrics *chat.Metrics
}

// NewController creates a controller showing the welcome message.
func NewController(backend Backend, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{backend: backend, logger: logger}
	c.reset()
	c.sendEnabled = true
	c.sendLabel = LabelSend
	return c
}

// reset puts the transcript, input, viewer image, metrics and repair mode
// back to their initial state.
func (c *Controller) reset() {
	c.messages = []Message{{Role: chat.RoleAssistant, Content: chat.WelcomeMessage}}
	c.viewer.Clear()
	c.input = ""
	c.metrics = nil
	c.repair = false
	c.repairActive = false
	c.placeholder = PlaceholderDescribe
	c.focused = true
}

// LoadHistory replaces the transcript with a server-side history.
func (c *Controller) LoadHistory(entries []chat.Entry) {
	if len(entries) == 0 {
		return
	}
	c.messages = c.messages[:0]
	for _, e := range entries {
		c.messages = append(c.messages, Message{Role: e.Type, Content: e.Content})
	}
}

// Pristine reports that the transcript holds only the welcome message and
// no generation is in flight, so a history load would not lose anything.
func (c *Controller) Pristine() bool {
	return !c.loading && len(c.messages) == 1 &&
		c.messages[0].Role == chat.RoleAssistant && c.messages[0].Content == chat.WelcomeMessage
}

// Messages returns a copy of the transcript.
func (c *Controller) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Controller) Input() string { return c.input }
func (c *Controller) SetInput(s string) { c.input = s }
func (c *Controller) Repair() bool { return c.repair }
func (c *Controller) RepairActive() bool { return c.repairActive }
func (c *Controller) Placeholder() string { return c.placeholder }
func (c *Controller) Loading() bool { return c.loading }
func (c *Controller) SendEnabled() bool { return c.sendEnabled }
func (c *Controller) SendLabel() string { return c.sendLabel }
func (c *Controller) Focused() bool { return c.focused }
func (c *Controller) Focus() { c.focused = true }
func (c *Controller) Blur() { c.focused = false }
func (c *Controller) Viewer() *Viewer { return &c.viewer }
func (c *Controller) Metrics() *chat.Metrics { return c.metrics }

// MetricsDisplay returns the nodes, edges and cyclomatic complexity as
// shown in the metrics bar, "-" for each when there are none.
func (c *Controller) MetricsDisplay() (nodes, edges, cyclomatic string) {
	if c.metrics == nil {
		return MetricPlaceholder, MetricPlaceholder, MetricPlaceholder
	}
	return strconv.Itoa(c.metrics.Nodes), strconv.Itoa(c.metrics.Edges), strconv.Itoa(c.metrics.Cyclomatic)
}

// ToggleRepair flips repair mode and swaps the input placeholder.
func (c *Controller) ToggleRepair() {
	c.repair = !c.repair
	c.repairActive = !c.repairActive
	if c.repairActive {
		c.placeholder = PlaceholderRepair
	} else {
		c.placeholder = PlaceholderDescribe
	}
}

// BeginGenerate starts a generate call for the current input. It returns
// false, changing nothing, when the input is blank. Otherwise the send
// control is disabled and relabelled and loading is shown until
// CompleteGenerate runs.
func (c *Controller) BeginGenerate() (Request, bool) {
	input := strings.TrimSpace(c.input)
	if input == "" {
		return Request{}, false
	}
	c.sendEnabled = false
	c.loading = true
	c.sendLabel = LabelSending
	return Request{Input: input, Repair: c.repair}, true
}

// CompleteGenerate applies the outcome of a generate call. The user's text
// is appended as soon as a response was decoded, before the response is
// checked for an error; a transport failure appends only the error.
func (c *Controller) CompleteGenerate(req Request, resp *chat.GenerateResponse, err error) {
	defer func() {
		c.loading = false
		c.sendEnabled = true
		c.sendLabel = LabelSend
	}()

	if err == nil && resp == nil {
		err = errEmptyResponse
	}
	if err != nil {
		c.logger.Warn("generate failed", zap.Error(err))
		c.appendError(err.Error())
		return
	}

	c.append(chat.RoleUser, req.Input)

	if resp.Error != "" {
		c.appendError(resp.Error)
		return
	}

	if last, ok := resp.LastAssistant(); ok {
		c.append(chat.RoleAssistant, last.Content)
	}
	if resp.CFGImage != "" {
		img, err := graph.DecodeImage(resp.CFGImage)
		if err != nil {
			c.logger.Warn("bad graph image", zap.Error(err))
			c.appendError(fmt.Sprintf("invalid image data: %v", err))
			return
		}
		c.viewer.RenderImage(img)
	}
	if resp.Metrics != nil {
		m := *resp.Metrics
		c.metrics = &m
	}
	c.input = ""
}

// Generate runs a whole generate call synchronously.
func (c *Controller) Generate(ctx context.Context) {
	req, ok := c.BeginGenerate()
	if !ok {
		return
	}
	resp, err := c.backend.Generate(ctx, req.Input, req.Repair)
	c.CompleteGenerate(req, resp, err)
}

// CompleteClear applies the outcome of a clear call. Only a "success"
// status resets the widget; anything else is logged and ignored. It
// reports whether the widget was reset.
func (c *Controller) CompleteClear(resp *chat.ClearResponse, err error) bool {
	switch {
	case err != nil:
		c.logger.Warn("clear session failed", zap.Error(err))
		return false
	case resp == nil || resp.Status != chat.StatusSuccess:
		status := ""
		if resp != nil {
			status = resp.Status
		}
		c.logger.Warn("clear session rejected", zap.String("status", status))
		return false
	}
	c.reset()
	return true
}

// Clear resets the server session and, on success, the widget.
func (c *Controller) Clear(ctx context.Context) bool {
	resp, err := c.backend.ClearSession(ctx)
	return c.CompleteClear(resp, err)
}

func (c *Controller) append(role chat.Role, content string) {
	c.messages = append(c.messages, Message{Role: role, Content: content})
}

func (c *Controller) appendError(text string) {
	c.append(chat.RoleAssistant, "• Error: "+text)
}
