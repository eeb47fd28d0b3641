// Package generator turns a process description into a rendered control
// flow graph, keeping the conversation in the session store.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/flowgraph/internal/chat"
	"github.com/ziadkadry99/flowgraph/internal/graph"
	"github.com/ziadkadry99/flowgraph/internal/llm"
)

// User-facing failure texts.
const (
	MsgEmptyInput    = "Please provide a process description"
	MsgInvalidGraph  = "Could not generate valid graph structure. Please try rephrasing your description."
	MsgRenderFailed  = "Error generating graph visualization"
	MsgUnexpected    = "An unexpected error occurred. Please try again."
	MsgNoLLMProvider = "LLM provider not configured"
)

var (
	// ErrEmptyInput is returned for blank descriptions.
	ErrEmptyInput = errors.New(MsgEmptyInput)
	// ErrNoProvider is returned when the engine has no LLM.
	ErrNoProvider = errors.New(MsgNoLLMProvider)
)

// HistoryStore is the part of the session store the engine needs.
type HistoryStore interface {
	History(ctx context.Context, id string) ([]chat.Entry, error)
	Append(ctx context.Context, id string, entries ...chat.Entry) error
}

// Options tunes the completion request.
type Options struct {
	Model         string
	Temperature   float64
	MaxTokens     int
	HistoryWindow int
}

// Engine runs the describe → prompt → extract → render → measure pipeline.
type Engine struct {
	store    HistoryStore
	provider llm.Provider
	renderer graph.Renderer
	opts     Options
	logger   *zap.Logger
}

// NewEngine creates a new generator engine.
func NewEngine(store HistoryStore, provider llm.Provider, renderer graph.Renderer, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1000
	}
	return &Engine{
		store:    store,
		provider: provider,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}
}

// Result is the outcome of one generate call. A non-empty UserError means
// the pipeline stopped early with a message meant for the chat transcript;
// History is still filled so the client can redraw.
type Result struct {
	History   []chat.Entry
	Image     string
	Metrics   chat.Metrics
	UserError string
}

// Response converts the result into the /generate JSON body.
func (r *Result) Response() chat.GenerateResponse {
	if r.UserError != "" {
		return chat.GenerateResponse{Error: r.UserError, ChatHistory: r.History}
	}
	m := r.Metrics
	return chat.GenerateResponse{
		ChatHistory: r.History,
		CFGImage:    r.Image,
		Metrics:     &m,
	}
}

// Generate produces a graph for input within the given session. Returned
// errors are infrastructure failures; model and rendering problems come
// back as Result.UserError.
func (e *Engine) Generate(ctx context.Context, sessionID, input string, repair bool) (*Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	if e.provider == nil {
		return nil, ErrNoProvider
	}

	history, err := e.store.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}

	log := e.logger.With(zap.String("session", sessionID), zap.Bool("repair", repair))

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model:       e.opts.Model,
		Messages:    e.buildMessages(history, input, repair),
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM completion: %w", err)
	}
	log.Debug("completion received",
		zap.String("model", resp.Model),
		zap.Int("input_tokens", resp.InputTokens),
		zap.Int("output_tokens", resp.OutputTokens),
		zap.Int("total_tokens", resp.TotalTokens()),
		zap.Float64("cost_usd", llm.EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens)),
	)

	answer := strings.TrimSpace(resp.Content)
	code, err := graph.Extract(answer)
	if err != nil {
		log.Warn("no usable DOT in completion", zap.Error(err))
		return &Result{History: history, UserError: MsgInvalidGraph}, nil
	}

	png, err := e.renderer.Render(ctx, code)
	if err != nil {
		log.Error("graph image generation failed", zap.Error(err))
		return &Result{History: history, UserError: MsgRenderFailed}, nil
	}

	metrics, err := graph.ComputeMetrics(code)
	if err != nil {
		log.Error("calculating metrics", zap.Error(err))
		metrics = chat.Metrics{}
	}

	added := []chat.Entry{
		{Type: chat.RoleUser, Content: input},
		{Type: chat.RoleAssistant, Content: FormatResponse(graph.Explanation(answer))},
	}
	if err := e.store.Append(ctx, sessionID, added...); err != nil {
		return nil, fmt.Errorf("saving chat history: %w", err)
	}

	log.Info("graph generated",
		zap.Int("nodes", metrics.Nodes),
		zap.Int("edges", metrics.Edges),
		zap.Int("cyclomatic", metrics.Cyclomatic),
	)

	return &Result{
		History: append(history, added...),
		Image:   graph.EncodeImage(png),
		Metrics: metrics,
	}, nil
}

// buildMessages assembles the system prompt, the recent history window and
// the current request.
func (e *Engine) buildMessages(history []chat.Entry, input string, repair bool) []llm.Message {
	msgs := []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}}

	recent := history
	if w := e.opts.HistoryWindow; len(recent) > w {
		recent = recent[len(recent)-w:]
	}
	for _, h := range recent {
		role := llm.RoleAssistant
		if h.Type == chat.RoleUser {
			role = llm.RoleUser
		}
		msgs = append(msgs, llm.Message{Role: role, Content: h.Content})
	}

	return append(msgs, llm.Message{Role: llm.RoleUser, Content: buildPrompt(input, repair)})
}
