package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/flowgraph/internal/chat"
	"github.com/ziadkadry99/flowgraph/internal/db"
	"github.com/ziadkadry99/flowgraph/internal/graph"
	"github.com/ziadkadry99/flowgraph/internal/llm"
	"github.com/ziadkadry99/flowgraph/internal/session"
)

type fakeProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	request llm.CompletionRequest
	calls   int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.request = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply, Model: "gpt-3.5-turbo", InputTokens: 120, OutputTokens: 80}, nil
}

type fakeRenderer struct {
	err  error
	code string
}

func (f *fakeRenderer) Render(_ context.Context, code string) ([]byte, error) {
	f.code = code
	if f.err != nil {
		return nil, f.err
	}
	return []byte("PNG"), nil
}

const loginReply = `The login flow:
- user submits credentials
• credentials are checked

Complete DOT Graph Code:
` + "```dot" + `
digraph G {
    Start -> Submit;
    Submit -> Check;
    Check -> Home [label="valid"];
    Check -> Submit [label="invalid"];
}
` + "```"

func setup(t *testing.T, p *fakeProvider, r *fakeRenderer) (*Engine, *session.Store, string) {
	t.Helper()
	d, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	store := session.NewStore(d)
	id, err := store.Create(context.Background())
	require.NoError(t, err)

	e := NewEngine(store, p, r, Options{Model: "gpt-3.5-turbo", Temperature: 0.1, HistoryWindow: 5}, nil)
	return e, store, id
}

func TestGenerateSuccess(t *testing.T) {
	p := &fakeProvider{reply: loginReply}
	r := &fakeRenderer{}
	e, store, id := setup(t, p, r)
	ctx := context.Background()

	res, err := e.Generate(ctx, id, "  user login  ", false)
	require.NoError(t, err)
	require.Empty(t, res.UserError)

	assert.Equal(t, graph.EncodeImage([]byte("PNG")), res.Image)
	assert.Equal(t, chat.Metrics{Nodes: 4, Edges: 4, Cyclomatic: 2}, res.Metrics)
	assert.True(t, strings.HasPrefix(r.code, "digraph G {"))

	require.Len(t, res.History, 3)
	assert.Equal(t, chat.Entry{Type: chat.RoleUser, Content: "user login"}, res.History[1])
	assert.Equal(t, "• The login flow:\n  - user submits credentials\n• credentials are checked", res.History[2].Content)

	stored, err := store.History(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, res.History, stored)

	resp := res.Response()
	require.NotNil(t, resp.Metrics)
	assert.Equal(t, 4, resp.Metrics.Nodes)
	assert.Empty(t, resp.Error)
}

func TestGenerateRequestShape(t *testing.T) {
	p := &fakeProvider{reply: loginReply}
	e, store, id := setup(t, p, &fakeRenderer{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, id,
			chat.Entry{Type: chat.RoleUser, Content: "u"},
			chat.Entry{Type: chat.RoleAssistant, Content: "a"},
		))
	}

	_, err := e.Generate(ctx, id, "checkout", true)
	require.NoError(t, err)

	req := p.request
	assert.Equal(t, 1000, req.MaxTokens)
	assert.InDelta(t, 0.1, req.Temperature, 1e-9)
	// system + 5 history entries + prompt
	require.Len(t, req.Messages, 7)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, llm.RoleAssistant, req.Messages[1].Role)
	assert.Equal(t, llm.RoleUser, req.Messages[2].Role)
	last := req.Messages[6]
	assert.Equal(t, llm.RoleUser, last.Role)
	assert.True(t, strings.HasPrefix(last.Content, "Improve the existing graph for: checkout"))
}

func TestGenerateNewGraphPrompt(t *testing.T) {
	p := &fakeProvider{reply: loginReply}
	e, _, id := setup(t, p, &fakeRenderer{})

	_, err := e.Generate(context.Background(), id, "checkout", false)
	require.NoError(t, err)
	// welcome entry only
	require.Len(t, p.request.Messages, 3)
	assert.True(t, strings.HasPrefix(p.request.Messages[2].Content, "Create a control flow graph for: checkout"))
}

func TestGenerateEmptyInput(t *testing.T) {
	p := &fakeProvider{reply: loginReply}
	e, _, id := setup(t, p, &fakeRenderer{})

	_, err := e.Generate(context.Background(), id, "   ", false)
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Zero(t, p.calls)
}

func TestGenerateNoProvider(t *testing.T) {
	e, _, id := setup(t, &fakeProvider{}, &fakeRenderer{})
	e.provider = nil

	_, err := e.Generate(context.Background(), id, "x", false)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestGenerateUserErrors(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		render error
		want   string
	}{
		{"no dot", "I cannot draw that.", nil, MsgInvalidGraph},
		{"broken dot", "digraph G { a -> -> b }", nil, MsgInvalidGraph},
		{"render fails", loginReply, errors.New("dot exploded"), MsgRenderFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, store, id := setup(t, &fakeProvider{reply: tt.reply}, &fakeRenderer{err: tt.render})
			ctx := context.Background()

			res, err := e.Generate(ctx, id, "anything", false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.UserError)
			assert.Empty(t, res.Image)

			resp := res.Response()
			assert.Equal(t, tt.want, resp.Error)
			assert.Nil(t, resp.Metrics)
			assert.Len(t, resp.ChatHistory, 1)

			// Failed attempts leave the transcript untouched.
			stored, err := store.History(ctx, id)
			require.NoError(t, err)
			assert.Len(t, stored, 1)
		})
	}
}

func TestGenerateProviderError(t *testing.T) {
	e, _, id := setup(t, &fakeProvider{err: errors.New("quota")}, &fakeRenderer{})

	_, err := e.Generate(context.Background(), id, "x", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
}

func TestGenerateUnknownSession(t *testing.T) {
	e, _, _ := setup(t, &fakeProvider{reply: loginReply}, &fakeRenderer{})

	_, err := e.Generate(context.Background(), "missing", "x", false)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestFormatResponse(t *testing.T) {
	in := strings.Join([]string{
		"Overview",
		"",
		"• already bulleted",
		"   - nested detail",
		"Complete DOT Graph Code:",
		"```dot",
		"```",
		"  trailing  ",
	}, "\n")
	want := "• Overview\n• already bulleted\n  - nested detail\n• trailing"
	assert.Equal(t, want, FormatResponse(in))
	assert.Equal(t, "", FormatResponse("\n\n"))
}
