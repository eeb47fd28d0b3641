// Package llm talks to the chat models that write the graph DOT code.
package llm

import "context"

// Provider is a chat completion backend.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// Role is who wrote a prompt message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the prompt: the system instructions, replayed chat
// history, or the current description.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is one generation call. An empty Model means the
// provider's configured model.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResponse is the model's answer plus the usage the engine logs
// and prices.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// TotalTokens is input plus output tokens.
func (r *CompletionResponse) TotalTokens() int { return r.InputTokens + r.OutputTokens }
