// Package chat holds the wire types shared by the graph server and its
// clients: chat history entries, graph metrics and the /generate and
// /clear_session payloads.
package chat

// Role tags a chat history entry. The JSON field is "type".
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one chat history item as exchanged with the server.
type Entry struct {
	Type    Role   `json:"type"`
	Content string `json:"content"`
}

// Metrics summarises a generated control flow graph.
type Metrics struct {
	Nodes      int `json:"nodes"`
	Edges      int `json:"edges"`
	Cyclomatic int `json:"cyclomatic"`
}

// GenerateResponse is the JSON body returned by POST /generate.
type GenerateResponse struct {
	Error       string   `json:"error,omitempty"`
	ChatHistory []Entry  `json:"chat_history,omitempty"`
	CFGImage    string   `json:"cfg_image,omitempty"`
	Metrics     *Metrics `json:"metrics,omitempty"`
}

// LastAssistant returns the final history entry when it is an assistant
// message.
func (r *GenerateResponse) LastAssistant() (Entry, bool) {
	if r == nil || len(r.ChatHistory) == 0 {
		return Entry{}, false
	}
	last := r.ChatHistory[len(r.ChatHistory)-1]
	if last.Type != RoleAssistant {
		return Entry{}, false
	}
	return last, true
}

// ClearResponse is the JSON body returned by POST /clear_session.
type ClearResponse struct {
	Status string `json:"status"`
}

// StatusSuccess is the only ClearResponse status that resets a client.
const StatusSuccess = "success"

// Form field names of POST /generate.
const (
	FieldUserInput = "user_input"
	FieldIsRepair  = "is_repair"
)

// WelcomeMessage seeds every new or cleared conversation.
const WelcomeMessage = `• Welcome to the Control Flow Graph Generator!

• Key Features:
  - Create detailed flow diagrams
  - Get instant graph metrics
  - Optimize process layouts
  - Analyze flow complexity

• How to Use:
  - Type your process description
  - Click Generate to create graph
  - Use Refine for improvements

• Try describing a simple process to start!`
