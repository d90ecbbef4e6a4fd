package chat

import "time"

// Chat roles as defined by the Ollama chat API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message sent to the LLM.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"` // source identity in multi-agent contexts
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Options are per-request sampling options. Nil fields are omitted so the
// model's defaults apply.
type Options struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumCtx      *int     `json:"num_ctx,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Seed        *int     `json:"seed,omitempty"`
}

// Response is a completed (non-streamed) chat response. A transport or API
// failure is reported as an error from the service call, never encoded here;
// Content may legitimately be empty.
type Response struct {
	Content    string    `json:"content"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
	DoneReason string    `json:"done_reason,omitempty"`
}

// Float64 returns a pointer to v, for filling Options literals.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v, for filling Options literals.
func Int(v int) *int { return &v }
