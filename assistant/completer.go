package assistant

//go:generate mockgen -source=completer.go -destination=mock_completer.go -package=assistant

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat transcript.
type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

type CompletionRequest struct {
	Messages  []Message
	MaxTokens int
}

// Completer turns a transcript into the next assistant reply.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
