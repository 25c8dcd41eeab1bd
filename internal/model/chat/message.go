package chat

import (
	"fmt"
	"strings"
	"time"
)

// Role tags the author of one conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// NormalizeRole accepts the aliases clients send for the model side ("model", "ai").
func NormalizeRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user":
		return RoleUser, nil
	case "assistant", "model", "ai":
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("unknown message role %q", raw)
	}
}

// Message is one stored turn. Stored messages are never edited.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Emotion   string    `json:"emotion,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}

// Turn is the role-tagged history entry callers send with a stateless chat request.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Turns converts stored messages into history turns, oldest first.
func Turns(messages []Message) []Turn {
	turns := make([]Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}
	return turns
}
