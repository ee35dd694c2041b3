package chat

import (
	"fmt"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleAgent marks replies written by a human operator after escalation.
	RoleAgent Role = "agent"
)

// Valid reports whether the role is one this client knows how to render.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleAgent:
		return true
	}
	return false
}

// Feedback is the per-message rating a user may set, at most one at a time.
type Feedback string

const (
	FeedbackLike    Feedback = "like"
	FeedbackDislike Feedback = "dislike"
)

// Message is a single turn inside a session.
type Message struct {
	ID        string   `json:"id"`
	Role      Role     `json:"role"`
	Content   string   `json:"content"`
	Timestamp string   `json:"timestamp"`
	ImageURL  string   `json:"image,omitempty"`
	Feedback  Feedback `json:"feedback,omitempty"`
}

// NewMessage builds a message with a client-generated id. Ids are
// timestamp-based and kept as-is, never replaced by server ids.
func NewMessage(role Role, content string) Message {
	now := time.Now()
	return Message{
		ID:        nextID(now.UnixNano(), &lastMessageID),
		Role:      role,
		Content:   content,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

// Validate checks the fields this client relies on. Backend payloads are
// not trusted; entries failing validation are dropped at the boundary.
func (m Message) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("message missing id")
	}
	if !m.Role.Valid() {
		return fmt.Errorf("message %s: unknown role %q", m.ID, m.Role)
	}
	return nil
}
