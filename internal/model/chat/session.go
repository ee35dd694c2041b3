package chat

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var errEmptySessionID = errors.New("session missing id")

// DefaultTitle is used until the first user message names the session.
const DefaultTitle = "New Conversation"

const titleLimit = 30

// Session captures one support conversation, AI- or human-answered.
type Session struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
	// UpdatedAt is a unix-millisecond timestamp refreshed on every mutation.
	UpdatedAt int64 `json:"updatedAt"`
	// IsHumanMode defers replies to a human operator while set.
	IsHumanMode bool `json:"isHumanMode"`
	// Version increases on every local mutation. Incoming snapshots with an
	// older version are ignored instead of clobbering newer local state.
	Version int64 `json:"version"`
}

// NewSession builds an empty session with a client-generated timestamp id.
func NewSession() Session {
	now := time.Now()
	return Session{
		ID:        nextID(now.UnixMilli(), &lastSessionID),
		Title:     DefaultTitle,
		Messages:  make([]Message, 0, 8),
		UpdatedAt: now.UnixMilli(),
		Version:   1,
	}
}

// Touch refreshes UpdatedAt and bumps the version.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UnixMilli()
	s.Version++
}

// Append adds a message, derives the title from the first user message if
// still unset, and touches the session.
func (s *Session) Append(m Message) {
	s.Messages = append(s.Messages, m)
	if s.Title == "" || s.Title == DefaultTitle {
		if m.Role == RoleUser && strings.TrimSpace(m.Content) != "" {
			s.Title = DeriveTitle(m.Content)
		}
	}
	s.Touch()
}

// DeriveTitle takes the first 30 characters of the text, rune-safe.
func DeriveTitle(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultTitle
	}
	if utf8.RuneCountInString(text) <= titleLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:titleLimit])
}

// Validate drops untrusted fields from backend payloads: the session must
// carry an id, and every message must validate. Invalid messages are removed
// rather than failing the whole session.
func (s *Session) Validate() error {
	if s.ID == "" {
		return errEmptySessionID
	}
	kept := s.Messages[:0]
	for _, m := range s.Messages {
		if err := m.Validate(); err != nil {
			continue
		}
		kept = append(kept, m)
	}
	s.Messages = kept
	if s.Title == "" {
		s.Title = DefaultTitle
	}
	return nil
}

// Clone returns a deep copy so callers never alias the store's slices.
func (s Session) Clone() Session {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}
