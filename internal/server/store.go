// Package server implements the local development backend: the history
// resource, the chat-storage AI endpoint, and the agent console channel.
package server

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	chat "github.com/answer24/supportchat/internal/model/chat"
)

var ErrSessionNotFound = errors.New("session not found")

// HistoryStore is the in-memory history resource. Upserts are last writer
// wins, matching the production backend; the widget does its own version
// guarding.
type HistoryStore struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
}

// NewHistoryStore bootstraps an empty store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{sessions: make(map[string]chat.Session)}
}

// List returns all sessions, most recently updated first.
func (s *HistoryStore) List(_ context.Context) []chat.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out
}

// Upsert stores the posted session as-is.
func (s *HistoryStore) Upsert(_ context.Context, session chat.Session) error {
	if session.ID == "" {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	s.sessions[session.ID] = session.Clone()
	s.mu.Unlock()
	return nil
}

// Delete removes a session.
func (s *HistoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Escalate flags a session as human-answered.
func (s *HistoryStore) Escalate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.IsHumanMode = true
	session.UpdatedAt = time.Now().UnixMilli()
	session.Version++
	s.sessions[id] = session
	return nil
}

// HumanModeSessions returns the sessions currently waiting for an operator.
func (s *HistoryStore) HumanModeSessions(_ context.Context) []chat.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.Session, 0, 4)
	for _, session := range s.sessions {
		if session.IsHumanMode {
			out = append(out, session.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out
}

// AppendAgentReply adds an operator-authored message and bumps the version
// so the widget's poller picks it up.
func (s *HistoryStore) AppendAgentReply(_ context.Context, id, text string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}

	session.Messages = append(session.Messages, chat.Message{
		ID:        uuid.NewString(),
		Role:      chat.RoleAgent,
		Content:   text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	session.UpdatedAt = time.Now().UnixMilli()
	session.Version++
	s.sessions[id] = session
	return session.Clone(), nil
}
