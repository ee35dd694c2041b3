// Package session keeps the local session list consistent with the backend
// history resource.
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	chat "github.com/answer24/supportchat/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMessageNotFound = errors.New("message not found")
)

// Backend is the slice of the transport client the store depends on.
type Backend interface {
	FetchHistory(ctx context.Context) ([]chat.Session, error)
	UpsertSession(ctx context.Context, session chat.Session) error
	DeleteSession(ctx context.Context, id string) error
}

// Store owns the in-memory session list and the current selection. Every
// mutation goes through the store; syncs to the backend are best-effort and
// never surface as user-visible errors.
type Store struct {
	mu        sync.RWMutex
	backend   Backend
	sessions  []chat.Session
	currentID string
}

// NewStore builds an empty store backed by the given transport.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Hydrate loads history from the backend. A non-empty list replaces local
// state and selects the first session; an empty list or a failed request
// falls back to one fresh local session. Failure here is non-fatal.
func (s *Store) Hydrate(ctx context.Context) {
	sessions, err := s.backend.FetchHistory(ctx)
	if err != nil {
		log.Printf("[sync] history fetch failed, starting fresh: %v", err)
	}
	if len(sessions) == 0 {
		s.CreateNewChat(ctx)
		return
	}

	s.mu.Lock()
	s.sessions = sessions
	s.currentID = sessions[0].ID
	s.mu.Unlock()
}

// CreateNewChat prepends a fresh session, selects it, and syncs it to the
// backend fire-and-forget.
func (s *Store) CreateNewChat(ctx context.Context) chat.Session {
	fresh := chat.NewSession()

	s.mu.Lock()
	s.sessions = append([]chat.Session{fresh}, s.sessions...)
	s.currentID = fresh.ID
	s.mu.Unlock()

	s.sync(ctx, fresh)
	return fresh.Clone()
}

// AppendMessage adds a message to a session and syncs the result. Returns
// the updated session snapshot.
func (s *Store) AppendMessage(ctx context.Context, sessionID string, m chat.Message) (chat.Session, error) {
	s.mu.Lock()
	idx := s.indexLocked(sessionID)
	if idx < 0 {
		s.mu.Unlock()
		return chat.Session{}, ErrSessionNotFound
	}
	s.sessions[idx].Append(m)
	updated := s.sessions[idx].Clone()
	s.mu.Unlock()

	s.sync(ctx, updated)
	return updated, nil
}

// SetFeedback records like/dislike on a message. Later calls overwrite
// earlier ones. The session is synced afterwards.
func (s *Store) SetFeedback(ctx context.Context, sessionID, messageID string, fb chat.Feedback) error {
	s.mu.Lock()
	idx := s.indexLocked(sessionID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrSessionNotFound
	}

	found := false
	for i := range s.sessions[idx].Messages {
		if s.sessions[idx].Messages[i].ID == messageID {
			s.sessions[idx].Messages[i].Feedback = fb
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return ErrMessageNotFound
	}

	s.sessions[idx].Touch()
	updated := s.sessions[idx].Clone()
	s.mu.Unlock()

	s.sync(ctx, updated)
	return nil
}

// SetHumanMode flips the human/AI flag and syncs.
func (s *Store) SetHumanMode(ctx context.Context, sessionID string, human bool) (chat.Session, error) {
	s.mu.Lock()
	idx := s.indexLocked(sessionID)
	if idx < 0 {
		s.mu.Unlock()
		return chat.Session{}, ErrSessionNotFound
	}
	s.sessions[idx].IsHumanMode = human
	s.sessions[idx].Touch()
	updated := s.sessions[idx].Clone()
	s.mu.Unlock()

	s.sync(ctx, updated)
	return updated, nil
}

// Delete removes a session on the backend and locally. When the current
// session goes away, the first remaining one is selected, or nothing.
func (s *Store) Delete(ctx context.Context, sessionID string) {
	if err := s.backend.DeleteSession(ctx, sessionID); err != nil {
		log.Printf("[sync] delete session %s failed: %v", sessionID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(sessionID)
	if idx < 0 {
		return
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)

	if s.currentID == sessionID {
		if len(s.sessions) > 0 {
			s.currentID = s.sessions[0].ID
		} else {
			s.currentID = ""
		}
	}
}

// ApplySnapshot merges a freshly fetched history list into local state.
// Incoming sessions replace local ones unless the local copy carries a newer
// version; sessions only known locally (not yet acknowledged by the backend)
// are kept.
func (s *Store) ApplySnapshot(incoming []chat.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]chat.Session, 0, len(incoming)+len(s.sessions))
	seen := make(map[string]struct{}, len(incoming))

	for _, in := range incoming {
		seen[in.ID] = struct{}{}
		if idx := s.indexLocked(in.ID); idx >= 0 && s.sessions[idx].Version > in.Version {
			merged = append(merged, s.sessions[idx])
			continue
		}
		merged = append(merged, in)
	}
	for _, local := range s.sessions {
		if _, ok := seen[local.ID]; !ok {
			merged = append(merged, local)
		}
	}

	s.sessions = merged

	if s.currentID != "" && s.indexLocked(s.currentID) < 0 {
		if len(s.sessions) > 0 {
			s.currentID = s.sessions[0].ID
		} else {
			s.currentID = ""
		}
	}
}

// Select makes the given session current.
func (s *Store) Select(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(sessionID) < 0 {
		return ErrSessionNotFound
	}
	s.currentID = sessionID
	return nil
}

// Current returns a snapshot of the selected session.
func (s *Store) Current() (chat.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(s.currentID)
	if idx < 0 {
		return chat.Session{}, false
	}
	return s.sessions[idx].Clone(), true
}

// Get returns a snapshot of one session by id.
func (s *Store) Get(sessionID string) (chat.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(sessionID)
	if idx < 0 {
		return chat.Session{}, false
	}
	return s.sessions[idx].Clone(), true
}

// Sessions returns snapshots of all sessions in display order.
func (s *Store) Sessions() []chat.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chat.Session, len(s.sessions))
	for i := range s.sessions {
		out[i] = s.sessions[i].Clone()
	}
	return out
}

// sync posts the session to the backend. Failures are logged and the local
// optimistic state stands; there is no retry.
func (s *Store) sync(ctx context.Context, session chat.Session) {
	if err := s.backend.UpsertSession(ctx, session); err != nil {
		log.Printf("[sync] session %s sync failed: %v", session.ID, err)
	}
}

// indexLocked finds a session position; callers hold the lock.
func (s *Store) indexLocked(sessionID string) int {
	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			return i
		}
	}
	return -1
}
