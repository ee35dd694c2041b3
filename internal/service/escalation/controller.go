// Package escalation decides whether a session is answered by the AI or
// deferred to a human operator, and surfaces operator replies by polling.
package escalation

import (
	"context"
	"log"
	"sync"

	chat "github.com/answer24/supportchat/internal/model/chat"
	"github.com/answer24/supportchat/internal/service/session"
)

// Notifier is the slice of the transport client the controller depends on.
type Notifier interface {
	Escalate(ctx context.Context, sessionID string) error
}

// Controller tracks per-session dislike counts and drives the AI/human mode
// transitions. Reaching the threshold only suggests escalation; the user
// must still request it explicitly.
type Controller struct {
	mu        sync.Mutex
	store     *session.Store
	notifier  Notifier
	threshold int
	dislikes  map[string]int
}

// NewController builds a controller over the given store. threshold is the
// dislike count at which escalation is suggested.
func NewController(store *session.Store, notifier Notifier, threshold int) *Controller {
	return &Controller{
		store:     store,
		notifier:  notifier,
		threshold: threshold,
		dislikes:  make(map[string]int),
	}
}

// RecordDislike bumps the session's dislike count and returns the new total.
func (c *Controller) RecordDislike(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dislikes[sessionID]++
	return c.dislikes[sessionID]
}

// Dislikes returns the session's current dislike count.
func (c *Controller) Dislikes(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dislikes[sessionID]
}

// Suggested reports whether the dislike threshold was reached. The UI only
// changes the affordance; it never escalates on its own.
func (c *Controller) Suggested(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dislikes[sessionID] >= c.threshold
}

// RequestHumanHelp flips the session to human mode, notifies the escalation
// endpoint, and syncs the flagged session. Calling it while already in human
// mode only re-issues the sync.
func (c *Controller) RequestHumanHelp(ctx context.Context, sessionID string) (chat.Session, error) {
	updated, err := c.store.SetHumanMode(ctx, sessionID, true)
	if err != nil {
		return chat.Session{}, err
	}

	if err := c.notifier.Escalate(ctx, sessionID); err != nil {
		// Handoff already happened locally; the poll loop still works.
		log.Printf("[escalate] notify failed for session %s: %v", sessionID, err)
	}
	return updated, nil
}

// ResumeAI returns the session to AI mode and resets its dislike count.
func (c *Controller) ResumeAI(ctx context.Context, sessionID string) (chat.Session, error) {
	updated, err := c.store.SetHumanMode(ctx, sessionID, false)
	if err != nil {
		return chat.Session{}, err
	}

	c.mu.Lock()
	c.dislikes[sessionID] = 0
	c.mu.Unlock()

	return updated, nil
}
