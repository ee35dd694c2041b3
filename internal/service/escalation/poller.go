package escalation

import (
	"context"
	"log"
	"time"

	chat "github.com/answer24/supportchat/internal/model/chat"
	"github.com/answer24/supportchat/internal/service/session"
)

// HistoryFetcher is the slice of the transport client the poller depends on.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context) ([]chat.Session, error)
}

// Poller re-fetches the full history list on a fixed interval so operator
// replies written out-of-band appear without user action. It runs only while
// the selected session is in human mode; the owner cancels the context when
// that stops being true.
type Poller struct {
	fetcher  HistoryFetcher
	store    *session.Store
	interval time.Duration
	// onUpdate fires after every applied snapshot; nil is allowed.
	onUpdate func()
}

// NewPoller builds a poller over the given store.
func NewPoller(fetcher HistoryFetcher, store *session.Store, interval time.Duration, onUpdate func()) *Poller {
	return &Poller{fetcher: fetcher, store: store, interval: interval, onUpdate: onUpdate}
}

// Run blocks until ctx is cancelled, refreshing history every tick. Fetch
// failures are logged and the next tick tries again; there is no backoff.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions, err := p.fetcher.FetchHistory(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[poll] history refresh failed: %v", err)
				continue
			}
			p.store.ApplySnapshot(sessions)
			if p.onUpdate != nil {
				p.onUpdate()
			}
		}
	}
}
