package escalation_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	chat "github.com/answer24/supportchat/internal/model/chat"
	"github.com/answer24/supportchat/internal/service/escalation"
	"github.com/answer24/supportchat/internal/service/session"
)

type fakeTransport struct {
	mu        sync.Mutex
	history   []chat.Session
	escalates []string
	upserts   int
}

func (f *fakeTransport) FetchHistory(_ context.Context) ([]chat.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]chat.Session, len(f.history))
	copy(out, f.history)
	return out, nil
}

func (f *fakeTransport) UpsertSession(_ context.Context, s chat.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	return nil
}

func (f *fakeTransport) DeleteSession(_ context.Context, id string) error { return nil }

func (f *fakeTransport) Escalate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.escalates = append(f.escalates, id)
	return nil
}

func newFixture(t *testing.T) (*fakeTransport, *session.Store, *escalation.Controller, chat.Session) {
	t.Helper()
	transport := &fakeTransport{}
	store := session.NewStore(transport)
	ctrl := escalation.NewController(store, transport, 3)
	s := store.CreateNewChat(context.Background())
	return transport, store, ctrl, s
}

func TestThresholdSuggestsWithoutEscalating(t *testing.T) {
	_, store, ctrl, s := newFixture(t)

	for i := 0; i < 3; i++ {
		if ctrl.Suggested(s.ID) {
			t.Fatalf("suggested after only %d dislikes", i)
		}
		ctrl.RecordDislike(s.ID)
	}

	if !ctrl.Suggested(s.ID) {
		t.Fatal("expected suggestion at 3 dislikes")
	}
	got, _ := store.Get(s.ID)
	if got.IsHumanMode {
		t.Fatal("threshold must not auto-escalate")
	}
}

func TestRequestHumanHelpSetsFlagAndNotifies(t *testing.T) {
	transport, store, ctrl, s := newFixture(t)

	updated, err := ctrl.RequestHumanHelp(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("RequestHumanHelp err: %v", err)
	}
	if !updated.IsHumanMode {
		t.Fatal("expected human mode set")
	}

	got, _ := store.Get(s.ID)
	if !got.IsHumanMode {
		t.Fatal("store did not record human mode")
	}
	transport.mu.Lock()
	escalates := len(transport.escalates)
	transport.mu.Unlock()
	if escalates != 1 {
		t.Fatalf("expected 1 escalate call, got %d", escalates)
	}
}

func TestRequestHumanHelpIdempotent(t *testing.T) {
	transport, store, ctrl, s := newFixture(t)
	ctx := context.Background()

	if _, err := ctrl.RequestHumanHelp(ctx, s.ID); err != nil {
		t.Fatalf("first RequestHumanHelp err: %v", err)
	}
	transport.mu.Lock()
	upsertsAfterFirst := transport.upserts
	transport.mu.Unlock()

	if _, err := ctrl.RequestHumanHelp(ctx, s.ID); err != nil {
		t.Fatalf("second RequestHumanHelp err: %v", err)
	}

	got, _ := store.Get(s.ID)
	if !got.IsHumanMode {
		t.Fatal("human mode lost on repeat call")
	}
	transport.mu.Lock()
	defer transport.mu.Unlock()
	if transport.upserts <= upsertsAfterFirst {
		t.Fatal("repeat call should still re-issue the sync")
	}
}

func TestResumeAIResetsDislikes(t *testing.T) {
	_, store, ctrl, s := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ctrl.RecordDislike(s.ID)
	}
	if _, err := ctrl.RequestHumanHelp(ctx, s.ID); err != nil {
		t.Fatalf("RequestHumanHelp err: %v", err)
	}

	updated, err := ctrl.ResumeAI(ctx, s.ID)
	if err != nil {
		t.Fatalf("ResumeAI err: %v", err)
	}
	if updated.IsHumanMode {
		t.Fatal("expected AI mode restored")
	}
	if ctrl.Dislikes(s.ID) != 0 {
		t.Fatalf("dislike count not reset: %d", ctrl.Dislikes(s.ID))
	}
	got, _ := store.Get(s.ID)
	if got.IsHumanMode {
		t.Fatal("store did not record AI mode")
	}
}

func TestPollerAppliesSnapshotsUntilCancelled(t *testing.T) {
	transport := &fakeTransport{}
	store := session.NewStore(transport)
	store.ApplySnapshot([]chat.Session{{ID: "a", Title: "old", Version: 1, IsHumanMode: true}})

	transport.mu.Lock()
	transport.history = []chat.Session{{
		ID: "a", Title: "old", Version: 2, IsHumanMode: true,
		Messages: []chat.Message{{ID: "m1", Role: chat.RoleAgent, Content: "An agent will help you"}},
	}}
	transport.mu.Unlock()

	var updates atomic.Int32
	poller := escalation.NewPoller(transport, store, 10*time.Millisecond, func() {
		updates.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for updates.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("poller never applied a snapshot")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}

	got, _ := store.Get("a")
	if len(got.Messages) != 1 || got.Messages[0].Role != chat.RoleAgent {
		t.Fatalf("agent reply not surfaced: %+v", got.Messages)
	}
}
