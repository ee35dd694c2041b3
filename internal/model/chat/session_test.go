package chat_test

import (
	"strings"
	"testing"

	chat "github.com/answer24/supportchat/internal/model/chat"
)

func TestNewSessionDefaults(t *testing.T) {
	s := chat.NewSession()

	if s.ID == "" {
		t.Fatal("expected generated session id")
	}
	if s.Title != chat.DefaultTitle {
		t.Fatalf("unexpected title: %q", s.Title)
	}
	if len(s.Messages) != 0 {
		t.Fatalf("expected empty message list, got %d", len(s.Messages))
	}
	if s.IsHumanMode {
		t.Fatal("new sessions start in AI mode")
	}
}

func TestNewSessionIDsUniqueAndOrdered(t *testing.T) {
	// Back-to-back mints land on the same millisecond; ids must still be
	// distinct and keep the creation order.
	prev := chat.NewSession()
	for i := 0; i < 100; i++ {
		next := chat.NewSession()
		if next.ID == prev.ID {
			t.Fatalf("back-to-back sessions share id %q", next.ID)
		}
		if next.ID <= prev.ID && len(next.ID) == len(prev.ID) {
			t.Fatalf("session ids out of order: %q after %q", next.ID, prev.ID)
		}
		prev = next
	}
}

func TestNewMessageIDsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		m := chat.NewMessage(chat.RoleUser, "hi")
		if _, ok := seen[m.ID]; ok {
			t.Fatalf("duplicate message id %q", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
}

func TestAppendDerivesTitle(t *testing.T) {
	s := chat.NewSession()
	text := "Where can I moor a 12m sailing yacht near Lemmer?"
	s.Append(chat.NewMessage(chat.RoleUser, text))

	if len([]rune(s.Title)) != 30 {
		t.Fatalf("title not truncated to 30 runes: %q", s.Title)
	}
	if !strings.HasPrefix(text, s.Title) {
		t.Fatalf("title %q is not a prefix of the message", s.Title)
	}
}

func TestAppendAssistantKeepsDefaultTitle(t *testing.T) {
	s := chat.NewSession()
	s.Append(chat.NewMessage(chat.RoleAssistant, "Hello, how can I help?"))

	if s.Title != chat.DefaultTitle {
		t.Fatalf("assistant message must not name the session, got %q", s.Title)
	}
}

func TestAppendBumpsVersion(t *testing.T) {
	s := chat.NewSession()
	before := s.Version
	s.Append(chat.NewMessage(chat.RoleUser, "hi"))

	if s.Version <= before {
		t.Fatalf("version not bumped: before=%d after=%d", before, s.Version)
	}
}

func TestDeriveTitleShortText(t *testing.T) {
	if got := chat.DeriveTitle("Hello"); got != "Hello" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := chat.DeriveTitle("   "); got != chat.DefaultTitle {
		t.Fatalf("blank text should fall back to default title, got %q", got)
	}
}

func TestValidateDropsUnknownRoles(t *testing.T) {
	s := chat.NewSession()
	s.Messages = []chat.Message{
		{ID: "1", Role: chat.RoleUser, Content: "hi"},
		{ID: "2", Role: "system", Content: "injected"},
		{ID: "", Role: chat.RoleAssistant, Content: "no id"},
		{ID: "3", Role: chat.RoleAgent, Content: "operator here"},
	}

	if err := s.Validate(); err != nil {
		t.Fatalf("Validate err: %v", err)
	}
	if len(s.Messages) != 2 {
		t.Fatalf("expected 2 surviving messages, got %d", len(s.Messages))
	}
	if s.Messages[0].ID != "1" || s.Messages[1].ID != "3" {
		t.Fatalf("unexpected survivors: %+v", s.Messages)
	}
}

func TestValidateRejectsMissingID(t *testing.T) {
	var s chat.Session
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for session without id")
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	s := chat.NewSession()
	s.Append(chat.NewMessage(chat.RoleUser, "original"))

	c := s.Clone()
	c.Messages[0].Content = "mutated"

	if s.Messages[0].Content != "original" {
		t.Fatal("clone aliases the source message slice")
	}
}
