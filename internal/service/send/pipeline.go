// Package send unifies sending of text and optional image attachments,
// routing between the AI endpoint and the human-handoff no-op path.
package send

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/answer24/supportchat/internal/api"
	chat "github.com/answer24/supportchat/internal/model/chat"
	"github.com/answer24/supportchat/internal/service/session"
	"github.com/answer24/supportchat/internal/service/voice"
)

// FallbackReply is appended when the AI response carries no text part.
const FallbackReply = "I'm sorry, I'm having trouble responding right now."

// AgentTyping is shown while a human-mode session waits for an operator.
const AgentTyping = "Agent is typing..."

// AIClient is the slice of the transport client the pipeline depends on.
type AIClient interface {
	SendChat(ctx context.Context, r api.ChatRequest) (api.ChatReply, error)
}

// Attachment is a single optional image selected by the user. Data is the
// file content; Path is kept as the local preview reference.
type Attachment struct {
	Path string
	Data []byte
}

// Pipeline owns the send flow: optimistic append, sync, AI round trip, and
// voice playback. One send runs at a time; a send during loading is a
// silent no-op, as are empty input and missing selection.
type Pipeline struct {
	mu      sync.Mutex
	loading bool

	store     *session.Store
	ai        AIClient
	voice     *voice.Adapter
	voiceLang string
}

// NewPipeline builds a pipeline over the store and transport.
func NewPipeline(store *session.Store, ai AIClient, adapter *voice.Adapter, voiceLang string) *Pipeline {
	return &Pipeline{store: store, ai: ai, voice: adapter, voiceLang: voiceLang}
}

// Loading reports whether a send round trip is in flight.
func (p *Pipeline) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Send runs the pipeline for the current session. It returns false when a
// precondition failed and nothing was done. A returned true means the user
// message was appended; it says nothing about the backend round trip, whose
// failure is logged and otherwise swallowed.
func (p *Pipeline) Send(ctx context.Context, text string, att *Attachment) bool {
	text = strings.TrimSpace(text)
	if text == "" && att == nil {
		return false
	}

	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		return false
	}
	p.loading = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.loading = false
		p.mu.Unlock()
	}()

	current, ok := p.store.Current()
	if !ok {
		return false
	}

	userMsg := chat.NewMessage(chat.RoleUser, text)
	if att != nil {
		userMsg.ImageURL = att.Path
	}

	// Prior history is captured before the optimistic append.
	history := current.Messages

	if _, err := p.store.AppendMessage(ctx, current.ID, userMsg); err != nil {
		log.Printf("[send] append failed for session %s: %v", current.ID, err)
		return false
	}

	if current.IsHumanMode {
		// Human mode: the message is synced and the poll loop surfaces the
		// operator's reply. The AI endpoint is never called.
		return true
	}

	req := api.ChatRequest{
		Message:       text,
		SessionID:     current.ID,
		History:       history,
		VoiceResponse: true,
		Language:      p.voiceLang,
	}
	if att != nil {
		req.ImagePath = att.Path
		req.ImageData = att.Data
	}

	reply, err := p.ai.SendChat(ctx, req)
	if err != nil {
		// The optimistic user message stays; the only user-visible sign of
		// failure is the missing reply.
		log.Printf("[send] chat request failed for session %s: %v", current.ID, err)
		return true
	}

	replyText := reply.Text
	if replyText == "" {
		replyText = FallbackReply
	}

	if _, err := p.store.AppendMessage(ctx, current.ID, chat.NewMessage(chat.RoleAssistant, replyText)); err != nil {
		log.Printf("[send] assistant append failed for session %s: %v", current.ID, err)
		return true
	}

	if err := p.voice.Play(replyText, reply.AudioB64); err != nil {
		log.Printf("[send] voice playback failed: %v", err)
	}
	return true
}
