package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	chat "github.com/answer24/supportchat/internal/model/chat"
)

const snapshotInterval = 3 * time.Second

// AgentHub exposes the operator channel: connected consoles receive
// human-mode session snapshots and push replies that the widget's poller
// then surfaces.
type AgentHub struct {
	store    *HistoryStore
	upgrader websocket.Upgrader
}

// NewAgentHub builds the hub over the history store.
func NewAgentHub(store *HistoryStore) *AgentHub {
	return &AgentHub{
		store: store,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// snapshotEnvelope is pushed to the console on every interval.
type snapshotEnvelope struct {
	Type     string         `json:"type"`
	Sessions []chat.Session `json:"sessions"`
}

// agentCommand is what the console sends back.
type agentCommand struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

// HandleWS upgrades the connection and runs the snapshot/reply loops until
// either side closes.
func (h *AgentHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.pushSnapshots(ctx, conn)
	h.readCommands(ctx, conn)
}

func (h *AgentHub) pushSnapshots(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	// Send one snapshot immediately so the console is not empty for the
	// first interval.
	if err := conn.WriteJSON(snapshotEnvelope{Type: "sessions", Sessions: h.store.HumanModeSessions(ctx)}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			envelope := snapshotEnvelope{Type: "sessions", Sessions: h.store.HumanModeSessions(ctx)}
			if err := conn.WriteJSON(envelope); err != nil {
				return
			}
		}
	}
}

func (h *AgentHub) readCommands(ctx context.Context, conn *websocket.Conn) {
	for {
		var cmd agentCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] console closed unexpectedly: %v", err)
			}
			return
		}

		switch cmd.Type {
		case "reply":
			if cmd.SessionID == "" || cmd.Text == "" {
				continue
			}
			if _, err := h.store.AppendAgentReply(ctx, cmd.SessionID, cmd.Text); err != nil {
				log.Printf("[ws] reply to session %s failed: %v", cmd.SessionID, err)
				continue
			}
			log.Printf("[ws] agent replied to session %s", cmd.SessionID)
		default:
			log.Printf("[ws] unknown command type %q", cmd.Type)
		}
	}
}
