package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chat "github.com/answer24/supportchat/internal/model/chat"
	"github.com/answer24/supportchat/pkg/utils"
)

// Handler serves the REST surface the widget consumes.
type Handler struct {
	store     *HistoryStore
	responder Responder
}

// NewHandler wires the history store to a responder.
func NewHandler(store *HistoryStore, responder Responder) *Handler {
	return &Handler{store: store, responder: responder}
}

// NewRouter builds the devserver router. token, when non-empty, is required
// as a bearer token on every /api/v1 route.
func NewRouter(h *Handler, ws *AgentHub, token string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(BearerAuth(token))

		api.Get("/history", h.handleListHistory)
		api.Post("/history", h.handleUpsertSession)
		api.Delete("/history/{sessionID}", h.handleDeleteSession)
		api.Post("/history/{sessionID}/escalate", h.handleEscalate)
		api.Post("/chat-storage", h.handleChatStorage)
		api.Get("/me", h.handleProfile)

		if ws != nil {
			api.Get("/agent/ws", ws.HandleWS)
		}
	})

	return r
}

func (h *Handler) handleListHistory(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.List(r.Context()))
}

func (h *Handler) handleUpsertSession(w http.ResponseWriter, r *http.Request) {
	var session chat.Session
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if session.ID == "" {
		utils.RespondError(w, http.StatusBadRequest, "session id is required")
		return
	}

	if err := h.store.Upsert(r.Context(), session); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleEscalate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := h.store.Escalate(r.Context(), id); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Printf("[escalate] session %s handed to human support", id)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "escalated"})
}

// handleChatStorage accepts the widget's multipart form and answers in the
// generative-API candidates shape the widget parses.
func (h *Handler) handleChatStorage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}

	message := r.FormValue("message")
	sessionID := r.FormValue("session_id")
	if message == "" && sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "message or session_id is required")
		return
	}

	var history []chat.Message
	if raw := r.FormValue("history"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid history payload")
			return
		}
	}

	// The optional image part is accepted and discarded; the dev responder
	// is text-only.
	if file, _, err := r.FormFile("image"); err == nil {
		file.Close()
	}

	reply, err := h.responder.Reply(r.Context(), history, message)
	if err != nil {
		log.Printf("[chat-storage] responder failed for session %s: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "reply generation failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{"text": reply}},
			},
		}},
	})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"id":    "dev-user",
		"name":  "Dev User",
		"email": "dev@answer24.local",
	})
}
