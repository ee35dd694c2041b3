// Package api implements the HTTP client for the answer24 chat backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/answer24/supportchat/internal/model/chat"
)

const profileTimeout = 5 * time.Second

// Client talks to a fixed backend origin with a bearer token. The token is
// threaded through the constructor rather than read from ambient state.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client for the given origin. baseURL includes the API
// prefix, e.g. "https://kring.answer24.nl/api/v1".
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchHistory returns all sessions stored for the authenticated user.
// Sessions failing boundary validation are dropped, not surfaced.
func (c *Client) FetchHistory(ctx context.Context) ([]chat.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch history: unexpected status %d", resp.StatusCode)
	}

	var sessions []chat.Session
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	valid := sessions[:0]
	for i := range sessions {
		if err := sessions[i].Validate(); err != nil {
			continue
		}
		valid = append(valid, sessions[i])
	}
	return valid, nil
}

// UpsertSession posts the full session object. Callers treat this as
// fire-and-forget; the response body is ignored.
func (c *Client) UpsertSession(ctx context.Context, session chat.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/history", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	return c.doDiscard(req, "upsert session")
}

// DeleteSession removes a session on the backend.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/history/"+id, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	return c.doDiscard(req, "delete session")
}

// Escalate notifies the backend that a session was handed to a human.
func (c *Client) Escalate(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/history/"+id+"/escalate", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	return c.doDiscard(req, "escalate session")
}

// ChatRequest is a message-send to the AI endpoint.
type ChatRequest struct {
	Message   string
	SessionID string
	// History is the prior conversation, serialized as JSON into the form.
	History []chat.Message
	// ImagePath, when set, is attached as a file part.
	ImagePath string
	// ImageData overrides reading ImagePath from disk when non-nil.
	ImageData []byte
	// VoiceResponse asks the backend to include a synthesized audio part.
	VoiceResponse bool
	Language      string
}

// ChatReply is the parsed AI response: the text part plus optional audio.
type ChatReply struct {
	Text string
	// AudioB64 is the base64-encoded audio payload, empty when absent.
	AudioB64 string
}

// voiceConfig is the fixed configuration blob sent with every AI call.
type voiceConfig struct {
	VoiceResponse bool   `json:"voice_response"`
	Language      string `json:"language"`
}

// chatStorageResponse mirrors the backend's generative-API response shape.
type chatStorageResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text,omitempty"`
				InlineData *struct {
					Data string `json:"data"`
				} `json:"inline_data,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// SendChat submits a multipart form with the message, session id, serialized
// history, optional image, and the voice configuration.
func (c *Client) SendChat(ctx context.Context, r ChatRequest) (ChatReply, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("message", r.Message); err != nil {
		return ChatReply{}, fmt.Errorf("write message field: %w", err)
	}
	if err := writer.WriteField("session_id", r.SessionID); err != nil {
		return ChatReply{}, fmt.Errorf("write session_id field: %w", err)
	}

	history, err := json.Marshal(r.History)
	if err != nil {
		return ChatReply{}, fmt.Errorf("encode history: %w", err)
	}
	if err := writer.WriteField("history", string(history)); err != nil {
		return ChatReply{}, fmt.Errorf("write history field: %w", err)
	}

	cfg, err := json.Marshal(voiceConfig{VoiceResponse: r.VoiceResponse, Language: r.Language})
	if err != nil {
		return ChatReply{}, fmt.Errorf("encode voice config: %w", err)
	}
	if err := writer.WriteField("config", string(cfg)); err != nil {
		return ChatReply{}, fmt.Errorf("write config field: %w", err)
	}

	if r.ImageData != nil || r.ImagePath != "" {
		data := r.ImageData
		if data == nil {
			data, err = os.ReadFile(r.ImagePath)
			if err != nil {
				return ChatReply{}, fmt.Errorf("read image %s: %w", r.ImagePath, err)
			}
		}

		name := filepath.Base(r.ImagePath)
		if name == "." || name == "" {
			name = "attachment"
		}
		part, err := writer.CreateFormFile("image", name)
		if err != nil {
			return ChatReply{}, fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return ChatReply{}, fmt.Errorf("write image part: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return ChatReply{}, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat-storage", body)
	if err != nil {
		return ChatReply{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ChatReply{}, fmt.Errorf("send chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ChatReply{}, fmt.Errorf("send chat: unexpected status %d", resp.StatusCode)
	}

	var parsed chatStorageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ChatReply{}, fmt.Errorf("decode chat response: %w", err)
	}

	var reply ChatReply
	for _, candidate := range parsed.Candidates {
		for _, part := range candidate.Content.Parts {
			if reply.Text == "" && part.Text != "" {
				reply.Text = part.Text
			}
			if reply.AudioB64 == "" && part.InlineData != nil {
				reply.AudioB64 = part.InlineData.Data
			}
		}
	}
	return reply, nil
}

// Profile is the authenticated user's account summary.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FetchProfile loads the user profile with its own 5-second deadline.
func (c *Client) FetchProfile(ctx context.Context) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, profileTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me", nil)
	if err != nil {
		return Profile{}, fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("fetch profile: unexpected status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return profile, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// doDiscard runs a fire-and-forget request, draining the body so the
// connection can be reused.
func (c *Client) doDiscard(req *http.Request, verb string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", verb, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: unexpected status %d", verb, resp.StatusCode)
	}
	return nil
}
