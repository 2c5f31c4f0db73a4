package models

import (
	"time"

	"github.com/google/uuid"

	"parla-backend/internal/chat"
)

// CreateSessionRequest carries optional per-session overrides for the
// completion request. BaseRequest is merged with the message history on every
// send; RequestBody, when set, is used verbatim instead.
type CreateSessionRequest struct {
	URL         string           `json:"url,omitempty"`
	RequestBody string           `json:"request_body,omitempty"`
	BaseRequest map[string]any   `json:"base_request,omitempty"`
	Options     []map[string]any `json:"options,omitempty"`
}

// SendMessageRequest is the payload enqueuing one widget turn. An empty
// Message is rejected at the API boundary; regeneration goes through the
// reset endpoint instead.
type SendMessageRequest struct {
	Message string         `json:"message"`
	Options map[string]any `json:"options,omitempty"`
}

// ResetRequest replaces a session's history. Messages seeds restored turns;
// Send additionally regenerates the last reply afterwards.
type ResetRequest struct {
	Messages []*chat.Message `json:"messages,omitempty"`
	Send     bool            `json:"send,omitempty"`
}

// SessionResponse describes one widget session.
type SessionResponse struct {
	SessionID uuid.UUID        `json:"session_id"`
	CreatedAt time.Time        `json:"created_at"`
	Options   []map[string]any `json:"options"`
	Messages  []*chat.Message  `json:"messages,omitempty"`
}

// QueuedResponse acknowledges an enqueued send job.
type QueuedResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Queued    bool      `json:"queued"`
}

// SendJob is the queue entry a worker picks up. An empty Message continues
// the session's trailing assistant reply.
type SendJob struct {
	SessionID uuid.UUID      `json:"session_id"`
	Message   string         `json:"message"`
	Options   map[string]any `json:"options,omitempty"`
}

// WebSocket message types

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ChangeBatch is the payload of a "changes" WebSocket message: one change
// batch as emitted by the conversation, verbatim.
type ChangeBatch struct {
	SessionID uuid.UUID     `json:"session_id"`
	Changes   []chat.Change `json:"changes"`
}

// RenderedMessage is the payload of a "rendered" WebSocket message: the
// resolved, sanitized HTML of the in-flight reply as it currently stands.
type RenderedMessage struct {
	SessionID uuid.UUID `json:"session_id"`
	HTML      string    `json:"html"`
	Done      bool      `json:"done"`
}

type ErrorEvent struct {
	SessionID    uuid.UUID `json:"session_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
