// Package handlers exposes the session API: create and inspect widget
// sessions, enqueue message turns, and reset history.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"parla-backend/internal/chat"
	"parla-backend/internal/config"
	"parla-backend/internal/gemini"
	"parla-backend/internal/models"
	"parla-backend/internal/services"
	"parla-backend/internal/session"
	"parla-backend/internal/worker"
)

type SessionHandler struct {
	cfg   *config.Config
	redis *redis.Client
	store *session.Store
}

func NewSessionHandler(cfg *config.Config, redisClient *redis.Client, store *session.Store) *SessionHandler {
	return &SessionHandler{cfg: cfg, redis: redisClient, store: store}
}

// CreateSession builds a conversation for a new widget instance and wires its
// observers. The raw change feed and the rendered HTML feed both go out on
// the session's pub/sub channel.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("INVALID_REQUEST", "Invalid request body", r))
			return
		}
	}

	conv, err := h.buildConversation(r, req)
	if err != nil {
		log.Printf("Failed to build conversation: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("CONNECTOR_ERROR", "Failed to initialize the completion backend", r))
		return
	}

	sess := h.store.Create(conv)

	conv.Observe(services.NewChangePublisher(h.redis, sess.ID))
	conv.Observe(services.NewRenderObserver(h.redis, sess.ID, h.cfg.RefsBaseURL, h.cfg.RefsLinkTarget))

	writeJSON(w, http.StatusCreated, models.SessionResponse{
		SessionID: sess.ID,
		CreatedAt: sess.CreatedAt,
		Options:   conv.Options(),
	})
}

func (h *SessionHandler) buildConversation(r *http.Request, req models.CreateSessionRequest) (*chat.Conversation, error) {
	cfg := chat.Config{
		URL:         h.cfg.UpstreamURL,
		RequestBody: req.RequestBody,
		BaseRequest: req.BaseRequest,
		Options:     req.Options,
	}
	if req.URL != "" {
		cfg.URL = req.URL
	}
	if cfg.BaseRequest == nil && h.cfg.UpstreamModel != "" {
		cfg.BaseRequest = map[string]any{"model": h.cfg.UpstreamModel}
	}

	if h.cfg.Connector == "gemini" {
		conn, err := gemini.NewConnector(r.Context(), h.cfg.GeminiAPIKey, h.cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		cfg.Connector = conn
	}

	return chat.New(cfg), nil
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, models.SessionResponse{
		SessionID: sess.ID,
		CreatedAt: sess.CreatedAt,
		Options:   sess.Conversation.Options(),
		Messages:  sess.Conversation.Messages(),
	})
}

func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}

	h.store.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// SendMessage validates and enqueues one turn. The reply streams out over the
// session's WebSocket; the HTTP response only acknowledges the queue write.
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_REQUEST", "Invalid request body", r))
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", map[string]string{
			"message": "message must not be empty",
		}, r))
		return
	}

	job := models.SendJob{SessionID: sess.ID, Message: req.Message, Options: req.Options}
	if err := worker.Enqueue(r.Context(), h.redis, job); err != nil {
		log.Printf("Failed to enqueue send job for session %s: %v", sess.ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("QUEUE_ERROR", "Failed to enqueue message", r))
		return
	}

	writeJSON(w, http.StatusAccepted, models.QueuedResponse{SessionID: sess.ID, Queued: true})
}

// ResetSession replaces the session history with the supplied messages (or
// clears it) and, when requested, regenerates the last reply by enqueuing an
// empty-message turn.
func (h *SessionHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}

	var req models.ResetRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("INVALID_REQUEST", "Invalid request body", r))
			return
		}
	}

	if err := sess.Conversation.Reset(r.Context(), req.Messages, false); err != nil {
		log.Printf("Failed to reset session %s: %v", sess.ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("RESET_ERROR", "Failed to reset session", r))
		return
	}

	if req.Send {
		job := models.SendJob{SessionID: sess.ID}
		if err := worker.Enqueue(r.Context(), h.redis, job); err != nil {
			log.Printf("Failed to enqueue regenerate job for session %s: %v", sess.ID, err)
			writeJSON(w, http.StatusInternalServerError, errorResp("QUEUE_ERROR", "Failed to enqueue message", r))
			return
		}
	}

	writeJSON(w, http.StatusOK, models.SessionResponse{
		SessionID: sess.ID,
		CreatedAt: sess.CreatedAt,
		Options:   sess.Conversation.Options(),
		Messages:  sess.Conversation.Messages(),
	})
}

// GetOptions exposes the option groups the widget renders as choice chips.
func (h *SessionHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"options": sess.Conversation.Options()})
}

func (h *SessionHandler) sessionFromURL(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_REQUEST", "Invalid session id", r))
		return nil, false
	}

	sess, ok := h.store.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		return nil, false
	}

	return sess, true
}
