package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aura-core/server/internal/agent/model"
	errx "github.com/aura-core/server/internal/core/error"
	logx "github.com/aura-core/server/pkg/logger"
)

const maxBodyBytes = 1 << 20

type ChatRequest struct {
	Message  *string `json:"message"`
	UserID   *string `json:"user_id"`
	ThreadID *string `json:"thread_id,omitempty"`
}

type ChatResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
}

type PhotosRequest struct {
	PhotoURLs []string `json:"photo_urls"`
}

type ThreadResponse struct {
	ThreadID     string         `json:"thread_id"`
	MessageCount int            `json:"message_count"`
	Session      *model.Session `json:"session"`
}

type DeleteThreadResponse struct {
	ThreadID        string `json:"thread_id"`
	DeletedMessages int    `json:"deleted_messages"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// NewThreadID returns "thread_" followed by the first 8 hex digits of a random uuid.
func NewThreadID() string {
	return "thread_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
		"version": ServiceVersion,
	})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"graph_compiled": s.runner != nil,
	})
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, errx.Invalid(err))
		return
	}
	if req.Message == nil {
		writeError(w, r, errx.Invalid(errors.New("message is required")))
		return
	}
	if req.UserID == nil {
		writeError(w, r, errx.Invalid(errors.New("user_id is required")))
		return
	}

	if s.runner == nil {
		writeError(w, r, errx.Unavailable(errx.GraphUnavailableMessage))
		return
	}

	threadID := ""
	if req.ThreadID != nil {
		threadID = strings.TrimSpace(*req.ThreadID)
	}
	if threadID == "" {
		threadID = s.newID()
	}

	out, err := s.runner.Invoke(r.Context(), model.ChatInput{
		ThreadID: threadID,
		UserID:   *req.UserID,
		Message:  *req.Message,
	})
	if err != nil {
		writeError(w, r, errx.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response: out,
		ThreadID: threadID,
		UserID:   *req.UserID,
	})
}

// GetThread handles GET /threads/{thread_id}: the stored message count and
// session snapshot of a thread.
func (s *Server) GetThread(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "thread_id")

	n, err := s.stores.Conversations.GetMessageCount(r.Context(), threadID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	session, err := s.stores.Sessions.Load(r.Context(), threadID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ThreadResponse{ThreadID: threadID, MessageCount: n, Session: session})
}

// DeleteThread handles DELETE /threads/{thread_id}. History and session are
// removed; the next chat turn on the thread starts from scratch.
func (s *Server) DeleteThread(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "thread_id")

	n, err := s.stores.Conversations.GetMessageCount(r.Context(), threadID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.stores.Conversations.ClearHistory(r.Context(), threadID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.stores.Sessions.Delete(r.Context(), threadID); err != nil {
		writeError(w, r, err)
		return
	}

	logx.Ctx(r.Context()).Info().Str("thread_id", threadID).Int("deleted_messages", n).Msg("Thread reset")
	writeJSON(w, http.StatusOK, DeleteThreadResponse{ThreadID: threadID, DeletedMessages: n})
}

// GetProfile handles GET /users/{user_id}/profile.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	profile, err := s.stores.Profiles.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// PutPhotos handles PUT /users/{user_id}/photos. The list replaces any stored photos.
func (s *Server) PutPhotos(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	var req PhotosRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, errx.Invalid(err))
		return
	}
	if req.PhotoURLs == nil {
		writeError(w, r, errx.Invalid(errors.New("photo_urls is required")))
		return
	}
	urls := make([]string, 0, len(req.PhotoURLs))
	for i, raw := range req.PhotoURLs {
		u, err := url.ParseRequestURI(strings.TrimSpace(raw))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			writeError(w, r, errx.Invalid(fmt.Errorf("photo_urls[%d] is not an http(s) url", i)))
			return
		}
		urls = append(urls, u.String())
	}

	profile := &model.UserProfile{UserID: userID, PhotoURLs: urls}
	if err := s.stores.Profiles.Put(r.Context(), profile); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to its status and writes {"detail": ...}. Server-side
// failures are logged with the request's logger.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logx.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, detailResponse{Detail: err.Error()})
}
