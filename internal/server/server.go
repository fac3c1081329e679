// Package server exposes the chat graph and user profiles over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aura-core/server/internal/agent/model"
	"github.com/aura-core/server/internal/metrics"
)

const (
	ServiceName    = "Aura AI"
	ServiceVersion = "1.0.0"
)

// ChatRunner executes one chat turn.
type ChatRunner interface {
	Invoke(ctx context.Context, in model.ChatInput) (string, error)
}

// Stores are the repositories the handlers read and write directly.
type Stores struct {
	Profiles      model.ProfileRepository
	Conversations model.ConversationRepository
	Sessions      model.SessionRepository
}

// Server holds the HTTP handlers. A nil runner means the chat graph is not
// available; chat requests then fail with 503.
type Server struct {
	runner ChatRunner
	stores Stores
	newID  func() string
}

func NewServer(runner ChatRunner, stores Stores) *Server {
	return &Server{
		runner: runner,
		stores: stores,
		newID:  NewThreadID,
	}
}

// Router wires middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(metrics.Middleware())

	r.Get("/", s.Root)
	r.Get("/health", s.Health)
	r.Post("/chat", s.Chat)
	r.Get("/threads/{thread_id}", s.GetThread)
	r.Delete("/threads/{thread_id}", s.DeleteThread)
	r.Route("/users/{user_id}", func(r chi.Router) {
		r.Get("/profile", s.GetProfile)
		r.Put("/photos", s.PutPhotos)
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
