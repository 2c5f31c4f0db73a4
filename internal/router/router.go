package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"parla-backend/internal/handlers"
	"parla-backend/internal/middleware"
	"parla-backend/internal/websocket"
)

func New(
	sessionHandler *handlers.SessionHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Message rate limiter (30 req/min per IP)
	messageLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.CreateSession)
			r.Get("/{sessionID}", sessionHandler.GetSession)
			r.Delete("/{sessionID}", sessionHandler.DeleteSession)
			r.Post("/{sessionID}/reset", sessionHandler.ResetSession)
			r.Get("/{sessionID}/options", sessionHandler.GetOptions)

			r.Group(func(r chi.Router) {
				r.Use(messageLimiter.Middleware)
				r.Post("/{sessionID}/messages", sessionHandler.SendMessage)
			})
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
