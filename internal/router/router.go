package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"inkwise/internal/handlers"
	"inkwise/internal/middleware"
	"inkwise/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authLimiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	pageHandler *handlers.PageHandler,
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

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// ──── Pages ────
	r.Get("/", pageHandler.Landing)
	r.With(jwtAuth.PageMiddleware).Get("/chatbot", pageHandler.Chatbot)

	r.Route("/api", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
		})
		r.Get("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/user", authHandler.CurrentUser)

			// ──── Chat Routes ────
			r.Route("/chats", func(r chi.Router) {
				r.Get("/", chatHandler.List)
				r.Post("/", chatHandler.Create)
				r.Put("/{id}", chatHandler.Rename)
				r.Delete("/{id}", chatHandler.Delete)
				r.Get("/{id}/messages", chatHandler.Messages)
				r.Post("/{id}/messages", chatHandler.SendMessage)
			})
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
