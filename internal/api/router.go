package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	chatLimiter := newIPRateLimiter(rate.Limit(1), 10)   // ~1 req/s per IP, burst of 10
	loginLimiter := newIPRateLimiter(rate.Limit(0.2), 5) // slow bucket against password guessing

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
		r.Get("/config", apiHandler.ConfigProbeHandler)
		r.With(loginLimiter.Middleware).Post("/login", apiHandler.LoginHandler)
		r.With(chatLimiter.Middleware).Post("/chat", apiHandler.ChatHandler)
		r.With(chatLimiter.Middleware).Post("/conversion", apiHandler.ConversionHandler)

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Get("/config", apiHandler.GetConfigHandler)
			r.Post("/config", apiHandler.SetConfigHandler)

			r.Get("/logs", apiHandler.ListLogsHandler)
			r.Get("/logs/export", apiHandler.ExportLogsHandler)
			r.Post("/logs/clear", apiHandler.ClearLogsHandler)
			r.Get("/logs/{logID}", apiHandler.GetLogHandler)
			r.Delete("/logs/{logID}", apiHandler.DeleteLogHandler)

			r.Get("/profiles", apiHandler.ListProfilesHandler)
			r.Post("/profiles", apiHandler.SaveProfileHandler)
			r.Post("/profiles/{name}/load", apiHandler.LoadProfileHandler)
			r.Delete("/profiles/{name}", apiHandler.DeleteProfileHandler)

			r.Get("/stats", apiHandler.StatsHandler)
		})
	})

	return r
}
