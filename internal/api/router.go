package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/LuckyLyon/Vibe-your-mind/internal/api/middleware"
	"github.com/LuckyLyon/Vibe-your-mind/internal/handlers"
	"github.com/LuckyLyon/Vibe-your-mind/internal/realtime"
	"github.com/LuckyLyon/Vibe-your-mind/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, st store.DataStore, rt *realtime.RedisTransport) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(16 * 1024)) // 16KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Identity)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting
	limiter := middleware.NewRateLimiter(rt.Client(), logger)
	r.Use(limiter.Middleware)

	// CORS - the web client is served from a different origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Vibe-User-ID", "X-Vibe-Username"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(st, rt, logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/channels", h.ListChannels)
	r.Get("/channels/{channelID}/messages", h.GetChannelMessages)
	r.Get("/channels/{channelID}/online", h.GetOnline)
	r.Get("/ws/{channelID}", h.ServeWS)

	// Authenticated routes (require identity headers)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Post("/channels", h.CreateChannel)
		r.Post("/channels/{channelID}/messages", h.PostMessage)
		r.Delete("/messages/{messageID}", h.DeleteMessage)
	})

	return r
}
