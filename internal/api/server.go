package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/atra-dev/aegis-notify/internal/api/handler"
	"github.com/atra-dev/aegis-notify/internal/clock"
	"github.com/atra-dev/aegis-notify/internal/config"
	"github.com/atra-dev/aegis-notify/internal/notify"
	"github.com/atra-dev/aegis-notify/internal/shift"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(pool *pgxpool.Pool, cfg *config.Config, store *notify.Store, orchestrator *shift.Orchestrator, resolver *clock.Resolver, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type"},
		ExposedHeaders:   []string{"X-Process-Time"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(pool, cfg, store, orchestrator, resolver, logger)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// UI read contract
		r.Get("/notifications", h.ListNotifications)

		// Operator escape hatch: run one tick now
		r.Post("/shift/run", h.RunShiftTick)

		// On-demand maintenance
		r.Route("/maintenance", func(r chi.Router) {
			r.Post("/cleanup-duplicates", h.CleanupDuplicates)
			r.Post("/reset-usage", h.ResetUsage)
		})
	})

	return r
}
