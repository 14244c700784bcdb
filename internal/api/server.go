package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/albapepper/swiss-tournament/internal/api/handler"
	"github.com/albapepper/swiss-tournament/internal/cache"
	"github.com/albapepper/swiss-tournament/internal/config"
	"github.com/albapepper/swiss-tournament/internal/metrics"
	"github.com/albapepper/swiss-tournament/internal/tournament"
)

// NewRouter creates and configures the Chi router with all middleware and
// routes. It registers a change hook on svc that purges cached reads.
func NewRouter(svc *tournament.Service, appCache *cache.Cache, m *metrics.Metrics, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(svc, appCache, cfg)
	svc.OnChange(func(string) { h.PurgeReads() })

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Metrics
	if m != nil {
		r.Method("GET", "/metrics", m.Handler())
	}

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Players
		r.Get("/players/count", h.CountPlayers)
		r.Post("/players", h.RegisterPlayer)
		r.Delete("/players", h.ResetPlayers)

		// Matches
		r.Post("/matches", h.ReportMatch)
		r.Delete("/matches", h.ResetMatches)
		r.Delete("/tournament", h.ResetTournament)
		r.Post("/reconcile", h.Reconcile)

		// Reads
		r.Get("/standings", h.GetStandings)
		r.Get("/pairings", h.GetPairings)
	})

	return r
}
