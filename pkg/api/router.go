package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/drinkscout/drinkscout/internal/logger"
	"github.com/drinkscout/drinkscout/pkg/agent"
	"github.com/drinkscout/drinkscout/pkg/api/handlers"
	"github.com/drinkscout/drinkscout/pkg/catalog"
	"github.com/drinkscout/drinkscout/pkg/driver"
	"github.com/drinkscout/drinkscout/pkg/metrics"
)

// Services bundles everything the router's handlers depend on.
//
// Container and Catalog are required for a functional server; Agent may be
// nil when no recommendation service is configured, and DriverMetrics may
// be nil when metrics are disabled.
type Services struct {
	Container     *driver.Container
	Catalog       *catalog.Service
	Agent         *agent.Client
	DriverMetrics *metrics.DriverMetrics

	// DefaultLimit caps drink search results when a request carries no
	// limit of its own.
	DefaultLimit int64
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /health/drivers - Detailed driver health
//   - POST /v1/stores/search - Nearby stores with matching menus
//   - POST /v1/drinks/search - Ranked drink search
//   - GET /v1/drink-tags - Popular drink tags
//   - GET /v1/brands - Chain brands
//   - POST /v1/recommend - Agent-backed recommendation
func NewRouter(svcs Services, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	healthHandler := handlers.NewHealthHandler(svcs.Container, svcs.DriverMetrics)
	searchHandler := handlers.NewSearchHandler(svcs.Catalog, svcs.DefaultLimit)
	listingsHandler := handlers.NewListingsHandler(svcs.Catalog)
	recommendHandler := handlers.NewRecommendHandler(svcs.Agent, svcs.Catalog, svcs.DefaultLimit)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
		r.Get("/drivers", healthHandler.Drivers)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/stores/search", searchHandler.Stores)
		r.Post("/drinks/search", searchHandler.Drinks)
		r.Get("/drink-tags", listingsHandler.DrinkTags)
		r.Get("/brands", listingsHandler.Brands)
		r.Post("/recommend", recommendHandler.Recommend)
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		)
	})
}
