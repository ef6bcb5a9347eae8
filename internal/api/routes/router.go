package routes

import (
	"net/http"

	"github.com/zatekoja/streamlinecare/internal/api/handlers"
	"github.com/zatekoja/streamlinecare/internal/api/middleware"
	"github.com/zatekoja/streamlinecare/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	catalogHandler *handlers.CatalogHandler
	bookingHandler *handlers.BookingHandler

	loaders         func(http.Handler) http.Handler
	cacheMiddleware *middleware.CacheMiddleware
	rateLimiter     *middleware.RateLimiter
	clientIPs       *middleware.ClientIPResolver
	metrics         *observability.Metrics
	metricsHandler  http.Handler
	allowedOrigins  []string
}

// Option configures optional router collaborators
type Option func(*Router)

// WithLoaders installs the per-request dataloader middleware
func WithLoaders(mw func(http.Handler) http.Handler) Option {
	return func(r *Router) { r.loaders = mw }
}

// WithCache enables the catalog response cache
func WithCache(cache *middleware.CacheMiddleware) Option {
	return func(r *Router) { r.cacheMiddleware = cache }
}

// WithRateLimiter throttles submissions
func WithRateLimiter(limiter *middleware.RateLimiter) Option {
	return func(r *Router) { r.rateLimiter = limiter }
}

// WithClientIPResolver decides which forwarding headers are believed
func WithClientIPResolver(resolver *middleware.ClientIPResolver) Option {
	return func(r *Router) { r.clientIPs = resolver }
}

// WithMetrics records request metrics and serves the scrape endpoint
func WithMetrics(metrics *observability.Metrics, scrape http.Handler) Option {
	return func(r *Router) {
		r.metrics = metrics
		r.metricsHandler = scrape
	}
}

// WithAllowedOrigins restricts CORS origins
func WithAllowedOrigins(origins []string) Option {
	return func(r *Router) { r.allowedOrigins = origins }
}

// NewRouter creates a new router
func NewRouter(catalogHandler *handlers.CatalogHandler, bookingHandler *handlers.BookingHandler, opts ...Option) *Router {
	r := &Router{
		mux:            http.NewServeMux(),
		catalogHandler: catalogHandler,
		bookingHandler: bookingHandler,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) handle(pattern string, h http.HandlerFunc) {
	r.mux.Handle(pattern, middleware.TagRoute(h))
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.handle("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if r.metricsHandler != nil {
		r.mux.Handle("GET /metrics", middleware.TagRoute(r.metricsHandler))
	}

	// Catalog
	r.handle("GET /api/hospitals", r.catalogHandler.ListHospitals)
	r.handle("GET /api/hospitals/{id}", r.catalogHandler.GetHospital)
	r.handle("GET /api/doctors", r.catalogHandler.ListDoctors)
	r.handle("GET /api/doctors/{id}", r.catalogHandler.GetDoctor)

	// Booking
	r.handle("GET /api/availableSlots", r.bookingHandler.GetAvailableSlots)
	r.handle("GET /api/booked-times", r.bookingHandler.GetBookedTimes)
	r.handle("POST /api/appointments", r.bookingHandler.SubmitAppointment)
	r.handle("GET /api/appointments", r.bookingHandler.ListAppointments)
	r.handle("GET /api/appointments/{id}", r.bookingHandler.GetAppointment)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	if r.loaders != nil {
		handler = r.loaders(handler)
	}
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}
	if r.rateLimiter != nil {
		handler = r.rateLimiter.Middleware(handler)
	}
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	if r.clientIPs != nil {
		handler = r.clientIPs.Middleware(handler)
	}

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
