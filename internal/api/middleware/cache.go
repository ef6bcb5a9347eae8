package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/streamlinecare/internal/domain/providers"
	"github.com/zatekoja/streamlinecare/internal/infrastructure/observability"
)

// ResponseCachePrefix namespaces cached responses under the catalog keyspace
// so catalog invalidation clears them too.
const ResponseCachePrefix = "catalog:http:"

// CacheConfig holds cache configuration for specific routes
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// DefaultCacheRoutes caches the read-only catalog. Slots and appointments
// change with every booking and are never cached.
func DefaultCacheRoutes() map[string]CacheConfig {
	return map[string]CacheConfig{
		"/api/hospitals": {TTLSeconds: 300, Enabled: true},
		"/api/doctors":   {TTLSeconds: 300, Enabled: true},
	}
}

// CacheMiddleware provides HTTP response caching
type CacheMiddleware struct {
	cache        providers.CacheProvider
	routeConfigs map[string]CacheConfig
	metrics      *observability.Metrics
}

// NewCacheMiddleware creates a new cache middleware for the catalog routes
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics) *CacheMiddleware {
	return NewCacheMiddlewareWithConfig(cache, metrics, DefaultCacheRoutes())
}

// NewCacheMiddlewareWithConfig creates a cache middleware with custom routes
func NewCacheMiddlewareWithConfig(cache providers.CacheProvider, metrics *observability.Metrics, configs map[string]CacheConfig) *CacheMiddleware {
	return &CacheMiddleware{
		cache:        cache,
		routeConfigs: configs,
		metrics:      metrics,
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		prefix, config := m.getRouteConfig(r.URL.Path)
		if !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := m.generateCacheKey(r)

		if cached, err := m.cache.Get(r.Context(), cacheKey); err == nil {
			observability.RecordCacheHit(r.Context(), m.metrics, prefix)
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}

		observability.RecordCacheMiss(r.Context(), m.metrics, prefix)
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		// Only cache successful responses
		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(r.Context(), cacheKey, recorder.body.Bytes(), config.TTLSeconds); err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to cache response")
			}
		}
	})
}

// getRouteConfig gets the cache configuration for a route. A configured
// path also covers its sub-resources.
func (m *CacheMiddleware) getRouteConfig(path string) (string, CacheConfig) {
	if config, exists := m.routeConfigs[path]; exists {
		return path, config
	}
	for pattern, config := range m.routeConfigs {
		if strings.HasPrefix(path, strings.TrimSuffix(pattern, "/")+"/") {
			return pattern, config
		}
	}
	return "", CacheConfig{Enabled: false}
}

// generateCacheKey generates a cache key from the request
func (m *CacheMiddleware) generateCacheKey(r *http.Request) string {
	key := r.Method + ":" + r.URL.Path
	if q := r.URL.Query(); len(q) > 0 {
		key += "?" + q.Encode() // Encode sorts by key
	}

	hash := sha256.Sum256([]byte(key))
	return ResponseCachePrefix + hex.EncodeToString(hash[:])
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

// WriteHeader captures the status code
func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

// Write captures the response body and writes to the client
func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
