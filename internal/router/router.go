package router

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-user-directory-go/internal/observability"
	"github.com/ovaphlow/pitchfork/service-user-directory-go/internal/user"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes mounts HTTP handlers on the standard library's http.ServeMux.
// Both adapters reach the mux through the service passed in at startup, so a
// test can substitute either with a double.
func RegisterRoutes(logger *zap.SugaredLogger, svc *user.UserService, authCfg AuthConfig) http.Handler {
	mux := http.NewServeMux()

	// health and metrics
	mux.HandleFunc("GET /user-directory/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// user routes; the literal /user/filter and /user/search patterns take
	// precedence over the {id} wildcard
	h := user.NewHandler(svc, logger)
	mux.HandleFunc("GET /user", h.ListAll)
	mux.HandleFunc("GET /user/filter", h.Filter)
	mux.HandleFunc("GET /user/search", h.Search)
	mux.HandleFunc("GET /user/{id}", h.GetByID)

	guard := RequireAuth(authCfg, logger)
	mux.Handle("POST /user", guard(http.HandlerFunc(h.Create)))
	mux.Handle("PUT /user/{id}", guard(http.HandlerFunc(h.Update)))

	// wrap with security headers, then metrics, then request logging
	handler := LoggingMiddleware(logger)(observability.HTTPMiddleware()(SecurityHeadersMiddleware()(mux)))
	return handler
}
