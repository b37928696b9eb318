// Package server exposes the kvtable engine over HTTP.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ebogdum/kvtable/auth"
	"github.com/ebogdum/kvtable/config"
	"github.com/ebogdum/kvtable/core"
	"github.com/ebogdum/kvtable/metrics"
	"github.com/ebogdum/kvtable/server/handlers"
	kvMiddleware "github.com/ebogdum/kvtable/server/middleware"
)

// NewRouter creates and configures the HTTP router
func NewRouter(engine *core.Engine, serverConfig *config.ServerConfig, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(kvMiddleware.V1RequestIDMiddleware())
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if serverConfig.RequestTimeout > 0 {
		r.Use(middleware.Timeout(serverConfig.RequestTimeout))
	}
	r.Use(kvMiddleware.V1SecurityHeaders())

	// Logging and metrics middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			route := routePattern(r)

			metrics.HTTPRequestsTotal.WithLabelValues(
				r.Method,
				route,
				strconv.Itoa(ww.Status()),
			).Inc()

			metrics.HTTPRequestDuration.WithLabelValues(
				r.Method,
				route,
			).Observe(duration.Seconds())

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", duration),
				zap.String("request_id", kvMiddleware.GetRequestID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr))
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		handlers.SendJSONResponse(w, map[string]string{
			"status":  "ok",
			"backend": engine.BackendType(),
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		authenticator := auth.NewAPIKeyAuthenticator(serverConfig.APIKeys)
		if authenticator.Enabled() {
			r.Use(kvMiddleware.V1AuthMiddleware(authenticator, logger))
		} else {
			logger.Warn("No API keys configured, /v1 is unauthenticated")
		}

		if serverConfig.RateLimit > 0 {
			limiter := rate.NewLimiter(rate.Limit(serverConfig.RateLimit), serverConfig.RateBurst)
			r.Use(kvMiddleware.V1RateLimitMiddleware(limiter, logger))
		}

		r.Get("/buckets", handlers.V1ListBuckets(engine, logger))
		r.Get("/keys", handlers.V1ListKeys(engine, logger))
		r.Get("/table", handlers.V1GetTable(engine, logger))
	})

	logger.Info("HTTP router configured successfully")

	return r
}

// routePattern returns the matched chi route so metric labels stay bounded
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
