// Package httpapi exposes the punch ledger over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Tiliavir/punch/internal/ledger"
	"github.com/Tiliavir/punch/internal/observability"
)

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(l *ledger.Ledger, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(durationMiddleware(metrics))

	r.Get("/healthz", healthzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/punches", recordPunchHandler(l, logger))
		r.Get("/state", stateHandler(l))
		r.Get("/records", recordsHandler(l))
		r.Get("/bank", bankHandler(l))
		r.Get("/status", statusHandler(l))
		r.Get("/summary", summaryHandler(l))
	})

	return r
}

// durationMiddleware observes request latency labelled by route pattern.
func durationMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			metrics.RecordRequestDuration(route, time.Since(start))
		})
	}
}
