package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	sched "github.com/lineforge/shopsched/internal/scheduling"
)

// NewServer wires the schedule handler and a Prometheus /metrics endpoint
// behind an access-logging middleware into one *http.Server, bound to
// addr. svc owns the scheduling pipeline; log is used for both the access
// log and the Handler's own warn/error logging.
func NewServer(addr string, svc *sched.Service, log *zap.SugaredLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/schedule", withAccessLog(log, NewHandler(svc, log)))
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// withAccessLog logs method, path, status, and latency for every request,
// the way a zap-based access logger typically wraps a plain mux handler.
// A nil logger disables logging without changing behavior.
func withAccessLog(log *zap.SugaredLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if log == nil {
			next.ServeHTTP(w, r)
			return
		}
		started := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"elapsed_ms", time.Since(started).Milliseconds(),
		)
	})
}

// statusWriter records the status code a handler wrote, since
// http.ResponseWriter doesn't expose it after the fact.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Shutdown gracefully stops srv, bounded by ctx.
func Shutdown(ctx context.Context, srv *http.Server) error {
	return srv.Shutdown(ctx)
}
