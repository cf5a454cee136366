package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/uwbd/uwbd/internal/uwb"
)

// NewRouter builds the admin HTTP API: session lifecycle operations under
// /sessions, plus unauthenticated liveness/readiness probes.
//
// Routes:
//   - GET  /healthz                      - liveness probe
//   - GET  /readyz                       - readiness probe
//   - POST /sessions                     - open a session
//   - GET  /sessions                     - list resident sessions
//   - GET  /sessions/{handle}            - get one session
//   - DELETE /sessions/{handle}          - close a session
//   - POST /sessions/{handle}/start      - start ranging
//   - POST /sessions/{handle}/stop       - stop ranging
//   - POST /sessions/{handle}/reconfigure - push updated params
//   - POST /sessions/{handle}/multicast  - add/remove controlees
//   - POST /sessions/{handle}/send       - send application data
//   - GET  /sessions/{handle}/events     - poll async notifications
func NewRouter(manager *uwb.Manager, ready ReadyChecker, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", Healthz)
	r.Get("/readyz", Readyz(ready))

	sessions := NewSessionHandler(manager, logger)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", sessions.Create)
		r.Get("/", sessions.List)
		r.Route("/{handle}", func(r chi.Router) {
			r.Get("/", sessions.Get)
			r.Delete("/", sessions.Destroy)
			r.Post("/start", sessions.Start)
			r.Post("/stop", sessions.Stop)
			r.Post("/reconfigure", sessions.Reconfigure)
			r.Post("/multicast", sessions.MulticastUpdate)
			r.Post("/send", sessions.SendData)
			r.Get("/events", sessions.Events)
		})
	})

	return r
}

// requestLogger logs request start/completion through logger, mirroring the
// structured-logging convention used across the rest of the daemon.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("api request",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
			)
		})
	}
}
