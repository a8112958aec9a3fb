// Package web serves the read-optimized views of the booking mirror: the
// per-room overview, the calendar export and the spreadsheet export. It only
// reads the store; all writes belong to the sync loop.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"roomboard/internal/cache"
	"roomboard/internal/config"
	"roomboard/internal/database"
	"roomboard/internal/metrics"
	"roomboard/internal/shutdown"

	"github.com/rs/zerolog"
)

// Server exposes the HTTP read path.
type Server struct {
	cfg     *config.Config
	db      *database.DB
	cache   *cache.ViewCache
	server  *http.Server
	limiter *rateLimiter
	logger  *zerolog.Logger
	coord   *shutdown.Coordinator

	// now is swappable for tests.
	now func() time.Time
}

func NewServer(cfg *config.Config, db *database.DB, viewCache *cache.ViewCache, coord *shutdown.Coordinator, logger *zerolog.Logger) *Server {
	srv := &Server{
		cfg:     cfg,
		db:      db,
		cache:   viewCache,
		limiter: newRateLimiter(cfg.Web),
		logger:  logger,
		coord:   coord,
		now:     time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/overview", srv.handleOverview)
	mux.HandleFunc("/calendar.ics", srv.handleCalendar)
	mux.HandleFunc("/export.xlsx", srv.handleExport)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.limiter.Wrap(mux))

	port := cfg.Web.Port
	if cfg.Web.TLSEnabled() {
		port = cfg.Web.TLSPort
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Web.Addr, port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Run serves until the coordinator signals shutdown. A bind failure triggers
// the coordinator itself (the process cannot function without its listener)
// and is returned to the caller as fatal.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.coord.Trigger()
		return fmt.Errorf("bind web listener %s: %w", s.server.Addr, err)
	}

	go func() {
		<-s.coord.Done()
		s.logger.Debug().Msg("shutting down web server now")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}()

	var serveErr error
	if s.cfg.Web.TLSEnabled() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("webserver (HTTPS) listening")
		serveErr = s.server.ServeTLS(ln, s.cfg.Web.TLSCertFile, s.cfg.Web.TLSKeyFile)
	} else {
		s.logger.Info().Str("addr", s.server.Addr).Msg("webserver (HTTP) listening")
		serveErr = s.server.Serve(ln)
	}
	if serveErr != nil && serveErr != http.ErrServerClosed {
		s.coord.Trigger()
		return serveErr
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.IncHTTP(endpointLabel(r.URL.Path))
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// endpointLabel collapses unknown paths into one bucket; arbitrary request
// paths must not become metric label values.
func endpointLabel(path string) string {
	switch path {
	case "/api/v1/overview", "/calendar.ics", "/export.xlsx", "/healthz":
		return path
	}
	return "other"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
