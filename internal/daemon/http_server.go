package daemon

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/autocommit/internal/config"
	derrors "git.home.luguber.info/inful/autocommit/internal/errors"
	"git.home.luguber.info/inful/autocommit/internal/logfields"
	"git.home.luguber.info/inful/autocommit/internal/metrics"
	"git.home.luguber.info/inful/autocommit/internal/server/handlers"
	smw "git.home.luguber.info/inful/autocommit/internal/server/middleware"
)

// HTTPServer serves the control and status API.
type HTTPServer struct {
	server       *http.Server
	listener     net.Listener
	config       *config.Config
	daemon       *Daemon
	errorAdapter *derrors.HTTPErrorAdapter

	apiHandlers        *handlers.APIHandlers
	monitoringHandlers *handlers.MonitoringHandlers

	mchain func(http.Handler) http.Handler
}

// NewHTTPServer creates the API server for the daemon.
func NewHTTPServer(cfg *config.Config, d *Daemon) *HTTPServer {
	s := &HTTPServer{
		config:       cfg,
		daemon:       d,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
	}

	s.apiHandlers = handlers.NewAPIHandlers(cfg, d.Scheduler(), d.Store(), d.Gateway(), d)
	s.monitoringHandlers = handlers.NewMonitoringHandlers(d.StartTime(), d)
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter)

	return s
}

// Start begins listening. It returns once the listener is bound; serving
// continues in the background.
func (s *HTTPServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.apiHandlers.HandleStatus)
	mux.HandleFunc("/api/history", s.apiHandlers.HandleHistory)
	mux.HandleFunc("/api/stats", s.apiHandlers.HandleStats)
	mux.HandleFunc("/api/control", s.apiHandlers.HandleControl)
	mux.HandleFunc("/api/config", s.apiHandlers.HandleConfig)
	mux.HandleFunc("/healthz", s.monitoringHandlers.HandleHealthCheck)
	mux.Handle("/metrics", metrics.HTTPHandler(s.daemon.registry))

	addr := fmt.Sprintf(":%d", s.config.Daemon.HTTP.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mchain(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.listener = listener

	go func() {
		slog.Info("HTTP server listening", slog.String("addr", listener.Addr().String()))
		if err := s.server.Serve(listener); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", logfields.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *HTTPServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully stops the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
