package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/gjnave/memo-for-windows/pkg/logging"
)

// Server hosts the metrics endpoint next to the running app. It binds
// loopback by default (see config); it carries no authentication, so it
// must not be pointed at a public interface.
type Server struct {
	exporter *Exporter
	log      *logging.Logger
	server   *http.Server
}

// NewServer wires the exporter into a mux router on addr.
func NewServer(addr string, exporter *Exporter, log *logging.Logger) *Server {
	s := &Server{
		exporter: exporter,
		log:      log,
	}

	router := mux.NewRouter()
	router.Handle("/metrics", exporter).Methods("GET")
	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start begins serving in the background. Listen failures (port taken)
// are logged, not fatal: metrics are a convenience, the launch itself
// must not die for them.
func (s *Server) Start() {
	go func() {
		s.log.Info("Metrics endpoint listening", map[string]interface{}{
			"addr": s.server.Addr,
		})
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Warn("Metrics server stopped", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests up to the
// context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleHealth reports the launch state as JSON: 200 while the app
// process is up, 503 before it starts and after it exits.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.exporter.Snap()

	w.Header().Set("Content-Type", "application/json")
	if snap.Status == "running" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.log.Debug("Failed to write health response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
