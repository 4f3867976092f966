// Package api serves the reporting dashboard: declarative, read-only
// bindings from the warehouse's published views to HTML pages.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmeza/limaq/internal/reports"
)

type Server struct {
	store *reports.Store
	port  string
	tmpl  templates
}

func NewServer(store *reports.Store, port string) *Server {
	return &Server{
		store: store,
		port:  port,
		tmpl:  newTemplates(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/daily", s.handleDailyCity)
	mux.HandleFunc("/hourly", s.handleHourlyCity)
	mux.HandleFunc("/district", s.handleDistrictDetail)
	mux.HandleFunc("/map", s.handleBubbleMap)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
