// Package server provides the HTTP API over the aggregated event stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/aggregator"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/database"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/dedupe"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/filter"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/logger"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/registry"
)

// refreshTimeout bounds an on-demand poll cycle.
const refreshTimeout = 5 * time.Minute

// Server is the HTTP API server.
type Server struct {
	db     database.Store
	agg    *aggregator.Aggregator
	reg    *registry.Registry
	engine *filter.Engine
	log    *logger.Logger
	router chi.Router
}

// New creates a server.
func New(db database.Store, agg *aggregator.Aggregator, reg *registry.Registry, engine *filter.Engine, log *logger.Logger) *Server {
	s := &Server{
		db:     db,
		agg:    agg,
		reg:    reg,
		engine: engine,
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", s.handleEvents)
		r.Get("/rinks", s.handleRinks)
		r.Get("/status", s.handleStatus)
		r.Post("/refresh", s.handleRefresh)
	})

	s.router = r
}

// Handler exposes the router for serving and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP listener.
func (s *Server) Start(addr string) error {
	s.log.Info("server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// handleEvents evaluates the filter settings carried in the query string
// against the merged event stream and returns the display-ready list.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.db.ReadAllEvents()
	if err != nil {
		s.log.Error("read events failed", "err", err)
		http.Error(w, "Failed to read events", http.StatusInternalServerError)
		return
	}

	settings := filter.DecodeQuery(r.URL.Query())
	scope := settings.View

	out := s.engine.Evaluate(dedupe.Events(events), settings, scope)
	s.writeJSON(w, out)
}

func (s *Server) handleRinks(w http.ResponseWriter, r *http.Request) {
	type rinkInfo struct {
		ID         string `json:"id"`
		FacilityID string `json:"facilityId"`
		Name       string `json:"name"`
		Label      string `json:"label"`
	}
	type facilityInfo struct {
		ID    string     `json:"id"`
		Name  string     `json:"name"`
		Rinks []rinkInfo `json:"rinks"`
	}

	byFacility := make(map[string][]rinkInfo)
	for _, rink := range s.reg.Rinks() {
		byFacility[rink.FacilityID] = append(byFacility[rink.FacilityID], rinkInfo{
			ID:         rink.ID,
			FacilityID: rink.FacilityID,
			Name:       rink.DisplayName,
			Label:      s.reg.Label(rink.ID),
		})
	}
	out := make([]facilityInfo, 0, len(byFacility))
	for _, f := range s.reg.Facilities() {
		out = append(out, facilityInfo{
			ID:    f.ID,
			Name:  f.DisplayName,
			Rinks: byFacility[f.ID],
		})
	}
	s.writeJSON(w, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	metadata, err := s.db.ReadAllMetadata()
	if err != nil {
		s.log.Error("read metadata failed", "err", err)
		http.Error(w, "Failed to read status", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, metadata)
}

// handleRefresh runs an on-demand poll cycle. Partial success reports
// 200 with per-source detail; only a fully failed cycle is an error.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
	defer cancel()

	summary, err := s.agg.RunAll(ctx)
	if err != nil && !errors.Is(err, aggregator.ErrAllSourcesFailed) {
		http.Error(w, "Refresh failed", http.StatusInternalServerError)
		return
	}

	perSource := make(map[string]string, len(summary.Results))
	for id, res := range summary.Results {
		if res.Err != nil {
			perSource[id] = res.Err.Error()
		} else {
			perSource[id] = "ok"
		}
	}
	status := http.StatusOK
	if errors.Is(err, aggregator.ErrAllSourcesFailed) {
		status = http.StatusBadGateway
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"events":  summary.TotalEvents,
		"failed":  summary.Failed,
		"sources": perSource,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response failed", "err", err)
	}
}
