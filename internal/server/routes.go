package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ternarybob/premarket/internal/common"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *mux.Router {
	router := mux.NewRouter()

	if s.metrics != nil {
		router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/scan", s.handleScan).Methods(http.MethodPost)
	router.HandleFunc("/api/version", s.handleVersion).Methods(http.MethodGet)
	if s.hub != nil {
		router.HandleFunc("/api/report", s.handleReportJSON).Methods(http.MethodGet)
		router.HandleFunc("/report", s.handleReportHTML).Methods(http.MethodGet)
		router.HandleFunc("/ws", s.hub.ServeWS)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	return router
}

// handleHealth reports 200 while the scheduler is running and the last run
// (if any) succeeded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.scheduler.Status()

	code := http.StatusOK
	state := "ok"
	switch {
	case !status.Running:
		code, state = http.StatusServiceUnavailable, "stopped"
	case status.LastError != "":
		code, state = http.StatusServiceUnavailable, "degraded"
	}

	writeJSON(w, code, map[string]interface{}{
		"status":     state,
		"runs":       status.Runs,
		"last_error": status.LastError,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.scheduler.Status())
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.TriggerNow(r.Context()); err != nil {
		s.logger.Warn().Err(err).Msg("Manual scan failed")
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.scheduler.Status())
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"full":    common.GetFullVersion(),
	})
}

func (s *Server) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	ranking, _, ok := s.hub.Last()
	if !ok {
		writeError(w, http.StatusNotFound, "no scan has completed yet")
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	_, body, ok := s.hub.Last()
	if !ok {
		writeError(w, http.StatusNotFound, "no scan has completed yet")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Premarket Scout</title></head><body>\n%s</body></html>\n", body)
}
