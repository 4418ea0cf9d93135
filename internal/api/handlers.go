package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"ranktracker/internal/domain"
)

func (s *Server) handleTrackRequest(w http.ResponseWriter, r *http.Request) {
	var req domain.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Keywords) == 0 {
		s.respondWithError(w, http.StatusBadRequest, "Keywords list cannot be empty")
		return
	}
	for _, k := range req.Keywords {
		if strings.TrimSpace(k.Keyword) == "" {
			s.respondWithError(w, http.StatusBadRequest, "Keyword cannot be empty")
			return
		}
		if len(k.ASINs) == 0 {
			s.respondWithError(w, http.StatusBadRequest, "No identifiers for keyword: "+k.Keyword)
			return
		}
	}

	for _, k := range req.Keywords {
		s.tracker.Submit(domain.KeywordTask{
			Keyword: strings.TrimSpace(k.Keyword),
			ASINs:   k.ASINs,
			Force:   req.Force,
		})
	}
	s.respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Keywords accepted for tracking"})
}

func (s *Server) handleStatusRequest(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		s.respondWithError(w, http.StatusBadRequest, "keyword query parameter is required")
		return
	}

	status, err := s.store.GetRunStatus(r.Context(), keyword)
	if err != nil {
		if err.Error() == "not_found" {
			s.respondWithError(w, http.StatusNotFound, "Keyword run not found")
			return
		}
		s.logger.Error("failed to get run status", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not retrieve status")
		return
	}
	s.respondWithJSON(w, http.StatusOK, status)
}

func (s *Server) handleResultsRequest(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		s.respondWithError(w, http.StatusBadRequest, "keyword query parameter is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rows, err := s.store.GetResults(r.Context(), keyword, limit)
	if err != nil {
		s.logger.Error("failed to get results", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not retrieve results")
		return
	}
	s.respondWithJSON(w, http.StatusOK, rows)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	healthStatus := make(map[string]string)

	if err := s.store.Ping(ctx); err != nil {
		healthStatus["postgres"] = "unhealthy"
		s.logger.Error("health check failed for postgres", zap.Error(err))
	} else {
		healthStatus["postgres"] = "healthy"
	}

	if err := s.cache.Ping(ctx); err != nil {
		healthStatus["redis"] = "unhealthy"
		s.logger.Error("health check failed for redis", zap.Error(err))
	} else {
		healthStatus["redis"] = "healthy"
	}

	if healthStatus["postgres"] != "healthy" || healthStatus["redis"] != "healthy" {
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
