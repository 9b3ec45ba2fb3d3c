// internal/handlers/season.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/genki-league/ratings-service/internal/models"
	"github.com/genki-league/ratings-service/internal/season"
)

// CreateSeasonHandler creates a season for an org.
//
// Request payload:
//
//	{ "name": "...", "start_date": RFC3339, "end_date": RFC3339, "auto_activate": bool }
func (s *Server) CreateSeasonHandler(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		http.Error(w, "invalid org id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name         string    `json:"name"`
		StartDate    time.Time `json:"start_date"`
		EndDate      time.Time `json:"end_date"`
		AutoActivate bool      `json:"auto_activate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	se, err := s.Seasons.CreateSeason(r.Context(), orgID, req.Name, req.StartDate, req.EndDate, req.AutoActivate)
	if err != nil {
		s.writeSeasonError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, se)
}

// ListSeasonsHandler returns all of the org's seasons, newest first.
func (s *Server) ListSeasonsHandler(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		http.Error(w, "invalid org id", http.StatusBadRequest)
		return
	}

	seasons, err := s.Store.ListSeasons(r.Context(), orgID)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list seasons: %v", err), http.StatusInternalServerError)
		return
	}
	if seasons == nil {
		seasons = []models.Season{}
	}
	writeJSON(w, http.StatusOK, seasons)
}

// InitializeSeasonRatingsHandler bulk-seeds seasonal ratings from lifetime
// ratings for every rated player in the season's org. Re-running re-seeds.
func (s *Server) InitializeSeasonRatingsHandler(w http.ResponseWriter, r *http.Request) {
	seasonID, err := uuid.Parse(chi.URLParam(r, "seasonID"))
	if err != nil {
		http.Error(w, "invalid season id", http.StatusBadRequest)
		return
	}

	count, err := s.Seasons.InitializeSeasonRatingsForAllPlayers(r.Context(), seasonID)
	if err != nil {
		s.writeSeasonError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"players_seeded": count})
}

// UpdateSeasonStatusHandler is the admin transition endpoint.
//
// Request payload: { "status": "UPCOMING" | "ACTIVE" | "COMPLETED" }
func (s *Server) UpdateSeasonStatusHandler(w http.ResponseWriter, r *http.Request) {
	seasonID, err := uuid.Parse(chi.URLParam(r, "seasonID"))
	if err != nil {
		http.Error(w, "invalid season id", http.StatusBadRequest)
		return
	}

	var req struct {
		Status models.SeasonStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	switch req.Status {
	case models.SeasonUpcoming, models.SeasonActive, models.SeasonCompleted:
	default:
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	se, err := s.Seasons.UpdateSeasonStatus(r.Context(), seasonID, req.Status)
	if err != nil {
		s.writeSeasonError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, se)
}

func (s *Server) writeSeasonError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, season.ErrSeasonNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, season.ErrInvalidSeasonRange),
		errors.Is(err, season.ErrSeasonOverlap),
		errors.Is(err, season.ErrActiveSeasonExists):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.Log.Errorf("season operation failed: %v", err)
		http.Error(w, fmt.Sprintf("season operation failed: %v", err), http.StatusInternalServerError)
	}
}
