// internal/handlers/rating.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/genki-league/ratings-service/internal/cache"
	"github.com/genki-league/ratings-service/internal/models"
	"github.com/genki-league/ratings-service/internal/processor"
	"github.com/genki-league/ratings-service/internal/rating"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// LifetimeLeaderboardHandler serves one rating-descending page of an org's
// lifetime leaderboard, cache-first.
func (s *Server) LifetimeLeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		http.Error(w, "invalid org id", http.StatusBadRequest)
		return
	}
	category := chi.URLParam(r, "category")
	limit, offset := pagination(r)

	key := cache.LifetimeLeaderboardKey(orgID, category, limit, offset)
	if entries, ok := cache.GetLeaderboard(r.Context(), key); ok {
		writeJSON(w, http.StatusOK, entries)
		return
	}

	entries, err := s.Store.LifetimeLeaderboard(r.Context(), orgID, category, limit, offset)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to load leaderboard: %v", err), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	cache.SetLeaderboard(r.Context(), key, entries)
	writeJSON(w, http.StatusOK, entries)
}

// SeasonLeaderboardHandler serves one page of a season leaderboard.
func (s *Server) SeasonLeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	seasonID, err := uuid.Parse(chi.URLParam(r, "seasonID"))
	if err != nil {
		http.Error(w, "invalid season id", http.StatusBadRequest)
		return
	}
	category := chi.URLParam(r, "category")
	limit, offset := pagination(r)

	key := cache.SeasonLeaderboardKey(seasonID, category, limit, offset)
	if entries, ok := cache.GetLeaderboard(r.Context(), key); ok {
		writeJSON(w, http.StatusOK, entries)
		return
	}

	entries, err := s.Store.SeasonLeaderboard(r.Context(), seasonID, category, limit, offset)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to load leaderboard: %v", err), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	cache.SetLeaderboard(r.Context(), key, entries)
	writeJSON(w, http.StatusOK, entries)
}

// RatingHistoryHandler serves a newest-first page of a player's per-match
// rating history. A never-rated player gets an empty page, not an error.
func (s *Server) RatingHistoryHandler(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		http.Error(w, "invalid org id", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	category := chi.URLParam(r, "category")
	limit, offset := pagination(r)

	history, err := s.Store.RatingHistory(r.Context(), userID, orgID, category, limit, offset)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to load rating history: %v", err), http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []models.RatingHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

// CurrentRatingHandler serves a player's current lifetime rating in one
// (org, category), with the derived tier and provisional flag. A player with
// no rating record gets 404, never a default triple.
func (s *Server) CurrentRatingHandler(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		http.Error(w, "invalid org id", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	category := chi.URLParam(r, "category")

	lt, err := s.Store.GetLifetimeRating(r.Context(), userID, orgID, category)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to load rating: %v", err), http.StatusInternalServerError)
		return
	}
	if lt == nil {
		http.Error(w, "player has no rating in this category", http.StatusNotFound)
		return
	}

	resp := struct {
		models.LifetimeRating
		Tier        string `json:"tier"`
		Provisional bool   `json:"provisional"`
	}{
		LifetimeRating: *lt,
		Tier:           string(rating.TierForRating(lt.Rating)),
		Provisional:    rating.IsProvisional(lt.RatingDeviation, lt.TotalRatedMatches),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeProcessorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, processor.ErrTournamentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, processor.ErrTournamentNotCompleted),
		errors.Is(err, processor.ErrAlreadyProcessed):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		s.Log.Errorf("tournament rating processing failed: %v", err)
		http.Error(w, fmt.Sprintf("rating processing failed: %v", err), http.StatusInternalServerError)
	}
}

// pagination reads limit/offset query params with sane bounds.
func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
