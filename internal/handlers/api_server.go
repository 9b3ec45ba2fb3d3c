// internal/handlers/api_server.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/genki-league/ratings-service/internal/cache"
	"github.com/genki-league/ratings-service/internal/middleware"
	"github.com/genki-league/ratings-service/internal/models"
	"github.com/genki-league/ratings-service/internal/processor"
)

// RatingProcessor triggers the once-per-tournament rating update.
type RatingProcessor interface {
	ProcessTournamentRatings(ctx context.Context, tournamentID uuid.UUID) (*processor.Summary, error)
}

// SeasonAdmin exposes the season administration operations.
type SeasonAdmin interface {
	CreateSeason(ctx context.Context, orgID uuid.UUID, name string, start, end time.Time, autoActivate bool) (*models.Season, error)
	UpdateSeasonStatus(ctx context.Context, seasonID uuid.UUID, status models.SeasonStatus) (*models.Season, error)
	InitializeSeasonRatingsForAllPlayers(ctx context.Context, seasonID uuid.UUID) (int, error)
}

// ReadStore is the query surface backing leaderboards, history, and season
// listings.
type ReadStore interface {
	LifetimeLeaderboard(ctx context.Context, orgID uuid.UUID, category string, limit, offset int) ([]models.LeaderboardEntry, error)
	SeasonLeaderboard(ctx context.Context, seasonID uuid.UUID, category string, limit, offset int) ([]models.LeaderboardEntry, error)
	RatingHistory(ctx context.Context, userID, orgID uuid.UUID, category string, limit, offset int) ([]models.RatingHistoryEntry, error)
	GetLifetimeRating(ctx context.Context, userID, orgID uuid.UUID, category string) (*models.LifetimeRating, error)
	GetSeason(ctx context.Context, id uuid.UUID) (*models.Season, error)
	ListSeasons(ctx context.Context, orgID uuid.UUID) ([]models.Season, error)
}

// Pinger reports backing-store health for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires the rating engine's HTTP surface. Authn/z is fronted by the
// surrounding platform's gateway and is not handled here.
type Server struct {
	Log       *logrus.Logger
	Processor RatingProcessor
	Seasons   SeasonAdmin
	Store     ReadStore
	DB        Pinger
}

// Router builds the chi mux with request logging.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LogMiddleware(s.Log))

	r.Post("/tournaments/{tournamentID}/ratings/process", s.ProcessTournamentHandler)

	r.Get("/orgs/{orgID}/categories/{category}/leaderboard", s.LifetimeLeaderboardHandler)
	r.Get("/seasons/{seasonID}/categories/{category}/leaderboard", s.SeasonLeaderboardHandler)
	r.Get("/orgs/{orgID}/categories/{category}/players/{userID}/history", s.RatingHistoryHandler)
	r.Get("/orgs/{orgID}/categories/{category}/players/{userID}/rating", s.CurrentRatingHandler)

	r.Post("/orgs/{orgID}/seasons", s.CreateSeasonHandler)
	r.Get("/orgs/{orgID}/seasons", s.ListSeasonsHandler)
	r.Post("/seasons/{seasonID}/ratings/initialize", s.InitializeSeasonRatingsHandler)
	r.Put("/seasons/{seasonID}/status", s.UpdateSeasonStatusHandler)

	r.Get("/healthz", s.HealthHandler)

	return r
}

// ProcessTournamentHandler runs the rating update for a completed tournament
// and invalidates the affected leaderboard caches.
func (s *Server) ProcessTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := uuid.Parse(chi.URLParam(r, "tournamentID"))
	if err != nil {
		http.Error(w, "invalid tournament id", http.StatusBadRequest)
		return
	}

	summary, err := s.Processor.ProcessTournamentRatings(r.Context(), tournamentID)
	if err != nil {
		s.writeProcessorError(w, err)
		return
	}

	cache.InvalidateLeaderboards(r.Context(), summary.OrgID, summary.Category, summary.SeasonID)

	writeJSON(w, http.StatusOK, summary)
}

// HealthHandler pings the database; Redis being down only degrades caching
// and is reported without failing the check.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{"db": "ok", "cache": "ok"}
	code := http.StatusOK
	if s.DB != nil {
		if err := s.DB.Ping(ctx); err != nil {
			status["db"] = "down"
			code = http.StatusServiceUnavailable
		}
	}
	if cache.Rdb == nil {
		status["cache"] = "disabled"
	} else if err := cache.Rdb.Ping(ctx).Err(); err != nil {
		status["cache"] = "down"
	}
	writeJSON(w, code, status)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
