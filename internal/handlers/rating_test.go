// internal/handlers/rating_test.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genki-league/ratings-service/internal/models"
	"github.com/genki-league/ratings-service/internal/processor"
)

type fakeProcessor struct {
	summary *processor.Summary
	err     error
}

func (f *fakeProcessor) ProcessTournamentRatings(context.Context, uuid.UUID) (*processor.Summary, error) {
	return f.summary, f.err
}

type fakeReadStore struct {
	entries  []models.LeaderboardEntry
	history  []models.RatingHistoryEntry
	seasons  []models.Season
	lifetime *models.LifetimeRating
}

func (f *fakeReadStore) LifetimeLeaderboard(_ context.Context, _ uuid.UUID, _ string, limit, offset int) ([]models.LeaderboardEntry, error) {
	return page(f.entries, limit, offset), nil
}

func (f *fakeReadStore) SeasonLeaderboard(_ context.Context, _ uuid.UUID, _ string, limit, offset int) ([]models.LeaderboardEntry, error) {
	return page(f.entries, limit, offset), nil
}

func (f *fakeReadStore) RatingHistory(_ context.Context, _, _ uuid.UUID, _ string, _, _ int) ([]models.RatingHistoryEntry, error) {
	return f.history, nil
}

func (f *fakeReadStore) GetLifetimeRating(context.Context, uuid.UUID, uuid.UUID, string) (*models.LifetimeRating, error) {
	return f.lifetime, nil
}

func (f *fakeReadStore) GetSeason(context.Context, uuid.UUID) (*models.Season, error) {
	return nil, nil
}

func (f *fakeReadStore) ListSeasons(context.Context, uuid.UUID) ([]models.Season, error) {
	return f.seasons, nil
}

func page(entries []models.LeaderboardEntry, limit, offset int) []models.LeaderboardEntry {
	if offset >= len(entries) {
		return nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end]
}

type fakeSeasonAdmin struct {
	created *models.Season
	err     error
	seeded  int
}

func (f *fakeSeasonAdmin) CreateSeason(_ context.Context, orgID uuid.UUID, name string, start, end time.Time, _ bool) (*models.Season, error) {
	if f.err != nil {
		return nil, f.err
	}
	se := &models.Season{ID: uuid.New(), OrgID: orgID, Name: name, StartDate: start, EndDate: end, Status: models.SeasonUpcoming}
	f.created = se
	return se, nil
}

func (f *fakeSeasonAdmin) UpdateSeasonStatus(_ context.Context, id uuid.UUID, status models.SeasonStatus) (*models.Season, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Season{ID: id, Status: status}, nil
}

func (f *fakeSeasonAdmin) InitializeSeasonRatingsForAllPlayers(context.Context, uuid.UUID) (int, error) {
	return f.seeded, f.err
}

func newTestServer(p RatingProcessor, store ReadStore, admin SeasonAdmin) *Server {
	logger := logrus.New()
	logger.SetOutput(&strings.Builder{})
	return &Server{Log: logger, Processor: p, Seasons: admin, Store: store}
}

func TestProcessTournamentHandler(t *testing.T) {
	tid := uuid.New()
	summary := &processor.Summary{
		TournamentID: tid, OrgID: uuid.New(), Category: "STANDARD",
		PlayersProcessed: 8, MatchesProcessed: 12,
	}
	srv := newTestServer(&fakeProcessor{summary: summary}, &fakeReadStore{}, &fakeSeasonAdmin{})

	req := httptest.NewRequest("POST", "/tournaments/"+tid.String()+"/ratings/process", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "body=%s", w.Body.String())
	var got processor.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 8, got.PlayersProcessed)
}

func TestProcessTournamentHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{processor.ErrTournamentNotFound, http.StatusNotFound},
		{processor.ErrTournamentNotCompleted, http.StatusConflict},
		{processor.ErrAlreadyProcessed, http.StatusConflict},
	}
	for _, c := range cases {
		srv := newTestServer(&fakeProcessor{err: c.err}, &fakeReadStore{}, &fakeSeasonAdmin{})
		req := httptest.NewRequest("POST", "/tournaments/"+uuid.NewString()+"/ratings/process", nil)
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, c.code, w.Code, "error %v", c.err)
	}
}

func TestLifetimeLeaderboardHandler(t *testing.T) {
	entries := make([]models.LeaderboardEntry, 5)
	for i := range entries {
		entries[i] = models.LeaderboardEntry{Rank: i + 1, UserID: uuid.New(), Rating: 1700 - float64(i*50)}
	}
	srv := newTestServer(&fakeProcessor{}, &fakeReadStore{entries: entries}, &fakeSeasonAdmin{})

	req := httptest.NewRequest("GET", "/orgs/"+uuid.NewString()+"/categories/STANDARD/leaderboard?limit=2&offset=1", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got []models.LeaderboardEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Rank)
}

func TestRatingHistoryHandlerEmptyForUnratedPlayer(t *testing.T) {
	srv := newTestServer(&fakeProcessor{}, &fakeReadStore{}, &fakeSeasonAdmin{})

	url := "/orgs/" + uuid.NewString() + "/categories/STANDARD/players/" + uuid.NewString() + "/history"
	req := httptest.NewRequest("GET", url, nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestCurrentRatingHandler(t *testing.T) {
	lt := &models.LifetimeRating{
		ID: uuid.New(), UserID: uuid.New(), OrgID: uuid.New(), Category: "STANDARD",
		GlickoRating:      models.GlickoRating{Rating: 1815, RatingDeviation: 60, Volatility: 0.05},
		TotalRatedMatches: 40, MatchWins: 25, MatchLosses: 12, MatchDraws: 3,
	}
	srv := newTestServer(&fakeProcessor{}, &fakeReadStore{lifetime: lt}, &fakeSeasonAdmin{})

	url := "/orgs/" + lt.OrgID.String() + "/categories/STANDARD/players/" + lt.UserID.String() + "/rating"
	req := httptest.NewRequest("GET", url, nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "body=%s", w.Body.String())
	var got struct {
		Rating      float64 `json:"rating"`
		Tier        string  `json:"tier"`
		Provisional bool    `json:"provisional"`
		MatchCount  int     `json:"total_rated_matches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 1815.0, got.Rating)
	assert.Equal(t, "PLATINUM", got.Tier)
	assert.False(t, got.Provisional)
	assert.Equal(t, 40, got.MatchCount)
}

func TestCurrentRatingHandlerUnknownPlayer(t *testing.T) {
	srv := newTestServer(&fakeProcessor{}, &fakeReadStore{}, &fakeSeasonAdmin{})

	url := "/orgs/" + uuid.NewString() + "/categories/STANDARD/players/" + uuid.NewString() + "/rating"
	req := httptest.NewRequest("GET", url, nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSeasonHandlerValidation(t *testing.T) {
	admin := &fakeSeasonAdmin{}
	srv := newTestServer(&fakeProcessor{}, &fakeReadStore{}, admin)
	orgID := uuid.NewString()

	body := `{"name":"Spring Split","start_date":"2026-03-01T00:00:00Z","end_date":"2026-06-01T00:00:00Z"}`
	req := httptest.NewRequest("POST", "/orgs/"+orgID+"/seasons", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code, "body=%s", w.Body.String())

	req = httptest.NewRequest("POST", "/orgs/"+orgID+"/seasons", strings.NewReader(`{"start_date":"2026-03-01T00:00:00Z","end_date":"2026-06-01T00:00:00Z"}`))
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing name")

	req = httptest.NewRequest("PUT", "/seasons/"+uuid.NewString()+"/status", strings.NewReader(`{"status":"PAUSED"}`))
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code, "invalid status")
}
