package season

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genki-league/ratings-service/internal/models"
)

type fakeSeasonStore struct {
	seasons   map[uuid.UUID]*models.Season
	lifetimes map[uuid.UUID][]models.LifetimeRating // by org
	seasonals map[string]*models.SeasonalRating     // user|season|category
	upserts   int
}

func newFakeSeasonStore() *fakeSeasonStore {
	return &fakeSeasonStore{
		seasons:   make(map[uuid.UUID]*models.Season),
		lifetimes: make(map[uuid.UUID][]models.LifetimeRating),
		seasonals: make(map[string]*models.SeasonalRating),
	}
}

func (f *fakeSeasonStore) GetSeason(_ context.Context, id uuid.UUID) (*models.Season, error) {
	se, ok := f.seasons[id]
	if !ok {
		return nil, nil
	}
	cp := *se
	return &cp, nil
}

func (f *fakeSeasonStore) GetActiveSeason(_ context.Context, orgID uuid.UUID) (*models.Season, error) {
	for _, se := range f.seasons {
		if se.OrgID == orgID && se.Status == models.SeasonActive {
			cp := *se
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSeasonStore) ListSeasons(_ context.Context, orgID uuid.UUID) ([]models.Season, error) {
	var out []models.Season
	for _, se := range f.seasons {
		if se.OrgID == orgID {
			out = append(out, *se)
		}
	}
	return out, nil
}

func (f *fakeSeasonStore) ListSeasonsByStatus(_ context.Context, status models.SeasonStatus) ([]models.Season, error) {
	var out []models.Season
	for _, se := range f.seasons {
		if se.Status == status {
			out = append(out, *se)
		}
	}
	return out, nil
}

func (f *fakeSeasonStore) InsertSeason(_ context.Context, se *models.Season) error {
	cp := *se
	f.seasons[se.ID] = &cp
	return nil
}

func (f *fakeSeasonStore) SetSeasonStatus(_ context.Context, id uuid.UUID, status models.SeasonStatus) error {
	f.seasons[id].Status = status
	return nil
}

func (f *fakeSeasonStore) ListLifetimeRatings(_ context.Context, orgID uuid.UUID) ([]models.LifetimeRating, error) {
	return f.lifetimes[orgID], nil
}

func (f *fakeSeasonStore) UpsertSeasonalFromLifetime(_ context.Context, seasonID uuid.UUID, lt models.LifetimeRating) error {
	k := fmt.Sprintf("%s|%s|%s", lt.UserID, seasonID, lt.Category)
	f.seasonals[k] = &models.SeasonalRating{
		ID: uuid.New(), UserID: lt.UserID, OrgID: lt.OrgID, SeasonID: seasonID, Category: lt.Category,
		GlickoRating: lt.GlickoRating,
	}
	f.upserts++
	return nil
}

var testOrg = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")

func newTestManager(f *fakeSeasonStore, now time.Time) *Manager {
	m := NewManager(f)
	m.now = func() time.Time { return now }
	return m
}

func day(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestCreateSeasonRejectsInvalidRange(t *testing.T) {
	m := newTestManager(newFakeSeasonStore(), day(0))

	_, err := m.CreateSeason(context.Background(), testOrg, "Bad", day(10), day(10), false)
	assert.ErrorIs(t, err, ErrInvalidSeasonRange)

	_, err = m.CreateSeason(context.Background(), testOrg, "Bad", day(10), day(5), false)
	assert.ErrorIs(t, err, ErrInvalidSeasonRange)
}

func TestCreateSeasonRejectsOverlaps(t *testing.T) {
	f := newFakeSeasonStore()
	m := newTestManager(f, day(0))

	_, err := m.CreateSeason(context.Background(), testOrg, "Spring", day(10), day(40), false)
	require.NoError(t, err)

	overlapping := []struct {
		name       string
		start, end time.Time
	}{
		{"starts inside", day(20), day(50)},
		{"ends inside", day(0), day(20)},
		{"encloses", day(5), day(45)},
		{"identical", day(10), day(40)},
	}
	for _, c := range overlapping {
		t.Run(c.name, func(t *testing.T) {
			_, err := m.CreateSeason(context.Background(), testOrg, c.name, c.start, c.end, false)
			assert.ErrorIs(t, err, ErrSeasonOverlap)
		})
	}

	// A different org is unconstrained.
	otherOrg := uuid.New()
	_, err = m.CreateSeason(context.Background(), otherOrg, "Spring", day(10), day(40), false)
	assert.NoError(t, err)

	// Adjacent, non-overlapping ranges are fine.
	_, err = m.CreateSeason(context.Background(), testOrg, "Summer", day(40), day(70), false)
	assert.NoError(t, err)
}

func TestCreateSeasonInitialStatus(t *testing.T) {
	f := newFakeSeasonStore()
	m := newTestManager(f, day(20))

	future, err := m.CreateSeason(context.Background(), testOrg, "Future", day(100), day(130), false)
	require.NoError(t, err)
	assert.Equal(t, models.SeasonUpcoming, future.Status)

	past, err := m.CreateSeason(context.Background(), testOrg, "Past", day(0), day(10), false)
	require.NoError(t, err)
	assert.Equal(t, models.SeasonCompleted, past.Status)

	// Covers now but without autoActivate: stays UPCOMING.
	current, err := m.CreateSeason(context.Background(), testOrg, "Current", day(15), day(45), false)
	require.NoError(t, err)
	assert.Equal(t, models.SeasonUpcoming, current.Status)
}

func TestCreateSeasonAutoActivateSeedsRatings(t *testing.T) {
	f := newFakeSeasonStore()
	f.lifetimes[testOrg] = []models.LifetimeRating{
		{ID: uuid.New(), UserID: uuid.New(), OrgID: testOrg, Category: "STANDARD",
			GlickoRating: models.GlickoRating{Rating: 1620, RatingDeviation: 110, Volatility: 0.055}},
		{ID: uuid.New(), UserID: uuid.New(), OrgID: testOrg, Category: "STANDARD",
			GlickoRating: models.GlickoRating{Rating: 1480, RatingDeviation: 200, Volatility: 0.06}},
	}
	m := newTestManager(f, day(20))

	se, err := m.CreateSeason(context.Background(), testOrg, "Live", day(15), day(45), true)
	require.NoError(t, err)
	assert.Equal(t, models.SeasonActive, se.Status)
	assert.Equal(t, 2, f.upserts)

	for _, lt := range f.lifetimes[testOrg] {
		k := fmt.Sprintf("%s|%s|%s", lt.UserID, se.ID, lt.Category)
		sr := f.seasonals[k]
		require.NotNil(t, sr)
		assert.Equal(t, lt.GlickoRating, sr.GlickoRating)
		assert.Zero(t, sr.TotalRatedMatches)
	}
}

func TestCreateSeasonAutoActivateCompletesStaleActive(t *testing.T) {
	f := newFakeSeasonStore()
	stale := &models.Season{ID: uuid.New(), OrgID: testOrg, Name: "Stale",
		StartDate: day(0), EndDate: day(30), Status: models.SeasonActive}
	f.seasons[stale.ID] = stale
	m := newTestManager(f, day(40))

	se, err := m.CreateSeason(context.Background(), testOrg, "Next", day(35), day(65), true)
	require.NoError(t, err)
	assert.Equal(t, models.SeasonActive, se.Status)
	assert.Equal(t, models.SeasonCompleted, f.seasons[stale.ID].Status)

	active, err := f.ListSeasonsByStatus(context.Background(), models.SeasonActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, se.ID, active[0].ID)
}

func TestCreateSeasonAutoActivateRejectsCurrentActive(t *testing.T) {
	f := newFakeSeasonStore()
	// Activated ahead of its window by an admin; not stale, so it wins.
	early := &models.Season{ID: uuid.New(), OrgID: testOrg, Name: "Early",
		StartDate: day(50), EndDate: day(80), Status: models.SeasonActive}
	f.seasons[early.ID] = early
	m := newTestManager(f, day(20))

	_, err := m.CreateSeason(context.Background(), testOrg, "Clash", day(10), day(30), true)
	assert.ErrorIs(t, err, ErrActiveSeasonExists)

	active, err := f.ListSeasonsByStatus(context.Background(), models.SeasonActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, early.ID, active[0].ID)
}

func TestResolveSeasonPrecedence(t *testing.T) {
	f := newFakeSeasonStore()
	m := newTestManager(f, day(20))

	explicit := &models.Season{ID: uuid.New(), OrgID: testOrg, Name: "Explicit",
		StartDate: day(0), EndDate: day(10), Status: models.SeasonCompleted}
	active := &models.Season{ID: uuid.New(), OrgID: testOrg, Name: "Active",
		StartDate: day(15), EndDate: day(45), Status: models.SeasonActive}
	f.seasons[explicit.ID] = explicit
	f.seasons[active.ID] = active

	// Explicit season id wins even over the active season.
	tourney := &models.Tournament{ID: uuid.New(), OrgID: testOrg, SeasonID: &explicit.ID}
	got, err := m.ResolveSeasonForTournament(context.Background(), tourney)
	require.NoError(t, err)
	assert.Equal(t, explicit.ID, got.ID)

	// No explicit id: falls back to the org's active season.
	tourney.SeasonID = nil
	got, err = m.ResolveSeasonForTournament(context.Background(), tourney)
	require.NoError(t, err)
	assert.Equal(t, active.ID, got.ID)

	// No active season either: no season, not an error.
	f.seasons[active.ID].Status = models.SeasonCompleted
	got, err = m.ResolveSeasonForTournament(context.Background(), tourney)
	require.NoError(t, err)
	assert.Nil(t, got)

	// A dangling explicit id is an error.
	missing := uuid.New()
	tourney.SeasonID = &missing
	_, err = m.ResolveSeasonForTournament(context.Background(), tourney)
	assert.ErrorIs(t, err, ErrSeasonNotFound)
}

func TestUpdateSeasonStatusEnforcesSingleActive(t *testing.T) {
	f := newFakeSeasonStore()
	m := newTestManager(f, day(20))

	a := &models.Season{ID: uuid.New(), OrgID: testOrg, Name: "A",
		StartDate: day(0), EndDate: day(30), Status: models.SeasonActive}
	b := &models.Season{ID: uuid.New(), OrgID: testOrg, Name: "B",
		StartDate: day(40), EndDate: day(70), Status: models.SeasonUpcoming}
	f.seasons[a.ID] = a
	f.seasons[b.ID] = b

	_, err := m.UpdateSeasonStatus(context.Background(), b.ID, models.SeasonActive)
	assert.ErrorIs(t, err, ErrActiveSeasonExists)

	_, err = m.UpdateSeasonStatus(context.Background(), a.ID, models.SeasonCompleted)
	require.NoError(t, err)

	got, err := m.UpdateSeasonStatus(context.Background(), b.ID, models.SeasonActive)
	require.NoError(t, err)
	assert.Equal(t, models.SeasonActive, got.Status)
}

func TestInitializeSeasonRatingsReRunReSeeds(t *testing.T) {
	f := newFakeSeasonStore()
	userID := uuid.New()
	f.lifetimes[testOrg] = []models.LifetimeRating{
		{ID: uuid.New(), UserID: userID, OrgID: testOrg, Category: "STANDARD",
			GlickoRating: models.GlickoRating{Rating: 1550, RatingDeviation: 120, Volatility: 0.06}},
	}
	se := &models.Season{ID: uuid.New(), OrgID: testOrg, Name: "S",
		StartDate: day(0), EndDate: day(30), Status: models.SeasonActive}
	f.seasons[se.ID] = se
	m := newTestManager(f, day(10))

	count, err := m.InitializeSeasonRatingsForAllPlayers(context.Background(), se.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Simulate mid-season drift, then re-seed: values snap back to lifetime.
	k := fmt.Sprintf("%s|%s|STANDARD", userID, se.ID)
	f.seasonals[k].Rating = 1300
	f.seasonals[k].TotalRatedMatches = 7

	_, err = m.InitializeSeasonRatingsForAllPlayers(context.Background(), se.ID)
	require.NoError(t, err)
	assert.Equal(t, 1550.0, f.seasonals[k].Rating)
	assert.Zero(t, f.seasonals[k].TotalRatedMatches)

	_, err = m.InitializeSeasonRatingsForAllPlayers(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSeasonNotFound)
}

func TestRunStatusTransitions(t *testing.T) {
	f := newFakeSeasonStore()
	opening := &models.Season{ID: uuid.New(), OrgID: testOrg, Name: "Opening",
		StartDate: day(10), EndDate: day(40), Status: models.SeasonUpcoming}
	closing := &models.Season{ID: uuid.New(), OrgID: uuid.New(), Name: "Closing",
		StartDate: day(0), EndDate: day(15), Status: models.SeasonActive}
	farFuture := &models.Season{ID: uuid.New(), OrgID: testOrg, Name: "Far",
		StartDate: day(100), EndDate: day(130), Status: models.SeasonUpcoming}
	f.seasons[opening.ID] = opening
	f.seasons[closing.ID] = closing
	f.seasons[farFuture.ID] = farFuture

	m := newTestManager(f, day(20))
	m.RunStatusTransitions(context.Background())

	assert.Equal(t, models.SeasonActive, f.seasons[opening.ID].Status)
	assert.Equal(t, models.SeasonCompleted, f.seasons[closing.ID].Status)
	assert.Equal(t, models.SeasonUpcoming, f.seasons[farFuture.ID].Status)
}

// At the shared boundary instant the outgoing season ends and its successor
// begins, in one pass, without the org ever holding two ACTIVE seasons.
func TestRunStatusTransitionsHandsOverAtBoundary(t *testing.T) {
	f := newFakeSeasonStore()
	spring := &models.Season{ID: uuid.New(), OrgID: testOrg, Name: "Spring",
		StartDate: day(0), EndDate: day(30), Status: models.SeasonActive}
	summer := &models.Season{ID: uuid.New(), OrgID: testOrg, Name: "Summer",
		StartDate: day(30), EndDate: day(60), Status: models.SeasonUpcoming}
	f.seasons[spring.ID] = spring
	f.seasons[summer.ID] = summer

	m := newTestManager(f, day(30))
	m.RunStatusTransitions(context.Background())

	assert.Equal(t, models.SeasonCompleted, f.seasons[spring.ID].Status)
	assert.Equal(t, models.SeasonActive, f.seasons[summer.ID].Status)

	active, err := f.ListSeasonsByStatus(context.Background(), models.SeasonActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
}
