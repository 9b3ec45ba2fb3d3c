// internal/season/manager.go
package season

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/genki-league/ratings-service/internal/models"
)

var (
	// ErrInvalidSeasonRange is returned for a season whose end does not come
	// strictly after its start.
	ErrInvalidSeasonRange = errors.New("season end date must be after start date")
	// ErrSeasonOverlap is returned when a new season's date range overlaps an
	// existing season for the same organization.
	ErrSeasonOverlap = errors.New("season date range overlaps an existing season")
	// ErrSeasonNotFound is returned when a referenced season does not exist.
	ErrSeasonNotFound = errors.New("season not found")
	// ErrActiveSeasonExists is returned when activating a season while the org
	// already has a different ACTIVE one.
	ErrActiveSeasonExists = errors.New("organization already has an active season")
)

// Store is the persistence surface the manager needs. *database.Store
// satisfies it; tests use an in-memory fake.
type Store interface {
	GetSeason(ctx context.Context, id uuid.UUID) (*models.Season, error)
	GetActiveSeason(ctx context.Context, orgID uuid.UUID) (*models.Season, error)
	ListSeasons(ctx context.Context, orgID uuid.UUID) ([]models.Season, error)
	ListSeasonsByStatus(ctx context.Context, status models.SeasonStatus) ([]models.Season, error)
	InsertSeason(ctx context.Context, se *models.Season) error
	SetSeasonStatus(ctx context.Context, id uuid.UUID, status models.SeasonStatus) error
	ListLifetimeRatings(ctx context.Context, orgID uuid.UUID) ([]models.LifetimeRating, error)
	UpsertSeasonalFromLifetime(ctx context.Context, seasonID uuid.UUID, lt models.LifetimeRating) error
}

// Manager owns the season lifecycle: creation with overlap validation, status
// transitions, season resolution for tournaments, and bulk seasonal seeding.
type Manager struct {
	store Store

	// now is swappable for tests.
	now func() time.Time
}

// NewManager builds a Manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// ResolveSeasonForTournament picks the season a tournament's ratings belong
// to: an explicit season id wins; otherwise the org's ACTIVE season; otherwise
// no season at all, in which case processing is lifetime-only.
func (m *Manager) ResolveSeasonForTournament(ctx context.Context, t *models.Tournament) (*models.Season, error) {
	if t.SeasonID != nil {
		se, err := m.store.GetSeason(ctx, *t.SeasonID)
		if err != nil {
			return nil, err
		}
		if se == nil {
			return nil, fmt.Errorf("tournament %s: %w", t.ID, ErrSeasonNotFound)
		}
		return se, nil
	}
	return m.store.GetActiveSeason(ctx, t.OrgID)
}

// CreateSeason validates and persists a new season. The initial status is
// computed from the dates: ACTIVE only when autoActivate and the range covers
// now, COMPLETED when the range is entirely in the past, else UPCOMING.
// Auto-activation holds the one-ACTIVE-per-org invariant: a stale ACTIVE
// season past its end date is completed first, any other ACTIVE season is a
// conflict.
func (m *Manager) CreateSeason(ctx context.Context, orgID uuid.UUID, name string, start, end time.Time, autoActivate bool) (*models.Season, error) {
	if !end.After(start) {
		return nil, ErrInvalidSeasonRange
	}

	existing, err := m.store.ListSeasons(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for _, se := range existing {
		// Covers new-starts-inside, new-ends-inside, new-encloses, identical.
		if start.Before(se.EndDate) && se.StartDate.Before(end) {
			return nil, fmt.Errorf("%w: conflicts with %q", ErrSeasonOverlap, se.Name)
		}
	}

	now := m.now()
	status := models.SeasonUpcoming
	switch {
	case autoActivate && !start.After(now) && end.After(now):
		status = models.SeasonActive
	case !end.After(now):
		status = models.SeasonCompleted
	}

	if status == models.SeasonActive {
		active, err := m.store.GetActiveSeason(ctx, orgID)
		if err != nil {
			return nil, err
		}
		if active != nil {
			if active.EndDate.After(now) {
				return nil, fmt.Errorf("%w: %q", ErrActiveSeasonExists, active.Name)
			}
			// Stale ACTIVE season the scheduler has not swept yet: complete it
			// so the org never holds two ACTIVE rows.
			if err := m.store.SetSeasonStatus(ctx, active.ID, models.SeasonCompleted); err != nil {
				return nil, err
			}
		}
	}

	se := &models.Season{
		ID:        uuid.New(),
		OrgID:     orgID,
		Name:      name,
		StartDate: start,
		EndDate:   end,
		Status:    status,
	}
	if err := m.store.InsertSeason(ctx, se); err != nil {
		return nil, err
	}

	if status == models.SeasonActive {
		if _, err := m.InitializeSeasonRatingsForAllPlayers(ctx, se.ID); err != nil {
			return nil, err
		}
	}
	return se, nil
}

// UpdateSeasonStatus is the admin transition entry point. Activating a season
// enforces the one-ACTIVE-per-org invariant and seeds seasonal ratings.
func (m *Manager) UpdateSeasonStatus(ctx context.Context, seasonID uuid.UUID, status models.SeasonStatus) (*models.Season, error) {
	se, err := m.store.GetSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	if se == nil {
		return nil, ErrSeasonNotFound
	}
	if se.Status == status {
		return se, nil
	}

	if status == models.SeasonActive {
		active, err := m.store.GetActiveSeason(ctx, se.OrgID)
		if err != nil {
			return nil, err
		}
		if active != nil && active.ID != se.ID {
			return nil, fmt.Errorf("%w: %q", ErrActiveSeasonExists, active.Name)
		}
	}

	if err := m.store.SetSeasonStatus(ctx, seasonID, status); err != nil {
		return nil, err
	}
	se.Status = status

	if status == models.SeasonActive {
		if _, err := m.InitializeSeasonRatingsForAllPlayers(ctx, se.ID); err != nil {
			return nil, err
		}
	}
	return se, nil
}

// InitializeSeasonRatingsForAllPlayers upserts a seasonal rating for every
// lifetime rating row in the season's org, copying the rating triple and
// zeroing counters. Re-running it re-seeds back to current lifetime values,
// a destructive reset rather than a no-op. Returns the number of players
// seeded.
func (m *Manager) InitializeSeasonRatingsForAllPlayers(ctx context.Context, seasonID uuid.UUID) (int, error) {
	se, err := m.store.GetSeason(ctx, seasonID)
	if err != nil {
		return 0, err
	}
	if se == nil {
		return 0, ErrSeasonNotFound
	}

	lifetimes, err := m.store.ListLifetimeRatings(ctx, se.OrgID)
	if err != nil {
		return 0, err
	}
	for _, lt := range lifetimes {
		if err := m.store.UpsertSeasonalFromLifetime(ctx, seasonID, lt); err != nil {
			return 0, err
		}
	}

	log.WithFields(log.Fields{
		"season":  se.Name,
		"org":     se.OrgID,
		"players": len(lifetimes),
	}).Info("Seeded seasonal ratings from lifetime ratings")
	return len(lifetimes), nil
}
