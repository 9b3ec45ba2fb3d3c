// internal/database/season.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/genki-league/ratings-service/internal/models"
)

const seasonColumns = `id, org_id, name, start_date, end_date, status, created_at`

func scanSeason(row pgx.Row) (*models.Season, error) {
	var se models.Season
	err := row.Scan(&se.ID, &se.OrgID, &se.Name, &se.StartDate, &se.EndDate, &se.Status, &se.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &se, nil
}

// GetSeason fetches one season; (nil, nil) when no such row exists.
func (s *Store) GetSeason(ctx context.Context, id uuid.UUID) (*models.Season, error) {
	q := `SELECT ` + seasonColumns + ` FROM seasons WHERE id=$1`
	se, err := scanSeason(s.Pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get season: %w", err)
	}
	return se, nil
}

// GetActiveSeason returns the org's single ACTIVE season, or (nil, nil).
func (s *Store) GetActiveSeason(ctx context.Context, orgID uuid.UUID) (*models.Season, error) {
	q := `SELECT ` + seasonColumns + ` FROM seasons WHERE org_id=$1 AND status=$2`
	se, err := scanSeason(s.Pool.QueryRow(ctx, q, orgID, models.SeasonActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active season: %w", err)
	}
	return se, nil
}

// ListSeasons returns all of the org's seasons, newest start date first.
func (s *Store) ListSeasons(ctx context.Context, orgID uuid.UUID) ([]models.Season, error) {
	q := `SELECT ` + seasonColumns + ` FROM seasons WHERE org_id=$1 ORDER BY start_date DESC`
	rows, err := s.Pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	var out []models.Season
	for rows.Next() {
		se, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *se)
	}
	return out, rows.Err()
}

// ListSeasonsByStatus returns seasons across all orgs in the given status,
// used by the lifecycle scheduler.
func (s *Store) ListSeasonsByStatus(ctx context.Context, status models.SeasonStatus) ([]models.Season, error) {
	q := `SELECT ` + seasonColumns + ` FROM seasons WHERE status=$1`
	rows, err := s.Pool.Query(ctx, q, status)
	if err != nil {
		return nil, fmt.Errorf("list seasons by status: %w", err)
	}
	defer rows.Close()

	var out []models.Season
	for rows.Next() {
		se, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *se)
	}
	return out, rows.Err()
}

// InsertSeason persists a new season row.
func (s *Store) InsertSeason(ctx context.Context, se *models.Season) error {
	q := `
		INSERT INTO seasons (id, org_id, name, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	err := pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, se.ID, se.OrgID, se.Name, se.StartDate, se.EndDate, se.Status)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert season: %w", err)
	}
	return nil
}

// SetSeasonStatus updates a season's lifecycle status.
func (s *Store) SetSeasonStatus(ctx context.Context, id uuid.UUID, status models.SeasonStatus) error {
	err := pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `UPDATE seasons SET status=$1 WHERE id=$2`, status, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("set season status: %w", err)
	}
	return nil
}

// ListLifetimeRatings returns every lifetime rating row in the org, across
// categories, for bulk seasonal seeding.
func (s *Store) ListLifetimeRatings(ctx context.Context, orgID uuid.UUID) ([]models.LifetimeRating, error) {
	q := `SELECT ` + lifetimeColumns + ` FROM lifetime_ratings WHERE org_id=$1`
	rows, err := s.Pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, fmt.Errorf("list lifetime ratings: %w", err)
	}
	defer rows.Close()

	var out []models.LifetimeRating
	for rows.Next() {
		var lt models.LifetimeRating
		if err := rows.Scan(
			&lt.ID, &lt.UserID, &lt.OrgID, &lt.Category,
			&lt.Rating, &lt.RatingDeviation, &lt.Volatility,
			&lt.TotalRatedMatches, &lt.MatchWins, &lt.MatchLosses, &lt.MatchDraws, &lt.LastMatchAt,
		); err != nil {
			return nil, err
		}
		out = append(out, lt)
	}
	return out, rows.Err()
}

// UpsertSeasonalFromLifetime seeds (or destructively re-seeds) one player's
// seasonal rating from their lifetime triple, zeroing all season counters.
func (s *Store) UpsertSeasonalFromLifetime(ctx context.Context, seasonID uuid.UUID, lt models.LifetimeRating) error {
	q := `
		INSERT INTO seasonal_ratings
			(id, user_id, org_id, season_id, category, rating, rating_deviation, volatility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, org_id, season_id, category) DO UPDATE
		SET rating=EXCLUDED.rating,
		    rating_deviation=EXCLUDED.rating_deviation,
		    volatility=EXCLUDED.volatility,
		    total_rated_matches=0, match_wins=0, match_losses=0, match_draws=0,
		    last_match_at=NULL
	`
	err := pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, uuid.New(), lt.UserID, lt.OrgID, seasonID, lt.Category,
			lt.Rating, lt.RatingDeviation, lt.Volatility)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert seasonal rating for user %s: %w", lt.UserID, err)
	}
	return nil
}
