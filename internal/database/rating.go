// internal/database/rating.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/genki-league/ratings-service/internal/models"
	"github.com/genki-league/ratings-service/internal/rating"
)

const lifetimeColumns = `
	id, user_id, org_id, category,
	rating, rating_deviation, volatility,
	total_rated_matches, match_wins, match_losses, match_draws, last_match_at
`

const seasonalColumns = `
	id, user_id, org_id, season_id, category,
	rating, rating_deviation, volatility,
	total_rated_matches, match_wins, match_losses, match_draws, last_match_at
`

// LoadOrInitLifetime returns the player's lifetime rating for (org, category),
// creating it with default Glicko values on first appearance.
func (s *Store) LoadOrInitLifetime(ctx context.Context, userID, orgID uuid.UUID, category string) (*models.LifetimeRating, error) {
	lt, err := s.getLifetime(ctx, userID, orgID, category)
	if err == nil {
		return lt, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load lifetime rating: %w", err)
	}

	def := rating.DefaultGlicko()
	q := `
		INSERT INTO lifetime_ratings
			(id, user_id, org_id, category, rating, rating_deviation, volatility)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, org_id, category) DO NOTHING
	`
	if _, err := s.Pool.Exec(ctx, q, uuid.New(), userID, orgID, category,
		def.Rating, def.RatingDeviation, def.Volatility); err != nil {
		return nil, fmt.Errorf("init lifetime rating: %w", err)
	}

	lt, err = s.getLifetime(ctx, userID, orgID, category)
	if err != nil {
		return nil, fmt.Errorf("reload lifetime rating: %w", err)
	}
	return lt, nil
}

// GetLifetimeRating returns the player's current lifetime rating for
// (org, category), or (nil, nil) if the player has never been rated there.
func (s *Store) GetLifetimeRating(ctx context.Context, userID, orgID uuid.UUID, category string) (*models.LifetimeRating, error) {
	lt, err := s.getLifetime(ctx, userID, orgID, category)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lifetime rating: %w", err)
	}
	return lt, nil
}

func (s *Store) getLifetime(ctx context.Context, userID, orgID uuid.UUID, category string) (*models.LifetimeRating, error) {
	var lt models.LifetimeRating
	q := `SELECT ` + lifetimeColumns + ` FROM lifetime_ratings
	      WHERE user_id=$1 AND org_id=$2 AND category=$3`
	err := s.Pool.QueryRow(ctx, q, userID, orgID, category).Scan(
		&lt.ID, &lt.UserID, &lt.OrgID, &lt.Category,
		&lt.Rating, &lt.RatingDeviation, &lt.Volatility,
		&lt.TotalRatedMatches, &lt.MatchWins, &lt.MatchLosses, &lt.MatchDraws, &lt.LastMatchAt,
	)
	if err != nil {
		return nil, err
	}
	return &lt, nil
}

// LoadOrInitSeasonal returns the player's seasonal rating, creating it seeded
// from the supplied triple (the caller's current lifetime values) with zeroed
// counters on first touch within the season.
func (s *Store) LoadOrInitSeasonal(ctx context.Context, userID, orgID, seasonID uuid.UUID, category string, seed models.GlickoRating) (*models.SeasonalRating, error) {
	sr, err := s.getSeasonal(ctx, userID, seasonID, category)
	if err == nil {
		return sr, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load seasonal rating: %w", err)
	}

	q := `
		INSERT INTO seasonal_ratings
			(id, user_id, org_id, season_id, category, rating, rating_deviation, volatility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, org_id, season_id, category) DO NOTHING
	`
	if _, err := s.Pool.Exec(ctx, q, uuid.New(), userID, orgID, seasonID, category,
		seed.Rating, seed.RatingDeviation, seed.Volatility); err != nil {
		return nil, fmt.Errorf("init seasonal rating: %w", err)
	}

	sr, err = s.getSeasonal(ctx, userID, seasonID, category)
	if err != nil {
		return nil, fmt.Errorf("reload seasonal rating: %w", err)
	}
	return sr, nil
}

func (s *Store) getSeasonal(ctx context.Context, userID, seasonID uuid.UUID, category string) (*models.SeasonalRating, error) {
	var sr models.SeasonalRating
	q := `SELECT ` + seasonalColumns + ` FROM seasonal_ratings
	      WHERE user_id=$1 AND season_id=$2 AND category=$3`
	err := s.Pool.QueryRow(ctx, q, userID, seasonID, category).Scan(
		&sr.ID, &sr.UserID, &sr.OrgID, &sr.SeasonID, &sr.Category,
		&sr.Rating, &sr.RatingDeviation, &sr.Volatility,
		&sr.TotalRatedMatches, &sr.MatchWins, &sr.MatchLosses, &sr.MatchDraws, &sr.LastMatchAt,
	)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// GetLifetimeRatings bulk-fetches lifetime rating triples for a set of
// players. Players without a record are simply absent from the result; the
// caller substitutes defaults.
func (s *Store) GetLifetimeRatings(ctx context.Context, orgID uuid.UUID, category string, userIDs []uuid.UUID) (map[uuid.UUID]models.GlickoRating, error) {
	q := `
		SELECT user_id, rating, rating_deviation, volatility
		FROM lifetime_ratings
		WHERE org_id=$1 AND category=$2 AND user_id = ANY($3)
	`
	rows, err := s.Pool.Query(ctx, q, orgID, category, userIDs)
	if err != nil {
		return nil, fmt.Errorf("bulk lifetime lookup: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]models.GlickoRating, len(userIDs))
	for rows.Next() {
		var id uuid.UUID
		var g models.GlickoRating
		if err := rows.Scan(&id, &g.Rating, &g.RatingDeviation, &g.Volatility); err != nil {
			return nil, err
		}
		out[id] = g
	}
	return out, rows.Err()
}

// GetSeasonalRatings bulk-fetches seasonal rating triples for a set of players
// within one season. Missing players are absent from the result.
func (s *Store) GetSeasonalRatings(ctx context.Context, seasonID uuid.UUID, category string, userIDs []uuid.UUID) (map[uuid.UUID]models.GlickoRating, error) {
	q := `
		SELECT user_id, rating, rating_deviation, volatility
		FROM seasonal_ratings
		WHERE season_id=$1 AND category=$2 AND user_id = ANY($3)
	`
	rows, err := s.Pool.Query(ctx, q, seasonID, category, userIDs)
	if err != nil {
		return nil, fmt.Errorf("bulk seasonal lookup: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]models.GlickoRating, len(userIDs))
	for rows.Next() {
		var id uuid.UUID
		var g models.GlickoRating
		if err := rows.Scan(&id, &g.Rating, &g.RatingDeviation, &g.Volatility); err != nil {
			return nil, err
		}
		out[id] = g
	}
	return out, rows.Err()
}

// CommitPlayerRatings persists one player's full tournament outcome in a
// single transaction: the lifetime overwrite, the seasonal overwrite when a
// season applies, the per-match history rows, and the per-tournament audit
// row. A failure rolls back the whole player so no half-updated record exists.
func (s *Store) CommitPlayerRatings(ctx context.Context, lifetime *models.LifetimeRating, seasonal *models.SeasonalRating, history []models.RatingHistoryEntry, audit *models.TournamentRatingUpdate) error {
	err := pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ltQ := `
			UPDATE lifetime_ratings
			SET rating=$1, rating_deviation=$2, volatility=$3,
			    total_rated_matches=$4, match_wins=$5, match_losses=$6, match_draws=$7,
			    last_match_at=$8
			WHERE id=$9
		`
		if _, err := tx.Exec(ctx, ltQ,
			lifetime.Rating, lifetime.RatingDeviation, lifetime.Volatility,
			lifetime.TotalRatedMatches, lifetime.MatchWins, lifetime.MatchLosses, lifetime.MatchDraws,
			lifetime.LastMatchAt, lifetime.ID); err != nil {
			return err
		}

		if seasonal != nil {
			srQ := `
				UPDATE seasonal_ratings
				SET rating=$1, rating_deviation=$2, volatility=$3,
				    total_rated_matches=$4, match_wins=$5, match_losses=$6, match_draws=$7,
				    last_match_at=$8
				WHERE id=$9
			`
			if _, err := tx.Exec(ctx, srQ,
				seasonal.Rating, seasonal.RatingDeviation, seasonal.Volatility,
				seasonal.TotalRatedMatches, seasonal.MatchWins, seasonal.MatchLosses, seasonal.MatchDraws,
				seasonal.LastMatchAt, seasonal.ID); err != nil {
				return err
			}
		}

		histQ := `
			INSERT INTO rating_history
				(id, user_id, org_id, category, tournament_id, match_id,
				 opponent_id, opponent_rating_before, result,
				 rating_before, rating_after, deviation_before, deviation_after,
				 volatility_before, volatility_after)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`
		for _, h := range history {
			if _, err := tx.Exec(ctx, histQ,
				h.ID, h.UserID, h.OrgID, h.Category, h.TournamentID, h.MatchID,
				h.OpponentID, h.OpponentRatingBefore, h.Result,
				h.RatingBefore, h.RatingAfter, h.DeviationBefore, h.DeviationAfter,
				h.VolatilityBefore, h.VolatilityAfter); err != nil {
				return err
			}
		}

		auditQ := `
			INSERT INTO tournament_rating_updates
				(id, user_id, org_id, tournament_id, category,
				 lifetime_before, lifetime_after, lifetime_delta,
				 season_id, seasonal_before, seasonal_after, seasonal_delta,
				 tier_before, tier_after, tier_change, match_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`
		_, err := tx.Exec(ctx, auditQ,
			audit.ID, audit.UserID, audit.OrgID, audit.TournamentID, audit.Category,
			audit.LifetimeBefore, audit.LifetimeAfter, audit.LifetimeDelta,
			audit.SeasonID, audit.SeasonalBefore, audit.SeasonalAfter, audit.SeasonalDelta,
			audit.TierBefore, audit.TierAfter, audit.TierChange, audit.MatchCount)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to commit rating update for user %s: %w", lifetime.UserID, err)
	}
	return nil
}
