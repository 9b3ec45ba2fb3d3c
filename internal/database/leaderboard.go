// internal/database/leaderboard.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/genki-league/ratings-service/internal/models"
	"github.com/genki-league/ratings-service/internal/rating"
)

// LifetimeLeaderboard returns one rating-descending page of the org's
// lifetime leaderboard for a category. Unrated players simply do not appear.
func (s *Store) LifetimeLeaderboard(ctx context.Context, orgID uuid.UUID, category string, limit, offset int) ([]models.LeaderboardEntry, error) {
	q := `
		SELECT user_id, rating, rating_deviation,
		       total_rated_matches, match_wins, match_losses, match_draws
		FROM lifetime_ratings
		WHERE org_id=$1 AND category=$2
		ORDER BY rating DESC, user_id
		LIMIT $3 OFFSET $4
	`
	rows, err := s.Pool.Query(ctx, q, orgID, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("lifetime leaderboard: %w", err)
	}
	defer rows.Close()
	return scanLeaderboard(rows, offset)
}

// SeasonLeaderboard returns one rating-descending page of a season
// leaderboard for a category.
func (s *Store) SeasonLeaderboard(ctx context.Context, seasonID uuid.UUID, category string, limit, offset int) ([]models.LeaderboardEntry, error) {
	q := `
		SELECT user_id, rating, rating_deviation,
		       total_rated_matches, match_wins, match_losses, match_draws
		FROM seasonal_ratings
		WHERE season_id=$1 AND category=$2
		ORDER BY rating DESC, user_id
		LIMIT $3 OFFSET $4
	`
	rows, err := s.Pool.Query(ctx, q, seasonID, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("season leaderboard: %w", err)
	}
	defer rows.Close()
	return scanLeaderboard(rows, offset)
}

type leaderboardRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanLeaderboard(rows leaderboardRows, offset int) ([]models.LeaderboardEntry, error) {
	var out []models.LeaderboardEntry
	rank := offset
	for rows.Next() {
		var e models.LeaderboardEntry
		var rd float64
		if err := rows.Scan(&e.UserID, &e.Rating, &rd,
			&e.MatchCount, &e.Wins, &e.Losses, &e.Draws); err != nil {
			return nil, err
		}
		rank++
		e.Rank = rank
		e.Tier = string(rating.TierForRating(e.Rating))
		e.Provisional = rating.IsProvisional(rd, e.MatchCount)
		if e.MatchCount > 0 {
			e.WinRate = float64(e.Wins) / float64(e.MatchCount)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RatingHistory returns a newest-first page of a player's per-match history
// in one (org, category). A never-rated player yields an empty page.
func (s *Store) RatingHistory(ctx context.Context, userID, orgID uuid.UUID, category string, limit, offset int) ([]models.RatingHistoryEntry, error) {
	q := `
		SELECT id, user_id, org_id, category, tournament_id, match_id,
		       opponent_id, opponent_rating_before, result,
		       rating_before, rating_after, deviation_before, deviation_after,
		       volatility_before, volatility_after, created_at
		FROM rating_history
		WHERE user_id=$1 AND org_id=$2 AND category=$3
		ORDER BY created_at DESC, id
		LIMIT $4 OFFSET $5
	`
	rows, err := s.Pool.Query(ctx, q, userID, orgID, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("rating history: %w", err)
	}
	defer rows.Close()

	var out []models.RatingHistoryEntry
	for rows.Next() {
		var h models.RatingHistoryEntry
		if err := rows.Scan(
			&h.ID, &h.UserID, &h.OrgID, &h.Category, &h.TournamentID, &h.MatchID,
			&h.OpponentID, &h.OpponentRatingBefore, &h.Result,
			&h.RatingBefore, &h.RatingAfter, &h.DeviationBefore, &h.DeviationAfter,
			&h.VolatilityBefore, &h.VolatilityAfter, &h.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
