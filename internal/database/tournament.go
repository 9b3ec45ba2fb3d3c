// internal/database/tournament.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/genki-league/ratings-service/internal/models"
)

// GetTournament fetches the platform-owned tournament row; (nil, nil) when it
// does not exist.
func (s *Store) GetTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	var t models.Tournament
	q := `
		SELECT id, org_id, category, status, season_id,
		       ratings_processed, ratings_processed_at, completed_at
		FROM tournaments
		WHERE id=$1
	`
	err := s.Pool.QueryRow(ctx, q, id).Scan(
		&t.ID, &t.OrgID, &t.Category, &t.Status, &t.SeasonID,
		&t.RatingsProcessed, &t.RatingsProcessedAt, &t.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tournament: %w", err)
	}
	return &t, nil
}

// GetTournamentMatches returns every match of the tournament across all
// rounds, including unreported ones; the processor filters on final results.
func (s *Store) GetTournamentMatches(ctx context.Context, tournamentID uuid.UUID) ([]models.Match, error) {
	q := `
		SELECT id, tournament_id, round, player_a_id, player_b_id, result
		FROM matches
		WHERE tournament_id=$1
		ORDER BY round, id
	`
	rows, err := s.Pool.Query(ctx, q, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("get tournament matches: %w", err)
	}
	defer rows.Close()

	var out []models.Match
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.ID, &m.TournamentID, &m.Round, &m.PlayerAID, &m.PlayerBID, &m.Result); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkTournamentProcessed flips ratings_processed from false to true as a
// compare-and-set. It reports false when the flag was already set, which lets
// the processor reject a concurrent duplicate trigger.
func (s *Store) MarkTournamentProcessed(ctx context.Context, id uuid.UUID) (bool, error) {
	q := `
		UPDATE tournaments
		SET ratings_processed=true, ratings_processed_at=now()
		WHERE id=$1 AND ratings_processed=false
	`
	tag, err := s.Pool.Exec(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("mark tournament processed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
