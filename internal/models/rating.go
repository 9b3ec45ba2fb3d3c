package models

import (
	"time"

	"github.com/google/uuid"
)

// GlickoRating is the (rating, deviation, volatility) triple on the public
// 1500-centered scale. It is a value type; the persisted records embed it.
type GlickoRating struct {
	Rating          float64 `json:"rating"`
	RatingDeviation float64 `json:"rating_deviation"`
	Volatility      float64 `json:"volatility"`
}

// LifetimeRating is a player's permanent skill record for one game category
// within one organization. Created lazily on first rated appearance and never
// reset.
type LifetimeRating struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	OrgID    uuid.UUID `json:"org_id"`
	Category string    `json:"category"`

	GlickoRating

	TotalRatedMatches int        `json:"total_rated_matches"`
	MatchWins         int        `json:"match_wins"`
	MatchLosses       int        `json:"match_losses"`
	MatchDraws        int        `json:"match_draws"`
	LastMatchAt       *time.Time `json:"last_match_at,omitempty"`
}

// SeasonalRating mirrors LifetimeRating but is scoped to a single season.
// It is seeded from the player's lifetime triple, not from defaults.
type SeasonalRating struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	OrgID    uuid.UUID `json:"org_id"`
	SeasonID uuid.UUID `json:"season_id"`
	Category string    `json:"category"`

	GlickoRating

	TotalRatedMatches int        `json:"total_rated_matches"`
	MatchWins         int        `json:"match_wins"`
	MatchLosses       int        `json:"match_losses"`
	MatchDraws        int        `json:"match_draws"`
	LastMatchAt       *time.Time `json:"last_match_at,omitempty"`
}

// RatingHistoryEntry is one append-only audit row per match per player.
// Every match in a tournament batch carries the same before/after values,
// since Glicko-2 updates once per rating period rather than once per match.
type RatingHistoryEntry struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	OrgID        uuid.UUID `json:"org_id"`
	Category     string    `json:"category"`
	TournamentID uuid.UUID `json:"tournament_id"`
	MatchID      uuid.UUID `json:"match_id"`

	OpponentID           uuid.UUID   `json:"opponent_id"`
	OpponentRatingBefore float64     `json:"opponent_rating_before"`
	Result               MatchResult `json:"result"`

	RatingBefore     float64 `json:"rating_before"`
	RatingAfter      float64 `json:"rating_after"`
	DeviationBefore  float64 `json:"deviation_before"`
	DeviationAfter   float64 `json:"deviation_after"`
	VolatilityBefore float64 `json:"volatility_before"`
	VolatilityAfter  float64 `json:"volatility_after"`

	CreatedAt time.Time `json:"created_at"`
}

// TournamentRatingUpdate is the per-player, per-tournament audit record
// covering both tracks and the resulting tier movement.
type TournamentRatingUpdate struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	OrgID        uuid.UUID `json:"org_id"`
	TournamentID uuid.UUID `json:"tournament_id"`
	Category     string    `json:"category"`

	LifetimeBefore float64 `json:"lifetime_before"`
	LifetimeAfter  float64 `json:"lifetime_after"`
	LifetimeDelta  float64 `json:"lifetime_delta"`

	// Seasonal fields are nil when the tournament resolved to no season.
	SeasonID       *uuid.UUID `json:"season_id,omitempty"`
	SeasonalBefore *float64   `json:"seasonal_before,omitempty"`
	SeasonalAfter  *float64   `json:"seasonal_after,omitempty"`
	SeasonalDelta  *float64   `json:"seasonal_delta,omitempty"`

	TierBefore string `json:"tier_before"`
	TierAfter  string `json:"tier_after"`
	TierChange string `json:"tier_change"`

	MatchCount int       `json:"match_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// LeaderboardEntry is one rank-ordered row of a lifetime or season
// leaderboard. The numeric rating is exposed for admin tooling; player-facing
// clients are expected to render the tier.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      uuid.UUID `json:"user_id"`
	Rating      float64   `json:"rating"`
	Tier        string    `json:"tier"`
	Provisional bool      `json:"provisional"`
	MatchCount  int       `json:"match_count"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Draws       int       `json:"draws"`
	WinRate     float64   `json:"win_rate"`
}
