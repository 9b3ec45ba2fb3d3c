package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus is the subset of the platform's tournament lifecycle this
// service cares about. Rating processing only ever runs against COMPLETED.
type TournamentStatus string

const (
	TournamentInProgress TournamentStatus = "IN_PROGRESS"
	TournamentCompleted  TournamentStatus = "COMPLETED"
	TournamentCancelled  TournamentStatus = "CANCELLED"
)

// MatchResult is the final outcome of a match as recorded by the pairing
// system, expressed relative to the match's player A / player B roles.
type MatchResult string

const (
	PlayerAWin      MatchResult = "PLAYER_A_WIN"
	PlayerBWin      MatchResult = "PLAYER_B_WIN"
	Draw            MatchResult = "DRAW"
	IntentionalDraw MatchResult = "INTENTIONAL_DRAW"
	DoubleLoss      MatchResult = "DOUBLE_LOSS"
	PlayerADQ       MatchResult = "PLAYER_A_DQ"
	PlayerBDQ       MatchResult = "PLAYER_B_DQ"
)

// Tournament is the platform-owned record this service reads and whose
// ratings_processed flag it flips exactly once.
type Tournament struct {
	ID       uuid.UUID        `json:"id"`
	OrgID    uuid.UUID        `json:"org_id"`
	Category string           `json:"category"`
	Status   TournamentStatus `json:"status"`

	// SeasonID is the explicit season assignment, if the organizer picked one.
	SeasonID *uuid.UUID `json:"season_id,omitempty"`

	RatingsProcessed   bool       `json:"ratings_processed"`
	RatingsProcessedAt *time.Time `json:"ratings_processed_at,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Match is one pairing inside a tournament round. PlayerBID is nil for a bye;
// byes never enter rating processing. Result is nil until reported.
type Match struct {
	ID           uuid.UUID    `json:"id"`
	TournamentID uuid.UUID    `json:"tournament_id"`
	Round        int          `json:"round"`
	PlayerAID    uuid.UUID    `json:"player_a_id"`
	PlayerBID    *uuid.UUID   `json:"player_b_id,omitempty"`
	Result       *MatchResult `json:"result,omitempty"`
}
