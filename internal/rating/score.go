// internal/rating/score.go
package rating

import (
	"github.com/google/uuid"

	"github.com/genki-league/ratings-service/internal/models"
)

// OrientResult re-expresses a stored match result so that the lexically
// smaller player id occupies the player A role. Grouped per-player match
// entries drop the stored A/B assignment, so scoring needs a role convention
// that both sides of the match reconstruct identically.
func OrientResult(result models.MatchResult, storedAID, storedBID uuid.UUID) models.MatchResult {
	if storedAID.String() < storedBID.String() {
		return result
	}
	switch result {
	case models.PlayerAWin:
		return models.PlayerBWin
	case models.PlayerBWin:
		return models.PlayerAWin
	case models.PlayerADQ:
		return models.PlayerBDQ
	case models.PlayerBDQ:
		return models.PlayerADQ
	default:
		return result
	}
}

// ScoreForPlayer maps an oriented match result to the player's Glicko score in
// {1, 0.5, 0}. The player occupies the A role iff its id is lexically smaller
// than the opponent's. A DQ scores as a loss for the disqualified side and a
// win for the other; a double loss scores 0 for both players.
func ScoreForPlayer(playerID, opponentID uuid.UUID, result models.MatchResult) float64 {
	isPlayerA := playerID.String() < opponentID.String()

	switch result {
	case models.PlayerAWin:
		if isPlayerA {
			return 1
		}
		return 0
	case models.PlayerBWin:
		if isPlayerA {
			return 0
		}
		return 1
	case models.PlayerADQ:
		if isPlayerA {
			return 0
		}
		return 1
	case models.PlayerBDQ:
		if isPlayerA {
			return 1
		}
		return 0
	case models.Draw, models.IntentionalDraw:
		return 0.5
	case models.DoubleLoss:
		return 0
	default:
		return 0
	}
}
