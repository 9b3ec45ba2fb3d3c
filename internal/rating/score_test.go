package rating

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/genki-league/ratings-service/internal/models"
)

var (
	// low sorts lexically before high, so low holds the A role.
	lowID  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	highID = uuid.MustParse("99999999-9999-9999-9999-999999999999")
)

func TestScoreForPlayer(t *testing.T) {
	cases := []struct {
		name     string
		result   models.MatchResult
		wantLow  float64
		wantHigh float64
	}{
		{"a win", models.PlayerAWin, 1, 0},
		{"b win", models.PlayerBWin, 0, 1},
		{"draw", models.Draw, 0.5, 0.5},
		{"intentional draw", models.IntentionalDraw, 0.5, 0.5},
		{"double loss", models.DoubleLoss, 0, 0},
		{"a dq", models.PlayerADQ, 0, 1},
		{"b dq", models.PlayerBDQ, 1, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.wantLow, ScoreForPlayer(lowID, highID, c.result))
			assert.Equal(t, c.wantHigh, ScoreForPlayer(highID, lowID, c.result))
		})
	}
}

// Both sides of a decisive match must account for exactly one point between
// them; draws split it, a double loss awards none.
func TestScoreSymmetry(t *testing.T) {
	decisive := []models.MatchResult{
		models.PlayerAWin, models.PlayerBWin, models.PlayerADQ, models.PlayerBDQ,
	}
	for _, r := range decisive {
		sum := ScoreForPlayer(lowID, highID, r) + ScoreForPlayer(highID, lowID, r)
		assert.Equal(t, 1.0, sum, "result %s", r)
	}
	for _, r := range []models.MatchResult{models.Draw, models.IntentionalDraw} {
		sum := ScoreForPlayer(lowID, highID, r) + ScoreForPlayer(highID, lowID, r)
		assert.Equal(t, 1.0, sum, "result %s", r)
	}
	sum := ScoreForPlayer(lowID, highID, models.DoubleLoss) + ScoreForPlayer(highID, lowID, models.DoubleLoss)
	assert.Equal(t, 0.0, sum)
}

func TestOrientResult(t *testing.T) {
	// Stored A already lexically smaller: nothing changes.
	assert.Equal(t, models.PlayerAWin, OrientResult(models.PlayerAWin, lowID, highID))
	assert.Equal(t, models.PlayerADQ, OrientResult(models.PlayerADQ, lowID, highID))

	// Stored A lexically larger: directional results flip.
	assert.Equal(t, models.PlayerBWin, OrientResult(models.PlayerAWin, highID, lowID))
	assert.Equal(t, models.PlayerAWin, OrientResult(models.PlayerBWin, highID, lowID))
	assert.Equal(t, models.PlayerBDQ, OrientResult(models.PlayerADQ, highID, lowID))
	assert.Equal(t, models.PlayerADQ, OrientResult(models.PlayerBDQ, highID, lowID))

	// Symmetric results never flip.
	assert.Equal(t, models.Draw, OrientResult(models.Draw, highID, lowID))
	assert.Equal(t, models.DoubleLoss, OrientResult(models.DoubleLoss, highID, lowID))
}

// The stored orientation must not change who gets the point: a win recorded
// as (A=high beats B=low) scores the same as (A=low beats B=high) after
// orientation.
func TestOrientationInvariance(t *testing.T) {
	storedAsLowA := OrientResult(models.PlayerAWin, lowID, highID)  // low won
	storedAsHighA := OrientResult(models.PlayerBWin, highID, lowID) // low won

	assert.Equal(t, ScoreForPlayer(lowID, highID, storedAsLowA), ScoreForPlayer(lowID, highID, storedAsHighA))
	assert.Equal(t, 1.0, ScoreForPlayer(lowID, highID, storedAsHighA))
}
