// internal/rating/tier.go
package rating

// Tier is the player-facing skill bracket derived from a numeric rating.
type Tier string

const (
	TierSprout   Tier = "SPROUT"
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
	TierDiamond  Tier = "DIAMOND"
	TierGenki    Tier = "GENKI"
)

const (
	// ProvisionalRDThreshold marks a rating as unreliable above this deviation.
	ProvisionalRDThreshold = 120.0
	// ProvisionalMatchThreshold marks a rating as unreliable below this match count.
	ProvisionalMatchThreshold = 15
)

// TierChangeDirection describes tier movement across a rating update.
type TierChangeDirection string

const (
	TierUp   TierChangeDirection = "UP"
	TierDown TierChangeDirection = "DOWN"
	TierSame TierChangeDirection = "SAME"
)

// TierForRating buckets a rating into a tier. Boundaries are inclusive on the
// low side: exactly 1300 is BRONZE, not SPROUT.
func TierForRating(rating float64) Tier {
	switch {
	case rating < 1300:
		return TierSprout
	case rating < 1450:
		return TierBronze
	case rating < 1600:
		return TierSilver
	case rating < 1750:
		return TierGold
	case rating < 1900:
		return TierPlatinum
	case rating < 2100:
		return TierDiamond
	default:
		return TierGenki
	}
}

// IsProvisional reports whether a rating is still unreliable. Either a high
// deviation or a low match count alone is sufficient.
func IsProvisional(ratingDeviation float64, totalMatches int) bool {
	return ratingDeviation > ProvisionalRDThreshold || totalMatches < ProvisionalMatchThreshold
}

var tierRank = map[Tier]int{
	TierSprout:   0,
	TierBronze:   1,
	TierSilver:   2,
	TierGold:     3,
	TierPlatinum: 4,
	TierDiamond:  5,
	TierGenki:    6,
}

// CompareTiers returns the movement direction from old to new.
func CompareTiers(old, new Tier) TierChangeDirection {
	oldRank, newRank := tierRank[old], tierRank[new]
	switch {
	case newRank > oldRank:
		return TierUp
	case newRank < oldRank:
		return TierDown
	default:
		return TierSame
	}
}
