package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		rating float64
		want   Tier
	}{
		{0, TierSprout},
		{1299.999, TierSprout},
		{1300, TierBronze},
		{1449.999, TierBronze},
		{1450, TierSilver},
		{1500, TierSilver},
		{1599.999, TierSilver},
		{1600, TierGold},
		{1749.999, TierGold},
		{1750, TierPlatinum},
		{1899.999, TierPlatinum},
		{1900, TierDiamond},
		{2099.999, TierDiamond},
		{2100, TierGenki},
		{3000, TierGenki},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TierForRating(c.rating), "rating %v", c.rating)
	}
}

// Either condition alone makes a rating provisional.
func TestIsProvisionalDisjunction(t *testing.T) {
	assert.True(t, IsProvisional(130, 50), "high RD alone")
	assert.True(t, IsProvisional(80, 5), "low match count alone")
	assert.True(t, IsProvisional(130, 5))
	assert.False(t, IsProvisional(80, 50))
	assert.False(t, IsProvisional(120, 15), "both thresholds are exclusive")
}

func TestCompareTiers(t *testing.T) {
	assert.Equal(t, TierUp, CompareTiers(TierSilver, TierGold))
	assert.Equal(t, TierUp, CompareTiers(TierSprout, TierGenki))
	assert.Equal(t, TierDown, CompareTiers(TierDiamond, TierPlatinum))
	assert.Equal(t, TierSame, CompareTiers(TierBronze, TierBronze))
}
