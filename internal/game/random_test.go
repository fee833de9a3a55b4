package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChoose_Thresholds(t *testing.T) {
	tests := []struct {
		draw     float64
		expected Rarity
	}{
		{0.0, RarityCommon},
		{0.59, RarityCommon},
		{0.60, RarityRare},
		{0.84, RarityRare},
		{0.85, RarityEpic},
		{0.96, RarityEpic},
		{0.97, RarityLegendary},
		{0.999, RarityLegendary},
	}

	for _, tt := range tests {
		assert.Equal(t, string(tt.expected), Choose(rarityWeights, tt.draw), "draw=%v", tt.draw)
	}
}

func TestChoose_FallbackToFirst(t *testing.T) {
	// 权重之和不足1时回落到首项
	items := []Weighted{
		{Weight: 0.3, Value: "a"},
		{Weight: 0.3, Value: "b"},
	}
	assert.Equal(t, "a", Choose(items, 0.99))
}

func TestRollCraftRarity(t *testing.T) {
	// 边界0.7不算传说
	assert.Equal(t, RarityEpic, rollCraftRarity(&fixedSource{floats: []float64{0.7}}))
	assert.Equal(t, RarityLegendary, rollCraftRarity(&fixedSource{floats: []float64{0.71}}))
	assert.Equal(t, RarityEpic, rollCraftRarity(&fixedSource{floats: []float64{0.0}}))
}

func TestRarityBoosts(t *testing.T) {
	assert.Equal(t, 0.10, rarityBoosts[RarityCommon])
	assert.Equal(t, 0.25, rarityBoosts[RarityRare])
	assert.Equal(t, 0.50, rarityBoosts[RarityEpic])
	assert.Equal(t, 1.00, rarityBoosts[RarityLegendary])
}

func TestNewReferralCode(t *testing.T) {
	rng := &fixedSource{ints: []int{0, 1, 10, 35, 9, 18}}
	code := newReferralCode(rng)
	assert.Equal(t, "ILHAM01AZ9I", code)
}
