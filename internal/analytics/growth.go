// Package analytics provides the growth math and momentum signal
// classification for the trend scanner. All functions are pure.
package analytics

import "math"

// Weights for the composite trend score
const (
	WeightWalletGrowth       = 0.35
	WeightTxGrowth           = 0.25
	WeightVolumeAcceleration = 0.25
	WeightSocialGrowth       = 0.15
)

// GrowthRate returns the percentage change from previous to current.
// A zero previous value is pinned to 100 when current is positive and 0
// otherwise, so growth from an empty base never diverges.
func GrowthRate(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// Acceleration returns the change in growth rate across the two most recent
// periods of a most-recent-first series. Fewer than 3 points yields 0.
func Acceleration(values []float64) float64 {
	if len(values) < 3 {
		return 0
	}

	recentGrowth := GrowthRate(values[0], values[1])
	previousGrowth := GrowthRate(values[1], values[2])

	return recentGrowth - previousGrowth
}

// CompositeScore combines the weighted growth metrics into a raw score
func CompositeScore(walletGrowth7d, txGrowth7d, volumeAcceleration, socialGrowth float64) float64 {
	return walletGrowth7d*WeightWalletGrowth +
		txGrowth7d*WeightTxGrowth +
		volumeAcceleration*WeightVolumeAcceleration +
		socialGrowth*WeightSocialGrowth
}

// NormalizeScore maps a raw composite score onto [0, 100] with a saturating
// transform centered at 50: zero net growth scores neutral, extreme
// growth/decline approaches 100/0 asymptotically.
func NormalizeScore(raw float64) float64 {
	normalized := 50 + 50*math.Tanh(raw/100)
	return math.Max(0, math.Min(100, normalized))
}
