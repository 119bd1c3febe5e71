package analytics

import (
	"time"

	"github.com/trend-scanner/internal/types"
)

// DailyAggregate is one dApp's metrics collapsed to a single calendar day.
// Same-day rows across chains are summed for wallets/txs/volume; followers
// is a point-in-time gauge and takes the maximum observed that day.
type DailyAggregate struct {
	Date      time.Time
	Wallets   int64
	Txs       int64
	Volume    float64
	Followers int64
}

// Thresholds for signal classification
const (
	breakoutDailyGrowthPct = 20        // minimum daily wallet growth for a breakout pair
	breakoutPairTarget     = 3         // consecutive qualifying pairs required
	risingWalletGrowthPct  = 20        // weekly wallet growth floor for RISING
	risingTxGrowthPct      = 10        // weekly tx growth floor for RISING
	risingVolumeCeilingUSD = 1_000_000 // daily volume ceiling distinguishing early-stage dApps
	decliningGrowthPct     = -10       // weekly growth ceiling for DECLINING
)

// SignalInputs carries everything the classifier looks at. Window is the
// week of daily aggregates, most recent first.
type SignalInputs struct {
	WalletGrowth7d     float64
	TxGrowth7d         float64
	VolumeAcceleration float64
	LatestDailyVolume  float64
	Window             []DailyAggregate
}

// Classify maps a week of aggregates and growth metrics to a momentum signal.
// Rules are evaluated in strict precedence order; the first match wins, so
// strong recent acceleration (BREAKOUT) trumps a merely favorable week.
func Classify(in SignalInputs) types.Signal {
	if isBreakout(in.Window) {
		return types.SignalBreakout
	}

	if in.WalletGrowth7d > risingWalletGrowthPct &&
		in.TxGrowth7d > risingTxGrowthPct &&
		in.LatestDailyVolume < risingVolumeCeilingUSD {
		return types.SignalRising
	}

	if in.WalletGrowth7d < decliningGrowthPct && in.TxGrowth7d < decliningGrowthPct {
		return types.SignalDeclining
	}

	return types.SignalDormant
}

// isBreakout walks consecutive day-pairs from the most recent backward and
// counts pairs with wallet growth >= 20%, stopping at the first failing pair.
// At most the first 3 pairs are examined, so history beyond 4 days cannot
// change the outcome. Requires at least 4 days of aggregates.
func isBreakout(window []DailyAggregate) bool {
	if len(window) < 4 {
		return false
	}

	consecutive := 0
	for i := 0; i < len(window)-1 && i < breakoutPairTarget; i++ {
		growth := GrowthRate(float64(window[i].Wallets), float64(window[i+1].Wallets))
		if growth < breakoutDailyGrowthPct {
			break
		}
		consecutive++
	}

	return consecutive >= breakoutPairTarget
}
