package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/trend-scanner/internal/types"
)

// DappMetric represents one day's raw metric observation for a dApp on one chain.
// Multiple rows may exist per dApp per day (one per chain); the scorer sums
// wallets/txs/volume and max-reduces followers into a per-day aggregate.
// Rows are immutable once written; the ingestion collaborator owns creation.
type DappMetric struct {
	DappID             uuid.UUID     `json:"dappId" db:"dapp_id"`
	Date               time.Time     `json:"date" db:"date"` // UTC midnight, day granularity
	Chain              types.ChainID `json:"chain" db:"chain"`
	DailyActiveWallets int64         `json:"dailyActiveWallets" db:"daily_active_wallets"`
	DailyTxCount       int64         `json:"dailyTxCount" db:"daily_tx_count"`
	VolumeUSD          float64       `json:"volumeUsd" db:"volume_usd"`
	TVLUSD             float64       `json:"tvlUsd" db:"tvl_usd"`
	TwitterFollowers   int64         `json:"twitterFollowers" db:"twitter_followers"`
}
