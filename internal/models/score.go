package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/trend-scanner/internal/types"
)

// TrendScore represents the computed momentum record for a dApp on one day.
// Unique per (dappId, date); recomputation overwrites the same-day record.
// Growth metrics are unclamped percentages; TrendScore is always in [0, 100].
type TrendScore struct {
	DappID             uuid.UUID    `json:"dappId" db:"dapp_id"`
	Date               time.Time    `json:"date" db:"date"` // UTC midnight
	WalletGrowth7d     float64      `json:"walletGrowth7d" db:"wallet_growth_7d"`
	WalletGrowth30d    float64      `json:"walletGrowth30d" db:"wallet_growth_30d"`
	TxGrowth7d         float64      `json:"txGrowth7d" db:"tx_growth_7d"`
	TxGrowth30d        float64      `json:"txGrowth30d" db:"tx_growth_30d"`
	VolumeAcceleration float64      `json:"volumeAcceleration" db:"volume_acceleration"`
	SocialGrowth       float64      `json:"socialGrowth" db:"social_growth"`
	TrendScore         float64      `json:"trendScore" db:"trend_score"`
	Signal             types.Signal `json:"signal" db:"signal"`
}
