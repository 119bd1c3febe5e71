// Package types provides common type definitions for the dApp trend scanner.
package types

// Signal represents the momentum classification of a dApp
type Signal string

const (
	// SignalBreakout represents sustained high daily wallet growth (3+ consecutive days >= 20%)
	SignalBreakout Signal = "BREAKOUT"
	// SignalRising represents early-stage momentum: strong weekly growth under the volume ceiling
	SignalRising Signal = "RISING"
	// SignalDeclining represents negative wallet and transaction growth over the week
	SignalDeclining Signal = "DECLINING"
	// SignalDormant represents the default state when no other signal matches
	SignalDormant Signal = "DORMANT"
)

// AlertType represents the kind of alert a user has configured
type AlertType string

const (
	// AlertTypeBreakout notifies when dApps reach BREAKOUT status
	AlertTypeBreakout AlertType = "BREAKOUT"
	// AlertTypeGrowthThreshold notifies when dApps exceed a wallet growth threshold
	AlertTypeGrowthThreshold AlertType = "GROWTH_THRESHOLD"
	// AlertTypeCategorySignal notifies on signal changes within a watched category
	AlertTypeCategorySignal AlertType = "CATEGORY_SIGNAL"
	// AlertTypeCustom is the fallback for alerts matched on raw conditions only
	AlertTypeCustom AlertType = "CUSTOM"
)

// ChainID represents supported blockchain networks
type ChainID string

const (
	// ChainEthereum represents the Ethereum mainnet
	ChainEthereum ChainID = "ETHEREUM"
	// ChainPolygon represents the Polygon network
	ChainPolygon ChainID = "POLYGON"
	// ChainArbitrum represents the Arbitrum network
	ChainArbitrum ChainID = "ARBITRUM"
	// ChainOptimism represents the Optimism network
	ChainOptimism ChainID = "OPTIMISM"
	// ChainBase represents the Base network
	ChainBase ChainID = "BASE"
	// ChainBNB represents the BNB Chain (BSC)
	ChainBNB ChainID = "BNB"
	// ChainSolana represents the Solana network
	ChainSolana ChainID = "SOLANA"
)

// Category represents the dApp category taxonomy
type Category string

const (
	// CategoryDEX represents decentralized exchanges
	CategoryDEX Category = "DEX"
	// CategoryLending represents lending and borrowing protocols
	CategoryLending Category = "LENDING"
	// CategoryNFT represents NFT marketplaces and platforms
	CategoryNFT Category = "NFT"
	// CategoryYield represents yield and staking protocols
	CategoryYield Category = "YIELD"
	// CategoryDerivatives represents perpetuals and options protocols
	CategoryDerivatives Category = "DERIVATIVES"
	// CategoryBridge represents cross-chain bridges
	CategoryBridge Category = "BRIDGE"
	// CategorySocial represents social applications
	CategorySocial Category = "SOCIAL"
	// CategoryGaming represents gaming applications
	CategoryGaming Category = "GAMING"
	// CategoryOther represents dApps outside the named categories
	CategoryOther Category = "OTHER"
)

// Signals lists every momentum signal in classifier precedence order.
func Signals() []Signal {
	return []Signal{SignalBreakout, SignalRising, SignalDeclining, SignalDormant}
}

// ValidSignal reports whether s is one of the fixed signal values
func ValidSignal(s Signal) bool {
	switch s {
	case SignalBreakout, SignalRising, SignalDeclining, SignalDormant:
		return true
	}
	return false
}

// ValidCategory reports whether c is a known category
func ValidCategory(c Category) bool {
	switch c {
	case CategoryDEX, CategoryLending, CategoryNFT, CategoryYield,
		CategoryDerivatives, CategoryBridge, CategorySocial, CategoryGaming, CategoryOther:
		return true
	}
	return false
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
