package storage

import (
	"context"
	"fmt"
)

// clickHouseSchema holds the DDL for the metrics tables. ClickHouse schema
// is bootstrapped programmatically; versioned migrations live in Postgres only.
var clickHouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS dapp_metrics (
		dapp_id UUID,
		date Date,
		chain LowCardinality(String),
		daily_active_wallets Int64,
		daily_tx_count Int64,
		volume_usd Float64,
		tvl_usd Float64,
		twitter_followers Int64,
		ingested_at DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(ingested_at)
	PARTITION BY toYYYYMM(date)
	ORDER BY (dapp_id, date, chain)`,
}

// EnsureClickHouseSchema creates the ClickHouse tables if they do not exist
func EnsureClickHouseSchema(ctx context.Context, db *ClickHouseDB) error {
	for _, ddl := range clickHouseSchema {
		if err := db.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to apply ClickHouse schema: %w", err)
		}
	}
	return nil
}
