package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trend-scanner/internal/models"
	"github.com/trend-scanner/internal/types"
)

// MetricRepository handles raw daily metric snapshots in ClickHouse.
// Rows are append-only; the scorer reads them by dApp and date lower bound.
type MetricRepository struct {
	db *ClickHouseDB
}

// NewMetricRepository creates a new metric repository
func NewMetricRepository(db *ClickHouseDB) *MetricRepository {
	return &MetricRepository{db: db}
}

// InsertBatch writes a batch of metric snapshots
func (r *MetricRepository) InsertBatch(ctx context.Context, metrics []*models.DappMetric) error {
	if len(metrics) == 0 {
		return nil
	}

	batch, err := r.db.Conn().PrepareBatch(ctx, `
		INSERT INTO dapp_metrics (
			dapp_id, date, chain, daily_active_wallets, daily_tx_count,
			volume_usd, tvl_usd, twitter_followers
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare metric batch: %w", err)
	}

	for _, m := range metrics {
		err := batch.Append(
			m.DappID,
			m.Date,
			string(m.Chain),
			m.DailyActiveWallets,
			m.DailyTxCount,
			m.VolumeUSD,
			m.TVLUSD,
			m.TwitterFollowers,
		)
		if err != nil {
			return fmt.Errorf("failed to append metric to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert metric batch: %w", err)
	}
	return nil
}

// ListSince retrieves all metric snapshots for a dApp with date >= since,
// newest first
func (r *MetricRepository) ListSince(ctx context.Context, dappID uuid.UUID, since time.Time) ([]*models.DappMetric, error) {
	query := `
		SELECT dapp_id, date, chain, daily_active_wallets, daily_tx_count,
		       volume_usd, tvl_usd, twitter_followers
		FROM dapp_metrics FINAL
		WHERE dapp_id = ? AND date >= ?
		ORDER BY date DESC
	`

	rows, err := r.db.Conn().Query(ctx, query, dappID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*models.DappMetric
	for rows.Next() {
		var m models.DappMetric
		var chain string
		err := rows.Scan(
			&m.DappID,
			&m.Date,
			&chain,
			&m.DailyActiveWallets,
			&m.DailyTxCount,
			&m.VolumeUSD,
			&m.TVLUSD,
			&m.TwitterFollowers,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		m.Chain = types.ChainID(chain)
		metrics = append(metrics, &m)
	}
	return metrics, rows.Err()
}
