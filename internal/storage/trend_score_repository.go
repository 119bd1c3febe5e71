package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/trend-scanner/internal/models"
)

// TrendScoreRepository handles trend score persistence.
// Rows are unique per (dapp_id, date); recomputation overwrites in place.
type TrendScoreRepository struct {
	db *PostgresDB
}

// NewTrendScoreRepository creates a new trend score repository
func NewTrendScoreRepository(db *PostgresDB) *TrendScoreRepository {
	return &TrendScoreRepository{db: db}
}

const trendScoreColumns = `dapp_id, date, wallet_growth_7d, wallet_growth_30d,
	tx_growth_7d, tx_growth_30d, volume_acceleration, social_growth, trend_score, signal`

func scanTrendScore(row pgx.Row) (*models.TrendScore, error) {
	var s models.TrendScore
	err := row.Scan(
		&s.DappID,
		&s.Date,
		&s.WalletGrowth7d,
		&s.WalletGrowth30d,
		&s.TxGrowth7d,
		&s.TxGrowth30d,
		&s.VolumeAcceleration,
		&s.SocialGrowth,
		&s.TrendScore,
		&s.Signal,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert writes a trend score keyed by (dapp_id, date). The unique
// constraint guarantees last-write-wins for concurrent same-day writers.
func (r *TrendScoreRepository) Upsert(ctx context.Context, score *models.TrendScore) error {
	query := `
		INSERT INTO trend_scores (
			dapp_id, date, wallet_growth_7d, wallet_growth_30d,
			tx_growth_7d, tx_growth_30d, volume_acceleration, social_growth,
			trend_score, signal
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (dapp_id, date)
		DO UPDATE SET
			wallet_growth_7d = EXCLUDED.wallet_growth_7d,
			wallet_growth_30d = EXCLUDED.wallet_growth_30d,
			tx_growth_7d = EXCLUDED.tx_growth_7d,
			tx_growth_30d = EXCLUDED.tx_growth_30d,
			volume_acceleration = EXCLUDED.volume_acceleration,
			social_growth = EXCLUDED.social_growth,
			trend_score = EXCLUDED.trend_score,
			signal = EXCLUDED.signal
	`

	_, err := r.db.Pool().Exec(ctx, query,
		score.DappID,
		score.Date,
		score.WalletGrowth7d,
		score.WalletGrowth30d,
		score.TxGrowth7d,
		score.TxGrowth30d,
		score.VolumeAcceleration,
		score.SocialGrowth,
		score.TrendScore,
		score.Signal,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert trend score: %w", err)
	}
	return nil
}

// Get retrieves the trend score for a dApp on a specific day
func (r *TrendScoreRepository) Get(ctx context.Context, dappID uuid.UUID, date time.Time) (*models.TrendScore, error) {
	query := `SELECT ` + trendScoreColumns + ` FROM trend_scores WHERE dapp_id = $1 AND date = $2`

	score, err := scanTrendScore(r.db.Pool().QueryRow(ctx, query, dappID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get trend score: %w", err)
	}
	return score, nil
}

// GetLatest retrieves the most recent trend score for a dApp
func (r *TrendScoreRepository) GetLatest(ctx context.Context, dappID uuid.UUID) (*models.TrendScore, error) {
	query := `SELECT ` + trendScoreColumns + ` FROM trend_scores WHERE dapp_id = $1 ORDER BY date DESC LIMIT 1`

	score, err := scanTrendScore(r.db.Pool().QueryRow(ctx, query, dappID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest trend score: %w", err)
	}
	return score, nil
}

// LatestPerDapp retrieves the most recent trend score for every dApp.
// Used by the alert matcher; dApps without any score are simply absent.
func (r *TrendScoreRepository) LatestPerDapp(ctx context.Context) (map[uuid.UUID]*models.TrendScore, error) {
	query := `
		SELECT DISTINCT ON (dapp_id) ` + trendScoreColumns + `
		FROM trend_scores
		ORDER BY dapp_id, date DESC
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest trend scores: %w", err)
	}
	defer rows.Close()

	latest := make(map[uuid.UUID]*models.TrendScore)
	for rows.Next() {
		score, err := scanTrendScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trend score: %w", err)
		}
		latest[score.DappID] = score
	}
	return latest, rows.Err()
}
