package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trend-scanner/internal/config"
	"github.com/trend-scanner/internal/models"
	"github.com/trend-scanner/internal/types"
)

// setupTestPostgres connects to a local Postgres instance and skips the test
// when none is available. The migrated schema is expected to exist.
func setupTestPostgres(t *testing.T) *PostgresDB {
	t.Helper()

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	db, err := NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	t.Cleanup(db.Close)

	return db
}

func testDapp(slug string) *models.Dapp {
	website := "https://example.org"
	return &models.Dapp{
		ID:       uuid.New(),
		Name:     "Test " + slug,
		Slug:     slug,
		Chains:   []types.ChainID{types.ChainEthereum, types.ChainBase},
		Category: types.CategoryDEX,
		Website:  &website,
		IsActive: true,
	}
}

func TestDappRepositoryRoundTrip(t *testing.T) {
	db := setupTestPostgres(t)
	repo := NewDappRepository(db)
	ctx := context.Background()

	slug := fmt.Sprintf("roundtrip-%s", uuid.New())
	dapp := testDapp(slug)
	t.Cleanup(func() {
		_, _ = db.Pool().Exec(context.Background(), `DELETE FROM dapps WHERE slug = $1`, slug)
	})

	require.NoError(t, repo.Upsert(ctx, dapp))

	got, err := repo.GetBySlug(ctx, slug)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, dapp.Name, got.Name)
	assert.Equal(t, []types.ChainID{types.ChainEthereum, types.ChainBase}, got.Chains)
	assert.Equal(t, types.CategoryDEX, got.Category)
	assert.True(t, got.IsActive)

	// Upserting the same slug updates in place rather than inserting.
	dapp.Name = "Renamed"
	require.NoError(t, repo.Upsert(ctx, dapp))
	got, err = repo.GetBySlug(ctx, slug)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	// Deactivated dApps drop out of the active universe.
	require.NoError(t, repo.SetActive(ctx, got.ID, false))
	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	for _, d := range active {
		assert.NotEqual(t, slug, d.Slug)
	}
}

func TestDappRepositoryGetMissing(t *testing.T) {
	db := setupTestPostgres(t)
	repo := NewDappRepository(db)

	got, err := repo.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTrendScoreRepositoryUpsertIdempotent(t *testing.T) {
	db := setupTestPostgres(t)
	dappRepo := NewDappRepository(db)
	scoreRepo := NewTrendScoreRepository(db)
	ctx := context.Background()

	slug := fmt.Sprintf("score-%s", uuid.New())
	dapp := testDapp(slug)
	require.NoError(t, dappRepo.Upsert(ctx, dapp))
	stored, err := dappRepo.GetBySlug(ctx, slug)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Pool().Exec(context.Background(), `DELETE FROM dapps WHERE slug = $1`, slug)
	})

	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	score := &models.TrendScore{
		DappID:         stored.ID,
		Date:           date,
		WalletGrowth7d: 42.5,
		TxGrowth7d:     12.1,
		TrendScore:     67.3,
		Signal:         types.SignalRising,
	}

	// Writing the same (dapp_id, date) twice leaves exactly one row.
	require.NoError(t, scoreRepo.Upsert(ctx, score))
	score.TrendScore = 70.1
	require.NoError(t, scoreRepo.Upsert(ctx, score))

	got, err := scoreRepo.Get(ctx, stored.ID, date)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 70.1, got.TrendScore, 1e-9)

	var count int
	err = db.Pool().QueryRow(ctx,
		`SELECT count(*) FROM trend_scores WHERE dapp_id = $1`, stored.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// LatestPerDapp picks the newest row per dApp.
	older := *score
	older.Date = date.AddDate(0, 0, -1)
	older.TrendScore = 10
	require.NoError(t, scoreRepo.Upsert(ctx, &older))

	latest, err := scoreRepo.LatestPerDapp(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest[stored.ID])
	assert.InDelta(t, 70.1, latest[stored.ID].TrendScore, 1e-9)
}
