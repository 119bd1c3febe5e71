package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/trend-scanner/internal/models"
	"github.com/trend-scanner/internal/types"
)

// DappRepository handles dApp directory persistence
type DappRepository struct {
	db *PostgresDB
}

// NewDappRepository creates a new dApp repository
func NewDappRepository(db *PostgresDB) *DappRepository {
	return &DappRepository{db: db}
}

const dappColumns = `id, name, slug, chains, category, website, twitter, is_active, created_at, updated_at`

func scanDapp(row pgx.Row) (*models.Dapp, error) {
	var d models.Dapp
	var chains []string
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Slug,
		&chains,
		&d.Category,
		&d.Website,
		&d.Twitter,
		&d.IsActive,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Chains = make([]types.ChainID, len(chains))
	for i, c := range chains {
		d.Chains[i] = types.ChainID(c)
	}
	return &d, nil
}

// Get retrieves a dApp by id
func (r *DappRepository) Get(ctx context.Context, id uuid.UUID) (*models.Dapp, error) {
	query := `SELECT ` + dappColumns + ` FROM dapps WHERE id = $1`

	dapp, err := scanDapp(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get dapp: %w", err)
	}
	return dapp, nil
}

// GetBySlug retrieves a dApp by its unique slug
func (r *DappRepository) GetBySlug(ctx context.Context, slug string) (*models.Dapp, error) {
	query := `SELECT ` + dappColumns + ` FROM dapps WHERE slug = $1`

	dapp, err := scanDapp(r.db.Pool().QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get dapp by slug: %w", err)
	}
	return dapp, nil
}

// ListActive retrieves all active dApps, the scoring and matching universe
func (r *DappRepository) ListActive(ctx context.Context) ([]*models.Dapp, error) {
	query := `SELECT ` + dappColumns + ` FROM dapps WHERE is_active = true ORDER BY name`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active dapps: %w", err)
	}
	defer rows.Close()

	var dapps []*models.Dapp
	for rows.Next() {
		dapp, err := scanDapp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dapp: %w", err)
		}
		dapps = append(dapps, dapp)
	}
	return dapps, rows.Err()
}

// Upsert creates or updates a dApp record keyed by slug
func (r *DappRepository) Upsert(ctx context.Context, dapp *models.Dapp) error {
	if dapp.ID == uuid.Nil {
		dapp.ID = uuid.New()
	}
	if !types.ValidCategory(dapp.Category) {
		return &types.ServiceError{
			Code:    "INVALID_CATEGORY",
			Message: fmt.Sprintf("unknown dapp category: %s", dapp.Category),
			Details: map[string]interface{}{"category": string(dapp.Category)},
		}
	}

	chains := make([]string, len(dapp.Chains))
	for i, c := range dapp.Chains {
		chains[i] = string(c)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO dapps (id, name, slug, chains, category, website, twitter, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (slug)
		DO UPDATE SET
			name = EXCLUDED.name,
			chains = EXCLUDED.chains,
			category = EXCLUDED.category,
			website = EXCLUDED.website,
			twitter = EXCLUDED.twitter,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Pool().Exec(ctx, query,
		dapp.ID,
		dapp.Name,
		dapp.Slug,
		chains,
		dapp.Category,
		dapp.Website,
		dapp.Twitter,
		dapp.IsActive,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert dapp: %w", err)
	}
	return nil
}

// SetActive flips the active flag for a dApp
func (r *DappRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE dapps SET is_active = $2, updated_at = now() WHERE id = $1`
	result, err := r.db.Pool().Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to set dapp active flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("dapp not found: %s", id)
	}
	return nil
}
