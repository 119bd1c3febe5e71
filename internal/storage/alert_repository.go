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

// AlertRepository handles alert persistence. The evaluator only ever
// reads active alerts and writes last_triggered; everything else belongs
// to the API layer.
type AlertRepository struct {
	db *PostgresDB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *PostgresDB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `id, user_id, name, type, conditions, is_active, last_triggered, created_at`

func scanAlert(row pgx.Row) (*models.Alert, error) {
	var a models.Alert
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Name,
		&a.Type,
		&a.Conditions,
		&a.IsActive,
		&a.LastTriggered,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create persists a new alert
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO alerts (id, user_id, name, type, conditions, is_active, last_triggered, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		alert.ID,
		alert.UserID,
		alert.Name,
		alert.Type,
		alert.Conditions,
		alert.IsActive,
		alert.LastTriggered,
		alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// Get retrieves an alert by id
func (r *AlertRepository) Get(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	alert, err := scanAlert(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return alert, nil
}

// ListActive retrieves all active alerts with their conditions and
// last_triggered timestamps
func (r *AlertRepository) ListActive(ctx context.Context) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE is_active = true ORDER BY created_at`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// UpdateLastTriggered records when an alert last fired
func (r *AlertRepository) UpdateLastTriggered(ctx context.Context, id uuid.UUID, triggeredAt time.Time) error {
	query := `UPDATE alerts SET last_triggered = $2 WHERE id = $1`
	result, err := r.db.Pool().Exec(ctx, query, id, triggeredAt)
	if err != nil {
		return fmt.Errorf("failed to update last triggered: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("alert not found: %s", id)
	}
	return nil
}
