package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/trend-scanner/internal/types"
)

// AlertConditions holds the declarative condition set of an alert.
// Every field is optional; nil means the condition is not applied.
// All set conditions are conjunctive. Validation happens at the API
// boundary where alerts are created; the evaluator never assumes presence.
type AlertConditions struct {
	Chain           *types.ChainID  `json:"chain,omitempty"`
	Category        *types.Category `json:"category,omitempty"`
	Signal          *types.Signal   `json:"signal,omitempty"`
	GrowthThreshold *float64        `json:"growthThreshold,omitempty"`
	ScoreThreshold  *float64        `json:"scoreThreshold,omitempty"`
}

// Alert represents a persisted user rule matched against current signals.
// The evaluator mutates only LastTriggered; all other fields are owned by
// the API layer.
type Alert struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"userId" db:"user_id"`
	Name          string          `json:"name" db:"name"`
	Type          types.AlertType `json:"type" db:"type"`
	Conditions    AlertConditions `json:"conditions" db:"conditions"`
	IsActive      bool            `json:"isActive" db:"is_active"`
	LastTriggered *time.Time      `json:"lastTriggered,omitempty" db:"last_triggered"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}
