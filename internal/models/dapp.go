package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/trend-scanner/internal/types"
)

// Dapp represents a tracked application whose activity is scored
// One row per dApp (primary key: id, unique slug)
type Dapp struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Slug      string          `json:"slug" db:"slug"`
	Chains    []types.ChainID `json:"chains" db:"chains"`
	Category  types.Category  `json:"category" db:"category"`
	Website   *string         `json:"website,omitempty" db:"website"`
	Twitter   *string         `json:"twitter,omitempty" db:"twitter"`
	IsActive  bool            `json:"isActive" db:"is_active"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// OnChain reports whether the dApp is deployed on the given chain
func (d *Dapp) OnChain(chain types.ChainID) bool {
	for _, c := range d.Chains {
		if c == chain {
			return true
		}
	}
	return false
}
