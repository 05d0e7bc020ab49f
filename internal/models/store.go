// internal/models/store.go
package models

import (
	"github.com/google/uuid"
)

// Store is a marketplace/consignment outlet (입점처). Its name is the
// human-facing join key from settlement CSV rows to a store record.
//
// CommissionRate here is a 0-100 percentage as entered on the store screen.
// MarketplaceSetting.CommissionRate is a 0-1 fraction. The settlement
// aggregator prefers the setting and falls back to this field divided by 100.
type Store struct {
	BaseModel
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Name           string    `json:"name" gorm:"size:255;not null"`
	CommissionRate *float64  `json:"commission_rate,omitempty"`
	TargetQty      *int      `json:"target_qty,omitempty"`
	Memo           string    `json:"memo" gorm:"type:text"`
	ContactName    string    `json:"contact_name" gorm:"size:100"`
	ContactPhone   string    `json:"contact_phone" gorm:"size:50"`

	// Relationships
	InventoryItems []InventoryItem `json:"inventory_items,omitempty" gorm:"foreignKey:StoreID"`
}

// MarketplaceSetting holds per-store settlement settings, one row per store.
type MarketplaceSetting struct {
	BaseModel
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	StoreID        uuid.UUID `json:"store_id" gorm:"type:uuid;not null;uniqueIndex"`
	CommissionRate float64   `json:"commission_rate"` // fraction, 0-1

	Store Store `json:"store,omitempty" gorm:"foreignKey:StoreID"`
}
