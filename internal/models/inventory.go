// internal/models/inventory.go
package models

import (
	"github.com/google/uuid"
)

// InventoryItem is the on-hand quantity of one product at one store.
// Keyed by (store_id, product_id); writes are upserts.
type InventoryItem struct {
	BaseModel
	StoreID   uuid.UUID `json:"store_id" gorm:"type:uuid;not null;uniqueIndex:uniq_inventory_store_product"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:uniq_inventory_store_product"`
	OnHandQty int       `json:"on_hand_qty" gorm:"not null;default:0"`

	Store   Store   `json:"store,omitempty" gorm:"foreignKey:StoreID"`
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
