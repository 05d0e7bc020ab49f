// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is a catalog entry. Barcode is the join key settlement ingestion
// uses to resolve a CSV row to a product; uniqueness per user is enforced by
// a partial unique index (blank barcodes are exempt).
type Product struct {
	BaseModel
	UserID      uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	Name        string         `json:"name" gorm:"size:255;not null"`
	Category    string         `json:"category" gorm:"size:100;index"`
	Active      bool           `json:"active" gorm:"default:true"`
	MakeEnabled bool           `json:"make_enabled" gorm:"default:true"`
	Price       int64          `json:"price" gorm:"not null;default:0"`
	SKU         string         `json:"sku" gorm:"size:100"`
	Barcode     string         `json:"barcode" gorm:"size:100;index"`
	Images      pq.StringArray `json:"images" gorm:"type:text[]"`
	Memo        string         `json:"memo" gorm:"type:text"`

	// Relationships
	InventoryItems []InventoryItem `json:"inventory_items,omitempty" gorm:"foreignKey:ProductID"`
}
