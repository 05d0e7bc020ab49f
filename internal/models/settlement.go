// internal/models/settlement.go
package models

import (
	"github.com/google/uuid"
)

// SettlementHeader is one settlement per (user, store, period month).
// A re-upload for the same store+month fully supersedes the previous one.
//
// Invariants: CommissionAmount = round(GrossAmount * CommissionRate),
// NetAmount = GrossAmount - CommissionAmount.
type SettlementHeader struct {
	BaseModel
	UserID           uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:uniq_settlement_store_period"`
	StoreID          uuid.UUID        `json:"store_id" gorm:"type:uuid;not null;uniqueIndex:uniq_settlement_store_period"`
	PeriodMonth      string           `json:"period_month" gorm:"size:7;not null;uniqueIndex:uniq_settlement_store_period"` // YYYY-MM
	Currency         string           `json:"currency" gorm:"size:3;not null;default:'KRW'"`
	GrossAmount      int64            `json:"gross_amount" gorm:"not null;default:0"`
	CommissionRate   float64          `json:"commission_rate" gorm:"not null;default:0"` // fraction, 0-1
	CommissionAmount int64            `json:"commission_amount" gorm:"not null;default:0"`
	NetAmount        int64            `json:"net_amount" gorm:"not null;default:0"`
	RowsCount        int              `json:"rows_count" gorm:"not null;default:0"`
	Status           SettlementStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	ApplyToInventory bool             `json:"apply_to_inventory" gorm:"default:false"`
	SourceFilename   string           `json:"source_filename" gorm:"size:255"`

	Store Store            `json:"store,omitempty" gorm:"foreignKey:StoreID"`
	Lines []SettlementLine `json:"lines,omitempty" gorm:"foreignKey:SettlementID"`
}

// SettlementLine is one aggregated product row under a header. Lines are
// replaced wholesale on every re-apply; there is no incremental patching.
type SettlementLine struct {
	BaseModel
	SettlementID       uuid.UUID   `json:"settlement_id" gorm:"type:uuid;not null;index"`
	ProductID          *uuid.UUID  `json:"product_id" gorm:"type:uuid;index"`
	ProductNameRaw     string      `json:"product_name_raw" gorm:"size:255"`
	ProductNameMatched string      `json:"product_name_matched" gorm:"size:255"`
	QtySold            int         `json:"qty_sold" gorm:"not null;default:0"`
	UnitPrice          int64       `json:"unit_price" gorm:"not null;default:0"`
	GrossAmount        int64       `json:"gross_amount" gorm:"not null;default:0"`
	MatchStatus        MatchStatus `json:"match_status" gorm:"type:varchar(20);default:'matched'"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
