// internal/services/settlement_service.go
package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/settly-kr/settly-backend/internal/csvutil"
	"github.com/settly-kr/settly-backend/internal/models"
	"github.com/settly-kr/settly-backend/internal/settlement"
	"github.com/settly-kr/settly-backend/internal/utils"
)

type SettlementService struct {
	db        *gorm.DB
	stores    *StoreService
	products  *ProductService
	inventory *InventoryService
	notices   *NoticeService
}

type PreviewRequest struct {
	StoreName   string              `json:"store_name" validate:"required"`
	PeriodMonth string              `json:"period_month" validate:"required,period_month"`
	Filename    string              `json:"filename"`
	Data        []byte              `json:"-"`
	Mapping     *settlement.Mapping `json:"mapping,omitempty"`
}

type PreviewResponse struct {
	Headers []string                `json:"headers"`
	Mapping settlement.Mapping      `json:"mapping"`
	Rows    []settlement.PreviewRow `json:"rows"`
}

type LegacyPreviewRequest struct {
	StoreName   string                    `json:"store_name" validate:"required"`
	PeriodMonth string                    `json:"period_month" validate:"required,period_month"`
	Filename    string                    `json:"filename"`
	Data        []byte                    `json:"-"`
	Mapping     *settlement.LegacyMapping `json:"mapping,omitempty"`
}

type LegacyPreviewResponse struct {
	Headers []string                 `json:"headers"`
	Mapping settlement.LegacyMapping `json:"mapping"`
	Rows    []settlement.PreviewRow  `json:"rows"`
}

type ApplyRequest struct {
	Rows             []settlement.PreviewRow    `json:"rows" validate:"required,min=1"`
	ApplyToInventory bool                       `json:"apply_to_inventory"`
	ConfirmInventory bool                       `json:"confirm_inventory"`
	SourceFilename   string                     `json:"source_filename"`
	UnitPricePolicy  settlement.UnitPricePolicy `json:"unit_price_policy,omitempty"`
}

type SettlementSearchParams struct {
	utils.PaginationParams
	StoreID    *uuid.UUID               `json:"store_id,omitempty"`
	PeriodFrom string                   `json:"period_from,omitempty"`
	PeriodTo   string                   `json:"period_to,omitempty"`
	Status     *models.SettlementStatus `json:"status,omitempty"`
}

func NewSettlementService(db *gorm.DB, stores *StoreService, products *ProductService, inventory *InventoryService, notices *NoticeService) *SettlementService {
	return &SettlementService{
		db:        db,
		stores:    stores,
		products:  products,
		inventory: inventory,
		notices:   notices,
	}
}

// Preview parses an uploaded settlement file, maps columns (guessed unless
// the caller supplies a mapping) and validates every row against the live
// catalog and store list. Nothing is persisted; the client holds the rows
// and posts them back on apply.
func (s *SettlementService) Preview(userID uuid.UUID, req *PreviewRequest) (*PreviewResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	table, err := s.parseUpload(req.Filename, req.Data)
	if err != nil {
		return nil, err
	}
	if len(table.Headers) == 0 {
		return nil, errors.New("파일에서 헤더를 읽을 수 없습니다")
	}

	mapping := settlement.GuessMapping(table.Headers)
	if req.Mapping != nil {
		mapping = *req.Mapping
	}

	rows, err := settlement.ExtractRows(table, mapping)
	if err != nil {
		return nil, err
	}

	products, err := s.products.Refs(userID)
	if err != nil {
		return nil, err
	}
	stores, err := s.stores.Refs(userID)
	if err != nil {
		return nil, err
	}

	preview := settlement.BuildPreview(rows, req.StoreName, req.PeriodMonth, models.CurrencyKRW, products, stores)

	return &PreviewResponse{
		Headers: table.Headers,
		Mapping: mapping,
		Rows:    preview,
	}, nil
}

// PreviewLegacy is Preview for the older product-name-keyed upload: columns
// are mapped through the legacy contract and rows are matched by product
// name (SKU as fallback) instead of barcode. The resulting rows feed the
// same resolve and apply flow.
func (s *SettlementService) PreviewLegacy(userID uuid.UUID, req *LegacyPreviewRequest) (*LegacyPreviewResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	table, err := s.parseUpload(req.Filename, req.Data)
	if err != nil {
		return nil, err
	}
	if len(table.Headers) == 0 {
		return nil, errors.New("파일에서 헤더를 읽을 수 없습니다")
	}

	mapping := settlement.GuessLegacyMapping(table.Headers)
	if req.Mapping != nil {
		mapping = *req.Mapping
	}

	rows, err := settlement.ExtractLegacyRows(table, mapping)
	if err != nil {
		return nil, err
	}

	products, err := s.products.Refs(userID)
	if err != nil {
		return nil, err
	}
	stores, err := s.stores.Refs(userID)
	if err != nil {
		return nil, err
	}

	preview := settlement.BuildLegacyPreview(rows, req.StoreName, req.PeriodMonth, models.CurrencyKRW, products, stores)

	return &LegacyPreviewResponse{
		Headers: table.Headers,
		Mapping: mapping,
		Rows:    preview,
	}, nil
}

func (s *SettlementService) parseUpload(filename string, data []byte) (csvutil.Table, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		return csvutil.ParseXLSX(bytes.NewReader(data))
	}
	return csvutil.Parse(string(data)), nil
}

// Apply aggregates the validated preview rows into per-(store, period)
// settlements and persists each one: header upsert, wholesale line
// replacement and, when requested and confirmed, inventory deltas, all in
// one transaction per group. Groups are written sequentially; a failure
// stops the batch but already-committed groups stay committed.
func (s *SettlementService) Apply(userID uuid.UUID, req *ApplyRequest) ([]*models.SettlementHeader, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if !settlement.CanApply(req.Rows) {
		return nil, errors.New("오류가 있는 행이 남아 있습니다. 수정하거나 제외 처리 후 다시 시도하세요")
	}

	// Inventory confirmation is checked before any write so declining can
	// never leave a half-applied settlement behind.
	if req.ApplyToInventory && !req.ConfirmInventory {
		return nil, errors.New("재고 반영 확인이 필요합니다")
	}

	groups := settlement.Aggregate(req.Rows, settlement.Options{UnitPricePolicy: req.UnitPricePolicy})
	if len(groups) == 0 {
		return nil, errors.New("적용할 행이 없습니다")
	}

	headers := make([]*models.SettlementHeader, 0, len(groups))
	for _, group := range groups {
		header, err := s.applyGroup(userID, group, req)
		if err != nil {
			if s.notices != nil {
				s.notices.Publish(NoticeLevelError, fmt.Sprintf("정산 저장 실패 (%s %s): %v",
					group.Key.StoreID, group.Key.PeriodMonth, err))
			}
			return headers, err
		}
		headers = append(headers, header)
	}

	if s.notices != nil {
		s.notices.Publish(NoticeLevelSuccess, fmt.Sprintf("정산 %d건이 저장되었습니다", len(headers)))
	}

	return headers, nil
}

func (s *SettlementService) applyGroup(userID uuid.UUID, group settlement.Group, req *ApplyRequest) (*models.SettlementHeader, error) {
	var header models.SettlementHeader

	err := s.db.Transaction(func(tx *gorm.DB) error {
		storeRate, err := s.resolveRate(tx, userID, group.Key.StoreID)
		if err != nil {
			return err
		}

		commission, net := settlement.Commission(group.GrossAmount, storeRate)

		oldQty := make(map[uuid.UUID]int)
		err = tx.Where("user_id = ? AND store_id = ? AND period_month = ?",
			userID, group.Key.StoreID, group.Key.PeriodMonth).
			First(&header).Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("database error: %w", err)
		}

		if exists {
			// Sold quantities previously recorded for this store+period,
			// reconstructed before the lines are replaced.
			var prevLines []models.SettlementLine
			if err := tx.Where("settlement_id = ?", header.ID).Find(&prevLines).Error; err != nil {
				return fmt.Errorf("failed to load existing lines: %w", err)
			}
			for _, l := range prevLines {
				if l.ProductID != nil {
					oldQty[*l.ProductID] += l.QtySold
				}
			}
		}

		header.UserID = userID
		header.StoreID = group.Key.StoreID
		header.PeriodMonth = group.Key.PeriodMonth
		header.Currency = models.CurrencyKRW
		header.GrossAmount = group.GrossAmount
		header.CommissionRate = storeRate
		header.CommissionAmount = commission
		header.NetAmount = net
		header.RowsCount = group.RowsCount
		header.Status = models.SettlementStatusDraft
		header.ApplyToInventory = req.ApplyToInventory
		header.SourceFilename = req.SourceFilename

		if exists {
			if err := tx.Save(&header).Error; err != nil {
				return fmt.Errorf("failed to update settlement header: %w", err)
			}
		} else {
			if err := tx.Create(&header).Error; err != nil {
				return fmt.Errorf("failed to create settlement header: %w", err)
			}
		}

		// Wholesale replacement: delete everything, insert the new set.
		if err := tx.Unscoped().
			Where("settlement_id = ?", header.ID).
			Delete(&models.SettlementLine{}).Error; err != nil {
			return fmt.Errorf("failed to delete existing lines: %w", err)
		}

		newQty := make(map[uuid.UUID]int)
		lines := make([]models.SettlementLine, 0, len(group.Lines))
		for _, l := range group.Lines {
			productID := l.ProductID
			matchStatus := models.MatchStatusMatched
			if l.ManualMatch {
				matchStatus = models.MatchStatusManual
			}
			lines = append(lines, models.SettlementLine{
				SettlementID:       header.ID,
				ProductID:          &productID,
				ProductNameRaw:     l.ProductNameRaw,
				ProductNameMatched: l.ProductNameMatched,
				QtySold:            l.QtySold,
				UnitPrice:          l.UnitPrice,
				GrossAmount:        l.GrossAmount,
				MatchStatus:        matchStatus,
			})
			newQty[l.ProductID] += l.QtySold
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return fmt.Errorf("failed to insert settlement lines: %w", err)
			}
		}

		if req.ApplyToInventory {
			if err := s.inventory.ApplyDeltas(tx, group.Key.StoreID, oldQty, newQty); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"settlement_id": header.ID,
		"store_id":      header.StoreID,
		"period_month":  header.PeriodMonth,
		"gross_amount":  header.GrossAmount,
		"rows_count":    header.RowsCount,
	}).Info("Settlement applied")

	return &header, nil
}

func (s *SettlementService) resolveRate(tx *gorm.DB, userID, storeID uuid.UUID) (float64, error) {
	var store models.Store
	if err := tx.Where("user_id = ?", userID).First(&store, storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errors.New("store not found")
		}
		return 0, fmt.Errorf("database error: %w", err)
	}

	var setting models.MarketplaceSetting
	err := tx.Where("user_id = ? AND store_id = ?", userID, storeID).First(&setting).Error
	switch {
	case err == nil:
		return setting.CommissionRate, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return settlement.ResolveRate(nil, settlement.StoreRef{
			ID:             store.ID,
			Name:           store.Name,
			CommissionRate: store.CommissionRate,
		}), nil
	default:
		return 0, fmt.Errorf("database error: %w", err)
	}
}

// Delete removes a settlement: lines first, then the header. A header
// delete that matches zero rows is a hard failure: it means a caller or
// permission mismatch that must not be silently swallowed. With restore
// requested, the full sold quantities are added back to on-hand first.
func (s *SettlementService) Delete(userID, id uuid.UUID, restoreInventory bool) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var header models.SettlementHeader
		if err := tx.Where("user_id = ?", userID).First(&header, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("settlement not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		var lines []models.SettlementLine
		if err := tx.Where("settlement_id = ?", header.ID).Find(&lines).Error; err != nil {
			return fmt.Errorf("failed to load lines: %w", err)
		}

		if restoreInventory {
			perProduct := make(map[uuid.UUID]int)
			for _, l := range lines {
				if l.ProductID != nil {
					perProduct[*l.ProductID] += l.QtySold
				}
			}
			if err := s.inventory.Restore(tx, header.StoreID, perProduct); err != nil {
				return err
			}
		}

		if err := tx.Unscoped().
			Where("settlement_id = ?", header.ID).
			Delete(&models.SettlementLine{}).Error; err != nil {
			return fmt.Errorf("failed to delete lines: %w", err)
		}

		res := tx.Unscoped().
			Where("id = ? AND user_id = ?", header.ID, userID).
			Delete(&models.SettlementHeader{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete settlement header: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errors.New("정산 삭제에 실패했습니다: 삭제된 행이 없습니다")
		}

		return nil
	})

	if err != nil {
		return err
	}

	if s.notices != nil {
		s.notices.Publish(NoticeLevelSuccess, "정산이 삭제되었습니다")
	}

	return nil
}

func (s *SettlementService) GetSettlement(userID, id uuid.UUID) (*models.SettlementHeader, error) {
	var header models.SettlementHeader
	if err := s.db.Where("user_id = ?", userID).
		Preload("Store").
		Preload("Lines").
		Preload("Lines.Product").
		First(&header, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("settlement not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &header, nil
}

func (s *SettlementService) ListSettlements(userID uuid.UUID, params SettlementSearchParams) ([]models.SettlementHeader, int64, error) {
	query := s.db.Model(&models.SettlementHeader{}).
		Where("user_id = ?", userID).
		Preload("Store")

	if params.StoreID != nil {
		query = query.Where("store_id = ?", *params.StoreID)
	}
	if params.PeriodFrom != "" {
		query = query.Where("period_month >= ?", params.PeriodFrom)
	}
	if params.PeriodTo != "" {
		query = query.Where("period_month <= ?", params.PeriodTo)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "period_month", "gross_amount"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var headers []models.SettlementHeader
	if err := query.Find(&headers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch settlements: %w", err)
	}

	return headers, total, nil
}

// ConfirmSettlement moves a draft to confirmed.
func (s *SettlementService) ConfirmSettlement(userID, id uuid.UUID) (*models.SettlementHeader, error) {
	header, err := s.GetSettlement(userID, id)
	if err != nil {
		return nil, err
	}

	if header.Status == models.SettlementStatusConfirmed {
		return nil, errors.New("이미 확정된 정산입니다")
	}

	if err := s.db.Model(header).Update("status", models.SettlementStatusConfirmed).Error; err != nil {
		return nil, fmt.Errorf("failed to confirm settlement: %w", err)
	}

	return header, nil
}
