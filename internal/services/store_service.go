// internal/services/store_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/settly-kr/settly-backend/internal/models"
	"github.com/settly-kr/settly-backend/internal/settlement"
	"github.com/settly-kr/settly-backend/internal/utils"
)

type StoreService struct {
	db *gorm.DB
}

type CreateStoreRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=255"`
	CommissionRate *float64 `json:"commission_rate,omitempty" validate:"omitempty,min=0,max=100"`
	TargetQty      *int     `json:"target_qty,omitempty" validate:"omitempty,min=0"`
	Memo           string   `json:"memo,omitempty"`
	ContactName    string   `json:"contact_name,omitempty" validate:"omitempty,max=100"`
	ContactPhone   string   `json:"contact_phone,omitempty" validate:"omitempty,max=50"`
}

type UpdateStoreRequest struct {
	Name           string   `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	CommissionRate *float64 `json:"commission_rate,omitempty" validate:"omitempty,min=0,max=100"`
	TargetQty      *int     `json:"target_qty,omitempty" validate:"omitempty,min=0"`
	Memo           *string  `json:"memo,omitempty"`
	ContactName    *string  `json:"contact_name,omitempty"`
	ContactPhone   *string  `json:"contact_phone,omitempty"`
}

type UpsertSettingRequest struct {
	CommissionRate float64 `json:"commission_rate" validate:"min=0,max=1"`
}

func NewStoreService(db *gorm.DB) *StoreService {
	return &StoreService{db: db}
}

func (s *StoreService) CreateStore(userID uuid.UUID, req *CreateStoreRequest) (*models.Store, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	name := strings.TrimSpace(req.Name)

	// Store name is the join key from settlement CSVs; duplicates would make
	// row resolution ambiguous.
	var count int64
	if err := s.db.Model(&models.Store{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return nil, errors.New("이미 등록된 입점처명입니다: " + name)
	}

	store := &models.Store{
		UserID:         userID,
		Name:           name,
		CommissionRate: req.CommissionRate,
		TargetQty:      req.TargetQty,
		Memo:           req.Memo,
		ContactName:    req.ContactName,
		ContactPhone:   req.ContactPhone,
	}

	if err := s.db.Create(store).Error; err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	return store, nil
}

func (s *StoreService) GetStore(userID, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := s.db.Where("user_id = ?", userID).First(&store, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("store not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &store, nil
}

func (s *StoreService) UpdateStore(userID, id uuid.UUID, req *UpdateStoreRequest) (*models.Store, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	store, err := s.GetStore(userID, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = strings.TrimSpace(req.Name)
	}
	if req.CommissionRate != nil {
		updates["commission_rate"] = *req.CommissionRate
	}
	if req.TargetQty != nil {
		updates["target_qty"] = *req.TargetQty
	}
	if req.Memo != nil {
		updates["memo"] = *req.Memo
	}
	if req.ContactName != nil {
		updates["contact_name"] = *req.ContactName
	}
	if req.ContactPhone != nil {
		updates["contact_phone"] = *req.ContactPhone
	}

	if err := s.db.Model(store).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update store: %w", err)
	}

	return store, nil
}

func (s *StoreService) DeleteStore(userID, id uuid.UUID) error {
	store, err := s.GetStore(userID, id)
	if err != nil {
		return err
	}

	var settlementCount int64
	if err := s.db.Model(&models.SettlementHeader{}).
		Where("store_id = ?", id).
		Count(&settlementCount).Error; err != nil {
		return fmt.Errorf("failed to check settlements: %w", err)
	}
	if settlementCount > 0 {
		return errors.New("정산 내역이 있는 입점처는 삭제할 수 없습니다")
	}

	if err := s.db.Delete(store).Error; err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}

	return nil
}

func (s *StoreService) ListStores(userID uuid.UUID, params utils.PaginationParams) ([]models.Store, int64, error) {
	query := s.db.Model(&models.Store{}).Where("user_id = ?", userID)

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ?", searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count stores: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var stores []models.Store
	if err := query.Find(&stores).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch stores: %w", err)
	}

	return stores, total, nil
}

// GetSettingRate returns the marketplace-settings commission fraction for a
// store, or nil when no settings row exists. Callers fall back to the
// store-level percentage.
func (s *StoreService) GetSettingRate(userID, storeID uuid.UUID) (*float64, error) {
	var setting models.MarketplaceSetting
	if err := s.db.Where("user_id = ? AND store_id = ?", userID, storeID).
		First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	rate := setting.CommissionRate
	return &rate, nil
}

func (s *StoreService) UpsertSetting(userID, storeID uuid.UUID, req *UpsertSettingRequest) (*models.MarketplaceSetting, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := s.GetStore(userID, storeID); err != nil {
		return nil, err
	}

	var setting models.MarketplaceSetting
	err := s.db.Where("user_id = ? AND store_id = ?", userID, storeID).First(&setting).Error
	switch {
	case err == nil:
		setting.CommissionRate = req.CommissionRate
		if err := s.db.Save(&setting).Error; err != nil {
			return nil, fmt.Errorf("failed to update setting: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		setting = models.MarketplaceSetting{
			UserID:         userID,
			StoreID:        storeID,
			CommissionRate: req.CommissionRate,
		}
		if err := s.db.Create(&setting).Error; err != nil {
			return nil, fmt.Errorf("failed to create setting: %w", err)
		}
	default:
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &setting, nil
}

// Refs snapshots the store list for settlement row validation.
func (s *StoreService) Refs(userID uuid.UUID) ([]settlement.StoreRef, error) {
	var stores []models.Store
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch stores: %w", err)
	}

	refs := make([]settlement.StoreRef, 0, len(stores))
	for _, st := range stores {
		refs = append(refs, settlement.StoreRef{
			ID:             st.ID,
			Name:           st.Name,
			CommissionRate: st.CommissionRate,
		})
	}
	return refs, nil
}
