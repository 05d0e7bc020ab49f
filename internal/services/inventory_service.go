// internal/services/inventory_service.go
package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/settly-kr/settly-backend/internal/models"
	"github.com/settly-kr/settly-backend/internal/utils"
)

type InventoryService struct {
	db *gorm.DB
}

type SetOnHandRequest struct {
	OnHandQty int `json:"on_hand_qty" validate:"min=0"`
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

// GetOnHand reads the current on-hand quantity; a missing row reads as 0.
func (s *InventoryService) GetOnHand(storeID, productID uuid.UUID) (int, error) {
	var item models.InventoryItem
	err := s.db.Where("store_id = ? AND product_id = ?", storeID, productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return item.OnHandQty, nil
}

func (s *InventoryService) ListByStore(userID, storeID uuid.UUID, params utils.PaginationParams) ([]models.InventoryItem, int64, error) {
	var store models.Store
	if err := s.db.Where("user_id = ?", userID).First(&store, storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, errors.New("store not found")
		}
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	query := s.db.Model(&models.InventoryItem{}).
		Where("store_id = ?", storeID).
		Preload("Product")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count inventory: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "on_hand_qty"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var items []models.InventoryItem
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch inventory: %w", err)
	}

	return items, total, nil
}

// SetOnHand is the manual edit path from the product screen.
func (s *InventoryService) SetOnHand(userID, storeID, productID uuid.UUID, req *SetOnHandRequest) (*models.InventoryItem, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var store models.Store
	if err := s.db.Where("user_id = ?", userID).First(&store, storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("store not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.upsert(s.db, storeID, productID, req.OnHandQty); err != nil {
		return nil, err
	}

	var item models.InventoryItem
	if err := s.db.Where("store_id = ? AND product_id = ?", storeID, productID).First(&item).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &item, nil
}

func (s *InventoryService) upsert(tx *gorm.DB, storeID, productID uuid.UUID, qty int) error {
	var item models.InventoryItem
	err := tx.Where("store_id = ? AND product_id = ?", storeID, productID).First(&item).Error
	switch {
	case err == nil:
		if err := tx.Model(&item).Update("on_hand_qty", qty).Error; err != nil {
			return fmt.Errorf("failed to update inventory: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.InventoryItem{StoreID: storeID, ProductID: productID, OnHandQty: qty}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to create inventory row: %w", err)
		}
	default:
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

// ApplyDeltas mutates on-hand stock for the difference between a
// settlement's previous and new sold-quantity maps. A positive delta (more
// sold than before) reduces stock, floored at 0; a negative delta restores
// the difference. Runs inside the caller's transaction.
func (s *InventoryService) ApplyDeltas(tx *gorm.DB, storeID uuid.UUID, oldQty, newQty map[uuid.UUID]int) error {
	for _, productID := range unionKeys(oldQty, newQty) {
		delta := newQty[productID] - oldQty[productID]
		if delta == 0 {
			continue
		}

		var item models.InventoryItem
		onHand := 0
		err := tx.Where("store_id = ? AND product_id = ?", storeID, productID).First(&item).Error
		if err == nil {
			onHand = item.OnHandQty
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("database error: %w", err)
		}

		next := onHand - delta
		if next < 0 {
			next = 0
		}

		if err := s.upsert(tx, storeID, productID, next); err != nil {
			return err
		}
	}
	return nil
}

// Restore adds back the full sold quantities of a settlement being deleted.
// Pure addition, no delta math, since the lines are removed entirely.
func (s *InventoryService) Restore(tx *gorm.DB, storeID uuid.UUID, perProduct map[uuid.UUID]int) error {
	for _, productID := range unionKeys(perProduct, nil) {
		qty := perProduct[productID]
		if qty <= 0 {
			continue
		}

		var item models.InventoryItem
		onHand := 0
		err := tx.Where("store_id = ? AND product_id = ?", storeID, productID).First(&item).Error
		if err == nil {
			onHand = item.OnHandQty
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("database error: %w", err)
		}

		if err := s.upsert(tx, storeID, productID, onHand+qty); err != nil {
			return err
		}
	}
	return nil
}

// unionKeys gives a stable iteration order over both maps.
func unionKeys(a, b map[uuid.UUID]int) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(a)+len(b))
	var keys []uuid.UUID
	for k := range a {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
