// internal/services/product_service.go
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

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=255"`
	Category    string   `json:"category,omitempty" validate:"omitempty,max=100"`
	Price       int64    `json:"price" validate:"min=0"`
	SKU         string   `json:"sku,omitempty" validate:"omitempty,max=100"`
	Barcode     string   `json:"barcode,omitempty" validate:"omitempty,max=100"`
	Active      *bool    `json:"active,omitempty"`
	MakeEnabled *bool    `json:"make_enabled,omitempty"`
	Images      []string `json:"images,omitempty"`
	Memo        string   `json:"memo,omitempty"`
}

type UpdateProductRequest struct {
	Name        string   `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Category    *string  `json:"category,omitempty"`
	Price       *int64   `json:"price,omitempty" validate:"omitempty,min=0"`
	SKU         *string  `json:"sku,omitempty"`
	Barcode     *string  `json:"barcode,omitempty"`
	Active      *bool    `json:"active,omitempty"`
	MakeEnabled *bool    `json:"make_enabled,omitempty"`
	Images      []string `json:"images,omitempty"`
	Memo        *string  `json:"memo,omitempty"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	Active  *bool  `json:"active,omitempty"`
	Barcode string `json:"barcode,omitempty"`
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) CreateProduct(userID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	barcode := strings.TrimSpace(req.Barcode)
	if barcode != "" {
		var count int64
		if err := s.db.Model(&models.Product{}).
			Where("user_id = ? AND barcode = ?", userID, barcode).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if count > 0 {
			return nil, errors.New("이미 등록된 바코드입니다: " + barcode)
		}
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	makeEnabled := true
	if req.MakeEnabled != nil {
		makeEnabled = *req.MakeEnabled
	}

	product := &models.Product{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Category:    req.Category,
		Active:      active,
		MakeEnabled: makeEnabled,
		Price:       req.Price,
		SKU:         req.SKU,
		Barcode:     barcode,
		Images:      req.Images,
		Memo:        req.Memo,
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *ProductService) GetProduct(userID, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Where("user_id = ?", userID).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) UpdateProduct(userID, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.GetProduct(userID, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = strings.TrimSpace(req.Name)
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.SKU != nil {
		updates["sku"] = *req.SKU
	}
	if req.Barcode != nil {
		barcode := strings.TrimSpace(*req.Barcode)
		if barcode != "" && barcode != product.Barcode {
			var count int64
			if err := s.db.Model(&models.Product{}).
				Where("user_id = ? AND barcode = ? AND id <> ?", userID, barcode, id).
				Count(&count).Error; err != nil {
				return nil, fmt.Errorf("database error: %w", err)
			}
			if count > 0 {
				return nil, errors.New("이미 등록된 바코드입니다: " + barcode)
			}
		}
		updates["barcode"] = barcode
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.MakeEnabled != nil {
		updates["make_enabled"] = *req.MakeEnabled
	}
	if req.Images != nil {
		updates["images"] = req.Images
	}
	if req.Memo != nil {
		updates["memo"] = *req.Memo
	}

	if err := s.db.Model(product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

func (s *ProductService) DeleteProduct(userID, id uuid.UUID) error {
	product, err := s.GetProduct(userID, id)
	if err != nil {
		return err
	}

	// Soft delete; settlement lines keep their product_id reference.
	if err := s.db.Delete(product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return nil
}

func (s *ProductService) SearchProducts(userID uuid.UUID, params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Where("user_id = ?", userID)

	if params.Active != nil {
		query = query.Where("active = ?", *params.Active)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if params.Barcode != "" {
		query = query.Where("barcode = ?", strings.TrimSpace(params.Barcode))
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR barcode LIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "price", "category"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

// FindByBarcode resolves a product by its trimmed barcode, the join key the
// settlement pipeline uses. First match wins.
func (s *ProductService) FindByBarcode(userID uuid.UUID, barcode string) (*models.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, errors.New("barcode is empty")
	}

	var product models.Product
	if err := s.db.Where("user_id = ? AND barcode = ?", userID, barcode).
		Order("created_at ASC").
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &product, nil
}

// Refs snapshots the catalog for settlement row validation.
func (s *ProductService) Refs(userID uuid.UUID) ([]settlement.ProductRef, error) {
	var products []models.Product
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	refs := make([]settlement.ProductRef, 0, len(products))
	for _, p := range products {
		refs = append(refs, settlement.ProductRef{
			ID:      p.ID,
			Name:    p.Name,
			Barcode: p.Barcode,
			Price:   p.Price,
		})
	}
	return refs, nil
}
