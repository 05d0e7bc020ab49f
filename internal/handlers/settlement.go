// internal/handlers/settlement.go
package handlers

import (
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/settly-kr/settly-backend/internal/csvutil"
	"github.com/settly-kr/settly-backend/internal/i18n"
	"github.com/settly-kr/settly-backend/internal/models"
	"github.com/settly-kr/settly-backend/internal/services"
	"github.com/settly-kr/settly-backend/internal/settlement"
	"github.com/settly-kr/settly-backend/internal/utils"
)

type SettlementHandler struct {
	settlementService *services.SettlementService
	productService    *services.ProductService
	storageService    *services.StorageService
}

func NewSettlementHandler(settlementService *services.SettlementService, productService *services.ProductService, storageService *services.StorageService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		productService:    productService,
		storageService:    storageService,
	}
}

// readUploadFile pulls the "file" multipart part and rejects unsupported
// extensions. A false return means the response is already written.
func readUploadFile(c *gin.Context, lang string) (filename string, data []byte, ok bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return "", nil, false
	}

	name := strings.ToLower(fileHeader.Filename)
	if !strings.HasSuffix(name, ".csv") && !strings.HasSuffix(name, ".txt") && !strings.HasSuffix(name, ".xlsx") {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileInvalidType), nil)
		return "", nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return "", nil, false
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return "", nil, false
	}

	return fileHeader.Filename, data, true
}

// POST /settlements/preview
//
// Multipart form: "file" (csv or xlsx), "store_name", "period_month" and
// optionally "map_barcode", "map_sold_qty", "map_amount" to override the
// guessed column mapping with explicit header names.
func (h *SettlementHandler) Preview(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	filename, data, ok := readUploadFile(c, lang)
	if !ok {
		return
	}

	req := services.PreviewRequest{
		StoreName:   c.PostForm("store_name"),
		PeriodMonth: c.PostForm("period_month"),
		Filename:    filename,
		Data:        data,
	}

	if barcodeCol := c.PostForm("map_barcode"); barcodeCol != "" {
		req.Mapping = &settlement.Mapping{
			Barcode: barcodeCol,
			SoldQty: c.PostForm("map_sold_qty"),
			Amount:  c.PostForm("map_amount"),
		}
	}

	preview, err := h.settlementService.Preview(userID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	// Archive is best effort; a storage failure never blocks the preview.
	if h.storageService != nil {
		if _, err := h.storageService.ArchiveSettlementFile(userID, filename, data); err != nil {
			logrus.WithError(err).Warn("Failed to archive settlement upload")
		}
	}

	utils.SuccessResponse(c, gin.H{
		"headers":   preview.Headers,
		"mapping":   preview.Mapping,
		"rows":      preview.Rows,
		"can_apply": settlement.CanApply(preview.Rows),
	})
}

// POST /settlements/preview-legacy
//
// Older upload contract keyed by product name instead of barcode. Same
// multipart form; mapping overrides are "map_product_name", "map_qty" and
// optionally "map_sku", "map_unit_price", "map_amount". Rows come back in
// the same shape and feed the same resolve and apply endpoints.
func (h *SettlementHandler) PreviewLegacy(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	filename, data, ok := readUploadFile(c, lang)
	if !ok {
		return
	}

	req := services.LegacyPreviewRequest{
		StoreName:   c.PostForm("store_name"),
		PeriodMonth: c.PostForm("period_month"),
		Filename:    filename,
		Data:        data,
	}

	if nameCol := c.PostForm("map_product_name"); nameCol != "" {
		req.Mapping = &settlement.LegacyMapping{
			ProductName: nameCol,
			Qty:         c.PostForm("map_qty"),
			SKU:         c.PostForm("map_sku"),
			UnitPrice:   c.PostForm("map_unit_price"),
			Amount:      c.PostForm("map_amount"),
		}
	}

	preview, err := h.settlementService.PreviewLegacy(userID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	if h.storageService != nil {
		if _, err := h.storageService.ArchiveSettlementFile(userID, filename, data); err != nil {
			logrus.WithError(err).Warn("Failed to archive settlement upload")
		}
	}

	utils.SuccessResponse(c, gin.H{
		"headers":   preview.Headers,
		"mapping":   preview.Mapping,
		"rows":      preview.Rows,
		"can_apply": settlement.CanApply(preview.Rows),
	})
}

// POST /settlements/resolve-row
//
// Promotes one unmatched preview row to ok with a manually chosen product.
func (h *SettlementHandler) ResolveRow(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Row       settlement.PreviewRow `json:"row" binding:"required"`
		ProductID uuid.UUID             `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	product, err := h.productService.GetProduct(userID, req.ProductID)
	if err != nil {
		utils.NotFoundResponse(c, "product")
		return
	}

	row := req.Row
	row.ResolveProduct(settlement.ProductRef{
		ID:      product.ID,
		Name:    product.Name,
		Barcode: product.Barcode,
		Price:   product.Price,
	})

	utils.SuccessResponse(c, gin.H{
		"row": row,
	})
}

// POST /settlements/apply
func (h *SettlementHandler) Apply(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	headers, err := h.settlementService.Apply(userID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "오류가 있는 행") {
			utils.BadRequestResponse(c, err.Error(), gin.H{"applied": headers})
			return
		}
		if strings.Contains(err.Error(), "재고 반영 확인") {
			utils.BadRequestResponse(c, err.Error(), nil)
			return
		}
		// Partial failure: some groups may already be committed.
		utils.ErrorResponse(c, 500, "APPLY_FAILED", err.Error(), gin.H{"applied": headers})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeySettlementApplied),
		"settlements": headers,
	})
}

// GET /settlements
func (h *SettlementHandler) GetSettlements(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	searchParams := services.SettlementSearchParams{
		PaginationParams: params,
		PeriodFrom:       c.Query("period_from"),
		PeriodTo:         c.Query("period_to"),
	}

	if storeIDStr := c.Query("store_id"); storeIDStr != "" {
		if storeID, err := uuid.Parse(storeIDStr); err == nil {
			searchParams.StoreID = &storeID
		}
	}

	if status := c.Query("status"); status != "" {
		settlementStatus := models.SettlementStatus(status)
		searchParams.Status = &settlementStatus
	}

	headers, total, err := h.settlementService.ListSettlements(userID, searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(headers, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /settlements/:id
func (h *SettlementHandler) GetSettlement(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid settlement ID", nil)
		return
	}

	header, err := h.settlementService.GetSettlement(userID, id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "settlement")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"settlement": header,
	})
}

// POST /settlements/:id/confirm
func (h *SettlementHandler) ConfirmSettlement(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid settlement ID", nil)
		return
	}

	header, err := h.settlementService.ConfirmSettlement(userID, id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "settlement")
			return
		}
		utils.ConflictResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeySettlementConfirmed),
		"settlement": header,
	})
}

// DELETE /settlements/:id?restore_inventory=true
func (h *SettlementHandler) DeleteSettlement(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid settlement ID", nil)
		return
	}

	restoreInventory := false
	if restoreStr := c.Query("restore_inventory"); restoreStr != "" {
		restoreInventory, _ = strconv.ParseBool(restoreStr)
	}

	if err := h.settlementService.Delete(userID, id, restoreInventory); err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "settlement")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySettlementDeleted),
	})
}

// GET /settlements/template
//
// Canonical upload template, BOM-prefixed so Excel opens it as UTF-8.
func (h *SettlementHandler) DownloadTemplate(c *gin.Context) {
	data := csvutil.SettlementTemplate()
	c.Header("Content-Disposition", `attachment; filename="settlement_template.csv"`)
	c.Data(200, "text/csv; charset=utf-8", data)
}
