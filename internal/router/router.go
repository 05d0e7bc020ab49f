// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/settly-kr/settly-backend/internal/config"
	"github.com/settly-kr/settly-backend/internal/handlers"
	"github.com/settly-kr/settly-backend/internal/middleware"
	"github.com/settly-kr/settly-backend/internal/services"
	"github.com/settly-kr/settly-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config, noticeService *services.NoticeService) *gin.Engine {
	// Initialize services
	storageService, _ := services.NewStorageService(cfg)

	authService := services.NewAuthService(db, cfg)
	productService := services.NewProductService(db)
	storeService := services.NewStoreService(db)
	inventoryService := services.NewInventoryService(db)
	settlementService := services.NewSettlementService(db, storeService, productService, inventoryService, noticeService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	storeHandler := handlers.NewStoreHandler(storeService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	settlementHandler := handlers.NewSettlementHandler(settlementService, productService, storageService)
	noticeHandler := handlers.NewNoticeHandler(noticeService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Product routes
		products := v1.Group("/products")
		products.Use(middleware.AuthRequired())
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/by-barcode", productHandler.GetProductByBarcode)
			products.POST("", productHandler.CreateProduct)
			products.GET("/:id", productHandler.GetProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
			products.DELETE("/:id", productHandler.DeleteProduct)
		}

		// Store routes, with per-store marketplace settings and inventory
		stores := v1.Group("/stores")
		stores.Use(middleware.AuthRequired())
		{
			stores.GET("", storeHandler.GetStores)
			stores.POST("", storeHandler.CreateStore)
			stores.GET("/:id", storeHandler.GetStore)
			stores.PUT("/:id", storeHandler.UpdateStore)
			stores.DELETE("/:id", storeHandler.DeleteStore)
			stores.GET("/:id/settings", storeHandler.GetStoreSettings)
			stores.PUT("/:id/settings", storeHandler.UpsertStoreSettings)
			stores.GET("/:id/inventory", inventoryHandler.GetStoreInventory)
			stores.PUT("/:id/inventory/:productId", inventoryHandler.SetOnHand)
		}

		// The upload template is public so the UI can link it before login;
		// optional auth still attributes the download when a token is sent.
		v1.GET("/settlements/template", middleware.OptionalAuth(), settlementHandler.DownloadTemplate)

		// Settlement routes
		settlements := v1.Group("/settlements")
		settlements.Use(middleware.AuthRequired())
		{
			settlements.POST("/preview", middleware.UploadRateLimit(), settlementHandler.Preview)
			settlements.POST("/preview-legacy", middleware.UploadRateLimit(), settlementHandler.PreviewLegacy)
			settlements.POST("/resolve-row", settlementHandler.ResolveRow)
			settlements.POST("/apply", settlementHandler.Apply)
			settlements.GET("", settlementHandler.GetSettlements)
			settlements.GET("/:id", settlementHandler.GetSettlement)
			settlements.POST("/:id/confirm", settlementHandler.ConfirmSettlement)
			settlements.DELETE("/:id", settlementHandler.DeleteSettlement)
		}

		// Notice stream
		notices := v1.Group("/notices")
		notices.Use(middleware.AuthRequired())
		{
			notices.GET("/stream", noticeHandler.Stream)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", cfg.Upload.LocalDir)
	}

	return r
}
