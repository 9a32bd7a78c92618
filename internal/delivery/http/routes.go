package http

import (
	"github.com/gin-gonic/gin"

	"github.com/macrolens/mealdraft/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = maxUploadBytes

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	{
		products := v1.Group("/products")
		{
			products.GET("/search", handler.SearchProducts)
			products.GET("/barcode/:code", handler.GetProductByBarcode)
		}

		drafts := v1.Group("/drafts")
		{
			drafts.POST("", handler.CreateDraft)
			drafts.POST("/voice", handler.CreateVoiceDraft)
			drafts.POST("/photo", handler.CreatePhotoDraft)
			drafts.POST("/edit", handler.CreateEditDraft)
			drafts.POST("/import", handler.ImportDraft)

			drafts.GET("/:id", handler.GetDraft)
			drafts.DELETE("/:id", handler.CancelDraft)
			drafts.POST("/:id/confirm", handler.ConfirmDraft)

			drafts.POST("/:id/items", handler.AddItem)
			drafts.PATCH("/:id/items/:index", handler.UpdateItem)
			drafts.DELETE("/:id/items/:index", handler.RemoveItem)

			drafts.POST("/:id/items/:index/edit", handler.BeginEdit)
			drafts.PUT("/:id/items/:index/edit", handler.SaveEdit)
			drafts.DELETE("/:id/items/:index/edit", handler.CancelEdit)

			drafts.POST("/:id/meal-type/cycle", handler.CycleMealType)
			drafts.PUT("/:id/meal-type", handler.SetMealType)

			drafts.POST("/:id/search", handler.BeginSearch)
			drafts.DELETE("/:id/search", handler.CancelSearch)
			drafts.POST("/:id/search/select", handler.SelectProduct)
		}
	}

	return router
}
