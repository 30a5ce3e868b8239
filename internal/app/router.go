package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/laura2ndrea/payment-links/internal/handler"
	"github.com/laura2ndrea/payment-links/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler    *handler.AuthHandler
	LinkHandler    *handler.LinkHandler
	TokenValidator middleware.TokenValidator
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	links := router.Group("/payment-links")
	{
		// Public routes.
		links.POST("/register", deps.AuthHandler.Register)
		links.POST("/login", deps.AuthHandler.Login)

		// Merchant-scoped routes.
		authed := links.Group("", middleware.AuthMiddleware(deps.TokenValidator))
		{
			authed.POST("", deps.LinkHandler.Create)
			authed.GET("", deps.LinkHandler.List)
			authed.GET("/:id", deps.LinkHandler.Get)
			authed.POST("/:id/pay", deps.LinkHandler.Pay)
			authed.POST("/:id/cancel", deps.LinkHandler.Cancel)
		}
	}

	return router
}
