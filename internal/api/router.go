// Package api contains the HTTP handlers and routing for the donation service.
package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter configures the Gin router with all routes and middleware.
func SetupRouter(handler *Handler, ginMode string) *gin.Engine {
	gin.SetMode(ginMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())
	router.Use(RequestIDMiddleware())

	// Health check endpoint (no auth required)
	router.GET("/health", handler.Health)

	api := router.Group("/api")
	{
		donations := api.Group("/donations")
		{
			donations.POST("", handler.CreateDonation)
			donations.POST("/recurring", handler.CreateRecurringDonation)
			donations.GET("", handler.ListDonations)
			donations.GET("/:id", handler.GetDonation)
			donations.DELETE("/:id", handler.DeleteDonation)
			donations.POST("/subscription/:id/cancel", handler.CancelSubscription)

			// Called by Mercado Pago; authenticated by the x-signature
			// header when a webhook secret is configured.
			donations.POST("/webhook", handler.HandleWebhook)
		}
	}

	return router
}
