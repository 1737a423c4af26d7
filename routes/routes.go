package routes

import (
	"net/http"
	"time"

	"ridelink/config"
	"ridelink/handlers"
	"ridelink/middleware"
	"ridelink/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRideRoutes registers the booking engine endpoints.
func RegisterRideRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/rides")
	{
		api.POST("/book", hb.BookRideHandler)
		api.GET("/:rideId", hb.GetRideStatusHandler)
	}
}

// RegisterWebhookRoutes registers the inbound messaging webhook.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/webhook")
	{
		api.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))
		api.Use(middleware.TwilioSignatureMiddleware())
		api.POST("/message", hb.InboundMessageHandler)
	}
}

// RegisterDriverRoutes registers fleet query endpoints.
func RegisterDriverRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/drivers")
	{
		api.GET("/nearest", hb.NearestDriversHandler)
	}
}

// RegisterPreferenceRoutes registers rider preference endpoints.
func RegisterPreferenceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/preferences")
	{
		api.GET("/:phone", hb.PreferredDriversHandler)
	}
}

// RegisterHealthRoutes registers health and stats endpoints.
func RegisterHealthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": utils.GetHealthStatus()})
	})
	r.GET("/api/stats", hb.StatsHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(utils.ErrorHandler())

	RegisterRideRoutes(r, hb)
	RegisterWebhookRoutes(r, hb)
	RegisterDriverRoutes(r, hb)
	RegisterPreferenceRoutes(r, hb)
	RegisterHealthRoutes(r, hb)
}
