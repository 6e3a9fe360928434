package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/handler"
	"dispatch/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler    *handler.UserHandler
	RideHandler    *handler.RideHandler
	DriverHandler  *handler.DriverHandler
	PaymentHandler *handler.PaymentHandler
	OTPHandler     *handler.OTPHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.GET("", deps.UserHandler.GetAll)
			users.GET("/:id", deps.UserHandler.GetUser)
			users.GET("/:id/notifications", deps.UserHandler.GetNotifications)
		}

		// OTP routes.
		otp := v1.Group("/otp")
		{
			otp.POST("/send", deps.OTPHandler.SendOTP)
			otp.POST("/verify", deps.OTPHandler.VerifyOTP)
		}

		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/complete", deps.RideHandler.CompleteRide)
			rides.POST("/:id/rating", deps.RideHandler.RateRide)
		}

		// Fare quotes.
		v1.GET("/fares/quote", deps.RideHandler.QuoteFare)

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/:id/location", deps.DriverHandler.UpdateLocation)
			drivers.GET("/:id/location", deps.DriverHandler.GetLocation)
			drivers.POST("/:id/respond", deps.DriverHandler.Respond)
			drivers.POST("/:id/offline", deps.DriverHandler.GoOffline)
		}

		// Payment routes.
		payments := v1.Group("/payments")
		{
			payments.POST("/order", deps.PaymentHandler.CreateOrder)
			payments.POST("/confirm", deps.PaymentHandler.ConfirmPayment)
		}
	}

	return router
}
