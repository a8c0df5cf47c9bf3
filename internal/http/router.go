package api

import (
	stdhttp "net/http"

	intconfig "busbooking/internal/config"
	h "busbooking/internal/http/handlers"
	"busbooking/internal/http/middleware"
	"busbooking/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	roleAdmin    = "admin"
	roleOperator = "operator"
)

func NewRouter(env intconfig.Env, handler *h.Handler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.LogWarn("", "http", "trusted_proxies", err.Error())
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":      "route not found",
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": middleware.GetRequestID(c),
		})
	})

	authed := middleware.RequireAuth([]byte(env.JWTSecret))
	staff := middleware.RequireRoles(roleOperator, roleAdmin)

	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/db-check", handler.DBCheck)
		api.GET("/routes", h.Routes)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)

		api.GET("/users/me", authed, handler.Me)

		// Bookings
		bookings := api.Group("/bookings")
		bookings.POST("/quote", handler.QuoteBooking)
		bookings.Use(authed)
		bookings.POST("", handler.CreateBooking)
		bookings.GET("/my-bookings", handler.MyBookings)
		bookings.GET("/:id", handler.GetBooking)
		bookings.PUT("/:id/payment", handler.ConfirmPayment)
		bookings.GET("/:id/cancellation", handler.CancellationPreview)
		bookings.PUT("/:id/cancel", handler.CancelBooking)
		bookings.PUT("/:id/checkin", staff, handler.CheckIn)
		bookings.PUT("/:id/complete", staff, handler.CompleteBooking)
		bookings.PUT("/:id/no-show", staff, handler.MarkNoShow)
		bookings.POST("/:id/feedback", handler.AddFeedback)
		bookings.GET("/:id/ticket", handler.GetETicketPDF)
		bookings.GET("/:id/receipt", handler.GetReceiptPDF)

		// Buses
		buses := api.Group("/buses")
		buses.GET("/:id/seats", handler.SeatMap)
		buses.PUT("/:id/location", authed, staff, handler.UpdateBusLocation)

		// Tracking
		tracking := api.Group("/tracking")
		tracking.GET("/distance", handler.Distance)
		tracking.GET("/booking/:id/track", authed, handler.TrackBooking)
	}

	h.SetRouter(r)
	return r
}
