package handlers

import (
	"context"

	"busbooking/internal/http/middleware"
	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SchemaChecker reports booking tables missing from the database.
type SchemaChecker interface {
	MissingTables(ctx context.Context) ([]string, error)
}

// Handler holds fully wired service prototypes. Each request works on a copy
// tagged with its request id.
type Handler struct {
	Bookings services.BookingService
	Seats    services.SeatInventory
	Tracking services.TrackingService
	Docs     services.DocsService
	Auth     services.AuthService
	DB       Pinger
	Schema   SchemaChecker
}

func (h *Handler) bookings(c *gin.Context) services.BookingService {
	svc := h.Bookings
	svc.RequestID = middleware.GetRequestID(c)
	return svc
}

func (h *Handler) tracking(c *gin.Context) services.TrackingService {
	svc := h.Tracking
	svc.RequestID = middleware.GetRequestID(c)
	return svc
}

func (h *Handler) docs(c *gin.Context) services.DocsService {
	svc := h.Docs
	svc.RequestID = middleware.GetRequestID(c)
	return svc
}

func (h *Handler) auth(c *gin.Context) services.AuthService {
	svc := h.Auth
	svc.RequestID = middleware.GetRequestID(c)
	return svc
}
