package handlers

import (
	"net/http"

	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/tracking/booking/:id/track
func (h *Handler) TrackBooking(c *gin.Context) {
	caller, id, ok := h.bookingTarget(c)
	if !ok {
		return
	}
	view, err := h.tracking(c).Track(c.Request.Context(), id, caller)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracking": view})
}

// GET /api/tracking/distance?fromLat=&fromLng=&toLat=&toLng=
func (h *Handler) Distance(c *gin.Context) {
	fromLat, ok := floatQuery(c, "fromLat")
	if !ok {
		return
	}
	fromLng, ok := floatQuery(c, "fromLng")
	if !ok {
		return
	}
	toLat, ok := floatQuery(c, "toLat")
	if !ok {
		return
	}
	toLng, ok := floatQuery(c, "toLng")
	if !ok {
		return
	}
	km, err := services.DistanceKm(fromLat, fromLng, toLat, toLng)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"distanceKm": km})
}
