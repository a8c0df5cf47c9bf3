package handlers

import (
	"net/http"

	"busbooking/internal/domain/models"

	"github.com/gin-gonic/gin"
)

type locationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// GET /api/buses/:id/seats?date=&departureTime=
func (h *Handler) SeatMap(c *gin.Context) {
	busID, ok := idParam(c, "id")
	if !ok {
		return
	}
	slot := models.SeatSlot{BusID: busID, Date: c.Query("date"), DepartureTime: c.Query("departureTime")}
	seats, err := h.Seats.SeatMap(c.Request.Context(), slot)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	available := 0
	for _, s := range seats {
		if s.Available {
			available++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"busId":          busID,
		"date":           slot.Date,
		"departureTime":  slot.DepartureTime,
		"seats":          seats,
		"availableCount": available,
	})
}

// PUT /api/buses/:id/location
func (h *Handler) UpdateBusLocation(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	busID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req locationRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.Lat == nil || req.Lng == nil {
		respondError(c, http.StatusBadRequest, "validation_error", "lat and lng are required", gin.H{"field": "location"})
		return
	}
	loc, err := h.tracking(c).UpdateBusLocation(c.Request.Context(), busID, caller, *req.Lat, *req.Lng)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "location updated", "location": loc})
}
