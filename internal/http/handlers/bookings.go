package handlers

import (
	"net/http"

	"busbooking/internal/domain/models"
	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

type journeyPayload struct {
	Date          string `json:"date"`
	DepartureTime string `json:"departureTime"`
	BoardingPoint string `json:"boardingPoint"`
	DroppingPoint string `json:"droppingPoint"`
}

type createBookingRequest struct {
	BusID          int64                   `json:"busId"`
	RouteID        int64                   `json:"routeId"`
	Journey        journeyPayload          `json:"journey"`
	Passengers     []models.PassengerInput `json:"passengers"`
	ContactDetails models.Contact          `json:"contactDetails"`
	PaymentMethod  string                  `json:"paymentMethod"`
	DiscountCode   string                  `json:"discountCode"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type checkInRequest struct {
	Location string `json:"location"`
}

// POST /api/bookings
func (h *Handler) CreateBooking(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	b, err := h.bookings(c).Create(c.Request.Context(), services.CreateBookingInput{
		UserID:        caller.UserID,
		BusID:         req.BusID,
		RouteID:       req.RouteID,
		Date:          req.Journey.Date,
		DepartureTime: req.Journey.DepartureTime,
		BoardingPoint: req.Journey.BoardingPoint,
		DroppingPoint: req.Journey.DroppingPoint,
		Passengers:    req.Passengers,
		Contact:       req.ContactDetails,
		PaymentMethod: req.PaymentMethod,
		DiscountCode:  req.DiscountCode,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "booking created", "booking": b})
}

// POST /api/bookings/quote
func (h *Handler) QuoteBooking(c *gin.Context) {
	var req services.QuoteInput
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.bookings(c).Quote(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/bookings/my-bookings
func (h *Handler) MyBookings(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	items, page, err := h.bookings(c).ListForUser(c.Request.Context(), caller.UserID, pageQuery(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": items, "pagination": page})
}

// GET /api/bookings/:id
func (h *Handler) GetBooking(c *gin.Context) {
	caller, id, ok := h.bookingTarget(c)
	if !ok {
		return
	}
	b, err := h.bookings(c).Get(c.Request.Context(), id, caller)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// PUT /api/bookings/:id/payment
func (h *Handler) ConfirmPayment(c *gin.Context) {
	caller, id, ok := h.bookingTarget(c)
	if !ok {
		return
	}
	var req models.PaymentDetails
	if !BindJSONOrError(c, &req) {
		return
	}
	b, err := h.bookings(c).ConfirmPayment(c.Request.Context(), id, caller, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment confirmed", "booking": b})
}

// GET /api/bookings/:id/cancellation
func (h *Handler) CancellationPreview(c *gin.Context) {
	caller, id, ok := h.bookingTarget(c)
	if !ok {
		return
	}
	d, err := h.bookings(c).CancellationPreview(c.Request.Context(), id, caller)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancellation": d})
}

// PUT /api/bookings/:id/cancel
func (h *Handler) CancelBooking(c *gin.Context) {
	caller, id, ok := h.bookingTarget(c)
	if !ok {
		return
	}
	var req cancelRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	b, d, err := h.bookings(c).Cancel(c.Request.Context(), id, caller, req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking cancelled", "booking": b, "cancellation": d})
}

// PUT /api/bookings/:id/checkin
func (h *Handler) CheckIn(c *gin.Context) {
	caller, id, ok := h.bookingTarget(c)
	if !ok {
		return
	}
	var req checkInRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	b, err := h.bookings(c).CheckIn(c.Request.Context(), id, caller, req.Location)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "checked in", "booking": b})
}

// POST /api/bookings/:id/feedback
func (h *Handler) AddFeedback(c *gin.Context) {
	caller, id, ok := h.bookingTarget(c)
	if !ok {
		return
	}
	var req services.FeedbackInput
	if !BindJSONOrError(c, &req) {
		return
	}
	b, err := h.bookings(c).AddFeedback(c.Request.Context(), id, caller, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "feedback recorded", "booking": b})
}

// PUT /api/bookings/:id/complete
func (h *Handler) CompleteBooking(c *gin.Context) {
	caller, id, ok := h.bookingTarget(c)
	if !ok {
		return
	}
	b, err := h.bookings(c).Complete(c.Request.Context(), id, caller)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking completed", "booking": b})
}

// PUT /api/bookings/:id/no-show
func (h *Handler) MarkNoShow(c *gin.Context) {
	caller, id, ok := h.bookingTarget(c)
	if !ok {
		return
	}
	b, err := h.bookings(c).MarkNoShow(c.Request.Context(), id, caller)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking marked no-show", "booking": b})
}

func (h *Handler) bookingTarget(c *gin.Context) (services.Caller, int64, bool) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return services.Caller{}, 0, false
	}
	id, ok := idParam(c, "id")
	if !ok {
		return services.Caller{}, 0, false
	}
	return caller, id, true
}
