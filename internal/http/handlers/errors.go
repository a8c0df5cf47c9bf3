package handlers

import (
	"errors"
	"net/http"

	"busbooking/internal/domain"
	"busbooking/internal/http/middleware"
	"busbooking/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses. Seat and field
// details are included so clients can redraw without another request.
func RespondDomainError(c *gin.Context, err error) {
	var (
		seatConflict domain.SeatConflictError
		invalidSeat  domain.InvalidSeatError
		validation   domain.ValidationError
	)
	switch {
	case errors.As(err, &seatConflict):
		respondError(c, http.StatusConflict, "seat_conflict", err.Error(), gin.H{"seats": seatConflict.Seats})
	case errors.As(err, &invalidSeat):
		respondError(c, http.StatusBadRequest, "invalid_seat", err.Error(), gin.H{"seats": invalidSeat.Seats})
	case errors.As(err, &validation):
		var details any
		if validation.Field != "" {
			details = gin.H{"field": validation.Field}
		}
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), details)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsAlreadyPaid(err):
		respondError(c, http.StatusBadRequest, "already_paid", err.Error(), nil)
	case domain.IsCancellationNotAllowed(err):
		respondError(c, http.StatusBadRequest, "cancellation_not_allowed", err.Error(), nil)
	case domain.IsInvalidState(err):
		respondError(c, http.StatusBadRequest, "invalid_state", err.Error(), nil)
	case domain.IsBookingNotConfirmed(err):
		respondError(c, http.StatusBadRequest, "booking_not_confirmed", err.Error(), nil)
	case domain.IsAccessDenied(err):
		respondError(c, http.StatusForbidden, "access_denied", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case domain.IsServiceUnavailable(err):
		utils.LogWarn(middleware.GetRequestID(c), "http", "store_unavailable", err.Error())
		respondError(c, http.StatusServiceUnavailable, "service_unavailable", err.Error(), nil)
	default:
		utils.LogWarn(middleware.GetRequestID(c), "http", "internal_error", errorText(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	var internal domain.InternalError
	if errors.As(err, &internal) && internal.Err != nil {
		return internal.Error() + ": " + internal.Err.Error()
	}
	return err.Error()
}
