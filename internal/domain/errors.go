package domain

import (
	"errors"
	"fmt"
	"strings"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// SeatConflictError names seats already held by another pending or confirmed
// booking in the same slot. Callers may retry with a different selection.
type SeatConflictError struct {
	Seats []string
	Err   error
}

func (e SeatConflictError) Error() string {
	if len(e.Seats) == 0 {
		return "seats already booked"
	}
	return "seats already booked: " + strings.Join(e.Seats, ", ")
}

func (e SeatConflictError) Unwrap() error { return e.Err }

// InvalidSeatError names seat numbers that are not defined (or not bookable) on the bus.
type InvalidSeatError struct {
	Seats []string
}

func (e InvalidSeatError) Error() string {
	return "seats not available on this bus: " + strings.Join(e.Seats, ", ")
}

// InvalidStateError is returned when an operation is illegal for the booking's current status.
type InvalidStateError struct {
	Op     string
	Status string
	Msg    string
}

func (e InvalidStateError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "operation not allowed"
	}
	switch {
	case e.Op != "" && e.Status != "":
		return fmt.Sprintf("%s: %s (status %s)", e.Op, msg, e.Status)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	default:
		return msg
	}
}

type CancellationNotAllowedError struct {
	Reason string
}

func (e CancellationNotAllowedError) Error() string {
	if e.Reason == "" {
		return "cancellation not allowed"
	}
	return "cancellation not allowed: " + e.Reason
}

type AlreadyPaidError struct {
	BookingNumber string
}

func (e AlreadyPaidError) Error() string {
	if e.BookingNumber == "" {
		return "payment already completed"
	}
	return fmt.Sprintf("payment already completed for booking %s", e.BookingNumber)
}

type AccessDeniedError struct {
	Msg string
}

func (e AccessDeniedError) Error() string {
	if e.Msg == "" {
		return "access denied"
	}
	return "access denied: " + e.Msg
}

type BookingNotConfirmedError struct {
	Status string
}

func (e BookingNotConfirmedError) Error() string {
	return fmt.Sprintf("booking is not confirmed (status %s)", e.Status)
}

// ServiceUnavailableError wraps store timeouts and dropped connections.
type ServiceUnavailableError struct {
	Err error
}

func (e ServiceUnavailableError) Error() string {
	return "service temporarily unavailable"
}

func (e ServiceUnavailableError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsSeatConflict(err error) bool {
	var target SeatConflictError
	return errors.As(err, &target)
}

func IsInvalidSeat(err error) bool {
	var target InvalidSeatError
	return errors.As(err, &target)
}

func IsInvalidState(err error) bool {
	var target InvalidStateError
	return errors.As(err, &target)
}

func IsCancellationNotAllowed(err error) bool {
	var target CancellationNotAllowedError
	return errors.As(err, &target)
}

func IsAlreadyPaid(err error) bool {
	var target AlreadyPaidError
	return errors.As(err, &target)
}

func IsAccessDenied(err error) bool {
	var target AccessDeniedError
	return errors.As(err, &target)
}

func IsBookingNotConfirmed(err error) bool {
	var target BookingNotConfirmedError
	return errors.As(err, &target)
}

func IsServiceUnavailable(err error) bool {
	var target ServiceUnavailableError
	return errors.As(err, &target)
}

// IsRetryable reports whether the caller should re-fetch availability and try again.
func IsRetryable(err error) bool {
	return IsSeatConflict(err)
}
