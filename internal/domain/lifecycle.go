package domain

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"busbooking/internal/domain/models"
)

var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusPending:   {models.BookingStatusConfirmed, models.BookingStatusCancelled},
	models.BookingStatusConfirmed: {models.BookingStatusCompleted, models.BookingStatusCancelled, models.BookingStatusNoShow},
}

// CanTransition reports whether from -> to is an edge of the booking lifecycle.
func CanTransition(from, to models.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from s in one step.
func NextStatuses(s models.BookingStatus) []models.BookingStatus {
	return append([]models.BookingStatus(nil), transitions[s]...)
}

// RequireTransition returns InvalidStateError when from -> to is not a lifecycle edge.
func RequireTransition(op string, from, to models.BookingStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return InvalidStateError{Op: op, Status: string(from), Msg: "cannot move to " + string(to)}
}

const bookingNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewBookingNumber returns "BK" + yymmddHHMMSS + 4 random base-36 characters.
// Uniqueness is enforced by the store; callers regenerate on collision.
func NewBookingNumber(now time.Time) string {
	var sb strings.Builder
	sb.WriteString("BK")
	sb.WriteString(now.Format("060102150405"))
	max := big.NewInt(int64(len(bookingNumberAlphabet)))
	for i := 0; i < 4; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			sb.WriteByte(bookingNumberAlphabet[now.Nanosecond()%len(bookingNumberAlphabet)])
			continue
		}
		sb.WriteByte(bookingNumberAlphabet[n.Int64()])
	}
	return sb.String()
}

// BuildPassengers validates passenger input and assigns ticket types by age.
func BuildPassengers(in []models.PassengerInput) ([]models.Passenger, error) {
	if len(in) < models.MinPassengers || len(in) > models.MaxPassengers {
		return nil, ValidationError{Field: "passengers", Msg: "between 1 and 6 passengers required"}
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]models.Passenger, 0, len(in))
	for _, p := range in {
		name := strings.TrimSpace(p.Name)
		seat := models.NormalizeSeatNumber(p.SeatNumber)
		if name == "" {
			return nil, ValidationError{Field: "passengers.name", Msg: "required"}
		}
		if seat == "" {
			return nil, ValidationError{Field: "passengers.seatNumber", Msg: "required"}
		}
		if p.Age < 0 || p.Age > 120 {
			return nil, ValidationError{Field: "passengers.age", Msg: "must be between 0 and 120"}
		}
		if _, dup := seen[seat]; dup {
			return nil, ValidationError{Field: "passengers.seatNumber", Msg: "duplicate seat " + seat}
		}
		seen[seat] = struct{}{}

		gender := models.Gender(strings.ToLower(strings.TrimSpace(p.Gender)))
		if gender != "" && !gender.Valid() {
			return nil, ValidationError{Field: "passengers.gender", Msg: "unknown value " + p.Gender}
		}
		out = append(out, models.Passenger{
			Name:       name,
			Age:        p.Age,
			Gender:     gender,
			SeatNumber: seat,
			TicketType: models.TicketTypeForAge(p.Age),
		})
	}
	return out, nil
}

// ValidateRating checks a feedback rating.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ValidationError{Field: "rating", Msg: "must be between 1 and 5"}
	}
	return nil
}
