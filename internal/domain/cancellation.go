package domain

import (
	"time"

	"busbooking/internal/domain/models"
)

// CancellationCutoff is the window before departure in which cancellation is refused.
const CancellationCutoff = time.Hour

// CancellationDecision is the outcome of evaluating a cancellation request.
type CancellationDecision struct {
	Allowed             bool    `json:"allowed"`
	Reason              string  `json:"reason,omitempty"`
	HoursUntilDeparture float64 `json:"hoursUntilDeparture"`
	FeeFraction         float64 `json:"feeFraction"`
	FeeAmount           int64   `json:"feeAmount"`
	RefundEligible      bool    `json:"refundEligible"`
	RefundAmount        int64   `json:"refundAmount"`
}

// CancellationFeeFraction maps hours until departure to the fee tier.
func CancellationFeeFraction(hours float64) float64 {
	switch {
	case hours >= 24:
		return 0.10
	case hours >= 6:
		return 0.25
	case hours >= 2:
		return 0.50
	default:
		return 1.00
	}
}

// EvaluateCancellation decides whether b may be cancelled at now and at what cost.
func EvaluateCancellation(b models.Booking, now time.Time, loc *time.Location) CancellationDecision {
	switch b.Status {
	case models.BookingStatusCancelled:
		return CancellationDecision{Reason: "booking is already cancelled"}
	case models.BookingStatusCompleted:
		return CancellationDecision{Reason: "completed bookings cannot be cancelled"}
	case models.BookingStatusNoShow:
		return CancellationDecision{Reason: "no-show bookings cannot be cancelled"}
	}

	departure, err := b.Journey.DepartureAt(loc)
	if err != nil {
		return CancellationDecision{Reason: "journey departure is not set"}
	}
	until := departure.Sub(now)
	hours := until.Hours()
	if until < CancellationCutoff {
		return CancellationDecision{
			HoursUntilDeparture: hours,
			Reason:              "cannot cancel within 1 hour of departure",
		}
	}

	fraction := CancellationFeeFraction(hours)
	total := b.Pricing.TotalAmount
	fee := roundMoney(fraction * float64(total))
	if fee > total {
		fee = total
	}

	d := CancellationDecision{
		Allowed:             true,
		HoursUntilDeparture: hours,
		FeeFraction:         fraction,
		FeeAmount:           fee,
		RefundEligible:      fee < total,
	}
	if d.RefundEligible && b.Payment.Status == models.PaymentStatusCompleted {
		d.RefundAmount = total - fee
	}
	return d
}
