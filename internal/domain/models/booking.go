package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	LayoutDate = "2006-01-02"
	LayoutTime = "15:04"

	MinPassengers = 1
	MaxPassengers = 6
)

type Passenger struct {
	Name       string     `json:"name"`
	Age        int        `json:"age"`
	Gender     Gender     `json:"gender,omitempty"`
	SeatNumber string     `json:"seatNumber"`
	TicketType TicketType `json:"ticketType"`
}

type Journey struct {
	Date            string     `json:"date"`
	DepartureTime   string     `json:"departureTime"`
	ActualDeparture *time.Time `json:"actualDeparture,omitempty"`
	ActualArrival   *time.Time `json:"actualArrival,omitempty"`
	BoardingPoint   string     `json:"boardingPoint,omitempty"`
	DroppingPoint   string     `json:"droppingPoint,omitempty"`
}

// DepartureAt combines date and departure time in loc.
func (j Journey) DepartureAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(LayoutDate+" "+LayoutTime, strings.TrimSpace(j.Date)+" "+strings.TrimSpace(j.DepartureTime), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid journey date/time %q %q: %w", j.Date, j.DepartureTime, err)
	}
	return t, nil
}

type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type Discount struct {
	Code   string `json:"code,omitempty"`
	Amount int64  `json:"amount"`
}

// Pricing amounts are whole currency units.
type Pricing struct {
	BasePrice   int64    `json:"basePrice"`
	Taxes       int64    `json:"taxes"`
	Discount    Discount `json:"discounts"`
	TotalAmount int64    `json:"totalAmount"`
	Currency    string   `json:"currency"`
}

// DiscountRule is a resolved discount code: either a flat amount or a percent of the base price.
type DiscountRule struct {
	Code      string     `json:"code"`
	Amount    int64      `json:"amount,omitempty"`
	Percent   float64    `json:"percent,omitempty"`
	ValidFrom *time.Time `json:"validFrom,omitempty"`
	ValidTo   *time.Time `json:"validTo,omitempty"`
	IsActive  bool       `json:"isActive"`
}

// ActiveAt reports whether the rule can be applied at t.
func (d DiscountRule) ActiveAt(t time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.ValidFrom != nil && t.Before(*d.ValidFrom) {
		return false
	}
	if d.ValidTo != nil && t.After(*d.ValidTo) {
		return false
	}
	return true
}

type Payment struct {
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
	PaidAmount    int64         `json:"paidAmount"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
}

type Cancellation struct {
	IsCancelled    bool       `json:"isCancelled"`
	CancelledAt    *time.Time `json:"cancelledAt,omitempty"`
	CancelledBy    Actor      `json:"cancelledBy,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	Fee            int64      `json:"cancellationFee"`
	RefundEligible bool       `json:"refundEligible"`
	RefundAmount   int64      `json:"refundAmount"`
}

type CheckIn struct {
	IsCheckedIn bool       `json:"isCheckedIn"`
	CheckedInAt *time.Time `json:"checkedInAt,omitempty"`
	CheckedInBy Actor      `json:"checkedInBy,omitempty"`
	Location    string     `json:"location,omitempty"`
}

type Feedback struct {
	Rating      int            `json:"rating"`
	Comment     string         `json:"comment,omitempty"`
	Aspects     map[string]int `json:"aspects,omitempty"`
	SubmittedAt *time.Time     `json:"submittedAt,omitempty"`
}

// Submitted reports whether feedback has been recorded.
func (f Feedback) Submitted() bool {
	return f.Rating > 0
}

// Booking is the central aggregate.
type Booking struct {
	ID                    int64         `json:"id"`
	BookingNumber         string        `json:"bookingNumber"`
	UserID                int64         `json:"userId"`
	BusID                 int64         `json:"busId"`
	RouteID               int64         `json:"routeId"`
	ClaimToken            string        `json:"-"`
	Passengers            []Passenger   `json:"passengers"`
	Journey               Journey       `json:"journey"`
	Contact               Contact       `json:"contact"`
	Pricing               Pricing       `json:"pricing"`
	Payment               Payment       `json:"payment"`
	Cancellation          Cancellation  `json:"cancellation"`
	CheckIn               CheckIn       `json:"checkIn"`
	Feedback              Feedback      `json:"feedback"`
	LoyaltyPointsEarned   int64         `json:"loyaltyPointsEarned"`
	LoyaltyPointsRedeemed int64         `json:"loyaltyPointsRedeemed"`
	Status                BookingStatus `json:"status"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`
}

// Slot returns the seat slot this booking occupies.
func (b Booking) Slot() SeatSlot {
	return SeatSlot{BusID: b.BusID, Date: b.Journey.Date, DepartureTime: b.Journey.DepartureTime}
}

// SeatNumbers lists the seats of every passenger.
func (b Booking) SeatNumbers() []string {
	out := make([]string, 0, len(b.Passengers))
	for _, p := range b.Passengers {
		out = append(out, p.SeatNumber)
	}
	return out
}

// Clone returns a deep copy so callers can compute a next state without touching the original.
func (b Booking) Clone() Booking {
	out := b
	out.Passengers = append([]Passenger(nil), b.Passengers...)
	if b.Feedback.Aspects != nil {
		out.Feedback.Aspects = make(map[string]int, len(b.Feedback.Aspects))
		for k, v := range b.Feedback.Aspects {
			out.Feedback.Aspects[k] = v
		}
	}
	return out
}

// PassengerInput carries per-seat passenger info from the request.
type PassengerInput struct {
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	SeatNumber string `json:"seatNumber"`
}

// PaymentDetails is what a payment confirmation carries.
type PaymentDetails struct {
	TransactionID string        `json:"transactionId"`
	Method        PaymentMethod `json:"method,omitempty"`
	PaidAmount    int64         `json:"paidAmount"`
}
