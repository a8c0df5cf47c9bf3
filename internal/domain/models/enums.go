package models

import (
	"fmt"
	"strings"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted,
		BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

// HoldsSeats reports whether a booking in this status keeps its seats out of inventory.
func (s BookingStatus) HoldsSeats() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled || s == BookingStatusNoShow
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodQRIS     PaymentMethod = "qris"
	PaymentMethodWallet   PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodQRIS, PaymentMethodWallet:
		return true
	}
	return false
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown payment method %q", s)
	}
	return m, nil
}

type TicketType string

const (
	TicketTypeAdult  TicketType = "adult"
	TicketTypeChild  TicketType = "child"
	TicketTypeSenior TicketType = "senior"
)

// TicketTypeForAge assigns child below 12 and senior above 60.
func TicketTypeForAge(age int) TicketType {
	switch {
	case age < 12:
		return TicketTypeChild
	case age > 60:
		return TicketTypeSenior
	default:
		return TicketTypeAdult
	}
}

// Actor identifies who performed a lifecycle action (cancelledBy, checkedInBy).
type Actor string

const (
	ActorUser     Actor = "user"
	ActorAdmin    Actor = "admin"
	ActorOperator Actor = "operator"
	ActorSystem   Actor = "system"
)

func (a Actor) Valid() bool {
	switch a {
	case ActorUser, ActorAdmin, ActorOperator, ActorSystem:
		return true
	}
	return false
}

func ParseActor(s string) (Actor, error) {
	a := Actor(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown actor %q", s)
	}
	return a, nil
}

// Staff reports whether the actor may act on bookings they don't own.
func (a Actor) Staff() bool {
	return a == ActorAdmin || a == ActorOperator || a == ActorSystem
}

type BusType string

const (
	BusTypeStandard BusType = "standard"
	BusTypeDeluxe   BusType = "deluxe"
	BusTypeSleeper  BusType = "sleeper"
	BusTypeAC       BusType = "ac"
	BusTypeNonAC    BusType = "non_ac"
)

func (t BusType) Valid() bool {
	switch t {
	case BusTypeStandard, BusTypeDeluxe, BusTypeSleeper, BusTypeAC, BusTypeNonAC:
		return true
	}
	return false
}

type SeatType string

const (
	SeatTypeWindow  SeatType = "window"
	SeatTypeAisle   SeatType = "aisle"
	SeatTypeMiddle  SeatType = "middle"
	SeatTypeSleeper SeatType = "sleeper"
)

func (t SeatType) Valid() bool {
	switch t {
	case SeatTypeWindow, SeatTypeAisle, SeatTypeMiddle, SeatTypeSleeper:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}
