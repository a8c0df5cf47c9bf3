package services

import (
	"context"
	"strings"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/utils"

	"github.com/google/uuid"
)

// SeatInventory answers which seats of a slot are free and claims them atomically.
// It keeps no state between calls: the seat ledger in the store is the only source of truth.
type SeatInventory struct {
	Buses   BusReader
	Store   BookingStore
	Timeout time.Duration
}

// ValidateSlot checks the date and departure time format of a slot.
func ValidateSlot(slot models.SeatSlot) (models.SeatSlot, error) {
	slot.Date = strings.TrimSpace(slot.Date)
	if slot.Date == "" {
		return slot, domain.ValidationError{Field: "date", Msg: "date is required"}
	}
	if _, err := utils.ParseDate(slot.Date, time.UTC); err != nil {
		return slot, domain.ValidationError{Field: "date", Msg: "must be YYYY-MM-DD", Err: err}
	}
	if strings.TrimSpace(slot.DepartureTime) == "" {
		return slot, domain.ValidationError{Field: "departureTime", Msg: "departure time is required"}
	}
	t, err := utils.NormalizeTime(slot.DepartureTime)
	if err != nil {
		return slot, domain.ValidationError{Field: "departureTime", Msg: "must be HH:MM", Err: err}
	}
	slot.DepartureTime = t
	return slot, nil
}

// AvailableSeats returns the bookable seats of the bus minus those held in the slot, in layout order.
func (s SeatInventory) AvailableSeats(ctx context.Context, slot models.SeatSlot) ([]string, error) {
	seatMap, err := s.SeatMap(ctx, slot)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, cell := range seatMap {
		if cell.Available {
			out = append(out, cell.Number)
		}
	}
	return out, nil
}

// SeatMap returns every seat of the bus with its availability for the slot.
// Inactive seats are listed as unavailable.
func (s SeatInventory) SeatMap(ctx context.Context, slot models.SeatSlot) ([]models.SeatAvailability, error) {
	slot, err := ValidateSlot(slot)
	if err != nil {
		return nil, err
	}

	cctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()

	bus, err := s.Buses.GetBus(cctx, slot.BusID)
	if err != nil {
		return nil, storeError(err)
	}
	held, err := s.Store.HeldSeats(cctx, slot)
	if err != nil {
		return nil, storeError(err)
	}
	heldSet := seatSet(held)

	out := make([]models.SeatAvailability, 0, len(bus.Seats))
	for _, seat := range bus.Seats {
		seat.Number = models.NormalizeSeatNumber(seat.Number)
		_, taken := heldSet[seat.Number]
		out = append(out, models.SeatAvailability{Seat: seat, Available: seat.IsActive && !taken})
	}
	return out, nil
}

// ClaimSeats validates requested against the bus layout and claims them inside uow.
// On any error nothing has been written.
func (s SeatInventory) ClaimSeats(ctx context.Context, uow UnitOfWork, bus models.Bus, slot models.SeatSlot, requested []string) (models.SeatClaim, error) {
	seats, err := normalizeRequestedSeats(requested)
	if err != nil {
		return models.SeatClaim{}, err
	}

	bookable := seatSet(bus.BookableSeats())
	invalid := []string{}
	for _, seat := range seats {
		if _, ok := bookable[seat]; !ok {
			invalid = append(invalid, seat)
		}
	}
	if len(invalid) > 0 {
		return models.SeatClaim{}, domain.InvalidSeatError{Seats: invalid}
	}

	held, err := uow.HeldSeats(ctx, slot)
	if err != nil {
		return models.SeatClaim{}, err
	}
	if taken := utils.IntersectSeats(seats, held); len(taken) > 0 {
		return models.SeatClaim{}, domain.SeatConflictError{Seats: taken}
	}

	claim := models.SeatClaim{Token: uuid.NewString(), Slot: slot, Seats: seats}
	if err := uow.InsertClaim(ctx, claim); err != nil {
		return models.SeatClaim{}, err
	}
	return claim, nil
}

func normalizeRequestedSeats(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, domain.ValidationError{Field: "seats", Msg: "at least one seat required"}
	}
	seen := make(map[string]struct{}, len(requested))
	out := make([]string, 0, len(requested))
	for _, raw := range requested {
		seat := models.NormalizeSeatNumber(raw)
		if seat == "" {
			return nil, domain.ValidationError{Field: "seats", Msg: "empty seat number"}
		}
		if _, dup := seen[seat]; dup {
			return nil, domain.ValidationError{Field: "seats", Msg: "duplicate seat " + seat}
		}
		seen[seat] = struct{}{}
		out = append(out, seat)
	}
	return out, nil
}

func seatSet(seats []string) map[string]struct{} {
	out := make(map[string]struct{}, len(seats))
	for _, seat := range seats {
		out[models.NormalizeSeatNumber(seat)] = struct{}{}
	}
	return out
}
