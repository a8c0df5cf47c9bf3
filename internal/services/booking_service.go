package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"
)

// bookingNumberAttempts bounds regeneration after a booking number collision.
const bookingNumberAttempts = 3

// BookingService drives the booking lifecycle. Every mutation reads the booking,
// computes the next state in memory and persists it with one guarded write.
type BookingService struct {
	Store     BookingStore
	Seats     SeatInventory
	Buses     BusReader
	Routes    RouteReader
	Discounts DiscountLookup
	Loyalty   LoyaltyLedger
	Clock     Clock
	Location  *time.Location
	Timeout   time.Duration
	RequestID string
}

type CreateBookingInput struct {
	UserID        int64
	BusID         int64
	RouteID       int64
	Date          string
	DepartureTime string
	BoardingPoint string
	DroppingPoint string
	Passengers    []models.PassengerInput
	Contact       models.Contact
	PaymentMethod string
	DiscountCode  string
}

type QuoteInput struct {
	RouteID        int64    `json:"routeId"`
	BusID          int64    `json:"busId"`
	Date           string   `json:"date"`
	DepartureTime  string   `json:"departureTime"`
	PassengerCount int      `json:"passengerCount"`
	Seats          []string `json:"seats"`
	DiscountCode   string   `json:"discountCode"`
}

type QuoteResult struct {
	Pricing          models.Pricing `json:"pricing"`
	AvailableSeats   []string       `json:"availableSeats,omitempty"`
	UnavailableSeats []string       `json:"unavailableSeats,omitempty"`
}

type FeedbackInput struct {
	Rating  int            `json:"rating"`
	Comment string         `json:"comment"`
	Aspects map[string]int `json:"aspects"`
}

func (s BookingService) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.Local
}

// Create validates the request, claims the seats and inserts a pending booking in one transaction.
func (s BookingService) Create(ctx context.Context, in CreateBookingInput) (models.Booking, error) {
	passengers, err := domain.BuildPassengers(in.Passengers)
	if err != nil {
		return models.Booking{}, err
	}
	contact, err := validateContact(in.Contact)
	if err != nil {
		return models.Booking{}, err
	}
	method, err := models.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return models.Booking{}, domain.ValidationError{Field: "paymentMethod", Msg: err.Error()}
	}
	if in.BusID <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "busId", Msg: "required"}
	}
	if in.RouteID <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "routeId", Msg: "required"}
	}
	slot, err := ValidateSlot(models.SeatSlot{BusID: in.BusID, Date: in.Date, DepartureTime: in.DepartureTime})
	if err != nil {
		return models.Booking{}, err
	}

	now := s.Clock.now()
	journey := models.Journey{
		Date:          slot.Date,
		DepartureTime: slot.DepartureTime,
		BoardingPoint: strings.TrimSpace(in.BoardingPoint),
		DroppingPoint: strings.TrimSpace(in.DroppingPoint),
	}
	departure, err := journey.DepartureAt(s.loc())
	if err != nil {
		return models.Booking{}, domain.ValidationError{Field: "journey", Msg: err.Error()}
	}
	if departure.Before(now) {
		return models.Booking{}, domain.ValidationError{Field: "journey.date", Msg: "departure is in the past"}
	}

	cctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()

	bus, err := s.Buses.GetBus(cctx, in.BusID)
	if err != nil {
		return models.Booking{}, storeError(err)
	}
	route, err := s.Routes.GetRoute(cctx, in.RouteID)
	if err != nil {
		return models.Booking{}, storeError(err)
	}
	if err := checkBusRoute(bus, route, slot.DepartureTime); err != nil {
		return models.Booking{}, err
	}
	rule, err := s.resolveDiscount(cctx, in.DiscountCode, now)
	if err != nil {
		return models.Booking{}, err
	}

	b := models.Booking{
		UserID:     in.UserID,
		BusID:      bus.ID,
		RouteID:    route.ID,
		Passengers: passengers,
		Journey:    journey,
		Contact:    contact,
		Pricing:    domain.Quote(route, len(passengers), rule),
		Payment:    models.Payment{Method: method, Status: models.PaymentStatusPending},
		Status:     models.BookingStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.Store.WithinTx(cctx, func(uow UnitOfWork) error {
		claim, err := s.Seats.ClaimSeats(cctx, uow, bus, slot, b.SeatNumbers())
		if err != nil {
			return err
		}
		b.ClaimToken = claim.Token
		for attempt := 0; attempt < bookingNumberAttempts; attempt++ {
			b.BookingNumber = domain.NewBookingNumber(now)
			err = uow.InsertBooking(cctx, &b)
			if !errors.Is(err, repositories.ErrDuplicateBookingNumber) {
				return err
			}
		}
		return domain.InternalError{Msg: "could not allocate a booking number", Err: err}
	})
	if err != nil {
		if domain.IsSeatConflict(err) {
			utils.LogWarn(s.RequestID, "booking", "create", fmt.Sprintf("seat conflict %s: %v", slot, err))
		}
		return models.Booking{}, storeError(err)
	}

	utils.LogEvent(s.RequestID, "booking", "create", fmt.Sprintf("booking=%s user=%d %s seats=%s total=%d",
		b.BookingNumber, b.UserID, slot, strings.Join(b.SeatNumbers(), ","), b.Pricing.TotalAmount))
	return b, nil
}

func validateContact(c models.Contact) (models.Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Name == "" {
		return c, domain.ValidationError{Field: "contact.name", Msg: "required"}
	}
	if c.Phone == "" {
		return c, domain.ValidationError{Field: "contact.phone", Msg: "required"}
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return c, domain.ValidationError{Field: "contact.email", Msg: "invalid email"}
	}
	return c, nil
}

func checkBusRoute(bus models.Bus, route models.Route, departureTime string) error {
	if !route.IsActive {
		return domain.ValidationError{Field: "routeId", Msg: "route is not active"}
	}
	if bus.RouteID != 0 && bus.RouteID != route.ID {
		return domain.ValidationError{Field: "routeId", Msg: "bus does not serve this route"}
	}
	if !route.Operates(departureTime) {
		return domain.ValidationError{Field: "departureTime", Msg: "outside route operating hours"}
	}
	return nil
}

func (s BookingService) resolveDiscount(ctx context.Context, code string, now time.Time) (*models.DiscountRule, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil
	}
	if s.Discounts == nil {
		return nil, domain.ValidationError{Field: "discountCode", Msg: "discount codes are not accepted"}
	}
	rule, err := s.Discounts.Lookup(ctx, code)
	if err != nil {
		if domain.IsNotFound(err) || domain.IsValidation(err) {
			return nil, domain.ValidationError{Field: "discountCode", Msg: "unknown discount code", Err: err}
		}
		return nil, storeError(err)
	}
	if !rule.ActiveAt(now) {
		return nil, domain.ValidationError{Field: "discountCode", Msg: "discount code is not active"}
	}
	return &rule, nil
}

// Quote prices a prospective booking and, when a slot is given, reports which requested seats are taken.
// Nothing is claimed.
func (s BookingService) Quote(ctx context.Context, in QuoteInput) (QuoteResult, error) {
	if in.RouteID <= 0 {
		return QuoteResult{}, domain.ValidationError{Field: "routeId", Msg: "required"}
	}
	count := in.PassengerCount
	if count == 0 {
		count = len(in.Seats)
	}
	if count < models.MinPassengers || count > models.MaxPassengers {
		return QuoteResult{}, domain.ValidationError{Field: "passengerCount", Msg: "between 1 and 6 passengers required"}
	}

	cctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()

	route, err := s.Routes.GetRoute(cctx, in.RouteID)
	if err != nil {
		return QuoteResult{}, storeError(err)
	}
	rule, err := s.resolveDiscount(cctx, in.DiscountCode, s.Clock.now())
	if err != nil {
		return QuoteResult{}, err
	}
	out := QuoteResult{Pricing: domain.Quote(route, count, rule)}

	if in.BusID > 0 && strings.TrimSpace(in.Date) != "" {
		available, err := s.Seats.AvailableSeats(cctx, models.SeatSlot{BusID: in.BusID, Date: in.Date, DepartureTime: in.DepartureTime})
		if err != nil {
			return QuoteResult{}, err
		}
		out.AvailableSeats = available
		requested := make([]string, 0, len(in.Seats))
		for _, seat := range in.Seats {
			requested = append(requested, models.NormalizeSeatNumber(seat))
		}
		out.UnavailableSeats = utils.DiffSeats(requested, available)
	}
	return out, nil
}

// Get returns a booking the caller may see.
func (s BookingService) Get(ctx context.Context, id int64, caller Caller) (models.Booking, error) {
	cctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()

	b, err := s.Store.GetBooking(cctx, id)
	if err != nil {
		return models.Booking{}, storeError(err)
	}
	if err := authorize(b, caller); err != nil {
		return models.Booking{}, err
	}
	return b, nil
}

// ListForUser pages the user's bookings, newest first.
func (s BookingService) ListForUser(ctx context.Context, userID int64, page domain.Pagination) ([]models.Booking, domain.Pagination, error) {
	page = page.Normalize()
	cctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()

	items, total, err := s.Store.ListBookingsByUser(cctx, userID, page)
	if err != nil {
		return nil, page, storeError(err)
	}
	page.Total = total
	return items, page, nil
}

// mutate loads the booking, lets apply compute the next state and persists it with a guarded write.
// When apply or the write fails the stored booking is untouched.
func (s BookingService) mutate(ctx context.Context, id int64, caller Caller, apply func(b *models.Booking, now time.Time) error) (models.Booking, models.Booking, error) {
	cctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()

	prev, err := s.Store.GetBooking(cctx, id)
	if err != nil {
		return models.Booking{}, models.Booking{}, storeError(err)
	}
	if err := authorize(prev, caller); err != nil {
		return models.Booking{}, models.Booking{}, err
	}

	now := s.Clock.now()
	next := prev.Clone()
	if err := apply(&next, now); err != nil {
		return models.Booking{}, models.Booking{}, err
	}
	next.UpdatedAt = now

	if err := s.Store.WithinTx(cctx, func(uow UnitOfWork) error {
		return uow.UpdateBooking(cctx, next, prev)
	}); err != nil {
		return models.Booking{}, models.Booking{}, storeError(err)
	}
	return next, prev, nil
}

// ConfirmPayment records a completed payment and confirms the booking.
// Loyalty points are credited afterwards; a failed credit is logged and does not undo the confirmation.
func (s BookingService) ConfirmPayment(ctx context.Context, id int64, caller Caller, details models.PaymentDetails) (models.Booking, error) {
	next, _, err := s.mutate(ctx, id, caller, func(b *models.Booking, now time.Time) error {
		if b.Payment.Status == models.PaymentStatusCompleted {
			return domain.AlreadyPaidError{BookingNumber: b.BookingNumber}
		}
		if err := domain.RequireTransition("confirm payment", b.Status, models.BookingStatusConfirmed); err != nil {
			return err
		}
		method := b.Payment.Method
		if details.Method != "" {
			m, err := models.ParsePaymentMethod(string(details.Method))
			if err != nil {
				return domain.ValidationError{Field: "method", Msg: err.Error()}
			}
			method = m
		}
		paid := details.PaidAmount
		if paid == 0 {
			paid = b.Pricing.TotalAmount
		}
		if paid < b.Pricing.TotalAmount {
			return domain.ValidationError{Field: "paidAmount", Msg: "less than total amount"}
		}
		paidAt := now
		b.Payment = models.Payment{
			Method:        method,
			Status:        models.PaymentStatusCompleted,
			TransactionID: strings.TrimSpace(details.TransactionID),
			PaidAmount:    paid,
			PaidAt:        &paidAt,
		}
		b.Status = models.BookingStatusConfirmed
		b.LoyaltyPointsEarned = domain.LoyaltyPoints(b.Pricing.TotalAmount)
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}

	utils.LogEvent(s.RequestID, "booking", "confirm_payment", fmt.Sprintf("booking=%s amount=%d txn=%s",
		next.BookingNumber, next.Payment.PaidAmount, next.Payment.TransactionID))
	s.creditLoyalty(ctx, next)
	return next, nil
}

func (s BookingService) creditLoyalty(ctx context.Context, b models.Booking) {
	if s.Loyalty == nil || b.LoyaltyPointsEarned <= 0 || b.UserID <= 0 {
		return
	}
	cctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()
	if err := s.Loyalty.AddLoyaltyPoints(cctx, b.UserID, b.LoyaltyPointsEarned); err != nil {
		utils.LogWarn(s.RequestID, "booking", "loyalty_credit", fmt.Sprintf("booking=%s user=%d points=%d: %v",
			b.BookingNumber, b.UserID, b.LoyaltyPointsEarned, err))
	}
}

// CancellationPreview evaluates the cancellation policy without changing anything.
func (s BookingService) CancellationPreview(ctx context.Context, id int64, caller Caller) (domain.CancellationDecision, error) {
	b, err := s.Get(ctx, id, caller)
	if err != nil {
		return domain.CancellationDecision{}, err
	}
	return domain.EvaluateCancellation(b, s.Clock.now(), s.loc()), nil
}

// Cancel applies the cancellation policy and releases the seats in the same write.
func (s BookingService) Cancel(ctx context.Context, id int64, caller Caller, reason string) (models.Booking, domain.CancellationDecision, error) {
	var decision domain.CancellationDecision
	next, prev, err := s.mutate(ctx, id, caller, func(b *models.Booking, now time.Time) error {
		decision = domain.EvaluateCancellation(*b, now, s.loc())
		if !decision.Allowed {
			return domain.CancellationNotAllowedError{Reason: decision.Reason}
		}
		if err := domain.RequireTransition("cancel", b.Status, models.BookingStatusCancelled); err != nil {
			return err
		}
		at := now
		by := caller.Role
		if by == "" {
			by = models.ActorUser
		}
		b.Cancellation = models.Cancellation{
			IsCancelled:    true,
			CancelledAt:    &at,
			CancelledBy:    by,
			Reason:         strings.TrimSpace(reason),
			Fee:            decision.FeeAmount,
			RefundEligible: decision.RefundEligible,
			RefundAmount:   decision.RefundAmount,
		}
		if b.Payment.Status == models.PaymentStatusCompleted && decision.RefundEligible {
			b.Payment.Status = models.PaymentStatusRefunded
		}
		b.Status = models.BookingStatusCancelled
		return nil
	})
	if err != nil {
		return models.Booking{}, domain.CancellationDecision{}, err
	}

	utils.LogEvent(s.RequestID, "booking", "cancel", fmt.Sprintf("booking=%s from=%s by=%s fee=%d refund=%d",
		next.BookingNumber, prev.Status, next.Cancellation.CancelledBy, next.Cancellation.Fee, next.Cancellation.RefundAmount))
	return next, decision, nil
}

// CheckIn records boarding for a confirmed booking. The status stays confirmed.
func (s BookingService) CheckIn(ctx context.Context, id int64, caller Caller, location string) (models.Booking, error) {
	next, _, err := s.mutate(ctx, id, caller, func(b *models.Booking, now time.Time) error {
		if b.Status != models.BookingStatusConfirmed {
			return domain.InvalidStateError{Op: "check in", Status: string(b.Status), Msg: "only confirmed bookings can check in"}
		}
		if b.CheckIn.IsCheckedIn {
			return domain.InvalidStateError{Op: "check in", Status: string(b.Status), Msg: "already checked in"}
		}
		at := now
		by := caller.Role
		if by == "" {
			by = models.ActorUser
		}
		b.CheckIn = models.CheckIn{
			IsCheckedIn: true,
			CheckedInAt: &at,
			CheckedInBy: by,
			Location:    strings.TrimSpace(location),
		}
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}
	utils.LogEvent(s.RequestID, "booking", "checkin", fmt.Sprintf("booking=%s by=%s", next.BookingNumber, next.CheckIn.CheckedInBy))
	return next, nil
}

// AddFeedback stores the one feedback a completed booking may receive.
func (s BookingService) AddFeedback(ctx context.Context, id int64, caller Caller, in FeedbackInput) (models.Booking, error) {
	if err := domain.ValidateRating(in.Rating); err != nil {
		return models.Booking{}, err
	}
	for aspect, score := range in.Aspects {
		if score < 1 || score > 5 {
			return models.Booking{}, domain.ValidationError{Field: "aspects." + aspect, Msg: "must be between 1 and 5"}
		}
	}

	next, _, err := s.mutate(ctx, id, caller, func(b *models.Booking, now time.Time) error {
		if b.Status != models.BookingStatusCompleted {
			return domain.InvalidStateError{Op: "feedback", Status: string(b.Status), Msg: "only completed bookings accept feedback"}
		}
		if b.Feedback.Submitted() {
			return domain.InvalidStateError{Op: "feedback", Status: string(b.Status), Msg: "feedback already submitted"}
		}
		at := now
		b.Feedback = models.Feedback{
			Rating:      in.Rating,
			Comment:     strings.TrimSpace(in.Comment),
			Aspects:     in.Aspects,
			SubmittedAt: &at,
		}
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}
	utils.LogEvent(s.RequestID, "booking", "feedback", fmt.Sprintf("booking=%s rating=%d", next.BookingNumber, next.Feedback.Rating))
	return next, nil
}

// Complete marks a confirmed trip as travelled.
func (s BookingService) Complete(ctx context.Context, id int64, caller Caller) (models.Booking, error) {
	return s.finish(ctx, id, caller, "complete", models.BookingStatusCompleted)
}

// MarkNoShow closes a confirmed booking whose passengers never boarded.
func (s BookingService) MarkNoShow(ctx context.Context, id int64, caller Caller) (models.Booking, error) {
	return s.finish(ctx, id, caller, "no_show", models.BookingStatusNoShow)
}

func (s BookingService) finish(ctx context.Context, id int64, caller Caller, op string, to models.BookingStatus) (models.Booking, error) {
	if err := requireStaff(caller, op); err != nil {
		return models.Booking{}, err
	}
	next, prev, err := s.mutate(ctx, id, caller, func(b *models.Booking, now time.Time) error {
		if err := domain.RequireTransition(op, b.Status, to); err != nil {
			return err
		}
		if to == models.BookingStatusCompleted && b.Journey.ActualArrival == nil {
			at := now
			b.Journey.ActualArrival = &at
		}
		b.Status = to
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}
	utils.LogEvent(s.RequestID, "booking", op, fmt.Sprintf("booking=%s %s->%s", next.BookingNumber, prev.Status, next.Status))
	return next, nil
}
