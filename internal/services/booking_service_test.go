package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC)

func testBus() models.Bus {
	return models.Bus{
		ID:         1,
		Number:     "BA 1 KHA 2345",
		OperatorID: 3,
		RouteID:    10,
		Type:       models.BusTypeDeluxe,
		Seats: []models.Seat{
			{Number: "A1", Type: models.SeatTypeWindow, Row: 1, Column: 1, IsActive: true},
			{Number: "A2", Type: models.SeatTypeAisle, Row: 1, Column: 2, IsActive: true},
			{Number: "A3", Type: models.SeatTypeAisle, Row: 1, Column: 3, IsActive: false},
			{Number: "B1", Type: models.SeatTypeWindow, Row: 2, Column: 1, IsActive: true},
			{Number: "B2", Type: models.SeatTypeAisle, Row: 2, Column: 2, IsActive: true},
		},
	}
}

func testRoute() models.Route {
	return models.Route{
		ID:          10,
		Code:        "KTM-PKR",
		Origin:      models.Stop{Name: "Kathmandu", Lat: 27.7172, Lng: 85.3240},
		Destination: models.Stop{Name: "Pokhara", Lat: 28.2096, Lng: 83.9856},
		DistanceKm:  200,
		Duration:    models.RouteDuration{EstimatedMinutes: 300},
		Pricing:     models.RoutePricing{BasePrice: 500, Currency: "NPR"},
		IsActive:    true,
	}
}

type bookingFixture struct {
	store   *memStore
	loyalty *fakeLoyalty
	svc     BookingService
}

func newBookingFixture(now time.Time) *bookingFixture {
	store := newMemStore()
	buses := fakeBuses{buses: map[int64]models.Bus{1: testBus()}}
	routes := fakeRoutes{10: testRoute(), 11: {ID: 11, Duration: models.RouteDuration{EstimatedMinutes: 60}, IsActive: true}}
	loyalty := &fakeLoyalty{}
	clock := Clock(func() time.Time { return now })
	return &bookingFixture{
		store:   store,
		loyalty: loyalty,
		svc: BookingService{
			Store:  store,
			Seats:  SeatInventory{Buses: buses, Store: store},
			Buses:  buses,
			Routes: routes,
			Discounts: fakeDiscounts{
				"NEWYEAR": {Code: "NEWYEAR", Percent: 10, IsActive: true},
				"OLD":     {Code: "OLD", Amount: 100, IsActive: false},
			},
			Loyalty:  loyalty,
			Clock:    clock,
			Location: time.UTC,
		},
	}
}

func pax(seats ...string) []models.PassengerInput {
	out := make([]models.PassengerInput, 0, len(seats))
	for i, seat := range seats {
		out = append(out, models.PassengerInput{Name: fmt.Sprintf("Passenger %d", i+1), Age: 30, Gender: "female", SeatNumber: seat})
	}
	return out
}

func createInput(userID int64, seats ...string) CreateBookingInput {
	return CreateBookingInput{
		UserID:        userID,
		BusID:         1,
		RouteID:       10,
		Date:          "2025-01-10",
		DepartureTime: "08:00",
		Passengers:    pax(seats...),
		Contact:       models.Contact{Name: "Sita", Phone: "9800000000", Email: "sita@example.com"},
		PaymentMethod: "card",
	}
}

func TestCreateSeatConflictScenario(t *testing.T) {
	f := newBookingFixture(testNow)
	ctx := context.Background()

	b1, err := f.svc.Create(ctx, createInput(1, "A1"))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, b1.Status)
	assert.Equal(t, models.PaymentStatusPending, b1.Payment.Status)
	assert.Regexp(t, `^BK\d{12}[0-9A-Z]{4}$`, b1.BookingNumber)
	assert.NotEmpty(t, b1.ClaimToken)

	_, err = f.svc.Create(ctx, createInput(2, "A1"))
	require.Error(t, err)
	var conflict domain.SeatConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"A1"}, conflict.Seats)
	assert.True(t, domain.IsRetryable(err))

	b2, err := f.svc.Create(ctx, createInput(2, "A2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A2"}, b2.SeatNumbers())

	held, err := f.store.HeldSeats(ctx, b1.Slot())
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, held)
}

func TestCreatePricesAndAssignsTicketTypes(t *testing.T) {
	f := newBookingFixture(testNow)
	in := createInput(1, "a1", " b1 ")
	in.Passengers[0].Age = 8
	in.Passengers[1].Age = 65

	b, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), b.Pricing.BasePrice)
	assert.Equal(t, int64(130), b.Pricing.Taxes)
	assert.Equal(t, int64(1130), b.Pricing.TotalAmount)
	assert.Equal(t, "NPR", b.Pricing.Currency)
	assert.Equal(t, []string{"A1", "B1"}, b.SeatNumbers())
	assert.Equal(t, models.TicketTypeChild, b.Passengers[0].TicketType)
	assert.Equal(t, models.TicketTypeSenior, b.Passengers[1].TicketType)
}

func TestCreateAppliesDiscountCode(t *testing.T) {
	f := newBookingFixture(testNow)
	in := createInput(1, "A1", "A2")
	in.DiscountCode = "NEWYEAR"

	b, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "NEWYEAR", b.Pricing.Discount.Code)
	assert.Equal(t, int64(100), b.Pricing.Discount.Amount)
	assert.Equal(t, int64(1030), b.Pricing.TotalAmount)

	_, err = f.svc.Create(context.Background(), createWithCode(in, "OLD"))
	var verr domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "discountCode", verr.Field)
}

func createWithCode(in CreateBookingInput, code string) CreateBookingInput {
	in.DiscountCode = code
	in.Passengers = pax("B1")
	return in
}

func TestCreateRejectsInvalidSeats(t *testing.T) {
	f := newBookingFixture(testNow)

	_, err := f.svc.Create(context.Background(), createInput(1, "A1", "Z9", "A3"))
	var invalid domain.InvalidSeatError
	require.True(t, errors.As(err, &invalid), "got %v", err)
	assert.Equal(t, []string{"Z9", "A3"}, invalid.Seats)
	assert.Empty(t, f.store.liveSeats())
}

func TestCreateValidation(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*CreateBookingInput)
		field string
	}{
		{"no passengers", func(in *CreateBookingInput) { in.Passengers = nil }, "passengers"},
		{"too many passengers", func(in *CreateBookingInput) { in.Passengers = pax("A1", "A2", "B1", "B2", "C1", "C2", "C3") }, "passengers"},
		{"duplicate seat", func(in *CreateBookingInput) { in.Passengers = pax("A1", "a1") }, "passengers.seatNumber"},
		{"missing name", func(in *CreateBookingInput) { in.Passengers[0].Name = " " }, "passengers.name"},
		{"missing contact phone", func(in *CreateBookingInput) { in.Contact.Phone = "" }, "contact.phone"},
		{"bad payment method", func(in *CreateBookingInput) { in.PaymentMethod = "barter" }, "paymentMethod"},
		{"missing date", func(in *CreateBookingInput) { in.Date = "" }, "date"},
		{"bad time", func(in *CreateBookingInput) { in.DepartureTime = "soon" }, "departureTime"},
		{"past departure", func(in *CreateBookingInput) { in.Date = "2025-01-08" }, "journey.date"},
		{"bus on another route", func(in *CreateBookingInput) { in.RouteID = 11 }, "routeId"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBookingFixture(testNow)
			in := createInput(1, "A1")
			tc.edit(&in)

			_, err := f.svc.Create(context.Background(), in)
			var verr domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, 0, f.store.txCount)
		})
	}
}

func TestCreateUnknownBusOrRoute(t *testing.T) {
	f := newBookingFixture(testNow)

	in := createInput(1, "A1")
	in.BusID = 42
	_, err := f.svc.Create(context.Background(), in)
	assert.True(t, domain.IsNotFound(err))

	in = createInput(1, "A1")
	in.RouteID = 99
	_, err = f.svc.Create(context.Background(), in)
	assert.True(t, domain.IsNotFound(err))
}

func TestCreateConcurrentClaimsNeverDoubleBook(t *testing.T) {
	f := newBookingFixture(testNow)
	selections := [][]string{{"A1"}, {"A1", "A2"}, {"A2", "B1"}, {"B1"}, {"B2", "A1"}, {"B2"}}

	const workers = 48
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes []models.Booking
		failures  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := f.svc.Create(context.Background(), createInput(int64(i+1), selections[i%len(selections)]...))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			successes = append(successes, b)
		}(i)
	}
	wg.Wait()

	seen := map[string]string{}
	for _, b := range successes {
		for _, seat := range b.SeatNumbers() {
			owner, dup := seen[seat]
			require.False(t, dup, "seat %s booked by %s and %s", seat, owner, b.BookingNumber)
			seen[seat] = b.BookingNumber
		}
	}
	for _, err := range failures {
		assert.True(t, domain.IsSeatConflict(err), "unexpected error %v", err)
	}
	assert.NotEmpty(t, successes)
	assert.Equal(t, workers, len(successes)+len(failures))
	assert.Len(t, f.store.liveSeats()[models.SeatSlot{BusID: 1, Date: "2025-01-10", DepartureTime: "08:00"}], len(seen))
}

func TestLedgerInsertGuardsStaleAvailability(t *testing.T) {
	f := newBookingFixture(testNow)
	f.store.blindHeld = true

	_, err := f.svc.Create(context.Background(), createInput(1, "A1", "A2"))
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), createInput(2, "B1", "A2"))
	var conflict domain.SeatConflictError
	require.True(t, errors.As(err, &conflict), "got %v", err)
	assert.Equal(t, []string{"A2"}, conflict.Seats)

	slot := models.SeatSlot{BusID: 1, Date: "2025-01-10", DepartureTime: "08:00"}
	assert.ElementsMatch(t, []string{"A1", "A2"}, f.store.liveSeats()[slot])
}

func TestCreateRegeneratesCollidingBookingNumber(t *testing.T) {
	f := newBookingFixture(testNow)
	f.store.duplicateNumbers = 2

	b, err := f.svc.Create(context.Background(), createInput(1, "A1"))
	require.NoError(t, err)
	assert.NotZero(t, b.ID)

	f.store.duplicateNumbers = bookingNumberAttempts
	_, err = f.svc.Create(context.Background(), createInput(1, "A2"))
	assert.True(t, domain.IsInternal(err), "got %v", err)

	held, _ := f.store.HeldSeats(context.Background(), b.Slot())
	assert.Equal(t, []string{"A1"}, held, "failed create must not keep its claim")
}

func TestConfirmPayment(t *testing.T) {
	f := newBookingFixture(testNow)
	ctx := context.Background()
	owner := Caller{UserID: 1, Role: models.ActorUser}

	b, err := f.svc.Create(ctx, createInput(1, "A1", "A2"))
	require.NoError(t, err)

	paid, err := f.svc.ConfirmPayment(ctx, b.ID, owner, models.PaymentDetails{TransactionID: "TXN-1"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, paid.Status)
	assert.Equal(t, models.PaymentStatusCompleted, paid.Payment.Status)
	assert.Equal(t, int64(1130), paid.Payment.PaidAmount)
	assert.Equal(t, models.PaymentMethodCard, paid.Payment.Method)
	require.NotNil(t, paid.Payment.PaidAt)
	assert.Equal(t, int64(11), paid.LoyaltyPointsEarned)
	assert.Equal(t, int64(11), f.loyalty.credits[1])

	_, err = f.svc.ConfirmPayment(ctx, b.ID, owner, models.PaymentDetails{TransactionID: "TXN-2"})
	assert.True(t, domain.IsAlreadyPaid(err), "got %v", err)

	stored, _ := f.store.GetBooking(ctx, b.ID)
	assert.Equal(t, "TXN-1", stored.Payment.TransactionID)
}

func TestConfirmPaymentSurvivesLoyaltyFailure(t *testing.T) {
	f := newBookingFixture(testNow)
	f.loyalty.err = errors.New("user service down")
	ctx := context.Background()

	b, err := f.svc.Create(ctx, createInput(1, "A1"))
	require.NoError(t, err)

	paid, err := f.svc.ConfirmPayment(ctx, b.ID, Caller{UserID: 1, Role: models.ActorUser}, models.PaymentDetails{TransactionID: "T"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, paid.Status)
}

func TestConfirmPaymentRejectsShortPayment(t *testing.T) {
	f := newBookingFixture(testNow)
	b, err := f.svc.Create(context.Background(), createInput(1, "A1"))
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(context.Background(), b.ID, Caller{UserID: 1, Role: models.ActorUser}, models.PaymentDetails{PaidAmount: 10})
	var verr domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "paidAmount", verr.Field)
}

func confirmedBooking(total int64) models.Booking {
	paidAt := testNow
	return models.Booking{
		BookingNumber: "BK250109080000TEST",
		UserID:        1,
		BusID:         1,
		RouteID:       10,
		Passengers:    []models.Passenger{{Name: "Sita", Age: 30, SeatNumber: "A1", TicketType: models.TicketTypeAdult}},
		Journey:       models.Journey{Date: "2025-01-10", DepartureTime: "08:00"},
		Pricing:       models.Pricing{TotalAmount: total, Currency: "NPR"},
		Payment:       models.Payment{Method: models.PaymentMethodCard, Status: models.PaymentStatusCompleted, PaidAmount: total, PaidAt: &paidAt},
		Status:        models.BookingStatusConfirmed,
	}
}

func TestCancelChargesTierFeeAndReleasesSeats(t *testing.T) {
	now := time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC) // 20h before departure
	f := newBookingFixture(now)
	ctx := context.Background()
	b := f.store.put(confirmedBooking(1000))

	preview, err := f.svc.CancellationPreview(ctx, b.ID, Caller{UserID: 1, Role: models.ActorUser})
	require.NoError(t, err)
	assert.True(t, preview.Allowed)
	assert.Equal(t, int64(250), preview.FeeAmount)

	cancelled, decision, err := f.svc.Cancel(ctx, b.ID, Caller{UserID: 1, Role: models.ActorUser}, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, 0.25, decision.FeeFraction)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	assert.True(t, cancelled.Cancellation.IsCancelled)
	assert.Equal(t, models.ActorUser, cancelled.Cancellation.CancelledBy)
	assert.Equal(t, "plans changed", cancelled.Cancellation.Reason)
	assert.Equal(t, int64(250), cancelled.Cancellation.Fee)
	assert.True(t, cancelled.Cancellation.RefundEligible)
	assert.Equal(t, int64(750), cancelled.Cancellation.RefundAmount)
	assert.Equal(t, models.PaymentStatusRefunded, cancelled.Payment.Status)

	held, err := f.store.HeldSeats(ctx, b.Slot())
	require.NoError(t, err)
	assert.Empty(t, held)

	// the released seat is bookable again
	_, err = f.svc.Create(ctx, createInput(2, "A1"))
	require.NoError(t, err)
}

func TestCancelRefusedNearDeparture(t *testing.T) {
	now := time.Date(2025, 1, 10, 7, 30, 0, 0, time.UTC)
	f := newBookingFixture(now)
	b := f.store.put(confirmedBooking(1000))

	_, _, err := f.svc.Cancel(context.Background(), b.ID, Caller{UserID: 1, Role: models.ActorUser}, "")
	assert.True(t, domain.IsCancellationNotAllowed(err), "got %v", err)

	stored, _ := f.store.GetBooking(context.Background(), b.ID)
	assert.Equal(t, models.BookingStatusConfirmed, stored.Status)
	held, _ := f.store.HeldSeats(context.Background(), b.Slot())
	assert.Equal(t, []string{"A1"}, held)
}

func TestCancelByAnotherUserDenied(t *testing.T) {
	f := newBookingFixture(testNow)
	b := f.store.put(confirmedBooking(1000))

	_, _, err := f.svc.Cancel(context.Background(), b.ID, Caller{UserID: 2, Role: models.ActorUser}, "")
	assert.True(t, domain.IsAccessDenied(err))

	_, _, err = f.svc.Cancel(context.Background(), b.ID, Caller{UserID: 9, Role: models.ActorAdmin}, "ops")
	require.NoError(t, err)
}

func TestCheckIn(t *testing.T) {
	f := newBookingFixture(testNow)
	ctx := context.Background()
	operator := Caller{UserID: 50, Role: models.ActorOperator}

	pending, err := f.svc.Create(ctx, createInput(1, "B2"))
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, pending.ID, operator, "Gate 1")
	assert.True(t, domain.IsInvalidState(err))

	b := f.store.put(confirmedBooking(1000))
	out, err := f.svc.CheckIn(ctx, b.ID, operator, "Gate 1")
	require.NoError(t, err)
	assert.True(t, out.CheckIn.IsCheckedIn)
	assert.Equal(t, models.ActorOperator, out.CheckIn.CheckedInBy)
	assert.Equal(t, "Gate 1", out.CheckIn.Location)
	assert.Equal(t, models.BookingStatusConfirmed, out.Status)

	_, err = f.svc.CheckIn(ctx, b.ID, operator, "Gate 1")
	assert.True(t, domain.IsInvalidState(err))

	_, err = f.svc.CheckIn(ctx, b.ID, Caller{UserID: 2, Role: models.ActorUser}, "")
	assert.True(t, domain.IsAccessDenied(err))
}

func TestAddFeedback(t *testing.T) {
	f := newBookingFixture(testNow)
	ctx := context.Background()
	owner := Caller{UserID: 1, Role: models.ActorUser}

	b := f.store.put(confirmedBooking(1000))

	_, err := f.svc.AddFeedback(ctx, b.ID, owner, FeedbackInput{Rating: 6})
	var verr domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "rating", verr.Field)

	_, err = f.svc.AddFeedback(ctx, b.ID, owner, FeedbackInput{Rating: 5})
	assert.True(t, domain.IsInvalidState(err), "confirmed booking must not accept feedback")

	_, err = f.svc.Complete(ctx, b.ID, Caller{UserID: 50, Role: models.ActorOperator})
	require.NoError(t, err)

	out, err := f.svc.AddFeedback(ctx, b.ID, owner, FeedbackInput{Rating: 4, Comment: " smooth ride ", Aspects: map[string]int{"comfort": 5}})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Feedback.Rating)
	assert.Equal(t, "smooth ride", out.Feedback.Comment)
	assert.Equal(t, 5, out.Feedback.Aspects["comfort"])

	_, err = f.svc.AddFeedback(ctx, b.ID, owner, FeedbackInput{Rating: 3})
	assert.True(t, domain.IsInvalidState(err))
}

func TestCompleteAndNoShowRequireStaff(t *testing.T) {
	f := newBookingFixture(testNow)
	ctx := context.Background()
	b := f.store.put(confirmedBooking(1000))

	_, err := f.svc.Complete(ctx, b.ID, Caller{UserID: 1, Role: models.ActorUser})
	assert.True(t, domain.IsAccessDenied(err))

	out, err := f.svc.MarkNoShow(ctx, b.ID, Caller{Role: models.ActorSystem})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusNoShow, out.Status)

	held, _ := f.store.HeldSeats(ctx, b.Slot())
	assert.Empty(t, held)
}

func TestStateMachineClosure(t *testing.T) {
	admin := Caller{UserID: 99, Role: models.ActorAdmin}
	ops := []struct {
		name   string
		target models.BookingStatus
		run    func(BookingService, int64) error
	}{
		{"confirm", models.BookingStatusConfirmed, func(s BookingService, id int64) error {
			_, err := s.ConfirmPayment(context.Background(), id, admin, models.PaymentDetails{TransactionID: "T"})
			return err
		}},
		{"cancel", models.BookingStatusCancelled, func(s BookingService, id int64) error {
			_, _, err := s.Cancel(context.Background(), id, admin, "")
			return err
		}},
		{"complete", models.BookingStatusCompleted, func(s BookingService, id int64) error {
			_, err := s.Complete(context.Background(), id, admin)
			return err
		}},
		{"no_show", models.BookingStatusNoShow, func(s BookingService, id int64) error {
			_, err := s.MarkNoShow(context.Background(), id, admin)
			return err
		}},
	}
	statuses := []models.BookingStatus{
		models.BookingStatusPending,
		models.BookingStatusConfirmed,
		models.BookingStatusCompleted,
		models.BookingStatusCancelled,
		models.BookingStatusNoShow,
	}

	for _, from := range statuses {
		for _, op := range ops {
			t.Run(string(from)+"/"+op.name, func(t *testing.T) {
				f := newBookingFixture(testNow)
				seed := confirmedBooking(1000)
				seed.Status = from
				seed.Payment.Status = models.PaymentStatusPending
				b := f.store.put(seed)

				err := op.run(f.svc, b.ID)
				stored, _ := f.store.GetBooking(context.Background(), b.ID)

				if domain.CanTransition(from, op.target) {
					require.NoError(t, err)
					assert.Equal(t, op.target, stored.Status)
					return
				}
				require.Error(t, err)
				assert.True(t, domain.IsInvalidState(err) || domain.IsCancellationNotAllowed(err), "got %v", err)
				assert.Equal(t, b, stored, "rejected transition must leave the booking unmodified")
			})
		}
	}
}

func TestStaleWriteIsRejected(t *testing.T) {
	f := newBookingFixture(testNow)
	ctx := context.Background()
	b := f.store.put(confirmedBooking(1000))

	// a concurrent writer moved the booking on after it was read
	stale := b.Clone()
	moved := b.Clone()
	moved.Status = models.BookingStatusCompleted
	require.NoError(t, f.store.WithinTx(ctx, func(uow UnitOfWork) error { return uow.UpdateBooking(ctx, moved, b) }))

	next := stale.Clone()
	next.Status = models.BookingStatusCancelled
	err := f.store.WithinTx(ctx, func(uow UnitOfWork) error { return uow.UpdateBooking(ctx, next, stale) })
	assert.True(t, domain.IsInvalidState(err))

	stored, _ := f.store.GetBooking(ctx, b.ID)
	assert.Equal(t, models.BookingStatusCompleted, stored.Status)
}

// frozenReads serves the booking as it was when the snapshot was taken, like two
// requests that both read before either one wrote.
type frozenReads struct {
	*memStore
	snap models.Booking
}

func (f frozenReads) GetBooking(ctx context.Context, id int64) (models.Booking, error) {
	return f.snap.Clone(), nil
}

func TestConcurrentFeedbackKeepsFirstWrite(t *testing.T) {
	f := newBookingFixture(testNow)
	ctx := context.Background()
	owner := Caller{UserID: 1, Role: models.ActorUser}

	seed := confirmedBooking(1000)
	seed.Status = models.BookingStatusCompleted
	b := f.store.put(seed)
	f.svc.Store = frozenReads{memStore: f.store, snap: b}

	_, err := f.svc.AddFeedback(ctx, b.ID, owner, FeedbackInput{Rating: 5, Comment: "first"})
	require.NoError(t, err)

	_, err = f.svc.AddFeedback(ctx, b.ID, owner, FeedbackInput{Rating: 1, Comment: "second"})
	assert.True(t, domain.IsInvalidState(err), "got %v", err)

	stored, _ := f.store.GetBooking(ctx, b.ID)
	assert.Equal(t, 5, stored.Feedback.Rating)
	assert.Equal(t, "first", stored.Feedback.Comment)
}

func TestConcurrentCheckInKeepsFirstWrite(t *testing.T) {
	f := newBookingFixture(testNow)
	ctx := context.Background()
	operator := Caller{UserID: 50, Role: models.ActorOperator}

	b := f.store.put(confirmedBooking(1000))
	f.svc.Store = frozenReads{memStore: f.store, snap: b}

	_, err := f.svc.CheckIn(ctx, b.ID, operator, "Gate 1")
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, b.ID, operator, "Gate 2")
	assert.True(t, domain.IsInvalidState(err), "got %v", err)

	stored, _ := f.store.GetBooking(ctx, b.ID)
	assert.True(t, stored.CheckIn.IsCheckedIn)
	assert.Equal(t, "Gate 1", stored.CheckIn.Location)
}

func TestStoreTimeoutBecomesServiceUnavailable(t *testing.T) {
	f := newBookingFixture(testNow)
	f.store.getErr = fmt.Errorf("get booking: %w", context.DeadlineExceeded)

	_, err := f.svc.Get(context.Background(), 1, Caller{UserID: 1, Role: models.ActorUser})
	assert.True(t, domain.IsServiceUnavailable(err), "got %v", err)

	_, err = f.svc.ConfirmPayment(context.Background(), 1, Caller{UserID: 1, Role: models.ActorUser}, models.PaymentDetails{})
	assert.True(t, domain.IsServiceUnavailable(err), "got %v", err)
}

func TestListForUserPages(t *testing.T) {
	f := newBookingFixture(testNow)
	ctx := context.Background()
	for _, seat := range []string{"A1", "A2", "B1"} {
		_, err := f.svc.Create(ctx, createInput(1, seat))
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, createInput(2, "B2"))
	require.NoError(t, err)

	items, page, err := f.svc.ListForUser(ctx, 1, domain.Pagination{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []string{"B1"}, items[0].SeatNumbers())

	items, _, err = f.svc.ListForUser(ctx, 1, domain.Pagination{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestQuoteReportsUnavailableSeats(t *testing.T) {
	f := newBookingFixture(testNow)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, createInput(1, "A1"))
	require.NoError(t, err)

	q, err := f.svc.Quote(ctx, QuoteInput{RouteID: 10, BusID: 1, Date: "2025-01-10", DepartureTime: "08:00", Seats: []string{"a1", "A2"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1130), q.Pricing.TotalAmount)
	assert.Equal(t, []string{"A2", "B1", "B2"}, q.AvailableSeats)
	assert.Equal(t, []string{"A1"}, q.UnavailableSeats)

	again, err := f.svc.Quote(ctx, QuoteInput{RouteID: 10, BusID: 1, Date: "2025-01-10", DepartureTime: "08:00", Seats: []string{"a1", "A2"}})
	require.NoError(t, err)
	assert.Equal(t, q, again)

	_, err = f.svc.Quote(ctx, QuoteInput{RouteID: 10, PassengerCount: 7})
	assert.True(t, domain.IsValidation(err))
}
