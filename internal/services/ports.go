package services

import (
	"context"
	"errors"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

// UnitOfWork is the transactional view handed to WithinTx callbacks.
// Everything done through it commits or rolls back together.
type UnitOfWork interface {
	// HeldSeats lists seats with a live claim in the slot.
	HeldSeats(ctx context.Context, slot models.SeatSlot) ([]string, error)
	// InsertClaim records the claim; a seat already held returns domain.SeatConflictError.
	InsertClaim(ctx context.Context, claim models.SeatClaim) error
	// InsertBooking returns repositories.ErrDuplicateBookingNumber on a number collision.
	InsertBooking(ctx context.Context, b *models.Booking) error
	// UpdateBooking writes next if the stored row still matches prev's status and payment status,
	// and releases the claim when next no longer holds seats.
	UpdateBooking(ctx context.Context, next, prev models.Booking) error
}

type BookingStore interface {
	WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error
	GetBooking(ctx context.Context, id int64) (models.Booking, error)
	ListBookingsByUser(ctx context.Context, userID int64, page domain.Pagination) ([]models.Booking, int, error)
	HeldSeats(ctx context.Context, slot models.SeatSlot) ([]string, error)
}

type BusReader interface {
	GetBus(ctx context.Context, id int64) (models.Bus, error)
}

type BusLocationWriter interface {
	UpdateLocation(ctx context.Context, busID int64, loc models.Location) error
}

type RouteReader interface {
	GetRoute(ctx context.Context, id int64) (models.Route, error)
}

type DiscountLookup interface {
	Lookup(ctx context.Context, code string) (models.DiscountRule, error)
}

type LoyaltyLedger interface {
	AddLoyaltyPoints(ctx context.Context, userID, points int64) error
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
}

// Clock lets tests pin "now".
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// storeCtx bounds one store call. A non-positive timeout falls back to five seconds.
func storeCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// storeError turns an expired or cancelled store context into ServiceUnavailableError.
func storeError(err error) error {
	if err == nil || domain.IsServiceUnavailable(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.ServiceUnavailableError{Err: err}
	}
	return err
}

// Caller is the authenticated actor behind a request.
type Caller struct {
	UserID int64
	Role   models.Actor
}

// authorize lets staff act on any booking and users only on their own.
func authorize(b models.Booking, c Caller) error {
	if c.Role.Staff() || b.UserID == c.UserID {
		return nil
	}
	return domain.AccessDeniedError{Msg: "booking belongs to another user"}
}

func requireStaff(c Caller, op string) error {
	if c.Role.Staff() {
		return nil
	}
	return domain.AccessDeniedError{Msg: op + " requires operator or admin"}
}
