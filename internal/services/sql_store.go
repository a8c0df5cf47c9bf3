package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "busbooking/internal/db"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"
)

// SQLStore is the MySQL-backed BookingStore.
type SQLStore struct {
	DB     *sql.DB
	Ledger repositories.SeatLedgerRepo
	Clock  Clock
}

func NewSQLStore(db *sql.DB) SQLStore {
	return SQLStore{DB: db}
}

func (s SQLStore) bookings() repositories.BookingRepo {
	return repositories.BookingRepo{DB: s.DB}
}

func (s SQLStore) WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error {
	return intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		return fn(sqlUnit{tx: tx, store: s})
	})
}

func (s SQLStore) GetBooking(ctx context.Context, id int64) (models.Booking, error) {
	return s.bookings().GetByID(ctx, id)
}

func (s SQLStore) ListBookingsByUser(ctx context.Context, userID int64, page domain.Pagination) ([]models.Booking, int, error) {
	return s.bookings().ListByUser(ctx, userID, page)
}

func (s SQLStore) HeldSeats(ctx context.Context, slot models.SeatSlot) ([]string, error) {
	if s.DB == nil {
		return nil, domain.ServiceUnavailableError{Err: errors.New("db not available")}
	}
	return s.Ledger.HeldSeats(ctx, s.DB, slot, false)
}

type sqlUnit struct {
	tx    *sql.Tx
	store SQLStore
}

func (u sqlUnit) HeldSeats(ctx context.Context, slot models.SeatSlot) ([]string, error) {
	return u.store.Ledger.HeldSeats(ctx, u.tx, slot, false)
}

func (u sqlUnit) InsertClaim(ctx context.Context, claim models.SeatClaim) error {
	return u.store.Ledger.Claim(ctx, u.tx, claim, u.store.Clock.now())
}

func (u sqlUnit) InsertBooking(ctx context.Context, b *models.Booking) error {
	return u.store.bookings().Insert(ctx, u.tx, b)
}

func (u sqlUnit) UpdateBooking(ctx context.Context, next, prev models.Booking) error {
	if err := u.store.bookings().Update(ctx, u.tx, next, prev); err != nil {
		if errors.Is(err, repositories.ErrStaleBooking) {
			return domain.InvalidStateError{Op: "update booking", Status: string(prev.Status), Msg: "booking was modified concurrently"}
		}
		return err
	}
	if prev.Status.HoldsSeats() && !next.Status.HoldsSeats() && prev.ClaimToken != "" {
		n, err := u.store.Ledger.Release(ctx, u.tx, prev.ClaimToken, u.store.Clock.now())
		if err != nil {
			return err
		}
		utils.LogEvent("", "seat_ledger", "release", fmt.Sprintf("booking=%s %s seats=%d", prev.BookingNumber, prev.Slot(), n))
	}
	return nil
}
