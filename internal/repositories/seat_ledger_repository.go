package repositories

import (
	"context"
	"sort"
	"strings"
	"time"

	intdb "busbooking/internal/db"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/utils"
)

const seatLedgerSlotIndex = "uniq_slot_seat"

// SeatLedgerRepo reads and writes seat_ledger, one row per claimed seat.
// The unique index on (bus, date, time, seat, active) is what prevents double booking.
type SeatLedgerRepo struct{}

// HeldSeats lists seats with a live claim in the slot. Set locking to read the latest
// committed rows inside a transaction instead of its snapshot.
func (SeatLedgerRepo) HeldSeats(ctx context.Context, q intdb.Execer, slot models.SeatSlot, locking bool) ([]string, error) {
	query := `
		SELECT seat_number
		FROM seat_ledger
		WHERE bus_id = ?
		  AND trip_date = ?
		  AND departure_time = ?
		  AND active = 1
		ORDER BY seat_number ASC`
	if locking {
		query += ` LOCK IN SHARE MODE`
	}
	rows, err := q.QueryContext(ctx, query, slot.BusID, slot.Date, slot.DepartureTime)
	if err != nil {
		return nil, intdb.WrapStoreError("query held seats", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, intdb.WrapStoreError("scan held seat", err)
		}
		out = append(out, models.NormalizeSeatNumber(seat))
	}
	if err := rows.Err(); err != nil {
		return nil, intdb.WrapStoreError("read held seats", err)
	}
	return out, nil
}

// Claim inserts one live ledger row per seat. A unique-index violation means another
// booking won the race; the contested seats are re-read and returned as SeatConflictError.
// Rows are written in seat order so overlapping claims lock index entries in the same order.
// A deadlock or lock wait timeout is reported as a conflict on the whole claim.
func (r SeatLedgerRepo) Claim(ctx context.Context, q intdb.Execer, claim models.SeatClaim, now time.Time) error {
	if len(claim.Seats) == 0 {
		return domain.ValidationError{Field: "seats", Msg: "at least one seat required"}
	}
	seats := append([]string(nil), claim.Seats...)
	sort.Strings(seats)

	values := make([]string, 0, len(seats))
	args := make([]any, 0, len(seats)*6)
	for _, seat := range seats {
		values = append(values, "(?, ?, ?, ?, ?, 1, ?)")
		args = append(args, claim.Token, claim.Slot.BusID, claim.Slot.Date, claim.Slot.DepartureTime, seat, now)
	}
	stmt := `INSERT INTO seat_ledger
		(claim_token, bus_id, trip_date, departure_time, seat_number, active, claimed_at)
		VALUES ` + strings.Join(values, ", ")

	if _, err := q.ExecContext(ctx, stmt, args...); err != nil {
		if intdb.IsDuplicateKey(err, seatLedgerSlotIndex) {
			held, rerr := r.HeldSeats(ctx, q, claim.Slot, true)
			contested := utils.IntersectSeats(claim.Seats, held)
			if rerr != nil || len(contested) == 0 {
				contested = claim.Seats
			}
			return domain.SeatConflictError{Seats: contested, Err: err}
		}
		if intdb.IsLockContention(err) {
			return domain.SeatConflictError{Seats: claim.Seats, Err: err}
		}
		return intdb.WrapStoreError("insert seat claim", err)
	}
	return nil
}

// Release frees every live seat of a claim. Released rows stay for history with active = NULL.
func (SeatLedgerRepo) Release(ctx context.Context, q intdb.Execer, token string, now time.Time) (int64, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE seat_ledger
		SET active = NULL, released_at = ?
		WHERE claim_token = ? AND active = 1`, now, token)
	if err != nil {
		return 0, intdb.WrapStoreError("release seat claim", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
