package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	intdb "busbooking/internal/db"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

const bookingNumberIndex = "uniq_booking_number"

var (
	// ErrDuplicateBookingNumber is returned by Insert when the generated number already exists.
	ErrDuplicateBookingNumber = errors.New("booking number already exists")
	// ErrStaleBooking means the row changed since it was read; nothing was written.
	ErrStaleBooking = errors.New("booking was modified concurrently")
)

const bookingColumns = `
	id, booking_number, user_id, bus_id, route_id, claim_token,
	trip_date, departure_time, actual_departure, actual_arrival, boarding_point, dropping_point,
	contact_name, contact_phone, contact_email,
	base_price, taxes, discount_code, discount_amount, total_amount, currency,
	payment_method, payment_status, transaction_id, paid_amount, paid_at,
	is_cancelled, cancelled_at, cancelled_by, cancellation_reason, cancellation_fee, refund_eligible, refund_amount,
	is_checked_in, checked_in_at, checked_in_by, checkin_location,
	feedback_rating, feedback_comment, feedback_aspects, feedback_at,
	loyalty_points_earned, loyalty_points_redeemed, status, created_at, updated_at`

type BookingRepo struct {
	DB *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var (
		b                                  models.Booking
		actualDep, actualArr, paidAt       sql.NullTime
		cancelledAt, checkedInAt, feedback sql.NullTime
		comment, aspects                   sql.NullString
		method, payStatus, cancelledBy     string
		checkedInBy, status                string
	)
	err := row.Scan(
		&b.ID, &b.BookingNumber, &b.UserID, &b.BusID, &b.RouteID, &b.ClaimToken,
		&b.Journey.Date, &b.Journey.DepartureTime, &actualDep, &actualArr, &b.Journey.BoardingPoint, &b.Journey.DroppingPoint,
		&b.Contact.Name, &b.Contact.Phone, &b.Contact.Email,
		&b.Pricing.BasePrice, &b.Pricing.Taxes, &b.Pricing.Discount.Code, &b.Pricing.Discount.Amount, &b.Pricing.TotalAmount, &b.Pricing.Currency,
		&method, &payStatus, &b.Payment.TransactionID, &b.Payment.PaidAmount, &paidAt,
		&b.Cancellation.IsCancelled, &cancelledAt, &cancelledBy, &b.Cancellation.Reason, &b.Cancellation.Fee, &b.Cancellation.RefundEligible, &b.Cancellation.RefundAmount,
		&b.CheckIn.IsCheckedIn, &checkedInAt, &checkedInBy, &b.CheckIn.Location,
		&b.Feedback.Rating, &comment, &aspects, &feedback,
		&b.LoyaltyPointsEarned, &b.LoyaltyPointsRedeemed, &status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return models.Booking{}, err
	}

	b.Journey.ActualDeparture = intdb.TimePtr(actualDep)
	b.Journey.ActualArrival = intdb.TimePtr(actualArr)
	b.Payment.Method = models.PaymentMethod(method)
	b.Payment.Status = models.PaymentStatus(payStatus)
	b.Payment.PaidAt = intdb.TimePtr(paidAt)
	b.Cancellation.CancelledAt = intdb.TimePtr(cancelledAt)
	b.Cancellation.CancelledBy = models.Actor(cancelledBy)
	b.CheckIn.CheckedInAt = intdb.TimePtr(checkedInAt)
	b.CheckIn.CheckedInBy = models.Actor(checkedInBy)
	b.Feedback.Comment = comment.String
	b.Feedback.SubmittedAt = intdb.TimePtr(feedback)
	if aspects.Valid && strings.TrimSpace(aspects.String) != "" {
		if err := json.Unmarshal([]byte(aspects.String), &b.Feedback.Aspects); err != nil {
			return models.Booking{}, fmt.Errorf("decode feedback aspects: %w", err)
		}
	}
	b.Status = models.BookingStatus(status)
	return b, nil
}

func aspectsJSON(aspects map[string]int) (any, error) {
	if len(aspects) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(aspects)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Insert writes the booking row and its passengers. b.ID is set on success.
func (r BookingRepo) Insert(ctx context.Context, q intdb.Execer, b *models.Booking) error {
	aspects, err := aspectsJSON(b.Feedback.Aspects)
	if err != nil {
		return fmt.Errorf("encode feedback aspects: %w", err)
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO bookings (
			booking_number, user_id, bus_id, route_id, claim_token,
			trip_date, departure_time, boarding_point, dropping_point,
			contact_name, contact_phone, contact_email,
			base_price, taxes, discount_code, discount_amount, total_amount, currency,
			payment_method, payment_status, feedback_aspects,
			loyalty_points_earned, loyalty_points_redeemed, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BookingNumber, b.UserID, b.BusID, b.RouteID, b.ClaimToken,
		b.Journey.Date, b.Journey.DepartureTime, b.Journey.BoardingPoint, b.Journey.DroppingPoint,
		b.Contact.Name, b.Contact.Phone, b.Contact.Email,
		b.Pricing.BasePrice, b.Pricing.Taxes, b.Pricing.Discount.Code, b.Pricing.Discount.Amount, b.Pricing.TotalAmount, b.Pricing.Currency,
		string(b.Payment.Method), string(b.Payment.Status), aspects,
		b.LoyaltyPointsEarned, b.LoyaltyPointsRedeemed, string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if intdb.IsDuplicateKey(err, bookingNumberIndex) {
			return ErrDuplicateBookingNumber
		}
		return intdb.WrapStoreError("insert booking", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return intdb.WrapStoreError("booking id", err)
	}
	b.ID = id

	for i, p := range b.Passengers {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO booking_passengers
			(booking_id, position, passenger_name, age, gender, seat_number, ticket_type)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, p.Name, p.Age, string(p.Gender), p.SeatNumber, string(p.TicketType),
		); err != nil {
			return intdb.WrapStoreError("insert booking passenger", err)
		}
	}
	return nil
}

// GetByID fetches one booking with its passengers.
func (r BookingRepo) GetByID(ctx context.Context, id int64) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "id", Msg: "invalid booking id"}
	}
	if r.DB == nil {
		return models.Booking{}, domain.ServiceUnavailableError{Err: errors.New("db not available")}
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? LIMIT 1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return models.Booking{}, intdb.WrapStoreError("get booking", err)
	}
	passengers, err := r.passengers(ctx, []int64{b.ID})
	if err != nil {
		return models.Booking{}, err
	}
	b.Passengers = passengers[b.ID]
	return b, nil
}

// ListByUser returns one page of the user's bookings, newest first, and the total count.
func (r BookingRepo) ListByUser(ctx context.Context, userID int64, page domain.Pagination) ([]models.Booking, int, error) {
	if r.DB == nil {
		return nil, 0, domain.ServiceUnavailableError{Err: errors.New("db not available")}
	}
	page = page.Normalize()

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, intdb.WrapStoreError("count bookings", err)
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT `+bookingColumns+`
		FROM bookings
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, userID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, intdb.WrapStoreError("list bookings", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	ids := []int64{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, intdb.WrapStoreError("scan booking", err)
		}
		out = append(out, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, intdb.WrapStoreError("read bookings", err)
	}
	if len(ids) == 0 {
		return out, total, nil
	}

	passengers, err := r.passengers(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Passengers = passengers[out[i].ID]
	}
	return out, total, nil
}

func (r BookingRepo) passengers(ctx context.Context, bookingIDs []int64) (map[int64][]models.Passenger, error) {
	args := make([]any, 0, len(bookingIDs))
	for _, id := range bookingIDs {
		args = append(args, id)
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT booking_id, passenger_name, age, gender, seat_number, ticket_type
		FROM booking_passengers
		WHERE booking_id IN (`+intdb.Placeholders(len(args))+`)
		ORDER BY booking_id ASC, position ASC`, args...)
	if err != nil {
		return nil, intdb.WrapStoreError("query passengers", err)
	}
	defer rows.Close()

	out := map[int64][]models.Passenger{}
	for rows.Next() {
		var (
			bookingID          int64
			p                  models.Passenger
			gender, ticketType string
		)
		if err := rows.Scan(&bookingID, &p.Name, &p.Age, &gender, &p.SeatNumber, &ticketType); err != nil {
			return nil, intdb.WrapStoreError("scan passenger", err)
		}
		p.Gender = models.Gender(gender)
		p.TicketType = models.TicketType(ticketType)
		out[bookingID] = append(out[bookingID], p)
	}
	return out, intdb.WrapStoreError("read passengers", rows.Err())
}

// Update writes the mutable blocks of next, guarded by prev's status, payment status,
// check-in flag and feedback rating. Those four cover every transition, including the
// check-in and feedback writes that leave the status alone.
// Returns ErrStaleBooking when the guard does not match the stored row.
func (r BookingRepo) Update(ctx context.Context, q intdb.Execer, next, prev models.Booking) error {
	aspects, err := aspectsJSON(next.Feedback.Aspects)
	if err != nil {
		return fmt.Errorf("encode feedback aspects: %w", err)
	}
	res, err := q.ExecContext(ctx, `
		UPDATE bookings SET
			actual_departure = ?, actual_arrival = ?,
			payment_method = ?, payment_status = ?, transaction_id = ?, paid_amount = ?, paid_at = ?,
			is_cancelled = ?, cancelled_at = ?, cancelled_by = ?, cancellation_reason = ?,
			cancellation_fee = ?, refund_eligible = ?, refund_amount = ?,
			is_checked_in = ?, checked_in_at = ?, checked_in_by = ?, checkin_location = ?,
			feedback_rating = ?, feedback_comment = ?, feedback_aspects = ?, feedback_at = ?,
			loyalty_points_earned = ?, loyalty_points_redeemed = ?,
			status = ?, updated_at = ?
		WHERE id = ? AND status = ? AND payment_status = ? AND is_checked_in = ? AND feedback_rating = ?`,
		intdb.NullTime(next.Journey.ActualDeparture), intdb.NullTime(next.Journey.ActualArrival),
		string(next.Payment.Method), string(next.Payment.Status), next.Payment.TransactionID, next.Payment.PaidAmount, intdb.NullTime(next.Payment.PaidAt),
		next.Cancellation.IsCancelled, intdb.NullTime(next.Cancellation.CancelledAt), string(next.Cancellation.CancelledBy), next.Cancellation.Reason,
		next.Cancellation.Fee, next.Cancellation.RefundEligible, next.Cancellation.RefundAmount,
		next.CheckIn.IsCheckedIn, intdb.NullTime(next.CheckIn.CheckedInAt), string(next.CheckIn.CheckedInBy), next.CheckIn.Location,
		next.Feedback.Rating, intdb.NullIfEmpty(next.Feedback.Comment), aspects, intdb.NullTime(next.Feedback.SubmittedAt),
		next.LoyaltyPointsEarned, next.LoyaltyPointsRedeemed,
		string(next.Status), next.UpdatedAt,
		prev.ID, string(prev.Status), string(prev.Payment.Status), prev.CheckIn.IsCheckedIn, prev.Feedback.Rating,
	)
	if err != nil {
		return intdb.WrapStoreError("update booking", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return intdb.WrapStoreError("update booking", err)
	}
	if n == 0 {
		return ErrStaleBooking
	}
	return nil
}
