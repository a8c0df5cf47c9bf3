package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intdb "busbooking/internal/db"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

type BusRepo struct {
	DB *sql.DB
}

// GetBus loads the bus with its seat layout in row/column order.
func (r BusRepo) GetBus(ctx context.Context, id int64) (models.Bus, error) {
	if r.DB == nil {
		return models.Bus{}, domain.ServiceUnavailableError{Err: errors.New("db not available")}
	}

	var (
		b          models.Bus
		routeID    sql.NullInt64
		busType    string
		lat, lng   sql.NullFloat64
		reportedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, bus_number, operator_id, route_id, bus_type, last_lat, last_lng, last_reported_at
		FROM buses
		WHERE id = ?
		LIMIT 1`, id).Scan(&b.ID, &b.Number, &b.OperatorID, &routeID, &busType, &lat, &lng, &reportedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Bus{}, domain.NotFoundError{Resource: "bus", Err: err}
		}
		return models.Bus{}, intdb.WrapStoreError("get bus", err)
	}
	b.RouteID = routeID.Int64
	b.Type = models.BusType(busType)
	if lat.Valid && lng.Valid && reportedAt.Valid {
		b.LastLocation = &models.Location{Lat: lat.Float64, Lng: lng.Float64, ReportedAt: reportedAt.Time}
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT seat_number, seat_type, seat_row, seat_column, is_active
		FROM bus_seats
		WHERE bus_id = ?
		ORDER BY seat_row ASC, seat_column ASC, id ASC`, id)
	if err != nil {
		return models.Bus{}, intdb.WrapStoreError("query bus seats", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s        models.Seat
			seatType string
		)
		if err := rows.Scan(&s.Number, &seatType, &s.Row, &s.Column, &s.IsActive); err != nil {
			return models.Bus{}, intdb.WrapStoreError("scan bus seat", err)
		}
		s.Number = models.NormalizeSeatNumber(s.Number)
		s.Type = models.SeatType(seatType)
		b.Seats = append(b.Seats, s)
	}
	if err := rows.Err(); err != nil {
		return models.Bus{}, intdb.WrapStoreError("read bus seats", err)
	}
	if err := b.Validate(); err != nil {
		return models.Bus{}, fmt.Errorf("load bus layout: %w", err)
	}
	return b, nil
}

// UpdateLocation stores the latest reported position of the bus.
func (r BusRepo) UpdateLocation(ctx context.Context, busID int64, loc models.Location) error {
	if r.DB == nil {
		return domain.ServiceUnavailableError{Err: errors.New("db not available")}
	}
	reported := loc.ReportedAt
	if reported.IsZero() {
		reported = time.Now()
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE buses SET last_lat = ?, last_lng = ?, last_reported_at = ?
		WHERE id = ?`, loc.Lat, loc.Lng, reported, busID)
	if err != nil {
		return intdb.WrapStoreError("update bus location", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "bus"}
	}
	return nil
}
