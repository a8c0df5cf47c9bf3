package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "busbooking/internal/db"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

type RouteRepo struct {
	DB *sql.DB
}

func (r RouteRepo) GetRoute(ctx context.Context, id int64) (models.Route, error) {
	if r.DB == nil {
		return models.Route{}, domain.ServiceUnavailableError{Err: errors.New("db not available")}
	}

	var rt models.Route
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, route_code,
		       origin_name, origin_lat, origin_lng,
		       destination_name, destination_lat, destination_lng,
		       distance_km, estimated_minutes, operating_start, operating_end,
		       base_price, currency, is_active
		FROM routes
		WHERE id = ?
		LIMIT 1`, id).Scan(
		&rt.ID, &rt.Code,
		&rt.Origin.Name, &rt.Origin.Lat, &rt.Origin.Lng,
		&rt.Destination.Name, &rt.Destination.Lat, &rt.Destination.Lng,
		&rt.DistanceKm, &rt.Duration.EstimatedMinutes, &rt.OperatingHours.Start, &rt.OperatingHours.End,
		&rt.Pricing.BasePrice, &rt.Pricing.Currency, &rt.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Route{}, domain.NotFoundError{Resource: "route", Err: err}
		}
		return models.Route{}, intdb.WrapStoreError("get route", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT name, lat, lng
		FROM route_stops
		WHERE route_id = ?
		ORDER BY position ASC`, id)
	if err != nil {
		return models.Route{}, intdb.WrapStoreError("query route stops", err)
	}
	defer rows.Close()

	rt.IntermediateStops = []models.Stop{}
	for rows.Next() {
		var s models.Stop
		if err := rows.Scan(&s.Name, &s.Lat, &s.Lng); err != nil {
			return models.Route{}, intdb.WrapStoreError("scan route stop", err)
		}
		rt.IntermediateStops = append(rt.IntermediateStops, s)
	}
	if err := rows.Err(); err != nil {
		return models.Route{}, intdb.WrapStoreError("read route stops", err)
	}
	if err := rt.Validate(); err != nil {
		return models.Route{}, fmt.Errorf("load route %d: %w", rt.ID, err)
	}
	return rt, nil
}
