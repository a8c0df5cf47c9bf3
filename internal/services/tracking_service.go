package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/utils"
)

// DefaultLocationFreshness is how old a bus position may be and still be shown.
const DefaultLocationFreshness = 15 * time.Minute

type TrackingService struct {
	Store     BookingStore
	Buses     BusReader
	Routes    RouteReader
	Locations BusLocationWriter
	Clock     Clock
	Location  *time.Location
	Freshness time.Duration
	Timeout   time.Duration
	RequestID string
}

type TrackView struct {
	BookingID     int64                `json:"bookingId"`
	BookingNumber string               `json:"bookingNumber"`
	BookingStatus models.BookingStatus `json:"bookingStatus"`
	Journey       models.Journey       `json:"journey"`
	Origin        models.Stop          `json:"origin"`
	Destination   models.Stop          `json:"destination"`
	TotalStops    int                  `json:"totalStops"`
	Progress      domain.Progress      `json:"progress"`
	BusLocation   *models.Location     `json:"busLocation,omitempty"`
	RemainingKm   *float64             `json:"remainingKm,omitempty"`
}

func (s TrackingService) freshness() time.Duration {
	if s.Freshness > 0 {
		return s.Freshness
	}
	return DefaultLocationFreshness
}

// Track reports the time-based progress of a confirmed or completed booking.
// A fresh bus position is attached for display only.
func (s TrackingService) Track(ctx context.Context, bookingID int64, caller Caller) (TrackView, error) {
	cctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()

	b, err := s.Store.GetBooking(cctx, bookingID)
	if err != nil {
		return TrackView{}, storeError(err)
	}
	if err := authorize(b, caller); err != nil {
		return TrackView{}, err
	}
	if b.Status != models.BookingStatusConfirmed && b.Status != models.BookingStatusCompleted {
		return TrackView{}, domain.BookingNotConfirmedError{Status: string(b.Status)}
	}

	route, err := s.Routes.GetRoute(cctx, b.RouteID)
	if err != nil {
		return TrackView{}, storeError(err)
	}
	now := s.Clock.now()
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	progress, err := domain.TripProgress(b, route, now, loc)
	if err != nil {
		return TrackView{}, err
	}

	view := TrackView{
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		BookingStatus: b.Status,
		Journey:       b.Journey,
		Origin:        route.Origin,
		Destination:   route.Destination,
		TotalStops:    route.TotalStops(),
		Progress:      progress,
	}

	// Position is optional; a missing bus never fails tracking.
	bus, err := s.Buses.GetBus(cctx, b.BusID)
	if err != nil {
		utils.LogWarn(s.RequestID, "tracking", "bus_location", fmt.Sprintf("bus=%d: %v", b.BusID, err))
		return view, nil
	}
	if pos, ok := bus.FreshLocation(now, s.freshness()); ok {
		view.BusLocation = &pos
		remaining := utils.RoundTo(utils.HaversineKm(pos.Lat, pos.Lng, route.Destination.Lat, route.Destination.Lng), 2)
		view.RemainingKm = &remaining
	}
	return view, nil
}

// UpdateBusLocation stores a position report from the bus operator.
func (s TrackingService) UpdateBusLocation(ctx context.Context, busID int64, caller Caller, lat, lng float64) (models.Location, error) {
	if err := requireStaff(caller, "location update"); err != nil {
		return models.Location{}, err
	}
	if busID <= 0 {
		return models.Location{}, domain.ValidationError{Field: "busId", Msg: "required"}
	}
	if !utils.ValidCoordinate(lat, lng) || math.IsNaN(lat) || math.IsNaN(lng) {
		return models.Location{}, domain.ValidationError{Field: "location", Msg: "coordinates out of range"}
	}
	if s.Locations == nil {
		return models.Location{}, domain.ServiceUnavailableError{}
	}

	cctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()

	pos := models.Location{Lat: lat, Lng: lng, ReportedAt: s.Clock.now()}
	if err := s.Locations.UpdateLocation(cctx, busID, pos); err != nil {
		return models.Location{}, storeError(err)
	}
	utils.LogEvent(s.RequestID, "tracking", "bus_location", fmt.Sprintf("bus=%d lat=%.5f lng=%.5f", busID, lat, lng))
	return pos, nil
}

// DistanceKm is the great-circle distance between two coordinates, rounded to metres.
func DistanceKm(fromLat, fromLng, toLat, toLng float64) (float64, error) {
	if !utils.ValidCoordinate(fromLat, fromLng) {
		return 0, domain.ValidationError{Field: "from", Msg: "coordinates out of range"}
	}
	if !utils.ValidCoordinate(toLat, toLng) {
		return 0, domain.ValidationError{Field: "to", Msg: "coordinates out of range"}
	}
	return utils.RoundTo(utils.HaversineKm(fromLat, fromLng, toLat, toLng), 3), nil
}
