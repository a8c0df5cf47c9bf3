package domain

import (
	"math"
	"time"

	"busbooking/internal/domain/models"
)

type TripStatus string

const (
	TripStatusScheduled TripStatus = "scheduled"
	TripStatusInTransit TripStatus = "in_transit"
	TripStatusCompleted TripStatus = "completed"
	TripStatusDelayed   TripStatus = "delayed"
)

const (
	// InTransitMaxPercent caps progress while the bus is still on the road.
	InTransitMaxPercent = 95
	DelayedPercent      = 95
	CompletedPercent    = 100
)

type Progress struct {
	Status             TripStatus `json:"status"`
	Percent            int        `json:"percent"`
	DepartureAt        time.Time  `json:"departureAt"`
	ArrivalAt          time.Time  `json:"arrivalAt"`
	MinutesToDeparture int        `json:"minutesToDeparture"`
}

// TripProgress derives the live trip status of b from the clock alone.
func TripProgress(b models.Booking, route models.Route, now time.Time, loc *time.Location) (Progress, error) {
	departure, err := b.Journey.DepartureAt(loc)
	if err != nil {
		return Progress{}, ValidationError{Field: "journey", Msg: err.Error()}
	}
	arrival := departure.Add(route.EstimatedDuration())
	p := Progress{DepartureAt: departure, ArrivalAt: arrival}

	switch {
	case now.Before(departure):
		p.Status = TripStatusScheduled
		p.Percent = 0
		p.MinutesToDeparture = int(math.Ceil(departure.Sub(now).Minutes()))
	case now.Before(arrival):
		ratio := float64(now.Sub(departure)) / float64(arrival.Sub(departure))
		p.Status = TripStatusInTransit
		p.Percent = clampPercent(int(math.Round(ratio*100)), 0, InTransitMaxPercent)
	case b.Status == models.BookingStatusCompleted:
		p.Status = TripStatusCompleted
		p.Percent = CompletedPercent
	default:
		p.Status = TripStatusDelayed
		p.Percent = DelayedPercent
	}
	return p, nil
}

func clampPercent(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
