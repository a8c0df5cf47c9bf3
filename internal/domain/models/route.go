package models

import (
	"errors"
	"time"
)

type Stop struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type RouteDuration struct {
	EstimatedMinutes int `json:"estimated"`
}

// OperatingHours is a daily window in "15:04" form. Empty fields mean unrestricted.
type OperatingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type RoutePricing struct {
	BasePrice int64  `json:"basePrice"`
	Currency  string `json:"currency"`
}

type Route struct {
	ID                int64          `json:"id"`
	Code              string         `json:"routeCode"`
	Origin            Stop           `json:"origin"`
	Destination       Stop           `json:"destination"`
	IntermediateStops []Stop         `json:"intermediateStops"`
	DistanceKm        float64        `json:"distanceKm"`
	Duration          RouteDuration  `json:"duration"`
	OperatingHours    OperatingHours `json:"operatingHours"`
	Pricing           RoutePricing   `json:"pricing"`
	IsActive          bool           `json:"isActive"`
}

// TotalStops counts origin and destination plus every intermediate stop.
func (r Route) TotalStops() int {
	return 2 + len(r.IntermediateStops)
}

func (r Route) Validate() error {
	if r.Duration.EstimatedMinutes <= 0 {
		return errors.New("route estimated duration must be positive")
	}
	if r.Pricing.BasePrice < 0 {
		return errors.New("route base price must not be negative")
	}
	return nil
}

// EstimatedDuration returns the scheduled travel time.
func (r Route) EstimatedDuration() time.Duration {
	return time.Duration(r.Duration.EstimatedMinutes) * time.Minute
}

// Operates reports whether a departure time "15:04" falls inside the operating window.
// Windows that wrap past midnight (e.g. 22:00-04:00) are supported.
func (r Route) Operates(departureTime string) bool {
	if r.OperatingHours.Start == "" || r.OperatingHours.End == "" {
		return true
	}
	t, err := time.Parse("15:04", departureTime)
	if err != nil {
		return false
	}
	start, err1 := time.Parse("15:04", r.OperatingHours.Start)
	end, err2 := time.Parse("15:04", r.OperatingHours.End)
	if err1 != nil || err2 != nil {
		return true
	}
	if !start.After(end) {
		return !t.Before(start) && !t.After(end)
	}
	return !t.Before(start) || !t.After(end)
}
