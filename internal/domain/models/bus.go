package models

import (
	"fmt"
	"strings"
	"time"
)

// Seat is one physical seat of a bus layout.
type Seat struct {
	Number   string   `json:"seatNumber"`
	Type     SeatType `json:"seatType"`
	Row      int      `json:"row"`
	Column   int      `json:"column"`
	IsActive bool     `json:"isActive"`
}

// Location is a reported bus position.
type Location struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ReportedAt time.Time `json:"reportedAt"`
}

// Bus owns a fixed ordered seat layout.
type Bus struct {
	ID           int64     `json:"id"`
	Number       string    `json:"busNumber"`
	OperatorID   int64     `json:"operatorId"`
	RouteID      int64     `json:"routeId,omitempty"`
	Type         BusType   `json:"busType"`
	Seats        []Seat    `json:"seats"`
	LastLocation *Location `json:"lastLocation,omitempty"`
}

// NormalizeSeatNumber is the canonical form used for comparison and storage.
func NormalizeSeatNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Validate enforces seat numbers unique within the bus.
func (b Bus) Validate() error {
	seen := make(map[string]struct{}, len(b.Seats))
	for _, s := range b.Seats {
		n := NormalizeSeatNumber(s.Number)
		if n == "" {
			return fmt.Errorf("bus %d has a seat without number", b.ID)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("bus %d has duplicate seat %s", b.ID, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// BookableSeats returns the active seat numbers in layout order.
func (b Bus) BookableSeats() []string {
	out := make([]string, 0, len(b.Seats))
	for _, s := range b.Seats {
		if s.IsActive {
			out = append(out, NormalizeSeatNumber(s.Number))
		}
	}
	return out
}

// FreshLocation returns the last location when it is younger than maxAge.
func (b Bus) FreshLocation(now time.Time, maxAge time.Duration) (Location, bool) {
	if b.LastLocation == nil || b.LastLocation.ReportedAt.IsZero() {
		return Location{}, false
	}
	if now.Sub(b.LastLocation.ReportedAt) > maxAge {
		return Location{}, false
	}
	return *b.LastLocation, true
}

// SeatSlot scopes seat uniqueness: one bus, one date, one departure time.
type SeatSlot struct {
	BusID         int64  `json:"busId"`
	Date          string `json:"date"`
	DepartureTime string `json:"departureTime"`
}

func (s SeatSlot) String() string {
	return fmt.Sprintf("bus=%d date=%s time=%s", s.BusID, s.Date, s.DepartureTime)
}

// SeatClaim proves seats were claimed for a slot inside the current unit of work.
type SeatClaim struct {
	Token string   `json:"token"`
	Slot  SeatSlot `json:"slot"`
	Seats []string `json:"seats"`
}

// SeatAvailability is one cell of the seat map.
type SeatAvailability struct {
	Seat
	Available bool `json:"available"`
}
