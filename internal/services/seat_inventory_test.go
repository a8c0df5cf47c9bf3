package services

import (
	"context"
	"errors"
	"testing"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInventory() (*memStore, SeatInventory) {
	store := newMemStore()
	return store, SeatInventory{Buses: fakeBuses{buses: map[int64]models.Bus{1: testBus()}}, Store: store}
}

func TestSeatMapMarksHeldAndInactiveSeats(t *testing.T) {
	store, inv := newInventory()
	store.put(confirmedBooking(1000)) // holds A1

	cells, err := inv.SeatMap(context.Background(), models.SeatSlot{BusID: 1, Date: "2025-01-10", DepartureTime: "8:00"})
	require.NoError(t, err)
	require.Len(t, cells, 5)

	got := map[string]bool{}
	for _, c := range cells {
		got[c.Number] = c.Available
	}
	assert.Equal(t, map[string]bool{"A1": false, "A2": true, "A3": false, "B1": true, "B2": true}, got)
	assert.Equal(t, 1, cells[0].Row)

	free, err := inv.AvailableSeats(context.Background(), models.SeatSlot{BusID: 1, Date: "2025-01-10", DepartureTime: "08:00"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "B1", "B2"}, free)
}

func TestSeatMapOtherSlotIsFree(t *testing.T) {
	store, inv := newInventory()
	store.put(confirmedBooking(1000))

	free, err := inv.AvailableSeats(context.Background(), models.SeatSlot{BusID: 1, Date: "2025-01-10", DepartureTime: "14:00"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "B1", "B2"}, free)
}

func TestSeatMapRequiresDate(t *testing.T) {
	_, inv := newInventory()

	_, err := inv.SeatMap(context.Background(), models.SeatSlot{BusID: 1, DepartureTime: "08:00"})
	var verr domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "date", verr.Field)

	_, err = inv.SeatMap(context.Background(), models.SeatSlot{BusID: 7, Date: "2025-01-10", DepartureTime: "08:00"})
	assert.True(t, domain.IsNotFound(err))
}

func TestClaimSeatsRejectsDuplicatesAndEmpty(t *testing.T) {
	store, inv := newInventory()
	slot := models.SeatSlot{BusID: 1, Date: "2025-01-10", DepartureTime: "08:00"}

	err := store.WithinTx(context.Background(), func(uow UnitOfWork) error {
		_, err := inv.ClaimSeats(context.Background(), uow, testBus(), slot, []string{"A1", " a1"})
		return err
	})
	assert.True(t, domain.IsValidation(err))

	err = store.WithinTx(context.Background(), func(uow UnitOfWork) error {
		_, err := inv.ClaimSeats(context.Background(), uow, testBus(), slot, nil)
		return err
	})
	assert.True(t, domain.IsValidation(err))
}

func TestClaimSeatsReturnsToken(t *testing.T) {
	store, inv := newInventory()
	slot := models.SeatSlot{BusID: 1, Date: "2025-01-10", DepartureTime: "08:00"}

	var claim models.SeatClaim
	err := store.WithinTx(context.Background(), func(uow UnitOfWork) error {
		var err error
		claim, err = inv.ClaimSeats(context.Background(), uow, testBus(), slot, []string{"b2", "A2"})
		return err
	})
	require.NoError(t, err)
	assert.Len(t, claim.Token, 36)
	assert.Equal(t, []string{"B2", "A2"}, claim.Seats)
	assert.ElementsMatch(t, []string{"A2", "B2"}, store.liveSeats()[slot])
}
