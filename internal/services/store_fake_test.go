package services

import (
	"context"
	"sort"
	"sync"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/repositories"
)

type ledgerKey struct {
	slot models.SeatSlot
	seat string
}

// memStore is an in-memory BookingStore. Transactions run serially against a staged copy
// and the ledger enforces one live claim per (slot, seat) like the unique index does.
type memStore struct {
	mu       sync.Mutex
	bookings map[int64]models.Booking
	ledger   map[ledgerKey]string
	numbers  map[string]struct{}
	nextID   int64

	// blindHeld hides held seats from the transactional pre-check so only the ledger insert guards.
	blindHeld bool
	// duplicateNumbers makes the next n booking inserts collide on the booking number.
	duplicateNumbers int
	getErr           error
	txCount          int
}

func newMemStore() *memStore {
	return &memStore{
		bookings: map[int64]models.Booking{},
		ledger:   map[ledgerKey]string{},
		numbers:  map[string]struct{}{},
	}
}

type memState struct {
	bookings map[int64]models.Booking
	ledger   map[ledgerKey]string
	numbers  map[string]struct{}
	nextID   int64
}

func (m *memStore) snapshot() memState {
	st := memState{
		bookings: make(map[int64]models.Booking, len(m.bookings)),
		ledger:   make(map[ledgerKey]string, len(m.ledger)),
		numbers:  make(map[string]struct{}, len(m.numbers)),
		nextID:   m.nextID,
	}
	for k, v := range m.bookings {
		st.bookings[k] = v.Clone()
	}
	for k, v := range m.ledger {
		st.ledger[k] = v
	}
	for k := range m.numbers {
		st.numbers[k] = struct{}{}
	}
	return st
}

func (m *memStore) WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	m.txCount++
	u := &memUnit{store: m, st: m.snapshot()}
	if err := fn(u); err != nil {
		return err
	}
	m.bookings, m.ledger, m.numbers, m.nextID = u.st.bookings, u.st.ledger, u.st.numbers, u.st.nextID
	return nil
}

func (m *memStore) GetBooking(ctx context.Context, id int64) (models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return models.Booking{}, m.getErr
	}
	b, ok := m.bookings[id]
	if !ok {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return b.Clone(), nil
}

func (m *memStore) ListBookingsByUser(ctx context.Context, userID int64, page domain.Pagination) ([]models.Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []models.Booking{}
	for _, b := range m.bookings {
		if b.UserID == userID {
			all = append(all, b.Clone())
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	page = page.Normalize()
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *memStore) HeldSeats(ctx context.Context, slot models.SeatSlot) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return heldIn(m.ledger, slot), nil
}

func heldIn(ledger map[ledgerKey]string, slot models.SeatSlot) []string {
	out := []string{}
	for k := range ledger {
		if k.slot == slot {
			out = append(out, k.seat)
		}
	}
	sort.Strings(out)
	return out
}

// liveSeats returns every seat with a live claim, per slot, for invariant checks.
func (m *memStore) liveSeats() map[models.SeatSlot][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[models.SeatSlot][]string{}
	for k := range m.ledger {
		out[k.slot] = append(out[k.slot], k.seat)
	}
	return out
}

func (m *memStore) put(b models.Booking) models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = m.nextID
	if b.ClaimToken == "" {
		b.ClaimToken = "claim-" + b.BookingNumber
	}
	m.bookings[b.ID] = b.Clone()
	if b.Status.HoldsSeats() {
		for _, seat := range b.SeatNumbers() {
			m.ledger[ledgerKey{slot: b.Slot(), seat: seat}] = b.ClaimToken
		}
	}
	return b
}

type memUnit struct {
	store *memStore
	st    memState
}

func (u *memUnit) HeldSeats(ctx context.Context, slot models.SeatSlot) ([]string, error) {
	if u.store.blindHeld {
		return []string{}, nil
	}
	return heldIn(u.st.ledger, slot), nil
}

func (u *memUnit) InsertClaim(ctx context.Context, claim models.SeatClaim) error {
	contested := []string{}
	for _, seat := range claim.Seats {
		if _, taken := u.st.ledger[ledgerKey{slot: claim.Slot, seat: seat}]; taken {
			contested = append(contested, seat)
		}
	}
	if len(contested) > 0 {
		return domain.SeatConflictError{Seats: contested}
	}
	for _, seat := range claim.Seats {
		u.st.ledger[ledgerKey{slot: claim.Slot, seat: seat}] = claim.Token
	}
	return nil
}

func (u *memUnit) InsertBooking(ctx context.Context, b *models.Booking) error {
	if u.store.duplicateNumbers > 0 {
		u.store.duplicateNumbers--
		return repositories.ErrDuplicateBookingNumber
	}
	if _, dup := u.st.numbers[b.BookingNumber]; dup {
		return repositories.ErrDuplicateBookingNumber
	}
	u.st.nextID++
	b.ID = u.st.nextID
	u.st.bookings[b.ID] = b.Clone()
	u.st.numbers[b.BookingNumber] = struct{}{}
	return nil
}

func (u *memUnit) UpdateBooking(ctx context.Context, next, prev models.Booking) error {
	cur, ok := u.st.bookings[prev.ID]
	if !ok || cur.Status != prev.Status || cur.Payment.Status != prev.Payment.Status ||
		cur.CheckIn.IsCheckedIn != prev.CheckIn.IsCheckedIn || cur.Feedback.Rating != prev.Feedback.Rating {
		return domain.InvalidStateError{Op: "update booking", Status: string(prev.Status), Msg: "booking was modified concurrently"}
	}
	u.st.bookings[prev.ID] = next.Clone()
	if prev.Status.HoldsSeats() && !next.Status.HoldsSeats() {
		for k, token := range u.st.ledger {
			if token == prev.ClaimToken {
				delete(u.st.ledger, k)
			}
		}
	}
	return nil
}

type fakeBuses struct {
	buses map[int64]models.Bus
	err   error
}

func (f fakeBuses) GetBus(ctx context.Context, id int64) (models.Bus, error) {
	if f.err != nil {
		return models.Bus{}, f.err
	}
	b, ok := f.buses[id]
	if !ok {
		return models.Bus{}, domain.NotFoundError{Resource: "bus"}
	}
	return b, nil
}

type fakeRoutes map[int64]models.Route

func (f fakeRoutes) GetRoute(ctx context.Context, id int64) (models.Route, error) {
	r, ok := f[id]
	if !ok {
		return models.Route{}, domain.NotFoundError{Resource: "route"}
	}
	return r, nil
}

type fakeDiscounts map[string]models.DiscountRule

func (f fakeDiscounts) Lookup(ctx context.Context, code string) (models.DiscountRule, error) {
	r, ok := f[code]
	if !ok {
		return models.DiscountRule{}, domain.NotFoundError{Resource: "discount code"}
	}
	return r, nil
}

type fakeLoyalty struct {
	mu      sync.Mutex
	credits map[int64]int64
	err     error
}

func (f *fakeLoyalty) AddLoyaltyPoints(ctx context.Context, userID, points int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.credits == nil {
		f.credits = map[int64]int64{}
	}
	f.credits[userID] += points
	return nil
}

type fakeLocations struct {
	mu   sync.Mutex
	last map[int64]models.Location
}

func (f *fakeLocations) UpdateLocation(ctx context.Context, busID int64, loc models.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		f.last = map[int64]models.Location{}
	}
	f.last[busID] = loc
	return nil
}
