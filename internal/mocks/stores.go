// Package mocks provides in-memory implementations of the booking engine's
// two stores. They keep real state behind a mutex so tests can race
// goroutines through them and control time, which expectation-based mocks
// cannot stage.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/screenbook/movie-reservation/internal/model"
	"github.com/screenbook/movie-reservation/internal/repository"
)

type seatKey struct {
	showtimeID uint64
	seatID     uint64
}

// FakeStore is an in-memory stand-in for the MySQL side of the engine. Like
// the real store, the (showtime, seat) pair is unique across booked seats
// and ConfirmReservation is all-or-nothing.
type FakeStore struct {
	mu           sync.Mutex
	showtimes    map[uint64]model.Showtime
	seats        map[uint64][]model.Seat
	reservations map[uint64]model.Reservation
	booked       map[seatKey]model.BookedSeat
	nextID       uint64

	// BeforeConfirm, when set, runs at the top of ConfirmReservation before
	// the uniqueness check. Tests use it as a barrier to line up concurrent
	// confirmations on the same seats.
	BeforeConfirm func()
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		showtimes:    make(map[uint64]model.Showtime),
		seats:        make(map[uint64][]model.Seat),
		reservations: make(map[uint64]model.Reservation),
		booked:       make(map[seatKey]model.BookedSeat),
	}
}

// AddShowtime seeds a showtime row.
func (f *FakeStore) AddShowtime(s model.Showtime) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.showtimes[s.ID] = s
}

// AddSeat seeds a seat row under its auditorium.
func (f *FakeStore) AddSeat(s model.Seat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seats[s.AuditoriumID] = append(f.seats[s.AuditoriumID], s)
}

// Reservation returns a stored reservation for assertions.
func (f *FakeStore) Reservation(id uint64) (model.Reservation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	return res, ok
}

// BookedBy reports which reservation booked a seat, if any.
func (f *FakeStore) BookedBy(showtimeID, seatID uint64) (uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.booked[seatKey{showtimeID, seatID}]
	return row.ReservationID, ok
}

func (f *FakeStore) ShowtimeByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.showtimes[id]
	if !ok {
		return nil, repository.ErrShowtimeNotFound
	}
	return &s, nil
}

func (f *FakeStore) SeatsByAuditorium(ctx context.Context, auditoriumID uint64) ([]model.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seats := append([]model.Seat(nil), f.seats[auditoriumID]...)
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].RowLabel != seats[j].RowLabel {
			return seats[i].RowLabel < seats[j].RowLabel
		}
		return seats[i].SeatNumber < seats[j].SeatNumber
	})
	return seats, nil
}

func (f *FakeStore) SeatsByIDs(ctx context.Context, auditoriumID uint64, ids []uint64) ([]model.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []model.Seat
	for _, s := range f.seats[auditoriumID] {
		if _, ok := want[s.ID]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *FakeStore) BookedSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint64
	for k := range f.booked {
		if k.showtimeID == showtimeID {
			ids = append(ids, k.seatID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *FakeStore) CreateHeldReservation(ctx context.Context, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	res.ID = f.nextID
	res.CreatedAt = time.Now().UTC()
	f.reservations[res.ID] = *res
	return nil
}

func (f *FakeStore) ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return nil, model.ErrReservationNotFound
	}
	return &res, nil
}

func (f *FakeStore) ConfirmReservation(ctx context.Context, reservationID, showtimeID uint64, seatIDs []uint64) error {
	// The barrier runs outside the lock so two confirmations can both get
	// here before either commits, like two MySQL transactions in flight.
	if f.BeforeConfirm != nil {
		f.BeforeConfirm()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, seatID := range seatIDs {
		if _, taken := f.booked[seatKey{showtimeID, seatID}]; taken {
			return model.ErrSeatConflict
		}
	}
	for _, seatID := range seatIDs {
		f.booked[seatKey{showtimeID, seatID}] = model.BookedSeat{
			ShowtimeID:    showtimeID,
			SeatID:        seatID,
			ReservationID: reservationID,
			CreatedAt:     time.Now().UTC(),
		}
	}
	res, ok := f.reservations[reservationID]
	if !ok {
		return model.ErrReservationNotFound
	}
	res.Status = model.ReservationStatusConfirmed
	f.reservations[reservationID] = res
	return nil
}

func (f *FakeStore) SetReservationStatus(ctx context.Context, id uint64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return model.ErrReservationNotFound
	}
	res.Status = status
	f.reservations[id] = res
	return nil
}

func (f *FakeStore) ReleaseReservation(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return model.ErrReservationNotFound
	}
	for k, row := range f.booked {
		if row.ReservationID == id {
			delete(f.booked, k)
		}
	}
	res.Status = model.ReservationStatusCancelled
	f.reservations[id] = res
	return nil
}

type holdEntry struct {
	holder    uint64
	expiresAt time.Time
}

// FakeHoldIndex mimics the Redis hold index: set-if-absent entries that
// expire on their own. Expiry is evaluated against Now at read time, so
// tests advance a fake clock instead of sleeping.
type FakeHoldIndex struct {
	mu      sync.Mutex
	entries map[seatKey]holdEntry

	// Now supplies the clock; nil means time.Now.
	Now func() time.Time
	// Err, when set, makes every method fail with it.
	Err error
	// OnTrySet, when set, runs before each TrySetHold write and aborts it
	// by returning an error. Used to fail partway through a placement.
	OnTrySet func(seatID uint64) error
}

func NewFakeHoldIndex() *FakeHoldIndex {
	return &FakeHoldIndex{entries: make(map[seatKey]holdEntry)}
}

// SetHeld seeds a hold entry directly, bypassing OnTrySet. Tests use it to
// stage a competing hold at an exact point in an interleaving.
func (f *FakeHoldIndex) SetHeld(showtimeID, seatID, holder uint64, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[seatKey{showtimeID, seatID}] = holdEntry{holder: holder, expiresAt: f.now().Add(ttl)}
}

func (f *FakeHoldIndex) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *FakeHoldIndex) TrySetHold(ctx context.Context, showtimeID, seatID, reservationID uint64, ttl time.Duration) (bool, error) {
	if f.OnTrySet != nil {
		if err := f.OnTrySet(seatID); err != nil {
			return false, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	k := seatKey{showtimeID, seatID}
	if e, ok := f.entries[k]; ok && e.expiresAt.After(f.now()) {
		return false, nil
	}
	f.entries[k] = holdEntry{holder: reservationID, expiresAt: f.now().Add(ttl)}
	return true, nil
}

func (f *FakeHoldIndex) Holder(ctx context.Context, showtimeID, seatID uint64) (uint64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, false, f.Err
	}
	e, ok := f.entries[seatKey{showtimeID, seatID}]
	if !ok || !e.expiresAt.After(f.now()) {
		return 0, false, nil
	}
	return e.holder, true, nil
}

func (f *FakeHoldIndex) Release(ctx context.Context, showtimeID, seatID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	delete(f.entries, seatKey{showtimeID, seatID})
	return nil
}

func (f *FakeHoldIndex) HeldSeats(ctx context.Context, showtimeID uint64) (map[uint64]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	held := make(map[uint64]uint64)
	for k, e := range f.entries {
		if k.showtimeID == showtimeID && e.expiresAt.After(f.now()) {
			held[k.seatID] = e.holder
		}
	}
	return held, nil
}
