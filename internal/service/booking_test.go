package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenbook/movie-reservation/internal/mocks"
	"github.com/screenbook/movie-reservation/internal/model"
	"github.com/screenbook/movie-reservation/internal/repository"
)

type testClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}

var testBase = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// newEngine builds a service over the fakes with one showtime (ID 1) in a
// three-seat auditorium (seat IDs 1..3) starting 48 hours after testBase.
// The returned clock drives both the service and the hold index.
func newEngine(t *testing.T) (*BookingService, *mocks.FakeStore, *mocks.FakeHoldIndex, *testClock) {
	t.Helper()
	clk := &testClock{cur: testBase}

	store := mocks.NewFakeStore()
	store.AddShowtime(model.Showtime{
		ID:           1,
		MovieID:      1,
		AuditoriumID: 1,
		StartsAt:     testBase.Add(48 * time.Hour),
		EndsAt:       testBase.Add(50 * time.Hour),
	})
	for i := uint64(1); i <= 3; i++ {
		store.AddSeat(model.Seat{ID: i, AuditoriumID: 1, RowLabel: "A", SeatNumber: uint32(i), SeatType: "standard"})
	}

	idx := mocks.NewFakeHoldIndex()
	idx.Now = clk.now

	svc := NewBookingService(store, idx, 10*time.Minute, time.Hour)
	svc.now = clk.now
	return svc, store, idx, clk
}

func statuses(t *testing.T, svc *BookingService, showtimeID uint64) []string {
	t.Helper()
	view, err := svc.SeatStatuses(context.Background(), showtimeID)
	require.NoError(t, err)
	out := make([]string, 0, len(view))
	for _, s := range view {
		out = append(out, s.Status)
	}
	return out
}

func mustHold(t *testing.T, svc *BookingService, userID uint64, seatIDs ...uint64) *Hold {
	t.Helper()
	hold, err := svc.PlaceHold(context.Background(), 1, seatIDs, userID, 0)
	require.NoError(t, err)
	return hold
}

func mustConfirm(t *testing.T, svc *BookingService, reservationID, userID uint64) *Confirmation {
	t.Helper()
	conf, err := svc.Confirm(context.Background(), reservationID, userID)
	require.NoError(t, err)
	return conf
}

func TestSeatStatuses_AllAvailable(t *testing.T) {
	svc, _, _, _ := newEngine(t)

	view, err := svc.SeatStatuses(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, view, 3)
	for i, s := range view {
		assert.Equal(t, uint64(i+1), s.Seat.ID)
		assert.Equal(t, StatusAvailable, s.Status)
	}
}

func TestSeatStatuses_UnknownShowtime(t *testing.T) {
	svc, _, _, _ := newEngine(t)

	_, err := svc.SeatStatuses(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrShowtimeNotFound)
}

func TestSeatStatuses_BookedWinsOverHeld(t *testing.T) {
	svc, _, idx, _ := newEngine(t)

	hold := mustHold(t, svc, 7, 2)
	mustConfirm(t, svc, hold.ReservationID, 7)

	// A lingering index entry for the sold seat must not downgrade it, and
	// a live hold on another seat must show as held.
	idx.SetHeld(1, 2, 999, time.Minute)
	idx.SetHeld(1, 3, 999, time.Minute)

	if diff := cmp.Diff([]string{StatusAvailable, StatusBooked, StatusHeld}, statuses(t, svc, 1)); diff != "" {
		t.Errorf("seat statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestSeatStatuses_DegradesWhenIndexDown(t *testing.T) {
	svc, _, idx, _ := newEngine(t)

	idx.SetHeld(1, 1, 999, time.Minute)
	idx.Err = repository.ErrHoldIndexDown

	// Reads degrade to zero held seats rather than failing.
	if diff := cmp.Diff([]string{StatusAvailable, StatusAvailable, StatusAvailable}, statuses(t, svc, 1)); diff != "" {
		t.Errorf("seat statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestSeatStatuses_HoldLapsesToAvailable(t *testing.T) {
	svc, _, _, clk := newEngine(t)

	_, err := svc.PlaceHold(context.Background(), 1, []uint64{2}, 7, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{StatusAvailable, StatusHeld, StatusAvailable}, statuses(t, svc, 1))

	// No release call: the TTL lapsing is the whole mechanism.
	clk.advance(2 * time.Minute)
	assert.Equal(t, []string{StatusAvailable, StatusAvailable, StatusAvailable}, statuses(t, svc, 1))
}

func TestSeatStatuses_StableBetweenWrites(t *testing.T) {
	svc, _, idx, _ := newEngine(t)

	hold := mustHold(t, svc, 7, 1)
	mustConfirm(t, svc, hold.ReservationID, 7)
	idx.SetHeld(1, 3, 999, time.Minute)

	first := statuses(t, svc, 1)
	if diff := cmp.Diff(first, statuses(t, svc, 1)); diff != "" {
		t.Errorf("repeated reads diverged (-first +second):\n%s", diff)
	}
}

func TestPlaceHold_Succeeds(t *testing.T) {
	svc, store, idx, _ := newEngine(t)

	hold, err := svc.PlaceHold(context.Background(), 1, []uint64{1, 3}, 7, 0)
	require.NoError(t, err)
	require.NotZero(t, hold.ReservationID)
	assert.True(t, hold.ExpiresAt.Equal(testBase.Add(10*time.Minute)), "expiry should be placement time plus default ttl")

	res, ok := store.Reservation(hold.ReservationID)
	require.True(t, ok)
	assert.Equal(t, model.ReservationStatusHeld, res.Status)
	require.NotNil(t, res.UserID)
	assert.Equal(t, uint64(7), *res.UserID)

	for _, seatID := range []uint64{1, 3} {
		holder, live, err := idx.Holder(context.Background(), 1, seatID)
		require.NoError(t, err)
		assert.True(t, live)
		assert.Equal(t, hold.ReservationID, holder)
	}
}

func TestPlaceHold_CollapsesDuplicateSeatIDs(t *testing.T) {
	svc, _, idx, _ := newEngine(t)

	hold := mustHold(t, svc, 7, 2, 2, 2)

	held, err := idx.HeldSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, map[uint64]uint64{2: hold.ReservationID}, held)
}

func TestPlaceHold_EmptySelection(t *testing.T) {
	svc, _, _, _ := newEngine(t)

	_, err := svc.PlaceHold(context.Background(), 1, nil, 7, 0)
	assert.ErrorIs(t, err, model.ErrInvalidSeatSelection)
}

func TestPlaceHold_UnknownSeat(t *testing.T) {
	svc, _, _, _ := newEngine(t)

	_, err := svc.PlaceHold(context.Background(), 1, []uint64{1, 99}, 7, 0)
	assert.ErrorIs(t, err, model.ErrInvalidSeatSelection)
}

func TestPlaceHold_SeatFromAnotherAuditorium(t *testing.T) {
	svc, store, _, _ := newEngine(t)
	store.AddSeat(model.Seat{ID: 50, AuditoriumID: 2, RowLabel: "A", SeatNumber: 1})

	_, err := svc.PlaceHold(context.Background(), 1, []uint64{50}, 7, 0)
	assert.ErrorIs(t, err, model.ErrInvalidSeatSelection)
}

func TestPlaceHold_BookedSeat(t *testing.T) {
	svc, _, _, _ := newEngine(t)

	hold := mustHold(t, svc, 5, 1)
	mustConfirm(t, svc, hold.ReservationID, 5)

	_, err := svc.PlaceHold(context.Background(), 1, []uint64{1}, 7, 0)
	assert.ErrorIs(t, err, model.ErrSeatsAlreadyBooked)
}

func TestPlaceHold_HeldSeat(t *testing.T) {
	svc, _, idx, _ := newEngine(t)

	idx.SetHeld(1, 2, 999, time.Minute)

	_, err := svc.PlaceHold(context.Background(), 1, []uint64{2, 3}, 7, 0)
	assert.ErrorIs(t, err, model.ErrSeatsAlreadyHeld)
}

func TestPlaceHold_IndexDown(t *testing.T) {
	svc, _, idx, _ := newEngine(t)

	idx.Err = repository.ErrHoldIndexDown

	_, err := svc.PlaceHold(context.Background(), 1, []uint64{1}, 7, 0)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}

func TestPlaceHold_RollsBackOnPartialIndexFailure(t *testing.T) {
	svc, store, idx, _ := newEngine(t)

	idx.OnTrySet = func(seatID uint64) error {
		if seatID == 3 {
			return repository.ErrHoldIndexDown
		}
		return nil
	}

	_, err := svc.PlaceHold(context.Background(), 1, []uint64{1, 3}, 7, 0)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	// The entry placed before the failure must be released again.
	_, live, herr := idx.Holder(context.Background(), 1, 1)
	require.NoError(t, herr)
	assert.False(t, live)

	// The reservation row stays behind in held status and simply times out.
	res, ok := store.Reservation(1)
	require.True(t, ok)
	assert.Equal(t, model.ReservationStatusHeld, res.Status)
}

func TestPlaceHold_LosesRaceAfterPreconditions(t *testing.T) {
	svc, _, idx, _ := newEngine(t)

	// A competitor grabs seat 3 between the precondition check and the
	// write. The set-if-absent refusal is what surfaces the race.
	idx.OnTrySet = func(seatID uint64) error {
		if seatID == 3 {
			idx.OnTrySet = nil
			idx.SetHeld(1, 3, 999, time.Minute)
		}
		return nil
	}

	_, err := svc.PlaceHold(context.Background(), 1, []uint64{1, 3}, 7, 0)
	assert.ErrorIs(t, err, model.ErrSeatsAlreadyHeld)

	_, live, herr := idx.Holder(context.Background(), 1, 1)
	require.NoError(t, herr)
	assert.False(t, live, "seat placed before the lost race should be released")

	holder, live, herr := idx.Holder(context.Background(), 1, 3)
	require.NoError(t, herr)
	require.True(t, live)
	assert.Equal(t, uint64(999), holder, "competitor's hold must survive the rollback")
}

func TestConfirm_Succeeds(t *testing.T) {
	svc, store, idx, _ := newEngine(t)

	hold := mustHold(t, svc, 7, 2, 1)
	conf := mustConfirm(t, svc, hold.ReservationID, 7)

	assert.Equal(t, hold.ReservationID, conf.ReservationID)
	assert.Equal(t, model.ReservationStatusConfirmed, conf.Status)
	if diff := cmp.Diff([]uint64{1, 2}, conf.SeatIDs); diff != "" {
		t.Errorf("confirmed seat IDs mismatch (-want +got):\n%s", diff)
	}

	for _, seatID := range []uint64{1, 2} {
		resID, booked := store.BookedBy(1, seatID)
		require.True(t, booked)
		assert.Equal(t, hold.ReservationID, resID)
	}

	held, err := idx.HeldSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, held, "hold entries should be released after commit")
}

func TestConfirm_SecondConfirmLooksLikeMissing(t *testing.T) {
	svc, _, _, _ := newEngine(t)

	hold := mustHold(t, svc, 7, 1)
	mustConfirm(t, svc, hold.ReservationID, 7)

	_, err := svc.Confirm(context.Background(), hold.ReservationID, 7)
	assert.ErrorIs(t, err, model.ErrReservationNotFound)
}

func TestConfirm_WrongUser(t *testing.T) {
	svc, store, _, _ := newEngine(t)

	hold := mustHold(t, svc, 7, 1)

	_, err := svc.Confirm(context.Background(), hold.ReservationID, 8)
	assert.ErrorIs(t, err, model.ErrReservationNotFound)

	res, _ := store.Reservation(hold.ReservationID)
	assert.Equal(t, model.ReservationStatusHeld, res.Status, "foreign confirm must not touch the reservation")
}

func TestConfirm_UnknownReservation(t *testing.T) {
	svc, _, _, _ := newEngine(t)

	_, err := svc.Confirm(context.Background(), 42, 7)
	assert.ErrorIs(t, err, model.ErrReservationNotFound)
}

func TestConfirm_ExpiredHold(t *testing.T) {
	svc, store, _, clk := newEngine(t)

	hold, err := svc.PlaceHold(context.Background(), 1, []uint64{1, 2}, 7, time.Minute)
	require.NoError(t, err)

	clk.advance(2 * time.Minute)

	_, err = svc.Confirm(context.Background(), hold.ReservationID, 7)
	assert.ErrorIs(t, err, model.ErrHoldExpired)

	booked, berr := store.BookedSeatIDs(context.Background(), 1)
	require.NoError(t, berr)
	assert.Empty(t, booked)

	// Expiry is an absence of index entries, not a status transition.
	res, _ := store.Reservation(hold.ReservationID)
	assert.Equal(t, model.ReservationStatusHeld, res.Status)
}

func TestConfirm_SeatFreedAgainAfterExpiry(t *testing.T) {
	svc, _, _, clk := newEngine(t)

	_, err := svc.PlaceHold(context.Background(), 1, []uint64{3}, 7, time.Minute)
	require.NoError(t, err)
	clk.advance(2 * time.Minute)

	hold := mustHold(t, svc, 8, 3)
	conf := mustConfirm(t, svc, hold.ReservationID, 8)
	assert.Equal(t, model.ReservationStatusConfirmed, conf.Status)
}

func TestConfirm_IndexDown(t *testing.T) {
	svc, _, idx, _ := newEngine(t)

	hold := mustHold(t, svc, 7, 1)
	idx.Err = repository.ErrHoldIndexDown

	_, err := svc.Confirm(context.Background(), hold.ReservationID, 7)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}

// TestConfirm_ConcurrentLoserGetsSeatConflict stages the interleaving the
// unique key exists for: the first confirmation reads its live hold, stalls
// before committing, the hold expires, a second user books the seat, and
// the stalled insert then collides.
func TestConfirm_ConcurrentLoserGetsSeatConflict(t *testing.T) {
	svc, store, _, clk := newEngine(t)

	holdA, err := svc.PlaceHold(context.Background(), 1, []uint64{2}, 7, time.Minute)
	require.NoError(t, err)

	arrived := make(chan struct{})
	release := make(chan struct{})
	var first int32
	store.BeforeConfirm = func() {
		if atomic.CompareAndSwapInt32(&first, 0, 1) {
			close(arrived)
			<-release
		}
	}

	errA := make(chan error, 1)
	go func() {
		_, err := svc.Confirm(context.Background(), holdA.ReservationID, 7)
		errA <- err
	}()

	<-arrived
	clk.advance(2 * time.Minute)

	holdB := mustHold(t, svc, 8, 2)
	confB := mustConfirm(t, svc, holdB.ReservationID, 8)

	close(release)
	assert.ErrorIs(t, <-errA, model.ErrSeatConflict)

	winner, booked := store.BookedBy(1, 2)
	require.True(t, booked)
	assert.Equal(t, confB.ReservationID, winner)

	resA, _ := store.Reservation(holdA.ReservationID)
	assert.Equal(t, model.ReservationStatusHeld, resA.Status, "loser's reservation must roll back untouched")
}

func TestCancel_HeldReleasesEntries(t *testing.T) {
	svc, store, idx, _ := newEngine(t)

	hold := mustHold(t, svc, 7, 1, 2)
	require.NoError(t, svc.Cancel(context.Background(), hold.ReservationID, 7))

	res, _ := store.Reservation(hold.ReservationID)
	assert.Equal(t, model.ReservationStatusCancelled, res.Status)

	held, err := idx.HeldSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, held)

	// The seats are immediately claimable by someone else.
	mustHold(t, svc, 8, 1, 2)
}

func TestCancel_ConfirmedFreesSeats(t *testing.T) {
	svc, store, _, _ := newEngine(t)

	hold := mustHold(t, svc, 7, 1, 2)
	mustConfirm(t, svc, hold.ReservationID, 7)

	require.NoError(t, svc.Cancel(context.Background(), hold.ReservationID, 7))

	res, _ := store.Reservation(hold.ReservationID)
	assert.Equal(t, model.ReservationStatusCancelled, res.Status)

	if diff := cmp.Diff([]string{StatusAvailable, StatusAvailable, StatusAvailable}, statuses(t, svc, 1)); diff != "" {
		t.Errorf("seat statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestCancel_ConfirmedTooCloseToStart(t *testing.T) {
	svc, store, _, clk := newEngine(t)

	hold := mustHold(t, svc, 7, 1)
	mustConfirm(t, svc, hold.ReservationID, 7)

	// Showtime starts 48h after base; the window is one hour.
	clk.advance(47*time.Hour + 31*time.Minute)

	err := svc.Cancel(context.Background(), hold.ReservationID, 7)
	assert.ErrorIs(t, err, ErrCancelNotAllowed)

	_, booked := store.BookedBy(1, 1)
	assert.True(t, booked, "a refused cancel must not free the seat")
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	svc, _, _, _ := newEngine(t)

	hold := mustHold(t, svc, 7, 1)
	require.NoError(t, svc.Cancel(context.Background(), hold.ReservationID, 7))

	err := svc.Cancel(context.Background(), hold.ReservationID, 7)
	assert.ErrorIs(t, err, ErrCancelNotAllowed)
}

func TestCancel_WrongUser(t *testing.T) {
	svc, _, _, _ := newEngine(t)

	hold := mustHold(t, svc, 7, 1)

	err := svc.Cancel(context.Background(), hold.ReservationID, 8)
	assert.ErrorIs(t, err, model.ErrReservationNotFound)
}

func TestBookingFlow_FillsAuditorium(t *testing.T) {
	svc, _, _, _ := newEngine(t)

	holdA := mustHold(t, svc, 7, 1, 2)
	mustConfirm(t, svc, holdA.ReservationID, 7)

	holdB := mustHold(t, svc, 8, 3)
	if diff := cmp.Diff([]string{StatusBooked, StatusBooked, StatusHeld}, statuses(t, svc, 1)); diff != "" {
		t.Errorf("seat statuses mismatch (-want +got):\n%s", diff)
	}

	mustConfirm(t, svc, holdB.ReservationID, 8)
	if diff := cmp.Diff([]string{StatusBooked, StatusBooked, StatusBooked}, statuses(t, svc, 1)); diff != "" {
		t.Errorf("seat statuses mismatch (-want +got):\n%s", diff)
	}

	_, err := svc.PlaceHold(context.Background(), 1, []uint64{1}, 9, 0)
	assert.ErrorIs(t, err, model.ErrSeatsAlreadyBooked)
}
