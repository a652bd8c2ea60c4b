package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/example/restaurant-ops/internal/internaltypes"
	"github.com/example/restaurant-ops/internal/slotlock"
)

func newTestService(seats int) (*Service, *MemStore) {
	store := NewMemStore()
	s := NewService(store, seatMap{rid: seats}, slotlock.NewLocal(time.Second), nil)
	s.now = func() time.Time { return time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC) }
	return s, store
}

func booking(party int) CreateInput {
	return CreateInput{
		RestaurantID: rid,
		Date:         "2025-11-22",
		Time:         "19:00",
		PartySize:    party,
		GuestName:    "Ada",
		GuestPhone:   "555-0100",
	}
}

func intp(n int) *int          { return &n }
func strp(s string) *string    { return &s }
func statusp(s Status) *Status { return &s }

func TestService_Scenarios(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(10)

	a, err := s.Create(ctx, booking(6))
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, a.Status)

	avail, err := s.CheckAvailability(ctx, Request{RestaurantID: rid, Date: "2025-11-22", Time: "19:00", PartySize: 5})
	require.NoError(t, err)
	assert.False(t, avail.Available)
	assert.Equal(t, 4, avail.Remaining)
	assert.Equal(t, "only 4 seats remaining", avail.Reason)

	avail, err = s.CheckAvailability(ctx, Request{RestaurantID: rid, Date: "2025-11-22", Time: "19:00", PartySize: 4})
	require.NoError(t, err)
	assert.True(t, avail.Available)
	assert.Equal(t, 10, avail.CurrentBookings+4)

	_, err = s.Create(ctx, booking(5))
	remaining, ok := IsUnavailable(err)
	require.True(t, ok, "want slot unavailable, got %v", err)
	assert.Equal(t, 4, remaining)

	up, err := s.Update(ctx, a.ID, Patch{PartySize: intp(8)})
	require.NoError(t, err)
	assert.Equal(t, 8, up.PartySize)

	_, err = s.Cancel(ctx, a.ID)
	require.NoError(t, err)

	avail, err = s.CheckAvailability(ctx, Request{RestaurantID: rid, Date: "2025-11-22", Time: "19:00", PartySize: 5})
	require.NoError(t, err)
	assert.True(t, avail.Available)
}

func TestService_ConcurrentCreatesRespectCapacity(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(10)

	var ok, full atomic.Int32
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := s.Create(ctx, booking(6))
			switch {
			case err == nil:
				ok.Add(1)
			case internaltypes.Kind(err) == internaltypes.KindSlotUnavailable:
				full.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(1), full.Load())
}

func TestService_StressNeverOversells(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(10)

	var g errgroup.Group
	for i := 0; i < 40; i++ {
		party := i%3 + 1
		g.Go(func() error {
			r, err := s.Create(ctx, booking(party))
			if err != nil {
				if internaltypes.Kind(err) == internaltypes.KindSlotUnavailable {
					return nil
				}
				return err
			}
			if party == 3 {
				_, err = s.Cancel(ctx, r.ID)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	booked, err := store.BookedSeats(ctx, Slot{RestaurantID: rid, Date: "2025-11-22", Time: "19:00"}, "")
	require.NoError(t, err)
	assert.LessOrEqual(t, booked, 10)
}

func TestService_CancelIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(10)
	r, err := s.Create(ctx, booking(2))
	require.NoError(t, err)

	first, err := s.Cancel(ctx, r.ID)
	require.NoError(t, err)
	second, err := s.Cancel(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, first.Status)
	assert.Equal(t, first, second)

	_, err = s.Cancel(ctx, "missing")
	require.ErrorIs(t, err, internaltypes.ErrNotFound)
}

func TestService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(10)

	in := booking(0)
	in.Date = "22/11/2025"
	in.Time = "7pm"
	in.GuestName = ""
	_, err := s.Create(ctx, in)
	var v *internaltypes.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "must be greater than 0", v.Fields["party_size"])
	assert.Contains(t, v.Fields, "date")
	assert.Contains(t, v.Fields, "time")
	assert.Equal(t, "is required", v.Fields["guest_name"])

	in = booking(2)
	in.RestaurantID = "unknown"
	_, err = s.Create(ctx, in)
	require.ErrorIs(t, err, internaltypes.ErrNotFound)
}

func TestService_CreateNormalizesSeconds(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(10)
	in := booking(6)
	in.Time = "19:00:00"
	r, err := s.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "19:00", r.Time)

	_, err = s.Create(ctx, booking(6))
	assert.Equal(t, internaltypes.KindSlotUnavailable, internaltypes.Kind(err))
}

func TestService_ZeroSeatsRejects(t *testing.T) {
	s, _ := newTestService(0)
	_, err := s.Create(context.Background(), booking(1))
	remaining, ok := IsUnavailable(err)
	require.True(t, ok)
	assert.Zero(t, remaining)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(10)
	a, err := s.Create(ctx, booking(6))
	require.NoError(t, err)
	_, err = s.Create(ctx, booking(4))
	require.NoError(t, err)

	t.Run("contact edits skip the capacity check", func(t *testing.T) {
		r, err := s.Update(ctx, a.ID, Patch{GuestName: strp("Grace"), ConfirmationSent: new(bool)})
		require.NoError(t, err)
		assert.Equal(t, "Grace", r.GuestName)
	})

	t.Run("growing into a full slot fails", func(t *testing.T) {
		_, err := s.Update(ctx, a.ID, Patch{PartySize: intp(7)})
		remaining, ok := IsUnavailable(err)
		require.True(t, ok)
		assert.Equal(t, 6, remaining)
	})

	t.Run("moving to an empty slot", func(t *testing.T) {
		r, err := s.Update(ctx, a.ID, Patch{Time: strp("20:30:00"), PartySize: intp(10)})
		require.NoError(t, err)
		assert.Equal(t, "20:30", r.Time)
		assert.Equal(t, 10, r.PartySize)
	})

	t.Run("moving back into the old slot is checked", func(t *testing.T) {
		_, err := s.Update(ctx, a.ID, Patch{Time: strp("19:00")})
		assert.Equal(t, internaltypes.KindSlotUnavailable, internaltypes.Kind(err))
	})

	t.Run("invalid patch", func(t *testing.T) {
		_, err := s.Update(ctx, a.ID, Patch{PartySize: intp(0), Date: strp("tomorrow")})
		var v *internaltypes.ValidationError
		require.ErrorAs(t, err, &v)
		assert.Len(t, v.Fields, 2)
	})

	t.Run("terminal status cannot be reopened", func(t *testing.T) {
		_, err := s.Complete(ctx, a.ID)
		require.NoError(t, err)
		_, err = s.Update(ctx, a.ID, Patch{Status: statusp(StatusConfirmed)})
		var v *internaltypes.ValidationError
		require.ErrorAs(t, err, &v)
		assert.Contains(t, v.Fields["status"], "completed")
	})

	t.Run("inactive reservations move without a check", func(t *testing.T) {
		r, err := s.Update(ctx, a.ID, Patch{PartySize: intp(50)})
		require.NoError(t, err)
		assert.Equal(t, 50, r.PartySize)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.Update(ctx, "missing", Patch{GuestName: strp("x")})
		require.ErrorIs(t, err, internaltypes.ErrNotFound)
	})
}

func TestService_OutcomeTransitions(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(10)
	r, err := s.Create(ctx, booking(2))
	require.NoError(t, err)

	out, err := s.MarkNoShow(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, out.Status)

	_, err = s.Complete(ctx, r.ID)
	assert.Equal(t, internaltypes.KindInvalidInput, internaltypes.Kind(err))

	// no-show seats are free again
	_, err = s.Create(ctx, booking(10))
	require.NoError(t, err)
}

func TestService_Summarize(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(20)
	seed(t, store, "a", 2, StatusConfirmed)
	seed(t, store, "b", 3, StatusPending)
	seed(t, store, "c", 4, StatusCancelled)
	seed(t, store, "d", 5, StatusCompleted)
	seed(t, store, "e", 6, StatusNoShow)
	_, err := store.Insert(ctx, Reservation{ID: "f", RestaurantID: rid, Date: "2025-12-01", Time: "18:00", PartySize: 7, Status: StatusConfirmed})
	require.NoError(t, err)

	sum, err := s.Summarize(ctx, rid, "2025-11-01", "2025-11-30")
	require.NoError(t, err)
	assert.Equal(t, Summary{
		RestaurantID: rid, From: "2025-11-01", To: "2025-11-30",
		Active: 2, Pending: 1, Confirmed: 1, Cancelled: 1, Completed: 1, NoShow: 1,
		Total: 5, TotalGuests: 20, ActiveGuests: 5,
	}, sum)

	all, err := s.Summarize(ctx, rid, "", "")
	require.NoError(t, err)
	assert.Equal(t, 6, all.Total)
	assert.Equal(t, 27, all.TotalGuests)

	_, err = s.Summarize(ctx, "missing", "", "")
	require.ErrorIs(t, err, internaltypes.ErrNotFound)

	_, err = s.Summarize(ctx, rid, "Nov 1", "")
	assert.Equal(t, internaltypes.KindInvalidInput, internaltypes.Kind(err))
}

func TestService_ListPages(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(100)
	for i := 0; i < 5; i++ {
		_, err := store.Insert(ctx, Reservation{
			ID: fmt.Sprintf("r%d", i), RestaurantID: rid, Date: "2025-11-22",
			Time: fmt.Sprintf("1%d:00", 8+i%2), PartySize: 2, GuestName: fmt.Sprintf("guest %d", i),
			Status: StatusConfirmed,
		})
		require.NoError(t, err)
	}
	seed(t, store, "x", 2, StatusCancelled)

	var seen []string
	f := Filter{RestaurantID: rid, Statuses: []Status{StatusConfirmed}, Limit: 2}
	for {
		page, err := s.List(ctx, f)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, r := range page {
			seen = append(seen, r.ID)
		}
		c := page[len(page)-1].Cursor()
		f.After = &c
	}
	assert.Equal(t, []string{"r0", "r2", "r4", "r1", "r3"}, seen)

	found, err := s.List(ctx, Filter{Search: "GUEST 3"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "r3", found[0].ID)

	_, err = s.List(ctx, Filter{Statuses: []Status{"seated"}})
	assert.Equal(t, internaltypes.KindInvalidInput, internaltypes.Kind(err))
}

type busyLocker struct{}

func (busyLocker) Lock(context.Context, string) (func(), error) { return nil, internaltypes.ErrBusy }

type failingStore struct{ *MemStore }

func (failingStore) BookedSeats(context.Context, Slot, string) (int, error) {
	return 0, errors.New("connection reset")
}

func (f failingStore) Atomic(_ context.Context, _ []string, fn func(Store) error) error {
	return fn(f)
}

func TestService_FailureKinds(t *testing.T) {
	ctx := context.Background()

	busy := NewService(NewMemStore(), seatMap{rid: 10}, busyLocker{}, nil)
	_, err := busy.Create(ctx, booking(2))
	require.ErrorIs(t, err, internaltypes.ErrBusy)

	broken := NewService(failingStore{NewMemStore()}, seatMap{rid: 10}, nil, nil)
	_, err = broken.Create(ctx, booking(2))
	assert.Equal(t, internaltypes.KindStoreFailure, internaltypes.Kind(err))
	assert.Contains(t, err.Error(), "connection reset")

	// still serving after a store failure
	_, err = broken.Get(ctx, "missing")
	require.ErrorIs(t, err, internaltypes.ErrNotFound)
}
