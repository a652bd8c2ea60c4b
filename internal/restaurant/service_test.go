package restaurant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/restaurant-ops/internal/internaltypes"
)

func seats(n int) *int { return &n }

func newTestService() *Service {
	s := NewService(NewMemStore(), nil)
	s.now = func() time.Time { return time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestService_CreateAndCapacity(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	r, err := s.Create(ctx, Input{Name: "  Trattoria  ", TotalSeats: seats(10)})
	require.NoError(t, err)
	assert.Equal(t, "Trattoria", r.Name)
	assert.Equal(t, "restaurant", r.BusinessType)
	assert.NotEmpty(t, r.ID)

	n, err := s.Capacity(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	noSeats, err := s.Create(ctx, Input{Name: "Pop-up"})
	require.NoError(t, err)
	n, err = s.Capacity(ctx, noSeats.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Capacity(ctx, "missing")
	require.ErrorIs(t, err, internaltypes.ErrNotFound)
}

func TestService_CreateValidation(t *testing.T) {
	s := newTestService()
	_, err := s.Create(context.Background(), Input{
		TotalSeats: seats(-1),
		Email:      "nope",
		Hours:      Hours{"funday": {Open: "09:00", Close: "17:00"}},
	})
	var v *internaltypes.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "is required", v.Fields["name"])
	assert.Equal(t, "must be at least 0", v.Fields["total_seats"])
	assert.Equal(t, "must be a valid email address", v.Fields["email"])
	assert.Len(t, v.Fields, 4)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	r, err := s.Create(ctx, Input{Name: "Bistro", TotalSeats: seats(8)})
	require.NoError(t, err)

	name := "Bistro Deux"
	out, err := s.Update(ctx, r.ID, Patch{Name: &name, TotalSeats: seats(12)})
	require.NoError(t, err)
	assert.Equal(t, "Bistro Deux", out.Name)
	assert.Equal(t, 12, out.Capacity())

	out, err = s.Update(ctx, r.ID, Patch{ClearSeats: true})
	require.NoError(t, err)
	assert.Nil(t, out.TotalSeats)

	blank := "   "
	_, err = s.Update(ctx, r.ID, Patch{Name: &blank})
	assert.Equal(t, internaltypes.KindInvalidInput, internaltypes.Kind(err))

	_, err = s.Update(ctx, "missing", Patch{Name: &name})
	require.ErrorIs(t, err, internaltypes.ErrNotFound)
}

// seatLoad is a SeatLoad answering from a fixed table.
type seatLoad struct {
	peak map[string]int
	from string
	err  error
}

func (l *seatLoad) PeakSeats(_ context.Context, restaurantID, fromDate string) (int, error) {
	l.from = fromDate
	return l.peak[restaurantID], l.err
}

func TestService_UpdateRespectsBookedSeats(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	r, err := s.Create(ctx, Input{Name: "Bistro", TotalSeats: seats(10)})
	require.NoError(t, err)

	load := &seatLoad{peak: map[string]int{r.ID: 6}}
	s.UseSeatLoad(load)

	_, err = s.Update(ctx, r.ID, Patch{TotalSeats: seats(5)})
	var v *internaltypes.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields["total_seats"], "at least 6")
	assert.Equal(t, "2025-10-31", load.from)

	_, err = s.Update(ctx, r.ID, Patch{ClearSeats: true})
	require.ErrorAs(t, err, &v)

	out, err := s.Update(ctx, r.ID, Patch{TotalSeats: seats(6)})
	require.NoError(t, err)
	assert.Equal(t, 6, out.Capacity())

	// patches that leave seats alone skip the check
	load.err = errors.New("db down")
	name := "Bistro Deux"
	_, err = s.Update(ctx, r.ID, Patch{Name: &name})
	require.NoError(t, err)

	_, err = s.Update(ctx, r.ID, Patch{TotalSeats: seats(20)})
	assert.Equal(t, internaltypes.KindStoreFailure, internaltypes.Kind(err))
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	for _, n := range []string{"zebra grill", "Alpha Diner", "Grill House"} {
		_, err := s.Create(ctx, Input{Name: n})
		require.NoError(t, err)
	}

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alpha Diner", all[0].Name)

	grills, err := s.List(ctx, Filter{Query: "GRILL"})
	require.NoError(t, err)
	require.Len(t, grills, 2)
	assert.Equal(t, "Grill House", grills[0].Name)

	one, err := s.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestService_Settings(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	r, err := s.Create(ctx, Input{Name: "Cafe"})
	require.NoError(t, err)

	st, err := s.Settings(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(r.ID), st)
	assert.Equal(t, 2*time.Hour, st.SlotDuration())

	st.MaxPartySize = 8
	st.SlotDurationMinutes = 90
	saved, err := s.PutSettings(ctx, r.ID, st)
	require.NoError(t, err)
	assert.Equal(t, 8, saved.MaxPartySize)

	got, err := s.Settings(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, got.SlotDurationMinutes)

	st.MinPartySize = 10
	_, err = s.PutSettings(ctx, r.ID, st)
	var v *internaltypes.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "max_party_size")

	_, err = s.Settings(ctx, "missing")
	require.ErrorIs(t, err, internaltypes.ErrNotFound)
	_, err = s.PutSettings(ctx, "missing", DefaultSettings("missing"))
	require.ErrorIs(t, err, internaltypes.ErrNotFound)
}

func TestHours_For(t *testing.T) {
	h := Hours{"saturday": {Open: "17:00", Close: "23:00"}}
	d, ok := h.For(time.Date(2025, 11, 22, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, "17:00", d.Open)

	_, ok = h.For(time.Date(2025, 11, 23, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}
