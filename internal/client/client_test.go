package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/restaurant-ops/internal/logging"
	"github.com/example/restaurant-ops/internal/menu"
	"github.com/example/restaurant-ops/internal/reservation"
	"github.com/example/restaurant-ops/internal/restaurant"
	"github.com/example/restaurant-ops/internal/web"
)

func newBackend(t *testing.T) *httptest.Server {
	log := logging.Discard()
	rs := restaurant.NewService(restaurant.NewMemStore(), log)
	s := &web.Server{
		Restaurants:  rs,
		Reservations: reservation.NewService(reservation.NewMemStore(), rs, nil, log),
		Menu:         menu.NewService(menu.NewMemStore(), rs, log),
		Cursors:      web.NewCursorCodec(nil, nil),
		Log:          log,
	}
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_BookingRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := New(newBackend(t).URL, nil)

	seats := 10
	r, err := c.CreateRestaurant(ctx, restaurant.Input{Name: "Osteria", TotalSeats: &seats})
	require.NoError(t, err)

	list, err := c.ListRestaurants(ctx, "oster")
	require.NoError(t, err)
	require.Len(t, list, 1)

	in := reservation.CreateInput{
		RestaurantID: r.ID, Date: "2025-11-22", Time: "19:00", PartySize: 6,
		GuestName: "Ada", GuestPhone: "555-0100",
	}
	a, err := c.CreateReservation(ctx, in)
	require.NoError(t, err)

	avail, err := c.Availability(ctx, reservation.Request{RestaurantID: r.ID, Date: "2025-11-22", Time: "19:00", PartySize: 5})
	require.NoError(t, err)
	assert.False(t, avail.Available)
	assert.Equal(t, 4, avail.Remaining)

	in.PartySize = 5
	_, err = c.CreateReservation(ctx, in)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "slot_unavailable", apiErr.Code)
	require.NotNil(t, apiErr.RemainingSeats)
	assert.Equal(t, 4, *apiErr.RemainingSeats)

	got, err := c.CancelReservation(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusCancelled, got.Status)

	sum, err := c.Summary(ctx, r.ID, "2025-11-01", "")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Cancelled)

	_, err = c.GetReservation(ctx, "missing")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	items, err := c.ListMenu(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	// client errors never open the breaker
	assert.Equal(t, "closed", c.State())
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"store_failure","message":"internal error"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	for i := 0; i < 3; i++ {
		_, err := c.GetReservation(context.Background(), "x")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "internal error", apiErr.Message)
	}

	_, err := c.GetReservation(context.Background(), "x")
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, "open", c.State())
}
