package reservation

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/restaurant-ops/internal/internaltypes"
)

// CapacityOracle resolves a restaurant's seat count. Unknown restaurants
// fail with internaltypes.ErrNotFound.
type CapacityOracle interface {
	Capacity(ctx context.Context, restaurantID string) (int, error)
}

type Request struct {
	RestaurantID string `json:"restaurant_id" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Time         string `json:"time" validate:"required,hhmm"`
	PartySize    int    `json:"party_size" validate:"gt=0"`
	// ExcludeID leaves a reservation's own seats out of the booked sum when
	// it is being moved or resized.
	ExcludeID string `json:"exclude_id"`
}

func (r Request) Slot() Slot {
	return Slot{RestaurantID: r.RestaurantID, Date: r.Date, Time: r.Time}
}

func (r *Request) normalize() {
	r.RestaurantID = strings.TrimSpace(r.RestaurantID)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = normalizeTime(r.Time)
}

type Availability struct {
	Available       bool   `json:"available"`
	CurrentBookings int    `json:"current_bookings"`
	TotalSeats      int    `json:"total_seats"`
	Remaining       int    `json:"remaining_seats"`
	Reason          string `json:"reason,omitempty"`
}

// Checker decides whether a party fits at a slot.
type Checker struct {
	capacity CapacityOracle
}

func NewChecker(capacity CapacityOracle) *Checker {
	return &Checker{capacity: capacity}
}

// Check reads the booked seats through store, which is the transactional
// view when called from a write path.
func (c *Checker) Check(ctx context.Context, store Store, req Request) (Availability, error) {
	if req.PartySize <= 0 {
		return Availability{}, internaltypes.Invalid("party_size", "must be greater than 0")
	}
	total, err := c.capacity.Capacity(ctx, req.RestaurantID)
	if err != nil {
		return Availability{}, err
	}
	booked, err := store.BookedSeats(ctx, req.Slot(), req.ExcludeID)
	if err != nil {
		return Availability{}, err
	}

	a := Availability{
		CurrentBookings: booked,
		TotalSeats:      total,
		Remaining:       total - booked,
	}
	a.Available = total > 0 && booked+req.PartySize <= total
	if !a.Available {
		a.Reason = fmt.Sprintf("only %d seats remaining", a.Remaining)
	}
	return a, nil
}
