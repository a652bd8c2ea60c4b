package restaurant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/restaurant-ops/internal/internaltypes"
	"github.com/example/restaurant-ops/internal/logging"
	"github.com/example/restaurant-ops/internal/validate"
)

// SeatLoad reports the most seats active bookings hold at any single slot of
// a restaurant on or after fromDate (YYYY-MM-DD).
type SeatLoad interface {
	PeakSeats(ctx context.Context, restaurantID, fromDate string) (int, error)
}

type Service struct {
	store Store
	load  SeatLoad
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewService(store Store, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{store: store, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// UseSeatLoad makes Update refuse seat counts below what is already booked.
func (s *Service) UseSeatLoad(l SeatLoad) { s.load = l }

// Capacity satisfies the reservation package's capacity oracle.
func (s *Service) Capacity(ctx context.Context, id string) (int, error) {
	n, err := s.store.Capacity(ctx, id)
	return n, internaltypes.WrapStore("restaurant capacity", err)
}

func (s *Service) Create(ctx context.Context, in Input) (Restaurant, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return Restaurant{}, err
	}
	if in.BusinessType == "" {
		in.BusinessType = "restaurant"
	}
	now := s.now()
	r, err := s.store.Create(ctx, Restaurant{
		ID:           uuid.NewString(),
		Name:         in.Name,
		BusinessType: in.BusinessType,
		TotalSeats:   in.TotalSeats,
		Phone:        in.Phone,
		Email:        in.Email,
		Address:      in.Address,
		Description:  in.Description,
		Hours:        in.Hours,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Restaurant{}, internaltypes.WrapStore("create restaurant", err)
	}
	logging.FromContext(ctx, s.log).WithFields(logrus.Fields{
		"restaurant_id": r.ID,
		"total_seats":   r.Capacity(),
	}).Info("restaurant created")
	return r, nil
}

func (s *Service) Get(ctx context.Context, id string) (Restaurant, error) {
	r, err := s.store.Get(ctx, id)
	return r, internaltypes.WrapStore("get restaurant", err)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Restaurant, error) {
	out, err := s.store.List(ctx, f)
	return out, internaltypes.WrapStore("list restaurants", err)
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (Restaurant, error) {
	if err := validate.Struct(p); err != nil {
		return Restaurant{}, err
	}
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return Restaurant{}, internaltypes.WrapStore("get restaurant", err)
	}
	next := p.apply(cur)
	if next.Name == "" {
		return Restaurant{}, internaltypes.Invalid("name", "is required")
	}
	if p.ClearSeats || p.TotalSeats != nil {
		if err := s.checkSeatLoad(ctx, next); err != nil {
			return Restaurant{}, err
		}
	}
	next.UpdatedAt = s.now()
	out, err := s.store.Update(ctx, next)
	if err != nil {
		return Restaurant{}, internaltypes.WrapStore("update restaurant", err)
	}
	return out, nil
}

// checkSeatLoad rejects a capacity that upcoming active bookings already
// exceed. Bookings racing the update are not covered; the next write to
// such a slot is checked against the new capacity.
func (s *Service) checkSeatLoad(ctx context.Context, r Restaurant) error {
	if s.load == nil {
		return nil
	}
	// a day back so zones behind UTC still count today's slots
	from := s.now().AddDate(0, 0, -1).Format("2006-01-02")
	peak, err := s.load.PeakSeats(ctx, r.ID, from)
	if err != nil {
		return internaltypes.WrapStore("restaurant seat load", err)
	}
	if r.Capacity() < peak {
		return internaltypes.Invalid("total_seats",
			fmt.Sprintf("must be at least %d: upcoming bookings already hold that many seats at one slot", peak))
	}
	return nil
}

func (s *Service) Settings(ctx context.Context, id string) (Settings, error) {
	st, err := s.store.Settings(ctx, id)
	return st, internaltypes.WrapStore("get settings", err)
}

func (s *Service) PutSettings(ctx context.Context, id string, st Settings) (Settings, error) {
	st.RestaurantID = id
	if err := validate.Struct(st); err != nil {
		return Settings{}, err
	}
	st.UpdatedAt = s.now()
	out, err := s.store.PutSettings(ctx, st)
	if err != nil {
		return Settings{}, internaltypes.WrapStore("put settings", err)
	}
	out.RestaurantID = id
	return out, nil
}
