package reservation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/restaurant-ops/internal/internaltypes"
	"github.com/example/restaurant-ops/internal/logging"
	"github.com/example/restaurant-ops/internal/metrics"
	"github.com/example/restaurant-ops/internal/slotlock"
	"github.com/example/restaurant-ops/internal/validate"
)

// Service is the reservation workflow. Writes that touch a slot take the
// slot's lock, then re-read and write inside one store transaction.
type Service struct {
	store    Store
	capacity CapacityOracle
	checker  *Checker
	locker   slotlock.Locker
	log      logrus.FieldLogger

	now   func() time.Time
	newID func() string
}

func NewService(store Store, capacity CapacityOracle, locker slotlock.Locker, log logrus.FieldLogger) *Service {
	if locker == nil {
		locker = slotlock.NewLocal(0)
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Service{
		store:    store,
		capacity: capacity,
		checker:  NewChecker(capacity),
		locker:   locker,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// CheckAvailability is an advisory read; it takes no lock.
func (s *Service) CheckAvailability(ctx context.Context, req Request) (Availability, error) {
	req.normalize()
	if err := validate.Struct(req); err != nil {
		return Availability{}, err
	}
	a, err := s.checker.Check(ctx, s.store, req)
	if err != nil {
		return Availability{}, internaltypes.WrapStore("check availability", err)
	}
	metrics.AvailabilityChecks.WithLabelValues(strconv.FormatBool(a.Available)).Inc()
	return a, nil
}

// Create books a confirmed reservation when the party fits at its slot.
func (s *Service) Create(ctx context.Context, in CreateInput) (out Reservation, err error) {
	in.normalize()
	defer func() {
		s.observe(ctx, "create", logrus.Fields{"restaurant_id": in.RestaurantID, "reservation_id": out.ID}, err)
	}()
	if err := validate.Struct(in); err != nil {
		return Reservation{}, err
	}

	now := s.now()
	rec := Reservation{
		ID:              s.newID(),
		RestaurantID:    in.RestaurantID,
		Date:            in.Date,
		Time:            in.Time,
		PartySize:       in.PartySize,
		GuestName:       in.GuestName,
		GuestPhone:      in.GuestPhone,
		GuestEmail:      in.GuestEmail,
		SpecialRequests: in.SpecialRequests,
		Status:          StatusConfirmed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = s.atomically(ctx, []string{rec.Slot().Key()}, func(tx Store) error {
		if err := s.ensureFits(ctx, tx, rec); err != nil {
			return err
		}
		var err error
		out, err = tx.Insert(ctx, rec)
		return err
	})
	if err != nil {
		return Reservation{}, internaltypes.WrapStore("create reservation", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Reservation, error) {
	r, err := s.store.Get(ctx, id)
	return r, internaltypes.WrapStore("get reservation", err)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Reservation, error) {
	f.Time = normalizeTime(f.Time)
	if err := validate.Struct(f); err != nil {
		return nil, err
	}
	f.Limit = f.limit()
	out, err := s.store.List(ctx, f)
	return out, internaltypes.WrapStore("list reservations", err)
}

// Update applies p. When p moves or resizes an active reservation the new
// slot is re-checked with the reservation's own seats left out.
func (s *Service) Update(ctx context.Context, id string, p Patch) (out Reservation, err error) {
	p.normalize()
	defer func() {
		s.observe(ctx, "update", logrus.Fields{"reservation_id": id, "restaurant_id": out.RestaurantID}, err)
	}()
	if err := validate.Struct(p); err != nil {
		return Reservation{}, err
	}

	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return Reservation{}, internaltypes.WrapStore("get reservation", err)
	}
	keys := []string{recordKey(id)}
	target := ""
	if next := p.apply(cur); p.TouchesSlot() && next.Status.Active() {
		target = next.Slot().Key()
		keys = append(keys, target)
	}

	err = s.atomically(ctx, keys, func(tx Store) error {
		cur, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		next := p.apply(cur)
		if !cur.Status.CanTransition(next.Status) {
			return transitionError(cur.Status, next.Status)
		}
		if p.TouchesSlot() && next.Status.Active() {
			// the record moved between the unlocked read and now
			if next.Slot().Key() != target {
				return internaltypes.ErrBusy
			}
			if err := s.ensureFits(ctx, tx, next); err != nil {
				return err
			}
		}
		next.UpdatedAt = s.now()
		out, err = tx.Update(ctx, next)
		return err
	})
	if err != nil {
		return Reservation{}, internaltypes.WrapStore("update reservation", err)
	}
	return out, nil
}

// Cancel releases the reservation's seats. Cancelling a cancelled
// reservation succeeds without writing.
func (s *Service) Cancel(ctx context.Context, id string) (Reservation, error) {
	return s.transition(ctx, "cancel", id, StatusCancelled)
}

func (s *Service) Complete(ctx context.Context, id string) (Reservation, error) {
	return s.transition(ctx, "complete", id, StatusCompleted)
}

func (s *Service) MarkNoShow(ctx context.Context, id string) (Reservation, error) {
	return s.transition(ctx, "no_show", id, StatusNoShow)
}

func (s *Service) transition(ctx context.Context, op, id string, to Status) (out Reservation, err error) {
	defer func() {
		s.observe(ctx, op, logrus.Fields{"reservation_id": id, "restaurant_id": out.RestaurantID}, err)
	}()
	err = s.atomically(ctx, []string{recordKey(id)}, func(tx Store) error {
		cur, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if cur.Status == to {
			out = cur
			return nil
		}
		if !cur.Status.CanTransition(to) {
			return transitionError(cur.Status, to)
		}
		cur.Status = to
		cur.UpdatedAt = s.now()
		out, err = tx.Update(ctx, cur)
		return err
	})
	if err != nil {
		return Reservation{}, internaltypes.WrapStore(op+" reservation", err)
	}
	return out, nil
}

// Summarize counts a restaurant's reservations per status between from and
// to inclusive; empty bounds are open.
func (s *Service) Summarize(ctx context.Context, restaurantID, from, to string) (Summary, error) {
	bounds := struct {
		From string `json:"from" validate:"omitempty,datetime=2006-01-02"`
		To   string `json:"to" validate:"omitempty,datetime=2006-01-02"`
	}{from, to}
	if err := validate.Struct(bounds); err != nil {
		return Summary{}, err
	}
	if _, err := s.capacity.Capacity(ctx, restaurantID); err != nil {
		return Summary{}, internaltypes.WrapStore("summarize reservations", err)
	}
	tallies, err := s.store.Tally(ctx, restaurantID, from, to)
	if err != nil {
		return Summary{}, internaltypes.WrapStore("summarize reservations", err)
	}

	sum := Summary{RestaurantID: restaurantID, From: from, To: to}
	for st, t := range tallies {
		switch st {
		case StatusPending:
			sum.Pending = t.Count
		case StatusConfirmed:
			sum.Confirmed = t.Count
		case StatusCancelled:
			sum.Cancelled = t.Count
		case StatusCompleted:
			sum.Completed = t.Count
		case StatusNoShow:
			sum.NoShow = t.Count
		}
		if st.Active() {
			sum.Active += t.Count
			sum.ActiveGuests += t.Guests
		}
		sum.Total += t.Count
		sum.TotalGuests += t.Guests
	}
	return sum, nil
}

// PeakSeats lets the restaurant service refuse capacity cuts below what is
// already booked.
func (s *Service) PeakSeats(ctx context.Context, restaurantID, fromDate string) (int, error) {
	n, err := s.store.PeakSeats(ctx, restaurantID, fromDate)
	return n, internaltypes.WrapStore("peak seats", err)
}

func (s *Service) ensureFits(ctx context.Context, tx Store, r Reservation) error {
	a, err := s.checker.Check(ctx, tx, Request{
		RestaurantID: r.RestaurantID,
		Date:         r.Date,
		Time:         r.Time,
		PartySize:    r.PartySize,
		ExcludeID:    r.ID,
	})
	if err != nil {
		return err
	}
	metrics.AvailabilityChecks.WithLabelValues(strconv.FormatBool(a.Available)).Inc()
	if !a.Available {
		return &internaltypes.SlotUnavailableError{Remaining: a.Remaining}
	}
	return nil
}

// atomically takes the app level locks for keys in order and runs fn in one
// store transaction. Record keys always precede slot keys.
func (s *Service) atomically(ctx context.Context, keys []string, fn func(Store) error) error {
	for _, k := range keys {
		unlock, err := s.locker.Lock(ctx, k)
		if err != nil {
			return err
		}
		defer unlock()
	}
	return s.store.Atomic(ctx, keys, fn)
}

func (s *Service) observe(ctx context.Context, op string, fields logrus.Fields, err error) {
	result := "ok"
	if err != nil {
		result = internaltypes.Kind(err)
	}
	metrics.ReservationOutcomes.WithLabelValues(op, result).Inc()

	log := logging.FromContext(ctx, s.log).WithFields(fields).WithField("operation", op)
	switch {
	case err == nil:
		log.Debug("reservation operation succeeded")
	case result == internaltypes.KindStoreFailure || result == internaltypes.KindUnexpected:
		log.WithError(err).WithField("error_kind", result).Error("reservation operation failed")
	default:
		log.WithError(err).WithField("error_kind", result).Info("reservation operation rejected")
	}
}

func transitionError(from, to Status) error {
	return internaltypes.Invalid("status", fmt.Sprintf("cannot change from %s to %s", from, to))
}

// IsUnavailable reports whether err is a capacity rejection and how many
// seats were left.
func IsUnavailable(err error) (int, bool) {
	var u *internaltypes.SlotUnavailableError
	if errors.As(err, &u) {
		return u.Remaining, true
	}
	return 0, false
}
