// Package scheduler runs the outcome sweeper: confirmed reservations whose
// slot has ended are marked completed.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/restaurant-ops/internal/logging"
	"github.com/example/restaurant-ops/internal/metrics"
	"github.com/example/restaurant-ops/internal/reservation"
	"github.com/example/restaurant-ops/internal/restaurant"
)

type Reservations interface {
	List(ctx context.Context, f reservation.Filter) ([]reservation.Reservation, error)
	Complete(ctx context.Context, id string) (reservation.Reservation, error)
}

type SettingsSource interface {
	Settings(ctx context.Context, restaurantID string) (restaurant.Settings, error)
}

type Scheduler struct {
	Reservations Reservations
	Settings     SettingsSource
	Interval     time.Duration
	// Grace is how long after a slot ends before it is completed.
	Grace time.Duration
	// Location interprets reservation dates and times; nil means UTC.
	Location *time.Location
	Log      logrus.FieldLogger
	Now      func() time.Time

	wg sync.WaitGroup
}

func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		s.log().WithError(err).Error("sweeper: listing confirmed reservations failed")
		return
	}
	if n > 0 {
		s.log().WithField("completed", n).Info("sweeper: reservations completed")
	}
}

// Sweep completes every due reservation and returns how many it completed.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	cutoff := now.Add(-s.Grace)
	durations := map[string]time.Duration{}

	var done atomic.Int32
	f := reservation.Filter{
		Statuses: []reservation.Status{reservation.StatusConfirmed},
		To:       now.In(loc).Format(reservation.DateLayout),
		Limit:    reservation.MaxLimit,
	}
	for {
		page, err := s.Reservations.List(ctx, f)
		if err != nil {
			s.wg.Wait()
			return int(done.Load()), err
		}
		for _, r := range page {
			if !s.due(ctx, r, loc, cutoff, durations) {
				continue
			}
			r := r
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if _, err := s.Reservations.Complete(ctx, r.ID); err != nil {
					s.log().WithError(err).WithField("reservation_id", r.ID).Warn("sweeper: complete failed")
					return
				}
				metrics.SweptReservations.Inc()
				done.Add(1)
			}()
		}
		if len(page) < f.Limit {
			break
		}
		c := page[len(page)-1].Cursor()
		f.After = &c
	}
	s.wg.Wait()
	return int(done.Load()), nil
}

func (s *Scheduler) due(ctx context.Context, r reservation.Reservation, loc *time.Location, cutoff time.Time, durations map[string]time.Duration) bool {
	d, ok := durations[r.RestaurantID]
	if !ok {
		d = restaurant.DefaultSettings(r.RestaurantID).SlotDuration()
		if st, err := s.Settings.Settings(ctx, r.RestaurantID); err == nil {
			d = st.SlotDuration()
		}
		durations[r.RestaurantID] = d
	}
	start, err := r.Start(loc)
	if err != nil {
		return false
	}
	return start.Add(d).Before(cutoff)
}

func (s *Scheduler) log() logrus.FieldLogger {
	if s.Log == nil {
		return logging.Discard()
	}
	return s.Log
}
