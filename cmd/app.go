package cmd

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/example/restaurant-ops/internal/config"
	"github.com/example/restaurant-ops/internal/db"
	"github.com/example/restaurant-ops/internal/menu"
	"github.com/example/restaurant-ops/internal/migrate"
	"github.com/example/restaurant-ops/internal/reservation"
	"github.com/example/restaurant-ops/internal/restaurant"
	"github.com/example/restaurant-ops/internal/slotlock"
)

// app holds the services one server process shares.
type app struct {
	log *logrus.Logger
	db  *db.DB

	restaurants  *restaurant.Service
	reservations *reservation.Service
	menu         *menu.Service

	closers []func()
}

func newApp(ctx context.Context, cfg config.Config, log *logrus.Logger, migrateUp bool) (*app, error) {
	a := &app{log: log}

	var (
		restaurantStore  restaurant.Store
		reservationStore reservation.Store
		menuStore        menu.Store
	)
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using in-memory store; data is lost on exit")
		restaurantStore = restaurant.NewMemStore()
		reservationStore = reservation.NewMemStore()
		menuStore = menu.NewMemStore()
	default:
		d, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.SetLockTimeout(cfg.LockTimeout)
		a.db = d
		a.closers = append(a.closers, d.Close)
		if err := d.Ping(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		if migrateUp {
			if err := migrate.Up(ctx, d); err != nil {
				a.Close()
				return nil, err
			}
		}
		restaurantStore = restaurant.NewPGStore(d.Q())
		reservationStore = reservation.NewPGStore(d)
		menuStore = menu.NewPGStore(d.Q())
	}

	var locker slotlock.Locker = slotlock.NewLocal(cfg.LockTimeout)
	if cfg.LockBackend == config.LockRedis {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, func() { _ = rc.Close() })
		if err := rc.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		locker = slotlock.NewRedis(rc, cfg.LockTimeout)
	}

	a.restaurants = restaurant.NewService(restaurantStore, log)
	a.reservations = reservation.NewService(reservationStore, a.restaurants, locker, log)
	a.restaurants.UseSeatLoad(a.reservations)
	a.menu = menu.NewService(menuStore, a.restaurants, log)
	return a, nil
}

// ping reports database health; the memory store is always healthy.
func (a *app) ping(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.Ping(ctx)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
