package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/example/restaurant-ops/internal/menu"
	"github.com/example/restaurant-ops/internal/metrics"
	"github.com/example/restaurant-ops/internal/reservation"
	"github.com/example/restaurant-ops/internal/restaurant"
)

type Server struct {
	Restaurants  *restaurant.Service
	Reservations *reservation.Service
	Menu         *menu.Service
	Cursors      *CursorCodec
	Log          logrus.FieldLogger

	// Ping backs /healthz; nil means always healthy.
	Ping func(ctx context.Context) error
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/restaurants", func(r chi.Router) {
			r.Post("/", s.handleCreateRestaurant)
			r.Get("/", s.handleListRestaurants)
			r.Route("/{restaurantID}", func(r chi.Router) {
				r.Get("/", s.handleGetRestaurant)
				r.Patch("/", s.handleUpdateRestaurant)
				r.Get("/settings", s.handleGetSettings)
				r.Put("/settings", s.handlePutSettings)
				r.Get("/availability", s.handleAvailability)
				r.Get("/reservations/summary", s.handleSummary)
				r.Get("/menu", s.handleListMenu)
				r.Post("/menu", s.handleCreateMenuItem)
				r.Post("/menu/reorder", s.handleReorderMenu)
				r.Get("/menu/categories", s.handleListCategories)
				r.Post("/menu/categories", s.handleCreateCategory)
			})
		})
		r.Route("/menu/{itemID}", func(r chi.Router) {
			r.Get("/", s.handleGetMenuItem)
			r.Patch("/", s.handleUpdateMenuItem)
			r.Delete("/", s.handleDeleteMenuItem)
		})
		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", s.handleCreateReservation)
			r.Get("/", s.handleListReservations)
			r.Route("/{reservationID}", func(r chi.Router) {
				r.Get("/", s.handleGetReservation)
				r.Patch("/", s.handleUpdateReservation)
				r.Post("/cancel", s.handleCancelReservation)
				r.Post("/complete", s.handleCompleteReservation)
				r.Post("/no-show", s.handleNoShowReservation)
			})
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Ping != nil {
		if err := s.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start serves h on addr until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, addr string, h http.Handler, log logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
