package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/restaurant-ops/internal/internaltypes"
	"github.com/example/restaurant-ops/internal/reservation"
)

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	party, err := strconv.Atoi(q.Get("party_size"))
	if err != nil {
		s.writeError(w, r, internaltypes.Invalid("party_size", "must be an integer"))
		return
	}
	out, err := s.Reservations.CheckAvailability(r.Context(), reservation.Request{
		RestaurantID: chi.URLParam(r, "restaurantID"),
		Date:         q.Get("date"),
		Time:         q.Get("time"),
		PartySize:    party,
		ExcludeID:    q.Get("exclude"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := s.Reservations.Summarize(r.Context(), chi.URLParam(r, "restaurantID"), q.Get("from"), q.Get("to"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var in reservation.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.Reservations.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// ReservationPage is one page of a reservation listing. NextCursor is empty
// on the last page.
type ReservationPage struct {
	Reservations []reservation.Reservation `json:"reservations"`
	NextCursor   string                    `json:"next_cursor,omitempty"`
}

func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := reservation.Filter{
		RestaurantID: q.Get("restaurant_id"),
		From:         q.Get("from"),
		To:           q.Get("to"),
		Time:         q.Get("time"),
		Search:       q.Get("q"),
	}
	for _, st := range q["status"] {
		for _, v := range strings.Split(st, ",") {
			if v = strings.TrimSpace(v); v != "" {
				f.Statuses = append(f.Statuses, reservation.Status(v))
			}
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, internaltypes.Invalid("limit", "must be an integer"))
			return
		}
		f.Limit = n
	}
	if c := q.Get("cursor"); c != "" {
		cur, err := s.Cursors.Decode(c)
		if err != nil {
			s.writeError(w, r, internaltypes.Invalid("cursor", "is invalid or expired"))
			return
		}
		f.After = cur
	}

	list, err := s.Reservations.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page := ReservationPage{Reservations: list}
	if page.Reservations == nil {
		page.Reservations = []reservation.Reservation{}
	}
	limit := f.Limit
	if limit <= 0 {
		limit = reservation.DefaultLimit
	}
	if len(list) > 0 && len(list) >= min(limit, reservation.MaxLimit) {
		next, err := s.Cursors.Encode(list[len(list)-1].Cursor())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		page.NextCursor = next
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	out, err := s.Reservations.Get(r.Context(), chi.URLParam(r, "reservationID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateReservation(w http.ResponseWriter, r *http.Request) {
	var p reservation.Patch
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.Reservations.Update(r.Context(), chi.URLParam(r, "reservationID"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.Reservations.Cancel)
}

func (s *Server) handleCompleteReservation(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.Reservations.Complete)
}

func (s *Server) handleNoShowReservation(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.Reservations.MarkNoShow)
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) (reservation.Reservation, error)) {
	out, err := fn(r.Context(), chi.URLParam(r, "reservationID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
