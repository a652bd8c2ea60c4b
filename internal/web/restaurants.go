package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/example/restaurant-ops/internal/restaurant"
)

func (s *Server) handleCreateRestaurant(w http.ResponseWriter, r *http.Request) {
	var in restaurant.Input
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.Restaurants.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListRestaurants(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := s.Restaurants.List(r.Context(), restaurant.Filter{Query: r.URL.Query().Get("q"), Limit: limit})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if out == nil {
		out = []restaurant.Restaurant{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"restaurants": out})
}

func (s *Server) handleGetRestaurant(w http.ResponseWriter, r *http.Request) {
	out, err := s.Restaurants.Get(r.Context(), chi.URLParam(r, "restaurantID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	var p restaurant.Patch
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.Restaurants.Update(r.Context(), chi.URLParam(r, "restaurantID"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	out, err := s.Restaurants.Settings(r.Context(), chi.URLParam(r, "restaurantID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "restaurantID")
	// absent fields keep their defaults
	in := restaurant.DefaultSettings(id)
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.Restaurants.PutSettings(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
