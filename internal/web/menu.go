package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/restaurant-ops/internal/internaltypes"
	"github.com/example/restaurant-ops/internal/menu"
)

func (s *Server) handleListMenu(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := menu.Filter{
		RestaurantID: chi.URLParam(r, "restaurantID"),
		CategoryID:   q.Get("category"),
		Search:       q.Get("q"),
	}
	if v := q.Get("tags"); v != "" {
		f.Tags = strings.Split(v, ",")
	}
	if v := q.Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, internaltypes.Invalid("available", "must be true or false"))
			return
		}
		f.AvailableOnly = b
	}
	items, err := s.Menu.ListItems(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []menu.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleCreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var in menu.ItemInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.Menu.CreateItem(r.Context(), chi.URLParam(r, "restaurantID"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

type reorderRequest struct {
	Items []menu.Position `json:"items"`
}

func (s *Server) handleReorderMenu(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.Menu.Reorder(r.Context(), chi.URLParam(r, "restaurantID"), req.Items)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if out.Failed > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, out)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	out, err := s.Menu.ListCategories(r.Context(), chi.URLParam(r, "restaurantID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if out == nil {
		out = []menu.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in menu.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.Menu.CreateCategory(r.Context(), chi.URLParam(r, "restaurantID"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleGetMenuItem(w http.ResponseWriter, r *http.Request) {
	out, err := s.Menu.GetItem(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	var p menu.ItemPatch
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.Menu.UpdateItem(r.Context(), chi.URLParam(r, "itemID"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := s.Menu.DeleteItem(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
