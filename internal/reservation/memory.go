package reservation

import (
	"context"
	"sort"
	"sync"

	"github.com/example/restaurant-ops/internal/internaltypes"
)

// MemStore keeps reservations in process memory. Atomic does not isolate
// anything itself; the Service's slot locks serialize writers.
type MemStore struct {
	mu   sync.RWMutex
	rows map[string]Reservation
}

func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[string]Reservation)}
}

func (m *MemStore) Get(_ context.Context, id string) (Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rows[id]
	if !ok {
		return Reservation{}, internaltypes.ErrNotFound
	}
	return r, nil
}

func (m *MemStore) List(_ context.Context, f Filter) ([]Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Reservation
	for _, r := range m.rows {
		if f.match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Cursor().after(out[j])
	})
	if n := f.limit(); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *MemStore) BookedSeats(_ context.Context, slot Slot, excludeID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.rows {
		if r.Slot() == slot && r.Status.Active() && (excludeID == "" || r.ID != excludeID) {
			n += r.PartySize
		}
	}
	return n, nil
}

func (m *MemStore) Insert(_ context.Context, r Reservation) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.ID] = r
	return r, nil
}

func (m *MemStore) Update(_ context.Context, r Reservation) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.rows[r.ID]
	if !ok {
		return Reservation{}, internaltypes.ErrNotFound
	}
	r.CreatedAt = old.CreatedAt
	m.rows[r.ID] = r
	return r, nil
}

func (m *MemStore) Tally(_ context.Context, restaurantID, from, to string) (map[Status]Tally, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f := Filter{RestaurantID: restaurantID, From: from, To: to}
	out := make(map[Status]Tally)
	for _, r := range m.rows {
		if !f.match(r) {
			continue
		}
		t := out[r.Status]
		t.Count++
		t.Guests += r.PartySize
		out[r.Status] = t
	}
	return out, nil
}

func (m *MemStore) PeakSeats(_ context.Context, restaurantID, fromDate string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seats := make(map[Slot]int)
	peak := 0
	for _, r := range m.rows {
		if r.RestaurantID != restaurantID || r.Date < fromDate || !r.Status.Active() {
			continue
		}
		seats[r.Slot()] += r.PartySize
		if n := seats[r.Slot()]; n > peak {
			peak = n
		}
	}
	return peak, nil
}

func (m *MemStore) Atomic(_ context.Context, _ []string, fn func(Store) error) error {
	return fn(m)
}
