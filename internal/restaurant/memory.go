package restaurant

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/example/restaurant-ops/internal/internaltypes"
)

// MemStore keeps restaurants in process memory. It backs STORE=memory and
// the tests of packages that need a capacity oracle.
type MemStore struct {
	mu       sync.RWMutex
	rows     map[string]Restaurant
	settings map[string]Settings
}

func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[string]Restaurant), settings: make(map[string]Settings)}
}

func (m *MemStore) Create(_ context.Context, r Restaurant) (Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	m.rows[r.ID] = clone(r)
	return clone(r), nil
}

func (m *MemStore) Get(_ context.Context, id string) (Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rows[id]
	if !ok {
		return Restaurant{}, internaltypes.ErrNotFound
	}
	return clone(r), nil
}

func (m *MemStore) Update(_ context.Context, r Restaurant) (Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.rows[r.ID]
	if !ok {
		return Restaurant{}, internaltypes.ErrNotFound
	}
	r.CreatedAt = old.CreatedAt
	m.rows[r.ID] = clone(r)
	return clone(r), nil
}

func (m *MemStore) List(_ context.Context, f Filter) ([]Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(f.Query)
	var out []Restaurant
	for _, r := range m.rows {
		if q != "" && !strings.Contains(strings.ToLower(r.Name), q) {
			continue
		}
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	if n := limit(f.Limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *MemStore) Capacity(ctx context.Context, id string) (int, error) {
	r, err := m.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return r.Capacity(), nil
}

func (m *MemStore) Settings(_ context.Context, id string) (Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.rows[id]; !ok {
		return Settings{}, internaltypes.ErrNotFound
	}
	if st, ok := m.settings[id]; ok {
		return st, nil
	}
	return DefaultSettings(id), nil
}

func (m *MemStore) PutSettings(_ context.Context, st Settings) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[st.RestaurantID]; !ok {
		return Settings{}, internaltypes.ErrNotFound
	}
	m.settings[st.RestaurantID] = st
	return st, nil
}

func clone(r Restaurant) Restaurant {
	if r.TotalSeats != nil {
		n := *r.TotalSeats
		r.TotalSeats = &n
	}
	if r.Hours != nil {
		h := make(Hours, len(r.Hours))
		for k, v := range r.Hours {
			h[k] = v
		}
		r.Hours = h
	}
	return r
}
