package menu

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/example/restaurant-ops/internal/internaltypes"
)

type MemStore struct {
	mu         sync.RWMutex
	categories map[string]Category
	items      map[string]Item
}

func NewMemStore() *MemStore {
	return &MemStore{categories: make(map[string]Category), items: make(map[string]Item)}
}

func (m *MemStore) CreateCategory(_ context.Context, c Category) (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
	return c, nil
}

func (m *MemStore) ListCategories(_ context.Context, restaurantID string) ([]Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Category
	for _, c := range m.categories {
		if c.RestaurantID == restaurantID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MemStore) CreateItem(_ context.Context, it Item) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkCategory(it); err != nil {
		return Item{}, err
	}
	m.items[it.ID] = cloneItem(it)
	return cloneItem(it), nil
}

func (m *MemStore) GetItem(_ context.Context, id string) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[id]
	if !ok {
		return Item{}, internaltypes.ErrNotFound
	}
	return cloneItem(it), nil
}

func (m *MemStore) UpdateItem(_ context.Context, it Item) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[it.ID]; !ok {
		return Item{}, internaltypes.ErrNotFound
	}
	if err := m.checkCategory(it); err != nil {
		return Item{}, err
	}
	m.items[it.ID] = cloneItem(it)
	return cloneItem(it), nil
}

func (m *MemStore) DeleteItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return internaltypes.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *MemStore) ListItems(_ context.Context, f Filter) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Item
	for _, it := range m.items {
		if f.match(it) {
			out = append(out, cloneItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		if a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name); a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemStore) SetSortOrder(_ context.Context, restaurantID, id string, order int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok || it.RestaurantID != restaurantID {
		return internaltypes.ErrNotFound
	}
	it.SortOrder = order
	m.items[id] = it
	return nil
}

func (m *MemStore) checkCategory(it Item) error {
	if it.CategoryID == "" {
		return nil
	}
	c, ok := m.categories[it.CategoryID]
	if !ok || c.RestaurantID != it.RestaurantID {
		return internaltypes.Invalid("category_id", "unknown category")
	}
	return nil
}

func cloneItem(it Item) Item {
	it.DietaryTags = append(make([]string, 0, len(it.DietaryTags)), it.DietaryTags...)
	return it
}
