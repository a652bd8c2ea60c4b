// Package menu manages menu categories and items.
package menu

import (
	"context"
	"strings"
	"time"
)

type Category struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Name         string    `json:"name"`
	SortOrder    int       `json:"sort_order"`
	CreatedAt    time.Time `json:"created_at"`
}

type CategoryInput struct {
	Name      string `json:"name" validate:"required,max=200"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

type Item struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	CategoryID   string    `json:"category_id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	PriceCents   int       `json:"price_cents"`
	DietaryTags  []string  `json:"dietary_tags"`
	Available    bool      `json:"available"`
	SortOrder    int       `json:"sort_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ItemInput struct {
	CategoryID  string   `json:"category_id"`
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	PriceCents  int      `json:"price_cents" validate:"gte=0"`
	DietaryTags []string `json:"dietary_tags" validate:"omitempty,dive,required,max=50"`
	Available   *bool    `json:"available"`
	SortOrder   int      `json:"sort_order" validate:"gte=0"`
}

type ItemPatch struct {
	CategoryID  *string  `json:"category_id"`
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	PriceCents  *int     `json:"price_cents" validate:"omitempty,gte=0"`
	DietaryTags []string `json:"dietary_tags" validate:"omitempty,dive,required,max=50"`
	Available   *bool    `json:"available"`
	SortOrder   *int     `json:"sort_order" validate:"omitempty,gte=0"`
}

func (p ItemPatch) apply(it Item) Item {
	if p.CategoryID != nil {
		it.CategoryID = *p.CategoryID
	}
	if p.Name != nil {
		it.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.PriceCents != nil {
		it.PriceCents = *p.PriceCents
	}
	if p.DietaryTags != nil {
		it.DietaryTags = normalizeTags(p.DietaryTags)
	}
	if p.Available != nil {
		it.Available = *p.Available
	}
	if p.SortOrder != nil {
		it.SortOrder = *p.SortOrder
	}
	return it
}

// normalizeTags lower cases and de-duplicates tags, keeping first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Filter selects a restaurant's items, ordered by sort order then name.
type Filter struct {
	RestaurantID string
	CategoryID   string
	// Tags matches items carrying any of the tags.
	Tags          []string
	AvailableOnly bool
	Search        string
}

func (f Filter) match(it Item) bool {
	if it.RestaurantID != f.RestaurantID {
		return false
	}
	if f.CategoryID != "" && it.CategoryID != f.CategoryID {
		return false
	}
	if f.AvailableOnly && !it.Available {
		return false
	}
	if q := strings.ToLower(f.Search); q != "" &&
		!strings.Contains(strings.ToLower(it.Name), q) &&
		!strings.Contains(strings.ToLower(it.Description), q) {
		return false
	}
	if len(f.Tags) == 0 {
		return true
	}
	for _, want := range f.Tags {
		for _, have := range it.DietaryTags {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Position is one entry of a reorder request.
type Position struct {
	ID        string `json:"id" validate:"required"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

type ItemResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ReorderResult reports each write independently; failed writes are not
// rolled back.
type ReorderResult struct {
	Updated int          `json:"updated"`
	Failed  int          `json:"failed"`
	Items   []ItemResult `json:"items"`
}

type Store interface {
	CreateCategory(ctx context.Context, c Category) (Category, error)
	ListCategories(ctx context.Context, restaurantID string) ([]Category, error)
	CreateItem(ctx context.Context, it Item) (Item, error)
	GetItem(ctx context.Context, id string) (Item, error)
	UpdateItem(ctx context.Context, it Item) (Item, error)
	DeleteItem(ctx context.Context, id string) error
	ListItems(ctx context.Context, f Filter) ([]Item, error)
	// SetSortOrder fails with internaltypes.ErrNotFound when id is not an
	// item of restaurantID.
	SetSortOrder(ctx context.Context, restaurantID, id string, order int) error
}
