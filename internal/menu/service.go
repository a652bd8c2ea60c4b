package menu

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/example/restaurant-ops/internal/internaltypes"
	"github.com/example/restaurant-ops/internal/logging"
	"github.com/example/restaurant-ops/internal/metrics"
	"github.com/example/restaurant-ops/internal/restaurant"
	"github.com/example/restaurant-ops/internal/validate"
)

// RestaurantGetter confirms the owning restaurant exists.
type RestaurantGetter interface {
	Get(ctx context.Context, id string) (restaurant.Restaurant, error)
}

type Service struct {
	store       Store
	restaurants RestaurantGetter
	log         logrus.FieldLogger
	now         func() time.Time

	// reorderWorkers bounds concurrent sort order writes.
	reorderWorkers int
}

func NewService(store Store, restaurants RestaurantGetter, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{
		store:          store,
		restaurants:    restaurants,
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
		reorderWorkers: 8,
	}
}

func (s *Service) CreateCategory(ctx context.Context, restaurantID string, in CategoryInput) (Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return Category{}, err
	}
	if _, err := s.restaurants.Get(ctx, restaurantID); err != nil {
		return Category{}, internaltypes.WrapStore("get restaurant", err)
	}
	c, err := s.store.CreateCategory(ctx, Category{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		Name:         in.Name,
		SortOrder:    in.SortOrder,
		CreatedAt:    s.now(),
	})
	return c, internaltypes.WrapStore("create category", err)
}

func (s *Service) ListCategories(ctx context.Context, restaurantID string) ([]Category, error) {
	out, err := s.store.ListCategories(ctx, restaurantID)
	return out, internaltypes.WrapStore("list categories", err)
}

func (s *Service) CreateItem(ctx context.Context, restaurantID string, in ItemInput) (Item, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return Item{}, err
	}
	if _, err := s.restaurants.Get(ctx, restaurantID); err != nil {
		return Item{}, internaltypes.WrapStore("get restaurant", err)
	}
	available := true
	if in.Available != nil {
		available = *in.Available
	}
	now := s.now()
	it, err := s.store.CreateItem(ctx, Item{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		CategoryID:   in.CategoryID,
		Name:         in.Name,
		Description:  in.Description,
		PriceCents:   in.PriceCents,
		DietaryTags:  normalizeTags(in.DietaryTags),
		Available:    available,
		SortOrder:    in.SortOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return it, internaltypes.WrapStore("create menu item", err)
}

func (s *Service) GetItem(ctx context.Context, id string) (Item, error) {
	it, err := s.store.GetItem(ctx, id)
	return it, internaltypes.WrapStore("get menu item", err)
}

func (s *Service) UpdateItem(ctx context.Context, id string, p ItemPatch) (Item, error) {
	if err := validate.Struct(p); err != nil {
		return Item{}, err
	}
	cur, err := s.store.GetItem(ctx, id)
	if err != nil {
		return Item{}, internaltypes.WrapStore("get menu item", err)
	}
	next := p.apply(cur)
	next.UpdatedAt = s.now()
	out, err := s.store.UpdateItem(ctx, next)
	return out, internaltypes.WrapStore("update menu item", err)
}

func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return internaltypes.WrapStore("delete menu item", s.store.DeleteItem(ctx, id))
}

func (s *Service) ListItems(ctx context.Context, f Filter) ([]Item, error) {
	f.Tags = normalizeTags(f.Tags)
	out, err := s.store.ListItems(ctx, f)
	return out, internaltypes.WrapStore("list menu items", err)
}

// Reorder writes each position independently and concurrently. One failed
// write does not stop or undo the others.
func (s *Service) Reorder(ctx context.Context, restaurantID string, positions []Position) (ReorderResult, error) {
	verr := &internaltypes.ValidationError{}
	if len(positions) == 0 {
		verr.Add("items", "is required")
	}
	for i, p := range positions {
		if err := validate.Struct(p); err != nil {
			verr.Add("items["+strconv.Itoa(i)+"]", err.Error())
		}
	}
	if err := verr.OrNil(); err != nil {
		return ReorderResult{}, err
	}

	p := pool.NewWithResults[ItemResult]().WithMaxGoroutines(s.reorderWorkers)
	for _, pos := range positions {
		pos := pos
		p.Go(func() ItemResult {
			err := s.store.SetSortOrder(ctx, restaurantID, pos.ID, pos.SortOrder)
			if err != nil {
				metrics.ReorderItems.WithLabelValues(internaltypes.Kind(internaltypes.WrapStore("reorder", err))).Inc()
				return ItemResult{ID: pos.ID, Error: err.Error()}
			}
			metrics.ReorderItems.WithLabelValues("ok").Inc()
			return ItemResult{ID: pos.ID, OK: true}
		})
	}

	res := ReorderResult{Items: p.Wait()}
	for _, r := range res.Items {
		if r.OK {
			res.Updated++
		} else {
			res.Failed++
		}
	}
	log := logging.FromContext(ctx, s.log).WithFields(logrus.Fields{
		"restaurant_id": restaurantID,
		"updated":       res.Updated,
		"failed":        res.Failed,
	})
	if res.Failed > 0 {
		log.Warn("menu reorder partially failed")
	} else {
		log.Info("menu reordered")
	}
	return res, nil
}
