package menu

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/restaurant-ops/internal/internaltypes"
	"github.com/example/restaurant-ops/internal/restaurant"
)

func setup(t *testing.T) (*Service, *MemStore, string) {
	t.Helper()
	rs := restaurant.NewService(restaurant.NewMemStore(), nil)
	r, err := rs.Create(context.Background(), restaurant.Input{Name: "Noodle Bar"})
	require.NoError(t, err)
	store := NewMemStore()
	return NewService(store, rs, nil), store, r.ID
}

func TestService_Items(t *testing.T) {
	ctx := context.Background()
	s, _, rid := setup(t)

	cat, err := s.CreateCategory(ctx, rid, CategoryInput{Name: "Mains"})
	require.NoError(t, err)

	ramen, err := s.CreateItem(ctx, rid, ItemInput{
		CategoryID: cat.ID, Name: "Shoyu Ramen", PriceCents: 1450,
		DietaryTags: []string{" Dairy-Free", "dairy-free", "spicy"}, SortOrder: 2,
	})
	require.NoError(t, err)
	assert.True(t, ramen.Available)
	assert.Equal(t, []string{"dairy-free", "spicy"}, ramen.DietaryTags)

	off := false
	_, err = s.CreateItem(ctx, rid, ItemInput{Name: "Tofu Bowl", PriceCents: 1200, DietaryTags: []string{"vegan"}, SortOrder: 1, Available: &off})
	require.NoError(t, err)

	all, err := s.ListItems(ctx, Filter{RestaurantID: rid})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Tofu Bowl", all[0].Name)

	vegan, err := s.ListItems(ctx, Filter{RestaurantID: rid, Tags: []string{"VEGAN", "gluten-free"}})
	require.NoError(t, err)
	require.Len(t, vegan, 1)
	assert.Equal(t, "Tofu Bowl", vegan[0].Name)

	available, err := s.ListItems(ctx, Filter{RestaurantID: rid, AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, ramen.ID, available[0].ID)

	price := 1500
	up, err := s.UpdateItem(ctx, ramen.ID, ItemPatch{PriceCents: &price, DietaryTags: []string{}})
	require.NoError(t, err)
	assert.Equal(t, 1500, up.PriceCents)
	assert.Empty(t, up.DietaryTags)

	require.NoError(t, s.DeleteItem(ctx, ramen.ID))
	require.ErrorIs(t, s.DeleteItem(ctx, ramen.ID), internaltypes.ErrNotFound)
	_, err = s.GetItem(ctx, ramen.ID)
	require.ErrorIs(t, err, internaltypes.ErrNotFound)
}

func TestService_ItemValidation(t *testing.T) {
	ctx := context.Background()
	s, _, rid := setup(t)

	_, err := s.CreateItem(ctx, rid, ItemInput{PriceCents: -1})
	var v *internaltypes.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "name")
	assert.Contains(t, v.Fields, "price_cents")

	_, err = s.CreateItem(ctx, rid, ItemInput{Name: "Gyoza", CategoryID: "nope"})
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "unknown category", v.Fields["category_id"])

	_, err = s.CreateItem(ctx, "missing", ItemInput{Name: "Gyoza"})
	require.ErrorIs(t, err, internaltypes.ErrNotFound)
}

// flakyStore fails sort order writes for chosen ids.
type flakyStore struct {
	*MemStore
	fail map[string]bool
}

func (f flakyStore) SetSortOrder(ctx context.Context, restaurantID, id string, order int) error {
	if f.fail[id] {
		return errors.New("write timeout")
	}
	return f.MemStore.SetSortOrder(ctx, restaurantID, id, order)
}

func TestService_ReorderPartialFailure(t *testing.T) {
	ctx := context.Background()
	s, store, rid := setup(t)

	var ids []string
	for _, name := range []string{"a", "b", "c", "d"} {
		it, err := s.CreateItem(ctx, rid, ItemInput{Name: name})
		require.NoError(t, err)
		ids = append(ids, it.ID)
	}
	s.store = flakyStore{MemStore: store, fail: map[string]bool{ids[1]: true}}

	res, err := s.Reorder(ctx, rid, []Position{
		{ID: ids[0], SortOrder: 3},
		{ID: ids[1], SortOrder: 2},
		{ID: ids[2], SortOrder: 1},
		{ID: "unknown", SortOrder: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, 2, res.Failed)

	byID := map[string]ItemResult{}
	for _, r := range res.Items {
		byID[r.ID] = r
	}
	assert.True(t, byID[ids[0]].OK)
	assert.Equal(t, "write timeout", byID[ids[1]].Error)
	assert.Equal(t, "not found", byID["unknown"].Error)

	// successful writes stay applied
	got, err := store.GetItem(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 3, got.SortOrder)
	got, err = store.GetItem(ctx, ids[1])
	require.NoError(t, err)
	assert.Zero(t, got.SortOrder)
}

func TestService_ReorderValidation(t *testing.T) {
	s, _, rid := setup(t)
	_, err := s.Reorder(context.Background(), rid, nil)
	assert.Equal(t, internaltypes.KindInvalidInput, internaltypes.Kind(err))

	_, err = s.Reorder(context.Background(), rid, []Position{{ID: "", SortOrder: -1}})
	var v *internaltypes.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "items[0]")
}

func TestService_Categories(t *testing.T) {
	ctx := context.Background()
	s, _, rid := setup(t)
	_, err := s.CreateCategory(ctx, rid, CategoryInput{Name: "Drinks", SortOrder: 2})
	require.NoError(t, err)
	_, err = s.CreateCategory(ctx, rid, CategoryInput{Name: "Starters", SortOrder: 1})
	require.NoError(t, err)

	cats, err := s.ListCategories(ctx, rid)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Starters", cats[0].Name)

	_, err = s.CreateCategory(ctx, rid, CategoryInput{Name: " "})
	assert.Equal(t, internaltypes.KindInvalidInput, internaltypes.Kind(err))
}
