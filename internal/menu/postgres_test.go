package menu

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/restaurant-ops/internal/db/dbtest"
	"github.com/example/restaurant-ops/internal/internaltypes"
	"github.com/example/restaurant-ops/internal/restaurant"
)

func TestPGStore_ItemsAndReorder(t *testing.T) {
	d := dbtest.Open(t)
	ctx := context.Background()
	rid := dbtest.Restaurant(t, d, nil)
	s := NewService(NewPGStore(d.Q()), restaurant.NewService(restaurant.NewPGStore(d.Q()), nil), nil)

	cat, err := s.CreateCategory(ctx, rid, CategoryInput{Name: "Mains"})
	require.NoError(t, err)
	cats, err := s.ListCategories(ctx, rid)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	ramen, err := s.CreateItem(ctx, rid, ItemInput{
		CategoryID: cat.ID, Name: "Shoyu Ramen", PriceCents: 1450,
		DietaryTags: []string{"dairy-free", "spicy"}, SortOrder: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, cat.ID, ramen.CategoryID)

	off := false
	tofu, err := s.CreateItem(ctx, rid, ItemInput{Name: "Tofu Bowl", PriceCents: 1200, DietaryTags: []string{"vegan"}, SortOrder: 1, Available: &off})
	require.NoError(t, err)
	assert.Empty(t, tofu.CategoryID)

	all, err := s.ListItems(ctx, Filter{RestaurantID: rid})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, tofu.ID, all[0].ID)

	tagged, err := s.ListItems(ctx, Filter{RestaurantID: rid, Tags: []string{"vegan", "gluten-free"}})
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, tofu.ID, tagged[0].ID)

	available, err := s.ListItems(ctx, Filter{RestaurantID: rid, AvailableOnly: true, Search: "RAMEN"})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, ramen.ID, available[0].ID)

	res, err := s.Reorder(ctx, rid, []Position{
		{ID: ramen.ID, SortOrder: 0},
		{ID: tofu.ID, SortOrder: 5},
		{ID: uuid.NewString(), SortOrder: 1},
		{ID: "not-a-uuid", SortOrder: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, 2, res.Failed)

	all, err = s.ListItems(ctx, Filter{RestaurantID: rid})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ramen.ID, all[0].ID)
	assert.Equal(t, 5, all[1].SortOrder)

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
