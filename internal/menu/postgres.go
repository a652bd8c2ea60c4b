package menu

import (
	"context"
	"strconv"
	"strings"

	"github.com/example/restaurant-ops/internal/db"
	"github.com/example/restaurant-ops/internal/internaltypes"
)

const itemCols = `id::text, restaurant_id::text, coalesce(category_id::text, ''), name, description,
	price_cents, dietary_tags, available, sort_order, created_at, updated_at`

type PGStore struct {
	q db.Querier
}

func NewPGStore(q db.Querier) *PGStore { return &PGStore{q: q} }

func scanItem(row db.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.RestaurantID, &it.CategoryID, &it.Name, &it.Description,
		&it.PriceCents, &it.DietaryTags, &it.Available, &it.SortOrder, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (s *PGStore) CreateCategory(ctx context.Context, c Category) (Category, error) {
	err := s.q.QueryRow(ctx, `
		INSERT INTO menu_categories (id, restaurant_id, name, sort_order, created_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		c.ID, c.RestaurantID, c.Name, c.SortOrder, c.CreatedAt,
	).Scan(&c.CreatedAt)
	return c, db.WrapNotFound(err)
}

func (s *PGStore) ListCategories(ctx context.Context, restaurantID string) ([]Category, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id::text, restaurant_id::text, name, sort_order, created_at
		FROM menu_categories WHERE restaurant_id=$1
		ORDER BY sort_order, name`, restaurantID)
	if err != nil {
		return nil, db.WrapNotFound(err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.SortOrder, &c.CreatedAt); err != nil {
			return nil, db.WrapNotFound(err)
		}
		out = append(out, c)
	}
	return out, db.WrapNotFound(rows.Err())
}

func (s *PGStore) checkCategory(ctx context.Context, it Item) error {
	if it.CategoryID == "" {
		return nil
	}
	var one int
	err := s.q.QueryRow(ctx, `SELECT 1 FROM menu_categories WHERE id=$1 AND restaurant_id=$2`,
		it.CategoryID, it.RestaurantID).Scan(&one)
	if db.IsNotFound(db.WrapNotFound(err)) {
		return internaltypes.Invalid("category_id", "unknown category")
	}
	return db.WrapNotFound(err)
}

func (s *PGStore) CreateItem(ctx context.Context, it Item) (Item, error) {
	if err := s.checkCategory(ctx, it); err != nil {
		return Item{}, err
	}
	out, err := scanItem(s.q.QueryRow(ctx, `
		INSERT INTO menu_items (id, restaurant_id, category_id, name, description, price_cents,
			dietary_tags, available, sort_order, created_at, updated_at)
		VALUES ($1,$2,NULLIF($3,'')::uuid,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING `+itemCols,
		it.ID, it.RestaurantID, it.CategoryID, it.Name, it.Description, it.PriceCents,
		it.DietaryTags, it.Available, it.SortOrder, it.CreatedAt, it.UpdatedAt,
	))
	return out, db.WrapNotFound(err)
}

func (s *PGStore) GetItem(ctx context.Context, id string) (Item, error) {
	it, err := scanItem(s.q.QueryRow(ctx, `SELECT `+itemCols+` FROM menu_items WHERE id=$1`, id))
	return it, db.WrapNotFound(err)
}

func (s *PGStore) UpdateItem(ctx context.Context, it Item) (Item, error) {
	if err := s.checkCategory(ctx, it); err != nil {
		return Item{}, err
	}
	out, err := scanItem(s.q.QueryRow(ctx, `
		UPDATE menu_items SET category_id=NULLIF($2,'')::uuid, name=$3, description=$4, price_cents=$5,
			dietary_tags=$6, available=$7, sort_order=$8, updated_at=$9
		WHERE id=$1
		RETURNING `+itemCols,
		it.ID, it.CategoryID, it.Name, it.Description, it.PriceCents,
		it.DietaryTags, it.Available, it.SortOrder, it.UpdatedAt,
	))
	return out, db.WrapNotFound(err)
}

func (s *PGStore) DeleteItem(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM menu_items WHERE id=$1`, id)
	if err != nil {
		return db.WrapNotFound(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (s *PGStore) ListItems(ctx context.Context, f Filter) ([]Item, error) {
	args := []any{f.RestaurantID}
	where := []string{"restaurant_id = $1"}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = "+arg(f.CategoryID))
	}
	if len(f.Tags) > 0 {
		where = append(where, "dietary_tags && "+arg(f.Tags)+"::text[]")
	}
	if f.AvailableOnly {
		where = append(where, "available")
	}
	if f.Search != "" {
		p := arg(f.Search)
		where = append(where, "(name ILIKE '%' || "+p+" || '%' OR description ILIKE '%' || "+p+" || '%')")
	}

	rows, err := s.q.Query(ctx, `SELECT `+itemCols+` FROM menu_items WHERE `+
		strings.Join(where, " AND ")+` ORDER BY sort_order, lower(name), id`, args...)
	if err != nil {
		return nil, db.WrapNotFound(err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, db.WrapNotFound(err)
		}
		out = append(out, it)
	}
	return out, db.WrapNotFound(rows.Err())
}

func (s *PGStore) SetSortOrder(ctx context.Context, restaurantID, id string, order int) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE menu_items SET sort_order=$3, updated_at=now()
		WHERE id=$1 AND restaurant_id=$2`, id, restaurantID, order)
	if err != nil {
		return db.WrapNotFound(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
