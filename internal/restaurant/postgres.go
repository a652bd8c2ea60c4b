package restaurant

import (
	"context"
	"time"

	"github.com/example/restaurant-ops/internal/db"
)

const restaurantCols = `id::text, name, business_type, total_seats, phone, email, address, description, operating_hours, created_at, updated_at`

type PGStore struct {
	q db.Querier
}

func NewPGStore(q db.Querier) *PGStore { return &PGStore{q: q} }

func scanRestaurant(row db.Row) (Restaurant, error) {
	var r Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.BusinessType, &r.TotalSeats, &r.Phone, &r.Email,
		&r.Address, &r.Description, &r.Hours, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *PGStore) Create(ctx context.Context, r Restaurant) (Restaurant, error) {
	if r.Hours == nil {
		r.Hours = Hours{}
	}
	row := s.q.QueryRow(ctx, `
		INSERT INTO restaurants (id, name, business_type, total_seats, phone, email, address, description, operating_hours, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
		RETURNING `+restaurantCols,
		r.ID, r.Name, r.BusinessType, r.TotalSeats, r.Phone, r.Email, r.Address, r.Description, r.Hours, r.CreatedAt,
	)
	out, err := scanRestaurant(row)
	return out, db.WrapNotFound(err)
}

func (s *PGStore) Get(ctx context.Context, id string) (Restaurant, error) {
	row := s.q.QueryRow(ctx, `SELECT `+restaurantCols+` FROM restaurants WHERE id=$1`, id)
	r, err := scanRestaurant(row)
	return r, db.WrapNotFound(err)
}

func (s *PGStore) Update(ctx context.Context, r Restaurant) (Restaurant, error) {
	if r.Hours == nil {
		r.Hours = Hours{}
	}
	row := s.q.QueryRow(ctx, `
		UPDATE restaurants SET name=$2, business_type=$3, total_seats=$4, phone=$5, email=$6,
			address=$7, description=$8, operating_hours=$9, updated_at=$10
		WHERE id=$1
		RETURNING `+restaurantCols,
		r.ID, r.Name, r.BusinessType, r.TotalSeats, r.Phone, r.Email, r.Address, r.Description, r.Hours, r.UpdatedAt,
	)
	out, err := scanRestaurant(row)
	return out, db.WrapNotFound(err)
}

func (s *PGStore) List(ctx context.Context, f Filter) ([]Restaurant, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+restaurantCols+` FROM restaurants
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY lower(name), id
		LIMIT $2`, f.Query, limit(f.Limit))
	if err != nil {
		return nil, db.WrapNotFound(err)
	}
	defer rows.Close()

	var out []Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, db.WrapNotFound(err)
		}
		out = append(out, r)
	}
	return out, db.WrapNotFound(rows.Err())
}

func (s *PGStore) Capacity(ctx context.Context, id string) (int, error) {
	var seats *int
	err := s.q.QueryRow(ctx, `SELECT total_seats FROM restaurants WHERE id=$1`, id).Scan(&seats)
	if err != nil {
		return 0, db.WrapNotFound(err)
	}
	if seats == nil || *seats < 0 {
		return 0, nil
	}
	return *seats, nil
}

const settingsCols = `advance_booking_days, min_party_size, max_party_size, slot_duration_minutes, booking_interval_minutes,
	sms_notifications, email_notifications, cancellation_policy, confirmation_template, reminder_template, updated_at`

func scanSettings(row db.Row, st *Settings) error {
	return row.Scan(&st.AdvanceBookingDays, &st.MinPartySize, &st.MaxPartySize, &st.SlotDurationMinutes,
		&st.BookingIntervalMinutes, &st.SMSNotifications, &st.EmailNotifications, &st.CancellationPolicy,
		&st.ConfirmationTemplate, &st.ReminderTemplate, &st.UpdatedAt)
}

func (s *PGStore) Settings(ctx context.Context, id string) (Settings, error) {
	if _, err := s.Capacity(ctx, id); err != nil {
		return Settings{}, err
	}
	st := DefaultSettings(id)
	err := scanSettings(s.q.QueryRow(ctx, `SELECT `+settingsCols+` FROM restaurant_settings WHERE restaurant_id=$1`, id), &st)
	if db.IsNotFound(err) {
		return DefaultSettings(id), nil
	}
	return st, db.WrapNotFound(err)
}

func (s *PGStore) PutSettings(ctx context.Context, st Settings) (Settings, error) {
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}
	out := Settings{RestaurantID: st.RestaurantID}
	err := scanSettings(s.q.QueryRow(ctx, `
		INSERT INTO restaurant_settings (restaurant_id, advance_booking_days, min_party_size, max_party_size,
			slot_duration_minutes, booking_interval_minutes, sms_notifications, email_notifications,
			cancellation_policy, confirmation_template, reminder_template, updated_at)
		SELECT id, $2::int, $3::int, $4::int, $5::int, $6::int, $7::bool, $8::bool,
			$9::text, $10::text, $11::text, $12::timestamptz
		FROM restaurants WHERE id=$1
		ON CONFLICT (restaurant_id) DO UPDATE SET
			advance_booking_days=EXCLUDED.advance_booking_days,
			min_party_size=EXCLUDED.min_party_size,
			max_party_size=EXCLUDED.max_party_size,
			slot_duration_minutes=EXCLUDED.slot_duration_minutes,
			booking_interval_minutes=EXCLUDED.booking_interval_minutes,
			sms_notifications=EXCLUDED.sms_notifications,
			email_notifications=EXCLUDED.email_notifications,
			cancellation_policy=EXCLUDED.cancellation_policy,
			confirmation_template=EXCLUDED.confirmation_template,
			reminder_template=EXCLUDED.reminder_template,
			updated_at=EXCLUDED.updated_at
		RETURNING `+settingsCols,
		st.RestaurantID, st.AdvanceBookingDays, st.MinPartySize, st.MaxPartySize, st.SlotDurationMinutes,
		st.BookingIntervalMinutes, st.SMSNotifications, st.EmailNotifications, st.CancellationPolicy,
		st.ConfirmationTemplate, st.ReminderTemplate, st.UpdatedAt,
	), &out)
	return out, db.WrapNotFound(err)
}

func limit(n int) int {
	switch {
	case n <= 0:
		return 50
	case n > 200:
		return 200
	}
	return n
}
