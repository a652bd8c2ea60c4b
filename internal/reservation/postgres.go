package reservation

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/example/restaurant-ops/internal/db"
)

const reservationCols = `id::text, restaurant_id::text, reservation_date::text, reservation_time, party_size,
	guest_name, guest_phone, coalesce(guest_email, ''), coalesce(special_requests, ''), status,
	confirmation_sent, reminder_sent, created_at, updated_at`

// PGStore is the postgres Store. Atomic opens a transaction and takes a
// transaction scoped advisory lock per key, so every process sharing the
// database serializes on the same slots.
type PGStore struct {
	db *db.DB
	q  db.Querier
}

func NewPGStore(d *db.DB) *PGStore { return &PGStore{db: d, q: d.Q()} }

func scanReservation(row db.Row) (Reservation, error) {
	var (
		r      Reservation
		status string
	)
	err := row.Scan(&r.ID, &r.RestaurantID, &r.Date, &r.Time, &r.PartySize,
		&r.GuestName, &r.GuestPhone, &r.GuestEmail, &r.SpecialRequests, &status,
		&r.ConfirmationSent, &r.ReminderSent, &r.CreatedAt, &r.UpdatedAt)
	r.Status = Status(status)
	return r, err
}

func (s *PGStore) Get(ctx context.Context, id string) (Reservation, error) {
	r, err := scanReservation(s.q.QueryRow(ctx, `SELECT `+reservationCols+` FROM reservations WHERE id=$1`, id))
	return r, db.WrapNotFound(err)
}

func (s *PGStore) List(ctx context.Context, f Filter) ([]Reservation, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.RestaurantID != "" {
		where = append(where, "restaurant_id = "+arg(f.RestaurantID))
	}
	if f.From != "" {
		where = append(where, "reservation_date >= "+arg(f.From)+"::date")
	}
	if f.To != "" {
		where = append(where, "reservation_date <= "+arg(f.To)+"::date")
	}
	if f.Time != "" {
		where = append(where, "reservation_time = "+arg(f.Time))
	}
	if len(f.Statuses) > 0 {
		st := make([]string, len(f.Statuses))
		for i, v := range f.Statuses {
			st[i] = string(v)
		}
		where = append(where, "status = ANY("+arg(st)+")")
	}
	if f.Search != "" {
		p := arg(f.Search)
		where = append(where, "(guest_name ILIKE '%' || "+p+" || '%' OR guest_phone ILIKE '%' || "+p+
			" || '%' OR guest_email ILIKE '%' || "+p+" || '%')")
	}
	if c := f.After; c != nil {
		where = append(where, "(reservation_date, reservation_time, id::text) > ("+
			arg(c.Date)+"::date, "+arg(c.Time)+", "+arg(c.ID)+")")
	}

	sql := `SELECT ` + reservationCols + ` FROM reservations`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY reservation_date, reservation_time, id::text LIMIT ` + arg(f.limit())

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, db.WrapNotFound(err)
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, db.WrapNotFound(err)
		}
		out = append(out, r)
	}
	return out, db.WrapNotFound(rows.Err())
}

func (s *PGStore) BookedSeats(ctx context.Context, slot Slot, excludeID string) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `
		SELECT coalesce(sum(party_size), 0) FROM reservations
		WHERE restaurant_id=$1 AND reservation_date=$2::date AND reservation_time=$3
			AND status IN ('pending','confirmed')
			AND ($4 = '' OR id::text <> $4)`,
		slot.RestaurantID, slot.Date, slot.Time, excludeID,
	).Scan(&n)
	return n, db.WrapNotFound(err)
}

func (s *PGStore) Insert(ctx context.Context, r Reservation) (Reservation, error) {
	out, err := scanReservation(s.q.QueryRow(ctx, `
		INSERT INTO reservations (id, restaurant_id, reservation_date, reservation_time, party_size,
			guest_name, guest_phone, guest_email, special_requests, status,
			confirmation_sent, reminder_sent, created_at, updated_at)
		VALUES ($1,$2,$3::date,$4,$5,$6,$7,NULLIF($8,''),NULLIF($9,''),$10,$11,$12,$13,$14)
		RETURNING `+reservationCols,
		r.ID, r.RestaurantID, r.Date, r.Time, r.PartySize,
		r.GuestName, r.GuestPhone, r.GuestEmail, r.SpecialRequests, string(r.Status),
		r.ConfirmationSent, r.ReminderSent, r.CreatedAt, r.UpdatedAt,
	))
	return out, db.WrapNotFound(err)
}

func (s *PGStore) Update(ctx context.Context, r Reservation) (Reservation, error) {
	out, err := scanReservation(s.q.QueryRow(ctx, `
		UPDATE reservations SET reservation_date=$2::date, reservation_time=$3, party_size=$4,
			guest_name=$5, guest_phone=$6, guest_email=NULLIF($7,''), special_requests=NULLIF($8,''),
			status=$9, confirmation_sent=$10, reminder_sent=$11, updated_at=$12
		WHERE id=$1
		RETURNING `+reservationCols,
		r.ID, r.Date, r.Time, r.PartySize,
		r.GuestName, r.GuestPhone, r.GuestEmail, r.SpecialRequests,
		string(r.Status), r.ConfirmationSent, r.ReminderSent, r.UpdatedAt,
	))
	return out, db.WrapNotFound(err)
}

func (s *PGStore) Tally(ctx context.Context, restaurantID, from, to string) (map[Status]Tally, error) {
	rows, err := s.q.Query(ctx, `
		SELECT status, count(*), coalesce(sum(party_size), 0) FROM reservations
		WHERE restaurant_id=$1
			AND ($2 = '' OR reservation_date >= to_date(nullif($2, ''), 'YYYY-MM-DD'))
			AND ($3 = '' OR reservation_date <= to_date(nullif($3, ''), 'YYYY-MM-DD'))
		GROUP BY status`, restaurantID, from, to)
	if err != nil {
		return nil, db.WrapNotFound(err)
	}
	defer rows.Close()

	out := make(map[Status]Tally)
	for rows.Next() {
		var (
			status string
			t      Tally
		)
		if err := rows.Scan(&status, &t.Count, &t.Guests); err != nil {
			return nil, db.WrapNotFound(err)
		}
		out[Status(status)] = t
	}
	return out, db.WrapNotFound(rows.Err())
}

func (s *PGStore) PeakSeats(ctx context.Context, restaurantID, fromDate string) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `
		SELECT coalesce(max(seats), 0) FROM (
			SELECT sum(party_size) AS seats FROM reservations
			WHERE restaurant_id=$1 AND reservation_date >= $2::date
				AND status IN ('pending','confirmed')
			GROUP BY reservation_date, reservation_time
		) per_slot`, restaurantID, fromDate).Scan(&n)
	return n, db.WrapNotFound(err)
}

func (s *PGStore) Atomic(ctx context.Context, keys []string, fn func(Store) error) error {
	if s.db == nil {
		// already inside a transaction
		for _, k := range keys {
			if err := db.LockXact(ctx, s.q, k); err != nil {
				return err
			}
		}
		return fn(s)
	}
	return s.db.InTx(ctx, func(tx pgx.Tx) error {
		if err := db.SetLocalLockTimeout(ctx, tx, s.db.LockTimeout()); err != nil {
			return db.WrapNotFound(err)
		}
		for _, k := range keys {
			if err := db.LockXact(ctx, tx, k); err != nil {
				return db.WrapNotFound(err)
			}
		}
		return fn(&PGStore{q: tx})
	})
}
