// Package reservation implements availability checks and the booking
// workflow. Every write that can change the seats booked at a slot runs
// under that slot's lock, so the sum of active party sizes at a slot never
// exceeds the restaurant's seat count.
package reservation

import (
	"context"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no-show"
)

var Statuses = []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Active statuses hold seats at their slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransition reports whether a reservation in s may move to to.
// Cancelling is always allowed; nothing leaves cancelled, completed or no-show
// except into cancelled.
func (s Status) CanTransition(to Status) bool {
	if s == to || to == StatusCancelled {
		return true
	}
	switch s {
	case StatusPending:
		return to == StatusConfirmed
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusNoShow
	}
	return false
}

const DateLayout = "2006-01-02"

type Reservation struct {
	ID               string    `json:"id"`
	RestaurantID     string    `json:"restaurant_id"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	PartySize        int       `json:"party_size"`
	GuestName        string    `json:"guest_name"`
	GuestPhone       string    `json:"guest_phone"`
	GuestEmail       string    `json:"guest_email,omitempty"`
	SpecialRequests  string    `json:"special_requests,omitempty"`
	Status           Status    `json:"status"`
	ConfirmationSent bool      `json:"confirmation_sent"`
	ReminderSent     bool      `json:"reminder_sent"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (r Reservation) Slot() Slot {
	return Slot{RestaurantID: r.RestaurantID, Date: r.Date, Time: r.Time}
}

func (r Reservation) Cursor() Cursor {
	return Cursor{Date: r.Date, Time: r.Time, ID: r.ID}
}

// Start is the slot's start in loc.
func (r Reservation) Start(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" 15:04", r.Date+" "+r.Time, loc)
}

// Slot identifies the seats capacity is checked against.
type Slot struct {
	RestaurantID string
	Date         string
	Time         string
}

func (s Slot) Key() string {
	return s.RestaurantID + "|" + s.Date + "|" + s.Time
}

func recordKey(id string) string { return "reservation|" + id }

// normalizeTime drops seconds so "19:00:00" and "19:00" name the same slot.
func normalizeTime(t string) string {
	t = strings.TrimSpace(t)
	if len(t) == len("15:04:05") {
		return t[:5]
	}
	return t
}

type CreateInput struct {
	RestaurantID    string `json:"restaurant_id" validate:"required"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"required,hhmm"`
	PartySize       int    `json:"party_size" validate:"gt=0"`
	GuestName       string `json:"guest_name" validate:"required,max=200"`
	GuestPhone      string `json:"guest_phone" validate:"required,max=50"`
	GuestEmail      string `json:"guest_email" validate:"omitempty,email"`
	SpecialRequests string `json:"special_requests" validate:"max=2000"`
}

func (in *CreateInput) normalize() {
	in.RestaurantID = strings.TrimSpace(in.RestaurantID)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = normalizeTime(in.Time)
	in.GuestName = strings.TrimSpace(in.GuestName)
	in.GuestPhone = strings.TrimSpace(in.GuestPhone)
	in.GuestEmail = strings.TrimSpace(in.GuestEmail)
}

// Patch holds the fields an update changes; nil fields are left alone.
type Patch struct {
	Date             *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time             *string `json:"time" validate:"omitempty,hhmm"`
	PartySize        *int    `json:"party_size" validate:"omitempty,gt=0"`
	GuestName        *string `json:"guest_name" validate:"omitempty,min=1,max=200"`
	GuestPhone       *string `json:"guest_phone" validate:"omitempty,min=1,max=50"`
	GuestEmail       *string `json:"guest_email" validate:"omitempty,email"`
	SpecialRequests  *string `json:"special_requests" validate:"omitempty,max=2000"`
	Status           *Status `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed no-show"`
	ConfirmationSent *bool   `json:"confirmation_sent"`
	ReminderSent     *bool   `json:"reminder_sent"`
}

// TouchesSlot reports whether applying p can change the seats r holds.
func (p Patch) TouchesSlot() bool {
	return p.Date != nil || p.Time != nil || p.PartySize != nil
}

func (p *Patch) normalize() {
	if p.Time != nil {
		t := normalizeTime(*p.Time)
		p.Time = &t
	}
}

func (p Patch) apply(r Reservation) Reservation {
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Time != nil {
		r.Time = *p.Time
	}
	if p.PartySize != nil {
		r.PartySize = *p.PartySize
	}
	if p.GuestName != nil {
		r.GuestName = strings.TrimSpace(*p.GuestName)
	}
	if p.GuestPhone != nil {
		r.GuestPhone = strings.TrimSpace(*p.GuestPhone)
	}
	if p.GuestEmail != nil {
		r.GuestEmail = strings.TrimSpace(*p.GuestEmail)
	}
	if p.SpecialRequests != nil {
		r.SpecialRequests = *p.SpecialRequests
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.ConfirmationSent != nil {
		r.ConfirmationSent = *p.ConfirmationSent
	}
	if p.ReminderSent != nil {
		r.ReminderSent = *p.ReminderSent
	}
	return r
}

// Cursor is the listing position after which the next page starts.
type Cursor struct {
	Date string `json:"d"`
	Time string `json:"t"`
	ID   string `json:"i"`
}

func (c Cursor) after(r Reservation) bool {
	if r.Date != c.Date {
		return r.Date > c.Date
	}
	if r.Time != c.Time {
		return r.Time > c.Time
	}
	return r.ID > c.ID
}

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Filter selects reservations for listing. Results are ordered by date,
// time and id.
type Filter struct {
	RestaurantID string   `json:"restaurant_id"`
	From         string   `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To           string   `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Time         string   `json:"time" validate:"omitempty,hhmm"`
	Statuses     []Status `json:"status" validate:"omitempty,dive,oneof=pending confirmed cancelled completed no-show"`
	// Search matches guest name, phone or email case-insensitively.
	Search string  `json:"q"`
	After  *Cursor `json:"-"`
	Limit  int     `json:"limit"`
}

func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	}
	return f.Limit
}

func (f Filter) match(r Reservation) bool {
	if f.RestaurantID != "" && r.RestaurantID != f.RestaurantID {
		return false
	}
	if f.From != "" && r.Date < f.From {
		return false
	}
	if f.To != "" && r.Date > f.To {
		return false
	}
	if f.Time != "" && r.Time != f.Time {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if r.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if q := strings.ToLower(f.Search); q != "" {
		if !strings.Contains(strings.ToLower(r.GuestName), q) &&
			!strings.Contains(strings.ToLower(r.GuestPhone), q) &&
			!strings.Contains(strings.ToLower(r.GuestEmail), q) {
			return false
		}
	}
	if f.After != nil && !f.After.after(r) {
		return false
	}
	return true
}

// Tally is the count and guest total for one status.
type Tally struct {
	Count  int
	Guests int
}

type Summary struct {
	RestaurantID string `json:"restaurant_id"`
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
	Active       int    `json:"active"`
	Pending      int    `json:"pending"`
	Confirmed    int    `json:"confirmed"`
	Cancelled    int    `json:"cancelled"`
	Completed    int    `json:"completed"`
	NoShow       int    `json:"no_show"`
	Total        int    `json:"total"`
	TotalGuests  int    `json:"total_guests"`
	ActiveGuests int    `json:"active_guests"`
}

// Store is the reservation record store.
type Store interface {
	Get(ctx context.Context, id string) (Reservation, error)
	List(ctx context.Context, f Filter) ([]Reservation, error)
	// BookedSeats sums party sizes of active reservations at slot, leaving
	// out excludeID when it is set.
	BookedSeats(ctx context.Context, slot Slot, excludeID string) (int, error)
	Insert(ctx context.Context, r Reservation) (Reservation, error)
	Update(ctx context.Context, r Reservation) (Reservation, error)
	Tally(ctx context.Context, restaurantID, from, to string) (map[Status]Tally, error)
	// PeakSeats is the largest BookedSeats of any slot dated fromDate or later.
	PeakSeats(ctx context.Context, restaurantID, fromDate string) (int, error)
	// Atomic runs fn against a Store whose reads and writes commit together.
	// Callers holding the same key are serialized.
	Atomic(ctx context.Context, keys []string, fn func(Store) error) error
}
