package restaurant

import (
	"context"
	"strings"
	"time"
)

var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DaySchedule is one weekday's opening hours. Close before Open means the
// restaurant closes after midnight.
type DaySchedule struct {
	Open   string `json:"open,omitempty" validate:"omitempty,hhmm"`
	Close  string `json:"close,omitempty" validate:"omitempty,hhmm"`
	Closed bool   `json:"closed"`
}

// Hours maps a lower case weekday name to its schedule.
type Hours map[string]DaySchedule

// For returns the schedule for t's weekday; ok is false when none is set.
func (h Hours) For(t time.Time) (DaySchedule, bool) {
	d, ok := h[strings.ToLower(t.Weekday().String())]
	return d, ok
}

type Restaurant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BusinessType string    `json:"business_type"`
	TotalSeats   *int      `json:"total_seats"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	Address      string    `json:"address,omitempty"`
	Description  string    `json:"description,omitempty"`
	Hours        Hours     `json:"operating_hours"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Capacity is the seat ceiling for one slot; restaurants without a seat
// count take no reservations.
func (r Restaurant) Capacity() int {
	if r.TotalSeats == nil || *r.TotalSeats < 0 {
		return 0
	}
	return *r.TotalSeats
}

type Input struct {
	Name         string `json:"name" validate:"required,max=200"`
	BusinessType string `json:"business_type" validate:"omitempty,max=50"`
	TotalSeats   *int   `json:"total_seats" validate:"omitempty,gte=0"`
	Phone        string `json:"phone" validate:"max=50"`
	Email        string `json:"email" validate:"omitempty,email"`
	Address      string `json:"address" validate:"max=500"`
	Description  string `json:"description" validate:"max=5000"`
	Hours        Hours  `json:"operating_hours" validate:"omitempty,dive,keys,oneof=monday tuesday wednesday thursday friday saturday sunday,endkeys"`
}

type Patch struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=200"`
	BusinessType *string `json:"business_type" validate:"omitempty,max=50"`
	TotalSeats   *int    `json:"total_seats" validate:"omitempty,gte=0"`
	ClearSeats   bool    `json:"clear_total_seats"`
	Phone        *string `json:"phone" validate:"omitempty,max=50"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Address      *string `json:"address" validate:"omitempty,max=500"`
	Description  *string `json:"description" validate:"omitempty,max=5000"`
	Hours        Hours   `json:"operating_hours" validate:"omitempty,dive,keys,oneof=monday tuesday wednesday thursday friday saturday sunday,endkeys"`
}

func (p Patch) apply(r Restaurant) Restaurant {
	if p.Name != nil {
		r.Name = strings.TrimSpace(*p.Name)
	}
	if p.BusinessType != nil {
		r.BusinessType = *p.BusinessType
	}
	if p.ClearSeats {
		r.TotalSeats = nil
	} else if p.TotalSeats != nil {
		n := *p.TotalSeats
		r.TotalSeats = &n
	}
	if p.Phone != nil {
		r.Phone = *p.Phone
	}
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.Address != nil {
		r.Address = *p.Address
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Hours != nil {
		r.Hours = p.Hours
	}
	return r
}

// Settings are per-restaurant booking policies. The reservation workflow
// reads them but capacity checks do not enforce them.
type Settings struct {
	RestaurantID           string    `json:"restaurant_id"`
	AdvanceBookingDays     int       `json:"advance_booking_days" validate:"gte=0,lte=365"`
	MinPartySize           int       `json:"min_party_size" validate:"gte=1"`
	MaxPartySize           int       `json:"max_party_size" validate:"gtefield=MinPartySize"`
	SlotDurationMinutes    int       `json:"slot_duration_minutes" validate:"gt=0,lte=1440"`
	BookingIntervalMinutes int       `json:"booking_interval_minutes" validate:"gt=0,lte=1440"`
	SMSNotifications       bool      `json:"sms_notifications"`
	EmailNotifications     bool      `json:"email_notifications"`
	CancellationPolicy     string    `json:"cancellation_policy" validate:"max=5000"`
	ConfirmationTemplate   string    `json:"confirmation_template" validate:"max=5000"`
	ReminderTemplate       string    `json:"reminder_template" validate:"max=5000"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func DefaultSettings(restaurantID string) Settings {
	return Settings{
		RestaurantID:           restaurantID,
		AdvanceBookingDays:     30,
		MinPartySize:           1,
		MaxPartySize:           20,
		SlotDurationMinutes:    120,
		BookingIntervalMinutes: 30,
		EmailNotifications:     true,
	}
}

func (s Settings) SlotDuration() time.Duration {
	return time.Duration(s.SlotDurationMinutes) * time.Minute
}

type Filter struct {
	// Query matches restaurant names case-insensitively.
	Query string
	Limit int
}

type Store interface {
	Create(ctx context.Context, r Restaurant) (Restaurant, error)
	Get(ctx context.Context, id string) (Restaurant, error)
	Update(ctx context.Context, r Restaurant) (Restaurant, error)
	List(ctx context.Context, f Filter) ([]Restaurant, error)
	Capacity(ctx context.Context, id string) (int, error)
	// Settings falls back to DefaultSettings when none were saved.
	Settings(ctx context.Context, id string) (Settings, error)
	PutSettings(ctx context.Context, s Settings) (Settings, error)
}
