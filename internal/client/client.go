// Package client talks to the restops HTTP API. Calls go through a circuit
// breaker that opens on transport errors and 5xx responses; 4xx answers are
// returned as *APIError without counting against the breaker.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/example/restaurant-ops/internal/logging"
	"github.com/example/restaurant-ops/internal/menu"
	"github.com/example/restaurant-ops/internal/metrics"
	"github.com/example/restaurant-ops/internal/reservation"
	"github.com/example/restaurant-ops/internal/restaurant"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status         int               `json:"-"`
	Code           string            `json:"error"`
	Message        string            `json:"message"`
	Fields         map[string]string `json:"fields,omitempty"`
	RemainingSeats *int              `json:"remaining_seats,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	http *resty.Client
	cb   *gobreaker.CircuitBreaker
}

func New(baseURL string, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logging.Discard()
	}
	name := "restops-api"
	metrics.ClientBreakerState.WithLabelValues(name).Set(0)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && ratio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			return err == nil || (errors.As(err, &apiErr) && apiErr.Status < 500)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			state := 0.0
			switch to {
			case gobreaker.StateOpen:
				state = 1
			case gobreaker.StateHalfOpen:
				state = 2
			}
			metrics.ClientBreakerState.WithLabelValues(name).Set(state)
			log.WithFields(logrus.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10*time.Second).
			SetRetryCount(0).
			SetHeader("Accept", "application/json"),
		cb: cb,
	}
}

// State reports the breaker state, e.g. "closed" or "open".
func (c *Client) State() string { return c.cb.State().String() }

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		apiErr := &APIError{}
		req := c.http.R().SetContext(ctx).SetError(apiErr)
		if query != nil {
			req.SetQueryParamsFromValues(query)
		}
		if body != nil {
			req.SetBody(body)
		}
		if out != nil {
			req.SetResult(out)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			apiErr.Status = resp.StatusCode()
			return nil, apiErr
		}
		return nil, nil
	})
	return err
}

func (c *Client) CreateRestaurant(ctx context.Context, in restaurant.Input) (restaurant.Restaurant, error) {
	var out restaurant.Restaurant
	err := c.do(ctx, http.MethodPost, "/v1/restaurants", nil, in, &out)
	return out, err
}

func (c *Client) ListRestaurants(ctx context.Context, q string) ([]restaurant.Restaurant, error) {
	var out struct {
		Restaurants []restaurant.Restaurant `json:"restaurants"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/restaurants", url.Values{"q": {q}}, nil, &out)
	return out.Restaurants, err
}

func (c *Client) Availability(ctx context.Context, req reservation.Request) (reservation.Availability, error) {
	var out reservation.Availability
	q := url.Values{
		"date":       {req.Date},
		"time":       {req.Time},
		"party_size": {fmt.Sprint(req.PartySize)},
	}
	if req.ExcludeID != "" {
		q.Set("exclude", req.ExcludeID)
	}
	err := c.do(ctx, http.MethodGet, "/v1/restaurants/"+url.PathEscape(req.RestaurantID)+"/availability", q, nil, &out)
	return out, err
}

func (c *Client) CreateReservation(ctx context.Context, in reservation.CreateInput) (reservation.Reservation, error) {
	var out reservation.Reservation
	err := c.do(ctx, http.MethodPost, "/v1/reservations", nil, in, &out)
	return out, err
}

func (c *Client) GetReservation(ctx context.Context, id string) (reservation.Reservation, error) {
	var out reservation.Reservation
	err := c.do(ctx, http.MethodGet, "/v1/reservations/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (c *Client) CancelReservation(ctx context.Context, id string) (reservation.Reservation, error) {
	var out reservation.Reservation
	err := c.do(ctx, http.MethodPost, "/v1/reservations/"+url.PathEscape(id)+"/cancel", nil, nil, &out)
	return out, err
}

func (c *Client) Summary(ctx context.Context, restaurantID, from, to string) (reservation.Summary, error) {
	var out reservation.Summary
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	err := c.do(ctx, http.MethodGet, "/v1/restaurants/"+url.PathEscape(restaurantID)+"/reservations/summary", q, nil, &out)
	return out, err
}

func (c *Client) ListMenu(ctx context.Context, restaurantID string) ([]menu.Item, error) {
	var out struct {
		Items []menu.Item `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/restaurants/"+url.PathEscape(restaurantID)+"/menu", nil, nil, &out)
	return out.Items, err
}

func (c *Client) ReorderMenu(ctx context.Context, restaurantID string, positions []menu.Position) (menu.ReorderResult, error) {
	var out menu.ReorderResult
	body := map[string]any{"items": positions}
	err := c.do(ctx, http.MethodPost, "/v1/restaurants/"+url.PathEscape(restaurantID)+"/menu/reorder", nil, body, &out)
	return out, err
}
