package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/example/restaurant-ops/internal/internaltypes"
	"github.com/example/restaurant-ops/internal/logging"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error          string            `json:"error"`
	Message        string            `json:"message"`
	Fields         map[string]string `json:"fields,omitempty"`
	RemainingSeats *int              `json:"remaining_seats,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code. Store and unexpected failures are
// logged with detail and answered with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := internaltypes.Kind(err)
	body := ErrorBody{Error: kind, Message: err.Error()}
	status := http.StatusInternalServerError

	var (
		verr  *internaltypes.ValidationError
		unavl *internaltypes.SlotUnavailableError
	)
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		body.Fields = verr.Fields
	case errors.As(err, &unavl):
		status = http.StatusConflict
		n := unavl.Remaining
		body.RemainingSeats = &n
	case kind == internaltypes.KindNotFound:
		status = http.StatusNotFound
	case kind == internaltypes.KindBusy:
		status = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "1")
	default:
		logging.FromContext(r.Context(), s.Log).WithFields(logrus.Fields{
			"error_kind": kind,
		}).WithError(err).Error("request failed")
		body.Message = "internal error"
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return internaltypes.Invalid("body", "malformed JSON: "+err.Error())
	}
	return nil
}
