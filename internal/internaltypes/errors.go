package internaltypes

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	ErrBusy     = errors.New("slot busy, try again")
)

// ValidationError maps input fields to the reason they were rejected.
type ValidationError struct {
	Fields map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.Fields) == 0 {
		return "invalid input"
	}
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	if _, ok := v.Fields[field]; ok {
		return
	}
	v.Fields[field] = msg
}

func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.Fields) > 0
}

// OrNil returns v as an error only when it recorded something.
func (v *ValidationError) OrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

func Invalid(field, msg string) error {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// SlotUnavailableError is returned when a party does not fit into the
// remaining capacity of a slot.
type SlotUnavailableError struct {
	Remaining int
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("slot unavailable: only %d seats remaining", e.Remaining)
}

// StoreError wraps failures of the underlying record store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

// WrapStore tags err as a store failure unless it is already one of the
// domain errors callers branch on.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrBusy) {
		return err
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return err
	}
	var u *SlotUnavailableError
	if errors.As(err, &u) {
		return err
	}
	var s *StoreError
	if errors.As(err, &s) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

const (
	KindNotFound        = "not_found"
	KindInvalidInput    = "invalid_input"
	KindSlotUnavailable = "slot_unavailable"
	KindBusy            = "busy"
	KindStoreFailure    = "store_failure"
	KindUnexpected      = "unexpected"
)

// Kind maps err to a stable label for logs, metrics and API responses.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var (
		v *ValidationError
		u *SlotUnavailableError
		s *StoreError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrBusy):
		return KindBusy
	case errors.As(err, &v):
		return KindInvalidInput
	case errors.As(err, &u):
		return KindSlotUnavailable
	case errors.As(err, &s):
		return KindStoreFailure
	}
	return KindUnexpected
}
