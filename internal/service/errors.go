package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/bookstore/internal/model"
)

// ValidationError carries one message per rejected input field.  Nothing
// is written when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a message for field, keeping the first one.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Err returns e when it holds at least one field, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func invalid(field, msg string) error {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

var (
	// ErrForbidden is the authorization error: the actor may not touch
	// the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated is returned when a guest calls a mutation.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrNotFound is wrapped with the entity name, e.g. "book: not found".
	ErrNotFound = errors.New("not found")
	// ErrEmptyCart rejects checkout of a cart without lines.
	ErrEmptyCart = model.ErrEmptyCart
	// ErrInvalidTransition rejects a guarded status change from the
	// wrong state.
	ErrInvalidTransition = model.ErrInvalidTransition
	// ErrOrderLocked is returned when lines of an order that already left
	// pendiente are about to change.
	ErrOrderLocked = errors.New("order is no longer editable")
	// ErrConflict is returned when other records prevent the operation.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials hides which of email or password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func notFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrNotFound)
}
