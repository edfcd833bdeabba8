package core

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/internal/validator"
)

var (
	ErrNotFound           = xerrors.Message("Resource not found")
	ErrUnauthorized       = xerrors.Message("Authentication required")
	ErrForbidden          = xerrors.Message("Only the owner can change this resource")
	ErrInvalidCredentials = xerrors.Message("Invalid username or password")
)

// ValidationError carries field-level messages back to the caller.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(v *validator.Validator) error {
	return xerrors.New(&ValidationError{Fields: v.Errors})
}

func fieldError(field, message string) error {
	return xerrors.New(&ValidationError{Fields: map[string]string{field: message}})
}

// notFound turns a missing record into ErrNotFound and wraps anything else.
func notFound(err error) error {
	if errors.Is(err, store.ErrRecordNotFound) {
		return xerrors.New(ErrNotFound)
	}
	return xerrors.New(err)
}
