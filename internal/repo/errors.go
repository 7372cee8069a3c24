package repo

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/five82/stockroom/internal/shop"
)

var (
	// ErrNegativeStock is returned when an adjustment would take stock below
	// zero. No request is sent.
	ErrNegativeStock    = errors.New("stock cannot go negative")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
)

// DomainError carries a user-facing message, a sentinel for errors.Is and,
// when the failure came from the API, the underlying *shop.Error.
type DomainError struct {
	Op      string
	Message string
	Kind    error
	Cause   error
}

func (e *DomainError) Error() string {
	return e.Op + ": " + e.Message
}

func (e *DomainError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// translate maps auth and not-found statuses to domain errors and wraps the
// rest unchanged.
func translate(op, subject string, err error) error {
	switch shop.StatusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &DomainError{
			Op:      op,
			Message: fmt.Sprintf("you do not have permission to modify %s", subject),
			Kind:    ErrPermissionDenied,
			Cause:   err,
		}
	case http.StatusNotFound:
		return &DomainError{
			Op:      op,
			Message: fmt.Sprintf("%s was not found", subject),
			Kind:    ErrNotFound,
			Cause:   err,
		}
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
