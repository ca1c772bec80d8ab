package harvest

import (
	"context"
	"errors"
	"fmt"

	"priceharvester/internal/render"
)

// PaginationError means the page count could not be determined. The harvest
// then yields an empty summary without visiting any listing page.
type PaginationError struct {
	URL    string
	Reason string
	Err    error
}

func (e *PaginationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pagination on %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("pagination on %s: %s", e.URL, e.Reason)
}

func (e *PaginationError) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from a page task
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string { return fmt.Sprintf("page task panicked: %v", e.Value) }

// Error kinds used in logs and metric labels
const (
	KindTimeout    = "timeout"
	KindStructural = "structural"
	KindPagination = "pagination"
	KindCanceled   = "canceled"
	KindPanic      = "panic"
	KindOther      = "other"
)

// ErrorKind maps an error to a stable label
func ErrorKind(err error) string {
	var (
		timeoutErr    *render.TimeoutError
		structuralErr *render.StructuralError
		paginationErr *PaginationError
		panicErr      *PanicError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &timeoutErr):
		return KindTimeout
	case errors.As(err, &structuralErr):
		return KindStructural
	case errors.As(err, &paginationErr):
		return KindPagination
	case errors.As(err, &panicErr):
		return KindPanic
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindOther
	}
}
