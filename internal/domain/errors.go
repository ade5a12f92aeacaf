package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

// UpstreamError describes a failed call to the order backend or the carrier
// token endpoint. NotFound marks the normal missing-order case so callers can
// pick a 4xx status instead of a 5xx.
type UpstreamError struct {
	StatusCode int
	Message    string
	NotFound   bool
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 3)
	parts = append(parts, "upstream error")

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrNotFound && e != nil && e.NotFound
}
