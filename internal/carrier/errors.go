package carrier

import (
	"fmt"
	"strings"
)

// CarrierError classifies failed calls to the carrier API, keeping the HTTP
// status and response body visible to the caller.
type CarrierError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *CarrierError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 3)
	parts = append(parts, "carrier error")

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

func (e *CarrierError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func carrierErrorMessage(op string, statusCode int, body string) string {
	base := fmt.Sprintf("%s returned status %d", op, statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}
