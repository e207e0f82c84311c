package http

import (
	"errors"
	"fmt"
)

// StatusError is returned when an upstream responds with a non-2xx status.
// The body text is kept verbatim so callers can surface upstream diagnostics.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// AsStatusError unwraps err into a *StatusError if one is in the chain.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
