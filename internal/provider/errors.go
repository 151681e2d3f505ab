package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is returned when an address of one family is applied
	// to a record of the other.
	ErrTypeMismatch    = errors.New("address family does not match record type")
	ErrUnsupportedType = errors.New("unsupported record type")
	ErrMissingID       = errors.New("record has no id")
	ErrHasID           = errors.New("record already has an id")
)

// APIError is a request the provider answered with a failure.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("request failed with code %d: %s", e.Code, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return "request failed: " + e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAPIError reports whether err was produced by a provider rejection rather
// than a transport failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsTransport reports whether err is a connectivity failure (timeout, refused
// connection) rather than an answer from the provider.
func IsTransport(err error) bool {
	if err == nil || IsAPIError(err) {
		return false
	}
	for _, sentinel := range []error{ErrTypeMismatch, ErrUnsupportedType, ErrMissingID, ErrHasID} {
		if errors.Is(err, sentinel) {
			return false
		}
	}
	return true
}
