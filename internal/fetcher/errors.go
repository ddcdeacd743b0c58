package fetcher

import (
	"fmt"
	"net/http"
)

// TransportError reports a failure to complete the request or read its body.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to fetch transparency data: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx response from the transparency endpoint.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.StatusCode)
	if text == "" {
		return fmt.Sprintf("transparency endpoint returned unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("transparency endpoint returned unexpected status %d %s", e.StatusCode, text)
}

// MalformedPayloadError reports a body that does not decode into the expected shape.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("failed to parse transparency payload: %v", e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }
