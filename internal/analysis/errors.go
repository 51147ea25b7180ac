package analysis

import (
	"errors"
	"fmt"
	"net/url"
)

// StatusError is a response outside the 2xx range. The body is kept for logs
// but never shown; the service documents no error schema.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}

// TransportError is a request that never produced an HTTP response.
// Its message is the transport's own message without the method/URL prefix.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	var urlErr *url.Error
	if errors.As(e.Err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a 2xx response whose body is not a valid analysis payload.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode analysis response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }
