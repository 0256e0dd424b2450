package forumclient

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrCircuitOpen = errors.New("forum client circuit open")

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("forum client closed")

// RequestError is returned for every failed request. Status is 0 when no response was
// received; Err then holds the transport failure.
type RequestError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Temporary reports whether retrying the same request may succeed.
func (e *RequestError) Temporary() bool {
	return e.Status == 0 || e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
}

// IsStatus reports whether err is a RequestError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Status == status
}
