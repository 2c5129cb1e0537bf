package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means the backend rejected the bearer token, or there was none.
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrUnavailable means the circuit to the backend is open.
	ErrUnavailable = errors.New("backend: unavailable")
)

// RemoteError is a failure the backend reported, either with a non-2xx status
// or with success=false in the response envelope.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.StatusCode == http.StatusNotFound
}

// serverSide reports whether err should count against the backend's health.
// Rejections of a particular request do not.
func serverSide(err error) bool {
	if err == nil || errors.Is(err, ErrUnauthorized) {
		return false
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.StatusCode >= http.StatusInternalServerError
	}
	return true
}
