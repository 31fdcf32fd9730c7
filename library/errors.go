package library

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound is matched by any *APIError carrying a 404.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is matched by any *APIError carrying a 401 or 403.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSubmitInProgress is returned when a form is submitted twice concurrently.
	ErrSubmitInProgress = errors.New("submit already in progress")
	// ErrAlreadyRegistered is returned by a register form that already succeeded.
	ErrAlreadyRegistered = errors.New("account already registered")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// Is lets callers test with errors.Is(err, ErrNotFound).
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}
