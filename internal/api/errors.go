package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/idilsaglam/backlog/internal/platform/retry"
)

// ErrDecode marks a response body that could not be mapped onto the expected shape.
var ErrDecode = errors.New("unexpected response payload")

// StatusError is a non-2xx reply from the backend.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Message returns the backend's plain-text explanation carried by err, or fallback.
// The backend answers validation failures with a bare string body; JSON bodies are not shown.
func Message(err error, fallback string) string {
	var se *StatusError
	if !errors.As(err, &se) {
		return fallback
	}
	body := strings.TrimSpace(se.Body)
	if body == "" || strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[") || strings.HasPrefix(body, "<") {
		return fallback
	}
	return strings.Trim(body, `"`)
}

func classify(err error) retry.Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrDecode) {
		return retry.Stop
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusTooManyRequests:
			return retry.After
		case se.StatusCode >= 500:
			return retry.Retry
		default:
			return retry.Stop
		}
	}
	return retry.Retry
}
