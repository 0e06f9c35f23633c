package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
)

// Error описывает неудачный вызов бэкенда.
// StatusCode == 0 означает, что ответа не было (сеть, таймаут, открытый breaker).
type Error struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("gateway %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("gateway %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.StatusCode == http.StatusNotFound
}

// IsTransient reports whether retrying later may succeed: no response, 5xx, 429 or an open breaker.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		return false
	}
	switch {
	case gwErr.StatusCode == 0:
		return gwErr.Err != nil && !errors.Is(gwErr.Err, context.Canceled)
	case gwErr.StatusCode == http.StatusTooManyRequests:
		return true
	case gwErr.StatusCode >= 500:
		return true
	}
	return false
}
