package ports

import (
	"context"
	"errors"
	"net"
)

// Downloader fetches remote resources such as installer scripts.
type Downloader interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TransientError marks a failure that may succeed when retried,
// such as a timeout or a 5xx response.
type TransientError struct {
	Err error
}

// Error returns the wrapped error's message.
func (e *TransientError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth one more attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
