package platform

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError signals that the platform throttled the whole session.
// Callers treat it as "stop now, retry next heartbeat" rather than a
// per-item failure.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("platform rate limited, retry after %s", e.RetryAfter)
	}
	return "platform rate limited"
}

// IsRateLimit reports whether err is rate-limit-class.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
