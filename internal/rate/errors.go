package rate

import "errors"

var (
	// ErrRateLimited is returned when an identifier or IP exceeds its
	// attempt budget within the cooldown window.
	ErrRateLimited = errors.New("rate limited")

	// ErrRedisUnavailable wraps transport-level Redis failures.
	ErrRedisUnavailable = errors.New("rate limiter redis unavailable")
)
