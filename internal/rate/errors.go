package rate

import "errors"

var (
	// ErrRateLimited is returned once a key exhausts its window budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable is returned when the counter backend cannot be reached.
	ErrUnavailable = errors.New("rate limit backend unavailable")
)
