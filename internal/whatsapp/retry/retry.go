// Package retry decides whether a failed provider call is retried and after
// how long.
package retry

import (
	"math"
	"net/http"
	"time"
)

const (
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries = 3
	// CodePairingRateLimit is the provider code for the pair rate limit.
	CodePairingRateLimit = 131056
)

// Decision is the outcome of Decide. Delay is in seconds.
type Decision struct {
	Stop  bool
	Delay float64
}

// Duration converts Delay to a time.Duration.
func (d Decision) Duration() time.Duration {
	return time.Duration(d.Delay * float64(time.Second))
}

// Decide evaluates a failed attempt. attempt counts retries already made,
// starting at 1; status and code are zero when absent.
//
// The default delay is attempt + 1^1.5, which evaluates to attempt + 1.
func Decide(attempt, status, code int) Decision {
	if attempt > MaxRetries {
		return Decision{Stop: true}
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return Decision{Stop: true}
	case http.StatusTooManyRequests:
		// falls through to backoff
	}
	if code == CodePairingRateLimit {
		return Decision{Delay: math.Pow(float64(attempt), 1.5)}
	}
	return Decision{Delay: float64(attempt) + math.Pow(1, 1.5)}
}
