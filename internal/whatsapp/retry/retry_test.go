package retry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		attempt   int
		status    int
		code      int
		wantStop  bool
		wantDelay float64
	}{
		{name: "retries exhausted", attempt: 4, status: 500, wantStop: true},
		{name: "unauthorized stops at first attempt", attempt: 1, status: 401, wantStop: true},
		{name: "forbidden stops", attempt: 2, status: 403, wantStop: true},
		{name: "too many requests backs off", attempt: 1, status: 429, wantDelay: 2},
		{name: "server error backs off", attempt: 3, status: 500, wantDelay: 4},
		{name: "transport failure backs off", attempt: 1, wantDelay: 2},
		{name: "pairing rate limit", attempt: 2, status: 400, code: 131056, wantDelay: math.Pow(2, 1.5)},
		{name: "pairing rate limit first attempt", attempt: 1, code: 131056, wantDelay: 1},
		{name: "auth wins over pairing code", attempt: 1, status: 401, code: 131056, wantStop: true},
		{name: "exhausted wins over pairing code", attempt: 4, code: 131056, wantStop: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.attempt, tt.status, tt.code)
			assert.Equal(t, tt.wantStop, got.Stop)
			assert.InDelta(t, tt.wantDelay, got.Delay, 1e-9)
		})
	}
}

// The default delay is attempt + 1, not (attempt+1)^1.5.
func TestDefaultDelayPrecedence(t *testing.T) {
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		got := Decide(attempt, 500, 0)
		assert.False(t, got.Stop)
		assert.InDelta(t, float64(attempt+1), got.Delay, 1e-9)
		assert.NotEqual(t, math.Pow(float64(attempt+1), 1.5), got.Delay)
	}
}

func TestDecideTooManyRequestsHasPositiveDelay(t *testing.T) {
	got := Decide(1, 429, 0)
	assert.False(t, got.Stop)
	assert.Greater(t, got.Delay, 0.0)
}

func TestDecisionDuration(t *testing.T) {
	assert.Equal(t, 2500*time.Millisecond, Decision{Delay: 2.5}.Duration())
	assert.Equal(t, time.Duration(0), Decision{Stop: true}.Duration())
}
