package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const defaultBodyLimit = 1 << 20

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// BreakerSettings configures the circuit breaker wrapped around every call.
// A zero MaxFailures disables the breaker.
type BreakerSettings struct {
	MaxFailures uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// HTTPOption customises the HTTP transport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client HTTPClient) HTTPOption {
	return func(t *HTTPTransport) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// WithBodyLimit adjusts how many bytes are retained from the HTTP response body.
func WithBodyLimit(limit int64) HTTPOption {
	return func(t *HTTPTransport) {
		if limit > 0 {
			t.maxBodyBytes = limit
		}
	}
}

// WithClock overrides the clock used for response timestamps.
func WithClock(now func() time.Time) HTTPOption {
	return func(t *HTTPTransport) {
		if now != nil {
			t.now = now
		}
	}
}

// WithRateLimit caps outbound requests per second. Non-positive values leave
// the transport unlimited.
func WithRateLimit(perSecond float64, burst int) HTTPOption {
	return func(t *HTTPTransport) {
		if perSecond <= 0 {
			t.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithBreaker enables the circuit breaker.
func WithBreaker(settings BreakerSettings) HTTPOption {
	return func(t *HTTPTransport) {
		t.breakerSettings = settings
	}
}

// HTTPTransport sends requests over net/http, with optional client-side rate
// limiting and a circuit breaker that counts 5xx and 429 responses as failures.
type HTTPTransport struct {
	logger          zerolog.Logger
	httpClient      HTTPClient
	limiter         *rate.Limiter
	breakerSettings BreakerSettings
	breaker         *gobreaker.CircuitBreaker[*RawResponse]
	maxBodyBytes    int64
	now             func() time.Time
}

// NewHTTPTransport constructs the HTTP transport.
func NewHTTPTransport(logger zerolog.Logger, opts ...HTTPOption) *HTTPTransport {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	t := &HTTPTransport{
		logger:       logger,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		maxBodyBytes: defaultBodyLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	if s := t.breakerSettings; s.MaxFailures > 0 {
		t.breaker = gobreaker.NewCircuitBreaker[*RawResponse](gobreaker.Settings{
			Name:        "whatsapp-api",
			MaxRequests: 1,
			Interval:    s.Interval,
			Timeout:     s.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= s.MaxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				t.logger.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
			},
		})
	}
	return t
}

// errUpstreamStatus marks responses the breaker counts as failures. It never
// leaves Do; the response itself is returned to the caller.
var errUpstreamStatus = errors.New("upstream status")

// Do sends req and returns the raw response.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*RawResponse, error) {
	if req == nil {
		return nil, errors.New("whatsapp transport: request is required")
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("whatsapp transport: rate limit wait: %w", err)
		}
	}

	if t.breaker == nil {
		return t.roundTrip(ctx, req)
	}

	resp, err := t.breaker.Execute(func() (*RawResponse, error) {
		r, err := t.roundTrip(ctx, req)
		if err != nil {
			return nil, err
		}
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			return r, errUpstreamStatus
		}
		return r, nil
	})
	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, errUpstreamStatus):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	default:
		return nil, err
	}
}

func (t *HTTPTransport) roundTrip(ctx context.Context, req *Request) (*RawResponse, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("whatsapp transport: new request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	start := t.now()
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whatsapp transport: http do: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("whatsapp transport: read body: %w", err)
	}

	t.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL).
		Int("status", resp.StatusCode).
		Dur("elapsed", t.now().Sub(start)).
		Msg("whatsapp api call")

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
		Timestamp:  t.now(),
	}, nil
}
