package whatsapp

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrCircuitOpen is returned while the transport's circuit breaker rejects calls.
var ErrCircuitOpen = errors.New("whatsapp transport: circuit breaker open")

// Request is one HTTP call to the WhatsApp API.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// RawResponse captures the low-level provider response. Body is truncated to
// the transport's body limit.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Timestamp  time.Time
}

// Transport performs HTTP round trips for the client. Any non-nil error is a
// transport-level failure; HTTP error statuses are returned as responses.
type Transport interface {
	Do(ctx context.Context, req *Request) (*RawResponse, error)
}
