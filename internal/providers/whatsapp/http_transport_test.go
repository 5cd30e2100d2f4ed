package whatsapp_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	waprovider "github.com/example/whatsapp-api-go/internal/providers/whatsapp"
)

func TestHTTPTransportRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected authorization header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"x":1}` {
			t.Errorf("unexpected body %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	transport := waprovider.NewHTTPTransport(zerolog.Nop())
	resp, err := transport.Do(context.Background(), &waprovider.Request{
		Method: http.MethodPost,
		URL:    server.URL + "/messages",
		Header: http.Header{"Authorization": []string{"Bearer tok"}},
		Body:   []byte(`{"x":1}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Fatalf("unexpected body %s", resp.Body)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("expected response headers to be kept")
	}
}

func TestHTTPTransportBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer server.Close()

	transport := waprovider.NewHTTPTransport(zerolog.Nop(), waprovider.WithBodyLimit(10))
	resp, err := transport.Do(context.Background(), &waprovider.Request{Method: http.MethodGet, URL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Body) != 10 {
		t.Fatalf("expected body truncated to 10 bytes, got %d", len(resp.Body))
	}
}

func TestHTTPTransportErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	transport := waprovider.NewHTTPTransport(zerolog.Nop(), waprovider.WithBreaker(waprovider.BreakerSettings{MaxFailures: 5, Timeout: time.Minute}))
	resp, err := transport.Do(context.Background(), &waprovider.Request{Method: http.MethodGet, URL: server.URL})
	if err != nil {
		t.Fatalf("expected 5xx to be returned as a response, got %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError || string(resp.Body) != "boom" {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, resp.Body)
	}
}

func TestHTTPTransportBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	transport := waprovider.NewHTTPTransport(zerolog.Nop(), waprovider.WithBreaker(waprovider.BreakerSettings{MaxFailures: 2, Timeout: time.Minute}))
	req := &waprovider.Request{Method: http.MethodGet, URL: server.URL}

	for i := 0; i < 2; i++ {
		if _, err := transport.Do(context.Background(), req); err != nil {
			t.Fatalf("attempt %d: unexpected error %v", i, err)
		}
	}
	if _, err := transport.Do(context.Background(), req); !errors.Is(err, waprovider.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected open breaker to short-circuit, server saw %d calls", got)
	}
}

func TestHTTPTransportRateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := waprovider.NewHTTPTransport(zerolog.Nop(), waprovider.WithRateLimit(0.001, 1))
	req := &waprovider.Request{Method: http.MethodGet, URL: server.URL}
	if _, err := transport.Do(context.Background(), req); err != nil {
		t.Fatalf("first call should use the burst token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := transport.Do(ctx, req); err == nil {
		t.Fatalf("expected rate limiter to reject the second call")
	}
}

func TestHTTPTransportConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	transport := waprovider.NewHTTPTransport(zerolog.Nop())
	if _, err := transport.Do(context.Background(), &waprovider.Request{Method: http.MethodGet, URL: url}); err == nil {
		t.Fatalf("expected connection error")
	}
}
