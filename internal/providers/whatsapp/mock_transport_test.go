package whatsapp_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	waprovider "github.com/example/whatsapp-api-go/internal/providers/whatsapp"
)

func sendRequest() *waprovider.Request {
	return &waprovider.Request{
		Method: http.MethodPost,
		URL:    "http://wa.local/v1/messages",
		Body:   []byte(`{"messaging_product":"whatsapp","type":"text","to":"972543089167","text":{"body":"hi"}}`),
	}
}

func TestMockTransportSuccess(t *testing.T) {
	fixed := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	transport := waprovider.NewMockTransport(zerolog.Nop(), waprovider.WithMockClock(func() time.Time { return fixed }), waprovider.WithLatency(0))

	resp, err := transport.Do(context.Background(), sendRequest())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if resp.Timestamp != fixed {
		t.Fatalf("expected fixed timestamp, got %v", resp.Timestamp)
	}
	if got := gjson.GetBytes(resp.Body, "contacts.0.wa_id").String(); got != "972543089167" {
		t.Fatalf("expected recipient echoed in contacts, got %q", got)
	}
	if id := gjson.GetBytes(resp.Body, "messages.0.id").String(); id == "" {
		t.Fatalf("expected generated message id in %s", resp.Body)
	}
	if n := len(transport.Requests()); n != 1 {
		t.Fatalf("expected 1 recorded request, got %d", n)
	}
}

func TestMockTransportScenarios(t *testing.T) {
	tests := []struct {
		scenario waprovider.Scenario
		status   int
		code     int64
	}{
		{waprovider.ScenarioTransient, http.StatusTooManyRequests, 130429},
		{waprovider.ScenarioPermanent, http.StatusForbidden, 10},
		{waprovider.ScenarioPairingRateLimit, http.StatusBadRequest, 131056},
	}

	transport := waprovider.NewMockTransport(zerolog.Nop(), waprovider.WithLatency(0))
	for _, tt := range tests {
		t.Run(string(tt.scenario), func(t *testing.T) {
			ctx := waprovider.ContextWithScenario(context.Background(), tt.scenario)
			resp, err := transport.Do(ctx, sendRequest())
			if err != nil {
				t.Fatalf("expected response, got error %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
			if code := gjson.GetBytes(resp.Body, "error.code").Int(); code != tt.code {
				t.Fatalf("expected provider code %d, got %d", tt.code, code)
			}
		})
	}
}

func TestMockTransportTimeoutHonoursContext(t *testing.T) {
	transport := waprovider.NewMockTransport(zerolog.Nop(), waprovider.WithScenario(waprovider.ScenarioTimeout), waprovider.WithLatency(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := transport.Do(ctx, sendRequest()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestMockTransportRoutes(t *testing.T) {
	transport := waprovider.NewMockTransport(zerolog.Nop(),
		waprovider.WithLatency(0),
		waprovider.WithRoute(http.MethodGet, "/v1/status", http.StatusOK, `{"success":true,"data":{"status":"init","id":"x"}}`),
	)

	resp, err := transport.Do(context.Background(), &waprovider.Request{Method: http.MethodGet, URL: "http://wa.local/v1/status"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := gjson.GetBytes(resp.Body, "data.status").String(); got != "init" {
		t.Fatalf("expected overridden route, got %s", resp.Body)
	}

	resp, err = transport.Do(context.Background(), &waprovider.Request{Method: http.MethodPost, URL: "http://wa.local/v1/media", Body: []byte("img")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id := gjson.GetBytes(resp.Body, "media.0.id").String(); id == "" {
		t.Fatalf("expected media id, got %s", resp.Body)
	}
}

func TestMockTransportReadReceipt(t *testing.T) {
	transport := waprovider.NewMockTransport(zerolog.Nop(), waprovider.WithLatency(0))
	req := &waprovider.Request{
		Method: http.MethodPost,
		URL:    "http://wa.local/v1/messages",
		Body:   []byte(`{"messaging_product":"whatsapp","status":"read","message_id":"wamid.1"}`),
	}
	resp, err := transport.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gjson.GetBytes(resp.Body, "success").Bool() {
		t.Fatalf("expected success body, got %s", resp.Body)
	}
}
