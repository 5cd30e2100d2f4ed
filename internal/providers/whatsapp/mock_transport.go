package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Scenario enumerates supported behaviours for the mock transport.
type Scenario string

const (
	ScenarioSuccess          Scenario = "success"
	ScenarioTransient        Scenario = "transient"
	ScenarioPermanent        Scenario = "permanent"
	ScenarioTimeout          Scenario = "timeout"
	ScenarioPairingRateLimit Scenario = "pairing_rate_limit"
)

type scenarioKey struct{}

// ContextWithScenario makes the mock transport answer calls made with ctx
// according to s instead of its default scenario.
func ContextWithScenario(ctx context.Context, s Scenario) context.Context {
	if strings.TrimSpace(string(s)) == "" {
		return ctx
	}
	return context.WithValue(ctx, scenarioKey{}, Scenario(strings.ToLower(strings.TrimSpace(string(s)))))
}

func scenarioFromContext(ctx context.Context) (Scenario, bool) {
	s, ok := ctx.Value(scenarioKey{}).(Scenario)
	return s, ok
}

// MockOption customises the mock transport at construction time.
type MockOption func(*MockTransport)

// WithScenario overrides the default scenario.
func WithScenario(s Scenario) MockOption {
	return func(m *MockTransport) {
		m.defaultScenario = s
	}
}

// WithLatency sets the artificial latency inserted before responding.
func WithLatency(d time.Duration) MockOption {
	return func(m *MockTransport) {
		if d < 0 {
			d = 0
		}
		m.latency = d
	}
}

// WithMockClock swaps out the clock for deterministic timestamps in tests.
func WithMockClock(now func() time.Time) MockOption {
	return func(m *MockTransport) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRoute answers method+path with a fixed status and body, ahead of the
// built-in routes.
func WithRoute(method, path string, status int, body string) MockOption {
	return func(m *MockTransport) {
		m.routes[routeKey(method, path)] = mockRoute{status: status, body: body}
	}
}

type mockRoute struct {
	status int
	body   string
}

// MockTransport is a deterministic in-memory stand-in for the WhatsApp API.
// It records every request it receives.
type MockTransport struct {
	logger          zerolog.Logger
	defaultScenario Scenario
	latency         time.Duration
	now             func() time.Time
	routes          map[string]mockRoute

	mu       sync.Mutex
	rnd      *rand.Rand
	requests []Request
}

// NewMockTransport constructs a new mock transport.
func NewMockTransport(logger zerolog.Logger, opts ...MockOption) *MockTransport {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	m := &MockTransport{
		logger:          logger,
		defaultScenario: ScenarioSuccess,
		latency:         25 * time.Millisecond,
		now:             time.Now,
		routes:          make(map[string]mockRoute),
		rnd:             rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Requests returns a copy of the requests received so far.
func (m *MockTransport) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Do simulates a WhatsApp API call.
func (m *MockTransport) Do(ctx context.Context, req *Request) (*RawResponse, error) {
	if req == nil {
		return nil, errors.New("whatsapp mock: request is required")
	}

	m.mu.Lock()
	m.requests = append(m.requests, cloneRequest(req))
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	scenario := m.defaultScenario
	if s, ok := scenarioFromContext(ctx); ok {
		scenario = s
	}

	switch scenario {
	case ScenarioSuccess:
		return m.success(req), nil
	case ScenarioTransient:
		return m.respond(http.StatusTooManyRequests, cloudError("mock: rate limited", 130429)), nil
	case ScenarioPermanent:
		return m.respond(http.StatusForbidden, cloudError("mock: permission denied", 10)), nil
	case ScenarioPairingRateLimit:
		return m.respond(http.StatusBadRequest, cloudError("mock: pair rate limit hit", 131056)), nil
	case ScenarioTimeout:
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, errors.New("whatsapp mock: timeout")
		}
	default:
		return nil, fmt.Errorf("whatsapp mock: unknown scenario %q", scenario)
	}
}

func (m *MockTransport) success(req *Request) *RawResponse {
	path := req.URL
	if u, err := url.Parse(req.URL); err == nil {
		path = u.Path
	}
	if r, ok := m.routes[routeKey(req.Method, path)]; ok {
		return m.respond(r.status, r.body)
	}

	switch {
	case req.Method == http.MethodPost && strings.HasSuffix(path, "/messages"):
		if gjson.GetBytes(req.Body, "status").String() == "read" {
			return m.respond(http.StatusOK, `{"success":true}`)
		}
		to := gjson.GetBytes(req.Body, "to").String()
		return m.respondJSON(http.StatusOK, map[string]any{
			"messaging_product": "whatsapp",
			"contacts":          []map[string]string{{"input": to, "wa_id": to}},
			"messages":          []map[string]string{{"id": m.generateID("wamid.")}},
		})
	case req.Method == http.MethodPost && strings.HasSuffix(path, "/media"):
		return m.respondJSON(http.StatusOK, map[string]any{
			"media": []map[string]string{{"id": m.generateID("media-")}},
		})
	case req.Method == http.MethodPost && strings.HasSuffix(path, "/accounts"):
		return m.respondJSON(http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]string{
				"id":    m.generateID("acc-"),
				"code":  "2@mock",
				"token": m.generateID("tok-"),
				"image": "",
			},
		})
	case req.Method == http.MethodDelete && strings.HasSuffix(path, "/accounts"):
		return m.respond(http.StatusOK, `{"success":true,"data":null}`)
	case req.Method == http.MethodGet && strings.HasSuffix(path, "/status"):
		return m.respond(http.StatusOK, `{"success":true,"data":{"status":"connected","id":"mock","whatsapp_name":"Mock"}}`)
	case req.Method == http.MethodGet && strings.HasSuffix(path, "/groups"):
		return m.respond(http.StatusOK, `{"success":true,"data":[{"id":"120363025246125486@g.us","name":"Mock group","owner":"972543089167@s.whatsapp.net","created":"2024-01-01T00:00:00Z"}]}`)
	default:
		return m.respond(http.StatusOK, `{"success":true}`)
	}
}

func (m *MockTransport) respond(status int, body string) *RawResponse {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return &RawResponse{
		StatusCode: status,
		Header:     header,
		Body:       []byte(body),
		Timestamp:  m.now(),
	}
}

func (m *MockTransport) respondJSON(status int, v any) *RawResponse {
	data, err := json.Marshal(v)
	if err != nil {
		m.logger.Error().Err(err).Msg("whatsapp mock: encode response")
		return m.respond(http.StatusInternalServerError, "")
	}
	return m.respond(status, string(data))
}

func (m *MockTransport) generateID(prefix string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("%s%d", prefix, m.rnd.Int63())
}

func cloudError(message string, code int) string {
	data, _ := json.Marshal(map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "OAuthException",
			"code":    code,
		},
	})
	return string(data)
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

func cloneRequest(req *Request) Request {
	return Request{
		Method: req.Method,
		URL:    req.URL,
		Header: req.Header.Clone(),
		Body:   append([]byte(nil), req.Body...),
	}
}
