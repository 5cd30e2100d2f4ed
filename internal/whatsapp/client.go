// Package whatsapp is a client for the WhatsApp Cloud and self-hosted APIs.
package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	waprovider "github.com/example/whatsapp-api-go/internal/providers/whatsapp"
	"github.com/example/whatsapp-api-go/internal/whatsapp/response"
	"github.com/example/whatsapp-api-go/internal/whatsapp/retry"
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "whatsapp-api-go/1.0"

// Config describes the API account.
type Config struct {
	Endpoint   string
	Token      string
	WaID       string
	UseToken   bool
	UserAgent  string
	PreviewURL bool
}

// Option customises the client.
type Option func(*Client)

// WithRetries sets how many times a retryable failure is retried. Zero
// disables retries; values above retry.MaxRetries are capped by the policy.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.retries = n
	}
}

// WithSleep replaces the wait between retries. Intended for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// Client is safe for concurrent use.
type Client struct {
	logger    zerolog.Logger
	transport waprovider.Transport
	endpoint  string
	waID      string
	useToken  bool
	userAgent string
	preview   bool
	retries   int
	sleep     func(ctx context.Context, d time.Duration) error

	// loginMu serialises Login and Logout so the session check and the token
	// write happen as one step.
	loginMu sync.Mutex
	mu      sync.RWMutex
	token   string
}

// New constructs a client that sends through transport.
func New(cfg Config, transport waprovider.Transport, logger zerolog.Logger, opts ...Option) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("whatsapp client: endpoint is required")
	}
	if transport == nil {
		return nil, errors.New("whatsapp client: transport is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	c := &Client{
		logger:    logger.With().Str("component", "whatsapp_client").Logger(),
		transport: transport,
		endpoint:  endpoint,
		waID:      strings.TrimSpace(cfg.WaID),
		useToken:  cfg.UseToken,
		userAgent: strings.TrimSpace(cfg.UserAgent),
		preview:   cfg.PreviewURL,
		retries:   retry.MaxRetries,
		sleep:     sleepContext,
		token:     strings.TrimSpace(cfg.Token),
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// LoggedIn reports whether the client holds a usable session: a token when
// token auth is enabled, or a fixed wa_id.
func (c *Client) LoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return (c.useToken && c.token != "") || c.waID != ""
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) requireLogin() error {
	if !c.LoggedIn() {
		return ErrNotLoggedIn
	}
	return nil
}

type accountInfo struct {
	WebhookURL        string `json:"webhook_url,omitempty"`
	OnlyStatusUpdates bool   `json:"only_status_updates"`
}

// Login creates a session on a self-hosted API and stores its token.
func (c *Client) Login(ctx context.Context, webhookURL string, onlyStatusUpdates bool) (*response.Login, error) {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	if c.LoggedIn() {
		return nil, ErrAlreadyLoggedIn
	}
	body, err := json.Marshal(accountInfo{WebhookURL: strings.TrimSpace(webhookURL), OnlyStatusUpdates: onlyStatusUpdates})
	if err != nil {
		return nil, fmt.Errorf("whatsapp client: encode account info: %w", err)
	}
	resp, err := c.call(ctx, http.MethodPost, "/accounts", body, "application/json")
	if err != nil {
		return nil, err
	}
	login, err := expect[*response.Login](resp, response.KindLogin)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.token = login.Data.Token
	c.mu.Unlock()
	c.logger.Info().Str("account_id", login.Data.ID).Msg("logged in")
	return login, nil
}

// Logout ends the session and forgets the token.
func (c *Client) Logout(ctx context.Context) (*response.Logout, error) {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, http.MethodDelete, "/accounts", nil, "")
	if err != nil {
		return nil, err
	}
	logout, err := expect[*response.Logout](resp, response.KindLogout)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	c.logger.Info().Msg("logged out")
	return logout, nil
}

// Status reports the session state. It does not require a session.
func (c *Client) Status(ctx context.Context) (*response.Status, error) {
	resp, err := c.call(ctx, http.MethodGet, "/status", nil, "")
	if err != nil {
		return nil, err
	}
	// Without a session the API answers with no data at all, which parses as
	// logout (data:null) or generic (data absent).
	if result, ok := succeededWithoutData(resp, false); ok {
		return &response.Status{Result: result}, nil
	}
	return expect[*response.Status](resp, response.KindStatus)
}

// Groups lists the groups the account belongs to.
func (c *Client) Groups(ctx context.Context) (*response.Groups, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, http.MethodGet, "/groups", nil, "")
	if err != nil {
		return nil, err
	}
	// An empty list carries no group shape. Anything else that failed to parse
	// as groups is reported rather than dropped.
	if result, ok := succeededWithoutData(resp, true); ok {
		return &response.Groups{Result: result, Data: []response.Group{}}, nil
	}
	return expect[*response.Groups](resp, response.KindGroups)
}

// succeededWithoutData matches a successful logout or generic response whose
// data is absent or null, or an empty array when emptyList is set.
func succeededWithoutData(resp response.Response, emptyList bool) (response.Result, bool) {
	switch r := resp.(type) {
	case *response.Logout:
		return r.Result, r.Succeeded()
	case *response.Generic:
		if !r.Succeeded() {
			return response.Result{}, false
		}
		data := gjson.ParseBytes(r.Data)
		switch {
		case data.Type == gjson.Null:
			return r.Result, true
		case emptyList && data.IsArray() && len(data.Array()) == 0:
			return r.Result, true
		}
	}
	return response.Result{}, false
}

func expect[T response.Response](resp response.Response, want response.Kind) (T, error) {
	v, ok := resp.(T)
	if !ok {
		var zero T
		return zero, &UnexpectedResponseError{Want: want, Response: resp}
	}
	return v, nil
}

// call performs one logical request, retrying retryable failures per the
// retry policy.
func (c *Client) call(ctx context.Context, method, path string, body []byte, contentType string) (response.Response, error) {
	for attempt := 1; ; attempt++ {
		resp, err := c.do(ctx, method, path, body, contentType)
		if err == nil {
			return resp, nil
		}
		if !Retryable(err) || attempt > c.retries || ctx.Err() != nil {
			return nil, err
		}

		status, code := RetryInputs(err)
		decision := retry.Decide(attempt, status, code)
		if decision.Stop {
			return nil, err
		}
		c.logger.Info().
			Err(err).
			Str("method", method).
			Str("path", path).
			Int("attempt", attempt).
			Dur("delay", decision.Duration()).
			Msg("retrying whatsapp request")
		if serr := c.sleep(ctx, decision.Duration()); serr != nil {
			return nil, err
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) (response.Response, error) {
	req := &waprovider.Request{
		Method: method,
		URL:    c.endpoint + path,
		Header: c.headers(contentType),
		Body:   body,
	}
	c.logger.Debug().Str("method", method).Str("path", path).Int("bytes", len(body)).Msg("whatsapp request")

	raw, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	parsed, perr := response.Parse(raw.Body)
	if raw.StatusCode < 200 || raw.StatusCode > 299 {
		return nil, &HTTPStatusError{
			Status:   raw.StatusCode,
			Body:     raw.Body,
			Code:     providerCode(parsed, raw.Body),
			Response: parsed,
		}
	}
	if perr != nil {
		c.logger.Warn().Err(perr).Str("path", path).Msg("unparsable whatsapp response")
		return nil, perr
	}
	if response.IsFallback(parsed) {
		c.logger.Warn().Str("path", path).Bytes("body", raw.Body).Msg("whatsapp response matched no specific shape")
	}

	out := parsed.Outcome()
	if out.Error != nil {
		return nil, &ProviderError{Status: raw.StatusCode, API: *out.Error, Body: raw.Body}
	}
	if _, isText := parsed.(*response.RawText); isText {
		return parsed, nil
	}
	if !parsed.Succeeded() {
		return nil, &RequestError{
			Message:  out.Message,
			Data:     json.RawMessage(gjson.GetBytes(raw.Body, "data").Raw),
			Response: parsed,
		}
	}
	return parsed, nil
}

func (c *Client) headers(contentType string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", c.userAgent)
	h.Set("Accept", "application/json")
	if c.waID != "" {
		h.Set("X-Wa-Id", c.waID)
	}
	if token := c.Token(); token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return h
}

func providerCode(parsed response.Response, body []byte) int {
	if parsed != nil {
		if apiErr := parsed.Outcome().Error; apiErr != nil {
			return apiErr.Code
		}
	}
	return int(gjson.GetBytes(body, "error.code").Int())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
