package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	common "github.com/example/whatsapp-api-go/internal/adapters/common"
	"github.com/example/whatsapp-api-go/internal/models"
	waprovider "github.com/example/whatsapp-api-go/internal/providers/whatsapp"
	waclient "github.com/example/whatsapp-api-go/internal/whatsapp"
	"github.com/example/whatsapp-api-go/internal/whatsapp/message"
	"github.com/example/whatsapp-api-go/internal/whatsapp/response"
	"github.com/example/whatsapp-api-go/internal/whatsapp/retry"
)

// Provider statuses reported in ProviderResponse.Status.
const (
	StatusSent        = "sent"
	StatusRejected    = "rejected"
	StatusRateLimited = "rate_limited"
	StatusUnavailable = "unavailable"
)

// Sender is the part of the client the adapter drives.
type Sender interface {
	Send(ctx context.Context, msg message.Message) (response.Response, error)
	MarkAsRead(ctx context.Context, messageID string) (response.Response, error)
}

// Option customises adapter behaviour.
type Option func(*Adapter)

// WithRawBodyLimit overrides the maximum number of characters retained from the provider body.
func WithRawBodyLimit(limit int) Option {
	return func(a *Adapter) {
		if limit > 0 {
			a.maxRawChars = limit
		}
	}
}

// Adapter implements common.Adapter on top of the WhatsApp client.
type Adapter struct {
	logger      zerolog.Logger
	sender      Sender
	maxRawChars int
}

// NewAdapter constructs a WhatsApp adapter.
func NewAdapter(sender Sender, logger zerolog.Logger, opts ...Option) (*Adapter, error) {
	if sender == nil {
		return nil, errors.New("whatsapp adapter: client dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	a := &Adapter{
		logger:      logger,
		sender:      sender,
		maxRawChars: common.DefaultRawBodyLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Send delivers the validated envelope, or the read receipt, through the
// client. Failures the retry policy may still recover are wrapped as
// transient, everything else as permanent. Context errors are returned as is.
func (a *Adapter) Send(ctx context.Context, msg *common.ValidatedMessage) (*common.ProviderResponse, error) {
	if msg == nil {
		return nil, common.WrapPermanent(errors.New("whatsapp adapter: message is nil"))
	}
	if scenario := strings.TrimSpace(msg.Metadata["scenario"]); scenario != "" {
		ctx = waprovider.ContextWithScenario(ctx, waprovider.Scenario(scenario))
	}

	var (
		resp response.Response
		err  error
	)
	switch {
	case msg.ReadMessageID != "":
		resp, err = a.sender.MarkAsRead(ctx, msg.ReadMessageID)
	case msg.Envelope.IsZero():
		return nil, common.WrapPermanent(errors.New("whatsapp adapter: message has no envelope"))
	default:
		resp, err = a.sender.Send(ctx, msg.Envelope)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		classified, status := classify(err)
		out := a.buildErrorResponse(err, status)
		a.logger.Warn().
			Str("message_id", msg.MessageID).
			Str("channel", models.ChannelWhatsApp).
			Str("provider_status", out.Status).
			Int("http_status", out.HTTPStatus).
			Err(err).
			Msg("whatsapp adapter send failed")
		return out, classified
	}

	out := a.buildSuccessResponse(resp)
	a.logger.Debug().
		Str("message_id", msg.MessageID).
		Str("channel", models.ChannelWhatsApp).
		Str("wamid", out.WAMID).
		Msg("whatsapp adapter send succeeded")
	return out, nil
}

func (a *Adapter) buildSuccessResponse(resp response.Response) *common.ProviderResponse {
	out := &common.ProviderResponse{Status: StatusSent, Message: "sent"}
	if resp == nil {
		return out
	}
	if sent, ok := resp.(*response.Message); ok {
		out.WAMID = sent.MessageID()
	}
	if m := resp.Outcome().Message; m != "" {
		out.Message = m
	}
	if raw, err := json.Marshal(resp); err == nil {
		out.Raw = common.TruncateRaw(string(raw), a.maxRawChars)
	}
	out.Meta = map[string]string{"response_kind": string(resp.Kind())}
	return out
}

func (a *Adapter) buildErrorResponse(err error, status string) *common.ProviderResponse {
	httpStatus, code := common.RetryInputs(err)
	out := &common.ProviderResponse{
		Status:     status,
		HTTPStatus: httpStatus,
		Code:       optionalInt(code),
		Message:    err.Error(),
	}

	var (
		he *waclient.HTTPStatusError
		pe *waclient.ProviderError
	)
	switch {
	case errors.As(err, &he):
		out.Raw = common.TruncateRaw(string(he.Body), a.maxRawChars)
	case errors.As(err, &pe):
		out.Raw = common.TruncateRaw(string(pe.Body), a.maxRawChars)
		if pe.API.FBTraceID != "" {
			out.Meta = map[string]string{"fbtrace_id": pe.API.FBTraceID}
		}
	}
	return out
}

// classify maps a client error to the worker's transient/permanent split and
// a provider status. Retryable failures stay transient unless the retry policy
// refuses them outright.
func classify(err error) (error, string) {
	if !waclient.Retryable(err) {
		return common.WrapPermanent(err), StatusRejected
	}
	httpStatus, code := common.RetryInputs(err)
	if retry.Decide(1, httpStatus, code).Stop {
		return common.WrapPermanent(err), StatusRejected
	}
	switch {
	case httpStatus == http.StatusTooManyRequests, code == retry.CodePairingRateLimit:
		return common.WrapTransient(err), StatusRateLimited
	default:
		return common.WrapTransient(err), StatusUnavailable
	}
}

func optionalInt(code int) *int {
	if code == 0 {
		return nil
	}
	c := code
	return &c
}
