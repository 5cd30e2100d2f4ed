package whatsappvalidator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	common "github.com/example/whatsapp-api-go/internal/adapters/common"
	"github.com/example/whatsapp-api-go/internal/config"
	"github.com/example/whatsapp-api-go/internal/models"
	"github.com/example/whatsapp-api-go/internal/util"
	"github.com/example/whatsapp-api-go/internal/whatsapp/message"
)

// Validator decodes WhatsApp request records, validates them and builds the
// outbound envelope. Any envelope construction error is a validation failure.
type Validator struct {
	logger   zerolog.Logger
	cfg      config.ValidationConfig
	validate *validator.Validate
}

// New constructs a Validator.
func New(cfg config.ValidationConfig, logger zerolog.Logger) *Validator {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Validator{logger: logger, cfg: cfg, validate: validator.New()}
}

// ParseAndValidate parses the payload and returns a validated message. On a
// validation failure the returned message is partially populated when the
// payload decoded far enough to identify it.
func (v *Validator) ParseAndValidate(ctx context.Context, channel string, payload []byte) (*common.ValidatedMessage, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if len(payload) == 0 {
		return nil, errors.New("whatsapp validator: payload is empty")
	}
	if channel != "" && !strings.EqualFold(channel, models.ChannelWhatsApp) {
		return nil, fmt.Errorf("whatsapp validator: unsupported channel %q", channel)
	}

	var req models.WhatsAppRequest
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("whatsapp validator: decode: %w", err)
	}

	partial := &common.ValidatedMessage{
		Channel:   models.ChannelWhatsApp,
		MessageID: strings.TrimSpace(req.MessageID),
		TraceID:   strings.TrimSpace(req.TraceID),
		TenantID:  strings.TrimSpace(req.TenantID),
		Kind:      req.Kind,
		Request:   &req,
	}

	if err := v.validate.Struct(&req); err != nil {
		return partial, fmt.Errorf("whatsapp validator: %w", err)
	}
	if _, err := util.ParseUUIDv4(req.MessageID); err != nil {
		return partial, fmt.Errorf("whatsapp validator: message_id: %w", err)
	}

	meta, err := util.ValidateMetadata(req.Meta, v.cfg.MetaMaxEntries, v.cfg.MetaMaxKeyLen, v.cfg.MetaMaxValueLen)
	if err != nil {
		return partial, fmt.Errorf("whatsapp validator: metadata: %w", err)
	}
	req.Meta = meta
	req.CreatedAt = req.CreatedAt.UTC()

	validated := *partial
	validated.CreatedAt = req.CreatedAt
	validated.Metadata = meta
	validated.RawPayload = append([]byte(nil), payload...)

	if req.Kind == models.KindRead {
		receipt, err := message.NewReadReceipt(req.Read.MessageID)
		if err != nil {
			return partial, fmt.Errorf("whatsapp validator: read: %w", err)
		}
		validated.ReadMessageID = receipt.MessageID
		return &validated, nil
	}

	envelope, err := BuildMessage(&req)
	if err != nil {
		v.logger.Debug().
			Str("message_id", partial.MessageID).
			Str("kind", req.Kind).
			Err(err).
			Msg("whatsapp validator: envelope rejected")
		return partial, fmt.Errorf("whatsapp validator: %s: %w", req.Kind, err)
	}
	validated.Envelope = envelope
	return &validated, nil
}

// BuildMessage converts a decoded request into an outbound envelope. Read
// receipts are not envelopes and are rejected.
func BuildMessage(req *models.WhatsAppRequest) (message.Message, error) {
	if req == nil {
		return message.Message{}, errors.New("request is nil")
	}

	var opts []message.Option
	if req.RecipientType == string(message.RecipientGroup) {
		opts = append(opts, message.ToGroup())
	}
	if strings.TrimSpace(req.ReplyTo) != "" {
		opts = append(opts, message.ReplyTo(req.ReplyTo))
	}

	switch req.Kind {
	case models.KindText:
		if req.PreviewURL != nil {
			opts = append(opts, message.WithPreviewURL(*req.PreviewURL))
		}
		return message.NewText(req.To, req.Text, opts...)

	case models.KindImage, models.KindVideo, models.KindAudio, models.KindDocument, models.KindSticker:
		if req.Media == nil {
			return message.Message{}, message.ErrInvalidMediaSource
		}
		media, err := buildMedia(message.MediaKind(req.Kind), req.Media)
		if err != nil {
			return message.Message{}, err
		}
		return message.NewMediaMessage(req.To, media, opts...)

	case models.KindButtons:
		buttons := make([]message.ReplyButton, 0, len(req.Buttons))
		for _, b := range req.Buttons {
			buttons = append(buttons, message.ReplyButton{ID: b.ID, Title: b.Title})
		}
		interactive, err := message.NewButtons(req.Text, buttons)
		if err != nil {
			return message.Message{}, err
		}
		return message.NewInteractiveMessage(req.To, interactive, opts...)

	case models.KindList:
		rows := make([]message.Row, 0, len(req.List.Rows))
		for _, r := range req.List.Rows {
			rows = append(rows, message.Row{ID: r.ID, Title: r.Title, Description: r.Description})
		}
		button := req.List.Button
		if strings.TrimSpace(button) == "" {
			button = req.List.Title
		}
		interactive, err := message.NewList(req.Text, button, []message.Section{{Title: req.List.Title, Rows: rows}})
		if err != nil {
			return message.Message{}, err
		}
		return message.NewInteractiveMessage(req.To, interactive, opts...)

	case models.KindTemplate:
		tpl, err := buildTemplate(req.Template)
		if err != nil {
			return message.Message{}, err
		}
		return message.NewTemplateMessage(req.To, tpl, opts...)

	case models.KindReaction:
		reaction, err := message.NewReaction(req.Reaction.MessageID, req.Reaction.Emoji)
		if err != nil {
			return message.Message{}, err
		}
		return message.NewReactionMessage(req.To, reaction, opts...)

	default:
		return message.Message{}, fmt.Errorf("unsupported kind %q", req.Kind)
	}
}

func buildMedia(kind message.MediaKind, p *models.MediaPayload) (message.Media, error) {
	src := message.Source{ID: strings.TrimSpace(p.ID), Link: strings.TrimSpace(p.Link)}
	var opts []message.MediaOption
	if p.Caption != "" {
		opts = append(opts, message.WithCaption(p.Caption))
	}
	if p.Filename != "" {
		opts = append(opts, message.WithFilename(p.Filename))
	}
	return message.NewMedia(kind, src, opts...)
}

func buildTemplate(p *models.TemplatePayload) (message.Template, error) {
	components := make([]message.Component, 0, len(p.Components))
	for idx, c := range p.Components {
		params := make([]message.Parameter, 0, len(c.Parameters))
		for pIdx, raw := range c.Parameters {
			param, err := buildParameter(raw)
			if err != nil {
				return message.Template{}, fmt.Errorf("template.components[%d].parameters[%d]: %w", idx, pIdx, err)
			}
			params = append(params, param)
		}

		switch message.ComponentType(c.Type) {
		case message.ComponentHeader:
			components = append(components, message.HeaderComponent(params...))
		case message.ComponentBody:
			components = append(components, message.BodyComponent(params...))
		case message.ComponentButton:
			if len(params) == 0 {
				return message.Template{}, fmt.Errorf("template.components[%d]: button components need a parameter", idx)
			}
			component, err := message.ButtonComponent(c.Index, params[0], params[1:]...)
			if err != nil {
				return message.Template{}, fmt.Errorf("template.components[%d]: %w", idx, err)
			}
			components = append(components, component)
		default:
			return message.Template{}, fmt.Errorf("template.components[%d]: unsupported type %q", idx, c.Type)
		}
	}
	return message.NewTemplate(p.Name, p.Language, components...)
}

func buildParameter(p models.ParameterPayload) (message.Parameter, error) {
	switch message.ParameterType(p.Type) {
	case message.ParamText:
		return message.TextParam(p.Text), nil
	case message.ParamPayload:
		return message.PayloadParam(p.Payload), nil
	case message.ParamCouponCode:
		return message.CouponCodeParam(p.CouponCode), nil
	case message.ParamDateTime:
		return message.DateTimeParam(p.DateTime), nil
	case message.ParamCurrency:
		if p.Currency == nil {
			return message.Parameter{}, errors.New("currency parameter needs a currency object")
		}
		return message.CurrencyParam(p.Currency.FallbackValue, p.Currency.Code, p.Currency.Amount1000), nil
	case message.ParamImage, message.ParamDocument, message.ParamVideo:
		if p.Media == nil {
			return message.Parameter{}, message.ErrInvalidMediaSource
		}
		media, err := buildMedia(message.MediaKind(p.Type), p.Media)
		if err != nil {
			return message.Parameter{}, err
		}
		return message.MediaParam(media)
	default:
		return message.Parameter{}, fmt.Errorf("unsupported parameter type %q", p.Type)
	}
}
