package models

import "time"

// ChannelWhatsApp is the only channel this service dispatches.
const ChannelWhatsApp = "whatsapp"

// Request kinds accepted on the request topic.
const (
	KindText     = "text"
	KindImage    = "image"
	KindVideo    = "video"
	KindAudio    = "audio"
	KindDocument = "document"
	KindSticker  = "sticker"
	KindButtons  = "buttons"
	KindList     = "list"
	KindTemplate = "template"
	KindReaction = "reaction"
	KindRead     = "read"
)

// BaseRequest captures the envelope attributes shared by every request.
type BaseRequest struct {
	MessageID string            `json:"message_id" validate:"required"`
	TenantID  string            `json:"tenant_id,omitempty"`
	TraceID   string            `json:"trace_id,omitempty"`
	CreatedAt time.Time         `json:"created_at" validate:"required"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// MediaPayload references uploaded media by id or a public link.
type MediaPayload struct {
	ID       string `json:"id,omitempty" validate:"required_without=Link"`
	Link     string `json:"link,omitempty" validate:"omitempty,url"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// ButtonPayload is one quick-reply button.
type ButtonPayload struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title" validate:"required"`
}

// RowPayload is one list row.
type RowPayload struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
}

// ListPayload describes a single-section list message. Button defaults to
// Title when empty.
type ListPayload struct {
	Title  string       `json:"title" validate:"required"`
	Button string       `json:"button,omitempty"`
	Rows   []RowPayload `json:"rows" validate:"required,min=1,dive"`
}

// CurrencyPayload is a localized amount; Amount1000 is the amount times 1000.
type CurrencyPayload struct {
	FallbackValue string `json:"fallback_value" validate:"required"`
	Code          string `json:"code" validate:"required,len=3"`
	Amount1000    int64  `json:"amount_1000"`
}

// ParameterPayload is one template variable.
type ParameterPayload struct {
	Type       string           `json:"type" validate:"required,oneof=text currency date_time image document video payload coupon_code"`
	Text       string           `json:"text,omitempty"`
	Payload    string           `json:"payload,omitempty"`
	CouponCode string           `json:"coupon_code,omitempty"`
	Currency   *CurrencyPayload `json:"currency,omitempty" validate:"omitempty"`
	DateTime   string           `json:"date_time,omitempty"`
	Media      *MediaPayload    `json:"media,omitempty" validate:"omitempty"`
}

// ComponentPayload fills one template section.
type ComponentPayload struct {
	Type       string             `json:"type" validate:"required,oneof=header body button"`
	Index      int                `json:"index,omitempty" validate:"gte=0"`
	Parameters []ParameterPayload `json:"parameters,omitempty" validate:"dive"`
}

// TemplatePayload references an approved template.
type TemplatePayload struct {
	Name       string             `json:"name" validate:"required"`
	Language   string             `json:"language" validate:"required"`
	Components []ComponentPayload `json:"components,omitempty" validate:"dive"`
}

// ReactionPayload reacts to an earlier message.
type ReactionPayload struct {
	MessageID string `json:"message_id" validate:"required"`
	Emoji     string `json:"emoji"`
}

// ReadPayload marks an inbound message as read.
type ReadPayload struct {
	MessageID string `json:"message_id" validate:"required"`
}

// WhatsAppRequest is the record consumed from the request topic. Exactly one
// payload matching Kind is expected.
type WhatsAppRequest struct {
	BaseRequest
	To            string           `json:"to" validate:"required_unless=Kind read"`
	RecipientType string           `json:"recipient_type,omitempty" validate:"omitempty,oneof=individual group"`
	ReplyTo       string           `json:"reply_to,omitempty"`
	PreviewURL    *bool            `json:"preview_url,omitempty"`
	Kind          string           `json:"kind" validate:"required,oneof=text image video audio document sticker buttons list template reaction read"`
	Text          string           `json:"text,omitempty" validate:"required_if=Kind text,required_if=Kind buttons,required_if=Kind list"`
	Media         *MediaPayload    `json:"media,omitempty" validate:"omitempty"`
	Buttons       []ButtonPayload  `json:"buttons,omitempty" validate:"required_if=Kind buttons,dive"`
	List          *ListPayload     `json:"list,omitempty" validate:"required_if=Kind list"`
	Template      *TemplatePayload `json:"template,omitempty" validate:"required_if=Kind template"`
	Reaction      *ReactionPayload `json:"reaction,omitempty" validate:"required_if=Kind reaction"`
	Read          *ReadPayload     `json:"read,omitempty" validate:"required_if=Kind read"`
}

// IsMedia reports whether the request carries a media message.
func (r *WhatsAppRequest) IsMedia() bool {
	switch r.Kind {
	case KindImage, KindVideo, KindAudio, KindDocument, KindSticker:
		return true
	}
	return false
}
