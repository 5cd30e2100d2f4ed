package message

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/whatsapp-api-go/internal/util"
)

// MessagingProduct is the constant product tag sent with every request.
const MessagingProduct = "whatsapp"

// Type tags the populated payload of an outbound message.
type Type string

const (
	TypeText        Type = "text"
	TypeImage       Type = "image"
	TypeVideo       Type = "video"
	TypeAudio       Type = "audio"
	TypeDocument    Type = "document"
	TypeSticker     Type = "sticker"
	TypeContacts    Type = "contacts"
	TypeInteractive Type = "interactive"
	TypeTemplate    Type = "template"
	TypeReaction    Type = "reaction"
)

// RecipientType distinguishes one-to-one and group messages.
type RecipientType string

const (
	RecipientIndividual RecipientType = "individual"
	RecipientGroup      RecipientType = "group"
)

// Message is the outbound envelope. Each constructor populates exactly one
// payload and sets the matching type tag, so the two cannot disagree.
type Message struct {
	typ           Type
	to            string
	recipientType RecipientType
	replyTo       string
	previewURL    *bool

	text        string
	media       Media
	contacts    []Contact
	interactive *Interactive
	template    *Template
	reaction    *Reaction
}

// Option sets envelope metadata.
type Option func(*Message)

// ToGroup addresses the message to a group.
func ToGroup() Option {
	return func(m *Message) { m.recipientType = RecipientGroup }
}

// ReplyTo quotes an earlier message.
func ReplyTo(messageID string) Option {
	return func(m *Message) { m.replyTo = strings.TrimSpace(messageID) }
}

// WithPreviewURL controls link previews for text messages.
func WithPreviewURL(enabled bool) Option {
	return func(m *Message) {
		v := enabled
		m.previewURL = &v
	}
}

func newMessage(typ Type, to string, opts []Option) (Message, error) {
	if strings.TrimSpace(to) == "" {
		return Message{}, required("to")
	}
	recipient, err := util.NormalizeRecipient(to)
	if err != nil {
		return Message{}, err
	}
	m := Message{typ: typ, to: recipient, recipientType: RecipientIndividual}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	if m.recipientType == RecipientIndividual && util.IsGroupRecipient(recipient) {
		m.recipientType = RecipientGroup
	}
	return m, nil
}

// NewText builds a text message.
func NewText(to, body string, opts ...Option) (Message, error) {
	if strings.TrimSpace(body) == "" {
		return Message{}, required("text.body")
	}
	if err := checkLength("text.body", body, maxTextBodyLength); err != nil {
		return Message{}, err
	}
	m, err := newMessage(TypeText, to, opts)
	if err != nil {
		return Message{}, err
	}
	m.text = body
	return m, nil
}

// NewMediaMessage builds an image, video, audio, document or sticker message;
// the type follows the media kind.
func NewMediaMessage(to string, media Media, opts ...Option) (Message, error) {
	if media.IsZero() {
		return Message{}, ErrInvalidMediaSource
	}
	m, err := newMessage(Type(media.Kind()), to, opts)
	if err != nil {
		return Message{}, err
	}
	m.media = media
	return m, nil
}

// NewInteractiveMessage wraps a validated interactive payload.
func NewInteractiveMessage(to string, interactive Interactive, opts ...Option) (Message, error) {
	if interactive.typ == "" {
		return Message{}, required("interactive")
	}
	m, err := newMessage(TypeInteractive, to, opts)
	if err != nil {
		return Message{}, err
	}
	ic := interactive
	m.interactive = &ic
	return m, nil
}

// NewTemplateMessage wraps a template built with NewTemplate.
func NewTemplateMessage(to string, tpl Template, opts ...Option) (Message, error) {
	if tpl.Name == "" || tpl.Language.Code == "" {
		return Message{}, required("template")
	}
	m, err := newMessage(TypeTemplate, to, opts)
	if err != nil {
		return Message{}, err
	}
	tc := tpl
	m.template = &tc
	return m, nil
}

// NewReactionMessage wraps a reaction built with NewReaction.
func NewReactionMessage(to string, reaction Reaction, opts ...Option) (Message, error) {
	if reaction.MessageID == "" {
		return Message{}, required("reaction.message_id")
	}
	m, err := newMessage(TypeReaction, to, opts)
	if err != nil {
		return Message{}, err
	}
	rc := reaction
	m.reaction = &rc
	return m, nil
}

// NewContactsMessage sends one or more contact cards.
func NewContactsMessage(to string, contacts []Contact, opts ...Option) (Message, error) {
	if len(contacts) == 0 {
		return Message{}, required("contacts")
	}
	for idx, c := range contacts {
		if err := c.validate(); err != nil {
			return Message{}, fmt.Errorf("contacts[%d]: %w", idx, err)
		}
	}
	m, err := newMessage(TypeContacts, to, opts)
	if err != nil {
		return Message{}, err
	}
	m.contacts = append([]Contact(nil), contacts...)
	return m, nil
}

// Type returns the envelope type tag.
func (m Message) Type() Type { return m.typ }

// To returns the recipient.
func (m Message) To() string { return m.to }

// RecipientType returns individual or group.
func (m Message) RecipientType() RecipientType { return m.recipientType }

// PreviewURL returns the explicit preview setting, if any.
func (m Message) PreviewURL() (bool, bool) {
	if m.previewURL == nil {
		return false, false
	}
	return *m.previewURL, true
}

// WithDefaultPreviewURL returns a copy with preview_url set to enabled when
// the message does not set it. Only text messages carry the flag.
func (m Message) WithDefaultPreviewURL(enabled bool) Message {
	if m.typ != TypeText || m.previewURL != nil {
		return m
	}
	v := enabled
	m.previewURL = &v
	return m
}

// IsZero reports whether m was never constructed.
func (m Message) IsZero() bool { return m.typ == "" }

type contextWire struct {
	MessageID string `json:"message_id"`
}

type textWire struct {
	Body string `json:"body"`
}

type envelopeWire struct {
	MessagingProduct string        `json:"messaging_product"`
	RecipientType    RecipientType `json:"recipient_type,omitempty"`
	To               string        `json:"to"`
	Type             Type          `json:"type"`
	Context          *contextWire  `json:"context,omitempty"`
	PreviewURL       *bool         `json:"preview_url,omitempty"`
	Text             *textWire     `json:"text,omitempty"`
	Image            *Media        `json:"image,omitempty"`
	Video            *Media        `json:"video,omitempty"`
	Audio            *Media        `json:"audio,omitempty"`
	Document         *Media        `json:"document,omitempty"`
	Sticker          *Media        `json:"sticker,omitempty"`
	Contacts         []Contact     `json:"contacts,omitempty"`
	Interactive      *Interactive  `json:"interactive,omitempty"`
	Template         *Template     `json:"template,omitempty"`
	Reaction         *Reaction     `json:"reaction,omitempty"`
}

// MarshalJSON renders the provider envelope. recipient_type is omitted for
// individual recipients, where the provider treats it as the default.
func (m Message) MarshalJSON() ([]byte, error) {
	if m.typ == "" {
		return nil, required("type")
	}
	wire := envelopeWire{
		MessagingProduct: MessagingProduct,
		To:               m.to,
		Type:             m.typ,
		PreviewURL:       m.previewURL,
	}
	if m.recipientType == RecipientGroup {
		wire.RecipientType = RecipientGroup
	}
	if m.replyTo != "" {
		wire.Context = &contextWire{MessageID: m.replyTo}
	}

	media := m.media
	switch m.typ {
	case TypeText:
		wire.Text = &textWire{Body: m.text}
	case TypeImage:
		wire.Image = &media
	case TypeVideo:
		wire.Video = &media
	case TypeAudio:
		wire.Audio = &media
	case TypeDocument:
		wire.Document = &media
	case TypeSticker:
		wire.Sticker = &media
	case TypeContacts:
		wire.Contacts = m.contacts
	case TypeInteractive:
		wire.Interactive = m.interactive
	case TypeTemplate:
		wire.Template = m.template
	case TypeReaction:
		wire.Reaction = m.reaction
	default:
		return nil, invalidf("unsupported message type %q", m.typ)
	}
	return json.Marshal(wire)
}
