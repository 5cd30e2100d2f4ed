package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/example/whatsapp-api-go/internal/whatsapp/message"
	"github.com/example/whatsapp-api-go/internal/whatsapp/response"
)

// Send posts msg to /messages. A text message without an explicit preview_url
// takes the configured default.
func (c *Client) Send(ctx context.Context, msg message.Message) (response.Response, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	if msg.IsZero() {
		return nil, fmt.Errorf("whatsapp client: %w", message.ErrInvalidField)
	}
	if c.preview {
		msg = msg.WithDefaultPreviewURL(true)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("whatsapp client: encode message: %w", err)
	}
	return c.call(ctx, http.MethodPost, "/messages", body, "application/json")
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, text string, opts ...message.Option) (response.Response, error) {
	msg, err := message.NewText(to, text, opts...)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, msg)
}

// SendInteractive sends a prebuilt interactive payload.
func (c *Client) SendInteractive(ctx context.Context, to string, interactive message.Interactive, opts ...message.Option) (response.Response, error) {
	msg, err := message.NewInteractiveMessage(to, interactive, opts...)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, msg)
}

// SendButtons sends up to three reply buttons under body. Reply buttons carry
// only an id and a title; the Cloud API has no per-button description, so use
// SendList when options need one.
func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []message.ReplyButton) (response.Response, error) {
	interactive, err := message.NewButtons(body, buttons)
	if err != nil {
		return nil, err
	}
	return c.SendInteractive(ctx, to, interactive)
}

// SendList sends a single-section list. The section is titled title and the
// open button is labelled button, or title when button is empty.
func (c *Client) SendList(ctx context.Context, to, body, title string, rows []message.Row, button string) (response.Response, error) {
	if strings.TrimSpace(button) == "" {
		button = title
	}
	interactive, err := message.NewList(body, button, []message.Section{{Title: title, Rows: rows}})
	if err != nil {
		return nil, err
	}
	return c.SendInteractive(ctx, to, interactive)
}

// SendMedia sends media of the given kind.
func (c *Client) SendMedia(ctx context.Context, to string, kind message.MediaKind, src message.Source, opts ...message.MediaOption) (response.Response, error) {
	media, err := message.NewMedia(kind, src, opts...)
	if err != nil {
		return nil, err
	}
	msg, err := message.NewMediaMessage(to, media)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, msg)
}

func (c *Client) SendImage(ctx context.Context, to string, src message.Source, opts ...message.MediaOption) (response.Response, error) {
	return c.SendMedia(ctx, to, message.MediaImage, src, opts...)
}

func (c *Client) SendVideo(ctx context.Context, to string, src message.Source, opts ...message.MediaOption) (response.Response, error) {
	return c.SendMedia(ctx, to, message.MediaVideo, src, opts...)
}

func (c *Client) SendAudio(ctx context.Context, to string, src message.Source, opts ...message.MediaOption) (response.Response, error) {
	return c.SendMedia(ctx, to, message.MediaAudio, src, opts...)
}

// SendDocument sends a document. Documents sent by link need message.WithFilename.
func (c *Client) SendDocument(ctx context.Context, to string, src message.Source, opts ...message.MediaOption) (response.Response, error) {
	return c.SendMedia(ctx, to, message.MediaDocument, src, opts...)
}

// SendTemplate sends an approved template.
func (c *Client) SendTemplate(ctx context.Context, to string, tpl message.Template, opts ...message.Option) (response.Response, error) {
	msg, err := message.NewTemplateMessage(to, tpl, opts...)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, msg)
}

// SendReaction reacts to messageID. An empty emoji removes the reaction.
func (c *Client) SendReaction(ctx context.Context, to, messageID, emoji string) (response.Response, error) {
	reaction, err := message.NewReaction(messageID, emoji)
	if err != nil {
		return nil, err
	}
	msg, err := message.NewReactionMessage(to, reaction)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, msg)
}

// SendContacts sends contact cards.
func (c *Client) SendContacts(ctx context.Context, to string, contacts []message.Contact, opts ...message.Option) (response.Response, error) {
	msg, err := message.NewContactsMessage(to, contacts, opts...)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, msg)
}

// MarkAsRead marks an inbound message as read.
func (c *Client) MarkAsRead(ctx context.Context, messageID string) (response.Response, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	receipt, err := message.NewReadReceipt(messageID)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(receipt)
	if err != nil {
		return nil, fmt.Errorf("whatsapp client: encode read receipt: %w", err)
	}
	return c.call(ctx, http.MethodPost, "/messages", body, "application/json")
}

// Upload stores data on the provider and returns the media id to reference it.
func (c *Client) Upload(ctx context.Context, data []byte, mimeType string) (*response.Upload, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("whatsapp client: upload: %w", message.ErrInvalidField)
	}
	if strings.TrimSpace(mimeType) == "" {
		mimeType = mimetype.Detect(data).String()
	}
	resp, err := c.call(ctx, http.MethodPost, "/media", data, mimeType)
	if err != nil {
		return nil, err
	}
	return expect[*response.Upload](resp, response.KindUpload)
}

// UploadFile uploads the file at path, detecting its content type.
func (c *Client) UploadFile(ctx context.Context, path string) (*response.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("whatsapp client: read upload: %w", err)
	}
	return c.Upload(ctx, data, mimetype.Detect(data).String())
}
