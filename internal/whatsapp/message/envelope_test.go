package message

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/whatsapp-api-go/internal/util"
)

func TestTextMessageSerialization(t *testing.T) {
	msg, err := NewText("972543089167", "Hello World!")
	require.NoError(t, err)

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"messaging_product":"whatsapp","type":"text","to":"972543089167","text":{"body":"Hello World!"}}`, string(raw))
}

func TestTextMessageOptions(t *testing.T) {
	msg, err := NewText("+972543089167", "see https://example.com", ReplyTo("wamid.abc"), WithPreviewURL(true))
	require.NoError(t, err)
	assert.Equal(t, "972543089167", msg.To())

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"messaging_product":"whatsapp",
		"type":"text",
		"to":"972543089167",
		"context":{"message_id":"wamid.abc"},
		"preview_url":true,
		"text":{"body":"see https://example.com"}
	}`, string(raw))
}

func TestTextMessageValidation(t *testing.T) {
	_, err := NewText("972543089167", "   ")
	require.ErrorIs(t, err, ErrInvalidField)

	_, err = NewText("", "hi")
	require.ErrorIs(t, err, ErrInvalidField)

	_, err = NewText("not-a-number", "hi")
	require.ErrorIs(t, err, util.ErrInvalidRecipient)

	_, err = NewText("972543089167", strings.Repeat("a", maxTextBodyLength+1))
	var tooLong *FieldTooLongError
	require.ErrorAs(t, err, &tooLong)
	assert.Equal(t, "text.body", tooLong.Field)
}

func TestGroupRecipient(t *testing.T) {
	msg, err := NewText("120363025246125486@g.us", "hello group")
	require.NoError(t, err)
	assert.Equal(t, RecipientGroup, msg.RecipientType())

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"recipient_type":"group"`)

	msg, err = NewText("972543089167", "hello", ToGroup())
	require.NoError(t, err)
	assert.Equal(t, RecipientGroup, msg.RecipientType())
}

func TestJIDRecipients(t *testing.T) {
	for _, to := range []string{"972543089167@s.whatsapp.net", "120363144038483540@newsletter"} {
		msg, err := NewText(to, "hi")
		require.NoError(t, err, to)
		assert.Equal(t, to, msg.To())
		assert.Equal(t, RecipientIndividual, msg.RecipientType())

		raw, err := json.Marshal(msg)
		require.NoError(t, err)
		var wire map[string]any
		require.NoError(t, json.Unmarshal(raw, &wire))
		assert.Equal(t, to, wire["to"])
		assert.NotContains(t, wire, "recipient_type")
	}
}

func TestMediaMessageTypeFollowsKind(t *testing.T) {
	img, err := ImageByLink("https://example.com/cat.png", "a cat")
	require.NoError(t, err)

	msg, err := NewMediaMessage("972543089167", img)
	require.NoError(t, err)
	assert.Equal(t, TypeImage, msg.Type())

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"messaging_product":"whatsapp",
		"type":"image",
		"to":"972543089167",
		"image":{"link":"https://example.com/cat.png","caption":"a cat"}
	}`, string(raw))

	_, err = NewMediaMessage("972543089167", Media{})
	require.ErrorIs(t, err, ErrInvalidMediaSource)
}

func TestWithDefaultPreviewURL(t *testing.T) {
	msg, err := NewText("972543089167", "hi")
	require.NoError(t, err)

	withDefault := msg.WithDefaultPreviewURL(true)
	v, ok := withDefault.PreviewURL()
	assert.True(t, ok)
	assert.True(t, v)

	_, ok = msg.PreviewURL()
	assert.False(t, ok, "original message must not change")

	explicit, err := NewText("972543089167", "hi", WithPreviewURL(false))
	require.NoError(t, err)
	v, _ = explicit.WithDefaultPreviewURL(true).PreviewURL()
	assert.False(t, v)

	audio, err := AudioByID("media-1")
	require.NoError(t, err)
	audioMsg, err := NewMediaMessage("972543089167", audio)
	require.NoError(t, err)
	_, ok = audioMsg.WithDefaultPreviewURL(true).PreviewURL()
	assert.False(t, ok)
}

func TestReactionAndTemplateMessages(t *testing.T) {
	reaction, err := NewReaction("wamid.xyz", "👍")
	require.NoError(t, err)
	msg, err := NewReactionMessage("972543089167", reaction)
	require.NoError(t, err)

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"messaging_product":"whatsapp",
		"type":"reaction",
		"to":"972543089167",
		"reaction":{"message_id":"wamid.xyz","emoji":"👍"}
	}`, string(raw))

	tpl, err := NewTemplate("hello_world", "en_US", BodyComponent(TextParam("Ada")))
	require.NoError(t, err)
	msg, err = NewTemplateMessage("972543089167", tpl)
	require.NoError(t, err)
	raw, err = json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"messaging_product":"whatsapp",
		"type":"template",
		"to":"972543089167",
		"template":{
			"name":"hello_world",
			"language":{"policy":"deterministic","code":"en_US"},
			"components":[{"type":"body","parameters":[{"type":"text","text":"Ada"}]}]
		}
	}`, string(raw))
}

func TestContactsMessage(t *testing.T) {
	_, err := NewContactsMessage("972543089167", nil)
	require.ErrorIs(t, err, ErrInvalidField)

	_, err = NewContactsMessage("972543089167", []Contact{{Name: Name{FirstName: "Ada"}}})
	var missing *RequiredFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "name.formatted_name", missing.Field)

	msg, err := NewContactsMessage("972543089167", []Contact{{
		Name:   Name{FormattedName: "Ada Lovelace"},
		Phones: []Phone{{Phone: "+44 20 7946 0000", Type: "WORK"}},
	}})
	require.NoError(t, err)
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"messaging_product":"whatsapp",
		"type":"contacts",
		"to":"972543089167",
		"contacts":[{"name":{"formatted_name":"Ada Lovelace"},"phones":[{"phone":"+44 20 7946 0000","type":"WORK"}]}]
	}`, string(raw))
}

func TestZeroMessageDoesNotMarshal(t *testing.T) {
	_, err := json.Marshal(Message{})
	require.Error(t, err)
}

func TestReadReceipt(t *testing.T) {
	receipt, err := NewReadReceipt("wamid.123")
	require.NoError(t, err)
	raw, err := json.Marshal(receipt)
	require.NoError(t, err)
	assert.JSONEq(t, `{"messaging_product":"whatsapp","status":"read","message_id":"wamid.123"}`, string(raw))

	_, err = NewReadReceipt(" ")
	require.ErrorIs(t, err, ErrInvalidField)
}
