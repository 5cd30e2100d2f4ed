package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestButtonComponentSubType(t *testing.T) {
	tests := []struct {
		param Parameter
		want  ButtonSubType
	}{
		{ActionParam("tok", nil), ButtonFlow},
		{PayloadParam("yes"), ButtonQuickReply},
		{TextParam("path/1"), ButtonURL},
		{CouponCodeParam("SAVE10"), ButtonCopyCode},
	}
	for _, tt := range tests {
		t.Run(string(tt.param.Type), func(t *testing.T) {
			c, err := ButtonComponent(0, tt.param)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.SubType)
			require.NotNil(t, c.Index)
			assert.Equal(t, 0, *c.Index)
		})
	}

	_, err := ButtonComponent(0, DateTimeParam("today"))
	require.ErrorIs(t, err, ErrInvalidField)
}

func TestTemplateSerialization(t *testing.T) {
	img, err := ImageByLink("https://example.com/banner.png", "")
	require.NoError(t, err)
	header, err := MediaParam(img)
	require.NoError(t, err)
	button, err := ButtonComponent(1, PayloadParam("unsubscribe"))
	require.NoError(t, err)

	tpl, err := NewTemplate("order_update", "en",
		HeaderComponent(header),
		BodyComponent(TextParam("Ada"), CurrencyParam("$10.99", "USD", 10990)),
		button,
	)
	require.NoError(t, err)

	raw, err := json.Marshal(tpl)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name":"order_update",
		"language":{"policy":"deterministic","code":"en"},
		"components":[
			{"type":"header","parameters":[{"type":"image","image":{"link":"https://example.com/banner.png"}}]},
			{"type":"body","parameters":[
				{"type":"text","text":"Ada"},
				{"type":"currency","currency":{"fallback_value":"$10.99","code":"USD","amount_1000":10990}}
			]},
			{"type":"button","sub_type":"quick_reply","index":1,"parameters":[{"type":"payload","payload":"unsubscribe"}]}
		]
	}`, string(raw))
}

func TestTemplateValidation(t *testing.T) {
	_, err := NewTemplate("", "en")
	require.ErrorIs(t, err, ErrInvalidField)

	_, err = NewTemplate("name", "")
	require.ErrorIs(t, err, ErrInvalidField)

	_, err = NewTemplate("name", "en", BodyComponent(TextParam("")))
	require.ErrorIs(t, err, ErrInvalidField)

	_, err = NewTemplate("name", "en", Component{Type: ComponentButton})
	require.ErrorIs(t, err, ErrInvalidField)
}
