package message

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaSource(t *testing.T) {
	tests := []struct {
		name    string
		src     Source
		wantErr bool
		isLink  bool
	}{
		{name: "id", src: ByID("1234"), isLink: false},
		{name: "link", src: ByLink("https://example.com/a.jpg"), isLink: true},
		{name: "neither", src: Source{}, wantErr: true},
		{name: "both", src: Source{ID: "1", Link: "https://example.com/a.jpg"}, wantErr: true},
		{name: "bad scheme", src: ByLink("ftp://example.com/a.jpg"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewImage(tt.src)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidMediaSource)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.isLink, m.Source().IsLink())
			assert.Equal(t, MediaImage, m.Kind())
		})
	}
}

func TestDocumentByLinkRequiresFilename(t *testing.T) {
	_, err := DocumentByLink("https://example.com/report.pdf", "", "")
	var missing *RequiredFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "document.filename", missing.Field)

	doc, err := DocumentByLink("https://example.com/report.pdf", "report.pdf", "Q3")
	require.NoError(t, err)
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"link":"https://example.com/report.pdf","filename":"report.pdf","caption":"Q3"}`, string(raw))

	_, err = DocumentByID("media-9", "", "")
	require.NoError(t, err)
}

func TestCaptionLimit(t *testing.T) {
	_, err := ImageByID("1", strings.Repeat("é", maxCaptionLength))
	require.NoError(t, err)

	_, err = ImageByID("1", strings.Repeat("é", maxCaptionLength+1))
	var tooLong *FieldTooLongError
	require.ErrorAs(t, err, &tooLong)
	assert.Equal(t, maxCaptionLength+1, tooLong.Actual)
}

func TestUnknownMediaKind(t *testing.T) {
	_, err := NewMedia("gif", ByID("1"))
	require.ErrorIs(t, err, ErrInvalidField)
}
