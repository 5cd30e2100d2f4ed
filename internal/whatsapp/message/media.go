package message

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/whatsapp-api-go/internal/util"
)

// MediaKind names the media object types accepted by the provider.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaDocument MediaKind = "document"
	MediaSticker  MediaKind = "sticker"
)

// Valid reports whether k is a known media kind.
func (k MediaKind) Valid() bool {
	switch k {
	case MediaImage, MediaVideo, MediaAudio, MediaDocument, MediaSticker:
		return true
	}
	return false
}

// Source identifies where the provider fetches media from: a previously
// uploaded media id or a public link.
type Source struct {
	ID   string
	Link string
}

// ByID references media uploaded to the provider.
func ByID(id string) Source { return Source{ID: id} }

// ByLink references media hosted at a public http(s) URL.
func ByLink(link string) Source { return Source{Link: link} }

// IsLink reports whether the source is a link.
func (s Source) IsLink() bool { return strings.TrimSpace(s.Link) != "" }

func (s Source) normalize() (Source, error) {
	id := strings.TrimSpace(s.ID)
	link := strings.TrimSpace(s.Link)
	switch {
	case id == "" && link == "":
		return Source{}, ErrInvalidMediaSource
	case id != "" && link != "":
		return Source{}, fmt.Errorf("%w: both id and link given", ErrInvalidMediaSource)
	case link != "":
		valid, err := util.ValidateHTTPURL(link)
		if err != nil {
			return Source{}, fmt.Errorf("%w: %v", ErrInvalidMediaSource, err)
		}
		return Source{Link: valid}, nil
	default:
		return Source{ID: id}, nil
	}
}

// Media is a validated media object. The zero value is not usable; build one
// with NewMedia or one of the kind-specific constructors.
type Media struct {
	kind      MediaKind
	source    Source
	caption   string
	filename  string
	thumbnail string
}

// MediaOption sets optional media attributes.
type MediaOption func(*Media)

// WithCaption attaches a caption. Empty captions are omitted from the payload.
func WithCaption(caption string) MediaOption {
	return func(m *Media) { m.caption = caption }
}

// WithFilename sets the document file name.
func WithFilename(filename string) MediaOption {
	return func(m *Media) { m.filename = strings.TrimSpace(filename) }
}

// WithThumbnail sets a thumbnail reference.
func WithThumbnail(thumbnail string) MediaOption {
	return func(m *Media) { m.thumbnail = strings.TrimSpace(thumbnail) }
}

// NewMedia validates src and options for the given kind.
func NewMedia(kind MediaKind, src Source, opts ...MediaOption) (Media, error) {
	if !kind.Valid() {
		return Media{}, invalidf("unsupported media kind %q", kind)
	}
	normalized, err := src.normalize()
	if err != nil {
		return Media{}, fmt.Errorf("%s: %w", kind, err)
	}

	m := Media{kind: kind, source: normalized}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}

	if kind == MediaDocument && normalized.IsLink() && m.filename == "" {
		return Media{}, required("document.filename")
	}
	if m.caption != "" {
		if err := checkLength(string(kind)+".caption", m.caption, maxCaptionLength); err != nil {
			return Media{}, err
		}
	}
	return m, nil
}

// NewImage builds an image media object.
func NewImage(src Source, opts ...MediaOption) (Media, error) {
	return NewMedia(MediaImage, src, opts...)
}

// NewVideo builds a video media object.
func NewVideo(src Source, opts ...MediaOption) (Media, error) {
	return NewMedia(MediaVideo, src, opts...)
}

// NewAudio builds an audio media object.
func NewAudio(src Source, opts ...MediaOption) (Media, error) {
	return NewMedia(MediaAudio, src, opts...)
}

// NewDocument builds a document media object. A filename is required when the
// document is referenced by link.
func NewDocument(src Source, opts ...MediaOption) (Media, error) {
	return NewMedia(MediaDocument, src, opts...)
}

// NewSticker builds a sticker media object.
func NewSticker(src Source, opts ...MediaOption) (Media, error) {
	return NewMedia(MediaSticker, src, opts...)
}

func ImageByID(id, caption string) (Media, error) {
	return NewImage(ByID(id), WithCaption(caption))
}

func ImageByLink(link, caption string) (Media, error) {
	return NewImage(ByLink(link), WithCaption(caption))
}

func VideoByID(id, caption string) (Media, error) {
	return NewVideo(ByID(id), WithCaption(caption))
}

func VideoByLink(link, caption string) (Media, error) {
	return NewVideo(ByLink(link), WithCaption(caption))
}

func AudioByID(id string) (Media, error) {
	return NewAudio(ByID(id))
}

func AudioByLink(link string) (Media, error) {
	return NewAudio(ByLink(link))
}

func DocumentByID(id, filename, caption string) (Media, error) {
	return NewDocument(ByID(id), WithFilename(filename), WithCaption(caption))
}

func DocumentByLink(link, filename, caption string) (Media, error) {
	return NewDocument(ByLink(link), WithFilename(filename), WithCaption(caption))
}

// Kind returns the media kind.
func (m Media) Kind() MediaKind { return m.kind }

// Source returns the id or link the media points at.
func (m Media) Source() Source { return m.source }

// Caption returns the caption, if any.
func (m Media) Caption() string { return m.caption }

// Filename returns the document filename, if any.
func (m Media) Filename() string { return m.filename }

// IsZero reports whether m was never constructed.
func (m Media) IsZero() bool { return m.kind == "" }

type mediaWire struct {
	ID        string `json:"id,omitempty"`
	Link      string `json:"link,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Filename  string `json:"filename,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// MarshalJSON renders the provider media object.
func (m Media) MarshalJSON() ([]byte, error) {
	return json.Marshal(mediaWire{
		ID:        m.source.ID,
		Link:      m.source.Link,
		Caption:   m.caption,
		Filename:  m.filename,
		Thumbnail: m.thumbnail,
	})
}
