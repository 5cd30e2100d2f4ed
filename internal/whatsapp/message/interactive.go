package message

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// InteractiveType tags the interactive variant.
type InteractiveType string

const (
	InteractiveList           InteractiveType = "list"
	InteractiveButton         InteractiveType = "button"
	InteractiveProduct        InteractiveType = "product"
	InteractiveProductList    InteractiveType = "product_list"
	InteractiveFlow           InteractiveType = "flow"
	InteractiveCatalogMessage InteractiveType = "catalog_message"
)

// HeaderType tags the header variant.
type HeaderType string

const (
	HeaderText     HeaderType = "text"
	HeaderImage    HeaderType = "image"
	HeaderVideo    HeaderType = "video"
	HeaderDocument HeaderType = "document"
)

// Header is an interactive message header. Exactly one payload matching the
// type tag is set.
type Header struct {
	typ   HeaderType
	text  string
	media Media
}

// TextHeader builds a text header.
func TextHeader(text string) (Header, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Header{}, required("header.text")
	}
	if err := checkLength("header.text", text, maxHeaderTextLength); err != nil {
		return Header{}, err
	}
	return Header{typ: HeaderText, text: text}, nil
}

// MediaHeader builds an image, video or document header from m.
func MediaHeader(m Media) (Header, error) {
	switch m.Kind() {
	case MediaImage:
		return Header{typ: HeaderImage, media: m}, nil
	case MediaVideo:
		return Header{typ: HeaderVideo, media: m}, nil
	case MediaDocument:
		return Header{typ: HeaderDocument, media: m}, nil
	case "":
		return Header{}, ErrInvalidMediaSource
	default:
		return Header{}, invalidf("%s media cannot be used as an interactive header", m.Kind())
	}
}

// Type returns the header tag.
func (h Header) Type() HeaderType { return h.typ }

func (h Header) MarshalJSON() ([]byte, error) {
	wire := struct {
		Type     HeaderType `json:"type"`
		Text     string     `json:"text,omitempty"`
		Image    *Media     `json:"image,omitempty"`
		Video    *Media     `json:"video,omitempty"`
		Document *Media     `json:"document,omitempty"`
	}{Type: h.typ, Text: h.text}
	switch h.typ {
	case HeaderImage:
		wire.Image = &h.media
	case HeaderVideo:
		wire.Video = &h.media
	case HeaderDocument:
		wire.Document = &h.media
	}
	return json.Marshal(wire)
}

// ReplyButton is one quick-reply button.
type ReplyButton struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Row is one selectable list row.
type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Section groups list rows.
type Section struct {
	Title string `json:"title,omitempty"`
	Rows  []Row  `json:"rows"`
}

// ProductItem references a catalog product.
type ProductItem struct {
	ProductRetailerID string `json:"product_retailer_id"`
}

// ProductSection groups catalog products.
type ProductSection struct {
	Title        string        `json:"title,omitempty"`
	ProductItems []ProductItem `json:"product_items"`
}

// FlowMode selects the flow publication state.
type FlowMode string

const (
	FlowModeDraft     FlowMode = "draft"
	FlowModePublished FlowMode = "published"
)

// FlowAction is the first action the flow performs.
type FlowAction string

const (
	FlowActionNavigate     FlowAction = "navigate"
	FlowActionDataExchange FlowAction = "data_exchange"
)

// FlowPayload names the screen a navigate flow opens with.
type FlowPayload struct {
	Screen string         `json:"screen"`
	Data   map[string]any `json:"data,omitempty"`
}

// FlowParameters configures a flow message. Token defaults to a random UUID,
// MessageVersion to 3 and Mode to published.
type FlowParameters struct {
	Mode           FlowMode     `json:"mode"`
	MessageVersion int          `json:"flow_message_version"`
	Token          string       `json:"flow_token"`
	FlowID         string       `json:"flow_id"`
	CTA            string       `json:"flow_cta"`
	Action         FlowAction   `json:"flow_action"`
	Payload        *FlowPayload `json:"flow_action_payload,omitempty"`
}

type catalogParameters struct {
	ThumbnailProductRetailerID string `json:"thumbnail_product_retailer_id"`
}

type replyButtonWire struct {
	Type  string      `json:"type"`
	Reply ReplyButton `json:"reply"`
}

type actionWire struct {
	Name              string            `json:"name,omitempty"`
	Button            string            `json:"button,omitempty"`
	Buttons           []replyButtonWire `json:"buttons,omitempty"`
	Sections          any               `json:"sections,omitempty"`
	Parameters        any               `json:"parameters,omitempty"`
	CatalogID         string            `json:"catalog_id,omitempty"`
	ProductRetailerID string            `json:"product_retailer_id,omitempty"`
}

// Interactive is a validated interactive payload. Build it with NewList,
// NewButtons, NewFlow, NewProduct, NewProductList or NewCatalogMessage.
type Interactive struct {
	typ    InteractiveType
	header *Header
	body   string
	footer string
	action actionWire
}

// InteractiveOption sets optional interactive attributes.
type InteractiveOption func(*Interactive)

// WithHeader attaches a header. Variants that restrict headers reject it at
// construction.
func WithHeader(h Header) InteractiveOption {
	return func(i *Interactive) {
		hc := h
		i.header = &hc
	}
}

// WithFooter attaches footer text.
func WithFooter(text string) InteractiveOption {
	return func(i *Interactive) { i.footer = strings.TrimSpace(text) }
}

// Type returns the interactive variant tag.
func (i Interactive) Type() InteractiveType { return i.typ }

// Header returns the header, if any.
func (i Interactive) Header() (Header, bool) {
	if i.header == nil {
		return Header{}, false
	}
	return *i.header, true
}

// Body returns the body text.
func (i Interactive) Body() string { return i.body }

func (i Interactive) MarshalJSON() ([]byte, error) {
	type text struct {
		Text string `json:"text"`
	}
	wire := struct {
		Type   InteractiveType `json:"type"`
		Header *Header         `json:"header,omitempty"`
		Body   *text           `json:"body,omitempty"`
		Footer *text           `json:"footer,omitempty"`
		Action actionWire      `json:"action"`
	}{Type: i.typ, Header: i.header, Action: i.action}
	if i.body != "" {
		wire.Body = &text{Text: i.body}
	}
	if i.footer != "" {
		wire.Footer = &text{Text: i.footer}
	}
	return json.Marshal(wire)
}

func newInteractive(typ InteractiveType, body string, bodyRequired bool, opts []InteractiveOption) (Interactive, error) {
	i := Interactive{typ: typ, body: body}
	if bodyRequired && strings.TrimSpace(body) == "" {
		return Interactive{}, required("interactive.body")
	}
	if err := checkLength("interactive.body", body, maxInteractiveBody); err != nil {
		return Interactive{}, err
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&i)
		}
	}
	if err := checkLength("interactive.footer", i.footer, maxFooterLength); err != nil {
		return Interactive{}, err
	}
	return i, nil
}

// NewButtons builds a reply-buttons message with one to three buttons.
func NewButtons(body string, buttons []ReplyButton, opts ...InteractiveOption) (Interactive, error) {
	if len(buttons) == 0 {
		return Interactive{}, required("action.buttons")
	}
	if len(buttons) > maxReplyButtons {
		return Interactive{}, invalidf("action.buttons accepts at most %d buttons, got %d", maxReplyButtons, len(buttons))
	}

	i, err := newInteractive(InteractiveButton, body, true, opts)
	if err != nil {
		return Interactive{}, err
	}

	seen := make(map[string]struct{}, len(buttons))
	wire := make([]replyButtonWire, 0, len(buttons))
	for idx, b := range buttons {
		field := fmt.Sprintf("action.buttons[%d]", idx)
		if strings.TrimSpace(b.ID) == "" {
			return Interactive{}, required(field + ".reply.id")
		}
		if strings.TrimSpace(b.Title) == "" {
			return Interactive{}, required(field + ".reply.title")
		}
		if err := checkLength(field+".reply.title", b.Title, maxButtonTitleLength); err != nil {
			return Interactive{}, err
		}
		if _, dup := seen[b.ID]; dup {
			return Interactive{}, invalidf("%s.reply.id %q is not unique", field, b.ID)
		}
		seen[b.ID] = struct{}{}
		wire = append(wire, replyButtonWire{Type: "reply", Reply: b})
	}
	i.action = actionWire{Buttons: wire}
	return i, nil
}

// NewList builds a list message. button is the label of the button that opens
// the list.
func NewList(body, button string, sections []Section, opts ...InteractiveOption) (Interactive, error) {
	if strings.TrimSpace(button) == "" {
		return Interactive{}, required("action.button")
	}
	if err := checkLength("action.button", button, maxListButtonLength); err != nil {
		return Interactive{}, err
	}
	if len(sections) == 0 {
		return Interactive{}, required("action.sections")
	}

	i, err := newInteractive(InteractiveList, body, true, opts)
	if err != nil {
		return Interactive{}, err
	}

	out := make([]Section, 0, len(sections))
	for sIdx, s := range sections {
		field := fmt.Sprintf("action.sections[%d]", sIdx)
		if err := checkSectionTitle(field, s.Title, len(sections)); err != nil {
			return Interactive{}, err
		}
		if len(s.Rows) == 0 {
			return Interactive{}, required(field + ".rows")
		}
		rows := make([]Row, 0, len(s.Rows))
		for rIdx, r := range s.Rows {
			rowField := fmt.Sprintf("%s.rows[%d]", field, rIdx)
			if strings.TrimSpace(r.ID) == "" {
				return Interactive{}, required(rowField + ".id")
			}
			if strings.TrimSpace(r.Title) == "" {
				return Interactive{}, required(rowField + ".title")
			}
			if err := checkLength(rowField+".title", r.Title, maxRowTitleLength); err != nil {
				return Interactive{}, err
			}
			if err := checkLength(rowField+".description", r.Description, maxRowDescription); err != nil {
				return Interactive{}, err
			}
			rows = append(rows, r)
		}
		out = append(out, Section{Title: s.Title, Rows: rows})
	}

	i.action = actionWire{Button: button, Sections: out}
	return i, nil
}

// NewFlow builds a flow message.
func NewFlow(body string, params FlowParameters, opts ...InteractiveOption) (Interactive, error) {
	if strings.TrimSpace(params.FlowID) == "" {
		return Interactive{}, required("action.parameters.flow_id")
	}
	if strings.TrimSpace(params.CTA) == "" {
		return Interactive{}, required("action.parameters.flow_cta")
	}
	if err := checkLength("action.parameters.flow_cta", params.CTA, maxFlowCTALength); err != nil {
		return Interactive{}, err
	}
	switch params.Action {
	case FlowActionNavigate:
		if params.Payload == nil || strings.TrimSpace(params.Payload.Screen) == "" {
			return Interactive{}, ErrMissingFlowPayload
		}
	case FlowActionDataExchange:
	case "":
		return Interactive{}, required("action.parameters.flow_action")
	default:
		return Interactive{}, invalidf("unsupported flow_action %q", params.Action)
	}
	switch params.Mode {
	case "":
		params.Mode = FlowModePublished
	case FlowModeDraft, FlowModePublished:
	default:
		return Interactive{}, invalidf("unsupported flow mode %q", params.Mode)
	}
	if params.MessageVersion == 0 {
		params.MessageVersion = defaultFlowVersion
	}
	if strings.TrimSpace(params.Token) == "" {
		params.Token = uuid.NewString()
	}

	i, err := newInteractive(InteractiveFlow, body, true, opts)
	if err != nil {
		return Interactive{}, err
	}
	if params.Payload != nil {
		payload := *params.Payload
		params.Payload = &payload
	}
	i.action = actionWire{Name: "flow", Parameters: params}
	return i, nil
}

// NewProduct builds a single-product message. Product messages do not accept a header.
func NewProduct(body, catalogID, productRetailerID string, opts ...InteractiveOption) (Interactive, error) {
	if strings.TrimSpace(catalogID) == "" {
		return Interactive{}, required("action.catalog_id")
	}
	if strings.TrimSpace(productRetailerID) == "" {
		return Interactive{}, required("action.product_retailer_id")
	}
	i, err := newInteractive(InteractiveProduct, body, false, opts)
	if err != nil {
		return Interactive{}, err
	}
	if i.header != nil {
		return Interactive{}, &InvalidHeaderError{Variant: InteractiveProduct, Header: i.header.typ}
	}
	i.action = actionWire{CatalogID: catalogID, ProductRetailerID: productRetailerID}
	return i, nil
}

// NewProductList builds a multi-product message. The header is mandatory and
// must be a text header.
func NewProductList(body string, header Header, catalogID string, sections []ProductSection, opts ...InteractiveOption) (Interactive, error) {
	if header.typ == "" {
		return Interactive{}, &InvalidHeaderError{Variant: InteractiveProductList}
	}
	if header.typ != HeaderText {
		return Interactive{}, &InvalidHeaderError{Variant: InteractiveProductList, Header: header.typ}
	}
	if strings.TrimSpace(catalogID) == "" {
		return Interactive{}, required("action.catalog_id")
	}
	if len(sections) == 0 {
		return Interactive{}, required("action.sections")
	}

	i, err := newInteractive(InteractiveProductList, body, true, append([]InteractiveOption{WithHeader(header)}, opts...))
	if err != nil {
		return Interactive{}, err
	}
	if i.header == nil || i.header.typ != HeaderText {
		var got HeaderType
		if i.header != nil {
			got = i.header.typ
		}
		return Interactive{}, &InvalidHeaderError{Variant: InteractiveProductList, Header: got}
	}

	total := 0
	out := make([]ProductSection, 0, len(sections))
	for sIdx, s := range sections {
		field := fmt.Sprintf("action.sections[%d]", sIdx)
		if err := checkSectionTitle(field, s.Title, len(sections)); err != nil {
			return Interactive{}, err
		}
		if len(s.ProductItems) == 0 {
			return Interactive{}, required(field + ".product_items")
		}
		for pIdx, p := range s.ProductItems {
			if strings.TrimSpace(p.ProductRetailerID) == "" {
				return Interactive{}, required(fmt.Sprintf("%s.product_items[%d].product_retailer_id", field, pIdx))
			}
		}
		total += len(s.ProductItems)
		out = append(out, ProductSection{Title: s.Title, ProductItems: append([]ProductItem(nil), s.ProductItems...)})
	}
	if total > maxProductsPerList {
		return Interactive{}, invalidf("product list accepts at most %d products, got %d", maxProductsPerList, total)
	}

	i.action = actionWire{CatalogID: catalogID, Sections: out}
	return i, nil
}

// NewCatalogMessage builds a catalog message whose thumbnail shows the given product.
func NewCatalogMessage(body, thumbnailProductRetailerID string, opts ...InteractiveOption) (Interactive, error) {
	if strings.TrimSpace(thumbnailProductRetailerID) == "" {
		return Interactive{}, required("action.parameters.thumbnail_product_retailer_id")
	}
	i, err := newInteractive(InteractiveCatalogMessage, body, true, opts)
	if err != nil {
		return Interactive{}, err
	}
	i.action = actionWire{
		Name:       "catalog_message",
		Parameters: catalogParameters{ThumbnailProductRetailerID: thumbnailProductRetailerID},
	}
	return i, nil
}

func checkSectionTitle(field, title string, sections int) error {
	if sections > 1 && strings.TrimSpace(title) == "" {
		return fmt.Errorf("%s: %w", field, ErrMissingSectionTitle)
	}
	return checkLength(field+".title", title, maxSectionTitleLength)
}
