package message

import (
	"fmt"
	"strings"
)

// ComponentType tags a template component.
type ComponentType string

const (
	ComponentHeader ComponentType = "header"
	ComponentBody   ComponentType = "body"
	ComponentButton ComponentType = "button"
)

// ButtonSubType is the kind of template button a parameter fills.
type ButtonSubType string

const (
	ButtonQuickReply ButtonSubType = "quick_reply"
	ButtonURL        ButtonSubType = "url"
	ButtonFlow       ButtonSubType = "flow"
	ButtonCopyCode   ButtonSubType = "copy_code"
)

// ParameterType tags a template parameter.
type ParameterType string

const (
	ParamText       ParameterType = "text"
	ParamCurrency   ParameterType = "currency"
	ParamDateTime   ParameterType = "date_time"
	ParamImage      ParameterType = "image"
	ParamDocument   ParameterType = "document"
	ParamVideo      ParameterType = "video"
	ParamPayload    ParameterType = "payload"
	ParamAction     ParameterType = "action"
	ParamCouponCode ParameterType = "coupon_code"
)

// Language selects the template translation.
type Language struct {
	Policy string `json:"policy"`
	Code   string `json:"code"`
}

// Currency is a localized amount; Amount1000 is the amount multiplied by 1000.
type Currency struct {
	FallbackValue string `json:"fallback_value"`
	Code          string `json:"code"`
	Amount1000    int64  `json:"amount_1000"`
}

// DateTime is rendered using its fallback value.
type DateTime struct {
	FallbackValue string `json:"fallback_value"`
}

// FlowButtonAction fills a flow button.
type FlowButtonAction struct {
	FlowToken      string         `json:"flow_token,omitempty"`
	FlowActionData map[string]any `json:"flow_action_data,omitempty"`
}

// Parameter is one template variable. Use the Param constructors.
type Parameter struct {
	Type       ParameterType     `json:"type"`
	Text       string            `json:"text,omitempty"`
	Image      *Media            `json:"image,omitempty"`
	Document   *Media            `json:"document,omitempty"`
	Video      *Media            `json:"video,omitempty"`
	Currency   *Currency         `json:"currency,omitempty"`
	DateTime   *DateTime         `json:"date_time,omitempty"`
	Payload    string            `json:"payload,omitempty"`
	Action     *FlowButtonAction `json:"action,omitempty"`
	CouponCode string            `json:"coupon_code,omitempty"`
}

func TextParam(text string) Parameter { return Parameter{Type: ParamText, Text: text} }

func PayloadParam(payload string) Parameter { return Parameter{Type: ParamPayload, Payload: payload} }

func CouponCodeParam(code string) Parameter {
	return Parameter{Type: ParamCouponCode, CouponCode: code}
}

func CurrencyParam(fallback, code string, amount1000 int64) Parameter {
	return Parameter{Type: ParamCurrency, Currency: &Currency{FallbackValue: fallback, Code: code, Amount1000: amount1000}}
}

func DateTimeParam(fallback string) Parameter {
	return Parameter{Type: ParamDateTime, DateTime: &DateTime{FallbackValue: fallback}}
}

func ActionParam(flowToken string, data map[string]any) Parameter {
	return Parameter{Type: ParamAction, Action: &FlowButtonAction{FlowToken: flowToken, FlowActionData: data}}
}

// MediaParam wraps an image, video or document as a header parameter.
func MediaParam(m Media) (Parameter, error) {
	mc := m
	switch m.Kind() {
	case MediaImage:
		return Parameter{Type: ParamImage, Image: &mc}, nil
	case MediaDocument:
		return Parameter{Type: ParamDocument, Document: &mc}, nil
	case MediaVideo:
		return Parameter{Type: ParamVideo, Video: &mc}, nil
	case "":
		return Parameter{}, ErrInvalidMediaSource
	default:
		return Parameter{}, invalidf("%s media cannot be a template parameter", m.Kind())
	}
}

// Component is a template section with its parameters.
type Component struct {
	Type       ComponentType `json:"type"`
	SubType    ButtonSubType `json:"sub_type,omitempty"`
	Index      *int          `json:"index,omitempty"`
	Parameters []Parameter   `json:"parameters,omitempty"`
}

// HeaderComponent fills the template header.
func HeaderComponent(params ...Parameter) Component {
	return Component{Type: ComponentHeader, Parameters: params}
}

// BodyComponent fills the template body variables in order.
func BodyComponent(params ...Parameter) Component {
	return Component{Type: ComponentBody, Parameters: params}
}

// ButtonComponent fills the button at index. The button sub type follows from
// the first parameter: action → flow, payload → quick_reply, text → url,
// coupon_code → copy_code.
func ButtonComponent(index int, param Parameter, extra ...Parameter) (Component, error) {
	var sub ButtonSubType
	switch param.Type {
	case ParamAction:
		sub = ButtonFlow
	case ParamPayload:
		sub = ButtonQuickReply
	case ParamText:
		sub = ButtonURL
	case ParamCouponCode:
		sub = ButtonCopyCode
	default:
		return Component{}, invalidf("invalid button parameter type %q", param.Type)
	}
	if index < 0 {
		return Component{}, invalidf("button index must not be negative, got %d", index)
	}
	idx := index
	return Component{
		Type:       ComponentButton,
		SubType:    sub,
		Index:      &idx,
		Parameters: append([]Parameter{param}, extra...),
	}, nil
}

// Template references an approved message template.
type Template struct {
	Name       string      `json:"name"`
	Namespace  string      `json:"namespace,omitempty"`
	Language   Language    `json:"language"`
	Components []Component `json:"components,omitempty"`
}

// NewTemplate builds a template reference using the deterministic language policy.
func NewTemplate(name, languageCode string, components ...Component) (Template, error) {
	name = strings.TrimSpace(name)
	languageCode = strings.TrimSpace(languageCode)
	if name == "" {
		return Template{}, required("template.name")
	}
	if err := checkLength("template.name", name, maxTemplateNameLength); err != nil {
		return Template{}, err
	}
	if languageCode == "" {
		return Template{}, required("template.language.code")
	}
	for idx, c := range components {
		switch c.Type {
		case ComponentHeader, ComponentBody:
		case ComponentButton:
			if c.Index == nil || c.SubType == "" {
				return Template{}, invalidf("template.components[%d]: button components need an index and sub_type", idx)
			}
		default:
			return Template{}, invalidf("template.components[%d]: unsupported type %q", idx, c.Type)
		}
		for pIdx, p := range c.Parameters {
			if err := p.validate(); err != nil {
				return Template{}, fmt.Errorf("template.components[%d].parameters[%d]: %w", idx, pIdx, err)
			}
		}
	}
	return Template{
		Name:       name,
		Language:   Language{Policy: "deterministic", Code: languageCode},
		Components: components,
	}, nil
}

func (p Parameter) validate() error {
	var ok bool
	switch p.Type {
	case ParamText:
		ok = p.Text != ""
	case ParamPayload:
		ok = p.Payload != ""
	case ParamCouponCode:
		ok = p.CouponCode != ""
	case ParamCurrency:
		ok = p.Currency != nil && p.Currency.Code != "" && p.Currency.FallbackValue != ""
	case ParamDateTime:
		ok = p.DateTime != nil && p.DateTime.FallbackValue != ""
	case ParamImage:
		ok = p.Image != nil && !p.Image.IsZero()
	case ParamDocument:
		ok = p.Document != nil && !p.Document.IsZero()
	case ParamVideo:
		ok = p.Video != nil && !p.Video.IsZero()
	case ParamAction:
		ok = p.Action != nil
	default:
		return invalidf("unsupported parameter type %q", p.Type)
	}
	if !ok {
		return required(string(p.Type))
	}
	return nil
}
