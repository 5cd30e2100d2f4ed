package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind tags the response variant selected by Parse.
type Kind string

const (
	KindUpload      Kind = "upload"
	KindMessage     Kind = "message"
	KindMedia       Kind = "media"
	KindLogin       Kind = "login"
	KindGroups      Kind = "groups"
	KindContacts    Kind = "contacts"
	KindStatus      Kind = "status"
	KindPrivacy     Kind = "privacy"
	KindNewsletters Kind = "newsletters"
	KindNewsletter  Kind = "newsletter"
	KindPairCode    Kind = "pair_code"
	KindLogout      Kind = "logout"
	KindGeneric     Kind = "generic"
	KindRawText     Kind = "raw_text"
)

// Response is one parsed provider response. Use a type switch on the concrete
// pointer types to reach variant data.
type Response interface {
	Kind() Kind
	Succeeded() bool
	Outcome() Result
}

// Result holds the keys every provider response may carry.
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Error   *CloudAPIError `json:"error,omitempty"`
}

// Succeeded reports the provider-declared success flag.
func (r Result) Succeeded() bool { return r.Success }

// Outcome returns the common result keys.
func (r Result) Outcome() Result { return r }

// CloudAPIError is the error object returned by the Cloud API.
type CloudAPIError struct {
	Message      string          `json:"message"`
	Type         string          `json:"type"`
	Code         int             `json:"code"`
	ErrorSubcode int             `json:"error_subcode,omitempty"`
	ErrorData    json.RawMessage `json:"error_data,omitempty"`
	FBTraceID    string          `json:"fbtrace_id,omitempty"`
}

func (e *CloudAPIError) Error() string {
	if e.ErrorSubcode != 0 {
		return fmt.Sprintf("%s (type=%s code=%d subcode=%d)", e.Message, e.Type, e.Code, e.ErrorSubcode)
	}
	return fmt.Sprintf("%s (type=%s code=%d)", e.Message, e.Type, e.Code)
}

// Account is the session created by a login.
type Account struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Token string `json:"token"`
	Image string `json:"image"`
}

type Login struct {
	Result
	Data Account `json:"data"`
}

func (*Login) Kind() Kind { return KindLogin }

type Logout struct {
	Result
}

func (*Logout) Kind() Kind { return KindLogout }

// StatusData describes the session state of a self-hosted account.
type StatusData struct {
	Status       string `json:"status"`
	ID           string `json:"id"`
	WhatsAppName string `json:"whatsapp_name,omitempty"`
	WhatsAppID   string `json:"whatsapp_id,omitempty"`
}

// Connected reports whether the session is paired and online.
func (s StatusData) Connected() bool { return s.Status == "connected" }

type Status struct {
	Result
	Data *StatusData `json:"data"`
}

func (*Status) Kind() Kind { return KindStatus }

type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Topic     string   `json:"topic,omitempty"`
	Owner     string   `json:"owner"`
	Admins    []string `json:"admins,omitempty"`
	Members   []string `json:"members,omitempty"`
	Created   string   `json:"created"`
	Ephemeral bool     `json:"ephemeral"`
	Locked    bool     `json:"locked"`
}

type Groups struct {
	Result
	Data []Group `json:"data"`
}

func (*Groups) Kind() Kind { return KindGroups }

// ContactInfo uses the capitalized keys emitted by the self-hosted API.
type ContactInfo struct {
	Found        bool   `json:"Found"`
	FirstName    string `json:"FirstName,omitempty"`
	FullName     string `json:"FullName,omitempty"`
	PushName     string `json:"PushName,omitempty"`
	BusinessName string `json:"BusinessName,omitempty"`
}

type Contact struct {
	ID   int64       `json:"id"`
	Info ContactInfo `json:"info"`
}

type Contacts struct {
	Result
	Data []Contact `json:"data"`
}

func (*Contacts) Kind() Kind { return KindContacts }

type UploadedMedia struct {
	ID string `json:"id"`
}

type Upload struct {
	Result
	Media []UploadedMedia `json:"media"`
}

func (*Upload) Kind() Kind { return KindUpload }

// MediaID returns the id of the first uploaded item, or "" when none.
func (u *Upload) MediaID() string {
	if len(u.Media) == 0 {
		return ""
	}
	return u.Media[0].ID
}

// MessageContact maps the requested input to the resolved wa_id.
type MessageContact struct {
	Input string `json:"input"`
	WaID  string `json:"wa_id"`
}

// SentMessage identifies an accepted outbound message.
type SentMessage struct {
	ID            string `json:"id"`
	MessageStatus string `json:"message_status,omitempty"`
}

type Message struct {
	Result
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []MessageContact `json:"contacts"`
	Messages         []SentMessage    `json:"messages"`
}

func (*Message) Kind() Kind { return KindMessage }

// MessageID returns the id of the first accepted message, or "" when none.
func (m *Message) MessageID() string {
	if len(m.Messages) == 0 {
		return ""
	}
	return m.Messages[0].ID
}

// FlexString decodes a JSON string or number into its textual form. The Cloud
// API reports file_size as either.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = FlexString(n.String())
	return nil
}

// Int64 parses the value as a base-10 integer.
func (f FlexString) Int64() (int64, error) { return strconv.ParseInt(string(f), 10, 64) }

type Media struct {
	Result
	MessagingProduct string     `json:"messaging_product,omitempty"`
	URL              string     `json:"url"`
	MimeType         string     `json:"mime_type"`
	SHA256           string     `json:"sha256"`
	FileSize         FlexString `json:"file_size"`
	ID               string     `json:"id"`
}

func (*Media) Kind() Kind { return KindMedia }

// Privacy is the contact privacy setting of a self-hosted account.
type Privacy struct {
	Type string  `json:"type"`
	List []int64 `json:"list,omitempty"`
}

type PrivacyResponse struct {
	Result
	Data Privacy `json:"data"`
}

func (*PrivacyResponse) Kind() Kind { return KindPrivacy }

type Newsletter struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CreationTime string `json:"creation_time"`
	Description  string `json:"description,omitempty"`
	Profile      string `json:"profile,omitempty"`
	Role         string `json:"role,omitempty"`
	Invite       string `json:"invite,omitempty"`
	Subscribers  int    `json:"subscribers,omitempty"`
	Verified     bool   `json:"verified"`
	Muted        bool   `json:"muted"`
}

type Newsletters struct {
	Result
	Data []Newsletter `json:"data"`
}

func (*Newsletters) Kind() Kind { return KindNewsletters }

type NewsletterResponse struct {
	Result
	Data Newsletter `json:"data"`
}

func (*NewsletterResponse) Kind() Kind { return KindNewsletter }

type PairCode struct {
	Result
	Data string `json:"data"`
}

func (*PairCode) Kind() Kind { return KindPairCode }

// Generic is the fallback for bodies that match no specific shape. A missing
// success key decodes as false.
type Generic struct {
	Result
	Data json.RawMessage `json:"data,omitempty"`
}

func (*Generic) Kind() Kind { return KindGeneric }

// RawText keeps a body that was not JSON at all, such as an HTML error page.
type RawText struct {
	Text string
}

func (*RawText) Kind() Kind      { return KindRawText }
func (*RawText) Succeeded() bool { return false }
func (*RawText) Outcome() Result { return Result{} }
