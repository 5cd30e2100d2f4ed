package response

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// UnparsableError reports a body that is JSON but cannot populate any variant:
// either it is not an object, or it matched a shape whose fields failed to
// decode.
type UnparsableError struct {
	Raw  []byte
	Kind Kind
	Err  error
}

func (e *UnparsableError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("unparsable %s response: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("unparsable response: %v", e.Err)
}

func (e *UnparsableError) Unwrap() error { return e.Err }

type rule struct {
	kind   Kind
	match  func(root gjson.Result) bool
	decode func(body []byte) (Response, error)
}

// rules are evaluated in order and the first match wins. Shapes overlap, so
// the order is significant.
var rules = []rule{
	{KindUpload, isUpload, decodeInto(func() Response { return &Upload{Result: Result{Success: true}} })},
	{KindMessage, isMessage, decodeInto(func() Response { return &Message{Result: Result{Success: true}} })},
	{KindMedia, isMedia, decodeInto(func() Response { return &Media{Result: Result{Success: true}} })},
	{KindLogin, isLogin, decodeInto(func() Response { return &Login{} })},
	{KindGroups, isGroups, decodeInto(func() Response { return &Groups{} })},
	{KindContacts, isContacts, decodeInto(func() Response { return &Contacts{} })},
	{KindStatus, isStatus, decodeInto(func() Response { return &Status{} })},
	{KindPrivacy, isPrivacy, decodeInto(func() Response { return &PrivacyResponse{} })},
	{KindNewsletters, isNewsletters, decodeInto(func() Response { return &Newsletters{} })},
	{KindNewsletter, isNewsletter, decodeInto(func() Response { return &NewsletterResponse{} })},
	{KindPairCode, isPairCode, decodeInto(func() Response { return &PairCode{} })},
	{KindLogout, isLogout, decodeInto(func() Response { return &Logout{} })},
}

// Parse selects and populates the response variant for body. Empty and
// non-JSON bodies yield *RawText. JSON that is not an object, or that matches
// a shape but fails to decode, yields *UnparsableError.
func Parse(body []byte) (Response, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !gjson.ValidBytes(trimmed) {
		return &RawText{Text: string(body)}, nil
	}

	root := gjson.ParseBytes(trimmed)
	if !root.IsObject() {
		return nil, &UnparsableError{Raw: body, Err: fmt.Errorf("expected a JSON object, got %s", root.Type)}
	}

	for _, r := range rules {
		if !r.match(root) {
			continue
		}
		resp, err := r.decode(trimmed)
		if err != nil {
			return nil, &UnparsableError{Raw: body, Kind: r.kind, Err: err}
		}
		return resp, nil
	}

	resp, err := decodeInto(func() Response { return &Generic{} })(trimmed)
	if err != nil {
		return nil, &UnparsableError{Raw: body, Kind: KindGeneric, Err: err}
	}
	return resp, nil
}

// IsFallback reports whether r is the generic fallback variant.
func IsFallback(r Response) bool {
	return r != nil && r.Kind() == KindGeneric
}

func decodeInto(newResp func() Response) func([]byte) (Response, error) {
	return func(body []byte) (Response, error) {
		resp := newResp()
		if err := json.Unmarshal(body, resp); err != nil {
			return nil, err
		}
		return resp, nil
	}
}

func hasAll(obj gjson.Result, keys ...string) bool {
	if !obj.IsObject() {
		return false
	}
	for _, k := range keys {
		if !obj.Get(k).Exists() {
			return false
		}
	}
	return true
}

// everyObject reports whether v is a non-empty array whose elements are all
// objects carrying keys.
func everyObject(v gjson.Result, keys ...string) bool {
	if !v.IsArray() {
		return false
	}
	items := v.Array()
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !hasAll(item, keys...) {
			return false
		}
	}
	return true
}

func isUpload(root gjson.Result) bool {
	return everyObject(root.Get("media"), "id") && !root.Get("messages").Exists()
}

func isMessage(root gjson.Result) bool {
	if !root.Get("messaging_product").Exists() {
		return false
	}
	return root.Get("messages").IsArray() || root.Get("contacts").IsArray()
}

func isMedia(root gjson.Result) bool {
	return hasAll(root, "url", "mime_type", "sha256")
}

func isLogin(root gjson.Result) bool {
	return hasAll(root.Get("data"), "id", "code", "token")
}

func isGroups(root gjson.Result) bool {
	return everyObject(root.Get("data"), "id", "name", "owner")
}

func isContacts(root gjson.Result) bool {
	return everyObject(root.Get("data"), "id", "info")
}

func isStatus(root gjson.Result) bool {
	data := root.Get("data")
	if !hasAll(data, "status", "id") {
		return false
	}
	switch data.Get("status").String() {
	case "init", "connected", "error":
		return true
	}
	return false
}

func isPrivacy(root gjson.Result) bool {
	data := root.Get("data")
	if !hasAll(data, "type") {
		return false
	}
	switch data.Get("type").String() {
	case "contacts", "blacklist", "whitelist":
		return true
	}
	return false
}

func isNewsletters(root gjson.Result) bool {
	return everyObject(root.Get("data"), "id", "name", "creation_time")
}

func isNewsletter(root gjson.Result) bool {
	return hasAll(root.Get("data"), "id", "name", "creation_time")
}

func isPairCode(root gjson.Result) bool {
	return root.Get("data").Type == gjson.String
}

// isLogout needs an explicit "data": null so that bare acknowledgements fall
// through to Generic.
func isLogout(root gjson.Result) bool {
	data := root.Get("data")
	return root.Get("success").Type == gjson.True && data.Exists() && data.Type == gjson.Null && !root.Get("error").Exists()
}
