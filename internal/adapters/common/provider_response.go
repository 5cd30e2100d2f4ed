package common

import "unicode/utf8"

// DefaultRawBodyLimit defines the maximum number of characters retained from a
// provider response body when attaching it to a ProviderResponse.
const DefaultRawBodyLimit = 1024

// ProviderResponse captures the normalized API outcome exchanged between the
// adapter and the worker engine.
type ProviderResponse struct {
	Status     string            `json:"status"`
	HTTPStatus int               `json:"http_status,omitempty"`
	Code       *int              `json:"code,omitempty"`
	Message    string            `json:"message,omitempty"`
	WAMID      string            `json:"wamid,omitempty"`
	Raw        string            `json:"raw,omitempty"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// TruncateRaw trims the supplied string to the specified rune limit. If limit
// is zero or negative it returns an empty string.
func TruncateRaw(raw string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(raw) <= limit {
		return raw
	}
	runes := []rune(raw)
	return string(runes[:limit])
}
