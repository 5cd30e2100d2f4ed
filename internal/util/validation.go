package util

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	// ErrInvalidUUID is returned when a value is not a UUID v4.
	ErrInvalidUUID = errors.New("invalid uuid v4")
	// ErrInvalidRecipient is returned when a value is neither a phone number nor a JID.
	ErrInvalidRecipient = errors.New("invalid whatsapp recipient")
	// ErrInvalidURL indicates that a URL failed validation.
	ErrInvalidURL = errors.New("invalid url")
)

var (
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{4,14}$`)
	groupPattern = regexp.MustCompile(`^[0-9]+(-[0-9]+)?@g\.us$`)
	// user@server as used by the self-hosted API: s.whatsapp.net, lid,
	// newsletter, broadcast. Device JIDs carry a ":<device>" suffix.
	jidPattern = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._:-]*@[a-z][a-z0-9.-]*$`)
)

// ParseUUIDv4 parses and validates a UUID string, ensuring it is version 4.
func ParseUUIDv4(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.UUID{}, fmt.Errorf("%w: value is empty", ErrInvalidUUID)
	}

	u, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: %v", ErrInvalidUUID, err)
	}

	if u.Version() != 4 {
		return uuid.UUID{}, fmt.Errorf("%w: expected version 4", ErrInvalidUUID)
	}

	return u, nil
}

// NormalizeRecipient validates a WhatsApp recipient. Phone numbers are returned
// without the leading plus sign because the provider addresses users by wa_id;
// JIDs, groups included, are returned unchanged.
func NormalizeRecipient(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: value is empty", ErrInvalidRecipient)
	}
	if strings.Contains(trimmed, "@") {
		if groupPattern.MatchString(trimmed) || jidPattern.MatchString(trimmed) {
			return trimmed, nil
		}
		return "", fmt.Errorf("%w: %q", ErrInvalidRecipient, trimmed)
	}
	if !phonePattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRecipient, trimmed)
	}
	return strings.TrimPrefix(trimmed, "+"), nil
}

// IsGroupRecipient reports whether the value looks like a group identifier.
func IsGroupRecipient(value string) bool {
	return groupPattern.MatchString(strings.TrimSpace(value))
}

// ValidateMetadata enforces constraints on metadata maps and returns a copy
// containing trimmed keys and values.
func ValidateMetadata(meta map[string]string, maxEntries, maxKeyLen, maxValueLen int) (map[string]string, error) {
	if len(meta) == 0 {
		return nil, nil
	}

	if maxEntries > 0 && len(meta) > maxEntries {
		return nil, fmt.Errorf("metadata entries exceeded: got %d, max %d", len(meta), maxEntries)
	}

	out := make(map[string]string, len(meta))
	for rawKey, rawValue := range meta {
		key := strings.TrimSpace(rawKey)
		value := strings.TrimSpace(rawValue)

		if key == "" {
			return nil, errors.New("metadata key cannot be empty")
		}

		if maxKeyLen > 0 && utf8.RuneCountInString(key) > maxKeyLen {
			return nil, fmt.Errorf("metadata key %q exceeds max length %d", key, maxKeyLen)
		}

		if maxValueLen > 0 && utf8.RuneCountInString(value) > maxValueLen {
			return nil, fmt.Errorf("metadata value for %q exceeds max length %d", key, maxValueLen)
		}

		out[key] = value
	}

	return out, nil
}

// RuneLen returns the number of characters in value. Provider length limits are
// expressed in characters, not bytes.
func RuneLen(value string) int {
	return utf8.RuneCountInString(value)
}

// ValidateHTTPURL ensures the provided string is a valid HTTP or HTTPS URL.
func ValidateHTTPURL(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: value is empty", ErrInvalidURL)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	return trimmed, nil
}
