package message

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMediaSource is returned when a media object has neither an id
	// nor a link, or has both.
	ErrInvalidMediaSource = errors.New("invalid media source: exactly one of id or link must be specified")
	// ErrMissingSectionTitle is returned when a multi-section list or product
	// list contains a section without a title.
	ErrMissingSectionTitle = errors.New("all sections must have a title when more than one section is present")
	// ErrInvalidHeaderForVariant is matched by *InvalidHeaderError.
	ErrInvalidHeaderForVariant = errors.New("invalid header for interactive variant")
	// ErrMissingFlowPayload is returned when a navigate flow has no action payload.
	ErrMissingFlowPayload = errors.New("flow_action_payload is required when flow_action is navigate")
	// ErrInvalidField is matched by validation errors that are not covered by a
	// more specific error.
	ErrInvalidField = errors.New("invalid field")
)

// FieldTooLongError reports a value exceeding a provider character limit.
type FieldTooLongError struct {
	Field  string
	Max    int
	Actual int
}

func (e *FieldTooLongError) Error() string {
	return fmt.Sprintf("%s exceeds maximum length of %d characters (got %d)", e.Field, e.Max, e.Actual)
}

// RequiredFieldError reports a missing mandatory value.
type RequiredFieldError struct {
	Field string
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// Is lets callers match any missing field with ErrInvalidField.
func (e *RequiredFieldError) Is(target error) bool {
	return target == ErrInvalidField
}

// InvalidHeaderError reports a header type that the interactive variant does not accept.
type InvalidHeaderError struct {
	Variant InteractiveType
	Header  HeaderType
}

func (e *InvalidHeaderError) Error() string {
	if e.Header == "" {
		return fmt.Sprintf("interactive %s requires a header", e.Variant)
	}
	return fmt.Sprintf("interactive %s does not accept a %s header", e.Variant, e.Header)
}

func (e *InvalidHeaderError) Is(target error) bool {
	return target == ErrInvalidHeaderForVariant
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidField, fmt.Sprintf(format, args...))
}

func required(field string) error {
	return &RequiredFieldError{Field: field}
}

func checkLength(field, value string, max int) error {
	if n := runeLen(value); n > max {
		return &FieldTooLongError{Field: field, Max: max, Actual: n}
	}
	return nil
}
