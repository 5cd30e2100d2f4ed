package models

import (
	"encoding/json"
	"time"
)

// Failure types for DLQ records.
const (
	FailureTypePermanent  = "permanent"
	FailureTypeTransient  = "transient"
	FailureTypeValidation = "validation"
	FailureTypeUnknown    = "unknown"
)

// DLQRecord is written to the DLQ topic when a request is abandoned.
// OriginalMessage holds the consumed payload verbatim when it was valid JSON.
type DLQRecord struct {
	MessageID       string            `json:"message_id"`
	Channel         string            `json:"channel"`
	OriginalMessage json.RawMessage   `json:"original_message,omitempty"`
	OriginalRaw     string            `json:"original_raw,omitempty"`
	Attempts        int               `json:"attempts"`
	FailureType     string            `json:"failure_type"`
	LastError       string            `json:"last_error,omitempty"`
	HTTPStatus      int               `json:"http_status,omitempty"`
	ProviderCode    int               `json:"provider_code,omitempty"`
	FirstFailedAt   time.Time         `json:"first_failed_at"`
	LastAttemptAt   time.Time         `json:"last_attempt_at"`
	TraceID         string            `json:"trace_id,omitempty"`
	TenantID        string            `json:"tenant_id,omitempty"`
	Meta            map[string]string `json:"meta,omitempty"`
}
