package models

import "time"

// Status event types published on the status topic.
const (
	StatusEventQueued         = "queued"
	StatusEventAttempt        = "attempt"
	StatusEventRetryScheduled = "retry_scheduled"
	StatusEventSent           = "sent"
	StatusEventFailed         = "failed"
)

// ProviderResponse is the API outcome attached to status events.
type ProviderResponse struct {
	Status     string            `json:"status"`
	HTTPStatus int               `json:"http_status,omitempty"`
	Code       *int              `json:"code,omitempty"`
	Message    string            `json:"message,omitempty"`
	WAMID      string            `json:"wamid,omitempty"`
	Raw        string            `json:"raw,omitempty"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// StatusEvent represents a lifecycle event for an outbound message.
type StatusEvent struct {
	MessageID        string            `json:"message_id"`
	Channel          string            `json:"channel"`
	Kind             string            `json:"kind,omitempty"`
	EventType        string            `json:"event_type"`
	Attempt          int               `json:"attempt,omitempty"`
	RetryIn          float64           `json:"retry_in_seconds,omitempty"`
	ProviderResponse *ProviderResponse `json:"provider_response,omitempty"`
	Error            string            `json:"error,omitempty"`
	TraceID          string            `json:"trace_id,omitempty"`
	TenantID         string            `json:"tenant_id,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}
