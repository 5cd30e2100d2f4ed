package common

import (
	"time"

	"github.com/example/whatsapp-api-go/internal/models"
	"github.com/example/whatsapp-api-go/internal/whatsapp/message"
)

// ValidatedMessage is a request that passed validation together with the
// envelope built from it. Read receipts carry ReadMessageID instead of an
// envelope.
type ValidatedMessage struct {
	Channel       string
	MessageID     string
	TraceID       string
	TenantID      string
	Kind          string
	CreatedAt     time.Time
	Metadata      map[string]string
	Request       *models.WhatsAppRequest
	Envelope      message.Message
	ReadMessageID string
	RawPayload    []byte
	Key           []byte
	KafkaHeaders  map[string][]byte
}
