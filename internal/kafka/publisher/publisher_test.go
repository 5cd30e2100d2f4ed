package publisher_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	kafkapublisher "github.com/example/whatsapp-api-go/internal/kafka/publisher"
	"github.com/example/whatsapp-api-go/internal/models"
)

type fakeSyncProducer struct {
	err     error
	topic   string
	key     []byte
	headers map[string][]byte
	payload []byte
}

func (f *fakeSyncProducer) PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error {
	f.topic = topic
	f.key = append([]byte(nil), key...)
	f.headers = headers
	f.payload = append([]byte(nil), payload...)
	return f.err
}

func TestStatusPublisherPublishesEvent(t *testing.T) {
	prod := &fakeSyncProducer{}
	pub := kafkapublisher.NewStatusPublisher(prod, "status-topic", zerolog.Nop())
	if pub == nil {
		t.Fatalf("expected publisher instance")
	}

	code := 131056
	event := models.StatusEvent{
		MessageID: "message-1",
		Channel:   models.ChannelWhatsApp,
		Kind:      models.KindText,
		EventType: models.StatusEventRetryScheduled,
		Attempt:   2,
		RetryIn:   2.8284271247461903,
		ProviderResponse: &models.ProviderResponse{
			Status:     "rate_limited",
			HTTPStatus: 400,
			Code:       &code,
		},
		TraceID:   "trace-1",
		Timestamp: time.Unix(123, 0).UTC(),
	}

	if err := pub.PublishStatus(context.Background(), event); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	if prod.topic != "status-topic" {
		t.Fatalf("expected topic status-topic, got %s", prod.topic)
	}
	if string(prod.key) != "message-1" {
		t.Fatalf("expected key message-1, got %s", string(prod.key))
	}
	if ct := prod.headers["content-type"]; string(ct) != "application/json" {
		t.Fatalf("expected content-type header, got %s", string(ct))
	}
	if et := prod.headers["event-type"]; string(et) != models.StatusEventRetryScheduled {
		t.Fatalf("expected event-type header, got %s", string(et))
	}
	if tr := prod.headers["trace-id"]; string(tr) != "trace-1" {
		t.Fatalf("expected trace-id header, got %s", string(tr))
	}

	var payload models.StatusEvent
	if err := json.Unmarshal(prod.payload, &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if payload.EventType != models.StatusEventRetryScheduled || payload.Channel != models.ChannelWhatsApp {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.ProviderResponse == nil || payload.ProviderResponse.Code == nil || *payload.ProviderResponse.Code != code {
		t.Fatalf("expected provider code in payload, got %+v", payload.ProviderResponse)
	}
}

func TestStatusPublisherPropagatesProducerError(t *testing.T) {
	expectedErr := errors.New("broker down")
	prod := &fakeSyncProducer{err: expectedErr}

	pub := kafkapublisher.NewStatusPublisher(prod, "status-topic", zerolog.Nop())
	err := pub.PublishStatus(context.Background(), models.StatusEvent{MessageID: "id"})
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected producer error, got %v", err)
	}
}

func TestStatusPublisherHandlesNilInstance(t *testing.T) {
	var pub *kafkapublisher.StatusPublisher
	if err := pub.PublishStatus(context.Background(), models.StatusEvent{}); !errors.Is(err, kafkapublisher.ErrProducerNotInitialised()) {
		t.Fatalf("expected not initialised error, got %v", err)
	}
	if kafkapublisher.NewStatusPublisher(nil, "topic", zerolog.Nop()) != nil {
		t.Fatalf("expected nil publisher without a producer")
	}
}

func TestDLQPublisherPublishesRecord(t *testing.T) {
	prod := &fakeSyncProducer{}
	pub := kafkapublisher.NewDLQPublisher(prod, "dlq-topic", zerolog.Nop())

	record := models.DLQRecord{
		MessageID:       "message-2",
		Channel:         models.ChannelWhatsApp,
		OriginalMessage: json.RawMessage(`{"kind":"text"}`),
		Attempts:        4,
		FailureType:     models.FailureTypeTransient,
		HTTPStatus:      429,
	}

	if err := pub.PublishDLQ(context.Background(), record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if prod.topic != "dlq-topic" {
		t.Fatalf("expected dlq-topic, got %s", prod.topic)
	}
	if ft := prod.headers["failure-type"]; string(ft) != models.FailureTypeTransient {
		t.Fatalf("expected failure-type header, got %s", string(ft))
	}

	var decoded models.DLQRecord
	if err := json.Unmarshal(prod.payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded.Attempts != 4 || decoded.MessageID != "message-2" || decoded.HTTPStatus != 429 {
		t.Fatalf("unexpected DLQ payload %+v", decoded)
	}
	if string(decoded.OriginalMessage) != `{"kind":"text"}` {
		t.Fatalf("expected original message to be embedded verbatim, got %s", decoded.OriginalMessage)
	}
}

func TestDLQPublisherPropagatesProducerError(t *testing.T) {
	expectedErr := errors.New("inject")
	prod := &fakeSyncProducer{err: expectedErr}
	pub := kafkapublisher.NewDLQPublisher(prod, "dlq-topic", zerolog.Nop())

	if err := pub.PublishDLQ(context.Background(), models.DLQRecord{MessageID: "id"}); !errors.Is(err, expectedErr) {
		t.Fatalf("expected producer error, got %v", err)
	}
}
