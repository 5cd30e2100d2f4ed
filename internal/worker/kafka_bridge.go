package worker

import (
	"context"

	"github.com/example/whatsapp-api-go/internal/kafka/consumer"
)

// NewRecordFromConsumer copies a consumer record into a worker record and binds
// commit as its commit hook. The engine runs the hook once the record reached a
// terminal outcome.
func NewRecordFromConsumer(rec *consumer.Record, commit func(context.Context) error) *Record {
	if rec == nil {
		return nil
	}

	wr := &Record{
		Topic:     rec.Topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
		Key:       cloneBytes(rec.Key),
		Value:     cloneBytes(rec.Value),
		Timestamp: rec.Timestamp,
		Headers:   cloneHeaders(rec.Headers),
	}

	if commit != nil {
		wr.setCommitFn(commit)
	}

	return wr
}
