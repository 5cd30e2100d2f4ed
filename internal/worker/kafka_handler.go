package worker

import (
	"context"

	"github.com/example/whatsapp-api-go/internal/kafka/consumer"
)

// OffsetCommitter commits a consumed record. *consumer.Consumer implements it.
type OffsetCommitter interface {
	Commit(ctx context.Context, rec *consumer.Record) error
}

// KafkaHandler returns a consumer.Handler that converts consumer records into
// worker records bound to cons and hands them to the engine.
func KafkaHandler(engine *Engine, cons OffsetCommitter) consumer.Handler {
	return func(ctx context.Context, rec *consumer.Record) error {
		if engine == nil || rec == nil {
			return nil
		}

		var commitFn func(context.Context) error
		if cons != nil {
			commitFn = func(c context.Context) error {
				return cons.Commit(c, rec)
			}
		}

		engine.HandleRecord(ctx, NewRecordFromConsumer(rec, commitFn))
		return nil
	}
}

// RecordCommitter commits through the hook bound by NewRecordFromConsumer.
func RecordCommitter() Committer {
	return CommitFunc(func(ctx context.Context, record *Record) error {
		return record.Commit(ctx)
	})
}
