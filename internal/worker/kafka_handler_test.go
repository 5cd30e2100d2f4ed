package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/whatsapp-api-go/internal/adapters/common"
	"github.com/example/whatsapp-api-go/internal/kafka/consumer"
	"github.com/example/whatsapp-api-go/internal/worker"
)

type offsetRecorder struct {
	mu      sync.Mutex
	offsets []int64
	done    chan struct{}
}

func (o *offsetRecorder) Commit(ctx context.Context, rec *consumer.Record) error {
	o.mu.Lock()
	o.offsets = append(o.offsets, rec.Offset)
	o.mu.Unlock()
	close(o.done)
	return nil
}

func TestKafkaHandlerCommitsThroughConsumer(t *testing.T) {
	commits := &offsetRecorder{done: make(chan struct{})}
	engine, err := worker.NewEngine(defaultConfig(), worker.Dependencies{
		Adapter:         &adapterStub{responses: []callResult{{resp: &common.ProviderResponse{Status: "sent"}}}},
		Validator:       validMessage("msg-k"),
		StatusPublisher: &statusCollector{},
		DLQPublisher:    &dlqCollector{},
		Committer:       worker.RecordCommitter(),
		Logger:          zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("engine init: %v", err)
	}

	handler := worker.KafkaHandler(engine, commits)
	if err := handler(context.Background(), &consumer.Record{Topic: "whatsapp.request", Offset: 11, Key: []byte("msg-k"), Value: []byte(`{}`)}); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	select {
	case <-commits.done:
	case <-time.After(time.Second):
		t.Fatalf("expected the consumer record to be committed")
	}
	engine.Wait()

	if len(commits.offsets) != 1 || commits.offsets[0] != 11 {
		t.Fatalf("unexpected committed offsets %v", commits.offsets)
	}
}

func TestNewRecordFromConsumerCopiesData(t *testing.T) {
	src := &consumer.Record{
		Topic:     "whatsapp.request",
		Partition: 2,
		Offset:    9,
		Key:       []byte("key"),
		Value:     []byte("value"),
		Headers:   map[string][]byte{"trace-id": []byte("abc")},
	}
	called := false
	rec := worker.NewRecordFromConsumer(src, func(context.Context) error {
		called = true
		return nil
	})

	src.Value[0] = 'X'
	if string(rec.Value) != "value" || string(rec.Headers["trace-id"]) != "abc" {
		t.Fatalf("expected a deep copy, got %+v", rec)
	}
	if err := rec.Commit(context.Background()); err != nil || !called {
		t.Fatalf("expected commit hook to run, err=%v called=%v", err, called)
	}
}
