package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	common "github.com/example/whatsapp-api-go/internal/adapters/common"
	"github.com/example/whatsapp-api-go/internal/kafka/consumer"
	"github.com/example/whatsapp-api-go/internal/models"
	"github.com/example/whatsapp-api-go/internal/whatsapp/retry"
)

// Config contains the runtime settings the worker engine relies on to
// orchestrate processing, retries and DLQ handling.
type Config struct {
	Channel     string
	MsgMaxBytes int
	// MaxAttempts caps send attempts per record. Zero leaves the limit to the
	// retry policy.
	MaxAttempts       int
	WorkerConcurrency int
}

// Record represents a Kafka message delivered to the worker. It keeps the
// engine decoupled from the concrete consumer while carrying the commit hook
// bound by the consumer bridge.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string][]byte

	commit func(context.Context) error
}

func (r *Record) setCommitFn(fn func(context.Context) error) {
	r.commit = fn
}

// Commit runs the commit hook bound to the record, if any.
func (r *Record) Commit(ctx context.Context) error {
	if r == nil || r.commit == nil {
		return nil
	}
	return r.commit(ctx)
}

// Clone returns a deep copy of the record so it can be safely shared with
// asynchronous goroutines without risking data races.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	clone := *r
	clone.Key = cloneBytes(r.Key)
	clone.Value = cloneBytes(r.Value)
	if len(r.Headers) > 0 {
		clone.Headers = cloneHeaders(r.Headers)
	}

	return &clone
}

// FailureType enumerates the DLQ failure classifications.
type FailureType string

const (
	FailureTypePermanent  FailureType = models.FailureTypePermanent
	FailureTypeTransient  FailureType = models.FailureTypeTransient
	FailureTypeValidation FailureType = models.FailureTypeValidation
	FailureTypeUnknown    FailureType = models.FailureTypeUnknown
)

// Validator parses and validates inbound records. On failure the returned
// message may be nil or partially populated.
type Validator interface {
	ParseAndValidate(ctx context.Context, channel string, payload []byte) (*common.ValidatedMessage, error)
}

// StatusPublisher publishes lifecycle updates for a message.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, event models.StatusEvent) error
}

// DLQPublisher writes abandoned messages to the DLQ topic.
type DLQPublisher interface {
	PublishDLQ(ctx context.Context, record models.DLQRecord) error
}

// Committer is the abstraction for committing Kafka offsets after processing.
type Committer interface {
	Commit(ctx context.Context, record *Record) error
}

// CommitFunc adapts a function to Committer.
type CommitFunc func(ctx context.Context, record *Record) error

// Commit implements Committer.
func (f CommitFunc) Commit(ctx context.Context, record *Record) error {
	return f(ctx, record)
}

// Dependencies collects the runtime collaborators required by the engine.
type Dependencies struct {
	Adapter         common.Adapter
	Validator       Validator
	StatusPublisher StatusPublisher
	DLQPublisher    DLQPublisher
	Committer       Committer
	Logger          zerolog.Logger
	Now             func() time.Time
	// Sleep waits between attempts. It returns an error when ctx ends first.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Engine orchestrates validation, retries, DLQ handling and offset commits for
// inbound records. Retry timing follows retry.Decide.
type Engine struct {
	cfg             Config
	adapter         common.Adapter
	validator       Validator
	statusPublisher StatusPublisher
	dlqPublisher    DLQPublisher
	committer       Committer
	logger          zerolog.Logger

	semaphore *semaphore.Weighted
	inflight  sync.WaitGroup

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine constructs a worker engine using the supplied configuration and
// collaborators.
func NewEngine(cfg Config, deps Dependencies) (*Engine, error) {
	if cfg.Channel == "" {
		return nil, errors.New("worker: channel must be provided")
	}
	if cfg.MaxAttempts < 0 {
		return nil, errors.New("worker: max attempts cannot be negative")
	}
	if cfg.WorkerConcurrency < 1 {
		return nil, errors.New("worker: worker concurrency must be >= 1")
	}
	if cfg.MsgMaxBytes < 0 {
		return nil, errors.New("worker: msg max bytes cannot be negative")
	}
	if deps.Adapter == nil {
		return nil, errors.New("worker: adapter dependency is required")
	}
	if deps.Validator == nil {
		return nil, errors.New("worker: validator dependency is required")
	}
	if deps.StatusPublisher == nil {
		return nil, errors.New("worker: status publisher dependency is required")
	}
	if deps.DLQPublisher == nil {
		return nil, errors.New("worker: DLQ publisher dependency is required")
	}
	if deps.Committer == nil {
		return nil, errors.New("worker: committer dependency is required")
	}

	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	logger = logger.With().Str("component", "worker_engine").Logger()

	nowFunc := deps.Now
	if nowFunc == nil {
		nowFunc = time.Now
	}
	sleepFunc := deps.Sleep
	if sleepFunc == nil {
		sleepFunc = wait
	}

	return &Engine{
		cfg:             cfg,
		adapter:         deps.Adapter,
		validator:       deps.Validator,
		statusPublisher: deps.StatusPublisher,
		dlqPublisher:    deps.DLQPublisher,
		committer:       deps.Committer,
		logger:          logger,
		semaphore:       semaphore.NewWeighted(int64(cfg.WorkerConcurrency)),
		now:             nowFunc,
		sleep:           sleepFunc,
	}, nil
}

// HandleRecord performs upfront validation for record size, parses the payload
// and triggers asynchronous processing with retry handling.
func (e *Engine) HandleRecord(ctx context.Context, record *Record) {
	if record == nil {
		return
	}

	if e.cfg.MsgMaxBytes > 0 && len(record.Value) > e.cfg.MsgMaxBytes {
		err := fmt.Errorf("payload exceeds maximum size: got %d bytes, limit %d bytes", len(record.Value), e.cfg.MsgMaxBytes)
		msg := e.partialMessageFromRecord(record)
		e.logger.Warn().
			Str("message_id", msg.MessageID).
			Err(err).
			Msg("worker: record discarded because it exceeds configured size limit")
		e.rejectRecord(ctx, record, msg, err)
		return
	}

	validated, err := e.validator.ParseAndValidate(ctx, e.cfg.Channel, record.Value)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		if validated == nil {
			validated = e.partialMessageFromRecord(record)
		}
		e.fillFromRecord(validated, record)
		e.logger.Warn().
			Str("message_id", validated.MessageID).
			Str("kind", validated.Kind).
			Err(err).
			Msg("worker: validation failed for record")
		e.rejectRecord(ctx, record, validated, err)
		return
	}
	e.fillFromRecord(validated, record)

	if err := e.semaphore.Acquire(ctx, 1); err != nil {
		e.logger.Error().
			Str("message_id", validated.MessageID).
			Err(err).
			Msg("worker: failed to acquire concurrency semaphore")
		return
	}

	recCopy := record.Clone()
	e.inflight.Add(1)
	go e.processRecord(ctx, recCopy, validated)
}

// Wait blocks until every record handed to processing has finished.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

func (e *Engine) rejectRecord(ctx context.Context, record *Record, msg *common.ValidatedMessage, err error) {
	now := e.now()
	e.publishStatus(ctx, msg, models.StatusEvent{EventType: models.StatusEventFailed, Error: err.Error(), Timestamp: now})
	e.publishDLQ(ctx, msg, models.DLQRecord{
		FailureType:   string(FailureTypeValidation),
		LastError:     err.Error(),
		FirstFailedAt: now,
		LastAttemptAt: now,
	})
	e.commitRecord(ctx, record)
}

func (e *Engine) processRecord(ctx context.Context, record *Record, msg *common.ValidatedMessage) {
	defer e.inflight.Done()
	defer e.semaphore.Release(1)

	if ctx.Err() != nil {
		e.logger.Warn().
			Str("message_id", msg.MessageID).
			Msg("worker: context cancelled before processing began")
		return
	}

	e.publishStatus(ctx, msg, models.StatusEvent{EventType: models.StatusEventQueued})

	attempt := 1
	firstFailedAt := time.Time{}

	for {
		e.publishStatus(ctx, msg, models.StatusEvent{EventType: models.StatusEventAttempt, Attempt: attempt})
		start := e.now()
		providerResp, err := e.adapter.Send(ctx, msg)
		duration := e.now().Sub(start)

		logEvent := e.logger.With().
			Str("message_id", msg.MessageID).
			Str("kind", msg.Kind).
			Int("attempt", attempt).
			Dur("duration", duration).
			Logger()

		if err == nil {
			logEvent.Info().Msg("worker: message sent successfully")
			e.publishStatus(ctx, msg, models.StatusEvent{EventType: models.StatusEventSent, Attempt: attempt, ProviderResponse: toModelResponse(providerResp)})
			e.commitRecord(ctx, record)
			return
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logEvent.Warn().Err(err).Msg("worker: context cancelled during send; deferring commit for reprocessing")
			return
		}

		logEvent.Warn().Err(err).Msg("worker: adapter returned error")

		now := e.now()
		if firstFailedAt.IsZero() {
			firstFailedAt = now
		}
		status, code := common.RetryInputs(err)
		dlq := models.DLQRecord{
			Attempts:      attempt,
			LastError:     err.Error(),
			HTTPStatus:    status,
			ProviderCode:  code,
			FirstFailedAt: firstFailedAt,
			LastAttemptAt: now,
		}
		failed := models.StatusEvent{
			EventType:        models.StatusEventFailed,
			Attempt:          attempt,
			ProviderResponse: toModelResponse(providerResp),
			Error:            err.Error(),
			Timestamp:        now,
		}

		if errors.Is(err, common.ErrPermanent) {
			dlq.FailureType = string(FailureTypePermanent)
			e.publishStatus(ctx, msg, failed)
			e.publishDLQ(ctx, msg, dlq)
			e.commitRecord(ctx, record)
			return
		}

		decision := retry.Decide(attempt, status, code)
		if decision.Stop || (e.cfg.MaxAttempts > 0 && attempt >= e.cfg.MaxAttempts) {
			dlq.FailureType = string(FailureTypeTransient)
			if !errors.Is(err, common.ErrTransient) {
				dlq.FailureType = string(FailureTypeUnknown)
			}
			e.publishStatus(ctx, msg, failed)
			e.publishDLQ(ctx, msg, dlq)
			e.commitRecord(ctx, record)
			return
		}

		delay := decision.Duration()
		logEvent.Info().Dur("backoff", delay).Msg("worker: scheduling retry")
		e.publishStatus(ctx, msg, models.StatusEvent{
			EventType:        models.StatusEventRetryScheduled,
			Attempt:          attempt,
			RetryIn:          decision.Delay,
			ProviderResponse: toModelResponse(providerResp),
			Error:            err.Error(),
		})

		if err := e.sleep(ctx, delay); err != nil {
			e.logger.Warn().
				Str("message_id", msg.MessageID).
				Int("attempt", attempt).
				Msg("worker: context cancelled while waiting for retry; message will be retried on next poll")
			return
		}

		attempt++
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Engine) publishStatus(ctx context.Context, msg *common.ValidatedMessage, event models.StatusEvent) {
	if e.statusPublisher == nil || msg == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now()
	}
	event.MessageID = msg.MessageID
	event.Channel = msg.Channel
	event.Kind = msg.Kind
	event.TraceID = msg.TraceID
	event.TenantID = msg.TenantID
	if err := e.statusPublisher.PublishStatus(ctx, event); err != nil {
		e.logger.Error().
			Str("message_id", msg.MessageID).
			Str("event", event.EventType).
			Err(err).
			Msg("worker: failed to publish status event")
	}
}

func (e *Engine) publishDLQ(ctx context.Context, msg *common.ValidatedMessage, record models.DLQRecord) {
	if e.dlqPublisher == nil || msg == nil {
		return
	}
	if record.FirstFailedAt.IsZero() {
		record.FirstFailedAt = e.now()
	}
	if record.LastAttemptAt.IsZero() {
		record.LastAttemptAt = record.FirstFailedAt
	}
	record.MessageID = msg.MessageID
	record.Channel = msg.Channel
	record.TraceID = msg.TraceID
	record.TenantID = msg.TenantID
	record.Meta = msg.Metadata
	if json.Valid(msg.RawPayload) {
		record.OriginalMessage = json.RawMessage(cloneBytes(msg.RawPayload))
	} else if len(msg.RawPayload) > 0 {
		record.OriginalRaw = string(msg.RawPayload)
	}
	if err := e.dlqPublisher.PublishDLQ(ctx, record); err != nil {
		e.logger.Error().
			Str("message_id", msg.MessageID).
			Err(err).
			Msg("worker: failed to publish DLQ record")
	}
}

func (e *Engine) commitRecord(ctx context.Context, record *Record) {
	if record == nil {
		return
	}
	if err := e.committer.Commit(ctx, record); err != nil {
		e.logger.Error().
			Str("topic", record.Topic).
			Int32("partition", record.Partition).
			Int64("offset", record.Offset).
			Err(err).
			Msg("worker: failed to commit record offset")
	}
}

func (e *Engine) fillFromRecord(msg *common.ValidatedMessage, record *Record) {
	if msg.Channel == "" {
		msg.Channel = e.cfg.Channel
	}
	if msg.MessageID == "" {
		msg.MessageID = string(record.Key)
	}
	if len(msg.RawPayload) == 0 {
		msg.RawPayload = cloneBytes(record.Value)
	}
	if len(msg.Key) == 0 {
		msg.Key = cloneBytes(record.Key)
	}
	if len(msg.KafkaHeaders) == 0 && len(record.Headers) > 0 {
		msg.KafkaHeaders = cloneHeaders(record.Headers)
	}
	if msg.TraceID == "" {
		msg.TraceID = string(record.Headers[consumer.HeaderTraceID])
	}
}

func (e *Engine) partialMessageFromRecord(record *Record) *common.ValidatedMessage {
	return &common.ValidatedMessage{
		Channel:      e.cfg.Channel,
		MessageID:    string(record.Key),
		TraceID:      string(record.Headers[consumer.HeaderTraceID]),
		RawPayload:   cloneBytes(record.Value),
		Key:          cloneBytes(record.Key),
		KafkaHeaders: cloneHeaders(record.Headers),
	}
}

func toModelResponse(resp *common.ProviderResponse) *models.ProviderResponse {
	if resp == nil {
		return nil
	}
	return &models.ProviderResponse{
		Status:     resp.Status,
		HTTPStatus: resp.HTTPStatus,
		Code:       resp.Code,
		Message:    resp.Message,
		WAMID:      resp.WAMID,
		Raw:        resp.Raw,
		Meta:       resp.Meta,
	}
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	clone := make([]byte, len(b))
	copy(clone, b)
	return clone
}

func cloneHeaders(headers map[string][]byte) map[string][]byte {
	if len(headers) == 0 {
		return nil
	}
	clone := make(map[string][]byte, len(headers))
	for k, v := range headers {
		clone[k] = cloneBytes(v)
	}
	return clone
}
