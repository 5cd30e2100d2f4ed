package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	waadapter "github.com/example/whatsapp-api-go/internal/adapters/whatsapp"
	"github.com/example/whatsapp-api-go/internal/config"
	"github.com/example/whatsapp-api-go/internal/kafka/consumer"
	"github.com/example/whatsapp-api-go/internal/kafka/producer"
	kafkapublisher "github.com/example/whatsapp-api-go/internal/kafka/publisher"
	"github.com/example/whatsapp-api-go/internal/logger"
	"github.com/example/whatsapp-api-go/internal/models"
	"github.com/example/whatsapp-api-go/internal/providers/factory"
	"github.com/example/whatsapp-api-go/internal/whatsapp"
	"github.com/example/whatsapp-api-go/internal/worker"
	whatsappvalidator "github.com/example/whatsapp-api-go/internal/worker/validator/whatsapp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(true)
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App)
	if err != nil {
		fail("logger init", err)
	}
	log := *baseLogger

	prod, err := producer.New(cfg.Kafka.Brokers, log.With().Str("component", "kafka-producer").Logger(),
		producer.WithClientID(cfg.Kafka.ClientID))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka producer")
	}
	defer func() {
		if err := prod.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka producer")
		}
	}()

	cons, err := consumer.New(cfg.Kafka.Brokers, cfg.Topics.ConsumerGroup, log.With().Str("component", "kafka-consumer").Logger(),
		cfg.Worker.CommitOnSuccessOnly, consumer.WithClientID(cfg.Kafka.ClientID), consumer.WithChannel(models.ChannelWhatsApp))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka consumer")
	}

	statusPublisher := kafkapublisher.NewStatusPublisher(prod, cfg.Topics.Status, log.With().Str("component", "status-publisher").Logger())
	dlqPublisher := kafkapublisher.NewDLQPublisher(prod, cfg.Topics.DLQ, log.With().Str("component", "dlq-publisher").Logger())

	// The engine owns retries, so the client sends each attempt exactly once.
	client, err := factory.Client(cfg.WhatsApp, log.With().Str("backend", cfg.WhatsApp.Backend).Logger(), whatsapp.WithRetries(0))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise whatsapp client")
	}
	if !client.LoggedIn() {
		log.Warn().Msg("whatsapp client has no session; sends will be rejected until WA_TOKEN or WA_ID is set")
	}

	adapter, err := waadapter.NewAdapter(client, log.With().Str("component", "whatsapp-adapter").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise whatsapp adapter")
	}

	validator := whatsappvalidator.New(cfg.Validation, log.With().Str("component", "whatsapp-validator").Logger())

	engine, err := worker.NewEngine(worker.Config{
		Channel:           models.ChannelWhatsApp,
		MsgMaxBytes:       cfg.Validation.MsgMaxBytes,
		WorkerConcurrency: cfg.Worker.Concurrency,
	}, worker.Dependencies{
		Adapter:         adapter,
		Validator:       validator,
		StatusPublisher: statusPublisher,
		DLQPublisher:    dlqPublisher,
		Committer:       worker.RecordCommitter(),
		Logger:          log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise worker engine")
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := cons.Consume(gCtx, []string{cfg.Topics.Request}, worker.KafkaHandler(engine, cons))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down whatsapp worker")
		engine.Wait()
		return cons.Close()
	})

	log.Info().
		Str("request_topic", cfg.Topics.Request).
		Str("consumer_group", cfg.Topics.ConsumerGroup).
		Int("concurrency", cfg.Worker.Concurrency).
		Msg("whatsapp worker started")

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("whatsapp worker terminated with error")
		return
	}
	log.Info().Msg("whatsapp worker stopped")
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("whatsapp worker init failed")
}
