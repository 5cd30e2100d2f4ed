package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/whatsapp-api-go/internal/adapters/common"
	waadapter "github.com/example/whatsapp-api-go/internal/adapters/whatsapp"
	"github.com/example/whatsapp-api-go/internal/config"
	applog "github.com/example/whatsapp-api-go/internal/logger"
	"github.com/example/whatsapp-api-go/internal/models"
	"github.com/example/whatsapp-api-go/internal/providers/factory"
	"github.com/example/whatsapp-api-go/internal/whatsapp/message"
)

// whatsapp-probe checks the configured account end to end: it reports the
// session status and, when -to is given, sends a text through the adapter.
func main() {
	to := flag.String("to", "", "recipient phone number or group id")
	text := flag.String("text", "Hello from the whatsapp probe.", "message body")
	timeout := flag.Duration("timeout", 15*time.Second, "overall deadline")
	flag.Parse()

	bootstrap := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	cfg, err := config.Load(false)
	if err != nil {
		bootstrap.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.App.Service = "whatsapp-probe"

	base, err := applog.New(cfg.App)
	if err != nil {
		bootstrap.Fatal().Err(err).Msg("failed to initialise logger")
	}
	logger := *base

	client, err := factory.Client(cfg.WhatsApp, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise whatsapp client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	status, err := client.Status(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("status request failed")
	}
	event := logger.Info().Bool("connected", status.Data != nil && status.Data.Connected())
	if status.Data != nil {
		event = event.Str("wa_name", status.Data.WhatsAppName).Str("wa_id", status.Data.WhatsAppID)
	}
	event.Msg("whatsapp session status")

	if *to == "" {
		return
	}

	envelope, err := message.NewText(*to, *text)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid probe message")
	}

	adapter, err := waadapter.NewAdapter(client, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise whatsapp adapter")
	}

	resp, err := adapter.Send(ctx, &common.ValidatedMessage{
		Channel:   models.ChannelWhatsApp,
		MessageID: "whatsapp-probe",
		Kind:      models.KindText,
		CreatedAt: time.Now().UTC(),
		Envelope:  envelope,
	})
	if err != nil {
		logger.Fatal().Err(err).Interface("response", resp).Msg("adapter failed to send message")
	}

	logger.Info().
		Str("wamid", resp.WAMID).
		Str("status", resp.Status).
		Msg("adapter and client working as expected")
}
