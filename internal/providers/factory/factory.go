package factory

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/whatsapp-api-go/internal/config"
	waprovider "github.com/example/whatsapp-api-go/internal/providers/whatsapp"
	"github.com/example/whatsapp-api-go/internal/whatsapp"
)

// Transport constructs the configured WhatsApp transport. Supports the HTTP
// backend, with rate limiting and a circuit breaker, and the mock backend.
func Transport(cfg config.WhatsAppConfig, logger zerolog.Logger) (waprovider.Transport, error) {
	backend := normalize(cfg.Backend, "http")
	switch backend {
	case "http":
		opts := []waprovider.HTTPOption{
			waprovider.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			waprovider.WithBreaker(waprovider.BreakerSettings{
				MaxFailures: uint32(max(cfg.BreakerFailures, 0)),
				Interval:    cfg.BreakerInterval,
				Timeout:     cfg.BreakerTimeout,
			}),
		}
		if cfg.MaxBodyBytes > 0 {
			opts = append(opts, waprovider.WithBodyLimit(cfg.MaxBodyBytes))
		}
		if cfg.RatePerSecond > 0 {
			opts = append(opts, waprovider.WithRateLimit(cfg.RatePerSecond, cfg.RateBurst))
		}
		transport := waprovider.NewHTTPTransport(logger, opts...)
		logger.Info().
			Str("backend", "http").
			Str("endpoint", cfg.Endpoint).
			Float64("rate_per_second", cfg.RatePerSecond).
			Msg("whatsapp transport initialised")
		return transport, nil
	case "mock":
		transport := waprovider.NewMockTransport(logger)
		logger.Info().
			Str("backend", "mock").
			Msg("whatsapp transport initialised")
		return transport, nil
	default:
		return nil, fmt.Errorf("factory: unsupported whatsapp backend %q", cfg.Backend)
	}
}

// Client builds the transport for cfg and wraps it in a client. The mock
// backend gets a placeholder endpoint when none is configured.
func Client(cfg config.WhatsAppConfig, logger zerolog.Logger, opts ...whatsapp.Option) (*whatsapp.Client, error) {
	transport, err := Transport(cfg, logger.With().Str("component", "whatsapp-transport").Logger())
	if err != nil {
		return nil, err
	}

	clientCfg := cfg.ClientConfig()
	if clientCfg.Endpoint == "" && normalize(cfg.Backend, "http") == "mock" {
		clientCfg.Endpoint = "http://whatsapp.mock"
	}

	opts = append([]whatsapp.Option{whatsapp.WithRetries(cfg.ClientRetries)}, opts...)
	client, err := whatsapp.New(clientCfg, transport, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("factory: whatsapp client init: %w", err)
	}
	return client, nil
}

func normalize(value, def string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return def
	}
	return value
}
