package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/whatsapp-api-go/internal/whatsapp"
)

// Config captures all runtime configuration for the WhatsApp client and the
// dispatch worker.
type Config struct {
	App        AppConfig
	WhatsApp   WhatsAppConfig
	Kafka      KafkaConfig
	Topics     TopicConfig
	Worker     WorkerConfig
	Validation ValidationConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	LogLevel string
	Service  string
}

// WhatsAppConfig describes the API account and the HTTP transport around it.
type WhatsAppConfig struct {
	Backend         string
	Endpoint        string
	Token           string
	WaID            string
	UseToken        bool
	UserAgent       string
	PreviewURL      bool
	Timeout         time.Duration
	MaxBodyBytes    int64
	ClientRetries   int
	RatePerSecond   float64
	RateBurst       int
	BreakerFailures int
	BreakerTimeout  time.Duration
	BreakerInterval time.Duration
}

// ClientConfig converts the account settings to the client's config.
func (c WhatsAppConfig) ClientConfig() whatsapp.Config {
	return whatsapp.Config{
		Endpoint:   c.Endpoint,
		Token:      c.Token,
		WaID:       c.WaID,
		UseToken:   c.UseToken,
		UserAgent:  c.UserAgent,
		PreviewURL: c.PreviewURL,
	}
}

// KafkaConfig defines broker information.
type KafkaConfig struct {
	Brokers  []string
	ClientID string
}

// TopicConfig names the request, status and DLQ topics plus the consumer group.
type TopicConfig struct {
	Request       string
	Status        string
	DLQ           string
	ConsumerGroup string
}

// WorkerConfig controls dispatch concurrency and offset commits.
type WorkerConfig struct {
	Concurrency         int
	CommitOnSuccessOnly bool
}

// ValidationConfig holds the limits used while validating inbound requests.
type ValidationConfig struct {
	MsgMaxBytes     int
	MetaMaxEntries  int
	MetaMaxKeyLen   int
	MetaMaxValueLen int
}

// Load reads .env and environment variables, applies defaults, validates
// required values and returns a populated Config instance. Kafka settings are
// only required when requireKafka is set.
func Load(requireKafka bool) (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)
	cfg.App.Service = ldr.getString("SERVICE_NAME", "whatsapp-worker", false)

	wa := &cfg.WhatsApp
	wa.Backend = strings.ToLower(ldr.getString("WA_BACKEND", "http", false))
	wa.Endpoint = ldr.getString("WA_ENDPOINT", "", wa.Backend == "http")
	wa.Token = ldr.getString("WA_TOKEN", "", false)
	wa.WaID = ldr.getString("WA_ID", "", false)
	wa.UseToken = ldr.getBool("WA_USE_TOKEN", true, false)
	wa.UserAgent = ldr.getString("WA_USER_AGENT", whatsapp.DefaultUserAgent, false)
	wa.PreviewURL = ldr.getBool("WA_PREVIEW_URL", false, false)
	wa.Timeout = ldr.getSeconds("WA_TIMEOUT_SECONDS", 30*time.Second)
	wa.MaxBodyBytes = int64(ldr.getInt("WA_MAX_BODY_BYTES", 1<<20, false))
	wa.ClientRetries = ldr.getInt("WA_CLIENT_RETRIES", 3, false)
	wa.RatePerSecond = ldr.getFloat("WA_RATE_PER_SECOND", 20)
	wa.RateBurst = ldr.getInt("WA_RATE_BURST", 20, false)
	wa.BreakerFailures = ldr.getInt("WA_BREAKER_MAX_FAILURES", 5, false)
	wa.BreakerTimeout = ldr.getSeconds("WA_BREAKER_TIMEOUT_SECONDS", 30*time.Second)
	wa.BreakerInterval = ldr.getSeconds("WA_BREAKER_INTERVAL_SECONDS", 60*time.Second)

	switch wa.Backend {
	case "http", "mock":
	default:
		ldr.addError(fmt.Sprintf("WA_BACKEND must be http or mock, got %q", wa.Backend))
	}
	if wa.ClientRetries < 0 {
		ldr.addError("WA_CLIENT_RETRIES must not be negative")
	}

	cfg.Kafka.Brokers = ldr.getStringSlice("KAFKA_BROKERS", requireKafka)
	cfg.Kafka.ClientID = ldr.getString("KAFKA_CLIENT_ID", "whatsapp-worker", false)

	cfg.Topics = TopicConfig{
		Request:       ldr.getString("KAFKA_WHATSAPP_REQUEST_TOPIC", "", requireKafka),
		Status:        ldr.getString("KAFKA_WHATSAPP_STATUS_TOPIC", "", requireKafka),
		DLQ:           ldr.getString("KAFKA_WHATSAPP_DLQ_TOPIC", "", requireKafka),
		ConsumerGroup: ldr.getString("WHATSAPP_CONSUMER_GROUP", "", requireKafka),
	}

	cfg.Worker.Concurrency = ldr.getInt("WORKER_CONCURRENCY", 10, false)
	cfg.Worker.CommitOnSuccessOnly = ldr.getBool("COMMIT_ON_SUCCESS_ONLY", true, false)
	if cfg.Worker.Concurrency < 1 {
		ldr.addError("WORKER_CONCURRENCY must be at least 1")
	}

	cfg.Validation.MsgMaxBytes = ldr.getInt("MSG_MAX_BYTES", 200000, false)
	cfg.Validation.MetaMaxEntries = ldr.getInt("META_MAX_ENTRIES", 20, false)
	cfg.Validation.MetaMaxKeyLen = ldr.getInt("META_MAX_KEY_LEN", 64, false)
	cfg.Validation.MetaMaxValueLen = ldr.getInt("META_MAX_VALUE_LEN", 256, false)

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

// lookup returns the trimmed value of key and whether it is set and non-empty,
// recording an error when a required key is missing.
func (l *envLoader) lookup(key string, required bool) (string, bool) {
	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		if required {
			l.addError(fmt.Sprintf("%s is required", key))
		}
		return "", false
	}
	return val, true
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := l.lookup(key, required); ok {
		return val
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	val, ok := l.lookup(key, required)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid integer", key))
		return def
	}
	return i
}

func (l *envLoader) getFloat(key string, def float64) float64 {
	val, ok := l.lookup(key, false)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid number", key))
		return def
	}
	return f
}

func (l *envLoader) getSeconds(key string, def time.Duration) time.Duration {
	secs := l.getFloat(key, def.Seconds())
	if secs < 0 {
		l.addError(fmt.Sprintf("%s must not be negative", key))
		return def
	}
	return time.Duration(secs * float64(time.Second))
}

func (l *envLoader) getBool(key string, def bool, required bool) bool {
	val, ok := l.lookup(key, required)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid boolean", key))
		return def
	}
	return parsed
}

func (l *envLoader) getStringSlice(key string, required bool) []string {
	raw := l.getString(key, "", required)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if required && len(out) == 0 {
		l.addError(fmt.Sprintf("%s must contain at least one entry", key))
	}
	return out
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
