package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type StoreBackend string

const (
	StoreDynamoDB StoreBackend = "dynamodb"
	StorePostgres StoreBackend = "postgres"
	StoreMemory   StoreBackend = "memory"
)

// Config is read once at startup from the environment (and .env via godotenv).
type Config struct {
	Port         string
	StoreBackend StoreBackend

	SettlementsTable    string
	SettlementLogsTable string

	RedisAddr     string
	RedisPassword string

	KafkaBroker          string
	SettlementEventTopic string

	JaegerEndpoint string

	FacilitatorURL     string
	FacilitatorTimeout time.Duration
	FacilitatorMock    bool

	PayTo               string
	PayNetworks         []string
	PayAsset            string
	Price               string
	ResourceRootURL     string
	ProtectedPathPrefix string

	WebhookSecret    string
	DevSettleEnabled bool
	SessionJWTSecret string

	EnqueueOnVerify        bool
	ProcessInline          bool
	WorkerEnabled          bool
	PollInterval           time.Duration
	SettleTimeout          time.Duration
	ProcessingMaxAge       time.Duration
	NonceCacheTTL          time.Duration
	ShutdownTimeout        time.Duration
	FacilitatorMaxFailures int
	FacilitatorResetAfter  time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		Port:                 getenvDefault("PORT", "8080"),
		StoreBackend:         StoreBackend(strings.ToLower(getenvDefault("STORE_BACKEND", string(StoreDynamoDB)))),
		SettlementsTable:     getenvDefault("SETTLEMENTS_TABLE", "settlements"),
		SettlementLogsTable:  getenvDefault("SETTLEMENT_LOGS_TABLE", "settlement_logs"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		KafkaBroker:          os.Getenv("KAFKA_BROKER"),
		SettlementEventTopic: getenvDefault("SETTLEMENT_EVENTS_TOPIC", "settlement-events"),
		JaegerEndpoint:       os.Getenv("JAEGER_ENDPOINT"),
		FacilitatorURL:       strings.TrimRight(getenvDefault("FACILITATOR_URL", "https://x402.org/facilitator"), "/"),
		FacilitatorMock:      envBool("FACILITATOR_MOCK", false),
		PayTo:                strings.TrimSpace(os.Getenv("PAY_TO")),
		PayNetworks:          splitList(getenvDefault("PAY_NETWORKS", "base-sepolia")),
		PayAsset:             strings.TrimSpace(os.Getenv("PAY_ASSET")),
		Price:                getenvDefault("PRICE", "$0.01"),
		ResourceRootURL:      strings.TrimRight(os.Getenv("RESOURCE_ROOT_URL"), "/"),
		ProtectedPathPrefix:  getenvDefault("PROTECTED_PATH_PREFIX", "/v1/protected"),
		WebhookSecret:        os.Getenv("WEBHOOK_SECRET"),
		DevSettleEnabled:     envBool("DEV_SETTLE_ENABLED", false),
		SessionJWTSecret:     os.Getenv("SESSION_JWT_SECRET"),
		EnqueueOnVerify:      envBool("SETTLEMENT_ENQUEUE_ON_VERIFY", true),
		ProcessInline:        envBool("SETTLEMENT_PROCESS_INLINE", false),
		WorkerEnabled:        envBool("SETTLEMENT_WORKER_ENABLED", true),
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.RedisAddr = host + ":" + getenvDefault("REDIS_PORT", "6379")
	}

	switch cfg.StoreBackend {
	case StoreDynamoDB, StorePostgres, StoreMemory:
	default:
		return Config{}, fmt.Errorf("STORE_BACKEND: unsupported value %q", cfg.StoreBackend)
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"FACILITATOR_TIMEOUT", 10 * time.Second, &cfg.FacilitatorTimeout},
		{"SETTLEMENT_POLL_INTERVAL", 2 * time.Second, &cfg.PollInterval},
		{"SETTLEMENT_SETTLE_TIMEOUT", 30 * time.Second, &cfg.SettleTimeout},
		{"SETTLEMENT_PROCESSING_MAX_AGE", 5 * time.Minute, &cfg.ProcessingMaxAge},
		{"NONCE_CACHE_TTL", 24 * time.Hour, &cfg.NonceCacheTTL},
		{"SHUTDOWN_TIMEOUT", 10 * time.Second, &cfg.ShutdownTimeout},
		{"FACILITATOR_BREAKER_RESET", 30 * time.Second, &cfg.FacilitatorResetAfter},
	}
	for _, d := range durations {
		v, err := envDuration(d.key, d.def)
		if err != nil {
			return Config{}, err
		}
		*d.dst = v
	}

	// A row must not be requeued while its settle call can still be running.
	if cfg.ProcessingMaxAge <= cfg.SettleTimeout || cfg.ProcessingMaxAge <= cfg.FacilitatorTimeout {
		return Config{}, fmt.Errorf("SETTLEMENT_PROCESSING_MAX_AGE (%s) must exceed SETTLEMENT_SETTLE_TIMEOUT (%s) and FACILITATOR_TIMEOUT (%s)",
			cfg.ProcessingMaxAge, cfg.SettleTimeout, cfg.FacilitatorTimeout)
	}

	maxFailures, err := strconv.Atoi(getenvDefault("FACILITATOR_BREAKER_MAX_FAILURES", "5"))
	if err != nil || maxFailures <= 0 {
		return Config{}, fmt.Errorf("FACILITATOR_BREAKER_MAX_FAILURES: expected a positive integer")
	}
	cfg.FacilitatorMaxFailures = maxFailures

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
