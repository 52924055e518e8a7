package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Имена переменных окружения.
const (
	envHTTPAddr     = "RETRO_HTTP_ADDR"
	envMetricsAddr  = "RETRO_METRICS_ADDR"
	envPostgresDSN  = "RETRO_POSTGRES_DSN"
	envKafkaBrokers = "RETRO_KAFKA_BROKERS"
	envOrderTopic   = "RETRO_ORDER_TOPIC"

	envOutboxPollInterval          = "RETRO_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize             = "RETRO_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts           = "RETRO_OUTBOX_MAX_ATTEMPTS"
	envOutboxMaxPending            = "RETRO_OUTBOX_MAX_PENDING"
	envIdempotencyCleanupInterval  = "RETRO_IDEMPOTENCY_CLEANUP_INTERVAL"
	envIdempotencyCleanupBatchSize = "RETRO_IDEMPOTENCY_CLEANUP_BATCH_SIZE"
)

// Config описывает настройки запуска приложения. Пустой PostgresDSN
// включает in-memory хранилище, пустой KafkaBrokers отключает публикацию
// событий (outbox продолжает накапливать записи).
type Config struct {
	HTTPAddr     string
	MetricsAddr  string
	PostgresDSN  string
	KafkaBrokers []string
	OrderTopic   string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	// OutboxMaxPending — порог backlog, после которого /healthz
	// отчитывается degraded.
	OutboxMaxPending int

	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int
}

// DefaultConfig возвращает конфигурацию по умолчанию: API на :8080,
// метрики на :9090, in-memory хранилище.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",

		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  3,
		OutboxMaxPending:   1000,

		IdempotencyCleanupInterval:  10 * time.Minute,
		IdempotencyCleanupBatchSize: 500,
	}
}

// envLookup абстрагирует os.LookupEnv для тестов.
type envLookup func(key string) (string, bool)

// FromEnv строит конфигурацию из окружения процесса. Некорректные
// значения не прерывают запуск: остаётся значение по умолчанию,
// а причина попадает в warnings.
func FromEnv() (Config, []string) {
	return readConfigFromEnv(os.LookupEnv)
}

func readConfigFromEnv(lookup envLookup) (Config, []string) {
	cfg := DefaultConfig()
	var warnings []string

	warn := func(key, value string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s=%q ignored: %v", key, value, err))
	}

	if v, ok := lookupTrimmed(lookup, envHTTPAddr); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := lookupTrimmed(lookup, envMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := lookupTrimmed(lookup, envPostgresDSN); ok {
		cfg.PostgresDSN = v
	}
	if v, ok := lookupTrimmed(lookup, envKafkaBrokers); ok {
		cfg.KafkaBrokers = splitBrokers(v)
	}
	if v, ok := lookupTrimmed(lookup, envOrderTopic); ok {
		cfg.OrderTopic = v
	}

	if v, ok := lookupTrimmed(lookup, envOutboxPollInterval); ok {
		if d, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be positive"); err != nil {
			warn(envOutboxPollInterval, v, err)
		} else {
			cfg.OutboxPollInterval = d
		}
	}
	if v, ok := lookupTrimmed(lookup, envOutboxBatchSize); ok {
		if n, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0"); err != nil {
			warn(envOutboxBatchSize, v, err)
		} else {
			cfg.OutboxBatchSize = n
		}
	}
	if v, ok := lookupTrimmed(lookup, envOutboxMaxAttempts); ok {
		if n, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0"); err != nil {
			warn(envOutboxMaxAttempts, v, err)
		} else {
			cfg.OutboxMaxAttempts = n
		}
	}
	if v, ok := lookupTrimmed(lookup, envOutboxMaxPending); ok {
		if n, err := parseInt(v, func(n int) bool { return n >= 0 }, "must be >= 0"); err != nil {
			warn(envOutboxMaxPending, v, err)
		} else {
			cfg.OutboxMaxPending = n
		}
	}
	if v, ok := lookupTrimmed(lookup, envIdempotencyCleanupInterval); ok {
		if d, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be positive"); err != nil {
			warn(envIdempotencyCleanupInterval, v, err)
		} else {
			cfg.IdempotencyCleanupInterval = d
		}
	}
	if v, ok := lookupTrimmed(lookup, envIdempotencyCleanupBatchSize); ok {
		if n, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0"); err != nil {
			warn(envIdempotencyCleanupBatchSize, v, err)
		} else {
			cfg.IdempotencyCleanupBatchSize = n
		}
	}

	return cfg, warnings
}

func lookupTrimmed(lookup envLookup, key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func parseInt(raw string, valid func(int) bool, reason string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(n) {
		return 0, fmt.Errorf("%s", reason)
	}
	return n, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, reason string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(d) {
		return 0, fmt.Errorf("%s", reason)
	}
	return d, nil
}

func splitBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
