package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Classifier   ClassifierConfig
	Worker       WorkerConfig
	Notification NotificationConfig
	Kafka        KafkaConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines dashboard API authentication parameters. Auth is
// disabled when APIKeyHash is empty.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	APIKeyHash            string
}

// Enabled reports whether dashboard auth is active.
func (a AuthConfig) Enabled() bool {
	return strings.TrimSpace(a.APIKeyHash) != ""
}

// ClassifierConfig holds external classifier settings.
type ClassifierConfig struct {
	APIKey             string
	Model              string
	MaxTokens          int
	RetryMaxAttempts   int
	RetryBaseDelayMS   int
	LexiconPath        string
	RequestTimeoutSecs int
}

// WorkerConfig tunes the classification worker loop.
type WorkerConfig struct {
	BatchSize       int
	IntervalSeconds int
	PacingSeconds   int
	CooldownSeconds int
}

// Interval returns the poll interval duration.
func (w WorkerConfig) Interval() time.Duration {
	return time.Duration(w.IntervalSeconds) * time.Second
}

// Pacing returns the inter-classifier-call delay.
func (w WorkerConfig) Pacing() time.Duration {
	return time.Duration(w.PacingSeconds) * time.Second
}

// Cooldown returns the delay applied after an unexpected loop failure.
func (w WorkerConfig) Cooldown() time.Duration {
	return time.Duration(w.CooldownSeconds) * time.Second
}

// NotificationConfig holds alert notification endpoints.
type NotificationConfig struct {
	SlackWebhookURL string
}

// KafkaConfig holds the optional event sink settings. The sink is disabled
// when Brokers is empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "sentiment-watchdog"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			APIKeyHash:            os.Getenv("AUTH_API_KEY_HASH"),
		},
		Classifier: ClassifierConfig{
			APIKey:             os.Getenv("ANTHROPIC_API_KEY"),
			Model:              getEnv("CLASSIFIER_MODEL", "claude-sonnet-4-5-20250929"),
			MaxTokens:          getEnvAsInt("CLASSIFIER_MAX_TOKENS", 500),
			RetryMaxAttempts:   getEnvAsInt("MAX_RETRIES", 3),
			RetryBaseDelayMS:   getEnvAsInt("CLASSIFIER_RETRY_BASE_DELAY_MS", 1000),
			LexiconPath:        os.Getenv("CLASSIFIER_LEXICON_PATH"),
			RequestTimeoutSecs: getEnvAsInt("CLASSIFIER_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Worker: WorkerConfig{
			BatchSize:       getEnvAsInt("PROCESSING_BATCH_SIZE", 10),
			IntervalSeconds: getEnvAsInt("PROCESSING_INTERVAL", 60),
			PacingSeconds:   getEnvAsInt("PROCESSING_PACING_SECONDS", 2),
			CooldownSeconds: getEnvAsInt("PROCESSING_COOLDOWN_SECONDS", 60),
		},
		Notification: NotificationConfig{
			SlackWebhookURL: os.Getenv("NOTIFY_SLACK_WEBHOOK_URL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_EVENTS_TOPIC", "sentiment-watchdog.events"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(val string) []string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
