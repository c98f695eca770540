package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env         string
	Port        int
	APIPrefix   string
	ServiceName string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Workflow WorkflowConfig
	Events   EventsConfig
	RabbitMQ RabbitMQConfig
	Tracing  TracingConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	SingleSession     bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// WorkflowConfig tunes approval behaviour.
type WorkflowConfig struct {
	ProfileAutoApply bool
	SummaryCacheTTL  time.Duration
}

// EventsConfig sizes the approval event dispatcher.
type EventsConfig struct {
	Workers    int
	BufferSize int
	Retries    int
	RetryDelay time.Duration
}

// RabbitMQConfig configures the optional broker sink for approval events.
type RabbitMQConfig struct {
	Enabled       bool
	Host          string
	Port          int
	User          string
	Password      string
	VHost         string
	Exchange      string
	ExchangeType  string
	RoutingKey    string
	RetryAttempts int
	RetryInterval time.Duration
	Heartbeat     time.Duration
}

// TracingConfig toggles OpenTelemetry spans around workflow operations.
type TracingConfig struct {
	Enabled bool
	Output  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.ServiceName = v.GetString("SERVICE_NAME")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		SingleSession:     v.GetBool("JWT_SINGLE_SESSION"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Workflow = WorkflowConfig{
		ProfileAutoApply: v.GetBool("PROFILE_AUTO_APPLY"),
		SummaryCacheTTL:  parseDuration(v.GetString("SUMMARY_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Events = EventsConfig{
		Workers:    v.GetInt("APPROVAL_EVENT_WORKERS"),
		BufferSize: v.GetInt("APPROVAL_EVENT_BUFFER"),
		Retries:    v.GetInt("APPROVAL_EVENT_RETRIES"),
		RetryDelay: parseDuration(v.GetString("APPROVAL_EVENT_RETRY_DELAY"), time.Second),
	}

	cfg.RabbitMQ = RabbitMQConfig{
		Enabled:       v.GetBool("RABBITMQ_ENABLED"),
		Host:          v.GetString("RABBITMQ_HOST"),
		Port:          v.GetInt("RABBITMQ_PORT"),
		User:          v.GetString("RABBITMQ_USER"),
		Password:      v.GetString("RABBITMQ_PASSWORD"),
		VHost:         v.GetString("RABBITMQ_VHOST"),
		Exchange:      v.GetString("RABBITMQ_EXCHANGE"),
		ExchangeType:  v.GetString("RABBITMQ_EXCHANGE_TYPE"),
		RoutingKey:    v.GetString("RABBITMQ_ROUTING_KEY"),
		RetryAttempts: v.GetInt("RABBITMQ_RETRY_ATTEMPTS"),
		RetryInterval: parseDuration(v.GetString("RABBITMQ_RETRY_INTERVAL"), 2*time.Second),
		Heartbeat:     parseDuration(v.GetString("RABBITMQ_HEARTBEAT"), 10*time.Second),
	}

	cfg.Tracing = TracingConfig{
		Enabled: v.GetBool("TRACING_ENABLED"),
		Output:  v.GetString("TRACING_OUTPUT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("SERVICE_NAME", "jobdrop-api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "jobdrop")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "jobdrop-api")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("JWT_SINGLE_SESSION", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PROFILE_AUTO_APPLY", false)
	v.SetDefault("SUMMARY_CACHE_TTL", "2m")

	v.SetDefault("APPROVAL_EVENT_WORKERS", 2)
	v.SetDefault("APPROVAL_EVENT_BUFFER", 64)
	v.SetDefault("APPROVAL_EVENT_RETRIES", 3)
	v.SetDefault("APPROVAL_EVENT_RETRY_DELAY", "1s")

	v.SetDefault("RABBITMQ_ENABLED", false)
	v.SetDefault("RABBITMQ_HOST", "localhost")
	v.SetDefault("RABBITMQ_PORT", 5672)
	v.SetDefault("RABBITMQ_USER", "guest")
	v.SetDefault("RABBITMQ_PASSWORD", "guest")
	v.SetDefault("RABBITMQ_VHOST", "/")
	v.SetDefault("RABBITMQ_EXCHANGE", "jobdrop.approvals")
	v.SetDefault("RABBITMQ_EXCHANGE_TYPE", "topic")
	v.SetDefault("RABBITMQ_ROUTING_KEY", "approval")
	v.SetDefault("RABBITMQ_RETRY_ATTEMPTS", 5)
	v.SetDefault("RABBITMQ_RETRY_INTERVAL", "2s")
	v.SetDefault("RABBITMQ_HEARTBEAT", "10s")

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_OUTPUT", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
