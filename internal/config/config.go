package config

import (
	"os"
	"strconv"
	"time"

	"github.com/vladimiradmaev/glucolog/internal/logger"
)

type Config struct {
	DB        DBConfig
	Redis     RedisConfig
	Dexcom    DexcomConfig
	AI        AIConfig
	Analytics AnalyticsConfig
	Audit     AuditConfig
	Logger    LoggerConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type DexcomConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type AIConfig struct {
	GeminiAPIKey string
	OpenAIAPIKey string
}

// AnalyticsConfig holds the default target glucose corridor in mg/dL used
// when a caller does not supply one.
type AnalyticsConfig struct {
	TargetLower int
	TargetUpper int
}

// AuditConfig drives the audit outbox publisher loop.
type AuditConfig struct {
	Stream       string
	PollInterval time.Duration
	BatchSize    int
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func Load() (*Config, error) {
	return &Config{
		DB: DBConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("DB_NAME", "glucolog"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvIntOrDefault("REDIS_DB", 0),
			CacheTTL: getEnvDurationOrDefault("REDIS_CACHE_TTL", 5*time.Minute),
		},
		Dexcom: DexcomConfig{
			BaseURL: getEnvOrDefault("DEXCOM_BASE_URL", "https://api.dexcom.com"),
			Token:   os.Getenv("DEXCOM_TOKEN"),
			Timeout: getEnvDurationOrDefault("DEXCOM_TIMEOUT", 10*time.Second),
		},
		AI: AIConfig{
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		},
		Analytics: AnalyticsConfig{
			TargetLower: getEnvIntOrDefault("TARGET_RANGE_LOWER", 70),
			TargetUpper: getEnvIntOrDefault("TARGET_RANGE_UPPER", 180),
		},
		Audit: AuditConfig{
			Stream:       getEnvOrDefault("AUDIT_STREAM", "audit-records"),
			PollInterval: getEnvDurationOrDefault("AUDIT_POLL_INTERVAL", 5*time.Second),
			BatchSize:    getEnvIntOrDefault("AUDIT_BATCH_SIZE", 100),
		},
		Logger: LoggerConfig{
			Level:      logger.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}, nil
}
