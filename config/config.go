// Package config loads wazecore's runtime configuration from the
// environment via viper's env-binding, with a .env fallback for local runs.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all process configuration, grouped by the component that
// consumes it.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Gateway   GatewayConfig
	LLM       LLMConfig
	Processor ProcessorConfig
	Scheduler SchedulerConfig
	Media     MediaConfig
	Security  SecurityConfig
}

type AppConfig struct {
	Port     string
	LogLevel string
}

type DatabaseConfig struct {
	// URL is a DSN. "postgres://..." selects the postgres driver; anything
	// else (including empty) falls back to a local SQLite file.
	URL string
}

type GatewayConfig struct {
	BaseURL  string
	APIToken string
	User     string
	Password string
}

type LLMConfig struct {
	Provider    string // "openai" (default) or "gemini"
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	AudioModel  string
}

type ProcessorConfig struct {
	PollIntervalSeconds int
	MessageLimitPerPoll int
}

type SchedulerConfig struct {
	TickIntervalSeconds int
}

type MediaConfig struct {
	MaxConcurrentJobs int
	FFmpegPath        string
}

type SecurityConfig struct {
	JWTSecret             string
	AccessTokenExpireDays int
}

// Global holds the Config most recently returned by Load.
var Global *Config

// Load reads environment variables (optionally from a .env file) into a
// Config, applying the documented defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()
	bindEnvs(
		"app_port", "app_log_level",
		"database_url",
		"whatsapp_base_url", "whatsapp_api_token", "whatsapp_user", "whatsapp_password",
		"llm_provider", "llm_api_key", "llm_base_url", "llm_model", "llm_vision_model", "llm_audio_model",
		"poll_interval_seconds", "message_limit_per_poll",
		"scheduler_tick_seconds",
		"max_concurrent_media_jobs", "ffmpeg_path",
		"jwt_secret", "access_token_expire_days",
	)

	cfg := &Config{
		App: AppConfig{
			Port:     getEnv("APP_PORT", "8080"),
			LogLevel: strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "file:storages/wazecore.db?_journal_mode=WAL&_foreign_keys=on"),
		},
		Gateway: GatewayConfig{
			BaseURL:  getEnv("WHATSAPP_BASE_URL", "http://localhost:3000"),
			APIToken: getEnv("WHATSAPP_API_TOKEN", ""),
			User:     getEnv("WHATSAPP_USER", ""),
			Password: getEnv("WHATSAPP_PASSWORD", ""),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			APIKey:      getEnv("LLM_API_KEY", ""),
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			VisionModel: getEnv("LLM_VISION_MODEL", "gpt-4o-mini"),
			AudioModel:  getEnv("LLM_AUDIO_MODEL", "whisper-1"),
		},
		Processor: ProcessorConfig{
			PollIntervalSeconds: getEnvInt("POLL_INTERVAL_SECONDS", 5),
			MessageLimitPerPoll: getEnvInt("MESSAGE_LIMIT_PER_POLL", 20),
		},
		Scheduler: SchedulerConfig{
			TickIntervalSeconds: getEnvInt("SCHEDULER_TICK_SECONDS", 1),
		},
		Media: MediaConfig{
			MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_MEDIA_JOBS", 8),
			FFmpegPath:        getEnv("FFMPEG_PATH", "ffmpeg"),
		},
		Security: SecurityConfig{
			JWTSecret:             getEnv("JWT_SECRET", "change-me-in-production"),
			AccessTokenExpireDays: getEnvInt("ACCESS_TOKEN_EXPIRE_DAYS", 7),
		},
	}

	if cfg.Processor.PollIntervalSeconds <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}

	Global = cfg
	return cfg, nil
}

// PollInterval is ProcessorConfig.PollIntervalSeconds as a time.Duration.
func (p ProcessorConfig) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalSeconds) * time.Second
}

func bindEnvs(keys ...string) {
	for _, k := range keys {
		_ = viper.BindEnv(k, strings.ToUpper(k))
	}
}
