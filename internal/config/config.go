package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Generation GenerationConfig `yaml:"generation"`
	Quiz       QuizConfig       `yaml:"quiz"`
}

// ServerConfig holds HTTP server settings (health and readiness probes).
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// GenerationConfig holds LLM question-generation settings.
type GenerationConfig struct {
	APIKey            string        `yaml:"api_key"             env:"GENERATION_API_KEY"             env-required:"true"`
	Model             string        `yaml:"model"               env:"GENERATION_MODEL"               env-default:"claude-sonnet-4-5"`
	MaxTokens         int64         `yaml:"max_tokens"          env:"GENERATION_MAX_TOKENS"          env-default:"4096"`
	Temperature       float64       `yaml:"temperature"         env:"GENERATION_TEMPERATURE"         env-default:"0.7"`
	CallTimeout       time.Duration `yaml:"call_timeout"        env:"GENERATION_CALL_TIMEOUT"        env-default:"60s"`
	OverallTimeout    time.Duration `yaml:"overall_timeout"     env:"GENERATION_OVERALL_TIMEOUT"     env-default:"3m"`
	RetryAttempts     int           `yaml:"retry_attempts"      env:"GENERATION_RETRY_ATTEMPTS"      env-default:"3"`
	RetryBackoff      time.Duration `yaml:"retry_backoff"       env:"GENERATION_RETRY_BACKOFF"       env-default:"500ms"`
	RetryMultiplier   float64       `yaml:"retry_multiplier"    env:"GENERATION_RETRY_MULTIPLIER"    env-default:"2.0"`
}

// QuizConfig holds quiz session settings.
type QuizConfig struct {
	QuestionCount  int           `yaml:"question_count"   env:"QUIZ_QUESTION_COUNT"  env-default:"20"`
	SessionTTL     time.Duration `yaml:"session_ttl"      env:"QUIZ_SESSION_TTL"     env-default:"24h"`
	LockCacheSize  int           `yaml:"lock_cache_size"  env:"QUIZ_LOCK_CACHE_SIZE" env-default:"1024"`
	ProfileWindow  time.Duration `yaml:"profile_window"   env:"QUIZ_PROFILE_WINDOW"  env-default:"168h"`
	RecentMistakes int           `yaml:"recent_mistakes"  env:"QUIZ_RECENT_MISTAKES" env-default:"5"`
}
