package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// validEnv sets the minimum required env vars for a valid config.
func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost:5432/testdb")
	t.Setenv("GENERATION_API_KEY", "sk-test-key")
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: "5s"
  write_timeout: "15s"
  idle_timeout: "30s"
  shutdown_timeout: "5s"

database:
  dsn: "postgres://u:p@localhost:5432/testdb"
  max_conns: 10
  min_conns: 2

log:
  level: "debug"
  format: "text"

generation:
  api_key: "sk-test-key"
  model: "claude-sonnet-4-5"
  max_tokens: 2048
  temperature: 0.5
  call_timeout: "30s"
  overall_timeout: "2m"
  retry_attempts: 2
  retry_backoff: "250ms"
  retry_multiplier: 2.0

quiz:
  question_count: 10
  session_ttl: "12h"
  lock_cache_size: 256
  profile_window: "72h"
  recent_mistakes: 3
`

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Server
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server.host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server.read_timeout = %v, want %v", cfg.Server.ReadTimeout, 5*time.Second)
	}

	// Database
	if cfg.Database.DSN != "postgres://u:p@localhost:5432/testdb" {
		t.Errorf("database.dsn = %q", cfg.Database.DSN)
	}
	if cfg.Database.MaxConns != 10 {
		t.Errorf("database.max_conns = %d, want 10", cfg.Database.MaxConns)
	}

	// Log
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("log.format = %q, want %q", cfg.Log.Format, "text")
	}

	// Generation
	if cfg.Generation.Model != "claude-sonnet-4-5" {
		t.Errorf("generation.model = %q", cfg.Generation.Model)
	}
	if cfg.Generation.MaxTokens != 2048 {
		t.Errorf("generation.max_tokens = %d, want 2048", cfg.Generation.MaxTokens)
	}
	if cfg.Generation.Temperature != 0.5 {
		t.Errorf("generation.temperature = %v, want 0.5", cfg.Generation.Temperature)
	}
	if cfg.Generation.CallTimeout != 30*time.Second {
		t.Errorf("generation.call_timeout = %v, want 30s", cfg.Generation.CallTimeout)
	}
	if cfg.Generation.OverallTimeout != 2*time.Minute {
		t.Errorf("generation.overall_timeout = %v, want 2m", cfg.Generation.OverallTimeout)
	}
	if cfg.Generation.RetryBackoff != 250*time.Millisecond {
		t.Errorf("generation.retry_backoff = %v, want 250ms", cfg.Generation.RetryBackoff)
	}

	// Quiz
	if cfg.Quiz.QuestionCount != 10 {
		t.Errorf("quiz.question_count = %d, want 10", cfg.Quiz.QuestionCount)
	}
	if cfg.Quiz.SessionTTL != 12*time.Hour {
		t.Errorf("quiz.session_ttl = %v, want 12h", cfg.Quiz.SessionTTL)
	}
	if cfg.Quiz.LockCacheSize != 256 {
		t.Errorf("quiz.lock_cache_size = %d, want 256", cfg.Quiz.LockCacheSize)
	}
	if cfg.Quiz.ProfileWindow != 72*time.Hour {
		t.Errorf("quiz.profile_window = %v, want 72h", cfg.Quiz.ProfileWindow)
	}
	if cfg.Quiz.RecentMistakes != 3 {
		t.Errorf("quiz.recent_mistakes = %d, want 3", cfg.Quiz.RecentMistakes)
	}
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("QUIZ_QUESTION_COUNT", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("server.port = %d, want 3000 (ENV override)", cfg.Server.Port)
	}
	if cfg.Quiz.QuestionCount != 25 {
		t.Errorf("quiz.question_count = %d, want 25 (ENV override)", cfg.Quiz.QuestionCount)
	}
}

func TestLoad_NoFile_ENVOnly(t *testing.T) {
	validEnv(t)

	// Unset CONFIG_PATH so the fallback kicks in, then run from a temp dir
	// with no config.yaml so defaults apply.
	t.Setenv("CONFIG_PATH", "")
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080 (default)", cfg.Server.Port)
	}
	if cfg.Quiz.QuestionCount != 20 {
		t.Errorf("quiz.question_count = %d, want 20 (default)", cfg.Quiz.QuestionCount)
	}
	if cfg.Quiz.SessionTTL != 24*time.Hour {
		t.Errorf("quiz.session_ttl = %v, want 24h (default)", cfg.Quiz.SessionTTL)
	}
	if cfg.Generation.RetryAttempts != 3 {
		t.Errorf("generation.retry_attempts = %d, want 3 (default)", cfg.Generation.RetryAttempts)
	}
	if cfg.Generation.OverallTimeout != 3*time.Minute {
		t.Errorf("generation.overall_timeout = %v, want 3m (default)", cfg.Generation.OverallTimeout)
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, `{{{invalid yaml`)
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate_Generation_EmptyModel(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.Model = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty model")
	}
}

func TestValidate_Generation_MaxTokensZero(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.MaxTokens = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for MaxTokens = 0")
	}
}

func TestValidate_Generation_TemperatureOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.Temperature = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for Temperature > 1")
	}

	cfg = validConfig()
	cfg.Generation.Temperature = -0.1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative Temperature")
	}
}

func TestValidate_Generation_OverallTimeoutBelowCallTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.OverallTimeout = cfg.Generation.CallTimeout / 2

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for OverallTimeout < CallTimeout")
	}
}

func TestValidate_Generation_RetryAttemptsZero(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.RetryAttempts = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for RetryAttempts = 0")
	}
}

func TestValidate_Generation_RetryMultiplierBelowOne(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.RetryMultiplier = 0.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for RetryMultiplier < 1")
	}
}

func TestValidate_Quiz_QuestionCountZero(t *testing.T) {
	cfg := validConfig()
	cfg.Quiz.QuestionCount = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for QuestionCount = 0")
	}
}

func TestValidate_Quiz_SessionTTLZero(t *testing.T) {
	cfg := validConfig()
	cfg.Quiz.SessionTTL = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for SessionTTL = 0")
	}
}

func TestValidate_Quiz_LockCacheSizeZero(t *testing.T) {
	cfg := validConfig()
	cfg.Quiz.LockCacheSize = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for LockCacheSize = 0")
	}
}

func TestValidate_Quiz_RecentMistakesNegative(t *testing.T) {
	cfg := validConfig()
	cfg.Quiz.RecentMistakes = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative RecentMistakes")
	}
}

func TestValidate_Quiz_ValidBoundaryValues(t *testing.T) {
	cfg := validConfig()
	cfg.Quiz.RecentMistakes = 0
	cfg.Generation.Temperature = 0
	cfg.Generation.RetryMultiplier = 1

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error for boundary values: %v", err)
	}

	cfg.Generation.Temperature = 1

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error for upper boundary values: %v", err)
	}
}

// validConfig returns a Config that passes all validation checks.
func validConfig() Config {
	return Config{
		Generation: GenerationConfig{
			APIKey:          "sk-test-key",
			Model:           "claude-sonnet-4-5",
			MaxTokens:       4096,
			Temperature:     0.7,
			CallTimeout:     time.Minute,
			OverallTimeout:  3 * time.Minute,
			RetryAttempts:   3,
			RetryBackoff:    500 * time.Millisecond,
			RetryMultiplier: 2.0,
		},
		Quiz: QuizConfig{
			QuestionCount:  20,
			SessionTTL:     24 * time.Hour,
			LockCacheSize:  1024,
			ProfileWindow:  7 * 24 * time.Hour,
			RecentMistakes: 5,
		},
	}
}
