package config

import (
	"fmt"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Generation.validate(); err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	if err := c.Quiz.validate(); err != nil {
		return fmt.Errorf("quiz: %w", err)
	}
	return nil
}

func (g *GenerationConfig) validate() error {
	if g.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if g.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be > 0 (got %d)", g.MaxTokens)
	}
	if g.Temperature < 0 || g.Temperature > 1 {
		return fmt.Errorf("temperature must be in [0, 1] (got %v)", g.Temperature)
	}
	if g.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be > 0 (got %v)", g.CallTimeout)
	}
	if g.OverallTimeout < g.CallTimeout {
		return fmt.Errorf("overall_timeout must be >= call_timeout (got %v < %v)", g.OverallTimeout, g.CallTimeout)
	}
	if g.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be >= 1 (got %d)", g.RetryAttempts)
	}
	if g.RetryMultiplier < 1 {
		return fmt.Errorf("retry_multiplier must be >= 1 (got %v)", g.RetryMultiplier)
	}
	return nil
}

func (q *QuizConfig) validate() error {
	if q.QuestionCount <= 0 {
		return fmt.Errorf("question_count must be > 0 (got %d)", q.QuestionCount)
	}
	if q.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be > 0 (got %v)", q.SessionTTL)
	}
	if q.LockCacheSize <= 0 {
		return fmt.Errorf("lock_cache_size must be > 0 (got %d)", q.LockCacheSize)
	}
	if q.ProfileWindow <= 0 {
		return fmt.Errorf("profile_window must be > 0 (got %v)", q.ProfileWindow)
	}
	if q.RecentMistakes < 0 {
		return fmt.Errorf("recent_mistakes must be >= 0 (got %d)", q.RecentMistakes)
	}
	return nil
}
