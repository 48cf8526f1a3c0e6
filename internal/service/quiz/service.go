// Package quiz implements the session engine: starting, resuming and scoring
// daily quizzes, and committing their results.
package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aparasochka/greektutor/internal/content"
	"github.com/aparasochka/greektutor/internal/domain"
	"github.com/aparasochka/greektutor/internal/scheduler"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type pausedSessionRepo interface {
	Save(ctx context.Context, s *domain.QuizSession) error
	Get(ctx context.Context, userID int64) (*domain.QuizSession, error)
	Delete(ctx context.Context, userID int64) error
}

type topicStatRepo interface {
	GetByUser(ctx context.Context, userID int64) (map[domain.Topic]domain.TopicStat, error)
	Apply(ctx context.Context, userID int64, deltas map[domain.Topic]domain.StatDelta, seenAt time.Time) error
}

type topicMemoryRepo interface {
	GetByUser(ctx context.Context, userID int64) (map[domain.Topic]domain.TopicMemory, error)
	Upsert(ctx context.Context, userID int64, memories []domain.TopicMemory) error
}

type sessionLogRepo interface {
	Create(ctx context.Context, s domain.CompletedSession) error
	GetSessionDates(ctx context.Context, userID int64) ([]time.Time, error)
}

type answerLogRepo interface {
	CreateBatch(ctx context.Context, entries []domain.AnswerLogEntry, createdAt time.Time) error
	StatsSince(ctx context.Context, userID int64, since time.Time) (map[domain.Topic]domain.TopicStat, error)
	ListRecentWrong(ctx context.Context, userID int64, limit int) ([]domain.AnswerLogEntry, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type planner interface {
	Plan(in scheduler.Inputs, n int) []domain.Topic
}

type generator interface {
	Generate(ctx context.Context, plan []domain.Topic, profile content.UserContext) ([]domain.Question, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Config holds the engine's tunables.
type Config struct {
	// QuestionCount is the number of questions per quiz.
	QuestionCount int
	// SessionTTL is how long a paused session stays resumable.
	SessionTTL time.Duration
	// LockCacheSize bounds the per-user lock cache.
	LockCacheSize int
	// ProfileWindow is the answer-history window folded into prompts.
	ProfileWindow time.Duration
	// RecentMistakes is how many recent wrong answers the prompt mentions.
	RecentMistakes int
}

// Service implements the quiz session engine.
type Service struct {
	paused    pausedSessionRepo
	stats     topicStatRepo
	memory    topicMemoryRepo
	sessions  sessionLogRepo
	answers   answerLogRepo
	tx        txManager
	planner   planner
	generator generator
	locks     *lockCache
	log       *slog.Logger
	cfg       Config
	now       func() time.Time
}

// NewService creates a quiz service. now is the clock, injectable for tests.
func NewService(
	log *slog.Logger,
	paused pausedSessionRepo,
	stats topicStatRepo,
	memory topicMemoryRepo,
	sessions sessionLogRepo,
	answers answerLogRepo,
	tx txManager,
	planner planner,
	generator generator,
	cfg Config,
	now func() time.Time,
) (*Service, error) {
	if cfg.QuestionCount <= 0 {
		return nil, fmt.Errorf("question count must be positive, got %d", cfg.QuestionCount)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be positive, got %s", cfg.SessionTTL)
	}

	locks, err := newLockCache(cfg.LockCacheSize)
	if err != nil {
		return nil, fmt.Errorf("lock cache: %w", err)
	}
	if now == nil {
		now = time.Now
	}

	return &Service{
		paused:    paused,
		stats:     stats,
		memory:    memory,
		sessions:  sessions,
		answers:   answers,
		tx:        tx,
		planner:   planner,
		generator: generator,
		locks:     locks,
		log:       log.With("service", "quiz"),
		cfg:       cfg,
		now:       now,
	}, nil
}

// today truncates the clock to the UTC calendar day.
func (s *Service) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}
