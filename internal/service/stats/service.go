// Package stats aggregates a user's learning history: streaks, totals, and
// weak/strong topic breakdowns for the stats screen and the daily reminder.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aparasochka/greektutor/internal/domain"
)

const (
	// summaryWindow is the recency window for the weak/strong breakdown.
	summaryWindow = 7 * 24 * time.Hour
	// minWindowAnswers filters out topics with too little recent data to rank.
	minWindowAnswers = 3

	maxWeakTopics   = 5
	maxStrongTopics = 3
)

type sessionLogRepo interface {
	GetSessionDates(ctx context.Context, userID int64) ([]time.Time, error)
}

type answerLogRepo interface {
	StatsSince(ctx context.Context, userID int64, since time.Time) (map[domain.Topic]domain.TopicStat, error)
}

// Service implements the statistics queries.
type Service struct {
	sessions sessionLogRepo
	answers  answerLogRepo
	log      *slog.Logger
	now      func() time.Time
}

func NewService(log *slog.Logger, sessions sessionLogRepo, answers answerLogRepo, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		sessions: sessions,
		answers:  answers,
		log:      log.With("service", "stats"),
		now:      now,
	}
}

// TopicAccuracy is one line of the weak/strong breakdown.
type TopicAccuracy struct {
	Topic    domain.Topic
	Accuracy float64
	Total    int
}

// Summary is everything the stats screen shows.
type Summary struct {
	CurrentStreak  int
	BestStreak     int
	TotalSessions  int
	TotalQuestions int
	TotalCorrect   int
	// WeakTopics lists up to five topics with the lowest recent accuracy,
	// weakest first; StrongTopics up to three with the highest.
	WeakTopics   []TopicAccuracy
	StrongTopics []TopicAccuracy
}

// OverallAccuracy is the all-time share of correct answers in [0, 1].
func (s Summary) OverallAccuracy() float64 {
	if s.TotalQuestions == 0 {
		return 0
	}
	return float64(s.TotalCorrect) / float64(s.TotalQuestions)
}

// Summarize builds the user's stats summary.
func (s *Service) Summarize(ctx context.Context, userID int64) (Summary, error) {
	dates, err := s.sessions.GetSessionDates(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("load session dates: %w", err)
	}

	allTime, err := s.answers.StatsSince(ctx, userID, time.Time{})
	if err != nil {
		return Summary{}, fmt.Errorf("load all-time stats: %w", err)
	}

	recent, err := s.answers.StatsSince(ctx, userID, s.now().Add(-summaryWindow))
	if err != nil {
		return Summary{}, fmt.Errorf("load recent stats: %w", err)
	}

	summary := Summary{TotalSessions: len(dates)}
	summary.CurrentStreak, summary.BestStreak = calcStreak(dates, s.now())

	for _, st := range allTime {
		summary.TotalQuestions += st.Total
		summary.TotalCorrect += st.Correct
	}

	ranked := rankTopics(recent)
	summary.WeakTopics = headTopics(ranked, maxWeakTopics)

	reversed := make([]TopicAccuracy, len(ranked))
	for i, ta := range ranked {
		reversed[len(ranked)-1-i] = ta
	}
	summary.StrongTopics = headTopics(reversed, maxStrongTopics)

	return summary, nil
}

// rankTopics orders topics with enough recent answers by ascending accuracy.
func rankTopics(stats map[domain.Topic]domain.TopicStat) []TopicAccuracy {
	var ranked []TopicAccuracy
	for topic, st := range stats {
		if st.Total < minWindowAnswers {
			continue
		}
		ranked = append(ranked, TopicAccuracy{Topic: topic, Accuracy: st.Accuracy(), Total: st.Total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Accuracy != ranked[j].Accuracy {
			return ranked[i].Accuracy < ranked[j].Accuracy
		}
		return ranked[i].Topic < ranked[j].Topic
	})
	return ranked
}

func headTopics(ranked []TopicAccuracy, n int) []TopicAccuracy {
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
