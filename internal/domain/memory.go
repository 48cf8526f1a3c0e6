package domain

import (
	"math"
	"time"
)

// Spaced-repetition model parameters. Failures shrink stability faster than
// success grows it, so a single lapse meaningfully shortens the next review
// interval. The model deliberately over-reviews rather than under-reviews.
const (
	MasteryGain     = 0.08
	MasteryLoss     = 0.12
	StabilityGrowth = 1.4
	StabilityDecay  = 0.6
	MinStability    = 1.0
	MaxStability    = 45.0
)

// TopicMemory is the per-user, per-topic spaced-repetition state.
// Invariant: Lapses <= ReviewCount; Mastery in [0,1]; Stability >= 1.
type TopicMemory struct {
	Topic       Topic
	Mastery     float64
	Stability   float64
	DueAt       time.Time
	LastSeen    *time.Time
	ReviewCount int
	Lapses      int
}

// NewTopicMemory returns the lazy default state for a topic's first observation.
func NewTopicMemory(topic Topic) TopicMemory {
	return TopicMemory{
		Topic:     topic,
		Mastery:   0.25,
		Stability: MinStability,
	}
}

// Observe returns the memory state after one observed answer. Pure function of
// the receiver; persistence is the caller's responsibility and must happen in
// the same transaction as the triggering answer record.
func (m TopicMemory) Observe(correct bool, today time.Time) TopicMemory {
	next := m

	if correct {
		next.Mastery = math.Min(1.0, m.Mastery+MasteryGain)
		next.Stability = math.Min(MaxStability, math.Max(MinStability, m.Stability*StabilityGrowth))
	} else {
		next.Mastery = math.Max(0.0, m.Mastery-MasteryLoss)
		next.Stability = math.Max(MinStability, m.Stability*StabilityDecay)
		next.Lapses = m.Lapses + 1
	}

	next.ReviewCount = m.ReviewCount + 1

	intervalDays := int(math.Round(next.Stability))
	if intervalDays < 1 {
		intervalDays = 1
	}
	day := today.UTC().Truncate(24 * time.Hour)
	next.DueAt = day.AddDate(0, 0, intervalDays)
	next.LastSeen = &day

	return next
}

// LapseRate returns lapses per review, 0 if the topic was never reviewed.
func (m TopicMemory) LapseRate() float64 {
	if m.ReviewCount <= 0 {
		return 0
	}
	return math.Min(1, float64(m.Lapses)/float64(m.ReviewCount))
}
