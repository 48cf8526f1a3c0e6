package domain

import "time"

// TopicStat is the per-user, per-topic lifetime answer counter.
// Invariant: Correct <= Total. Created on first answer to a topic, incremented
// when a session commits, never deleted except by an explicit full reset.
type TopicStat struct {
	Topic    Topic
	Correct  int
	Total    int
	LastSeen *time.Time
}

// Seen reports whether the topic has ever been answered.
func (s TopicStat) Seen() bool { return s.Total > 0 }

// Accuracy returns correct/total, 0 for an unseen topic.
func (s TopicStat) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// StatDelta is the per-topic increment applied to TopicStat when a completed
// session commits.
type StatDelta struct {
	Correct int
	Total   int
}
