package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func TestTopicMemory_Observe_Correct(t *testing.T) {
	t.Parallel()

	m := NewTopicMemory("Артикли")
	next := m.Observe(true, testDay)

	assert.InDelta(t, 0.33, next.Mastery, 1e-9)
	assert.InDelta(t, 1.4, next.Stability, 1e-9)
	assert.Equal(t, 1, next.ReviewCount)
	assert.Equal(t, 0, next.Lapses)
	require.NotNil(t, next.LastSeen)
	assert.Equal(t, testDay, *next.LastSeen)
	// round(1.4) = 1 day
	assert.Equal(t, testDay.AddDate(0, 0, 1), next.DueAt)
}

func TestTopicMemory_Observe_Incorrect(t *testing.T) {
	t.Parallel()

	m := TopicMemory{Topic: "Числа", Mastery: 0.5, Stability: 10, ReviewCount: 4, Lapses: 1}
	next := m.Observe(false, testDay)

	assert.InDelta(t, 0.38, next.Mastery, 1e-9)
	assert.InDelta(t, 6.0, next.Stability, 1e-9)
	assert.Equal(t, 5, next.ReviewCount)
	assert.Equal(t, 2, next.Lapses)
	assert.Equal(t, testDay.AddDate(0, 0, 6), next.DueAt)
}

func TestTopicMemory_Observe_MasteryBounds(t *testing.T) {
	t.Parallel()

	high := TopicMemory{Mastery: 1.0, Stability: MinStability}
	assert.Equal(t, 1.0, high.Observe(true, testDay).Mastery)

	low := TopicMemory{Mastery: 0.0, Stability: MinStability}
	assert.Equal(t, 0.0, low.Observe(false, testDay).Mastery)
}

func TestTopicMemory_Observe_StabilityBounds(t *testing.T) {
	t.Parallel()

	// Stability never exceeds the cap.
	m := TopicMemory{Mastery: 0.9, Stability: MaxStability}
	assert.Equal(t, MaxStability, m.Observe(true, testDay).Stability)

	// Stability never drops below the floor, even after repeated lapses.
	m = TopicMemory{Mastery: 0.1, Stability: MinStability}
	for i := 0; i < 10; i++ {
		m = m.Observe(false, testDay)
	}
	assert.Equal(t, MinStability, m.Stability)
}

func TestTopicMemory_Observe_LapseInvariant(t *testing.T) {
	t.Parallel()

	m := NewTopicMemory("Глаголы")
	for i := 0; i < 20; i++ {
		m = m.Observe(i%2 == 0, testDay)
		assert.LessOrEqual(t, m.Lapses, m.ReviewCount)
		assert.GreaterOrEqual(t, m.Mastery, 0.0)
		assert.LessOrEqual(t, m.Mastery, 1.0)
		assert.GreaterOrEqual(t, m.Stability, MinStability)
	}
}

func TestTopicMemory_Observe_AsymmetricDecay(t *testing.T) {
	t.Parallel()

	// A success followed by a failure lands below the starting stability:
	// 1.4 * 0.6 = 0.84 < 1, clamped to the floor. The model prefers
	// over-reviewing after any lapse.
	m := NewTopicMemory("Погода")
	m = m.Observe(true, testDay)
	m = m.Observe(false, testDay)
	assert.Equal(t, MinStability, m.Stability)
}

func TestTopicMemory_LapseRate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, TopicMemory{}.LapseRate())
	assert.Equal(t, 0.5, TopicMemory{ReviewCount: 10, Lapses: 5}.LapseRate())
	assert.Equal(t, 1.0, TopicMemory{ReviewCount: 3, Lapses: 3}.LapseRate())
}
