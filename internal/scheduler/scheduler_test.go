package scheduler

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aparasochka/greektutor/internal/domain"
)

var today = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return today.AddDate(0, 0, -n) }

func stat(correct, total int, lastSeen time.Time) domain.TopicStat {
	return domain.TopicStat{Correct: correct, Total: total, LastSeen: &lastSeen}
}

func newScheduler() *Scheduler {
	return New(rand.New(rand.NewSource(1)))
}

func countByTopic(seq []domain.Topic) map[domain.Topic]int {
	counts := make(map[domain.Topic]int)
	for _, t := range seq {
		counts[t]++
	}
	return counts
}

// ---------------------------------------------------------------------------
// Shape guarantees
// ---------------------------------------------------------------------------

func TestPlan_AlwaysExactlyN(t *testing.T) {
	t.Parallel()

	s := newScheduler()
	for _, n := range []int{1, 5, 20, 40} {
		seq := s.Plan(Inputs{Today: today}, n)
		assert.Len(t, seq, n)
		for _, topic := range seq {
			assert.True(t, topic.IsMaster(), "topic %q not in master list", topic)
		}
	}
}

func TestPlan_ZeroQuestions(t *testing.T) {
	t.Parallel()

	assert.Empty(t, newScheduler().Plan(Inputs{Today: today}, 0))
}

func TestPlan_ShufflePreservesComposition(t *testing.T) {
	t.Parallel()

	s := newScheduler()
	in := Inputs{
		Stats: map[domain.Topic]domain.TopicStat{
			"Глаголы": stat(2, 5, daysAgo(3)),
			"Артикли": stat(3, 6, daysAgo(4)),
		},
		SessionDates: []time.Time{daysAgo(10), daysAgo(7), daysAgo(3)},
		Today:        today,
	}

	composed := s.compose(in, 20)
	planned := s.Plan(in, 20)

	assert.Equal(t, countByTopic(composed), countByTopic(planned))
}

// ---------------------------------------------------------------------------
// Learning mode
// ---------------------------------------------------------------------------

func TestCompose_LearningMode_NewUserCoversUnseenTopics(t *testing.T) {
	t.Parallel()

	s := newScheduler()
	seq := s.compose(Inputs{Today: today}, 20)

	require.Len(t, seq, 20)
	distinct := countByTopic(seq[:learningUnseenSlots])
	assert.GreaterOrEqual(t, len(distinct), 5, "first five slots should cover five distinct unseen topics")
}

func TestCompose_LearningMode_AfterUnseenBlockUsesSeenTopics(t *testing.T) {
	t.Parallel()

	s := newScheduler()
	in := Inputs{
		Stats: map[domain.Topic]domain.TopicStat{
			"Глаголы": stat(3, 5, daysAgo(1)),
			"Числа":   stat(2, 4, daysAgo(1)),
		},
		SessionDates: []time.Time{daysAgo(2), daysAgo(1)},
		Today:        today,
	}

	seq := s.compose(in, 10)
	require.Len(t, seq, 10)

	// Slots after the unseen block come from seen topics while any remain.
	seenPart := seq[learningUnseenSlots:]
	for _, topic := range seenPart {
		assert.Contains(t, []domain.Topic{"Глаголы", "Числа"}, topic)
	}
}

// ---------------------------------------------------------------------------
// Adaptive mode
// ---------------------------------------------------------------------------

// adaptiveInputs builds a snapshot with ≥3 session dates and every master
// topic seen, tiered by accuracy.
func adaptiveInputs(lastSession int) Inputs {
	stats := make(map[domain.Topic]domain.TopicStat)
	for i, topic := range domain.MasterTopics {
		switch i % 3 {
		case 0:
			stats[topic] = stat(2, 5, daysAgo(lastSession)) // 40% weak
		case 1:
			stats[topic] = stat(7, 10, daysAgo(lastSession)) // 70% medium
		default:
			stats[topic] = stat(9, 10, daysAgo(lastSession)) // 90% strong
		}
	}
	return Inputs{
		Stats:        stats,
		SessionDates: []time.Time{daysAgo(lastSession + 7), daysAgo(lastSession + 3), daysAgo(lastSession)},
		Today:        today,
	}
}

func TestCompose_AdaptiveQuotas(t *testing.T) {
	t.Parallel()

	s := newScheduler()
	in := adaptiveInputs(1) // yesterday: no forced review block

	seq := s.compose(in, 20)
	require.Len(t, seq, 20)

	var weak, medium, strong int
	for _, topic := range seq {
		st := in.Stats[topic]
		switch {
		case st.Accuracy() < weakThreshold:
			weak++
		case st.Accuracy() < strongThreshold:
			medium++
		default:
			strong++
		}
	}

	// 35% / 25% / 10% of 20 = 7 / 5 / 2; no unseen topics exist, so the
	// unseen quota backfills across all pools by priority.
	assert.GreaterOrEqual(t, weak, 7)
	assert.GreaterOrEqual(t, medium, 5)
	assert.GreaterOrEqual(t, strong, 2)
}

func TestCompose_ReviewBlockForReturningUser(t *testing.T) {
	t.Parallel()

	s := newScheduler()
	in := Inputs{
		Stats: map[domain.Topic]domain.TopicStat{
			"Глаголы":   stat(2, 5, daysAgo(3)),
			"Артикли":   stat(3, 6, daysAgo(4)),
			"Отрицание": stat(5, 8, daysAgo(6)),
		},
		SessionDates: []time.Time{daysAgo(10), daysAgo(7), daysAgo(3)},
		Today:        today,
	}

	seq := s.compose(in, 20)
	require.Len(t, seq, 20)

	seen := map[domain.Topic]bool{"Глаголы": true, "Артикли": true, "Отрицание": true}
	for i, topic := range seq[:reviewBlockSize] {
		assert.True(t, seen[topic], "slot %d: %q is not a previously-seen topic", i, topic)
	}

	// Deterministic: two compositions from the same snapshot agree.
	assert.Equal(t, seq, s.compose(in, 20))
}

func TestCompose_NoReviewBlockWhenRecentlyActive(t *testing.T) {
	t.Parallel()

	s := newScheduler()
	in := adaptiveInputs(1)

	seq := s.compose(in, 20)

	// With only one day idle the plan starts with the weak pool, whose
	// members sit at 40% accuracy.
	st := in.Stats[seq[0]]
	assert.Less(t, st.Accuracy(), weakThreshold)
}

func TestCompose_MemoryPriorityOutweighsEqualAccuracy(t *testing.T) {
	t.Parallel()

	lapsedSeen := daysAgo(10)
	freshSeen := daysAgo(1)
	s := newScheduler()
	in := Inputs{
		Stats: map[domain.Topic]domain.TopicStat{
			"Глаголы": stat(1, 4, daysAgo(1)),
			"Артикли": stat(1, 4, daysAgo(1)),
		},
		Memory: map[domain.Topic]domain.TopicMemory{
			"Глаголы": {
				Topic: "Глаголы", Mastery: 0.15, Stability: 2.0,
				DueAt: daysAgo(4), LastSeen: &lapsedSeen, ReviewCount: 10, Lapses: 5,
			},
			"Артикли": {
				Topic: "Артикли", Mastery: 0.80, Stability: 10.0,
				DueAt: today.AddDate(0, 0, 3), LastSeen: &freshSeen, ReviewCount: 10,
			},
		},
		SessionDates: []time.Time{daysAgo(8), daysAgo(5), daysAgo(1)},
		Today:        today,
	}

	seq := s.compose(in, 6)
	require.NotEmpty(t, seq)
	assert.Equal(t, domain.Topic("Глаголы"), seq[0])
}

func TestCompose_PoolCyclingAvoidsImmediateRepeat(t *testing.T) {
	t.Parallel()

	s := newScheduler()
	in := Inputs{
		Stats: map[domain.Topic]domain.TopicStat{
			"Глаголы": stat(2, 5, daysAgo(3)),
			"Артикли": stat(3, 6, daysAgo(4)),
		},
		SessionDates: []time.Time{daysAgo(10), daysAgo(7), daysAgo(3)},
		Today:        today,
	}

	seq := s.compose(in, 20)
	for i := 1; i < reviewBlockSize; i++ {
		assert.NotEqual(t, seq[i-1], seq[i], "immediate repeat at slot %d", i)
	}
}

// ---------------------------------------------------------------------------
// End-to-end classification scenario
// ---------------------------------------------------------------------------

func TestCompose_WeakAndStrongClassification(t *testing.T) {
	t.Parallel()

	stats := map[domain.Topic]domain.TopicStat{
		"Артикли": stat(2, 5, daysAgo(1)),   // 40%: weak
		"Числа":   stat(19, 20, daysAgo(1)), // 95%: strong
	}
	in := Inputs{
		Stats:        stats,
		SessionDates: []time.Time{daysAgo(9), daysAgo(5), daysAgo(1)},
		Today:        today,
	}

	s := newScheduler()
	seq := s.compose(in, 20)

	counts := countByTopic(seq)
	assert.Greater(t, counts["Артикли"], 0, "weak quota must draw the weak topic")
	assert.Greater(t, counts["Числа"], 0, "strong quota must draw the strong topic")
	// Remediation outweighs maintenance.
	assert.Greater(t, counts["Артикли"], counts["Числа"])
}
