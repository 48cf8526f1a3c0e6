// Package scheduler selects which topics the next quiz should cover.
//
// Composition is deterministic for a given input snapshot: accuracy pools and
// priority scores decide HOW MANY slots each topic class gets and in what
// order candidates are drawn. The final sequence is then shuffled uniformly,
// so quotas determine composition, never visible position.
package scheduler

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/aparasochka/greektutor/internal/domain"
)

// Priority weights. Overdue pressure dominates, then the mastery gap, then
// lapse history and staleness; unseen topics get a flat novelty bonus.
const (
	overdueWeight = 0.45
	masteryWeight = 0.30
	lapseWeight   = 0.15
	recencyWeight = 0.10
	noveltyBonus  = 0.25

	overdueHorizonDays = 14.0
	recencyHorizonDays = 14.0
	signalCap          = 1.5

	// learningSessions is the number of distinct practice days before the
	// scheduler switches from coverage-first to accuracy-tiered quotas.
	learningSessions = 3

	// reviewBlockSize is the forced review block for returning users.
	reviewBlockSize = 8
	// reviewGapDays is the idle period that triggers the review block.
	reviewGapDays = 2
	// learningUnseenSlots caps new-topic slots in learning mode.
	learningUnseenSlots = 5

	weakQuota   = 0.35
	mediumQuota = 0.25
	strongQuota = 0.10

	weakThreshold   = 0.60
	strongThreshold = 0.85

	// neverSeenDays is the staleness assigned to topics with no last-seen date.
	neverSeenDays = 999
)

// Inputs is the read-only snapshot the scheduler plans from.
type Inputs struct {
	Stats        map[domain.Topic]domain.TopicStat
	Memory       map[domain.Topic]domain.TopicMemory
	SessionDates []time.Time
	Today        time.Time
}

// Scheduler produces topic plans over the fixed master topic list.
type Scheduler struct {
	master []domain.Topic

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Scheduler over domain.MasterTopics using the given random
// source for the final shuffle.
func New(rng *rand.Rand) *Scheduler {
	return &Scheduler{master: domain.MasterTopics, rng: rng}
}

// Plan returns exactly n topic assignments for the next quiz. The result is
// deterministic for a given snapshot up to the final uniform shuffle.
func (s *Scheduler) Plan(in Inputs, n int) []domain.Topic {
	seq := s.compose(in, n)

	s.mu.Lock()
	s.rng.Shuffle(len(seq), func(i, j int) {
		seq[i], seq[j] = seq[j], seq[i]
	})
	s.mu.Unlock()

	return seq
}

// compose builds the pre-shuffle sequence: review block, mode-specific pool
// fills, and the master-list safety net. Always returns exactly n entries.
func (s *Scheduler) compose(in Inputs, n int) []domain.Topic {
	if n <= 0 {
		return []domain.Topic{}
	}

	pr := newPlanner(s.master, in)

	learningMode := distinctDates(in.SessionDates) < learningSessions

	if !learningMode && pr.daysSinceLastSession() >= reviewGapDays {
		pr.fill(pr.seenTopics(), min(reviewBlockSize, n), true, n)
	}

	if learningMode {
		pr.fill(pr.unseen, min(learningUnseenSlots, n), true, n)
		pr.fill(pr.seenTopics(), n-len(pr.seq), true, n)
	} else {
		weakSlots := int(math.Round(float64(n) * weakQuota))
		mediumSlots := int(math.Round(float64(n) * mediumQuota))
		strongSlots := int(math.Round(float64(n) * strongQuota))
		unseenSlots := n - weakSlots - mediumSlots - strongSlots

		pr.fill(pr.weak, weakSlots, true, n)
		pr.fill(pr.medium, mediumSlots, true, n)
		// Strong topics get lightest-touch maintenance: the most solid ones
		// first, not the shakiest.
		pr.fill(pr.strong, strongSlots, false, n)
		pr.fill(pr.unseen, unseenSlots, true, n)
	}

	// Safety net: no slot is ever left unfilled.
	if len(pr.seq) < n {
		pr.fill(s.master, n-len(pr.seq), true, n)
	}

	return pr.seq[:n]
}

// planner carries the per-plan derived state: pools, scores, and the sequence
// being built.
type planner struct {
	in     Inputs
	master []domain.Topic

	unseen []domain.Topic
	weak   []domain.Topic
	medium []domain.Topic
	strong []domain.Topic

	seq []domain.Topic
}

func newPlanner(master []domain.Topic, in Inputs) *planner {
	p := &planner{in: in, master: master}

	for _, t := range master {
		st := in.Stats[t]
		switch {
		case !st.Seen():
			p.unseen = append(p.unseen, t)
		case st.Accuracy() < weakThreshold:
			p.weak = append(p.weak, t)
		case st.Accuracy() < strongThreshold:
			p.medium = append(p.medium, t)
		default:
			p.strong = append(p.strong, t)
		}
	}

	return p
}

func (p *planner) seen(t domain.Topic) bool {
	return p.in.Stats[t].Seen()
}

func (p *planner) seenTopics() []domain.Topic {
	var seen []domain.Topic
	for _, t := range p.master {
		if p.seen(t) {
			seen = append(seen, t)
		}
	}
	return seen
}

func (p *planner) daysSinceLastSession() int {
	if len(p.in.SessionDates) == 0 {
		return 0
	}
	last := p.in.SessionDates[0]
	for _, d := range p.in.SessionDates[1:] {
		if d.After(last) {
			last = d
		}
	}
	return max(0, daysBetween(last, p.in.Today))
}

func (p *planner) accuracy(t domain.Topic) float64 {
	return p.in.Stats[t].Accuracy()
}

func (p *planner) mastery(t domain.Topic) float64 {
	if m, ok := p.in.Memory[t]; ok {
		return math.Max(0, math.Min(1, m.Mastery))
	}
	// No memory row yet: seen topics start at the lazy default, unseen ones
	// slightly below it so novelty does not read as competence.
	if p.seen(t) {
		return 0.25
	}
	return 0.15
}

func (p *planner) overdueDays(t domain.Topic) int {
	m, ok := p.in.Memory[t]
	if !ok || m.DueAt.IsZero() {
		return 0
	}
	return max(0, daysBetween(m.DueAt, p.in.Today))
}

func (p *planner) lastSeenDays(t domain.Topic) int {
	if m, ok := p.in.Memory[t]; ok && m.LastSeen != nil {
		return daysBetween(*m.LastSeen, p.in.Today)
	}
	if st, ok := p.in.Stats[t]; ok && st.LastSeen != nil {
		return daysBetween(*st.LastSeen, p.in.Today)
	}
	return neverSeenDays
}

func (p *planner) lapseRate(t domain.Topic) float64 {
	return p.in.Memory[t].LapseRate()
}

// priority scores a topic for remediation urgency.
func (p *planner) priority(t domain.Topic) float64 {
	overdueSignal := math.Min(float64(p.overdueDays(t))/overdueHorizonDays, signalCap)
	recencySignal := math.Min(float64(p.lastSeenDays(t))/recencyHorizonDays, signalCap)

	score := overdueWeight*overdueSignal +
		masteryWeight*(1-p.mastery(t)) +
		lapseWeight*p.lapseRate(t) +
		recencyWeight*recencySignal
	if !p.seen(t) {
		score += noveltyBonus
	}
	return score
}

// sortPool orders candidates by descending priority. Within equal priority,
// weakestFirst pools prefer lower accuracy; maintenance pools prefer higher.
// Staler topics win remaining ties. The sort is stable over master order.
func (p *planner) sortPool(pool []domain.Topic, weakestFirst bool) []domain.Topic {
	ordered := make([]domain.Topic, len(pool))
	copy(ordered, pool)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		pa, pb := p.priority(a), p.priority(b)
		if pa != pb {
			return pa > pb
		}
		aa, ab := p.accuracy(a), p.accuracy(b)
		if aa != ab {
			if weakestFirst {
				return aa < ab
			}
			return aa > ab
		}
		return p.lastSeenDays(a) > p.lastSeenDays(b)
	})
	return ordered
}

// fill appends up to slots entries drawn from pool in priority order, cycling
// the pool when it is smaller than the block. When the next candidate would
// repeat the immediately preceding scheduled topic and an alternative exists,
// the alternative is substituted.
func (p *planner) fill(pool []domain.Topic, slots int, weakestFirst bool, total int) {
	if slots <= 0 || len(pool) == 0 {
		return
	}
	ordered := p.sortPool(pool, weakestFirst)

	for i := 0; len(p.seq) < total && slots > 0; i++ {
		candidate := ordered[i%len(ordered)]
		if len(p.seq) > 0 && len(ordered) > 1 && p.seq[len(p.seq)-1] == candidate {
			candidate = ordered[(i+1)%len(ordered)]
		}
		p.seq = append(p.seq, candidate)
		slots--
	}
}

// distinctDates counts unique calendar days.
func distinctDates(dates []time.Time) int {
	seen := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		seen[d.UTC().Format("2006-01-02")] = struct{}{}
	}
	return len(seen)
}

// daysBetween returns whole days from a to b (negative when b precedes a).
func daysBetween(a, b time.Time) int {
	ad := a.UTC().Truncate(24 * time.Hour)
	bd := b.UTC().Truncate(24 * time.Hour)
	return int(bd.Sub(ad).Hours() / 24)
}
