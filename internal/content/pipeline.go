package content

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/aparasochka/greektutor/internal/domain"
)

// Generator produces candidate batches. Generate returns one candidate per
// plan entry; Repair regenerates only the requested slots, in request order.
type Generator interface {
	Generate(ctx context.Context, plan []domain.Topic, profile UserContext) ([]Candidate, error)
	Repair(ctx context.Context, reqs []RepairRequest, profile UserContext) ([]Candidate, error)
}

// UserContext is the learner profile passed to the generator so prompts can
// target known weaknesses.
type UserContext struct {
	WeakTopics     []domain.Topic
	StrongTopics   []domain.Topic
	RecentMistakes []string
}

// RepairRequest asks the generator to replace a single rejected candidate.
type RepairRequest struct {
	Index    int
	Original Candidate
	Reason   string
	Topic    domain.Topic
}

// Pipeline turns a topic plan into a validated, finalized question batch.
type Pipeline struct {
	gen   Generator
	retry RetryPolicy
	log   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPipeline(gen Generator, retry RetryPolicy, rng *rand.Rand, log *slog.Logger) *Pipeline {
	return &Pipeline{gen: gen, retry: retry, rng: rng, log: log}
}

// Generate requests a batch for the plan, repairs invalid slots for up to two
// rounds, enforces topic conformance with one more targeted round, then
// finalizes option order. Any item still invalid afterwards fails the whole
// attempt. The attempt as a whole, repair rounds included, runs under the
// policy's overall timeout.
func (p *Pipeline) Generate(ctx context.Context, plan []domain.Topic, profile UserContext) ([]domain.Question, error) {
	if p.retry.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.retry.OverallTimeout)
		defer cancel()
	}

	batch, err := callWithRetry(ctx, p.retry, func(ctx context.Context) ([]Candidate, error) {
		return p.gen.Generate(ctx, plan, profile)
	})
	if err != nil {
		return nil, fmt.Errorf("generate batch: %w", err)
	}
	if len(batch) != len(plan) {
		return nil, fmt.Errorf("%w: expected %d candidates, got %d",
			domain.ErrGenerationInvalid, len(plan), len(batch))
	}

	if err := p.repairLoop(ctx, batch, plan, profile); err != nil {
		return nil, err
	}

	qs := make([]domain.Question, len(batch))
	for i, c := range batch {
		qs[i] = c.question()
	}

	if err := p.enforceTopics(ctx, qs, batch, plan, profile); err != nil {
		return nil, err
	}

	p.mu.Lock()
	finalize(qs, p.rng)
	p.mu.Unlock()

	return qs, nil
}

// repairLoop replaces structurally invalid candidates in place, one targeted
// round at a time.
func (p *Pipeline) repairLoop(ctx context.Context, batch []Candidate, plan []domain.Topic, profile UserContext) error {
	for round := 0; ; round++ {
		problems := ValidateBatch(batch)
		if len(problems) == 0 {
			return nil
		}
		if round >= maxRepairRounds {
			return fmt.Errorf("%w: %d candidates still invalid after %d repair rounds",
				domain.ErrGenerationInvalid, len(problems), maxRepairRounds)
		}

		p.log.Warn("repairing invalid candidates",
			slog.Int("round", round+1),
			slog.Int("invalid", len(problems)),
		)
		if err := p.repair(ctx, batch, buildRequests(batch, plan, problems), profile); err != nil {
			return err
		}
	}
}

// enforceTopics runs at most one repair round for questions whose normalized
// topic differs from the plan. Replacements that still disagree keep their
// content but have the topic overwritten, so the memory model always trains
// the scheduled topic.
func (p *Pipeline) enforceTopics(ctx context.Context, qs []domain.Question, batch []Candidate, plan []domain.Topic, profile UserContext) error {
	mismatched := make(Problems)
	for i := range qs {
		if qs[i].Topic != plan[i] {
			mismatched[i] = fmt.Sprintf("topic must be %q", plan[i])
		}
	}
	if len(mismatched) == 0 {
		return nil
	}

	p.log.Warn("repairing off-topic candidates", slog.Int("count", len(mismatched)))
	if err := p.repair(ctx, batch, buildRequests(batch, plan, mismatched), profile); err != nil {
		return err
	}

	for i := range mismatched {
		if reason := validate(batch[i]); reason != "" {
			return fmt.Errorf("%w: topic repair for slot %d: %s",
				domain.ErrGenerationInvalid, i, reason)
		}
		qs[i] = batch[i].question()
		if qs[i].Topic != plan[i] {
			p.log.Warn("forcing topic on off-plan question",
				slog.Int("slot", i),
				slog.String("got", string(qs[i].Topic)),
				slog.String("want", string(plan[i])),
			)
			qs[i].Topic = plan[i]
		}
	}
	return nil
}

// repair fetches replacements for the given requests and splices them into
// the batch by index.
func (p *Pipeline) repair(ctx context.Context, batch []Candidate, reqs []RepairRequest, profile UserContext) error {
	replacements, err := callWithRetry(ctx, p.retry, func(ctx context.Context) ([]Candidate, error) {
		return p.gen.Repair(ctx, reqs, profile)
	})
	if err != nil {
		return fmt.Errorf("repair batch: %w", err)
	}
	if len(replacements) != len(reqs) {
		return fmt.Errorf("%w: expected %d repaired candidates, got %d",
			domain.ErrGenerationInvalid, len(reqs), len(replacements))
	}
	for i, req := range reqs {
		batch[req.Index] = replacements[i]
	}
	return nil
}

func buildRequests(batch []Candidate, plan []domain.Topic, problems Problems) []RepairRequest {
	reqs := make([]RepairRequest, 0, len(problems))
	for _, i := range problems.indexes() {
		reqs = append(reqs, RepairRequest{
			Index:    i,
			Original: batch[i],
			Reason:   problems[i],
			Topic:    plan[i],
		})
	}
	return reqs
}
