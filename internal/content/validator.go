package content

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aparasochka/greektutor/internal/domain"
)

// maxRepairRounds bounds structural repair before the attempt fails.
const maxRepairRounds = 2

// Problems maps a batch index to the reason its candidate was rejected.
// An empty map means the whole batch is structurally valid.
type Problems map[int]string

func (p Problems) indexes() []int {
	idx := make([]int, 0, len(p))
	for i := range p {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// ValidateBatch checks every candidate independently and reports the first
// defect found per item. Validation never mutates the batch.
func ValidateBatch(batch []Candidate) Problems {
	problems := make(Problems)
	for i, c := range batch {
		if reason := validate(c); reason != "" {
			problems[i] = reason
		}
	}
	return problems
}

// validate returns the rejection reason for a candidate, or "" when it is
// structurally sound. Checks run in a fixed order so repair prompts stay
// stable across rounds.
func validate(c Candidate) string {
	if c.fieldSetErr != "" {
		return "wrong field set: " + c.fieldSetErr
	}
	if c.Question == nil || c.Options == nil || c.CorrectIndex == nil ||
		c.Explanation == nil || c.Topic == nil || c.Type == nil {
		return "wrong field set: missing required field"
	}
	if strings.TrimSpace(*c.Question) == "" {
		return "empty question text"
	}
	if strings.TrimSpace(*c.Explanation) == "" {
		return "empty explanation"
	}
	if !domain.QuestionType(*c.Type).IsValid() {
		return fmt.Sprintf("unknown question type %q", *c.Type)
	}
	if len(c.Options) != domain.OptionCount {
		return fmt.Sprintf("expected %d options, got %d", domain.OptionCount, len(c.Options))
	}
	for i, opt := range c.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Sprintf("empty option at position %d", i)
		}
	}
	if hasDuplicateOptions(c.Options) {
		return "duplicate options detected"
	}
	idx := *c.CorrectIndex
	if idx != math.Trunc(idx) {
		return "correctIndex is not an integer"
	}
	if idx < 0 || idx >= domain.OptionCount {
		return fmt.Sprintf("correctIndex %d out of range", int(idx))
	}
	return ""
}

// hasDuplicateOptions compares options after canonicalization, so "Ναι!" and
// "ναι" count as the same answer.
func hasDuplicateOptions(options []string) bool {
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		key := domain.CanonicalOption(opt)
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}
