package content

import (
	"math/rand"

	"github.com/aparasochka/greektutor/internal/domain"
)

// finalize shuffles the options of every question and remaps CorrectIndex so
// it keeps pointing at the same answer text. The correct answer never sits in
// a predictable slot.
func finalize(qs []domain.Question, rng *rand.Rand) {
	for i := range qs {
		perm := rng.Perm(domain.OptionCount)

		var shuffled [domain.OptionCount]string
		for from, to := range perm {
			shuffled[to] = qs[i].Options[from]
		}
		qs[i].Options = shuffled
		qs[i].CorrectIndex = perm[qs[i].CorrectIndex]
	}
}
