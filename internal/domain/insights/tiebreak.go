package insights

import (
	"math/rand"
	"time"
)

// TieBreaker picks one representative from a tied set. Candidates arrive
// sorted alphabetically and hold at least one element.
type TieBreaker interface {
	Pick(candidates []string) string
}

// FirstTieBreaker always picks the first candidate.
type FirstTieBreaker struct{}

// Pick implements TieBreaker.
func (FirstTieBreaker) Pick(candidates []string) string {
	return candidates[0]
}

// RandomTieBreaker picks uniformly at random from its own source. It is not
// safe for concurrent use; build one per computation.
type RandomTieBreaker struct {
	rng *rand.Rand
}

// NewRandomTieBreaker returns a tie breaker seeded with seed. A zero seed
// draws one from the clock.
func NewRandomTieBreaker(seed int64) *RandomTieBreaker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomTieBreaker{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // tie breaking is not security sensitive
}

// Pick implements TieBreaker. A single candidate does not consume randomness.
func (t *RandomTieBreaker) Pick(candidates []string) string {
	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[t.rng.Intn(len(candidates))]
}
