package validator

import (
	"lukechampine.com/frand"
)

// WorkerSelector chooses which workers to query for a round.
type WorkerSelector interface {
	Select(k int, exclude []string) []string
}

// RandomSelector draws workers uniformly without replacement from a fixed
// membership list.
type RandomSelector struct {
	workers []string
	rng     *frand.RNG
}

func NewRandomSelector(workers []string, rng *frand.RNG) *RandomSelector {
	return &RandomSelector{workers: workers, rng: rng}
}

func (s *RandomSelector) Select(k int, exclude []string) []string {
	excluded := map[string]bool{}
	for _, id := range exclude {
		excluded[id] = true
	}

	var candidates []string
	for _, id := range s.workers {
		if !excluded[id] {
			candidates = append(candidates, id)
		}
	}
	if k <= 0 || k > len(candidates) {
		k = len(candidates)
	}

	selected := make([]string, 0, k)
	for _, i := range s.rng.Perm(len(candidates))[:k] {
		selected = append(selected, candidates[i])
	}
	return selected
}

var _ WorkerSelector = (*RandomSelector)(nil)
