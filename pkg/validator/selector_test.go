package validator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foldnet-project/foldnet/pkg/logger"
	"github.com/foldnet-project/foldnet/pkg/sampler"
	"github.com/foldnet-project/foldnet/pkg/validator"
)

func TestRandomSelectorHonorsKAndExclusions(t *testing.T) {
	logger.ConfigureTestLogging(t)
	workers := []string{"workerA", "workerB", "workerC", "workerD"}
	selector := validator.NewRandomSelector(workers, sampler.NewRNG(11))

	selected := selector.Select(2, []string{"workerD"})
	require.Len(t, selected, 2)
	require.NotContains(t, selected, "workerD")
	for _, id := range selected {
		require.Contains(t, workers, id)
	}

	all := selector.Select(0, nil)
	require.ElementsMatch(t, workers, all)

	tooMany := selector.Select(100, nil)
	require.Len(t, tooMany, len(workers))
}
