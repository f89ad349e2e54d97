package sampler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foldnet-project/foldnet/pkg/logger"
	"github.com/foldnet-project/foldnet/pkg/models"
	"github.com/foldnet-project/foldnet/pkg/sampler"
)

func TestEveryCombinationIsCompatible(t *testing.T) {
	logger.ConfigureTestLogging(t)
	table := models.DefaultCompatibilityTable()
	s, err := sampler.NewSampler(sampler.Params{Table: table, Seed: 42})
	require.NoError(t, err)

	for {
		hp, err := s.Sample()
		if err != nil {
			require.ErrorIs(t, err, sampler.ErrExhausted)
			break
		}
		require.True(t, table.Compatible(hp.ForceField, hp.WaterModel),
			"sampled incompatible pair %q/%q", hp.ForceField, hp.WaterModel)
		require.GreaterOrEqual(t, hp.BoxPadding, 0.0)
	}
}

func TestTotalCombinationsMatchesCrossProduct(t *testing.T) {
	logger.ConfigureTestLogging(t)
	table := models.DefaultCompatibilityTable()
	s, err := sampler.NewSampler(sampler.Params{Table: table})
	require.NoError(t, err)

	expected := len(table.ForceFields()) * len(models.DefaultBoxShapes) * len(models.DefaultBoxPaddings)
	require.Equal(t, expected, s.TotalCombinations())
}

func TestSamplingWithoutReplacementExhaustsExactly(t *testing.T) {
	logger.ConfigureTestLogging(t)
	s, err := sampler.NewSampler(sampler.Params{Table: models.DefaultCompatibilityTable(), Seed: 7})
	require.NoError(t, err)

	seen := map[models.HyperParameters]bool{}
	for i := 0; i < s.TotalCombinations(); i++ {
		hp, err := s.Sample()
		require.NoError(t, err)
		require.False(t, seen[hp], "duplicate combination %+v", hp)
		seen[hp] = true
	}
	require.Len(t, seen, s.TotalCombinations())

	_, err = s.Sample()
	require.ErrorIs(t, err, sampler.ErrExhausted)
}

func TestPinnedDimensionsAreNotSwept(t *testing.T) {
	logger.ConfigureTestLogging(t)
	table := models.DefaultCompatibilityTable()
	s, err := sampler.NewSampler(sampler.Params{
		Table:   table,
		Exclude: []string{models.DimForceField, models.DimWaterModel, models.DimBoxPadding},
		Pinned: models.HyperParameters{
			ForceField: "charmm27",
			WaterModel: "tip3p",
			BoxPadding: 1.0,
		},
		Seed: 1,
	})
	require.NoError(t, err)
	require.Equal(t, len(models.DefaultBoxShapes), s.TotalCombinations())

	for i := 0; i < s.TotalCombinations(); i++ {
		hp, err := s.Sample()
		require.NoError(t, err)
		require.Equal(t, "charmm27", hp.ForceField)
		require.Equal(t, "tip3p", hp.WaterModel)
		require.Equal(t, 1.0, hp.BoxPadding)
	}
}

func TestIncompatiblePinnedPairFailsFast(t *testing.T) {
	logger.ConfigureTestLogging(t)
	_, err := sampler.NewSampler(sampler.Params{
		Table:   models.DefaultCompatibilityTable(),
		Exclude: []string{models.DimForceField, models.DimWaterModel},
		Pinned: models.HyperParameters{
			ForceField: "charmm27",
			WaterModel: "spc",
		},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not compatible")
}

func TestPinnedWaterModelRestrictsForceFields(t *testing.T) {
	logger.ConfigureTestLogging(t)
	table := models.DefaultCompatibilityTable()
	s, err := sampler.NewSampler(sampler.Params{
		Table:   table,
		Exclude: []string{models.DimWaterModel},
		Pinned:  models.HyperParameters{WaterModel: "tip4p"},
		Seed:    3,
	})
	require.NoError(t, err)

	for i := 0; i < s.TotalCombinations(); i++ {
		hp, err := s.Sample()
		require.NoError(t, err)
		require.Equal(t, "oplsaa", hp.ForceField)
		require.Equal(t, "tip4p", hp.WaterModel)
	}
}

func TestDeterministicUnderFixedSeed(t *testing.T) {
	logger.ConfigureTestLogging(t)
	table := models.DefaultCompatibilityTable()

	sampleAll := func() []models.HyperParameters {
		s, err := sampler.NewSampler(sampler.Params{Table: table, Seed: 99})
		require.NoError(t, err)
		var all []models.HyperParameters
		for i := 0; i < s.TotalCombinations(); i++ {
			hp, err := s.Sample()
			require.NoError(t, err)
			all = append(all, hp)
		}
		return all
	}

	require.Equal(t, sampleAll(), sampleAll())
}
