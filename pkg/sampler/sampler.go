// Package sampler enumerates valid molecular-dynamics hyperparameter
// combinations and hands them out one at a time, without replacement, until
// the search space is exhausted.
package sampler

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"lukechampine.com/frand"

	"github.com/foldnet-project/foldnet/pkg/models"
)

// ErrExhausted is returned by Sample once every combination in the filtered
// cross product has been produced.
var ErrExhausted = errors.New("sampler: hyperparameter search space exhausted")

// Params configures a Sampler.
type Params struct {
	// Table is the force field / water model compatibility table. Required.
	Table models.CompatibilityTable

	// Exclude names the dimensions the caller pinned (models.Dim*); pinned
	// dimensions are fixed to the value in Pinned instead of being swept.
	Exclude []string

	// Pinned carries the pinned values for the excluded dimensions. Fields
	// for unexcluded dimensions are ignored.
	Pinned models.HyperParameters

	// Seed makes the shuffle deterministic when non-zero.
	Seed uint64
}

// Sampler produces hyperparameter combinations from the filtered cross
// product of the supported domains. Every combination it emits satisfies
// the compatibility table; pinning an incompatible pair is a configuration
// error and fails at construction.
type Sampler struct {
	combinations []models.HyperParameters
	cursor       int
}

func NewSampler(params Params) (*Sampler, error) {
	if params.Table == nil {
		return nil, errors.New("sampler: compatibility table is required")
	}

	excluded := map[string]bool{}
	for _, dim := range params.Exclude {
		excluded[dim] = true
	}

	if excluded[models.DimForceField] && excluded[models.DimWaterModel] {
		if !params.Table.Compatible(params.Pinned.ForceField, params.Pinned.WaterModel) {
			return nil, errors.Errorf(
				"sampler: pinned force field %q is not compatible with pinned water model %q",
				params.Pinned.ForceField, params.Pinned.WaterModel)
		}
	}

	forceFields := params.Table.ForceFields()
	if excluded[models.DimForceField] {
		if _, ok := params.Table.WaterModelFor(params.Pinned.ForceField); !ok {
			return nil, errors.Errorf("sampler: unknown pinned force field %q", params.Pinned.ForceField)
		}
		forceFields = []string{params.Pinned.ForceField}
	}
	if excluded[models.DimWaterModel] && !excluded[models.DimForceField] {
		// Pinning only the water model restricts the sweep to the force
		// fields that require it.
		var compatible []string
		for _, ff := range forceFields {
			if params.Table.Compatible(ff, params.Pinned.WaterModel) {
				compatible = append(compatible, ff)
			}
		}
		if len(compatible) == 0 {
			return nil, errors.Errorf(
				"sampler: no supported force field uses pinned water model %q", params.Pinned.WaterModel)
		}
		forceFields = compatible
	}

	boxShapes := models.DefaultBoxShapes
	if excluded[models.DimBoxShape] {
		boxShapes = []string{params.Pinned.BoxShape}
	}

	boxPaddings := models.DefaultBoxPaddings
	if excluded[models.DimBoxPadding] {
		if params.Pinned.BoxPadding < 0 {
			return nil, errors.Errorf(
				"sampler: pinned box padding must be non-negative, got %f", params.Pinned.BoxPadding)
		}
		boxPaddings = []float64{params.Pinned.BoxPadding}
	}

	var combinations []models.HyperParameters
	for _, ff := range forceFields {
		// The water model is derived, never swept independently: the
		// cross product only ever contains table-compatible pairs.
		water, _ := params.Table.WaterModelFor(ff)
		for _, shape := range boxShapes {
			for _, padding := range boxPaddings {
				combinations = append(combinations, models.HyperParameters{
					ForceField: ff,
					WaterModel: water,
					BoxShape:   shape,
					BoxPadding: padding,
				})
			}
		}
	}

	rng := NewRNG(params.Seed)
	rng.Shuffle(len(combinations), func(i, j int) {
		combinations[i], combinations[j] = combinations[j], combinations[i]
	})

	return &Sampler{combinations: combinations}, nil
}

// TotalCombinations is the size of the filtered cross product, computed
// once at construction.
func (s *Sampler) TotalCombinations() int {
	return len(s.combinations)
}

// Sample returns the next combination, without replacement. Once the search
// space is exhausted it returns ErrExhausted.
func (s *Sampler) Sample() (models.HyperParameters, error) {
	if s.cursor >= len(s.combinations) {
		return models.HyperParameters{}, ErrExhausted
	}
	combination := s.combinations[s.cursor]
	s.cursor++
	return combination, nil
}

// NewRNG returns a generator seeded for reproducibility when seed is
// non-zero, and a cryptographically seeded one otherwise.
func NewRNG(seed uint64) *frand.RNG {
	if seed == 0 {
		return frand.New()
	}
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	return frand.NewCustom(key[:], 1024, 12)
}
