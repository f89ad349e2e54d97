// Package validator holds the scoring core of the node: the validity gate
// that decides which worker responses can be trusted, the reward
// aggregator that turns trusted measurements into a reward vector, and the
// round runner that drives the whole pipeline.
package validator

import (
	"context"
	"net/http"
	"sort"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/foldnet-project/foldnet/pkg/gro"
	"github.com/foldnet-project/foldnet/pkg/models"
	"github.com/foldnet-project/foldnet/pkg/simulation"
	"github.com/foldnet-project/foldnet/pkg/system"
)

const (
	// DefaultEnergyTolerance is the relative tolerance within which the
	// reported final energy must agree with the validator's recomputation.
	DefaultEnergyTolerance = 0.10

	// DefaultTailWindow is how many trailing trajectory samples feed the
	// checked-energy recomputation.
	DefaultTailWindow = 10
)

// GateParams configures a Gate. Zero values select the defaults.
type GateParams struct {
	EnergyTolerance float64
	TailWindow      int
}

// Gate runs each worker response through the validity checks and extracts
// the energy/RMSD measurements from the ones that pass.
type Gate struct {
	tolerance  float64
	tailWindow int
}

func NewGate(params GateParams) *Gate {
	if params.EnergyTolerance <= 0 {
		params.EnergyTolerance = DefaultEnergyTolerance
	}
	if params.TailWindow <= 0 {
		params.TailWindow = DefaultTailWindow
	}
	return &Gate{tolerance: params.EnergyTolerance, tailWindow: params.TailWindow}
}

// ExtractResults produces exactly one WorkerResult per queried worker, in
// worker order, plus the energies vector consumed by the reward
// aggregator: len(responses) entries, 0 for every invalid worker. Workers
// are processed independently; one bad response never aborts the batch.
func (g *Gate) ExtractResults(
	ctx context.Context,
	task *models.Task,
	responses []models.WorkerResponse,
) ([]models.WorkerResult, []float64) {
	ctx, span := system.Span(ctx, "validator", "ExtractResults")
	defer span.End()

	results := make([]models.WorkerResult, len(responses))
	energies := make([]float64, len(responses))

	for i, response := range responses {
		results[i] = g.processOne(ctx, task, response)
		if results[i].Valid {
			energies[i] = results[i].ReportedEnergy
		}
	}
	return results, energies
}

// processOne applies the full per-worker pipeline: output parse, transport
// status, final-sample extraction, fingerprint check and energy
// cross-validation. Zero-valued fields are reported for every failed check.
func (g *Gate) processOne(
	ctx context.Context,
	task *models.Task,
	response models.WorkerResponse,
) (result models.WorkerResult) {
	result = models.WorkerResult{WorkerID: response.WorkerID}

	// The gate must keep its one-entry-per-worker guarantee even if a
	// malicious bundle manages to panic a parser.
	defer func() {
		if r := recover(); r != nil {
			log.Ctx(ctx).Error().
				Str("WorkerID", response.WorkerID).
				Interface("Panic", r).
				Msg("Recovered while processing worker response")
			result = models.WorkerResult{WorkerID: response.WorkerID, ErrKind: models.ErrKindInternal}
		}
	}()

	workerLog := log.Ctx(ctx).With().Str("WorkerID", response.WorkerID).Logger()

	output, err := simulation.ParseOutput(response.MDOutput)
	if err != nil {
		workerLog.Info().Err(err).Msg("Failed to parse worker output")
		result.ErrKind = models.ErrKindParseFailure
		return result
	}

	if response.StatusCode != http.StatusOK {
		workerLog.Info().Int("StatusCode", response.StatusCode).Msg("Worker responded with non-success status")
		result.ErrKind = models.ErrKindBadStatus
		return result
	}

	energy := output.FinalEnergy()
	rmsd := output.FinalRMSD()

	// An energy of exactly zero is the "no data" sentinel.
	if energy == 0 {
		workerLog.Info().Msg("Worker reported zero energy")
		result.ErrKind = models.ErrKindZeroEnergy
		return result
	}

	returnedStructure, ok := output.Files[simulation.StructureFileName]
	if !ok {
		workerLog.Info().Msg("Worker bundle is missing the structure file")
		result.ErrKind = models.ErrKindFingerprintMismatch
		return result
	}
	fingerprint, err := gro.FingerprintBytes(returnedStructure, simulation.StructureFileName)
	if err != nil || fingerprint != task.ExpectedFingerprint {
		workerLog.Warn().
			AnErr("ParseError", err).
			Str("Expected", task.ExpectedFingerprint).
			Str("Got", fingerprint).
			Msg("Structural fingerprint mismatch")
		result.ErrKind = models.ErrKindFingerprintMismatch
		return result
	}

	checked := g.checkedEnergy(output.EnergySeries)
	if !withinTolerance(energy, checked, g.tolerance) {
		workerLog.Warn().
			Float64("Reported", energy).
			Float64("Checked", checked).
			Msg("Reported energy disagrees with recomputation")
		result.ErrKind = models.ErrKindEnergyMismatch
		return result
	}

	task.Output = output

	result.Valid = true
	result.ReportedEnergy = energy
	result.CheckedEnergy = checked
	result.RMSD = rmsd
	return result
}

// checkedEnergy recomputes the final energy from the raw trajectory as the
// median of the tail window, which a worker cannot steer with a single
// fabricated last sample.
func (g *Gate) checkedEnergy(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	start := len(series) - g.tailWindow
	if start < 0 {
		start = 0
	}
	tail := append([]float64(nil), series[start:]...)
	sort.Float64s(tail)
	return stat.Quantile(0.5, stat.Empirical, tail, nil)
}

func withinTolerance(reported, checked, tolerance float64) bool {
	diff := reported - checked
	if diff < 0 {
		diff = -diff
	}
	scale := checked
	if scale < 0 {
		scale = -scale
	}
	if scale == 0 {
		return diff == 0
	}
	return diff <= tolerance*scale
}
