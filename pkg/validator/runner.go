package validator

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/foldnet-project/foldnet/pkg/eventhandler"
	"github.com/foldnet-project/foldnet/pkg/models"
	"github.com/foldnet-project/foldnet/pkg/pdbpool"
	"github.com/foldnet-project/foldnet/pkg/sampler"
	"github.com/foldnet-project/foldnet/pkg/simulation"
	"github.com/foldnet-project/foldnet/pkg/system"
	"github.com/foldnet-project/foldnet/pkg/transport"
)

// ScoreUpdater feeds a round's reward vector into the reputation store.
type ScoreUpdater interface {
	UpdateScores(ctx context.Context, event *models.RewardEvent) error
}

// RunnerParams wires a Runner. Pool, Preparer, Dispatcher, Selector, Scores
// and Events are required.
type RunnerParams struct {
	Pool       *pdbpool.Pool
	Table      models.CompatibilityTable
	Preparer   simulation.Preparer
	Dispatcher transport.Dispatcher
	Selector   WorkerSelector
	Scores     ScoreUpdater
	Events     eventhandler.RoundEventHandler
	Gate       *Gate

	// PinnedPDBID fixes the structure id instead of sampling the pool.
	PinnedPDBID string

	// Exclude/Pinned fix hyperparameter dimensions (models.Dim*).
	Exclude []string
	Pinned  models.HyperParameters

	// SampleSize is how many workers to query per round.
	SampleSize int

	// DispatchTimeout bounds the wait for worker responses.
	DispatchTimeout time.Duration

	// Seed makes structure selection and sampling order reproducible when
	// non-zero.
	Seed uint64
}

// Runner drives the validation loop: sample hyperparameters until a
// preparable combination is found, dispatch to workers, gate the
// responses, aggregate rewards and emit the round event. One round is in
// flight at a time.
type Runner struct {
	params RunnerParams
	rng    *frand.RNG
}

func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Pool == nil && params.PinnedPDBID == "" {
		return nil, errors.New("runner: either a structure pool or a pinned structure id is required")
	}
	if params.Preparer == nil {
		return nil, errors.New("runner: a preparer is required")
	}
	if params.Dispatcher == nil {
		return nil, errors.New("runner: a dispatcher is required")
	}
	if params.Selector == nil {
		return nil, errors.New("runner: a worker selector is required")
	}
	if params.Scores == nil {
		return nil, errors.New("runner: a score updater is required")
	}
	if params.Events == nil {
		return nil, errors.New("runner: a round event handler is required")
	}
	if params.Table == nil {
		params.Table = models.DefaultCompatibilityTable()
	}
	if params.Gate == nil {
		params.Gate = NewGate(GateParams{})
	}
	if params.DispatchTimeout <= 0 {
		params.DispatchTimeout = 5 * time.Minute
	}
	return &Runner{params: params, rng: sampler.NewRNG(params.Seed)}, nil
}

// Run executes rounds back to back until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.RunRound(ctx); err != nil {
			return err
		}
	}
}

// RunRound performs one full round. It returns the round's RewardEvent, or
// nil when every hyperparameter combination failed preparation and the
// structure was skipped. Only configuration and scoring-store errors are
// returned; preparation failures are recovered by advancing to the next
// combination.
func (r *Runner) RunRound(ctx context.Context) (*models.RewardEvent, error) {
	ctx, span := system.Span(ctx, "validator", "RunRound")
	defer span.End()

	roundStart := time.Now()

	pdbID := r.params.PinnedPDBID
	if pdbID == "" {
		pdbID = r.params.Pool.SelectRandom(r.rng)
	}

	hpSampler, err := sampler.NewSampler(sampler.Params{
		Table:   r.params.Table,
		Exclude: r.params.Exclude,
		Pinned:  r.params.Pinned,
		Seed:    r.params.Seed,
	})
	if err != nil {
		// Incompatible pinned values are a configuration error, not a
		// condition to retry.
		return nil, err
	}

	task, attemptEvent := r.searchHyperparameters(ctx, pdbID, hpSampler, roundStart)
	if task == nil {
		// Every failed attempt already emitted its own record, each with
		// validator_search_status=false.
		log.Ctx(ctx).Error().
			Str("PDBID", pdbID).
			Int("Combinations", hpSampler.TotalCombinations()).
			Msg("All hyperparameter combinations failed, skipping structure")
		return nil, nil
	}

	log.Ctx(ctx).Info().
		Str("PDBID", pdbID).
		Str("ForceField", task.ForceField).
		Str("WaterModel", task.WaterModel).
		Msg("Simulation prepared, dispatching to workers")

	workers := r.params.Selector.Select(r.params.SampleSize, nil)
	stepStart := time.Now()
	responses := r.params.Dispatcher.Dispatch(ctx, transport.Request{
		PDBID:    task.PDBID,
		MDInputs: task.MDInputs,
	}, workers, r.params.DispatchTimeout)

	results, energies := r.params.Gate.ExtractResults(ctx, task, responses)
	rewardEvent := ComputeRewards(task, results)

	scoreErr := r.params.Scores.UpdateScores(ctx, rewardEvent)
	if scoreErr != nil {
		log.Ctx(ctx).Error().Err(scoreErr).Msg("Failed to update worker scores")
	}

	event := attemptEvent
	event["worker_ids"] = workers
	event["step_length"] = time.Since(stepStart).Seconds()
	event["energies"] = energies
	for field, value := range transport.ResponseInfo(responses) {
		event[field] = value
	}
	for field, value := range rewardEvent.Flatten() {
		event[field] = value
	}
	event["forward_time"] = time.Since(roundStart).Seconds()
	r.emit(ctx, event)

	return rewardEvent, scoreErr
}

// searchHyperparameters tries combinations until one prepares, emitting a
// diagnostic event for every failed attempt. It returns the prepared task
// (nil if the whole space failed) and the event record of the last
// attempt.
func (r *Runner) searchHyperparameters(
	ctx context.Context,
	pdbID string,
	hpSampler *sampler.Sampler,
	roundStart time.Time,
) (*models.Task, eventhandler.RoundEvent) {
	event := eventhandler.RoundEvent{
		"pdb_id":                  pdbID,
		"validator_search_status": false,
	}

	total := hpSampler.TotalCombinations()
	if total == 0 {
		event["forward_time"] = time.Since(roundStart).Seconds()
		r.emit(ctx, event)
		return nil, event
	}
	for iteration := 0; iteration < total; iteration++ {
		hp, err := hpSampler.Sample()
		if err != nil {
			break
		}
		attemptStart := time.Now()

		log.Ctx(ctx).Info().
			Str("PDBID", pdbID).
			Int("Iteration", iteration).
			Interface("HyperParameters", hp).
			Msg("Attempting to prepare simulation")

		task := models.NewTask(pdbID, hp)
		prepErr := task.Validate(r.params.Table)
		if prepErr == nil {
			prepErr = r.params.Preparer.Prepare(ctx, task)
		}

		event = eventhandler.RoundEvent{
			"pdb_id":                  pdbID,
			models.DimForceField:      hp.ForceField,
			models.DimWaterModel:      hp.WaterModel,
			models.DimBoxShape:        hp.BoxShape,
			models.DimBoxPadding:      hp.BoxPadding,
			"hp_sample_time":          time.Since(attemptStart).Seconds(),
			"validator_search_status": prepErr == nil,
		}

		if prepErr != nil {
			log.Ctx(ctx).Warn().
				Err(prepErr).
				Str("PDBID", pdbID).
				Interface("HyperParameters", hp).
				Msg("Hyperparameter combination failed preparation")
			event["forward_time"] = time.Since(roundStart).Seconds()
			r.emit(ctx, event)
			continue
		}

		return task, event
	}

	return nil, event
}

func (r *Runner) emit(ctx context.Context, event eventhandler.RoundEvent) {
	if err := r.params.Events.HandleRoundEvent(ctx, event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to emit round event")
	}
}
