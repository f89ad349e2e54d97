package foldnet

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/foldnet-project/foldnet/pkg/config"
	"github.com/foldnet-project/foldnet/pkg/eventhandler"
	"github.com/foldnet-project/foldnet/pkg/pdbpool"
	"github.com/foldnet-project/foldnet/pkg/sampler"
	"github.com/foldnet-project/foldnet/pkg/scorestore"
	"github.com/foldnet-project/foldnet/pkg/simulation"
	"github.com/foldnet-project/foldnet/pkg/system"
	"github.com/foldnet-project/foldnet/pkg/transport/inprocess"
	"github.com/foldnet-project/foldnet/pkg/validator"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the validator round loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cm := system.NewCleanupManager()
	defer cm.Cleanup()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log.Info().Interface("Config", cfg).Msg("Starting validator")

	var pool *pdbpool.Pool
	if cfg.PDBID == "" {
		pool, err = pdbpool.LoadFile(cfg.PoolPath)
		if err != nil {
			return err
		}
	}

	scores, err := scorestore.NewStore(scorestore.Params{
		Path:  cfg.ScoreDBPath,
		Alpha: cfg.Alpha,
	})
	if err != nil {
		return err
	}
	cm.RegisterCallback(scores.Close)

	tracer, err := eventhandler.NewTracerToFile(cfg.EventTracerPath)
	if err != nil {
		return err
	}
	cm.RegisterCallback(tracer.Shutdown)

	events := eventhandler.NewChainedRoundEventHandler(
		tracer,
		eventhandler.RoundEventHandlerFunc(func(ctx context.Context, event eventhandler.RoundEvent) error {
			log.Ctx(ctx).Info().Interface("Event", event).Msg("Round complete")
			return nil
		}),
	)

	runner, err := validator.NewRunner(validator.RunnerParams{
		Pool:     pool,
		Preparer: &simulation.GromacsPreparer{DataDir: cfg.DataDir},
		// The in-process dispatcher is the devstack default; a network
		// transport replaces it when the node joins a real swarm.
		Dispatcher: inprocess.NewInProcessDispatcher(nil),
		Selector:   validator.NewRandomSelector(cfg.Workers, sampler.NewRNG(cfg.Seed)),
		Scores:     scores,
		Events:     events,
		Gate: validator.NewGate(validator.GateParams{
			EnergyTolerance: cfg.EnergyTolerance,
			TailWindow:      cfg.TailWindow,
		}),
		PinnedPDBID:     cfg.PDBID,
		Exclude:         cfg.ExcludedDimensions(),
		Pinned:          cfg.PinnedHyperParameters(),
		SampleSize:      cfg.SampleSize,
		DispatchTimeout: cfg.DispatchTimeout,
		Seed:            cfg.Seed,
	})
	if err != nil {
		return err
	}

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("Validator stopped")
	return nil
}
