package validator_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"

	"github.com/foldnet-project/foldnet/pkg/eventhandler"
	"github.com/foldnet-project/foldnet/pkg/gro"
	"github.com/foldnet-project/foldnet/pkg/logger"
	"github.com/foldnet-project/foldnet/pkg/models"
	"github.com/foldnet-project/foldnet/pkg/sampler"
	"github.com/foldnet-project/foldnet/pkg/simulation"
	"github.com/foldnet-project/foldnet/pkg/transport"
	"github.com/foldnet-project/foldnet/pkg/transport/inprocess"
	"github.com/foldnet-project/foldnet/pkg/validator"
)

type fakePreparer struct {
	failAll bool
	calls   int
}

func (p *fakePreparer) Prepare(ctx context.Context, task *models.Task) error {
	p.calls++
	if p.failAll {
		return errors.New("editconf failed: atom clash")
	}
	fingerprint, err := gro.FingerprintBytes([]byte(taskGro), simulation.StructureFileName)
	if err != nil {
		return err
	}
	task.MDInputs = map[string][]byte{simulation.StructureFileName: []byte(taskGro)}
	task.ExpectedFingerprint = fingerprint
	return nil
}

type fakeScores struct {
	updates []*models.RewardEvent
}

func (s *fakeScores) UpdateScores(ctx context.Context, event *models.RewardEvent) error {
	s.updates = append(s.updates, event)
	return nil
}

type countingDispatcher struct {
	inner transport.Dispatcher
	calls int
}

func (d *countingDispatcher) Dispatch(
	ctx context.Context,
	request transport.Request,
	workers []string,
	timeout time.Duration,
) []models.WorkerResponse {
	d.calls++
	return d.inner.Dispatch(ctx, request, workers, timeout)
}

type RunnerSuite struct {
	suite.Suite
	preparer   *fakePreparer
	scores     *fakeScores
	dispatcher *countingDispatcher
	events     []eventhandler.RoundEvent
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerSuite))
}

func (s *RunnerSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	s.preparer = &fakePreparer{}
	s.scores = &fakeScores{}
	s.events = nil

	okWorker := func(_ context.Context, _ string, _ transport.Request) models.WorkerResponse {
		return models.WorkerResponse{
			StatusCode:    http.StatusOK,
			StatusMessage: "OK",
			MDOutput:      validBundle([]float64{-530.1, -535.7, -542.3}, []float64{0, 0.8, 1.2}),
		}
	}
	failedWorker := func(_ context.Context, _ string, _ transport.Request) models.WorkerResponse {
		return models.WorkerResponse{StatusCode: http.StatusInternalServerError, StatusMessage: "simulation crashed"}
	}
	zeroEnergyWorker := func(_ context.Context, _ string, _ transport.Request) models.WorkerResponse {
		return models.WorkerResponse{
			StatusCode:    http.StatusOK,
			StatusMessage: "OK",
			MDOutput:      validBundle([]float64{-10, 0}, []float64{0.5, 0.5}),
		}
	}
	s.dispatcher = &countingDispatcher{inner: inprocess.NewInProcessDispatcher(map[string]inprocess.WorkerFunc{
		"workerA": okWorker,
		"workerB": failedWorker,
		"workerC": zeroEnergyWorker,
	})}
}

func (s *RunnerSuite) newRunner(failAll bool) *validator.Runner {
	s.preparer.failAll = failAll
	runner, err := validator.NewRunner(validator.RunnerParams{
		Table:      models.DefaultCompatibilityTable(),
		Preparer:   s.preparer,
		Dispatcher: s.dispatcher,
		Selector:   validator.NewRandomSelector([]string{"workerA", "workerB", "workerC"}, sampler.NewRNG(5)),
		Scores:     s.scores,
		Events: eventhandler.RoundEventHandlerFunc(func(ctx context.Context, event eventhandler.RoundEvent) error {
			s.events = append(s.events, event)
			return nil
		}),
		PinnedPDBID: "1ABC",
		Exclude:     []string{models.DimForceField, models.DimWaterModel, models.DimBoxPadding},
		Pinned: models.HyperParameters{
			ForceField: "charmm27",
			WaterModel: "tip3p",
			BoxPadding: 1.0,
		},
		SampleSize:      3,
		DispatchTimeout: 5 * time.Second,
		Seed:            13,
	})
	s.Require().NoError(err)
	return runner
}

func (s *RunnerSuite) TestSuccessfulRound() {
	runner := s.newRunner(false)

	event, err := runner.RunRound(context.Background())
	s.Require().NoError(err)
	s.Require().NotNil(event)

	// Exactly one worker passes the gate.
	s.Require().Len(event.Rewards, 3)
	validCount := 0
	for _, valid := range event.IsValid {
		if valid {
			validCount++
		}
	}
	s.Require().Equal(1, validCount)

	rewardA, ok := event.RewardFor("workerA")
	s.Require().True(ok)
	s.Require().Greater(rewardA, 0.0)
	rewardB, _ := event.RewardFor("workerB")
	s.Require().Equal(0.0, rewardB)
	rewardC, _ := event.RewardFor("workerC")
	s.Require().Equal(0.0, rewardC)

	// Score store received exactly this round's event.
	s.Require().Len(s.scores.updates, 1)
	s.Require().Equal(event.RoundID, s.scores.updates[0].RoundID)

	// One round record, carrying search status, transport diagnostics and
	// the flattened reward event.
	s.Require().Len(s.events, 1)
	record := s.events[0]
	s.Require().Equal("1ABC", record["pdb_id"])
	s.Require().Equal(true, record["validator_search_status"])
	s.Require().Contains(record, "worker_ids")
	s.Require().Contains(record, "response_status_codes")
	s.Require().Contains(record, "rewards")
	s.Require().Contains(record, "forward_time")
	s.Require().Equal(1, s.dispatcher.calls)
}

func (s *RunnerSuite) TestAllCombinationsFailSkipsStructure() {
	runner := s.newRunner(true)

	event, err := runner.RunRound(context.Background())
	s.Require().NoError(err)
	s.Require().Nil(event)

	// One attempt per box shape, no dispatch, no score update.
	s.Require().Equal(len(models.DefaultBoxShapes), s.preparer.calls)
	s.Require().Equal(0, s.dispatcher.calls)
	s.Require().Empty(s.scores.updates)

	s.Require().Len(s.events, s.preparer.calls)
	for _, record := range s.events {
		s.Require().Equal(false, record["validator_search_status"])
		s.Require().Equal("1ABC", record["pdb_id"])
		s.Require().Contains(record, "hp_sample_time")
	}
}

func (s *RunnerSuite) TestIncompatiblePinnedPairIsFatal() {
	// The incompatible pair surfaces at sampler construction inside the
	// round, as a returned error rather than a skipped structure.
	runner, err := validator.NewRunner(validator.RunnerParams{
		Preparer:    s.preparer,
		Dispatcher:  s.dispatcher,
		Selector:    validator.NewRandomSelector([]string{"workerA"}, sampler.NewRNG(1)),
		Scores:      s.scores,
		Events:      eventhandler.RoundEventHandlerFunc(func(context.Context, eventhandler.RoundEvent) error { return nil }),
		PinnedPDBID: "1ABC",
		Exclude:     []string{models.DimForceField, models.DimWaterModel},
		Pinned:      models.HyperParameters{ForceField: "charmm27", WaterModel: "spc"},
	})
	s.Require().NoError(err)
	_, err = runner.RunRound(context.Background())
	s.Require().Error(err)
	s.Require().Contains(err.Error(), "not compatible")
}
