package scorestore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"

	"github.com/foldnet-project/foldnet/pkg/logger"
	"github.com/foldnet-project/foldnet/pkg/models"
	"github.com/foldnet-project/foldnet/pkg/scorestore"
)

type ScoreStoreSuite struct {
	suite.Suite
	store *scorestore.Store
	clock *clock.Mock
}

func TestScoreStoreSuite(t *testing.T) {
	suite.Run(t, new(ScoreStoreSuite))
}

func (s *ScoreStoreSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	s.clock = clock.NewMock()

	store, err := scorestore.NewStore(scorestore.Params{
		Path:  filepath.Join(s.T().TempDir(), "scores.db"),
		Alpha: 0.5,
		Clock: s.clock,
	})
	s.Require().NoError(err)
	s.store = store
	s.T().Cleanup(func() { s.Require().NoError(store.Close()) })
}

func event(workerIDs []string, rewards []float64) *models.RewardEvent {
	return &models.RewardEvent{
		RoundID:   "round-1",
		PDBID:     "1ABC",
		WorkerIDs: workerIDs,
		Rewards:   rewards,
	}
}

func (s *ScoreStoreSuite) TestFirstRoundSeedsScores() {
	ctx := context.Background()
	s.Require().NoError(s.store.UpdateScores(ctx, event([]string{"workerA", "workerB"}, []float64{1, 0})))

	scoreA, err := s.store.GetScore(ctx, "workerA")
	s.Require().NoError(err)
	s.Require().Equal(1.0, scoreA)

	scoreB, err := s.store.GetScore(ctx, "workerB")
	s.Require().NoError(err)
	s.Require().Equal(0.0, scoreB)
}

func (s *ScoreStoreSuite) TestEMAUpdate() {
	ctx := context.Background()
	s.Require().NoError(s.store.UpdateScores(ctx, event([]string{"workerA"}, []float64{1})))
	s.Require().NoError(s.store.UpdateScores(ctx, event([]string{"workerA"}, []float64{0})))

	// alpha=0.5: 0.5*1 + 0.5*0
	score, err := s.store.GetScore(ctx, "workerA")
	s.Require().NoError(err)
	s.Require().InDelta(0.5, score, 1e-9)
}

func (s *ScoreStoreSuite) TestUnknownWorker() {
	_, err := s.store.GetScore(context.Background(), "ghost")
	s.Require().ErrorIs(err, scorestore.ErrWorkerNotFound)
}

func (s *ScoreStoreSuite) TestListScoresOrdered() {
	ctx := context.Background()
	s.Require().NoError(s.store.UpdateScores(ctx, event(
		[]string{"low", "high", "mid"}, []float64{0.1, 0.9, 0.5})))

	scores, err := s.store.ListScores(ctx)
	s.Require().NoError(err)
	s.Require().Len(scores, 3)
	s.Require().Equal("high", scores[0].WorkerID)
	s.Require().Equal("mid", scores[1].WorkerID)
	s.Require().Equal("low", scores[2].WorkerID)
	s.Require().Equal(int64(1), scores[0].Rounds)
}

func (s *ScoreStoreSuite) TestInvalidAlpha() {
	_, err := scorestore.NewStore(scorestore.Params{
		Path:  filepath.Join(s.T().TempDir(), "scores.db"),
		Alpha: 1.5,
	})
	s.Require().Error(err)
}
