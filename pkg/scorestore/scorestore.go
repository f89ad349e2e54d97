// Package scorestore persists per-worker reputation scores in SQLite and
// folds each round's reward vector into them.
package scorestore

import (
	"context"
	"database/sql"
	"time"

	sync "github.com/bacalhau-project/golang-mutex-tracer"
	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/foldnet-project/foldnet/pkg/models"
)

// ErrWorkerNotFound is returned when a worker has no recorded score yet.
var ErrWorkerNotFound = errors.New("scorestore: worker not found")

const schema = `
create table if not exists worker_scores (
	worker_id  text primary key,
	score      real not null,
	rounds     integer not null default 0,
	updated_at timestamp not null
);
`

const defaultAlpha = 0.1

// WorkerScore is one worker's moving reputation score.
type WorkerScore struct {
	WorkerID  string
	Score     float64
	Rounds    int64
	UpdatedAt time.Time
}

// Params configures a Store. Alpha is the EMA smoothing factor in (0, 1];
// zero selects the default. Clock defaults to the wall clock.
type Params struct {
	Path  string
	Alpha float64
	Clock clock.Clock
}

type Store struct {
	mtx   sync.RWMutex
	db    *sql.DB
	clock clock.Clock
	alpha float64
}

func NewStore(params Params) (*Store, error) {
	if params.Alpha < 0 || params.Alpha > 1 {
		return nil, errors.Errorf("scorestore: alpha must be in (0, 1], got %f", params.Alpha)
	}
	if params.Alpha == 0 {
		params.Alpha = defaultAlpha
	}
	if params.Clock == nil {
		params.Clock = clock.New()
	}

	db, err := sql.Open("sqlite", params.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "scorestore: opening %s", params.Path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "scorestore: creating schema")
	}

	store := &Store{db: db, clock: params.Clock, alpha: params.Alpha}
	store.mtx.EnableTracerWithOpts(sync.Opts{
		Threshold: 10 * time.Millisecond,
		Id:        "scorestore.mtx",
	})
	return store, nil
}

// UpdateScores folds one round's reward vector into the moving scores with
// an exponential moving average: new = (1-alpha)*old + alpha*reward. Every
// queried worker is updated, valid or not, so non-performers decay. Errors
// for individual workers are collected rather than aborting the batch.
func (s *Store) UpdateScores(ctx context.Context, event *models.RewardEvent) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "scorestore: beginning transaction")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := s.clock.Now().UTC()

	var merr *multierror.Error
	for i, workerID := range event.WorkerIDs {
		if err := s.updateOne(ctx, tx, workerID, event.Rewards[i], now); err != nil {
			merr = multierror.Append(merr, errors.Wrapf(err, "worker %s", workerID))
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "scorestore: committing score update")
	}
	log.Ctx(ctx).Debug().
		Str("RoundID", event.RoundID).
		Int("Workers", len(event.WorkerIDs)).
		Msg("Updated worker scores")
	return nil
}

func (s *Store) updateOne(ctx context.Context, tx *sql.Tx, workerID string, reward float64, now time.Time) error {
	var score float64
	err := tx.QueryRowContext(ctx,
		`select score from worker_scores where worker_id = ?`, workerID).Scan(&score)
	switch {
	case err == sql.ErrNoRows:
		// A worker's first round seeds its score with the raw reward.
		score = reward
	case err != nil:
		return err
	default:
		score = (1-s.alpha)*score + s.alpha*reward
	}

	_, err = tx.ExecContext(ctx, `
		insert into worker_scores (worker_id, score, rounds, updated_at)
		values (?, ?, 1, ?)
		on conflict (worker_id) do update set
			score = excluded.score,
			rounds = worker_scores.rounds + 1,
			updated_at = excluded.updated_at`,
		workerID, score, now)
	return err
}

// GetScore returns the current score for a worker.
func (s *Store) GetScore(ctx context.Context, workerID string) (float64, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var score float64
	err := s.db.QueryRowContext(ctx,
		`select score from worker_scores where worker_id = ?`, workerID).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, ErrWorkerNotFound
	}
	if err != nil {
		return 0, err
	}
	return score, nil
}

// ListScores returns every recorded score, highest first.
func (s *Store) ListScores(ctx context.Context) ([]WorkerScore, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`select worker_id, score, rounds, updated_at from worker_scores order by score desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []WorkerScore
	for rows.Next() {
		var ws WorkerScore
		if err := rows.Scan(&ws.WorkerID, &ws.Score, &ws.Rounds, &ws.UpdatedAt); err != nil {
			return nil, err
		}
		scores = append(scores, ws)
	}
	return scores, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
