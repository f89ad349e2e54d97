package models

import (
	"time"

	"github.com/fatih/structs"
)

// RewardEvent is the aggregated, auditable outcome of scoring all workers
// for one dispatch round. All slices are positioned by worker order and
// have exactly one entry per queried worker. Immutable after construction.
type RewardEvent struct {
	RoundID string `structs:"round_id"`
	PDBID   string `structs:"pdb_id"`

	WorkerIDs []string  `structs:"worker_ids"`
	Rewards   []float64 `structs:"rewards"`

	// Per-worker diagnostics, parallel to WorkerIDs.
	IsValid        []bool    `structs:"is_valid"`
	ReportedEnergy []float64 `structs:"reported_energy"`
	CheckedEnergy  []float64 `structs:"checked_energy"`
	RMSDs          []float64 `structs:"rmsds"`
	ErrKinds       []string  `structs:"error_kinds"`

	CreatedAt time.Time `structs:"created_at"`
}

// RewardFor returns the reward assigned to the given worker.
func (e *RewardEvent) RewardFor(workerID string) (float64, bool) {
	for i, id := range e.WorkerIDs {
		if id == workerID {
			return e.Rewards[i], true
		}
	}
	return 0, false
}

// Flatten exports the event as a flat field-name -> value record suitable
// for structured logging, without loss of the per-worker diagnostics.
func (e *RewardEvent) Flatten() map[string]interface{} {
	s := structs.New(e)
	s.TagName = "structs"
	return s.Map()
}
