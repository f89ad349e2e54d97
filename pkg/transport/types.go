// Package transport defines the boundary between the validator core and
// whatever peer-to-peer machinery carries work to remote workers. The core
// never talks to the network directly; it hands a Request to a Dispatcher
// and gets back exactly one WorkerResponse per queried worker.
package transport

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/foldnet-project/foldnet/pkg/models"
)

// Request carries one round's work assignment to the queried workers.
type Request struct {
	PDBID    string
	MDInputs map[string][]byte
}

// Dispatcher issues the request to every worker concurrently and waits for
// all responses or the timeout, whichever comes first. It always returns
// len(workers) responses in worker order; workers that miss the deadline
// are represented by a synthesized failure response, never a missing slot.
type Dispatcher interface {
	Dispatch(ctx context.Context, request Request, workers []string, timeout time.Duration) []models.WorkerResponse
}

// ResponseInfo gathers the per-worker transport diagnostics for the round
// event record.
func ResponseInfo(responses []models.WorkerResponse) map[string]interface{} {
	return map[string]interface{}{
		"response_times": lo.Map(responses, func(r models.WorkerResponse, _ int) float64 {
			return r.ProcessTime.Seconds()
		}),
		"response_status_messages": lo.Map(responses, func(r models.WorkerResponse, _ int) string {
			return r.StatusMessage
		}),
		"response_status_codes": lo.Map(responses, func(r models.WorkerResponse, _ int) int {
			return r.StatusCode
		}),
		"response_returned_files": lo.Map(responses, func(r models.WorkerResponse, _ int) []string {
			return r.ReturnedFiles()
		}),
	}
}
