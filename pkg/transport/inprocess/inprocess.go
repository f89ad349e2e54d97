// Package inprocess is an in-memory Dispatcher used by tests and the
// devstack wiring. Worker behaviour is injected as plain functions, which
// lets the validator pipeline run end to end without a network.
package inprocess

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/foldnet-project/foldnet/pkg/models"
	"github.com/foldnet-project/foldnet/pkg/transport"
)

// WorkerFunc simulates one worker handling a request.
type WorkerFunc func(ctx context.Context, workerID string, request transport.Request) models.WorkerResponse

type InProcessDispatcher struct {
	workers map[string]WorkerFunc
}

func NewInProcessDispatcher(workers map[string]WorkerFunc) *InProcessDispatcher {
	return &InProcessDispatcher{workers: workers}
}

// Dispatch fans the request out to every worker in its own goroutine and
// waits for all of them or the timeout. A worker that misses the deadline,
// or that isn't registered at all, yields a synthesized failure response in
// its slot.
func (d *InProcessDispatcher) Dispatch(
	ctx context.Context,
	request transport.Request,
	workers []string,
	timeout time.Duration,
) []models.WorkerResponse {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	responses := make([]models.WorkerResponse, len(workers))

	var wg sync.WaitGroup
	for i, workerID := range workers {
		wg.Add(1)
		go func(slot int, workerID string) {
			defer wg.Done()
			responses[slot] = d.dispatchOne(ctx, request, workerID)
		}(i, workerID)
	}
	wg.Wait()

	return responses
}

func (d *InProcessDispatcher) dispatchOne(
	ctx context.Context,
	request transport.Request,
	workerID string,
) models.WorkerResponse {
	fn, ok := d.workers[workerID]
	if !ok {
		return models.WorkerResponse{
			WorkerID:      workerID,
			StatusCode:    http.StatusNotFound,
			StatusMessage: "unknown worker",
		}
	}

	start := time.Now()
	done := make(chan models.WorkerResponse, 1)
	go func() {
		done <- fn(ctx, workerID, request)
	}()

	select {
	case response := <-done:
		response.WorkerID = workerID
		if response.ProcessTime == 0 {
			response.ProcessTime = time.Since(start)
		}
		return response
	case <-ctx.Done():
		log.Warn().Str("WorkerID", workerID).Msg("Worker missed the dispatch deadline")
		return models.WorkerResponse{
			WorkerID:      workerID,
			StatusCode:    http.StatusRequestTimeout,
			StatusMessage: "timed out waiting for response",
			ProcessTime:   time.Since(start),
		}
	}
}

var _ transport.Dispatcher = (*InProcessDispatcher)(nil)
