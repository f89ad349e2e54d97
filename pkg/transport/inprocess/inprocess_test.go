package inprocess_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foldnet-project/foldnet/pkg/logger"
	"github.com/foldnet-project/foldnet/pkg/models"
	"github.com/foldnet-project/foldnet/pkg/transport"
	"github.com/foldnet-project/foldnet/pkg/transport/inprocess"
)

func okWorker(_ context.Context, _ string, _ transport.Request) models.WorkerResponse {
	return models.WorkerResponse{
		StatusCode:    http.StatusOK,
		StatusMessage: "OK",
		MDOutput:      map[string][]byte{"md.gro": []byte("data")},
	}
}

func slowWorker(ctx context.Context, _ string, _ transport.Request) models.WorkerResponse {
	select {
	case <-time.After(10 * time.Second):
	case <-ctx.Done():
	}
	return models.WorkerResponse{StatusCode: http.StatusOK}
}

func TestDispatchPreservesWorkerOrder(t *testing.T) {
	logger.ConfigureTestLogging(t)
	dispatcher := inprocess.NewInProcessDispatcher(map[string]inprocess.WorkerFunc{
		"workerA": okWorker,
		"workerB": okWorker,
	})

	responses := dispatcher.Dispatch(
		context.Background(),
		transport.Request{PDBID: "1ABC"},
		[]string{"workerB", "workerA"},
		5*time.Second,
	)

	require.Len(t, responses, 2)
	require.Equal(t, "workerB", responses[0].WorkerID)
	require.Equal(t, "workerA", responses[1].WorkerID)
	require.Equal(t, http.StatusOK, responses[0].StatusCode)
}

func TestDispatchTimeoutSynthesizesFailure(t *testing.T) {
	logger.ConfigureTestLogging(t)
	dispatcher := inprocess.NewInProcessDispatcher(map[string]inprocess.WorkerFunc{
		"fast": okWorker,
		"slow": slowWorker,
	})

	responses := dispatcher.Dispatch(
		context.Background(),
		transport.Request{PDBID: "1ABC"},
		[]string{"fast", "slow"},
		100*time.Millisecond,
	)

	require.Len(t, responses, 2)
	require.Equal(t, http.StatusOK, responses[0].StatusCode)
	require.Equal(t, http.StatusRequestTimeout, responses[1].StatusCode)
	require.Equal(t, "slow", responses[1].WorkerID)
}

func TestDispatchUnknownWorker(t *testing.T) {
	logger.ConfigureTestLogging(t)
	dispatcher := inprocess.NewInProcessDispatcher(nil)

	responses := dispatcher.Dispatch(
		context.Background(),
		transport.Request{PDBID: "1ABC"},
		[]string{"ghost"},
		time.Second,
	)

	require.Len(t, responses, 1)
	require.Equal(t, http.StatusNotFound, responses[0].StatusCode)
}

func TestResponseInfo(t *testing.T) {
	logger.ConfigureTestLogging(t)
	responses := []models.WorkerResponse{
		{
			WorkerID:      "workerA",
			StatusCode:    http.StatusOK,
			StatusMessage: "OK",
			ProcessTime:   1500 * time.Millisecond,
			MDOutput:      map[string][]byte{"md.gro": nil, "energy.xvg": nil},
		},
		{
			WorkerID:      "workerB",
			StatusCode:    http.StatusInternalServerError,
			StatusMessage: "boom",
		},
	}

	info := transport.ResponseInfo(responses)
	require.Equal(t, []float64{1.5, 0}, info["response_times"])
	require.Equal(t, []int{200, 500}, info["response_status_codes"])
	require.Equal(t, []string{"OK", "boom"}, info["response_status_messages"])
	require.Equal(t, [][]string{{"energy.xvg", "md.gro"}, {}}, info["response_returned_files"])
}
