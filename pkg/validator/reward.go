package validator

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"

	"github.com/foldnet-project/foldnet/pkg/models"
)

// ComputeRewards converts the gated per-worker measurements into the reward
// vector for the round. Lower potential energy earns a higher reward;
// invalid workers always receive zero. Rewards for the valid workers are a
// softmax over min-max-normalized negated energies, so the vector is
// bounded and sums to 1 whenever at least one worker is valid.
func ComputeRewards(task *models.Task, results []models.WorkerResult) *models.RewardEvent {
	rewards := make([]float64, len(results))

	var validEnergies []float64
	var validSlots []int
	for i, result := range results {
		if result.Valid {
			validEnergies = append(validEnergies, result.ReportedEnergy)
			validSlots = append(validSlots, i)
		}
	}

	if len(validEnergies) > 0 {
		minEnergy := floats.Min(validEnergies)
		maxEnergy := floats.Max(validEnergies)

		scores := make([]float64, len(validEnergies))
		for i, energy := range validEnergies {
			if maxEnergy > minEnergy {
				scores[i] = (maxEnergy - energy) / (maxEnergy - minEnergy)
			}
			scores[i] = math.Exp(scores[i])
		}
		total := floats.Sum(scores)
		for i, slot := range validSlots {
			rewards[slot] = scores[i] / total
		}
	}

	return &models.RewardEvent{
		RoundID:   uuid.NewString(),
		PDBID:     task.PDBID,
		WorkerIDs: lo.Map(results, func(r models.WorkerResult, _ int) string { return r.WorkerID }),
		Rewards:   rewards,
		IsValid:   lo.Map(results, func(r models.WorkerResult, _ int) bool { return r.Valid }),
		ReportedEnergy: lo.Map(results, func(r models.WorkerResult, _ int) float64 {
			return r.ReportedEnergy
		}),
		CheckedEnergy: lo.Map(results, func(r models.WorkerResult, _ int) float64 {
			return r.CheckedEnergy
		}),
		RMSDs:     lo.Map(results, func(r models.WorkerResult, _ int) float64 { return r.RMSD }),
		ErrKinds:  lo.Map(results, func(r models.WorkerResult, _ int) string { return r.ErrKind.String() }),
		CreatedAt: time.Now().UTC(),
	}
}
