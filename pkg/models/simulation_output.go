package models

// SimulationOutput is the validator-side view of a worker's returned
// artifacts: the raw file bundle plus the physical trajectories extracted
// from it.
type SimulationOutput struct {
	// Files is the raw returned bundle (name -> contents).
	Files map[string][]byte

	// EnergySeries is the potential energy trajectory, one sample per
	// recorded frame, in file order.
	EnergySeries []float64

	// RMSDSeries is the RMSD trajectory relative to the starting structure.
	RMSDSeries []float64
}

// FinalEnergy returns the last recorded potential energy sample, or 0 when
// no samples were returned. Callers treat an exact zero as the "no data"
// sentinel.
func (o *SimulationOutput) FinalEnergy() float64 {
	if len(o.EnergySeries) == 0 {
		return 0
	}
	return o.EnergySeries[len(o.EnergySeries)-1]
}

// FinalRMSD returns the last recorded RMSD sample, or 0 when no samples
// were returned.
func (o *SimulationOutput) FinalRMSD() float64 {
	if len(o.RMSDSeries) == 0 {
		return 0
	}
	return o.RMSDSeries[len(o.RMSDSeries)-1]
}
