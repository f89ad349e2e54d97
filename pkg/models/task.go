package models

import (
	"github.com/pkg/errors"
)

// Task is one work item: the structure to fold, the simulation
// configuration to fold it with, the input bundle shipped to workers, and,
// once result processing has run, the parsed output artifacts. A Task is
// created per sampling iteration by the runner, mutated only by the runner
// and by result processing, and discarded once its round event is logged.
type Task struct {
	// PDBID identifies the molecular structure, e.g. "1ABC".
	PDBID string

	HyperParameters

	// MDInputs is the file bundle (name -> contents) shipped to each
	// queried worker.
	MDInputs map[string][]byte

	// ExpectedFingerprint is the structural fingerprint of the prepared
	// input coordinate file. Returned artifacts must reproduce it.
	ExpectedFingerprint string

	// Output holds the validator-side parse of a worker's returned bundle.
	// Only populated during result processing.
	Output *SimulationOutput
}

func NewTask(pdbID string, hp HyperParameters) *Task {
	return &Task{
		PDBID:           pdbID,
		HyperParameters: hp,
		MDInputs:        map[string][]byte{},
	}
}

// Validate checks the Task invariants: the force field and water model must
// be a compatible pair and the box padding must be non-negative.
func (t *Task) Validate(table CompatibilityTable) error {
	if t.PDBID == "" {
		return errors.New("task is missing a structure id")
	}
	if !table.Compatible(t.ForceField, t.WaterModel) {
		return errors.Errorf(
			"force field %q is not compatible with water model %q", t.ForceField, t.WaterModel)
	}
	if t.BoxPadding < 0 {
		return errors.Errorf("box padding must be non-negative, got %f", t.BoxPadding)
	}
	return nil
}
