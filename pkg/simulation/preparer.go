package simulation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/foldnet-project/foldnet/pkg/executil"
	"github.com/foldnet-project/foldnet/pkg/gro"
	"github.com/foldnet-project/foldnet/pkg/models"
)

// Preparer acquires and validates a task's MD input files for the sampled
// hyperparameters. Preparation failures are expected and recoverable: some
// force-field/box combinations are physically infeasible for a structure
// and can only be discovered by trying them.
type Preparer interface {
	Prepare(ctx context.Context, task *models.Task) error
}

// GromacsPreparer builds the input bundle by driving the gmx toolchain as
// opaque external commands.
type GromacsPreparer struct {
	// DataDir holds the source <pdbid>.pdb files and receives per-task
	// scratch directories.
	DataDir string

	// Gmx is the toolchain binary, "gmx" unless overridden.
	Gmx string
}

func (p *GromacsPreparer) gmx() string {
	if p.Gmx == "" {
		return "gmx"
	}
	return p.Gmx
}

// Prepare runs the pdb2gmx/editconf/solvate pipeline for the task's
// hyperparameters, loads the resulting coordinate and topology files into
// the task's input bundle, and records the expected structural fingerprint.
func (p *GromacsPreparer) Prepare(ctx context.Context, task *models.Task) error {
	pdbPath := filepath.Join(p.DataDir, task.PDBID+".pdb")
	if _, err := os.Stat(pdbPath); err != nil {
		return errors.Wrapf(err, "simulation: source structure for %s", task.PDBID)
	}

	workDir, err := os.MkdirTemp(p.DataDir, task.PDBID+"-*")
	if err != nil {
		return errors.Wrap(err, "simulation: creating scratch directory")
	}
	defer os.RemoveAll(workDir)

	processed := filepath.Join(workDir, "processed.gro")
	boxed := filepath.Join(workDir, "boxed.gro")
	solvated := filepath.Join(workDir, StructureFileName)
	topology := filepath.Join(workDir, TopologyFileName)

	commands := []string{
		fmt.Sprintf("%s pdb2gmx -f %s -ff %s -water %s -o %s -p %s",
			p.gmx(), pdbPath, task.ForceField, task.WaterModel, processed, topology),
		fmt.Sprintf("%s editconf -f %s -c -bt %s -d %g -o %s",
			p.gmx(), processed, task.BoxShape, task.BoxPadding, boxed),
		fmt.Sprintf("%s solvate -cp %s -cs -p %s -o %s",
			p.gmx(), boxed, topology, solvated),
	}

	outcomes, err := executil.RunAll(ctx, commands)
	if err != nil {
		return errors.Wrapf(err, "simulation: preparing %s with %s/%s",
			task.PDBID, task.ForceField, task.BoxShape)
	}
	for _, outcome := range outcomes {
		log.Debug().
			Str("Command", outcome.Command).
			Dur("Elapsed", outcome.Elapsed).
			Msg("Preparation command complete")
	}

	inputs := map[string][]byte{}
	for name, path := range map[string]string{
		StructureFileName: solvated,
		TopologyFileName:  topology,
	} {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "simulation: reading prepared %s", name)
		}
		inputs[name] = data
	}

	fingerprint, err := gro.FingerprintBytes(inputs[StructureFileName], StructureFileName)
	if err != nil {
		return errors.Wrap(err, "simulation: fingerprinting prepared structure")
	}

	task.MDInputs = inputs
	task.ExpectedFingerprint = fingerprint
	return nil
}

var _ Preparer = (*GromacsPreparer)(nil)
