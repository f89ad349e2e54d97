// Package simulation handles the validator's side of the MD toolchain:
// preparing task input bundles via external commands and parsing the
// output bundles workers return.
package simulation

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/foldnet-project/foldnet/pkg/models"
)

// Well-known file names inside the MD input/output bundles.
const (
	StructureFileName = "md.gro"
	TopologyFileName  = "topol.top"
	EnergyFileName    = "energy.xvg"
	RMSDFileName      = "rmsd.xvg"
)

// ParseOutput parses a worker's returned output bundle into the task's
// result representation. The bundle must contain the energy and RMSD
// trajectory tables; anything else it carries is kept verbatim in Files.
func ParseOutput(mdOutput map[string][]byte) (*models.SimulationOutput, error) {
	if len(mdOutput) == 0 {
		return nil, errors.New("simulation: empty output bundle")
	}

	energyData, ok := mdOutput[EnergyFileName]
	if !ok {
		return nil, errors.Errorf("simulation: output bundle is missing %s", EnergyFileName)
	}
	energies, err := parseXVG(energyData)
	if err != nil {
		return nil, errors.Wrapf(err, "simulation: parsing %s", EnergyFileName)
	}

	rmsdData, ok := mdOutput[RMSDFileName]
	if !ok {
		return nil, errors.Errorf("simulation: output bundle is missing %s", RMSDFileName)
	}
	rmsds, err := parseXVG(rmsdData)
	if err != nil {
		return nil, errors.Wrapf(err, "simulation: parsing %s", RMSDFileName)
	}

	return &models.SimulationOutput{
		Files:        mdOutput,
		EnergySeries: energies,
		RMSDSeries:   rmsds,
	}, nil
}

// parseXVG extracts the value column from an xmgrace-style table: comment
// ('#') and directive ('@') lines are skipped, every data line is
// "<time> <value> ...", and we keep the first value column.
func parseXVG(data []byte) ([]float64, error) {
	var values []float64

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "@") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, errors.Errorf("line %d has no value column: %q", lineNo, line)
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d has a non-numeric value", lineNo)
		}
		values = append(values, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}
