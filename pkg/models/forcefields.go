package models

import "sort"

// CompatibilityTable maps a force field name to the water model it must be
// paired with. The table is never mutated after construction, so a single
// instance is safe for concurrent readers; components that need one take
// it as a constructor argument rather than reaching for a global.
type CompatibilityTable map[string]string

// DefaultCompatibilityTable returns a fresh copy of the recommended force
// field / water model pairs, retrieved from gromacs-2024.1/share/top.
func DefaultCompatibilityTable() CompatibilityTable {
	return CompatibilityTable{
		"amber03":        "tip3p", // AMBER force fields
		"amber94":        "tip3p",
		"amber96":        "tip3p",
		"amber99":        "tip3p",
		"amber99sb-ildn": "tip3p",
		"amber99sb":      "tip3p",
		"amberGS":        "tip3p",
		"charmm27":       "tip3p", // CHARMM all-atom force field
		"gromos43a1":     "spc", // GROMOS force fields
		"gromos43a2":     "spc",
		"gromos45a3":     "spc",
		"gromos53a5":     "spc",
		"gromos53a6":     "spc",
		"gromos54a7":     "spc",
		"oplsaa":         "tip4p", // OPLS all-atom force field
	}
}

// WaterModelFor returns the water model required by the given force field.
func (t CompatibilityTable) WaterModelFor(forceField string) (string, bool) {
	water, ok := t[forceField]
	return water, ok
}

// Compatible reports whether the force field / water model pair matches the
// table exactly. A mismatch indicates either sampler misuse or a worker
// asserting a configuration it was never assigned.
func (t CompatibilityTable) Compatible(forceField, waterModel string) bool {
	water, ok := t[forceField]
	return ok && water == waterModel
}

// ForceFields returns the supported force field names in sorted order so
// that iteration over the table is deterministic.
func (t CompatibilityTable) ForceFields() []string {
	fields := make([]string, 0, len(t))
	for ff := range t {
		fields = append(fields, ff)
	}
	sort.Strings(fields)
	return fields
}
