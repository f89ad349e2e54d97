package models

// Names of the hyperparameter dimensions a caller can pin through config,
// and thereby exclude from the sampler's search space.
const (
	DimForceField = "FF"
	DimWaterModel = "WATER"
	DimBoxShape   = "BOX"
	DimBoxPadding = "BOX_DISTANCE"
)

// Supported box shapes for editconf-style box construction.
var DefaultBoxShapes = []string{"cubic", "dodecahedron", "octahedron"}

// Supported solute-to-box-edge padding distances, in nanometers.
var DefaultBoxPaddings = []float64{0.8, 1.0, 1.2}

// HyperParameters is one combination of simulation configuration drawn from
// the filtered cross product of the supported domains.
type HyperParameters struct {
	ForceField string
	WaterModel string
	BoxShape   string
	BoxPadding float64
}
