package models

// ErrorKind classifies why a worker's response was rejected by the validity
// gate. The gate returns one WorkerResult per queried worker rather than
// throwing, so a single malformed response can never abort the batch.
type ErrorKind int

const (
	ErrKindNone ErrorKind = iota
	ErrKindParseFailure
	ErrKindBadStatus
	ErrKindZeroEnergy
	ErrKindEnergyMismatch
	ErrKindFingerprintMismatch
	ErrKindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindNone:
		return "none"
	case ErrKindParseFailure:
		return "parse_failure"
	case ErrKindBadStatus:
		return "bad_status"
	case ErrKindZeroEnergy:
		return "zero_energy"
	case ErrKindEnergyMismatch:
		return "energy_mismatch"
	case ErrKindFingerprintMismatch:
		return "fingerprint_mismatch"
	case ErrKindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// WorkerResult is the outcome of running one worker's response through the
// validity gate. Zero values are reported for every field of an invalid
// worker.
type WorkerResult struct {
	WorkerID string

	// Valid is true only when every gate check passed.
	Valid bool

	// ReportedEnergy is the final potential energy as claimed by the
	// returned trajectory.
	ReportedEnergy float64

	// CheckedEnergy is the validator's own recomputation from the raw
	// trajectory data, used to cross-validate ReportedEnergy.
	CheckedEnergy float64

	RMSD float64

	ErrKind ErrorKind
}
