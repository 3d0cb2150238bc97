package ledger

import (
	"fmt"
)

// Precision is an advisory classification of a placement's GPS accuracy.
type Precision string

const (
	PrecisionUnknown          Precision = "unknown"
	PrecisionAcceptable       Precision = "acceptable"
	PrecisionDegraded         Precision = "degraded"
	PrecisionSeverelyDegraded Precision = "severely_degraded"
)

const (
	AcceptablePrecisionM = 50.0
	DegradedPrecisionM   = 100.0
	// MaxStoredPrecisionM is the largest radius the precision_m column holds.
	MaxStoredPrecisionM = 999999.99
)

// ClassifyPrecision grades a GPS accuracy radius in meters and returns the
// warning to show the owner, if any. It never rejects a placement.
func ClassifyPrecision(precisionM *float64) (Precision, string) {
	if precisionM == nil {
		return PrecisionUnknown, ""
	}
	p := *precisionM
	switch {
	case p <= AcceptablePrecisionM:
		return PrecisionAcceptable, ""
	case p <= DegradedPrecisionM:
		return PrecisionDegraded, fmt.Sprintf("GPS precision %sm. Under 50m recommended.", formatMeters(p))
	default:
		return PrecisionSeverelyDegraded, fmt.Sprintf("GPS precision low (%sm). Re-register recommended.", formatMeters(p))
	}
}

func formatMeters(m float64) string {
	return fmt.Sprintf("%.0f", m)
}

// storedPrecision caps the radius to what the column can hold. The advisory
// is always computed from the reported value.
func storedPrecision(precisionM *float64) *float64 {
	if precisionM == nil || *precisionM <= MaxStoredPrecisionM {
		return precisionM
	}
	capped := MaxStoredPrecisionM
	return &capped
}
