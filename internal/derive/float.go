package derive

import "math"

// AlphaPredFloat recomputes alpha_pred in native double precision.
//
// This is the ONLY float64 path through the derivation chain. It exists
// solely for the advisory cross-precision check: an independent rendering
// of the same formula whose disagreement with the arbitrary-precision
// result signals precision-library drift, not a domain error. Never feed
// its output back into a high-precision derivation.
func AlphaPredFloat(a1OverA3, r float64) float64 {
	return a1OverA3 * r / (4 * math.Pi)
}
