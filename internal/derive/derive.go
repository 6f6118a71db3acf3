// Package derive holds the derivation functions of the fixed-point
// verification chain.
//
// Every function is pure: deterministic given identical inputs and an
// identical precision context, with no side effects. All arithmetic goes
// through the arbitrary-precision context - never native floats - so no
// precision is lost across the dependency chain. The one deliberate
// exception is AlphaPredFloat (float.go), the clearly-labeled
// double-precision path used only by the advisory cross-check.
package derive

import (
	"github.com/cockroachdb/apd/v3"

	"github.com/sancho5oh/alphalock/internal/precision"
)

// AlphaPred computes the predicted fine-structure constant from the
// geometric fixed point:
//
//	alpha_pred = (A1/A3 * r) / (4*pi)
func AlphaPred(pc *precision.Context, a1OverA3, r *apd.Decimal) (*apd.Decimal, error) {
	num, err := pc.Mul(a1OverA3, r)
	if err != nil {
		return nil, err
	}
	fourPi, err := pc.Mul(apd.New(4, 0), pc.Pi())
	if err != nil {
		return nil, err
	}
	return pc.Quo(num, fourPi)
}

// AlphaErr computes the absolute deviation of the prediction from the
// experimental reference value:
//
//	alpha_err = |alpha_pred - alpha_exp|
func AlphaErr(pc *precision.Context, alphaPred, alphaExp *apd.Decimal) (*apd.Decimal, error) {
	diff, err := pc.Sub(alphaPred, alphaExp)
	if err != nil {
		return nil, err
	}
	return pc.Abs(diff)
}

// GStar computes the fixed-point coupling:
//
//	g* = sqrt(A1/A3 * r^gamma)
func GStar(pc *precision.Context, a1OverA3, r, gamma *apd.Decimal) (*apd.Decimal, error) {
	rPow, err := pc.Pow(r, gamma)
	if err != nil {
		return nil, &DegenerateError{Quantity: "g_star", Reason: "r^gamma is undefined: " + err.Error()}
	}
	arg, err := pc.Mul(a1OverA3, rPow)
	if err != nil {
		return nil, err
	}
	if arg.Sign() < 0 {
		return nil, &DegenerateError{Quantity: "g_star", Reason: "square root of negative A1/A3 * r^gamma"}
	}
	return pc.Sqrt(arg)
}

// BetaPrimeG computes the flow derivative at the fixed point:
//
//	beta'(g*) = -2 * A1/A3 * r^gamma
func BetaPrimeG(pc *precision.Context, a1OverA3, r, gamma *apd.Decimal) (*apd.Decimal, error) {
	rPow, err := pc.Pow(r, gamma)
	if err != nil {
		return nil, &DegenerateError{Quantity: "beta_prime_g", Reason: "r^gamma is undefined: " + err.Error()}
	}
	prod, err := pc.Mul(a1OverA3, rPow)
	if err != nil {
		return nil, err
	}
	return pc.Mul(apd.New(-2, 0), prod)
}

// BetaPrimeAlpha computes the flow derivative expressed in alpha:
//
//	beta'_alpha(g*) = (g* / (2*pi)) * beta'(g*)
func BetaPrimeAlpha(pc *precision.Context, gStar, betaPrimeG *apd.Decimal) (*apd.Decimal, error) {
	twoPi, err := pc.Mul(apd.New(2, 0), pc.Pi())
	if err != nil {
		return nil, err
	}
	ratio, err := pc.Quo(gStar, twoPi)
	if err != nil {
		return nil, err
	}
	return pc.Mul(ratio, betaPrimeG)
}

// XiStar computes the noise amplitude at boundary saturation:
//
//	xi* = |alpha_err * Delta_pi / beta'_alpha(g*)|
func XiStar(pc *precision.Context, alphaErr, deltaPi, betaPrimeAlpha *apd.Decimal) (*apd.Decimal, error) {
	if betaPrimeAlpha.IsZero() {
		return nil, &DegenerateError{Quantity: "xi_star", Reason: "beta'_alpha(g*) is zero"}
	}
	num, err := pc.Mul(alphaErr, deltaPi)
	if err != nil {
		return nil, err
	}
	q, err := pc.Quo(num, betaPrimeAlpha)
	if err != nil {
		return nil, err
	}
	return pc.Abs(q)
}

// DeltaAlphaMax computes the maximum allowed drift:
//
//	|delta_alpha|_max = K * |xi* * beta'_alpha(g*)| / Delta_pi
func DeltaAlphaMax(pc *precision.Context, xiStar, betaPrimeAlpha, deltaPi, k *apd.Decimal) (*apd.Decimal, error) {
	if deltaPi.IsZero() {
		return nil, &DegenerateError{Quantity: "delta_alpha_max", Reason: "Delta_pi is zero"}
	}
	prod, err := pc.Mul(xiStar, betaPrimeAlpha)
	if err != nil {
		return nil, err
	}
	abs, err := pc.Abs(prod)
	if err != nil {
		return nil, err
	}
	scaled, err := pc.Mul(k, abs)
	if err != nil {
		return nil, err
	}
	return pc.Quo(scaled, deltaPi)
}

// SaturationResidual computes the boundary-saturation residual:
//
//	residual = |alpha_err - |delta_alpha|_max|
//
// At exact saturation the residual vanishes by construction.
func SaturationResidual(pc *precision.Context, alphaErr, deltaAlphaMax *apd.Decimal) (*apd.Decimal, error) {
	diff, err := pc.Sub(alphaErr, deltaAlphaMax)
	if err != nil {
		return nil, err
	}
	return pc.Abs(diff)
}

// EXi computes the xi-energy stability metric:
//
//	E_xi = (1/alpha_exp - 1/alpha_pred) * Delta_pi
func EXi(pc *precision.Context, alphaExp, alphaPred, deltaPi *apd.Decimal) (*apd.Decimal, error) {
	if alphaExp.IsZero() {
		return nil, &DegenerateError{Quantity: "E_xi", Reason: "alpha_exp is zero"}
	}
	if alphaPred.IsZero() {
		return nil, &DegenerateError{Quantity: "E_xi", Reason: "alpha_pred is zero"}
	}
	one := apd.New(1, 0)
	invExp, err := pc.Quo(one, alphaExp)
	if err != nil {
		return nil, err
	}
	invPred, err := pc.Quo(one, alphaPred)
	if err != nil {
		return nil, err
	}
	diff, err := pc.Sub(invExp, invPred)
	if err != nil {
		return nil, err
	}
	return pc.Mul(diff, deltaPi)
}
