package derive

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sancho5oh/alphalock/internal/precision"
)

func dec(t *testing.T, pc *precision.Context, s string) *apd.Decimal {
	t.Helper()
	d, err := pc.Parse(s)
	require.NoError(t, err)
	return d
}

func TestAlphaPredDeterministic(t *testing.T) {
	pc := precision.MustNew(80)
	a1 := dec(t, pc, "0.996216")
	r := dec(t, pc, "0.092046")

	first, err := AlphaPred(pc, a1, r)
	require.NoError(t, err)
	second, err := AlphaPred(pc, a1, r)
	require.NoError(t, err)

	// Identical inputs and identical precision context yield
	// bit-identical results.
	assert.Equal(t, first.Text('g'), second.Text('g'))
	assert.Zero(t, first.Cmp(second))
}

func TestAlphaPredMagnitude(t *testing.T) {
	pc := precision.MustNew(80)
	alphaPred, err := AlphaPred(pc, dec(t, pc, "0.996216"), dec(t, pc, "0.092046"))
	require.NoError(t, err)

	f, err := alphaPred.Float64()
	require.NoError(t, err)
	// 1/alpha_pred sits near 137.
	assert.InDelta(t, 137.04, 1/f, 0.01)
}

func TestAlphaErrIsAbsolute(t *testing.T) {
	pc := precision.MustNew(80)
	pred := dec(t, pc, "0.00729")
	exp := dec(t, pc, "0.00730")

	errAbove, err := AlphaErr(pc, pred, exp)
	require.NoError(t, err)
	errBelow, err := AlphaErr(pc, exp, pred)
	require.NoError(t, err)

	assert.Zero(t, errAbove.Cmp(errBelow))
	assert.Equal(t, 1, errAbove.Sign())
}

func TestGStarSquaresBack(t *testing.T) {
	pc := precision.MustNew(80)
	a1 := dec(t, pc, "0.996216")
	r := dec(t, pc, "0.092046")
	gamma := dec(t, pc, "1")

	gStar, err := GStar(pc, a1, r, gamma)
	require.NoError(t, err)

	squared, err := pc.Mul(gStar, gStar)
	require.NoError(t, err)
	want, err := pc.Mul(a1, r)
	require.NoError(t, err)

	diff, err := pc.Sub(squared, want)
	require.NoError(t, err)
	diff, err = pc.Abs(diff)
	require.NoError(t, err)
	assert.True(t, diff.Cmp(dec(t, pc, "1e-75")) < 0, "g*^2 deviates by %s", diff.Text('g'))
}

func TestGStarNegativeDomain(t *testing.T) {
	pc := precision.MustNew(80)
	_, err := GStar(pc, dec(t, pc, "-1"), dec(t, pc, "0.5"), dec(t, pc, "1"))
	require.Error(t, err)
	assert.True(t, IsDegenerate(err))
}

func TestXiStarDegenerateOnZeroBetaPrimeAlpha(t *testing.T) {
	pc := precision.MustNew(80)
	_, err := XiStar(pc, dec(t, pc, "1e-7"), dec(t, pc, "0.295841"), dec(t, pc, "0"))
	require.Error(t, err)
	assert.True(t, IsDegenerate(err))

	var de *DegenerateError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "xi_star", de.Quantity)
}

func TestDeltaAlphaMaxDegenerateOnZeroDeltaPi(t *testing.T) {
	pc := precision.MustNew(80)
	_, err := DeltaAlphaMax(pc, dec(t, pc, "1e-5"), dec(t, pc, "-0.0088"), dec(t, pc, "0"), dec(t, pc, "1"))
	require.Error(t, err)
	assert.True(t, IsDegenerate(err))
}

func TestEXiDegenerateOnZeroAlpha(t *testing.T) {
	pc := precision.MustNew(80)
	deltaPi := dec(t, pc, "0.295841")

	_, err := EXi(pc, dec(t, pc, "0"), dec(t, pc, "0.00729"), deltaPi)
	assert.True(t, IsDegenerate(err))

	_, err = EXi(pc, dec(t, pc, "0.00729"), dec(t, pc, "0"), deltaPi)
	assert.True(t, IsDegenerate(err))
}

// The boundary-saturation identity: with K = 1, delta_alpha_max collapses
// to alpha_err exactly, so the residual vanishes up to rounding at the
// working precision.
func TestSaturationIdentity(t *testing.T) {
	pc := precision.MustNew(80)
	a1 := dec(t, pc, "0.996216")
	r := dec(t, pc, "0.092046")
	gamma := dec(t, pc, "1")
	k := dec(t, pc, "1")
	deltaPi := dec(t, pc, "0.295841")
	alphaExp := dec(t, pc, "0.0072973525693")

	alphaPred, err := AlphaPred(pc, a1, r)
	require.NoError(t, err)
	alphaErr, err := AlphaErr(pc, alphaPred, alphaExp)
	require.NoError(t, err)
	gStar, err := GStar(pc, a1, r, gamma)
	require.NoError(t, err)
	betaPrimeG, err := BetaPrimeG(pc, a1, r, gamma)
	require.NoError(t, err)
	betaPrimeAlpha, err := BetaPrimeAlpha(pc, gStar, betaPrimeG)
	require.NoError(t, err)
	xiStar, err := XiStar(pc, alphaErr, deltaPi, betaPrimeAlpha)
	require.NoError(t, err)
	deltaAlphaMax, err := DeltaAlphaMax(pc, xiStar, betaPrimeAlpha, deltaPi, k)
	require.NoError(t, err)

	residual, err := SaturationResidual(pc, alphaErr, deltaAlphaMax)
	require.NoError(t, err)
	assert.True(t, residual.Cmp(dec(t, pc, "1e-9")) < 0, "residual = %s", residual.Text('g'))

	// Doubling K breaks the identity: the residual becomes alpha_err
	// itself, far above the saturation tolerance.
	doubled, err := DeltaAlphaMax(pc, xiStar, betaPrimeAlpha, deltaPi, dec(t, pc, "2"))
	require.NoError(t, err)
	residual, err = SaturationResidual(pc, alphaErr, doubled)
	require.NoError(t, err)
	assert.True(t, residual.Cmp(dec(t, pc, "1e-9")) >= 0, "residual = %s", residual.Text('g'))
}

func TestBetaPrimeGNegative(t *testing.T) {
	pc := precision.MustNew(80)
	v, err := BetaPrimeG(pc, dec(t, pc, "0.996216"), dec(t, pc, "0.092046"), dec(t, pc, "1"))
	require.NoError(t, err)
	assert.Equal(t, -1, v.Sign())
}

func TestAlphaPredFloatAgreesWithHighPrecision(t *testing.T) {
	pc := precision.MustNew(80)
	hp, err := AlphaPred(pc, dec(t, pc, "0.996216"), dec(t, pc, "0.092046"))
	require.NoError(t, err)
	hpf, err := hp.Float64()
	require.NoError(t, err)

	dp := AlphaPredFloat(0.996216, 0.092046)
	assert.InDelta(t, hpf, dp, 1e-15)
}
