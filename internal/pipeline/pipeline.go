// Package pipeline sequences the verification steps of the fixed-point
// derivation and aggregates the binary run verdict.
//
// Execution is strictly sequential: each step consumes arithmetic results
// of earlier steps, so no two steps may run concurrently without violating
// the dependency order. The first gating failure halts the pipeline; the
// remaining steps are recorded as SKIPPED and the run reports FAILED with
// the offending step and both compared values.
package pipeline

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/cockroachdb/apd/v3"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/sancho5oh/alphalock/internal/derive"
	"github.com/sancho5oh/alphalock/internal/locks"
	"github.com/sancho5oh/alphalock/internal/precision"
)

// Runner executes the verification pipeline against a locked-parameter
// document. A Runner is immutable after New and may be reused across
// documents; every computation is pure, so there are no retries - a
// failed run would fail identically if repeated.
type Runner struct {
	pc     *precision.Context
	tokens RunTokenGenerator
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTokenGenerator overrides the run-token generator (for testing).
func WithTokenGenerator(g RunTokenGenerator) Option {
	return func(r *Runner) { r.tokens = g }
}

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a Runner bound to a precision context.
func New(pc *precision.Context, opts ...Option) *Runner {
	r := &Runner{
		pc:     pc,
		tokens: UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Locked-parameter key paths the pipeline reads.
var (
	pathA1OverA3       = []string{"geometric_parameters", "A1_over_A3"}
	pathR              = []string{"geometric_parameters", "r"}
	pathGamma          = []string{"geometric_parameters", "gamma"}
	pathK              = []string{"geometric_parameters", "K"}
	pathDeltaPi        = []string{"collapse_gap", "Delta_pi"}
	pathAlphaExp       = []string{"derived_quantities", "alpha_exp_CODATA2018"}
	pathAlphaPred      = []string{"derived_quantities", "alpha_pred"}
	pathAlphaErr       = []string{"derived_quantities", "alpha_err"}
	pathBetaPrimeAlpha = []string{"stochastic_parameters", "beta_prime_alpha"}
	pathXiStar         = []string{"stochastic_parameters", "xi_star"}
)

// inputs holds every locked value the pipeline consumes, resolved up
// front so a missing key path aborts before any derivation step executes.
type inputs struct {
	a1OverA3 *apd.Decimal
	r        *apd.Decimal
	gamma    *apd.Decimal
	k        *apd.Decimal
	deltaPi  *apd.Decimal
	alphaExp *apd.Decimal

	lockedAlphaPred      *apd.Decimal
	lockedAlphaErr       *apd.Decimal
	lockedBetaPrimeAlpha *apd.Decimal
	lockedXiStar         *apd.Decimal
}

func readInputs(pc *precision.Context, doc *locks.Document) (*inputs, error) {
	in := &inputs{}
	for _, want := range []struct {
		dst  **apd.Decimal
		path []string
	}{
		{&in.a1OverA3, pathA1OverA3},
		{&in.r, pathR},
		{&in.gamma, pathGamma},
		{&in.k, pathK},
		{&in.deltaPi, pathDeltaPi},
		{&in.alphaExp, pathAlphaExp},
		{&in.lockedAlphaPred, pathAlphaPred},
		{&in.lockedAlphaErr, pathAlphaErr},
		{&in.lockedBetaPrimeAlpha, pathBetaPrimeAlpha},
		{&in.lockedXiStar, pathXiStar},
	} {
		v, err := doc.Value(pc, want.path...)
		if err != nil {
			return nil, err
		}
		*want.dst = v
	}
	return in, nil
}

// Run executes steps 1-7 in fixed dependency order against doc and
// returns the aggregate verdict.
//
// The error return is reserved for fatal preconditions: a missing
// parameter path, a degenerate denominator, an arithmetic fault. A
// tolerance breach is not an error - it is a FAILED verdict with the
// offending step identified.
func (r *Runner) Run(doc *locks.Document) (*Verdict, error) {
	in, err := readInputs(r.pc, doc)
	if err != nil {
		return nil, err
	}

	pc := r.pc
	tolAlpha := pc.MustParse(TolAlpha)
	tolXi := pc.MustParse(TolXi)
	tolSat := pc.MustParse(TolSaturation)
	threshold := pc.MustParse(StabilityThreshold)

	v := &Verdict{
		RunToken:        r.tokens.Generate(),
		DocumentVersion: doc.Metadata().Version,
		PrecisionDigits: pc.Digits(),
		Passed:          true,
	}
	r.logger.Debug("pipeline starting",
		"run", v.RunToken,
		"document_version", v.DocumentVersion,
		"digits", v.PrecisionDigits)

	// Step 1: alpha_pred vs locked alpha_pred.
	alphaPred, err := derive.AlphaPred(pc, in.a1OverA3, in.r)
	if err != nil {
		return nil, err
	}
	res, err := r.compare(StepAlphaPred, alphaPred, in.lockedAlphaPred, tolAlpha)
	if err != nil {
		return nil, err
	}
	if pf, ferr := alphaPred.Float64(); ferr == nil && pf != 0 {
		res.Detail = map[string]string{"inverse": fmt.Sprintf("%.4f", 1/pf)}
	}
	if r.record(v, res) {
		return v, nil
	}

	// Step 2: alpha_err vs locked alpha_err.
	alphaErr, err := derive.AlphaErr(pc, alphaPred, in.alphaExp)
	if err != nil {
		return nil, err
	}
	res, err = r.compare(StepAlphaErr, alphaErr, in.lockedAlphaErr, tolAlpha)
	if err != nil {
		return nil, err
	}
	if ef, ferr := alphaErr.Float64(); ferr == nil {
		if xf, xerr := in.alphaExp.Float64(); xerr == nil && xf != 0 {
			res.Detail = map[string]string{"relative_ppm": fmt.Sprintf("%.1f", ef/xf*1e6)}
		}
	}
	if r.record(v, res) {
		return v, nil
	}

	// Step 3: beta'_alpha(g*) vs locked value. The intermediates g* and
	// beta'(g*) are not independently gated; they are surfaced in the
	// step detail so a mismatch is still diagnosable.
	gStar, err := derive.GStar(pc, in.a1OverA3, in.r, in.gamma)
	if err != nil {
		return nil, err
	}
	betaPrimeG, err := derive.BetaPrimeG(pc, in.a1OverA3, in.r, in.gamma)
	if err != nil {
		return nil, err
	}
	betaPrimeAlpha, err := derive.BetaPrimeAlpha(pc, gStar, betaPrimeG)
	if err != nil {
		return nil, err
	}
	res, err = r.compare(StepBetaPrimeAlpha, betaPrimeAlpha, in.lockedBetaPrimeAlpha, tolAlpha)
	if err != nil {
		return nil, err
	}
	res.Detail = map[string]string{
		"g_star":       fmtDecimal(gStar),
		"beta_prime_g": fmtDecimal(betaPrimeG),
	}
	if r.record(v, res) {
		return v, nil
	}

	// Step 4: xi* vs locked xi*.
	xiStar, err := derive.XiStar(pc, alphaErr, in.deltaPi, betaPrimeAlpha)
	if err != nil {
		return nil, err
	}
	res, err = r.compare(StepXiStar, xiStar, in.lockedXiStar, tolXi)
	if err != nil {
		return nil, err
	}
	if r.record(v, res) {
		return v, nil
	}

	// Step 5: boundary saturation. An equality-by-construction check of
	// the derivation's own self-consistency, not a comparison against a
	// locked field.
	deltaAlphaMax, err := derive.DeltaAlphaMax(pc, xiStar, betaPrimeAlpha, in.deltaPi, in.k)
	if err != nil {
		return nil, err
	}
	residual, err := derive.SaturationResidual(pc, alphaErr, deltaAlphaMax)
	if err != nil {
		return nil, err
	}
	res = StepResult{
		Name:      StepSaturation,
		Status:    StatusFailed,
		Computed:  fmtDecimal(deltaAlphaMax),
		Reference: fmtDecimal(alphaErr),
		Diff:      fmtDecimal(residual),
		Tolerance: TolSaturation,
	}
	if residual.Cmp(tolSat) < 0 {
		res.Status = StatusPassed
	}
	if r.record(v, res) {
		return v, nil
	}

	// Step 6: stability. E_xi must sit strictly below the fixed
	// threshold.
	eXi, err := derive.EXi(pc, in.alphaExp, alphaPred, in.deltaPi)
	if err != nil {
		return nil, err
	}
	res = StepResult{
		Name:      StepStability,
		Status:    StatusFailed,
		Computed:  fmtDecimal(eXi),
		Reference: StabilityThreshold,
	}
	if eXi.Cmp(threshold) < 0 {
		res.Status = StatusPassed
	}
	if ef, ferr := eXi.Float64(); ferr == nil {
		if tf, terr := threshold.Float64(); terr == nil && tf != 0 {
			res.Detail = map[string]string{"safety_margin_pct": fmt.Sprintf("%.1f", 100*(1-ef/tf))}
		}
	}
	if r.record(v, res) {
		return v, nil
	}

	// Step 7: advisory cross-precision check. Never gates the verdict.
	v.Steps = append(v.Steps, r.crossCheck(v, in, alphaPred))

	r.logger.Debug("pipeline finished", "run", v.RunToken, "passed", v.Passed)
	return v, nil
}

// record appends a gating step result to the verdict. If the step failed
// it marks every later step SKIPPED and reports true, telling the caller
// to halt.
func (r *Runner) record(v *Verdict, res StepResult) bool {
	v.Steps = append(v.Steps, res)
	if res.Status == StatusPassed {
		r.logger.Debug("step passed", "step", res.Name, "diff", res.Diff)
		return false
	}

	r.logger.Debug("step failed",
		"step", res.Name,
		"computed", res.Computed,
		"reference", res.Reference,
		"diff", res.Diff)
	v.Passed = false
	v.FailedStep = res.Name
	for _, name := range stepsAfter(res.Name) {
		v.Steps = append(v.Steps, StepResult{
			Name:     name,
			Status:   StatusSkipped,
			Advisory: name == StepCrossCheck,
		})
	}
	return true
}

// stepOrder is the fixed dependency order of all steps.
var stepOrder = []string{
	StepAlphaPred,
	StepAlphaErr,
	StepBetaPrimeAlpha,
	StepXiStar,
	StepSaturation,
	StepStability,
	StepCrossCheck,
}

func stepsAfter(name string) []string {
	for i, n := range stepOrder {
		if n == name {
			return stepOrder[i+1:]
		}
	}
	return nil
}

// compare derives the PASS/FAIL outcome of one tolerance-gated
// comparison. Equality at exactly the tolerance boundary is a FAIL:
// passing requires the observed difference to be strictly below the
// bound.
func (r *Runner) compare(name string, computed, locked, tol *apd.Decimal) (StepResult, error) {
	diff, err := r.pc.Sub(computed, locked)
	if err != nil {
		return StepResult{}, err
	}
	diff, err = r.pc.Abs(diff)
	if err != nil {
		return StepResult{}, err
	}

	res := StepResult{
		Name:      name,
		Status:    StatusFailed,
		Computed:  fmtDecimal(computed),
		Reference: fmtDecimal(locked),
		Diff:      fmtDecimal(diff),
		Tolerance: tol.String(),
	}
	if diff.Cmp(tol) < 0 {
		res.Status = StatusPassed
	}
	return res, nil
}

// crossCheck recomputes alpha_pred in native double precision from the
// same raw inputs and compares it to the high-precision result. A breach
// of the epsilon bound signals precision-library drift, not a domain
// error, so the step reports WARN and annotates the verdict instead of
// failing it.
func (r *Runner) crossCheck(v *Verdict, in *inputs, alphaPred *apd.Decimal) StepResult {
	hp, hpErr := alphaPred.Float64()
	a1f, a1Err := in.a1OverA3.Float64()
	rf, rErr := in.r.Float64()

	res := StepResult{
		Name:      StepCrossCheck,
		Advisory:  true,
		Tolerance: fmt.Sprintf("%.0e", CrossCheckEpsilon),
	}
	if hpErr != nil || a1Err != nil || rErr != nil {
		res.Status = StatusWarned
		v.Warnings = append(v.Warnings, "cross-precision check: inputs not representable in float64")
		return res
	}

	dp := derive.AlphaPredFloat(a1f, rf)
	res.Computed = fmt.Sprintf("%.15f", dp)
	res.Reference = fmt.Sprintf("%.15f", hp)
	res.Diff = fmt.Sprintf("%.2e", math.Abs(hp-dp))

	if scalar.EqualWithinAbs(hp, dp, CrossCheckEpsilon) {
		res.Status = StatusPassed
		return res
	}
	res.Status = StatusWarned
	v.Warnings = append(v.Warnings, fmt.Sprintf(
		"cross-precision drift: |alpha_pred(hp) - alpha_pred(float64)| = %s exceeds %s",
		res.Diff, res.Tolerance))
	return res
}

// fmtDecimal renders a decimal compactly for reports and diagnostics.
func fmtDecimal(d *apd.Decimal) string {
	return d.Text('g')
}
