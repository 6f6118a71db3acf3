package pipeline

// Status is the state of one verification step.
//
// Steps move PENDING -> RUNNING -> (PASSED | FAILED). A step after the
// first gating failure never runs and is marked SKIPPED, because its
// inputs may be derived from an already-invalid upstream value. The
// advisory cross-precision step reports WARN instead of FAILED; it never
// gates the verdict.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusPassed  Status = "PASSED"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
	StatusWarned  Status = "WARN"
)

// Step names, in fixed dependency order. Each name matches the quantity
// the step derives and gates.
const (
	StepAlphaPred      = "alpha_pred"
	StepAlphaErr       = "alpha_err"
	StepBetaPrimeAlpha = "beta_prime_alpha"
	StepXiStar         = "xi_star"
	StepSaturation     = "boundary_saturation"
	StepStability      = "stability"
	StepCrossCheck     = "cross_precision"
)

// Tolerances of the verification protocol. These are protocol constants
// encoding acceptable numeric noise, not domain truth, so they are fixed
// here and never read from the locks document.
const (
	// TolAlpha bounds every alpha-scale comparison (steps 1-3).
	TolAlpha = "1e-10"

	// TolXi bounds the xi* comparison. Looser than TolAlpha because xi*
	// integrates more compounded numeric error.
	TolXi = "1e-8"

	// TolSaturation bounds the boundary-saturation residual, which
	// vanishes by construction and so is held near machine precision.
	TolSaturation = "1e-9"

	// StabilityThreshold is the fixed upper bound on E_xi.
	StabilityThreshold = "5.5"
)

// CrossCheckEpsilon is the machine-epsilon-scaled bound on the difference
// between the arbitrary-precision and double-precision renderings of
// alpha_pred. A breach is a warning, never a failure.
const CrossCheckEpsilon = 1e-15

// StepResult is the tagged outcome of one verification step.
//
// For gating comparisons, Computed and Reference hold both compared values
// and Diff the observed difference; a step is FAILED only when
// Diff >= Tolerance (equality at the boundary fails, strict less-than is
// required to pass).
type StepResult struct {
	// Name identifies the step.
	Name string `json:"name"`

	// Status is the step's final state.
	Status Status `json:"status"`

	// Computed is the freshly derived value.
	Computed string `json:"computed,omitempty"`

	// Reference is the value compared against: the locked reference for
	// comparison steps, the fixed threshold for the stability step.
	Reference string `json:"reference,omitempty"`

	// Diff is the observed difference magnitude.
	Diff string `json:"diff,omitempty"`

	// Tolerance is the bound the comparison was gated on.
	Tolerance string `json:"tolerance,omitempty"`

	// Advisory marks steps that never gate the verdict.
	Advisory bool `json:"advisory,omitempty"`

	// Detail carries auxiliary quantities surfaced for diagnosis
	// (intermediate values, ppm error, safety margin).
	Detail map[string]string `json:"detail,omitempty"`
}

// Verdict aggregates all step results into the binary run outcome.
// Passed is true only if every gating step passed, in step order; the
// first gating failure halts evaluation and the remaining steps are
// recorded as SKIPPED.
type Verdict struct {
	// RunToken identifies this run.
	RunToken string `json:"run_token"`

	// DocumentVersion echoes the locks document's metadata version.
	DocumentVersion string `json:"document_version,omitempty"`

	// PrecisionDigits is the digit count the run was performed at.
	PrecisionDigits int `json:"precision_digits"`

	// Passed is the aggregate PASS/FAIL outcome.
	Passed bool `json:"passed"`

	// FailedStep names the gating step that failed, empty on PASS.
	FailedStep string `json:"failed_step,omitempty"`

	// Steps holds every step result in execution order.
	Steps []StepResult `json:"steps"`

	// Warnings holds advisory annotations (precision drift). Present on
	// PASSED runs too; never affects Passed.
	Warnings []string `json:"warnings,omitempty"`
}
