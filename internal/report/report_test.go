package report

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/sancho5oh/alphalock/internal/locks"
	"github.com/sancho5oh/alphalock/internal/pipeline"
)

// passVerdict is a fully-controlled verdict so golden files stay stable
// across precision-library versions.
func passVerdict() *pipeline.Verdict {
	return &pipeline.Verdict{
		RunToken:        "run-0001",
		DocumentVersion: "1.2.0",
		PrecisionDigits: 80,
		Passed:          true,
		Steps: []pipeline.StepResult{
			{
				Name: pipeline.StepAlphaPred, Status: pipeline.StatusPassed,
				Computed: "0.0072970709", Reference: "0.0072970709",
				Diff: "0", Tolerance: "1E-10",
				Detail: map[string]string{"inverse": "137.0413"},
			},
			{
				Name: pipeline.StepAlphaErr, Status: pipeline.StatusPassed,
				Computed: "2.8162E-7", Reference: "2.8162E-7",
				Diff: "0", Tolerance: "1E-10",
				Detail: map[string]string{"relative_ppm": "38.6"},
			},
			{
				Name: pipeline.StepBetaPrimeAlpha, Status: pipeline.StatusPassed,
				Computed: "-0.0088386874", Reference: "-0.0088386874",
				Diff: "0", Tolerance: "1E-10",
				Detail: map[string]string{"beta_prime_g": "-0.1833953959", "g_star": "0.3028162775"},
			},
			{
				Name: pipeline.StepXiStar, Status: pipeline.StatusPassed,
				Computed: "0.0000094262", Reference: "0.0000094262",
				Diff: "0", Tolerance: "1E-8",
			},
			{
				Name: pipeline.StepSaturation, Status: pipeline.StatusPassed,
				Computed: "2.8162E-7", Reference: "2.8162E-7",
				Diff: "0", Tolerance: "1e-9",
			},
			{
				Name: pipeline.StepStability, Status: pipeline.StatusPassed,
				Computed: "-0.0015646221", Reference: "5.5",
				Detail: map[string]string{"safety_margin_pct": "100.0"},
			},
			{
				Name: pipeline.StepCrossCheck, Status: pipeline.StatusPassed, Advisory: true,
				Computed: "0.007297070948331", Reference: "0.007297070948331",
				Diff: "0.00e+00", Tolerance: "1e-15",
			},
		},
	}
}

func failVerdict() *pipeline.Verdict {
	v := passVerdict()
	v.Passed = false
	v.FailedStep = pipeline.StepXiStar
	v.Steps[3].Status = pipeline.StatusFailed
	v.Steps[3].Reference = "0.0000104262"
	v.Steps[3].Diff = "1.00E-6"
	for i := 4; i < len(v.Steps); i++ {
		v.Steps[i] = pipeline.StepResult{
			Name:     v.Steps[i].Name,
			Status:   pipeline.StatusSkipped,
			Advisory: v.Steps[i].Advisory,
		}
	}
	return v
}

func warnVerdict() *pipeline.Verdict {
	v := passVerdict()
	cross := &v.Steps[6]
	cross.Status = pipeline.StatusWarned
	cross.Diff = "3.10e-15"
	v.Warnings = []string{"cross-precision drift: |alpha_pred(hp) - alpha_pred(float64)| = 3.10e-15 exceeds 1e-15"}
	return v
}

func TestWriteTextPass(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteText(buf, passVerdict()))

	g := goldie.New(t)
	g.Assert(t, "report_pass", buf.Bytes())
}

func TestWriteTextFail(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteText(buf, failVerdict()))

	g := goldie.New(t)
	g.Assert(t, "report_fail", buf.Bytes())
}

func TestWriteTextWarning(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteText(buf, warnVerdict()))

	g := goldie.New(t)
	g.Assert(t, "report_warn", buf.Bytes())
}

func TestWriteJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteJSON(buf, passVerdict()))

	g := goldie.New(t)
	g.Assert(t, "report_json", buf.Bytes())
}

func TestWriteParams(t *testing.T) {
	doc, err := locks.Parse([]byte(`{
	  "_metadata": {"version": "1.0.0"},
	  "geometric_parameters": {
	    "r": {"value": "0.092046", "units": "dimensionless", "note": "boundary contraction ratio"},
	    "K": {"value": "1"}
	  },
	  "collapse_gap": {
	    "Delta_pi": {"value": "0.295841"}
	  }
	}`), locks.FormatJSON)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	require.NoError(t, WriteParams(buf, doc))

	g := goldie.New(t)
	g.Assert(t, "params", buf.Bytes())
}
