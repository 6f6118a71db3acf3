// Package testutil provides fixture builders shared by pipeline, report
// and CLI tests.
package testutil

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/require"

	"github.com/sancho5oh/alphalock/internal/derive"
	"github.com/sancho5oh/alphalock/internal/precision"
)

// FixtureConfig holds the raw locked inputs a fixture document is built
// from. Every derived quantity in the document is computed from these
// with the real derivation functions, so the resulting document is
// self-consistent: verification of it passes by construction.
type FixtureConfig struct {
	A1OverA3 string
	R        string
	Gamma    string
	K        string
	DeltaPi  string
	AlphaExp string
}

// DefaultFixture returns the reference configuration used across tests.
func DefaultFixture() FixtureConfig {
	return FixtureConfig{
		A1OverA3: "0.996216",
		R:        "0.092046",
		Gamma:    "1",
		K:        "1",
		DeltaPi:  "0.295841",
		AlphaExp: "0.0072973525693",
	}
}

// FixtureDocument builds a locks document (as a JSON-shaped map) whose
// derived categories are computed from cfg with the real derivation
// functions. Tests mutate the map to engineer mismatches or missing keys
// before marshaling.
func FixtureDocument(t *testing.T, pc *precision.Context, cfg FixtureConfig) map[string]any {
	t.Helper()

	a1 := mustParse(t, pc, cfg.A1OverA3)
	r := mustParse(t, pc, cfg.R)
	gamma := mustParse(t, pc, cfg.Gamma)
	deltaPi := mustParse(t, pc, cfg.DeltaPi)
	alphaExp := mustParse(t, pc, cfg.AlphaExp)

	alphaPred, err := derive.AlphaPred(pc, a1, r)
	require.NoError(t, err)
	alphaErr, err := derive.AlphaErr(pc, alphaPred, alphaExp)
	require.NoError(t, err)
	gStar, err := derive.GStar(pc, a1, r, gamma)
	require.NoError(t, err)
	betaPrimeG, err := derive.BetaPrimeG(pc, a1, r, gamma)
	require.NoError(t, err)
	betaPrimeAlpha, err := derive.BetaPrimeAlpha(pc, gStar, betaPrimeG)
	require.NoError(t, err)
	xiStar, err := derive.XiStar(pc, alphaErr, deltaPi, betaPrimeAlpha)
	require.NoError(t, err)

	return map[string]any{
		"_metadata": map[string]any{
			"version": "test",
		},
		"geometric_parameters": map[string]any{
			"A1_over_A3": entry(cfg.A1OverA3),
			"r":          entry(cfg.R),
			"gamma":      entry(cfg.Gamma),
			"K":          entry(cfg.K),
		},
		"stochastic_parameters": map[string]any{
			"beta_prime_alpha": entry(betaPrimeAlpha.Text('g')),
			"xi_star":          entry(xiStar.Text('g')),
		},
		"derived_quantities": map[string]any{
			"alpha_exp_CODATA2018": entry(cfg.AlphaExp),
			"alpha_pred":           entry(alphaPred.Text('g')),
			"alpha_err":            entry(alphaErr.Text('g')),
		},
		"collapse_gap": map[string]any{
			"Delta_pi": entry(cfg.DeltaPi),
		},
	}
}

// MarshalLocks renders a fixture map as locks JSON.
func MarshalLocks(t *testing.T, doc map[string]any) []byte {
	t.Helper()
	data, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	return data
}

// ConsistentLocksJSON is FixtureDocument + MarshalLocks for the default
// configuration.
func ConsistentLocksJSON(t *testing.T, pc *precision.Context) []byte {
	t.Helper()
	return MarshalLocks(t, FixtureDocument(t, pc, DefaultFixture()))
}

// SetValue overwrites the value string at (category, name) in a fixture
// map.
func SetValue(t *testing.T, doc map[string]any, category, name, value string) {
	t.Helper()
	cat, ok := doc[category].(map[string]any)
	require.True(t, ok, "category %s not found", category)
	cat[name] = entry(value)
}

// DeleteKey removes the entry at (category, name) from a fixture map.
func DeleteKey(t *testing.T, doc map[string]any, category, name string) {
	t.Helper()
	cat, ok := doc[category].(map[string]any)
	require.True(t, ok, "category %s not found", category)
	delete(cat, name)
}

func entry(value string) map[string]any {
	return map[string]any{"value": value}
}

func mustParse(t *testing.T, pc *precision.Context, s string) *apd.Decimal {
	t.Helper()
	d, err := pc.Parse(s)
	require.NoError(t, err)
	return d
}
