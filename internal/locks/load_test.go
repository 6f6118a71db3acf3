package locks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, IsMissingDocument(err))
	assert.Contains(t, err.Error(), "MISSING_INPUT_DOCUMENT")
}

func TestLoadReferenceFixture(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "locks.json"))
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", doc.Metadata().Version)

	entry, err := doc.Entry("derived_quantities", "alpha_exp_CODATA2018")
	require.NoError(t, err)
	assert.Equal(t, "0.0072973525693", entry.Value)
}

func TestLoadYAMLFixture(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "locks.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", doc.Metadata().Version)

	entry, err := doc.Entry("stochastic_parameters", "xi_star")
	require.NoError(t, err)
	assert.Equal(t, "0.0000094261766374254159530754146025419448525040186949385", entry.Value)
}

func TestLoadSyntaxErrorCarriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	_, err := Load(path)
	require.Error(t, err)

	var le *LockError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeDocumentSyntax, le.Code)
	assert.Equal(t, path, le.File)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatForPath("locks.json"))
	assert.Equal(t, FormatYAML, FormatForPath("locks.yaml"))
	assert.Equal(t, FormatYAML, FormatForPath("LOCKS.YML"))
	assert.Equal(t, FormatJSON, FormatForPath("locks"))
}
