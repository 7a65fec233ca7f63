package neigh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTempYAML writes the given YAML body to a temp file and returns its path.
func writeTempYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "neighbor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadRequestBundle_FullConfig(t *testing.T) {
	// GIVEN a YAML config with two requests and every tuning knob set
	path := writeTempYAML(t, `
requests:
  - kind: half
    newton: true
    cutoff: 2.5
  - kind: full
    ghost: true
    cutoff: 3.0
skin: 0.3
bin_size_ratio: 0.5
page_size: 4096
stencil_slack: 0.1
special_coeffs: [0.0, 0.5, 1.0]
`)

	// WHEN loading and validating it
	bundle, err := LoadRequestBundle(path)
	require.NoError(t, err)
	require.NoError(t, bundle.Validate())

	// THEN the requests and knobs round-trip
	require.Len(t, bundle.Requests, 2)
	assert.Equal(t, HalfList, bundle.Requests[0].Kind)
	assert.True(t, bundle.Requests[0].Newton)
	assert.Equal(t, 2.5, bundle.Requests[0].Cutoff)
	assert.Equal(t, FullList, bundle.Requests[1].Kind)
	assert.True(t, bundle.Requests[1].Ghost)

	cfg := bundle.ManagerConfig()
	assert.Equal(t, 0.3, cfg.Skin)
	assert.Equal(t, 0.5, cfg.Grid.BinSizeRatio)
	assert.Equal(t, 4096, cfg.PageSize)
	assert.Equal(t, 0.1, cfg.StencilSlack)
	require.NotNil(t, cfg.SpecialCoeffs)
	assert.Equal(t, [3]float64{0.0, 0.5, 1.0}, *cfg.SpecialCoeffs)
}

func TestLoadRequestBundle_UnsetKnobsStayDefault(t *testing.T) {
	// GIVEN a minimal config that only declares a request
	path := writeTempYAML(t, `
requests:
  - kind: full
    cutoff: 2.0
`)

	bundle, err := LoadRequestBundle(path)
	require.NoError(t, err)
	require.NoError(t, bundle.Validate())

	// THEN unset knobs do not override the manager defaults
	cfg := bundle.ManagerConfig()
	assert.Zero(t, cfg.Skin)
	assert.Zero(t, cfg.Grid.BinSizeRatio)
	assert.Zero(t, cfg.PageSize)
	assert.Nil(t, cfg.SpecialCoeffs)
}

func TestRequestBundle_ValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no requests", `skin: 0.3`},
		{"bad request", "requests:\n  - kind: full\n    size: true\n    cutoff: 2.0"},
		{"negative skin", "requests:\n  - kind: full\n    cutoff: 2.0\nskin: -0.1"},
		{"bin ratio out of range", "requests:\n  - kind: full\n    cutoff: 2.0\nbin_size_ratio: 1.5"},
		{"non-positive page size", "requests:\n  - kind: full\n    cutoff: 2.0\npage_size: 0"},
		{"negative stencil slack", "requests:\n  - kind: full\n    cutoff: 2.0\nstencil_slack: -1"},
		{"special coeff out of range", "requests:\n  - kind: full\n    cutoff: 2.0\nspecial_coeffs: [0, 2, 0]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bundle, err := LoadRequestBundle(writeTempYAML(t, tc.body))
			require.NoError(t, err)
			assert.Error(t, bundle.Validate())
		})
	}
}

func TestLoadRequestBundle_FileErrors(t *testing.T) {
	// WHEN the file does not exist
	_, err := LoadRequestBundle(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	// WHEN the file is not valid YAML
	_, err = LoadRequestBundle(writeTempYAML(t, "requests: ["))
	assert.Error(t, err)
}
