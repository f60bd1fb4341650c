package lintcfg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDocument(t *testing.T) {
	c := Default()

	th, ok := c.Threshold("file-lines")
	require.True(t, ok)
	assert.Equal(t, 400, th)

	th, ok = c.Threshold("argument-count")
	require.True(t, ok)
	assert.Equal(t, 6, th)

	_, ok = c.Threshold("similar-code")
	assert.False(t, ok)
	assert.False(t, c.Enabled("similar-code"))
	assert.True(t, c.Enabled("identical-code"))
	assert.NotContains(t, c.EnabledChecks(), "similar-code")
	assert.Len(t, c.EnabledChecks(), 9)
}

func TestRated(t *testing.T) {
	c := Default()
	cases := map[string]bool{
		"pwv_kpno/end_user_functions.py":     true,
		"./pwv_kpno/create_pwv_models.py":    true,
		"pwv_kpno/sub/deep/module.py":        true,
		"setup.py":                           false,
		"docs/conf.py":                       false,
		"tests/test_models.py":               false,
		"pwv_kpno/tests/helpers.py":          true,
		"pwv_kpno/test_end_user.py":          false,
		"pwv_kpno/atm_models/readme.txt":     false,
		"pwv_kpno/suominet\\windows_path.py": true,
	}
	for path, want := range cases {
		assert.Equal(t, want, c.Rated(path), path)
	}
}

func TestRatedWithoutRatingsPaths(t *testing.T) {
	c, err := Parse([]byte("exclude_patterns: [\"vendor/\"]\n"))
	require.NoError(t, err)
	assert.True(t, c.Rated("anything.go"))
	assert.False(t, c.Rated("vendor/lib.go"))
}

func TestLegacyExcludePaths(t *testing.T) {
	c, err := Parse([]byte(`
engines_are_not_supported: true
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))

	c, err = Parse([]byte(`
ratings:
  paths: ["**.py"]
exclude_paths:
  - build/
`))
	require.NoError(t, err)
	assert.False(t, c.Rated("build/lib/pwv_kpno/__init__.py"))
	assert.True(t, c.Rated("pwv_kpno/__init__.py"))
}

func TestValidate(t *testing.T) {
	_, err := Parse([]byte(`
checks:
  argument-count:
    config:
      threshold: 0
  line-length:
    enabled: true
ratings:
  paths: [""]
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "threshold must be positive")
	assert.ErrorContains(t, err, `unknown check "line-length"`)
	assert.ErrorContains(t, err, "ratings.paths[0]: empty pattern")
}

func TestPluginsPassThrough(t *testing.T) {
	c, err := Parse([]byte(`
plugins:
  pep8:
    enabled: true
  radon:
    enabled: true
    config:
      threshold: "C"
      python_version: 3
`))
	require.NoError(t, err)
	require.Contains(t, c.Plugins, "radon")
	assert.Equal(t, "C", c.Plugins["radon"].Config["threshold"])
}

func TestLoadAndMarshalRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), DefaultFile)
	out, err := Default().Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, out, 0o644))

	c, err := Load(p)
	require.NoError(t, err)
	th, ok := c.Threshold("method-lines")
	require.True(t, ok)
	assert.Equal(t, 60, th)
	assert.False(t, c.Rated("docs/index.py"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEmptyDocumentIsValid(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)
	assert.True(t, c.Enabled("file-lines"))
	_, ok := c.Threshold("file-lines")
	assert.False(t, ok)
}

func TestEveryKnownCheckTakesAThreshold(t *testing.T) {
	var b strings.Builder
	b.WriteString("checks:\n")
	for i, name := range KnownChecks {
		fmt.Fprintf(&b, "  %s:\n    config:\n      threshold: %d\n", name, i+1)
	}
	c, err := Parse([]byte(b.String()))
	require.NoError(t, err)
	for i, name := range KnownChecks {
		th, ok := c.Threshold(name)
		assert.True(t, ok, name)
		assert.Equal(t, i+1, th, name)
	}

	_, err = Parse([]byte("checks:\n  line-length:\n    config:\n      threshold: 80\n"))
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown check "line-length"`)
}
