package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsFillsZeroValues(t *testing.T) {
	var c Config
	c.Defaults()
	assert.Equal(t, 1000, c.Stream.MaxBatchSize)
	assert.Equal(t, 20, c.Stream.FanoutConcurrency)
	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, "streamengine", c.Notify.SubjectPrefix)
}

func TestVerifyCollectsAllErrors(t *testing.T) {
	var c Config
	err := c.Verify()
	require.Error(t, err)
	var cfgErrs ConfigErrors
	require.ErrorAs(t, err, &cfgErrs)
	assert.GreaterOrEqual(t, len(cfgErrs), 2)
}

func TestLoadAppliesDefaultsAndVerifies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
global:
  server_name: example.org
db:
  connection_string: "file:test.db"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "example.org", cfg.Global.ServerName)
	assert.Equal(t, 1000, cfg.Stream.MaxBatchSize)
}

func TestLoadSurfacesVerifyErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`global:
  server_name: ""
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
