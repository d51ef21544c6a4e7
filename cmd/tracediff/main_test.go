package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))

	err := validateFormat("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"type":"CALL","gasUsed":"0x5208"}`), 0o644))

	v, err := loadTrace(path)
	require.NoError(t, err)

	typ, ok := v.Get("type")
	require.True(t, ok)
	assert.Equal(t, "CALL", typ.Text())
}

func TestLoadTrace_UnwrapsRPCEnvelope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"jsonrpc":"2.0","id":1,"result":{"type":"CALL"}}`), 0o644))

	v, err := loadTrace(path)
	require.NoError(t, err)

	typ, ok := v.Get("type")
	require.True(t, ok)
	assert.Equal(t, "CALL", typ.Text())

	_, ok = v.Get("jsonrpc")
	assert.False(t, ok, "envelope fields should not survive unwrapping")
}

func TestLoadTrace_Missing(t *testing.T) {
	_, err := loadTrace(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading")
}

func TestLoadTrace_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o644))

	_, err := loadTrace(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "left", cfg.Left.Label)
	assert.Equal(t, "right", cfg.Right.Label)
	assert.Empty(t, cfg.Left.URL)
	assert.Empty(t, cfg.DB)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tracediff.yaml"), []byte(`
left:
  url: http://localhost:8545
  label: geth
right:
  url: http://localhost:8546
  label: reth
db: runs.db
scenarios: scenarios.yaml
`), 0o644))
	t.Chdir(dir)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", cfg.Left.URL)
	assert.Equal(t, "geth", cfg.Left.Label)
	assert.Equal(t, "reth", cfg.Right.Label)
	assert.Equal(t, "runs.db", cfg.DB)
	assert.Equal(t, "scenarios.yaml", cfg.Scenarios)
}
