package snaplll

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/goccy/go-yaml"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, "hex", config.Output.Format)
	assert.Equal(t, "_temp", config.Compiler.TempPrefix)
	assert.True(t, config.Compiler.ShouldFoldConstants())
	assert.Equal(t, uint64(10_000_000), config.Run.Gas)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("SNAPLLL_OUT", "build")

	path := filepath.Join(t.TempDir(), "snaplll.yaml")
	content := `
output:
  format: binary
  dir: ${SNAPLLL_OUT}/bin
compiler:
  fold_constants: false
  warnings_as_errors: true
run:
  caller: "0x00000000000000000000000000000000000000aa"
`
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "binary", config.Output.Format)
	assert.Equal(t, "build/bin", config.Output.Dir)
	assert.False(t, config.Compiler.ShouldFoldConstants())
	assert.True(t, config.Compiler.WarningsAsErrors)
	assert.Equal(t, "_temp", config.Compiler.TempPrefix)
	assert.Equal(t, uint64(10_000_000), config.Run.Gas)
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snaplll.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("output:\n  colour: red\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigRoundTrip(t *testing.T) {
	data, err := yaml.Marshal(getDefaultConfig())
	assert.NoError(t, err)

	var config Config
	assert.NoError(t, yaml.UnmarshalWithOptions(data, &config, yaml.Strict()))
	assert.Equal(t, "hex", config.Output.Format)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SNAPLLL_A", "alpha")

	assert.Equal(t, "alpha/x", expandEnvVars("${SNAPLLL_A}/x"))
	assert.Equal(t, "alpha-y", expandEnvVars("$SNAPLLL_A-y"))
}
