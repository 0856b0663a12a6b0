package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 5*time.Second, cfg.EvalTimeout)
	assert.Equal(t, 200, cfg.Mesh.MaxCells)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"defaults"}, cfg.LoadedFrom)
	assert.Equal(t, Default().Facility, cfg.Facility)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "toroid.yaml", `
output_dir: build/meshes
eval_timeout: 2s
merge_by_tag: true
log:
  level: debug
mesh:
  max_size: 5
  max_cells: 64
sweep:
  concurrency: 8
  factors: [1, 2, 1]
facility:
  bioshield_gap: 300
  bioshield_thickness: 100
  floor_thickness: 100
  ceiling_thickness: 100
transport:
  batches: 5
  particles: 1000
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "build/meshes", cfg.OutputDir)
	assert.Equal(t, 2*time.Second, cfg.EvalTimeout)
	assert.True(t, cfg.MergeByTag)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 64, cfg.Mesh.Options().MaxCells)
	assert.Equal(t, 5.0, cfg.Mesh.Options().MaxSize)
	assert.Equal(t, []float64{1, 2, 1}, cfg.Sweep.Factors)
	assert.Equal(t, 300.0, cfg.Facility.BioshieldGap)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 150.0, cfg.Facility.CeilingGap)
	assert.Equal(t, "fixed source", cfg.Transport.RunMode)
	assert.Equal(t, 1000, cfg.Transport.Particles)
	assert.Equal(t, []string{"defaults", path}, cfg.LoadedFrom)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadBadYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "mesh: [1, 2")
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "toroid.yaml", "output_dir: from-file\n")
	t.Setenv("TOROID_OUTPUT_DIR", "from-env")
	t.Setenv("TOROID_MESH_CELLS", "32")
	t.Setenv("TOROID_EVAL_TIMEOUT", "250ms")
	t.Setenv("TOROID_LOG_DEVELOPMENT", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.OutputDir)
	assert.Equal(t, 32, cfg.Mesh.MaxCells)
	assert.Equal(t, 250*time.Millisecond, cfg.EvalTimeout)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, "environment", cfg.LoadedFrom[len(cfg.LoadedFrom)-1])
}

func TestEnvParseErrors(t *testing.T) {
	t.Setenv("TOROID_MESH_CELLS", "many")
	t.Setenv("TOROID_MERGE_BY_TAG", "perhaps")
	_, err := Load("")
	require.Error(t, err)
	assert.ErrorContains(t, err, "TOROID_MESH_CELLS")
	assert.ErrorContains(t, err, "TOROID_MERGE_BY_TAG")
}

func TestDotenv(t *testing.T) {
	env := writeFile(t, ".env", "TOROID_SWEEP_CONCURRENCY=2\n")
	// godotenv sets the process environment; register cleanup through Setenv.
	t.Setenv("TOROID_SWEEP_CONCURRENCY", "")
	require.NoError(t, os.Unsetenv("TOROID_SWEEP_CONCURRENCY"))

	cfg, err := Load("", env, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Sweep.Concurrency)
	assert.Contains(t, cfg.LoadedFrom, env)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no output dir", func(c *Config) { c.OutputDir = "" }, "OutputDir is required"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "Level must be one of"},
		{"negative cells", func(c *Config) { c.Mesh.MaxCells = -1 }, "MaxCells must be at least 0"},
		{"min above max", func(c *Config) { c.Mesh.MinSize, c.Mesh.MaxSize = 10, 1 }, "exceeds max mesh size"},
		{"zero factor", func(c *Config) { c.Sweep.Factors = []float64{1, 0} }, "must be greater than 0"},
		{"no particles", func(c *Config) { c.Transport.Particles = 0 }, "Particles must be greater than 0"},
		{"thin bioshield", func(c *Config) { c.Facility.BioshieldThickness = 0 }, "BioshieldThickness"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	dev, err := NewLogger(LogConfig{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
