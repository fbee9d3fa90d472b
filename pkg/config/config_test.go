package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelconnect/pkg/archive"
	"voxelconnect/pkg/logging"
)

func TestMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
processing:
  numCores: 3
  minVoxelsPerInjection: 10
  sourceCoverage: 0.5
  laplacian: true
output:
  compression: zstd
log:
  file: run.log
  maxSize: 5
  level: warning
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Processing.NumCores)
	assert.Equal(t, archive.Zstd, cfg.Compression())
	assert.Equal(t, "run.log", cfg.Log.Logfile)
	assert.Equal(t, 5, cfg.Log.MaxSize)

	p := cfg.Params()
	assert.Equal(t, 10, p.MinVoxelsPerInjection)
	assert.Equal(t, 0.5, p.SourceCoverage)
	assert.True(t, p.Laplacian)
	assert.False(t, p.SourceShell)
	assert.True(t, p.Verbose, "unset keys keep their defaults")
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[processing]
num_cores = 2
source_shell = true

[output]
verbose = false
compression = "none"

[log]
level = "debug"
max_log_age = 7
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Processing.NumCores)
	assert.True(t, cfg.Processing.SourceShell)
	assert.False(t, cfg.Output.Verbose)
	assert.Equal(t, archive.Uncompressed, cfg.Compression())
	assert.Equal(t, 7, cfg.Log.MaxAge)
	assert.Equal(t, 50, cfg.Processing.MinVoxelsPerInjection)
}

func TestInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  compression: lz4\n"), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("processing: [1"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"sub/config.yaml", "sub/config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := DefaultConfig()
			cfg.Processing.Laplacian = true
			cfg.Output.Compression = "zstd"
			cfg.Log.Logfile = "out.log"
			require.NoError(t, SaveConfig(cfg, path))

			got, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, got)
		})
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSetupLogging(t *testing.T) {
	defer logging.SetLogMode(logging.Mode())
	cfg := DefaultConfig()
	cfg.Log.Level = "error"
	require.NoError(t, cfg.SetupLogging())
	assert.Equal(t, logging.ErrorMode, logging.Mode())
}
