package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"pnginfo/internal/config"

	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "pnginfo.sqlite", cfg.DB.Path)
	assert.Equal(t, runtime.NumCPU(), cfg.Load.Workers)
	assert.Equal(t, 25, cfg.Load.BatchSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Render.Color)
	assert.Empty(t, cfg.PromptExtractPaths())
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfig(t, "config.yml", `
db:
  path: /tmp/images.duckdb
load:
  paths: [/data/a, /data/b]
  workers: 3
  batch_size: 50
log:
  level: DEBUG
render:
  color: false
`)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/images.duckdb", cfg.DB.Path)
	assert.Equal(t, []string{"/data/a", "/data/b"}, cfg.PromptExtractPaths())
	assert.Equal(t, 3, cfg.Load.Workers)
	assert.Equal(t, 50, cfg.Load.BatchSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Render.Color)
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[db]
path = "lib.sqlite"

[load]
paths = ["/pics"]
workers = 2
`)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "lib.sqlite", cfg.DB.Path)
	assert.Equal(t, []string{"/pics"}, cfg.PromptExtractPaths())
	assert.Equal(t, 2, cfg.Load.Workers)
	assert.Equal(t, 25, cfg.Load.BatchSize)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PNGINFO_DB_PATH", "env.sqlite")
	t.Setenv("PNGINFO_WORKERS", "7")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "env.sqlite", cfg.DB.Path)
	assert.Equal(t, 7, cfg.Load.Workers)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"zero workers":   "load:\n  workers: 0\n",
		"huge batch":     "load:\n  batch_size: 10000\n",
		"unknown level":  "log:\n  level: loud\n",
		"empty database": "db:\n  path: \"\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, "config.yaml", body))
			require.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestTOMLParser(t *testing.T) {
	var p koanf.Parser = config.TOML()

	out, err := p.Unmarshal([]byte("[db]\npath = \"x.sqlite\"\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"db": map[string]any{"path": "x.sqlite"}}, out)

	b, err := p.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), `path = "x.sqlite"`)
}
