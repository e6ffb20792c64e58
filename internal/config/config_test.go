package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".composenet.yaml", `
driver: bridge
suffix: -deps
sentinel: edge_net
indent: 4
strict: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bridge", cfg.Driver)
	assert.Equal(t, "-deps", cfg.Suffix)
	assert.Equal(t, "edge_net", cfg.Sentinel)
	assert.Equal(t, 4, cfg.Indent)
	assert.True(t, cfg.Strict)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("NET_DRIVER", "macvlan")
	path := writeFile(t, t.TempDir(), "settings.yaml", "driver: ${NET_DRIVER}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "macvlan", cfg.Driver)
}

func TestLoad_Includes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "conf.d/a.yaml", "driver: bridge\nsuffix: _a\n")
	writeFile(t, dir, "conf.d/b.yaml", "sentinel: edge\n")
	path := writeFile(t, dir, "main.yaml", `
suffix: _main
includes:
  - conf.d/*.yaml
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// The including file wins; includes only fill gaps.
	assert.Equal(t, "_main", cfg.Suffix)
	assert.Equal(t, "bridge", cfg.Driver)
	assert.Equal(t, "edge", cfg.Sentinel)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	bad := writeFile(t, dir, "bad.yaml", "driver: [\n")
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")

	badInclude := writeFile(t, dir, "inc.yaml", "includes:\n  - bad.yaml\n")
	_, err = Load(badInclude)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load include")
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Driver: "bridge"}
	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, "bridge", cfg.Driver)
	assert.Equal(t, "_dependencies_net", cfg.Suffix)
	assert.Equal(t, "traefik_net", cfg.Sentinel)
	assert.Equal(t, 2, cfg.Indent)
	assert.False(t, cfg.Strict)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "missing driver", mutate: func(c *Config) { c.Driver = "" }, wantErr: "driver is required"},
		{name: "missing sentinel", mutate: func(c *Config) { c.Sentinel = "" }, wantErr: "sentinel is required"},
		{name: "bad sentinel", mutate: func(c *Config) { c.Sentinel = "has space" }, wantErr: "invalid sentinel"},
		{name: "indent too small", mutate: func(c *Config) { c.Indent = 1 }, wantErr: "indent must be between"},
		{name: "indent too large", mutate: func(c *Config) { c.Indent = 12 }, wantErr: "indent must be between"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultTemplate_Loads(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".composenet.yaml", DefaultTemplate())

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}
