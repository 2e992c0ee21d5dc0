package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingOptional(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFile), false)
	require.NoError(t, err)

	assert.Equal(t, "requirement", cfg.Label)
	assert.Equal(t, "requirements.txt", filepath.Base(cfg.Requirements))
	assert.NotEmpty(t, cfg.Python)
	assert.NotEmpty(t, cfg.CacheDir)
}

func TestLoad_MissingRequired(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "custom.yaml"), true)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	content := `python: /opt/venv/bin/python
requirements: deps/requirements.txt
label: SD-CN-Animation requirement
pip_args:
  - --prefer-binary
  - --no-cache-dir
markers:
  sys_platform: win32
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "/opt/venv/bin/python", cfg.Python)
	assert.Equal(t, filepath.Join(dir, "deps", "requirements.txt"), cfg.Requirements)
	assert.Equal(t, "SD-CN-Animation requirement", cfg.Label)
	assert.Equal(t, []string{"--prefer-binary", "--no-cache-dir"}, cfg.PipArgs)
	assert.Equal(t, map[string]string{"sys_platform": "win32"}, cfg.Markers)
}

func TestLoad_RemoteManifestKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte("requirements: https://example.com/requirements.txt\n"), 0644))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/requirements.txt", cfg.Requirements)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "python: [unterminated\n"},
		{"empty python", "python: \"\"\n"},
		{"wrong type", "pip_args: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultFile)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path, true)
			assert.Error(t, err)
		})
	}
}

func TestValidate_DefaultsLabel(t *testing.T) {
	cfg := &Config{Python: "python3", Requirements: "requirements.txt"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "requirement", cfg.Label)
}
