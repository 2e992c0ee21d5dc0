// Package config loads reqsync settings from .reqsync.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultFile is looked up in the working directory when no -c flag is given.
	DefaultFile = ".reqsync.yaml"

	defaultManifest = "requirements.txt"
	defaultLabel    = "requirement"
)

// Config models .reqsync.yaml.
type Config struct {
	// Python is the interpreter whose environment is reconciled.
	Python string `yaml:"python"`

	// Requirements is a manifest path or an http(s) URL.
	Requirements string `yaml:"requirements"`

	// Label prefixes every installation description.
	Label string `yaml:"label"`

	// PipArgs are extra arguments for `pip install`.
	PipArgs []string `yaml:"pip_args,omitempty"`

	// Markers override probed environment marker values.
	Markers map[string]string `yaml:"markers,omitempty"`

	// CacheDir holds downloaded remote manifests.
	CacheDir string `yaml:"cache_dir"`
}

// Default returns the built-in configuration. The manifest defaults to
// requirements.txt next to the reqsync executable.
func Default() *Config {
	return &Config{
		Python:       defaultPython(),
		Requirements: filepath.Join(executableDir(), defaultManifest),
		Label:        defaultLabel,
		CacheDir:     defaultCacheDir(),
	}
}

// Load reads path on top of Default. A missing file is an error only when
// required is true.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Relative manifest paths are relative to the config file.
	if cfg.Requirements != "" && !isURL(cfg.Requirements) && !filepath.IsAbs(cfg.Requirements) {
		cfg.Requirements = filepath.Join(filepath.Dir(path), cfg.Requirements)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Python == "" {
		return errors.New("python must not be empty")
	}
	if c.Requirements == "" {
		return errors.New("requirements must not be empty")
	}
	if c.Label == "" {
		c.Label = defaultLabel
	}
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func defaultPython() string {
	if p := os.Getenv("PYTHON"); p != "" {
		return p
	}
	return "python3"
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "reqsync")
	}
	return filepath.Join(dir, "reqsync")
}
