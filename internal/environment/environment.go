// Package environment answers questions about what a Python interpreter
// has installed.
//
// Two independent checks are offered. InstalledVersion reads distribution
// metadata as importlib.metadata reports it. IsInstalled looks at the site
// directories directly for either installer bookkeeping (*.dist-info,
// *.egg-info) or an importable top-level module of the same name. The two
// can disagree after partial or manual installs.
package environment

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/frederic-klein/reqsync/internal/dist"
	"github.com/frederic-klein/reqsync/internal/marker"
)

// Querier is the read-only view of an environment used during
// reconciliation.
type Querier interface {
	// InstalledVersion returns the installed version of the named
	// distribution, or false when it is not installed.
	InstalledVersion(name string) (string, bool)
	// IsInstalled reports whether the distribution looks present, independent
	// of InstalledVersion.
	IsInstalled(name string) bool
	// Markers returns the values environment markers are evaluated against.
	Markers() marker.Environment
}

//go:embed probe.py
var probeScript string

type probeResult struct {
	Markers       map[string]string `json:"markers"`
	Distributions []struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"distributions"`
	Paths []string `json:"paths"`
}

// Python queries a real interpreter. Call Load before using it.
type Python struct {
	python    string
	overrides map[string]string
	logger    *zap.Logger

	markers   marker.Environment
	installed map[string]dist.Installed
	paths     []string
}

// NewPython creates a querier for the given interpreter. overrides replace
// probed marker values, e.g. to evaluate markers for another platform.
func NewPython(python string, overrides map[string]string, logger *zap.Logger) *Python {
	return &Python{
		python:    python,
		overrides: overrides,
		logger:    logger,
		installed: make(map[string]dist.Installed),
	}
}

// Load runs the interpreter once to collect markers, installed
// distributions and site directories.
func (p *Python) Load(ctx context.Context) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.python, "-c", probeScript)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("probing %s: %w: %s", p.python, err, strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("probing %s: %w", p.python, err)
	}

	return p.apply(out)
}

func (p *Python) apply(out []byte) error {
	var result probeResult
	if err := json.Unmarshal(out, &result); err != nil {
		return fmt.Errorf("parsing probe output: %w", err)
	}

	p.markers = make(marker.Environment, len(result.Markers)+len(p.overrides))
	for k, v := range result.Markers {
		p.markers[k] = v
	}
	for k, v := range p.overrides {
		p.markers[k] = v
	}

	for _, d := range result.Distributions {
		key := dist.NormalizeName(d.Name)
		// The first entry on sys.path wins, as with importlib.metadata.version.
		if _, ok := p.installed[key]; !ok {
			p.installed[key] = dist.Installed{Name: d.Name, Version: d.Version}
		}
	}
	p.paths = result.Paths

	p.logger.Debug("Probed Python environment",
		zap.String("python", p.python),
		zap.String("python_version", p.markers["python_full_version"]),
		zap.Int("distributions", len(p.installed)),
		zap.Strings("paths", p.paths),
	)
	return nil
}

// InstalledVersion implements Querier.
func (p *Python) InstalledVersion(name string) (string, bool) {
	d, ok := p.installed[dist.NormalizeName(name)]
	if !ok {
		return "", false
	}
	return d.Version, true
}

// IsInstalled implements Querier by scanning the site directories.
func (p *Python) IsInstalled(name string) bool {
	for _, dir := range p.paths {
		if present(dir, name) {
			return true
		}
	}
	return false
}

// Markers implements Querier.
func (p *Python) Markers() marker.Environment {
	return p.markers
}

// present reports whether dir holds metadata for name or a module importable
// as name.
func present(dir, name string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}

	key := dist.NormalizeName(name)
	for _, e := range entries {
		base := e.Name()
		for _, suffix := range []string{".dist-info", ".egg-info"} {
			if !strings.HasSuffix(base, suffix) {
				continue
			}
			stem := strings.TrimSuffix(base, suffix)
			// name-version.dist-info; legacy egg-info may omit the version.
			distName, _, _ := strings.Cut(stem, "-")
			if dist.NormalizeName(distName) == key {
				return true
			}
		}

		if base == name+".py" {
			return true
		}
		if e.IsDir() && base == name {
			return true
		}
		if strings.HasPrefix(base, name+".") && (strings.HasSuffix(base, ".so") || strings.HasSuffix(base, ".pyd")) {
			return true
		}
	}
	return false
}
