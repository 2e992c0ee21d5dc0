package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/frederic-klein/reqsync/internal/reconcile"
)

// Format selects the report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --output value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatYAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or yaml)", s)
}

// Emitter writes reconciliation reports.
type Emitter struct {
	w           io.Writer
	showSkipped bool
}

// NewEmitter creates a new report emitter. Blank, comment, directive and
// marker-filtered lines are only listed when showSkipped is set.
func NewEmitter(w io.Writer, showSkipped bool) *Emitter {
	return &Emitter{w: w, showSkipped: showSkipped}
}

// Emit writes s in the given format.
func (e *Emitter) Emit(s *reconcile.Summary, format Format) error {
	if format == FormatYAML {
		return e.emitYAML(s)
	}
	return e.emitText(s)
}

func (e *Emitter) visible(s *reconcile.Summary) []reconcile.Decision {
	var out []reconcile.Decision
	for _, d := range s.Decisions {
		if d.Action.Skipped() && !e.showSkipped {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (e *Emitter) emitText(s *reconcile.Summary) error {
	for _, d := range e.visible(s) {
		action := string(d.Action)
		if s.DryRun && d.Action == reconcile.ActionInstall {
			action = "would-install"
		}
		if _, err := fmt.Fprintf(e.w, "%4d  %-15s %s\n", d.Line, action, d.Raw); err != nil {
			return err
		}
		if d.Reason != "" {
			if _, err := fmt.Fprintf(e.w, "      %-15s %s\n", "", d.Reason); err != nil {
				return err
			}
		}
	}

	installed := "installed"
	if s.DryRun {
		installed = "to install"
	}
	_, err := fmt.Fprintf(e.w, "%d lines: %d satisfied, %d %s, %d failed, %d skipped, %d problems\n",
		len(s.Decisions),
		s.Count(reconcile.ActionSatisfied),
		s.Count(reconcile.ActionInstall),
		installed,
		s.Count(reconcile.ActionInstallFailed),
		skipped(s),
		s.Problems(),
	)
	return err
}

func skipped(s *reconcile.Summary) int {
	n := 0
	for _, d := range s.Decisions {
		if d.Action.Skipped() {
			n++
		}
	}
	return n
}

type yamlLine struct {
	Line        int    `yaml:"line"`
	Raw         string `yaml:"raw"`
	Name        string `yaml:"name,omitempty"`
	Action      string `yaml:"action"`
	Installed   string `yaml:"installed,omitempty"`
	Reason      string `yaml:"reason,omitempty"`
	Description string `yaml:"description,omitempty"`
}

type yamlReport struct {
	DryRun  bool           `yaml:"dry_run"`
	Summary map[string]int `yaml:"summary"`
	Lines   []yamlLine     `yaml:"lines"`
}

func (e *Emitter) emitYAML(s *reconcile.Summary) error {
	rep := yamlReport{DryRun: s.DryRun, Summary: make(map[string]int)}

	for _, d := range s.Decisions {
		rep.Summary[string(d.Action)] = s.Count(d.Action)
	}

	for _, d := range e.visible(s) {
		rep.Lines = append(rep.Lines, yamlLine{
			Line:        d.Line,
			Raw:         d.Raw,
			Name:        d.Name,
			Action:      string(d.Action),
			Installed:   d.Installed,
			Reason:      d.Reason,
			Description: d.Description,
		})
	}

	enc := yaml.NewEncoder(e.w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}
