// Package reconcile brings a Python environment in line with a requirements
// manifest, one line at a time.
//
// For each line the Reconciler decides whether the environment already
// satisfies it. If it does not, the Reconciler asks the installer to install
// the line exactly as written. Lines are independent: a bad line is reported
// and skipped, and it never stops the pass.
package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/frederic-klein/reqsync/internal/environment"
	"github.com/frederic-klein/reqsync/internal/manifest"
	"github.com/frederic-klein/reqsync/internal/version"
)

// DefaultLabel prefixes installation descriptions.
const DefaultLabel = "requirement"

// Installer performs one installation request.
type Installer interface {
	Install(ctx context.Context, arg, description string) error
}

// Options tune a Reconciler.
type Options struct {
	Label  string // description prefix; DefaultLabel when empty
	DryRun bool   // decide without calling the installer
}

// Reconciler decides and applies installs for manifest lines.
type Reconciler struct {
	env       environment.Querier
	installer Installer
	logger    *zap.Logger
	opts      Options
}

// New creates a Reconciler.
func New(env environment.Querier, installer Installer, logger *zap.Logger, opts Options) *Reconciler {
	if opts.Label == "" {
		opts.Label = DefaultLabel
	}
	return &Reconciler{
		env:       env,
		installer: installer,
		logger:    logger,
		opts:      opts,
	}
}

// Run processes lines in order. The only error it returns is ctx's; every
// per-line failure is recorded in the summary instead.
func (r *Reconciler) Run(ctx context.Context, lines []manifest.Line) (*Summary, error) {
	summary := &Summary{DryRun: r.opts.DryRun}
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.add(r.Decide(ctx, line))
	}
	return summary, nil
}

// Decide handles a single manifest line.
func (r *Reconciler) Decide(ctx context.Context, line manifest.Line) Decision {
	entry := manifest.ParseLine(line)
	d := Decision{Line: line.Number, Raw: line.Raw}

	switch entry.Kind {
	case manifest.KindBlank:
		d.Action = ActionSkipBlank
	case manifest.KindComment:
		d.Action = ActionSkipComment
	case manifest.KindDirective:
		d.Action = ActionSkipDirective
	}
	if d.Action != "" {
		r.logger.Debug("Skipping line",
			zap.Int("line", line.Number),
			zap.Stringer("kind", entry.Kind),
			zap.String("raw", line.Raw),
		)
		return d
	}

	if entry.Err != nil {
		d.Action = ActionParseError
		d.Reason = entry.Err.Error()
		r.logger.Warn("Failed to process requirement line",
			zap.Int("line", line.Number),
			zap.String("raw", line.Raw),
			zap.Error(entry.Err),
		)
		return d
	}

	req := entry.Req
	d.Name = req.Name
	d.Raw = req.Raw

	if req.Marker != nil {
		ok, err := req.Marker.Evaluate(r.env.Markers())
		if err != nil {
			d.Action = ActionMarkerError
			d.Reason = err.Error()
			r.logger.Warn("Cannot evaluate environment marker, skipping requirement",
				zap.Int("line", line.Number),
				zap.String("raw", req.Raw),
				zap.Error(err),
			)
			return d
		}
		if !ok {
			d.Action = ActionMarkerFalse
			d.Reason = "marker " + req.Marker.String() + " is false"
			r.logger.Debug("Marker does not apply", zap.String("requirement", req.Raw))
			return d
		}
	}

	installed, found := r.env.InstalledVersion(req.Key())
	d.Installed = installed

	if len(req.Specifiers) == 0 {
		if found && r.env.IsInstalled(req.Key()) {
			d.Action = ActionSatisfied
			d.Reason = "installed"
			return d
		}
		d.Reason = "not installed"
		if found {
			d.Reason = "version metadata found but distribution files missing"
		}
		return r.install(ctx, d, fmt.Sprintf("%s: %s", r.opts.Label, req.Raw))
	}

	if !found {
		d.Reason = "not installed"
		return r.install(ctx, d, r.enforcing(req.Raw, "not installed"))
	}

	v, err := version.Parse(installed)
	if err != nil {
		d.Action = ActionVersionError
		d.Reason = err.Error()
		r.logger.Warn("Installed version is not PEP 440, skipping requirement",
			zap.Int("line", line.Number),
			zap.String("raw", req.Raw),
			zap.String("installed", installed),
			zap.Error(err),
		)
		return d
	}

	if req.Specifiers.Contains(v, true) {
		d.Action = ActionSatisfied
		d.Reason = installed + " satisfies " + req.Specifiers.String()
		return d
	}

	d.Reason = installed + " does not satisfy " + req.Specifiers.String()
	return r.install(ctx, d, r.enforcing(req.Raw, installed))
}

func (r *Reconciler) enforcing(raw, was string) string {
	return fmt.Sprintf("%s: enforcing %s (was %s)", r.opts.Label, raw, was)
}

func (r *Reconciler) install(ctx context.Context, d Decision, description string) Decision {
	d.Action = ActionInstall
	d.Description = description
	if r.opts.DryRun {
		r.logger.Info("Would install " + description)
		return d
	}

	if err := r.installer.Install(ctx, d.Raw, description); err != nil {
		d.Action = ActionInstallFailed
		d.Reason = err.Error()
		r.logger.Warn("Installation failed",
			zap.String("requirement", d.Raw),
			zap.Error(err),
		)
	}
	return d
}
