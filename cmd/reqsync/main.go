// reqsync installs whatever a requirements file asks for that the target
// Python environment does not already satisfy.
//
// Usage:
//
//	reqsync sync  -f requirements.txt
//	reqsync check -f requirements.txt -o yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/frederic-klein/reqsync/internal/config"
	"github.com/frederic-klein/reqsync/internal/environment"
	"github.com/frederic-klein/reqsync/internal/fetch"
	"github.com/frederic-klein/reqsync/internal/installer"
	"github.com/frederic-klein/reqsync/internal/manifest"
	"github.com/frederic-klein/reqsync/internal/reconcile"
	"github.com/frederic-klein/reqsync/internal/report"
)

var (
	requirementsPath string
	configPath       string
	pythonPath       string
	label            string
	outputFmt        string
	verbose          bool
)

var (
	errPending = errors.New("requirements not satisfied")
	errFailed  = errors.New("one or more installations failed")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "reqsync",
		Short:         "Install missing or outdated requirements into a Python environment",
		Long:          "reqsync reads a requirements file line by line, checks each entry against the packages installed for a Python interpreter, and runs pip for every entry that is missing or does not satisfy its version specifiers.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&requirementsPath, "requirements", "f", "", "Requirements file path or URL (default: requirements.txt next to the executable)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "Config file path")
	rootCmd.PersistentFlags().StringVar(&pythonPath, "python", "", "Python interpreter to reconcile (default: $PYTHON or python3)")
	rootCmd.PersistentFlags().StringVar(&label, "label", "", "Prefix for installation descriptions")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Report format: text, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Install every requirement the environment does not satisfy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false)
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Report what sync would install without installing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, true)
		},
	}

	rootCmd.AddCommand(syncCmd, checkCmd)
	return rootCmd
}

func newLogger() (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	logConfig.Encoding = "console"
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	if verbose {
		logConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return logConfig.Build()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}
	if requirementsPath != "" {
		cfg.Requirements = requirementsPath
	}
	if pythonPath != "" {
		cfg.Python = pythonPath
	}
	if label != "" {
		cfg.Label = label
	}
	return cfg, nil
}

func run(cmd *cobra.Command, dryRun bool) error {
	ctx := cmd.Context()

	format, err := report.ParseFormat(outputFmt)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	path := cfg.Requirements
	if fetch.IsRemote(path) {
		logger.Debug("Fetching remote manifest", zap.String("url", path))
		path, err = fetch.NewFetcher(cfg.CacheDir).Fetch(ctx, path)
		if err != nil {
			return fmt.Errorf("fetching manifest: %w", err)
		}
	}

	lines, err := manifest.Open(path)
	if err != nil {
		return err
	}
	logger.Debug("Read manifest", zap.String("path", path), zap.Int("lines", len(lines)))

	env := environment.NewPython(cfg.Python, cfg.Markers, logger)
	if err := env.Load(ctx); err != nil {
		return err
	}

	rec := reconcile.New(env, installer.NewPip(cfg.Python, cfg.PipArgs, cmd.ErrOrStderr(), logger), logger, reconcile.Options{
		Label:  cfg.Label,
		DryRun: dryRun,
	})

	summary, err := rec.Run(ctx, lines)
	if err != nil {
		return fmt.Errorf("reconciling %s: %w", cfg.Requirements, err)
	}

	if err := report.NewEmitter(cmd.OutOrStdout(), verbose).Emit(summary, format); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	switch {
	case summary.Count(reconcile.ActionInstallFailed) > 0:
		return errFailed
	case dryRun && summary.Count(reconcile.ActionInstall) > 0:
		return errPending
	}
	return nil
}
