package updater

import (
	"context"
	"io"
	"os"

	"github.com/netkit-tools/oui-updater/internal/config"
	"github.com/netkit-tools/oui-updater/internal/console"
	"github.com/netkit-tools/oui-updater/internal/logger"
	"github.com/netkit-tools/oui-updater/internal/privilege"
	"github.com/netkit-tools/oui-updater/internal/version"
)

// Options are inputs accepted by the updater entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// ConsoleOut overrides the progress narrative destination (stdout when nil).
	ConsoleOut io.Writer
	// ElevationCheck overrides the privilege probe. Nil means the real
	// check; tests substitute it to exercise the pipeline unprivileged.
	ElevationCheck func() bool
}

// runner holds the state for a single pipeline execution.
// It is intentionally unexported - call Run(ctx, Options) from callers.
type runner struct {
	cfg        *config.Config   // Settings loaded from YAML (or defaults).
	out        *console.Printer // Cosmetic progress narrative.
	workDir    string           // Where working files and backups live.
	backupPath string           // Timestamped snapshot taken this run.
}

// Run executes the update pipeline and is the public entry point for the CLI.
// Stage order is fixed: privilege check, backup, fetch, merge, install.
// The privilege check comes before any file or network operation, and the
// backup before the fetch, so a failed fetch can never destroy the only copy.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "oui-updater")

	out := console.New(opts.ConsoleOut)
	out.Banner(version.Short())

	elevated := opts.ElevationCheck
	if elevated == nil {
		elevated = privilege.IsElevated
	}

	if !elevated() {
		out.Errorf("this tool must be run as root")
		return ErrNotElevated
	}

	up, err := newRunner(ctx, opts, out)
	if err != nil {
		out.Errorf("%v", err)
		return err
	}

	defer up.cleanup(ctx)

	if err = up.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Updater run failed", "error", err)
		out.Errorf("%v", err)

		return err
	}

	out.Successf("Done!")
	logger.Info(ctx, "Updater completed")

	return nil
}

// newRunner loads settings, resolves the working directory and writes a
// marker to avoid concurrent runs.
func newRunner(ctx context.Context, opts *Options, out *console.Printer) (*runner, error) {
	if IsUpdaterRunningNow(ctx) {
		return nil, ErrAlreadyRunning
	}

	updateMarker, err := os.Create(MarkerFilename)
	if err != nil {
		return nil, err
	}

	if err = updateMarker.Close(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	workDir, err := cfg.ResolveWorkDir()
	if err != nil {
		return nil, err
	}

	return &runner{
		cfg:     cfg,
		out:     out,
		workDir: workDir,
	}, nil
}

// run executes the pipeline stages strictly in order, halting on the first failure.
func (u *runner) run(ctx context.Context) error {
	if err := u.backupInstalled(ctx); err != nil {
		return err
	}

	if err := u.fetchRegistry(ctx); err != nil {
		return err
	}

	added, err := u.mergeRecords(ctx)
	if err != nil {
		return err
	}

	if added == 0 {
		// A normal terminal state, not a failure.
		return nil
	}

	return u.installMerged(ctx)
}

// cleanup removes the running marker.
func (u *runner) cleanup(ctx context.Context) {
	if _, err := os.Stat(MarkerFilename); err == nil {
		_ = os.Remove(MarkerFilename)
	}

	logger.Debug(ctx, "The updater has been stopped")
}
