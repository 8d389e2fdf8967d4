package app

import (
	"context"
	"fmt"
	"os"

	"github.com/servinagrero/monaco/internal/ctxlog"
	"github.com/servinagrero/monaco/internal/fsutil"
	"github.com/servinagrero/monaco/internal/loader"
	"github.com/servinagrero/monaco/internal/runner"
)

// Run executes one full lifecycle: locate and load the config, validate it,
// then run the selected jobs. It blocks until the run finishes or ctx is
// canceled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App run started.")

	if a.cfg.HealthcheckPort > 0 {
		a.startHealthcheck(ctx, a.cfg.HealthcheckPort)
		defer a.closeHealthcheck(ctx)
	}

	path := a.cfg.ConfigPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve working directory: %w", err)
		}
		path, err = fsutil.DiscoverConfig(wd)
		if err != nil {
			return err
		}
		a.logger.Debug("Discovered config file.", "path", path)
	}

	cfg, err := loader.NewLoader().Load(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	run, err := runner.New(ctx, cfg, runner.Options{
		Out:      a.outW,
		DryRun:   a.cfg.DryRun,
		Parallel: a.cfg.Parallel,
	})
	if err != nil {
		return err
	}

	if a.cfg.CheckOnly {
		a.logger.Info("✅ Configuration is valid.", "config", cfg.Path, "jobs", len(cfg.Jobs))
		return nil
	}

	a.logger.Info("🚀 Starting run.", "config", cfg.Path, "jobs", len(cfg.Jobs), "parallel", a.cfg.Parallel, "dry", a.cfg.DryRun)
	if a.cfg.JobName != "" {
		err = run.RunJob(ctx, a.cfg.JobName)
	} else {
		err = run.RunAll(ctx)
	}
	if err != nil {
		return err
	}

	a.logger.Info("🏁 Run finished.")
	return nil
}
