package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/ganbootstrap/internal/checkpoint"
	"github.com/vk/ganbootstrap/internal/config"
	"github.com/vk/ganbootstrap/internal/ctxlog"
	"github.com/vk/ganbootstrap/internal/dashboard"
	"github.com/vk/ganbootstrap/internal/resolver"
	"github.com/vk/ganbootstrap/internal/trainer"
)

// RunIDLayout is the time layout of default run ids.
const RunIDLayout = "0102_150405"

// UnnamedRun is the directory segment used for experiments with an empty
// name.
const UnnamedRun = "unnamed"

// SnapshotName is the stem of the effective configuration written into the
// run's save directory.
const SnapshotName = "config"

// ErrNoEngine is returned when a run asks for something only a training
// engine can provide, such as resuming or serving progress, and none is
// attached.
var ErrNoEngine = errors.New("no training engine attached")

// Result describes what a run resolved and where it wrote.
type Result struct {
	Experiment *resolver.Experiment
	RunID      string
	// SaveDir holds the configuration snapshot and the checkpoints.
	SaveDir string
	// LogDir holds the scalar event log; empty unless tensorboardX is on.
	LogDir  string
	Summary *trainer.Summary
}

// Run executes the main application logic based on the provided configuration.
// Nothing is written to disk and no dashboard is contacted until the whole
// experiment has resolved.
func (a *App) Run(ctx context.Context) (*Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	if a.config.ListTypes {
		return nil, a.listTypes()
	}
	if a.newRunner == nil {
		if a.config.Resume != "" {
			return nil, fmt.Errorf("%w: resuming from %s needs one", ErrNoEngine, a.config.Resume)
		}
		if a.config.HealthcheckPort > 0 {
			return nil, fmt.Errorf("%w: the healthcheck server reports training progress", ErrNoEngine)
		}
	}

	raw, conv, err := a.loader.Load(ctx, a.config.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := raw.Apply(a.config.Overrides...); err != nil {
		return nil, err
	}
	if len(a.config.Overrides) > 0 {
		a.logger.Info("Configuration overrides applied.", "count", len(a.config.Overrides))
	}

	exp, err := resolver.New(a.registry, conv).Resolve(ctx, raw)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := exp.Close(); err != nil {
			a.logger.Warn("Failed to release components.", "error", err)
		}
	}()

	tcfg := exp.Trainer
	if a.config.LogLevel == "" {
		a.level.Set(tcfg.LogLevel())
	}

	res := &Result{Experiment: exp, RunID: a.config.RunID}
	if res.RunID == "" {
		res.RunID = a.now().Format(RunIDLayout)
	}
	dirName := exp.Name
	if dirName == "" {
		dirName = UnnamedRun
	}
	res.SaveDir = filepath.Join(tcfg.SaveDir(), "models", dirName, res.RunID)
	if tcfg.TensorboardX() {
		res.LogDir = filepath.Join(tcfg.LogDir(), dirName, res.RunID)
	}
	a.logger.Info("🗂️ Run prepared.", "name", exp.Name, "run_id", res.RunID, "save_dir", res.SaveDir, "log_dir", res.LogDir)

	var loopOpts []trainer.LoopOption
	if a.config.Resume != "" {
		resume, err := loadResume(a.config.Resume, exp.Name)
		if err != nil {
			return nil, err
		}
		a.logger.Info("⏪ Resuming.", "from", a.config.Resume, "epoch", resume.Epoch)
		loopOpts = append(loopOpts, trainer.WithResume(resume))
	}

	if a.config.DryRun {
		a.logger.Info("Dry run: configuration is valid, nothing was written.")
		return res, nil
	}

	if err := os.MkdirAll(res.SaveDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating save dir: %w", err)
	}
	if err := a.writeSnapshot(raw, res.SaveDir); err != nil {
		return nil, err
	}

	if a.newRunner == nil {
		a.logger.Warn("No training engine attached; the experiment is resolved and the run directory is ready.")
		return res, nil
	}

	writer, err := a.openDashboards(ctx, tcfg, res)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := writer.Close(); err != nil {
			a.logger.Warn("Failed to close dashboards.", "error", err)
		}
	}()

	runner, err := a.newRunner(ctx, exp)
	if err != nil {
		return nil, fmt.Errorf("creating training engine: %w", err)
	}

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	var ckptOpts []checkpoint.Option
	if a.saver != nil {
		ckptOpts = append(ckptOpts, checkpoint.WithStateSaver(a.saver))
	}
	loopOpts = append(loopOpts,
		trainer.WithCheckpointer(checkpoint.NewManager(res.SaveDir, exp, ckptOpts...)),
		trainer.WithScalarWriter(writer),
		trainer.WithProgress(a.progress),
	)

	a.logger.Info("🚀 Starting training...", "epochs", tcfg.Epochs(), "monitor", tcfg.Monitor().String())
	res.Summary, err = trainer.NewLoop(tcfg, runner, loopOpts...).Run(ctx)
	if err != nil {
		return res, fmt.Errorf("training failed: %w", err)
	}
	a.logger.Info("🏁 Training finished.", "epochs_run", res.Summary.EpochsRun)

	a.logger.Debug("App.Run method finished.")
	return res, nil
}

func (a *App) writeSnapshot(exp *config.Experiment, dir string) error {
	s, ok := a.loader.(config.Snapshotter)
	if !ok {
		a.logger.Debug("Loader cannot snapshot configuration; skipping.")
		return nil
	}
	data, err := s.Snapshot(exp)
	if err != nil {
		return fmt.Errorf("rendering configuration snapshot: %w", err)
	}
	path := filepath.Join(dir, SnapshotName+s.SnapshotExt())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing configuration snapshot: %w", err)
	}
	a.logger.Debug("Configuration snapshot written.", "path", path)
	return nil
}

func (a *App) openDashboards(ctx context.Context, tcfg *trainer.Config, res *Result) (dashboard.Writer, error) {
	var writers []dashboard.Writer
	if tcfg.TensorboardX() {
		w, err := dashboard.NewScalarFile(res.LogDir, res.RunID)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	if url := tcfg.DashboardURL(); url != "" {
		w, err := a.dial(ctx, url, res.RunID)
		if err != nil {
			a.logger.Warn("Dashboard unavailable; continuing without it.", "url", url, "error", err)
		} else {
			writers = append(writers, w)
		}
	}
	return dashboard.Combine(writers...), nil
}

// loadResume accepts a manifest or a directory of them. Manifests written by
// another experiment are not resume points.
func loadResume(path, name string) (trainer.Resume, error) {
	info, err := os.Stat(path)
	if err != nil {
		return trainer.Resume{}, fmt.Errorf("resume: %w", err)
	}
	if info.IsDir() {
		latest, err := checkpoint.Latest(path, name)
		if err != nil {
			return trainer.Resume{}, fmt.Errorf("resume: %w", err)
		}
		if latest == "" {
			return trainer.Resume{}, fmt.Errorf("resume: no checkpoint of %q found in %s", name, path)
		}
		path = latest
	}
	m, err := checkpoint.Load(path)
	if err != nil {
		return trainer.Resume{}, fmt.Errorf("resume: %w", err)
	}
	if m.Name() != name {
		return trainer.Resume{}, fmt.Errorf("resume: %s belongs to experiment %q, not %q", path, m.Name(), name)
	}
	return m.Resume(), nil
}
