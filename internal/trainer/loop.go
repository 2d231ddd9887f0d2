package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/ganbootstrap/internal/ctxlog"
)

// EpochRunner performs one epoch of training and validation and returns
// the epoch's metric log (e.g. "loss", "val_loss").
type EpochRunner interface {
	RunEpoch(ctx context.Context, epoch int) (map[string]float64, error)
}

// State is what a Checkpointer is asked to persist at the end of an epoch.
type State struct {
	Epoch   int
	Metrics map[string]float64
	Monitor Monitor
	Best    float64
	// Periodic is set on every save_period-th epoch.
	Periodic bool
	// IsBest is set when the monitored metric improved and save_best is on.
	IsBest bool
}

// Checkpointer persists training state.
type Checkpointer interface {
	Save(ctx context.Context, st State) error
}

// ScalarWriter receives each epoch's metric log.
type ScalarWriter interface {
	AddScalars(ctx context.Context, epoch int, scalars map[string]float64) error
}

// Summary describes a finished run.
type Summary struct {
	EpochsRun    int
	LastEpoch    int
	StoppedEarly bool
	Monitor      Monitor
	Best         float64
	BestEpoch    int
}

// Resume is the state a run continues from.
type Resume struct {
	// Epoch is the last completed epoch.
	Epoch int
	// Best is the best monitored value so far; it is used only when
	// HasBest is set.
	Best    float64
	HasBest bool
}

// Loop drives the epochs of one run.
type Loop struct {
	cfg      *Config
	runner   EpochRunner
	ckpt     Checkpointer
	writer   ScalarWriter
	progress *Progress
	resume   *Resume
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithCheckpointer sets where checkpoints are saved.
func WithCheckpointer(c Checkpointer) LoopOption { return func(l *Loop) { l.ckpt = c } }

// WithScalarWriter sets the dashboard the metric logs are sent to.
func WithScalarWriter(w ScalarWriter) LoopOption { return func(l *Loop) { l.writer = w } }

// WithProgress publishes live progress, e.g. for a status endpoint.
func WithProgress(p *Progress) LoopOption { return func(l *Loop) { l.progress = p } }

// WithResume continues a previous run after its last completed epoch.
func WithResume(r Resume) LoopOption { return func(l *Loop) { l.resume = &r } }

// NewLoop creates a loop for a validated config.
func NewLoop(cfg *Config, runner EpochRunner, opts ...LoopOption) *Loop {
	l := &Loop{cfg: cfg, runner: runner}
	for _, opt := range opts {
		opt(l)
	}
	if l.progress == nil {
		l.progress = NewProgress()
	}
	return l
}

// Run executes the remaining epochs. It stops early when the monitored
// metric has not improved for more than early_stop epochs, and between
// epochs when ctx is cancelled.
func (l *Loop) Run(ctx context.Context) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)

	monitor := l.cfg.Monitor()
	best := monitor.Worst()
	start := 1
	if l.resume != nil {
		start = l.resume.Epoch + 1
		if monitor.Enabled() && l.resume.HasBest {
			best = l.resume.Best
		}
		logger.Info("▶️ Resuming training.", "from_epoch", start)
	}

	sum := &Summary{Monitor: monitor, Best: best}
	l.progress.start(l.cfg.Epochs(), monitor)
	notImproved := 0

	for epoch := start; epoch <= l.cfg.Epochs(); epoch++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("Training interrupted.", "epoch", epoch, "error", err)
			return sum, err
		}

		metrics, err := l.runner.RunEpoch(ctx, epoch)
		if err != nil {
			return sum, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		sum.EpochsRun++
		sum.LastEpoch = epoch
		l.logEpoch(logger, epoch, metrics)

		if l.writer != nil {
			if err := l.writer.AddScalars(ctx, epoch, metrics); err != nil {
				logger.Warn("Failed to write epoch scalars.", "epoch", epoch, "error", err)
			}
		}

		improved := false
		if monitor.Enabled() {
			value, ok := metrics[monitor.Metric]
			if !ok {
				logger.Warn("Monitored metric not found in epoch log; monitoring is disabled.", "metric", monitor.Metric)
				monitor = MonitorOff
				sum.Monitor = monitor
			} else if monitor.Improved(value, best) {
				best, improved = value, true
				sum.Best, sum.BestEpoch = best, epoch
				notImproved = 0
			} else {
				notImproved++
			}
		}
		l.progress.update(epoch, metrics, monitor, sum.Best, sum.BestEpoch)

		periodic := epoch%l.cfg.SavePeriod() == 0
		isBest := improved && l.cfg.SaveBest()
		if l.ckpt != nil && (periodic || isBest) {
			st := State{Epoch: epoch, Metrics: metrics, Monitor: monitor, Best: best, Periodic: periodic, IsBest: isBest}
			if err := l.ckpt.Save(ctx, st); err != nil {
				return sum, fmt.Errorf("epoch %d: saving checkpoint: %w", epoch, err)
			}
		}

		if patience := l.cfg.EarlyStop(); monitor.Enabled() && patience > 0 && notImproved > patience {
			logger.Info("⏹️ Validation performance didn't improve; training stops.", "epochs_without_improvement", notImproved, "metric", monitor.Metric)
			sum.StoppedEarly = true
			break
		}
	}

	logger.Info("✅ Training finished.", "epochs_run", sum.EpochsRun, "stopped_early", sum.StoppedEarly)
	return sum, nil
}

// logEpoch writes the epoch log one metric per line, sorted by name.
func (l *Loop) logEpoch(logger *slog.Logger, epoch int, metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	logger.Info("Epoch finished.", "epoch", epoch, "epochs", l.cfg.Epochs())
	for _, name := range names {
		logger.Info("Epoch metric.", "epoch", epoch, "name", name, "value", metrics[name])
	}
}
