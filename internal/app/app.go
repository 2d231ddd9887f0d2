package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vk/ganbootstrap/internal/checkpoint"
	"github.com/vk/ganbootstrap/internal/config"
	"github.com/vk/ganbootstrap/internal/ctxlog"
	"github.com/vk/ganbootstrap/internal/dashboard"
	"github.com/vk/ganbootstrap/internal/registry"
	"github.com/vk/ganbootstrap/internal/resolver"
	"github.com/vk/ganbootstrap/internal/trainer"
)

// RunnerFactory creates the numeric side of training for a resolved
// experiment.
type RunnerFactory func(ctx context.Context, exp *resolver.Experiment) (trainer.EpochRunner, error)

// DashboardDialer connects to a live dashboard.
type DashboardDialer func(ctx context.Context, url, run string) (dashboard.Writer, error)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	level    *slog.LevelVar
	config   *Config
	registry *registry.Registry
	loader   config.Loader

	newRunner RunnerFactory
	saver     checkpoint.StateSaver
	dial      DashboardDialer
	now       func() time.Time

	progress   *trainer.Progress
	httpServer *http.Server
	ctx        context.Context
}

// Option configures an App.
type Option func(*App)

// WithModules replaces the compiled-in modules.
func WithModules(modules ...registry.Module) Option {
	return func(a *App) { a.registry = newRegistry(modules) }
}

// WithRunner attaches the training engine. Without one, Run stops after the
// experiment is resolved and the run directory is prepared.
func WithRunner(f RunnerFactory) Option { return func(a *App) { a.newRunner = f } }

// WithStateSaver persists weights next to every checkpoint manifest.
func WithStateSaver(s checkpoint.StateSaver) Option { return func(a *App) { a.saver = s } }

// WithDashboardDialer replaces the socket.io dashboard connection.
func WithDashboardDialer(d DashboardDialer) Option { return func(a *App) { a.dial = d } }

// WithClock sets the clock used for default run ids.
func WithClock(now func() time.Time) Option { return func(a *App) { a.now = now } }

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and sealed
// registry.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, opts ...Option) *App {
	level := new(slog.LevelVar)
	if l, ok := parseLevel(appConfig.LogLevel); ok {
		level.Set(l)
	}
	logger := newLogger(level, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:     outW,
		logger:   logger,
		level:    level,
		config:   appConfig,
		loader:   loader,
		dial:     dialSocketIO,
		now:      time.Now,
		progress: trainer.NewProgress(),
		ctx:      ctx,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = newRegistry(coreModules)
	}
	logger.Debug("All Go modules registered.", "types", len(a.registry.Describe()))
	return a
}

func newRegistry(modules []registry.Module) *registry.Registry {
	reg := registry.New()
	for _, mod := range modules {
		mod.Register(reg)
	}
	reg.Seal()
	return reg
}

func dialSocketIO(ctx context.Context, url, run string) (dashboard.Writer, error) {
	return dashboard.NewSocketIO(ctx, url, run)
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Progress returns the live state of the current run.
func (a *App) Progress() *trainer.Progress {
	return a.progress
}
