// Package lr_scheduler registers the learning rate schedulers. Every
// schedule is a pure function of the epoch and the base rate of the
// optimizer it is bound to; epoch 0 yields the base rate.
package lr_scheduler

import (
	"context"
	"math"

	"github.com/vk/ganbootstrap/internal/component"
	"github.com/vk/ganbootstrap/internal/ctxlog"
	"github.com/vk/ganbootstrap/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Scheduler is the bound form of every type in this package.
type Scheduler struct {
	name   string
	baseLR float64
	fn     func(base float64, epoch int) float64
}

func (s *Scheduler) Name() string { return s.name }

// LR returns the learning rate for epoch. Negative epochs are treated as 0.
func (s *Scheduler) LR(epoch int) float64 {
	if epoch < 0 {
		epoch = 0
	}
	return s.fn(s.baseLR, epoch)
}

func newScheduler(ctx context.Context, name string, opt component.Optimizer, fn func(float64, int) float64) *Scheduler {
	ctxlog.FromContext(ctx).Debug("Scheduler bound.", "type", name, "optimizer", opt.Name(), "base_lr", opt.BaseLR())
	return &Scheduler{name: name, baseLR: opt.BaseLR(), fn: fn}
}

// StepLRArgs decays the rate by gamma every step_size epochs.
type StepLRArgs struct {
	StepSize int     `cty:"step_size"`
	Gamma    float64 `cty:"gamma,optional"`
}

func NewStepLRArgs() *StepLRArgs { return &StepLRArgs{Gamma: 0.1} }

func (a *StepLRArgs) Validate() error {
	if a.StepSize <= 0 {
		return component.InvalidArg("step_size", "must be > 0, got %d", a.StepSize)
	}
	return checkGamma(a.Gamma)
}

func NewStepLR(ctx context.Context, a *StepLRArgs, opt component.Optimizer) (component.Scheduler, error) {
	step, gamma := a.StepSize, a.Gamma
	return newScheduler(ctx, "StepLR", opt, func(base float64, epoch int) float64 {
		return base * math.Pow(gamma, float64(epoch/step))
	}), nil
}

// ExponentialLRArgs decays the rate by gamma every epoch.
type ExponentialLRArgs struct {
	Gamma float64 `cty:"gamma"`
}

func NewExponentialLRArgs() *ExponentialLRArgs { return &ExponentialLRArgs{} }

func (a *ExponentialLRArgs) Validate() error { return checkGamma(a.Gamma) }

func NewExponentialLR(ctx context.Context, a *ExponentialLRArgs, opt component.Optimizer) (component.Scheduler, error) {
	gamma := a.Gamma
	return newScheduler(ctx, "ExponentialLR", opt, func(base float64, epoch int) float64 {
		return base * math.Pow(gamma, float64(epoch))
	}), nil
}

// CosineAnnealingLRArgs anneals the rate from the base value down to
// eta_min over T_max epochs, then back up, following a cosine.
type CosineAnnealingLRArgs struct {
	TMax   int     `cty:"T_max"`
	EtaMin float64 `cty:"eta_min,optional"`
}

func NewCosineAnnealingLRArgs() *CosineAnnealingLRArgs { return &CosineAnnealingLRArgs{} }

func (a *CosineAnnealingLRArgs) Validate() error {
	if a.TMax <= 0 {
		return component.InvalidArg("T_max", "must be > 0, got %d", a.TMax)
	}
	if math.IsNaN(a.EtaMin) || a.EtaMin < 0 {
		return component.InvalidArg("eta_min", "must be >= 0, got %v", a.EtaMin)
	}
	return nil
}

func NewCosineAnnealingLR(ctx context.Context, a *CosineAnnealingLRArgs, opt component.Optimizer) (component.Scheduler, error) {
	tmax, etaMin := float64(a.TMax), a.EtaMin
	return newScheduler(ctx, "CosineAnnealingLR", opt, func(base float64, epoch int) float64 {
		return etaMin + (base-etaMin)*(1+math.Cos(math.Pi*float64(epoch)/tmax))/2
	}), nil
}

func checkGamma(g float64) error {
	if math.IsNaN(g) || g <= 0 || g > 1 {
		return component.InvalidArg("gamma", "must be in (0, 1], got %v", g)
	}
	return nil
}

// Register registers the scheduler types.
func (m *Module) Register(r *registry.Registry) {
	registry.RegisterScheduler(r, "StepLR", NewStepLRArgs, NewStepLR)
	registry.RegisterScheduler(r, "ExponentialLR", NewExponentialLRArgs, NewExponentialLR)
	registry.RegisterScheduler(r, "CosineAnnealingLR", NewCosineAnnealingLRArgs, NewCosineAnnealingLR)
}
