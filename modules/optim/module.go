// Package optim registers the optimizer types: Adam, SGD and RMSprop.
package optim

import (
	"context"
	"errors"
	"math"

	"github.com/vk/ganbootstrap/internal/component"
	"github.com/vk/ganbootstrap/internal/ctxlog"
	"github.com/vk/ganbootstrap/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Optimizer is the bound form of every type in this package.
type Optimizer struct {
	name   string
	lr     float64
	params component.ParameterSet
	hyper  map[string]any
}

func (o *Optimizer) Name() string { return o.name }
func (o *Optimizer) BaseLR() float64 { return o.lr }
func (o *Optimizer) Params() component.ParameterSet { return o.params.Clone() }

// Hyperparameters returns a copy of the optimizer settings, "lr" included.
func (o *Optimizer) Hyperparameters() map[string]any {
	out := make(map[string]any, len(o.hyper))
	for k, v := range o.hyper {
		if s, ok := v.([]float64); ok {
			v = append([]float64(nil), s...)
		}
		out[k] = v
	}
	return out
}

var errNoParams = errors.New("optimizer got an empty parameter list")

func newOptimizer(ctx context.Context, name string, lr float64, params component.ParameterSet, hyper map[string]any) (*Optimizer, error) {
	if len(params) == 0 {
		return nil, errNoParams
	}
	hyper["lr"] = lr
	ctxlog.FromContext(ctx).Debug("Optimizer bound.", "type", name, "lr", lr, "params", len(params), "elements", params.Count())
	return &Optimizer{name: name, lr: lr, params: params.Clone(), hyper: hyper}, nil
}

func checkLR(lr float64) error {
	if math.IsNaN(lr) || lr < 0 {
		return component.InvalidArg("lr", "must be >= 0, got %v", lr)
	}
	return nil
}

func checkNonNegative(arg string, v float64) error {
	if math.IsNaN(v) || v < 0 {
		return component.InvalidArg(arg, "must be >= 0, got %v", v)
	}
	return nil
}

// Register registers the optimizer types.
func (m *Module) Register(r *registry.Registry) {
	registry.RegisterOptimizer(r, "Adam", NewAdamArgs, NewAdam)
	registry.RegisterOptimizer(r, "SGD", NewSGDArgs, NewSGD)
	registry.RegisterOptimizer(r, "RMSprop", NewRMSpropArgs, NewRMSprop)
}
