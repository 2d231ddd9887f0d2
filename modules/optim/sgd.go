package optim

import (
	"context"

	"github.com/vk/ganbootstrap/internal/component"
)

// SGDArgs are the arguments of stochastic gradient descent. The learning
// rate has no default.
type SGDArgs struct {
	LR          float64 `cty:"lr"`
	Momentum    float64 `cty:"momentum,optional"`
	Dampening   float64 `cty:"dampening,optional"`
	WeightDecay float64 `cty:"weight_decay,optional"`
	Nesterov    bool    `cty:"nesterov,optional"`
}

func NewSGDArgs() *SGDArgs { return &SGDArgs{} }

func (a *SGDArgs) Validate() error {
	if err := checkLR(a.LR); err != nil {
		return err
	}
	if err := checkNonNegative("momentum", a.Momentum); err != nil {
		return err
	}
	if err := checkNonNegative("weight_decay", a.WeightDecay); err != nil {
		return err
	}
	if a.Nesterov && (a.Momentum <= 0 || a.Dampening != 0) {
		return component.InvalidArg("nesterov", "requires a positive momentum and zero dampening")
	}
	return nil
}

// NewSGD binds an SGD optimizer to params.
func NewSGD(ctx context.Context, a *SGDArgs, params component.ParameterSet) (component.Optimizer, error) {
	return newOptimizer(ctx, "SGD", a.LR, params, map[string]any{
		"momentum":     a.Momentum,
		"dampening":    a.Dampening,
		"weight_decay": a.WeightDecay,
		"nesterov":     a.Nesterov,
	})
}
