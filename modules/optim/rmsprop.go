package optim

import (
	"context"

	"github.com/vk/ganbootstrap/internal/component"
)

type RMSpropArgs struct {
	LR          float64 `cty:"lr,optional"`
	Alpha       float64 `cty:"alpha,optional"`
	Eps         float64 `cty:"eps,optional"`
	WeightDecay float64 `cty:"weight_decay,optional"`
	Momentum    float64 `cty:"momentum,optional"`
	Centered    bool    `cty:"centered,optional"`
}

func NewRMSpropArgs() *RMSpropArgs {
	return &RMSpropArgs{LR: 1e-2, Alpha: 0.99, Eps: 1e-8}
}

func (a *RMSpropArgs) Validate() error {
	if err := checkLR(a.LR); err != nil {
		return err
	}
	if err := checkNonNegative("alpha", a.Alpha); err != nil {
		return err
	}
	if err := checkNonNegative("eps", a.Eps); err != nil {
		return err
	}
	if err := checkNonNegative("momentum", a.Momentum); err != nil {
		return err
	}
	return checkNonNegative("weight_decay", a.WeightDecay)
}

// NewRMSprop binds an RMSprop optimizer to params.
func NewRMSprop(ctx context.Context, a *RMSpropArgs, params component.ParameterSet) (component.Optimizer, error) {
	return newOptimizer(ctx, "RMSprop", a.LR, params, map[string]any{
		"alpha":        a.Alpha,
		"eps":          a.Eps,
		"weight_decay": a.WeightDecay,
		"momentum":     a.Momentum,
		"centered":     a.Centered,
	})
}
