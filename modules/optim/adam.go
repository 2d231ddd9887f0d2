package optim

import (
	"context"

	"github.com/vk/ganbootstrap/internal/component"
)

// AdamArgs are the arguments of the Adam optimizer.
type AdamArgs struct {
	LR          float64   `cty:"lr,optional"`
	Betas       []float64 `cty:"betas,optional"`
	Eps         float64   `cty:"eps,optional"`
	WeightDecay float64   `cty:"weight_decay,optional"`
	AMSGrad     bool      `cty:"amsgrad,optional"`
}

// NewAdamArgs returns the Adam defaults.
func NewAdamArgs() *AdamArgs {
	return &AdamArgs{LR: 1e-3, Betas: []float64{0.9, 0.999}, Eps: 1e-8}
}

func (a *AdamArgs) Validate() error {
	if err := checkLR(a.LR); err != nil {
		return err
	}
	if len(a.Betas) != 2 {
		return component.InvalidArg("betas", "must have exactly 2 values, got %d", len(a.Betas))
	}
	for i, b := range a.Betas {
		if !(b >= 0 && b < 1) {
			return component.InvalidArg("betas", "beta at index %d must be in [0, 1), got %v", i, b)
		}
	}
	if err := checkNonNegative("eps", a.Eps); err != nil {
		return err
	}
	return checkNonNegative("weight_decay", a.WeightDecay)
}

// NewAdam binds an Adam optimizer to params.
func NewAdam(ctx context.Context, a *AdamArgs, params component.ParameterSet) (component.Optimizer, error) {
	return newOptimizer(ctx, "Adam", a.LR, params, map[string]any{
		"betas":        append([]float64(nil), a.Betas...),
		"eps":          a.Eps,
		"weight_decay": a.WeightDecay,
		"amsgrad":      a.AMSGrad,
	})
}
