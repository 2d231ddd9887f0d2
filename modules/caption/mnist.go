package caption

import (
	"context"

	"github.com/vk/ganbootstrap/internal/component"
)

type MnistArgs struct {
	NumClasses int `cty:"num_classes,optional"`
}

func NewMnistArgs() *MnistArgs { return &MnistArgs{NumClasses: 10} }

func (a *MnistArgs) Validate() error { return checkPositive("num_classes", a.NumClasses) }

// NewMnistModel lays out two 5x5 convolutions followed by two linear layers.
func NewMnistModel(_ context.Context, a *MnistArgs) (component.Model, error) {
	ps := new(component.Builder).
		Conv2d("conv1", 1, 10, 5).
		Conv2d("conv2", 10, 20, 5).
		Linear("fc1", 320, 50).
		Linear("fc2", 50, a.NumClasses).
		Build()
	return component.NewNet("MnistModel", ps), nil
}
