// Package hdgan registers the hierarchically-nested GAN used for
// text-to-image synthesis: a generator with side outputs at several image
// resolutions and a discriminator that judges each of them.
package hdgan

import (
	"fmt"

	"github.com/vk/ganbootstrap/internal/component"
	"github.com/vk/ganbootstrap/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

const (
	baseSize      = 4
	minSideOutput = 64
	maxSideOutput = 512
)

// checkSideOutputs requires a non-empty, strictly increasing list of powers
// of two between 64 and 512.
func checkSideOutputs(sizes []int) error {
	if len(sizes) == 0 {
		return component.InvalidArg("side_output_at", "must list at least one resolution")
	}
	for i, s := range sizes {
		if s < minSideOutput || s > maxSideOutput || s&(s-1) != 0 {
			return component.InvalidArg("side_output_at", "resolution %d at index %d must be a power of two in [%d, %d]", s, i, minSideOutput, maxSideOutput)
		}
		if i > 0 && s <= sizes[i-1] {
			return component.InvalidArg("side_output_at", "resolutions must be strictly increasing, got %d after %d", s, sizes[i-1])
		}
	}
	return nil
}

func checkPositive(arg string, v int) error {
	if v <= 0 {
		return component.InvalidArg(arg, "must be > 0, got %d", v)
	}
	return nil
}

// scales returns every resolution from 8 up to and including top.
func scales(top int) []int {
	var out []int
	for s := baseSize * 2; s <= top; s *= 2 {
		out = append(out, s)
	}
	return out
}

func scaleName(prefix string, size int) string {
	return fmt.Sprintf("%s_%d", prefix, size)
}

// Register registers the generator and the discriminator.
func (m *Module) Register(r *registry.Registry) {
	registry.RegisterModel(r, GeneratorType, NewGeneratorArgs, NewGenerator)
	registry.RegisterModel(r, DiscriminatorType, NewDiscriminatorArgs, NewDiscriminator)
}
