package hdgan

import (
	"context"

	"github.com/vk/ganbootstrap/internal/component"
	"github.com/vk/ganbootstrap/internal/ctxlog"
)

const GeneratorType = "HDGANGenerator"

// GeneratorArgs are the arguments of HDGANGenerator.
type GeneratorArgs struct {
	TextEmbedDim int   `cty:"text_embed_dim"`
	CACodeDim    int   `cty:"ca_code_dim"`
	NoiseDim     int   `cty:"noise_dim"`
	NumResblock  int   `cty:"num_resblock,optional"`
	SideOutputAt []int `cty:"side_output_at"`
}

func NewGeneratorArgs() *GeneratorArgs {
	return &GeneratorArgs{NumResblock: 1}
}

func (a *GeneratorArgs) Validate() error {
	if err := checkPositive("text_embed_dim", a.TextEmbedDim); err != nil {
		return err
	}
	if err := checkPositive("ca_code_dim", a.CACodeDim); err != nil {
		return err
	}
	if err := checkPositive("noise_dim", a.NoiseDim); err != nil {
		return err
	}
	if a.NumResblock < 0 {
		return component.InvalidArg("num_resblock", "must be >= 0, got %d", a.NumResblock)
	}
	return checkSideOutputs(a.SideOutputAt)
}

// generatorChannels is the feature width at a resolution: 512 at 4x4,
// halved at every upsampling step down to a floor of 32.
func generatorChannels(size int) int {
	ch := 512
	for s := baseSize; s < size && ch > 32; s *= 2 {
		ch /= 2
	}
	return ch
}

// NewGenerator lays out the generator's parameters: conditioning
// augmentation, the 4x4 seed projection, one upsampling block per scale,
// residual blocks at every side output after the first, and an RGB head at
// every side output.
func NewGenerator(ctx context.Context, a *GeneratorArgs) (component.Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	b := new(component.Builder).
		Linear("cond_aug.fc", a.TextEmbedDim, 2*a.CACodeDim).
		Linear("seed.fc", a.NoiseDim+a.CACodeDim, baseSize*baseSize*generatorChannels(baseSize)).
		Norm("seed.norm", generatorChannels(baseSize))

	side := make(map[int]int, len(a.SideOutputAt))
	for i, s := range a.SideOutputAt {
		side[s] = i
	}
	top := a.SideOutputAt[len(a.SideOutputAt)-1]
	for _, s := range scales(top) {
		in, out := generatorChannels(s/2), generatorChannels(s)
		name := scaleName("up", s)
		b.Conv2d(name+".conv", in, out, 3).Norm(name+".norm", out)

		idx, ok := side[s]
		if !ok {
			continue
		}
		if idx > 0 {
			for r := 0; r < a.NumResblock; r++ {
				res := scaleName("res", s) + "." + itoa(r)
				b.Conv2d(res+".conv1", out, out, 3).Norm(res+".norm1", out).
					Conv2d(res+".conv2", out, out, 3).Norm(res+".norm2", out)
			}
		}
		b.Conv2d(scaleName("to_rgb", s), out, 3, 3)
	}

	ps := b.Build()
	ctxlog.FromContext(ctx).Debug("Generator laid out.", "side_output_at", a.SideOutputAt, "tensors", len(ps), "elements", ps.Count())
	return component.NewNet(GeneratorType, ps), nil
}
