package hdgan

import (
	"context"
	"strconv"

	"github.com/vk/ganbootstrap/internal/component"
	"github.com/vk/ganbootstrap/internal/ctxlog"
)

const DiscriminatorType = "HDGANDiscriminator"

// DiscriminatorArgs are the arguments of HDGANDiscriminator.
type DiscriminatorArgs struct {
	NumChan      int   `cty:"num_chan,optional"`
	HidDim       int   `cty:"hid_dim,optional"`
	TextEmbedDim int   `cty:"text_embed_dim"`
	EmbDim       int   `cty:"emb_dim,optional"`
	SideOutputAt []int `cty:"side_output_at"`
}

func NewDiscriminatorArgs() *DiscriminatorArgs {
	return &DiscriminatorArgs{NumChan: 3, HidDim: 128, EmbDim: 128}
}

func (a *DiscriminatorArgs) Validate() error {
	for _, c := range []struct {
		arg string
		v   int
	}{
		{"num_chan", a.NumChan},
		{"hid_dim", a.HidDim},
		{"text_embed_dim", a.TextEmbedDim},
		{"emb_dim", a.EmbDim},
	} {
		if err := checkPositive(c.arg, c.v); err != nil {
			return err
		}
	}
	return checkSideOutputs(a.SideOutputAt)
}

// NewDiscriminator lays out one judge per side output. Each judge encodes
// the image down to 4x4, projects the sentence embedding to emb_dim, and
// carries a pair head (image and text) and a local image head.
func NewDiscriminator(ctx context.Context, a *DiscriminatorArgs) (component.Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	b := new(component.Builder)
	for _, s := range a.SideOutputAt {
		name := scaleName("judge", s)
		ch := a.HidDim
		b.Conv2d(name+".from_rgb", a.NumChan, ch, 3)
		for step, size := 0, s; size > baseSize; step, size = step+1, size/2 {
			next := ch
			if next < a.HidDim*8 {
				next *= 2
			}
			down := name + ".down." + itoa(step)
			b.Conv2d(down+".conv", ch, next, 4).Norm(down+".norm", next)
			ch = next
		}
		b.Linear(name+".text", a.TextEmbedDim, a.EmbDim).
			Conv2d(name+".pair", ch+a.EmbDim, 1, baseSize).
			Conv2d(name+".local", ch, 1, 1)
	}

	ps := b.Build()
	ctxlog.FromContext(ctx).Debug("Discriminator laid out.", "side_output_at", a.SideOutputAt, "tensors", len(ps), "elements", ps.Count())
	return component.NewNet(DiscriminatorType, ps), nil
}

func itoa(i int) string { return strconv.Itoa(i) }
