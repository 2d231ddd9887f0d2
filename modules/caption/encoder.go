package caption

import (
	"context"
	"fmt"

	"github.com/vk/ganbootstrap/internal/component"
)

const (
	adaptivePoolSize = 4
	backboneOut      = 512
)

type EncoderArgs struct {
	ImageEmbedSize int `cty:"image_embed_size,optional"`
}

func NewEncoderArgs() *EncoderArgs { return &EncoderArgs{ImageEmbedSize: 256} }

func (a *EncoderArgs) Validate() error { return checkPositive("image_embed_size", a.ImageEmbedSize) }

// resnet34 adds a ResNet-34 backbone without its pooling and classifier
// heads. The stem and the first three stages are frozen; only the last
// stage is fine-tuned.
func resnet34(b *component.Builder, prefix string) {
	conv := func(name string, in, out, k int) {
		b.Add(name+".weight", out, in, k, k)
	}

	b.Frozen()
	conv(prefix+".conv1", 3, 64, 7)
	b.Norm(prefix+".bn1", 64)

	stages := []struct{ blocks, width int }{{3, 64}, {4, 128}, {6, 256}, {3, 512}}
	in := 64
	for i, st := range stages {
		if i == len(stages)-1 {
			b.Unfrozen()
		}
		for blk := 0; blk < st.blocks; blk++ {
			name := fmt.Sprintf("%s.layer%d.%d", prefix, i+1, blk)
			conv(name+".conv1", in, st.width, 3)
			b.Norm(name+".bn1", st.width)
			conv(name+".conv2", st.width, st.width, 3)
			b.Norm(name+".bn2", st.width)
			if in != st.width {
				conv(name+".downsample.0", in, st.width, 1)
				b.Norm(name+".downsample.1", st.width)
			}
			in = st.width
		}
	}
}

func encoderParams(embed int) component.ParameterSet {
	b := new(component.Builder)
	resnet34(b, "resnet")
	return b.Unfrozen().
		Linear("linear", backboneOut*adaptivePoolSize*adaptivePoolSize, embed).
		Build()
}

// NewEncoderCNN lays out a pretrained ResNet-34 backbone followed by a
// linear projection of its pooled features to image_embed_size.
func NewEncoderCNN(_ context.Context, a *EncoderArgs) (component.Model, error) {
	return component.NewNet("EncoderCNN", encoderParams(a.ImageEmbedSize)), nil
}
