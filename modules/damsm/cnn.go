package damsm

import (
	"context"
	"fmt"

	"github.com/vk/ganbootstrap/internal/component"
)

const (
	// regionChannels is the width of Mixed_6e, whose 17x17 map gives the
	// region features.
	regionChannels = 768
	// globalChannels is the width of Mixed_7c after average pooling.
	globalChannels = 2048
)

type CNNEncoderArgs struct {
	EmbeddingSize int `cty:"embedding_size,optional"`
}

func NewCNNEncoderArgs() *CNNEncoderArgs { return &CNNEncoderArgs{EmbeddingSize: 256} }

func (a *CNNEncoderArgs) Validate() error { return checkPositive("embedding_size", a.EmbeddingSize) }

// inception lays out the pretrained Inception v3 body up to Mixed_7c,
// without the auxiliary and classification heads. Every convolution is
// followed by batch norm and has no bias.
type inception struct {
	b *component.Builder
}

func (n inception) conv(name string, in, out, kh, kw int) {
	n.b.Add(name+".conv.weight", out, in, kh, kw).Norm(name+".bn", out)
}

func (n inception) blockA(name string, in, poolFeatures int) int {
	n.conv(name+".branch1x1", in, 64, 1, 1)
	n.conv(name+".branch5x5_1", in, 48, 1, 1)
	n.conv(name+".branch5x5_2", 48, 64, 5, 5)
	n.conv(name+".branch3x3dbl_1", in, 64, 1, 1)
	n.conv(name+".branch3x3dbl_2", 64, 96, 3, 3)
	n.conv(name+".branch3x3dbl_3", 96, 96, 3, 3)
	n.conv(name+".branch_pool", in, poolFeatures, 1, 1)
	return 64 + 64 + 96 + poolFeatures
}

func (n inception) blockB(name string, in int) int {
	n.conv(name+".branch3x3", in, 384, 3, 3)
	n.conv(name+".branch3x3dbl_1", in, 64, 1, 1)
	n.conv(name+".branch3x3dbl_2", 64, 96, 3, 3)
	n.conv(name+".branch3x3dbl_3", 96, 96, 3, 3)
	return 384 + 96 + in
}

func (n inception) blockC(name string, in, c7 int) int {
	n.conv(name+".branch1x1", in, 192, 1, 1)
	n.conv(name+".branch7x7_1", in, c7, 1, 1)
	n.conv(name+".branch7x7_2", c7, c7, 1, 7)
	n.conv(name+".branch7x7_3", c7, 192, 7, 1)
	n.conv(name+".branch7x7dbl_1", in, c7, 1, 1)
	n.conv(name+".branch7x7dbl_2", c7, c7, 7, 1)
	n.conv(name+".branch7x7dbl_3", c7, c7, 1, 7)
	n.conv(name+".branch7x7dbl_4", c7, c7, 7, 1)
	n.conv(name+".branch7x7dbl_5", c7, 192, 1, 7)
	n.conv(name+".branch_pool", in, 192, 1, 1)
	return 4 * 192
}

func (n inception) blockD(name string, in int) int {
	n.conv(name+".branch3x3_1", in, 192, 1, 1)
	n.conv(name+".branch3x3_2", 192, 320, 3, 3)
	n.conv(name+".branch7x7x3_1", in, 192, 1, 1)
	n.conv(name+".branch7x7x3_2", 192, 192, 1, 7)
	n.conv(name+".branch7x7x3_3", 192, 192, 7, 1)
	n.conv(name+".branch7x7x3_4", 192, 192, 3, 3)
	return 320 + 192 + in
}

func (n inception) blockE(name string, in int) int {
	n.conv(name+".branch1x1", in, 320, 1, 1)
	n.conv(name+".branch3x3_1", in, 384, 1, 1)
	n.conv(name+".branch3x3_2a", 384, 384, 1, 3)
	n.conv(name+".branch3x3_2b", 384, 384, 3, 1)
	n.conv(name+".branch3x3dbl_1", in, 448, 1, 1)
	n.conv(name+".branch3x3dbl_2", 448, 384, 3, 3)
	n.conv(name+".branch3x3dbl_3a", 384, 384, 1, 3)
	n.conv(name+".branch3x3dbl_3b", 384, 384, 3, 1)
	n.conv(name+".branch_pool", in, 192, 1, 1)
	return 320 + 2*384 + 2*384 + 192
}

// body adds every layer and returns the widths of Mixed_6e and Mixed_7c.
func (n inception) body() (region, global int) {
	n.conv("Conv2d_1a_3x3", 3, 32, 3, 3)
	n.conv("Conv2d_2a_3x3", 32, 32, 3, 3)
	n.conv("Conv2d_2b_3x3", 32, 64, 3, 3)
	n.conv("Conv2d_3b_1x1", 64, 80, 1, 1)
	n.conv("Conv2d_4a_3x3", 80, 192, 3, 3)

	ch := 192
	for i, pool := range []int{32, 64, 64} {
		ch = n.blockA(fmt.Sprintf("Mixed_5%c", 'b'+i), ch, pool)
	}
	ch = n.blockB("Mixed_6a", ch)
	for i, c7 := range []int{128, 160, 160, 192} {
		ch = n.blockC(fmt.Sprintf("Mixed_6%c", 'b'+i), ch, c7)
	}
	region = ch
	ch = n.blockD("Mixed_7a", ch)
	ch = n.blockE("Mixed_7b", ch)
	global = n.blockE("Mixed_7c", ch)
	return region, global
}

// NewCNNEncoder lays out the image encoder: a frozen Inception v3 body and
// two trainable projections into embedding_size, one for the region
// features and one for the global image code.
func NewCNNEncoder(_ context.Context, a *CNNEncoderArgs) (component.Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	b := new(component.Builder).Frozen()
	region, global := inception{b: b}.body()
	if region != regionChannels || global != globalChannels {
		return nil, fmt.Errorf("inception body widths %d/%d, want %d/%d", region, global, regionChannels, globalChannels)
	}
	ps := b.Unfrozen().
		Add("emb_features.weight", a.EmbeddingSize, region, 1, 1).
		Linear("emb_cnn_code", global, a.EmbeddingSize).
		Build()
	return &Encoder{Net: component.NewNet(CNNEncoderType, ps), embedSize: a.EmbeddingSize}, nil
}
