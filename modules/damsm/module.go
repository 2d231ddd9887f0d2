// Package damsm registers the Deep Attentional Multimodal Similarity Model
// encoders: a bidirectional LSTM over captions that produces the sentence
// embeddings the text-to-image models condition on, and an Inception v3
// image encoder projected into the same space.
package damsm

import (
	"github.com/vk/ganbootstrap/internal/component"
	"github.com/vk/ganbootstrap/internal/registry"
)

const (
	RNNEncoderType = "DAMSM_RNN_Encoder"
	CNNEncoderType = "DAMSM_CNN_Encoder"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Encoder is a DAMSM encoder together with the width of the embedding it
// produces.
type Encoder struct {
	*component.Net
	embedSize int
}

// EmbedSize is the width of the sentence or global image embedding.
func (e *Encoder) EmbedSize() int { return e.embedSize }

func checkPositive(arg string, v int) error {
	if v <= 0 {
		return component.InvalidArg(arg, "must be > 0, got %d", v)
	}
	return nil
}

// Register registers both encoders.
func (m *Module) Register(r *registry.Registry) {
	registry.RegisterModel(r, RNNEncoderType, NewRNNEncoderArgs, NewRNNEncoder)
	registry.RegisterModel(r, CNNEncoderType, NewCNNEncoderArgs, NewCNNEncoder)
}
