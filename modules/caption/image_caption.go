package caption

import (
	"context"
	"errors"

	"github.com/vk/ganbootstrap/internal/component"
)

type ImageCaptionArgs struct {
	ImageEmbedSize int `cty:"image_embed_size"`
	WordEmbedSize  int `cty:"word_embed_size"`
	LSTMHiddenSize int `cty:"lstm_hidden_size"`
	VocabSize      int `cty:"vocab_size"`
	LSTMNumLayers  int `cty:"lstm_num_layers,optional"`
}

func NewImageCaptionArgs() *ImageCaptionArgs { return &ImageCaptionArgs{LSTMNumLayers: 1} }

// Validate also checks that the image features fit the decoder: they are fed
// as the first token of the caption sequence.
func (a *ImageCaptionArgs) Validate() error {
	if err := checkPositive("image_embed_size", a.ImageEmbedSize); err != nil {
		return err
	}
	dec := &DecoderArgs{WordEmbedSize: a.WordEmbedSize, LSTMHiddenSize: a.LSTMHiddenSize, VocabSize: a.VocabSize, NumLayers: a.LSTMNumLayers}
	if err := dec.Validate(); err != nil {
		var argErr *component.ArgError
		if errors.As(err, &argErr) && argErr.Arg == "num_layers" {
			argErr.Arg = "lstm_num_layers"
		}
		return err
	}
	if a.WordEmbedSize != a.ImageEmbedSize {
		return component.InvalidArg("word_embed_size", "must equal image_embed_size (%d), got %d", a.ImageEmbedSize, a.WordEmbedSize)
	}
	return nil
}

// NewImageCaptionModel combines an encoder and a decoder under the
// "encoder." and "decoder." prefixes.
func NewImageCaptionModel(_ context.Context, a *ImageCaptionArgs) (component.Model, error) {
	ps := new(component.Builder).
		Extend(encoderParams(a.ImageEmbedSize).Prefixed("encoder")).
		Extend(decoderParams(a.WordEmbedSize, a.LSTMHiddenSize, a.VocabSize, a.LSTMNumLayers).Prefixed("decoder")).
		Build()
	return component.NewNet("ImageCaptionModel", ps), nil
}
