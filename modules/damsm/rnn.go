package damsm

import (
	"context"

	"github.com/vk/ganbootstrap/internal/component"
	"github.com/vk/ganbootstrap/internal/ctxlog"
)

type RNNEncoderArgs struct {
	VocabSize      int     `cty:"vocab_size"`
	WordEmbedSize  int     `cty:"word_embed_size,optional"`
	LSTMHiddenSize int     `cty:"lstm_hidden_size,optional"`
	LSTMNumLayers  int     `cty:"lstm_num_layers,optional"`
	DropProb       float64 `cty:"drop_prob,optional"`
	Bidirectional  bool    `cty:"bidirectional,optional"`
}

func NewRNNEncoderArgs() *RNNEncoderArgs {
	return &RNNEncoderArgs{
		WordEmbedSize:  256,
		LSTMHiddenSize: 256,
		LSTMNumLayers:  1,
		DropProb:       0.5,
		Bidirectional:  true,
	}
}

// Validate checks the sizes. lstm_hidden_size is the width of the sentence
// embedding, split evenly between directions when bidirectional.
func (a *RNNEncoderArgs) Validate() error {
	if err := checkPositive("vocab_size", a.VocabSize); err != nil {
		return err
	}
	if err := checkPositive("word_embed_size", a.WordEmbedSize); err != nil {
		return err
	}
	if err := checkPositive("lstm_hidden_size", a.LSTMHiddenSize); err != nil {
		return err
	}
	if err := checkPositive("lstm_num_layers", a.LSTMNumLayers); err != nil {
		return err
	}
	if a.Bidirectional && a.LSTMHiddenSize%2 != 0 {
		return component.InvalidArg("lstm_hidden_size", "must be even for a bidirectional encoder, got %d", a.LSTMHiddenSize)
	}
	if a.DropProb < 0 || a.DropProb >= 1 {
		return component.InvalidArg("drop_prob", "must be in [0, 1), got %g", a.DropProb)
	}
	return nil
}

// NewRNNEncoder lays out the caption encoder: a word embedding followed by
// an LSTM whose final hidden states form the sentence embedding.
func NewRNNEncoder(ctx context.Context, a *RNNEncoderArgs) (component.Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	b := new(component.Builder).Embedding("embedding", a.VocabSize, a.WordEmbedSize)
	if a.Bidirectional {
		b.BiLSTM("lstm", a.WordEmbedSize, a.LSTMHiddenSize/2, a.LSTMNumLayers)
	} else {
		b.LSTM("lstm", a.WordEmbedSize, a.LSTMHiddenSize, a.LSTMNumLayers)
	}
	ps := b.Build()

	ctxlog.FromContext(ctx).Debug("Text encoder laid out.", "bidirectional", a.Bidirectional, "tensors", len(ps), "elements", ps.Count())
	return &Encoder{Net: component.NewNet(RNNEncoderType, ps), embedSize: a.LSTMHiddenSize}, nil
}
