package caption

import (
	"context"

	"github.com/vk/ganbootstrap/internal/component"
)

type DecoderArgs struct {
	WordEmbedSize  int `cty:"word_embed_size"`
	LSTMHiddenSize int `cty:"lstm_hidden_size"`
	VocabSize      int `cty:"vocab_size"`
	NumLayers      int `cty:"num_layers,optional"`
}

func NewDecoderArgs() *DecoderArgs { return &DecoderArgs{NumLayers: 1} }

func (a *DecoderArgs) Validate() error {
	if err := checkPositive("word_embed_size", a.WordEmbedSize); err != nil {
		return err
	}
	if err := checkPositive("lstm_hidden_size", a.LSTMHiddenSize); err != nil {
		return err
	}
	if err := checkPositive("vocab_size", a.VocabSize); err != nil {
		return err
	}
	return checkPositive("num_layers", a.NumLayers)
}

func decoderParams(word, hidden, vocab, layers int) component.ParameterSet {
	return new(component.Builder).
		Embedding("embedding", vocab, word).
		LSTM("lstm", word, hidden, layers).
		Linear("linear", hidden, vocab).
		Build()
}

// NewDecoderRNN lays out a word embedding, a stacked LSTM, and a linear
// projection onto the vocabulary.
func NewDecoderRNN(_ context.Context, a *DecoderArgs) (component.Model, error) {
	return component.NewNet("DecoderRNN", decoderParams(a.WordEmbedSize, a.LSTMHiddenSize, a.VocabSize, a.NumLayers)), nil
}
