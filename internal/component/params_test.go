package component

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestBuilder_LayersAndFreezing(t *testing.T) {
	t.Parallel()

	// --- Arrange & Act ---
	ps := new(Builder).
		Frozen().Conv2d("backbone", 3, 8, 3).
		Unfrozen().Linear("fc", 32, 10).
		Build()

	// --- Assert ---
	want := ParameterSet{
		{Name: "backbone.weight", Shape: []int{8, 3, 3, 3}, Trainable: false},
		{Name: "backbone.bias", Shape: []int{8}, Trainable: false},
		{Name: "fc.weight", Shape: []int{10, 32}, Trainable: true},
		{Name: "fc.bias", Shape: []int{10}, Trainable: true},
	}
	if diff := cmp.Diff(want, ps); diff != "" {
		t.Errorf("parameter set mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 8*3*3*3+8+320+10, ps.Count())
	require.Len(t, ps.Trainable(), 2)
}

func TestBuilder_LSTMStacksLayers(t *testing.T) {
	t.Parallel()

	ps := new(Builder).LSTM("lstm", 16, 32, 2).Build()

	require.Len(t, ps, 8)
	require.Equal(t, []int{128, 16}, ps[0].Shape)
	require.Equal(t, "lstm.weight_ih_l1", ps[4].Name)
	require.Equal(t, []int{128, 32}, ps[4].Shape, "deeper layers take the hidden state as input")
}

func TestBuilder_BiLSTM(t *testing.T) {
	t.Parallel()

	ps := new(Builder).BiLSTM("rnn", 300, 128, 2).Build()

	require.Len(t, ps, 16)
	require.Equal(t, "rnn.weight_ih_l0_reverse", ps[4].Name)
	require.Equal(t, []int{512, 300}, ps[4].Shape)
	require.Equal(t, "rnn.weight_ih_l1", ps[8].Name)
	require.Equal(t, []int{512, 256}, ps[8].Shape, "the second layer reads both directions")
	require.Equal(t, []int{512, 128}, ps[9].Shape)
}

func TestParameterSet_PrefixedCopies(t *testing.T) {
	t.Parallel()

	orig := new(Builder).Linear("fc", 2, 3).Build()
	prefixed := orig.Prefixed("decoder")
	prefixed[0].Shape[0] = 99

	require.Equal(t, "decoder.fc.weight", prefixed[0].Name)
	require.Equal(t, "fc.weight", orig[0].Name)
	require.Equal(t, 3, orig[0].Shape[0])
	require.Equal(t, "fc.weight[3x2]", orig[0].String())
}

func TestKindValid(t *testing.T) {
	t.Parallel()

	require.True(t, KindOptimizer.Valid())
	require.False(t, Kind("loss").Valid())
}
