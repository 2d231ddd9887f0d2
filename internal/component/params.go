package component

import (
	"fmt"
	"strings"
)

// Parameter is one named tensor of a model.
type Parameter struct {
	Name      string
	Shape     []int
	Trainable bool
}

// Numel returns the number of scalar elements in the parameter.
func (p Parameter) Numel() int {
	if len(p.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range p.Shape {
		n *= d
	}
	return n
}

func (p Parameter) String() string {
	dims := make([]string, len(p.Shape))
	for i, d := range p.Shape {
		dims[i] = fmt.Sprint(d)
	}
	return fmt.Sprintf("%s[%s]", p.Name, strings.Join(dims, "x"))
}

// ParameterSet is an ordered list of parameters.
type ParameterSet []Parameter

// Trainable returns the subset of parameters that receive gradients.
func (ps ParameterSet) Trainable() ParameterSet {
	out := make(ParameterSet, 0, len(ps))
	for _, p := range ps {
		if p.Trainable {
			out = append(out, p)
		}
	}
	return out
}

// Count returns the total number of scalar elements in the set.
func (ps ParameterSet) Count() int {
	total := 0
	for _, p := range ps {
		total += p.Numel()
	}
	return total
}

// Clone returns a deep copy of the set.
func (ps ParameterSet) Clone() ParameterSet {
	if ps == nil {
		return nil
	}
	out := make(ParameterSet, len(ps))
	for i, p := range ps {
		p.Shape = append([]int(nil), p.Shape...)
		out[i] = p
	}
	return out
}

// Prefixed returns a copy of the set with every name prefixed by "prefix.".
func (ps ParameterSet) Prefixed(prefix string) ParameterSet {
	out := make(ParameterSet, len(ps))
	for i, p := range ps {
		p.Name = prefix + "." + p.Name
		p.Shape = append([]int(nil), p.Shape...)
		out[i] = p
	}
	return out
}

// Builder accumulates parameters for a model's layers.
type Builder struct {
	params ParameterSet
	frozen bool
}

// Frozen marks subsequently added parameters as non-trainable until
// Unfrozen is called.
func (b *Builder) Frozen() *Builder {
	b.frozen = true
	return b
}

// Unfrozen marks subsequently added parameters as trainable.
func (b *Builder) Unfrozen() *Builder {
	b.frozen = false
	return b
}

// Add appends a parameter with the given shape.
func (b *Builder) Add(name string, shape ...int) *Builder {
	b.params = append(b.params, Parameter{Name: name, Shape: shape, Trainable: !b.frozen})
	return b
}

// Linear adds weight [out, in] and bias [out].
func (b *Builder) Linear(name string, in, out int) *Builder {
	return b.Add(name+".weight", out, in).Add(name+".bias", out)
}

// Conv2d adds weight [out, in, k, k] and bias [out].
func (b *Builder) Conv2d(name string, in, out, kernel int) *Builder {
	return b.Add(name+".weight", out, in, kernel, kernel).Add(name+".bias", out)
}

// Norm adds the affine weight and bias of a normalization layer.
func (b *Builder) Norm(name string, channels int) *Builder {
	return b.Add(name+".weight", channels).Add(name+".bias", channels)
}

// Embedding adds a [num, dim] lookup table.
func (b *Builder) Embedding(name string, num, dim int) *Builder {
	return b.Add(name+".weight", num, dim)
}

// LSTM adds the input/hidden weights and biases of every layer.
func (b *Builder) LSTM(name string, input, hidden, layers int) *Builder {
	return b.lstm(name, input, hidden, layers, 1)
}

// BiLSTM adds a bidirectional LSTM with hidden units per direction. The
// reverse direction's tensors carry a "_reverse" suffix, and deeper layers
// read both directions of the layer below.
func (b *Builder) BiLSTM(name string, input, hidden, layers int) *Builder {
	return b.lstm(name, input, hidden, layers, 2)
}

func (b *Builder) lstm(name string, input, hidden, layers, directions int) *Builder {
	suffixes := []string{"", "_reverse"}[:directions]
	for l := 0; l < layers; l++ {
		in := input
		if l > 0 {
			in = hidden * directions
		}
		for _, sfx := range suffixes {
			b.Add(fmt.Sprintf("%s.weight_ih_l%d%s", name, l, sfx), 4*hidden, in)
			b.Add(fmt.Sprintf("%s.weight_hh_l%d%s", name, l, sfx), 4*hidden, hidden)
			b.Add(fmt.Sprintf("%s.bias_ih_l%d%s", name, l, sfx), 4*hidden)
			b.Add(fmt.Sprintf("%s.bias_hh_l%d%s", name, l, sfx), 4*hidden)
		}
	}
	return b
}

// Extend appends an existing set.
func (b *Builder) Extend(ps ParameterSet) *Builder {
	b.params = append(b.params, ps...)
	return b
}

// Build returns the accumulated set.
func (b *Builder) Build() ParameterSet {
	return append(ParameterSet(nil), b.params...)
}
