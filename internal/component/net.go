package component

// Net is a model described entirely by its architecture name and parameter
// layout. Model packages build one from their bound args.
type Net struct {
	arch   string
	params ParameterSet
}

// NewNet creates a model descriptor.
func NewNet(arch string, params ParameterSet) *Net {
	return &Net{arch: arch, params: params}
}

func (n *Net) Arch() string { return n.arch }

// Parameters returns a copy of the parameter set.
func (n *Net) Parameters() ParameterSet {
	return n.params.Clone()
}
