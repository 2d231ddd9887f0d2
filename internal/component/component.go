// Package component defines the contracts shared by the registry, the
// resolver, and the component modules: the four kinds of constructible
// components and the trainable parameter set that binds an optimizer to its
// model.
//
// Components are descriptors. The numeric engine that would own real weight
// buffers is an external collaborator; what lives here is the wiring it
// consumes.
package component

// Kind is the closed set of component variants a type name can be registered
// under.
type Kind string

const (
	KindModel      Kind = "model"
	KindOptimizer  Kind = "optimizer"
	KindDataLoader Kind = "data_loader"
	KindScheduler  Kind = "lr_scheduler"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindModel, KindOptimizer, KindDataLoader, KindScheduler:
		return true
	}
	return false
}

// Model is a constructed network description.
type Model interface {
	// Arch is the registered type name the model was built from.
	Arch() string
	// Parameters returns every parameter of the model, trainable or frozen.
	Parameters() ParameterSet
}

// Optimizer is bound to the trainable parameters of exactly one model.
type Optimizer interface {
	Name() string
	// BaseLR is the learning rate the optimizer was configured with.
	BaseLR() float64
	// Params is the parameter set the optimizer was bound to.
	Params() ParameterSet
	// Hyperparameters returns the scalar settings, keyed by argument name.
	Hyperparameters() map[string]any
}

// Scheduler derives a learning rate for an epoch from its optimizer's base
// rate. LR must be a pure function of the epoch.
type Scheduler interface {
	Name() string
	LR(epoch int) float64
}

// DataLoader describes how a dataset is batched and split. Construction
// must not touch the filesystem; datasets are opened by the external
// pipeline.
type DataLoader interface {
	Name() string
	BatchSize() int
	Workers() int
	// Split partitions the indices 0..n-1 into train and validation subsets.
	Split(n int) (train, valid []int, err error)
}
