package config

import (
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Reserved component sub-keys. They are never forwarded to a constructor.
const (
	KeyOptimizer = "optimizer"
	KeyScheduler = "lr_scheduler"
)

// Top-level keys of an experiment file.
const (
	KeyName            = "name"
	KeyNGPU            = "n_gpu"
	KeyModels          = "models"
	KeyTrainDataLoader = "train_data_loader"
	KeyValidDataLoader = "valid_data_loader"
	KeyTrainer         = "trainer"
)

// Experiment is the unified, format-agnostic representation of an entire
// experiment configuration.
type Experiment struct {
	Name string
	NGPU int

	Models          map[string]*ComponentSpec
	TrainDataLoader *ComponentSpec
	ValidDataLoader *ComponentSpec

	// Trainer holds the flat trainer fields exactly as written; validation
	// happens in the trainer package.
	Trainer map[string]cty.Value

	// Sources lists the files the experiment was merged from.
	Sources []string
}

// ModelNames returns the model names in sorted order. All iteration over
// models goes through it so resolution order is deterministic.
func (e *Experiment) ModelNames() []string {
	names := make([]string, 0, len(e.Models))
	for name := range e.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComponentSpec is a declarative request to construct one component.
type ComponentSpec struct {
	// Path is the dotted key path of the spec, e.g. "models.Generator".
	Path string
	Type string
	Args map[string]cty.Value

	// Optimizer and Scheduler are only valid under a model spec.
	Optimizer *ComponentSpec
	Scheduler *ComponentSpec
}

// ArgNames returns the argument keys in sorted order.
func (s *ComponentSpec) ArgNames() []string {
	names := make([]string, 0, len(s.Args))
	for name := range s.Args {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the spec. cty values are immutable, so the
// argument map is the only thing that needs copying.
func (s *ComponentSpec) Clone() *ComponentSpec {
	if s == nil {
		return nil
	}
	out := &ComponentSpec{
		Path:      s.Path,
		Type:      s.Type,
		Args:      make(map[string]cty.Value, len(s.Args)),
		Optimizer: s.Optimizer.Clone(),
		Scheduler: s.Scheduler.Clone(),
	}
	for k, v := range s.Args {
		out.Args[k] = v
	}
	return out
}

// Clone returns a deep copy of the experiment.
func (e *Experiment) Clone() *Experiment {
	out := &Experiment{
		Name:            e.Name,
		NGPU:            e.NGPU,
		Models:          make(map[string]*ComponentSpec, len(e.Models)),
		TrainDataLoader: e.TrainDataLoader.Clone(),
		ValidDataLoader: e.ValidDataLoader.Clone(),
		Trainer:         make(map[string]cty.Value, len(e.Trainer)),
		Sources:         append([]string(nil), e.Sources...),
	}
	for name, spec := range e.Models {
		out.Models[name] = spec.Clone()
	}
	for k, v := range e.Trainer {
		out.Trainer[k] = v
	}
	return out
}
