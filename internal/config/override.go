package config

import (
	"fmt"
	"strings"

	"github.com/vk/ganbootstrap/internal/cfgerr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Override replaces one value of a loaded experiment, addressed by its
// dotted key path (e.g. "models.Generator.optimizer.args.lr").
type Override struct {
	Path  string
	Value cty.Value
}

// Apply sets every override on the experiment in order. The first bad path
// aborts with a MalformedConfigError.
func (e *Experiment) Apply(overrides ...Override) error {
	for _, o := range overrides {
		if err := e.apply(o); err != nil {
			return err
		}
	}
	return nil
}

func (e *Experiment) apply(o Override) error {
	segs := strings.Split(o.Path, ".")
	bad := func(format string, args ...any) error {
		return &cfgerr.MalformedConfigError{Path: o.Path, Detail: "override: " + fmt.Sprintf(format, args...)}
	}

	switch segs[0] {
	case KeyName:
		if len(segs) != 1 {
			return bad("%q has no sub-keys", KeyName)
		}
		s, err := asString(o.Value)
		if err != nil {
			return bad("%v", err)
		}
		e.Name = s
		return nil

	case KeyNGPU:
		if len(segs) != 1 {
			return bad("%q has no sub-keys", KeyNGPU)
		}
		var n int
		if err := gocty.FromCtyValue(o.Value, &n); err != nil || n < 0 {
			return bad("must be a non-negative integer")
		}
		e.NGPU = n
		return nil

	case KeyTrainer:
		if len(segs) != 2 {
			return bad("expected trainer.<field>")
		}
		if e.Trainer == nil {
			e.Trainer = make(map[string]cty.Value)
		}
		e.Trainer[segs[1]] = o.Value
		return nil

	case KeyModels:
		if len(segs) < 3 {
			return bad("expected models.<name>.<key>")
		}
		spec, ok := e.Models[segs[1]]
		if !ok {
			return bad("no model named %q", segs[1])
		}
		return applyComponent(spec, segs[2:], o.Value, true, bad)

	case KeyTrainDataLoader, KeyValidDataLoader:
		spec := e.TrainDataLoader
		if segs[0] == KeyValidDataLoader {
			spec = e.ValidDataLoader
		}
		if spec == nil {
			return bad("%q is not configured", segs[0])
		}
		return applyComponent(spec, segs[1:], o.Value, false, bad)
	}
	return bad("unknown top-level key %q", segs[0])
}

func applyComponent(spec *ComponentSpec, segs []string, val cty.Value, nested bool, bad func(string, ...any) error) error {
	if len(segs) == 0 {
		return bad("cannot replace a whole component")
	}
	switch segs[0] {
	case "type":
		if len(segs) != 1 {
			return bad("type has no sub-keys")
		}
		s, err := asString(val)
		if err != nil {
			return bad("%v", err)
		}
		spec.Type = s
		return nil
	case "args":
		if len(segs) != 2 {
			return bad("expected args.<name>")
		}
		if spec.Args == nil {
			spec.Args = make(map[string]cty.Value)
		}
		spec.Args[segs[1]] = val
		return nil
	case KeyOptimizer, KeyScheduler:
		if !nested {
			return bad("%q is only valid under a model", segs[0])
		}
		sub := spec.Optimizer
		if segs[0] == KeyScheduler {
			sub = spec.Scheduler
		}
		if sub == nil {
			return bad("%s has no %s", spec.Path, segs[0])
		}
		return applyComponent(sub, segs[1:], val, false, bad)
	}
	return bad("unknown component key %q", segs[0])
}

func asString(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", fmt.Errorf("value must not be null")
	}
	sv, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("value must be a string: %w", err)
	}
	return sv.AsString(), nil
}
