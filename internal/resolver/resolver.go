package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/ganbootstrap/internal/cfgerr"
	"github.com/vk/ganbootstrap/internal/component"
	"github.com/vk/ganbootstrap/internal/config"
	"github.com/vk/ganbootstrap/internal/ctxlog"
	"github.com/vk/ganbootstrap/internal/registry"
	"github.com/vk/ganbootstrap/internal/trainer"
)

// Resolver builds components from specs using a sealed registry.
type Resolver struct {
	reg  *registry.Registry
	conv config.Converter
}

// New creates a resolver.
func New(reg *registry.Registry, conv config.Converter) *Resolver {
	return &Resolver{reg: reg, conv: conv}
}

// plan is a component whose type has been looked up and whose arguments
// have been bound, but which has not been built.
type plan struct {
	spec      *config.ComponentSpec
	kind      component.Kind
	reg       *registry.Registration
	args      any
	optimizer *plan
	scheduler *plan
}

// ResolveSpec resolves a single spec tree: a model with its optional
// optimizer and scheduler, or a bare component of the given kind.
func (r *Resolver) ResolveSpec(ctx context.Context, spec *config.ComponentSpec, kind component.Kind) (*Component, error) {
	path := ""
	if spec != nil {
		path = spec.Path
	}
	p, err := r.plan(ctx, path, spec, kind)
	if err != nil {
		return nil, err
	}

	b := &built{}
	c, err := r.construct(ctx, p, b)
	if err == nil {
		err = r.wire(ctx, c, p, b)
	}
	if err != nil {
		b.closeAll(ctx)
		return nil, err
	}
	return c, nil
}

// Resolve resolves a whole experiment: every model with its optimizer and
// scheduler, both data loaders, and the trainer configuration.
func (r *Resolver) Resolve(ctx context.Context, exp *config.Experiment) (*Experiment, error) {
	ctx, logger := ctxlog.With(ctx, "experiment", exp.Name)
	logger.Debug("Resolution started.", "models", len(exp.Models))

	// Phase 1: plan. Nothing is built until the whole experiment is known
	// to be valid.
	names := exp.ModelNames()
	modelPlans := make([]*plan, len(names))
	for i, name := range names {
		p, err := r.plan(ctx, cfgerr.Path(config.KeyModels, name), exp.Models[name], component.KindModel)
		if err != nil {
			return nil, err
		}
		modelPlans[i] = p
	}
	trainPlan, err := r.plan(ctx, config.KeyTrainDataLoader, exp.TrainDataLoader, component.KindDataLoader)
	if err != nil {
		return nil, err
	}
	validPlan, err := r.plan(ctx, config.KeyValidDataLoader, exp.ValidDataLoader, component.KindDataLoader)
	if err != nil {
		return nil, err
	}
	tcfg, err := trainer.BuildTrainerConfig(exp.Trainer)
	if err != nil {
		return nil, err
	}
	logger.Debug("Resolution plan complete.")

	out := &Experiment{
		Name:    exp.Name,
		NGPU:    exp.NGPU,
		Models:  make(map[string]*Component, len(names)),
		Trainer: tcfg,
	}
	b := &built{}
	fail := func(err error) (*Experiment, error) {
		b.closeAll(ctx)
		return nil, err
	}

	// Phase 2: construct base components.
	for i, name := range names {
		c, err := r.construct(ctx, modelPlans[i], b)
		if err != nil {
			return fail(err)
		}
		out.Models[name] = c
	}
	if out.TrainDataLoader, err = r.construct(ctx, trainPlan, b); err != nil {
		return fail(err)
	}
	if out.ValidDataLoader, err = r.construct(ctx, validPlan, b); err != nil {
		return fail(err)
	}

	// Phase 3: wire optimizers and schedulers to the built models.
	for i, name := range names {
		if err := r.wire(ctx, out.Models[name], modelPlans[i], b); err != nil {
			return fail(err)
		}
	}

	logger.Info("🧩 Experiment resolved.", "name", out.Name, "models", names)
	return out, nil
}

func (r *Resolver) plan(ctx context.Context, path string, spec *config.ComponentSpec, kind component.Kind) (*plan, error) {
	if spec == nil {
		return nil, &cfgerr.MalformedConfigError{Path: path, Detail: "missing component"}
	}
	if spec.Path == "" {
		spec = spec.Clone()
		spec.Path = path
	}

	reg, err := r.reg.Lookup(spec.Path, spec.Type, kind)
	if err != nil {
		return nil, err
	}
	args := reg.NewArgs()
	if err := r.conv.Bind(ctx, spec.Path, spec.Type, spec.Args, args); err != nil {
		return nil, err
	}
	if v, ok := args.(component.Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, componentError(spec, kind, err)
		}
	}
	p := &plan{spec: spec, kind: kind, reg: reg, args: args}

	if kind != component.KindModel {
		if spec.Optimizer != nil || spec.Scheduler != nil {
			return nil, &cfgerr.MalformedConfigError{Path: spec.Path, Detail: "only models may carry an optimizer or lr_scheduler"}
		}
		return p, nil
	}

	if spec.Optimizer != nil {
		if p.optimizer, err = r.plan(ctx, cfgerr.Path(spec.Path, config.KeyOptimizer), spec.Optimizer, component.KindOptimizer); err != nil {
			return nil, err
		}
	}
	if spec.Scheduler != nil {
		if spec.Optimizer == nil {
			return nil, &cfgerr.MalformedConfigError{
				Path:   cfgerr.Path(spec.Path, config.KeyScheduler),
				Detail: "an lr_scheduler requires an optimizer on the same model",
			}
		}
		if p.scheduler, err = r.plan(ctx, cfgerr.Path(spec.Path, config.KeyScheduler), spec.Scheduler, component.KindScheduler); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// construct builds a model or a data loader from its plan.
func (r *Resolver) construct(ctx context.Context, p *plan, b *built) (*Component, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Constructing component.", "path", p.spec.Path, "type", p.spec.Type, "kind", p.kind)

	var instance any
	var err error
	switch p.kind {
	case component.KindModel:
		var m component.Model
		if m, err = p.reg.BuildModel(ctx, p.args); err == nil && m == nil {
			err = errors.New("factory returned no model")
		}
		instance = m
	case component.KindDataLoader:
		var dl component.DataLoader
		if dl, err = p.reg.BuildDataLoader(ctx, p.args); err == nil && dl == nil {
			err = errors.New("factory returned no data loader")
		}
		instance = dl
	default:
		err = fmt.Errorf("%s components are wired, not constructed directly", p.kind)
	}
	if err != nil {
		return nil, componentError(p.spec, p.kind, err)
	}
	b.track(instance)

	return newComponent(p, instance), nil
}

// wire builds the optimizer of a constructed model against its trainable
// parameters, then the scheduler against that optimizer.
func (r *Resolver) wire(ctx context.Context, c *Component, p *plan, b *built) error {
	if p.optimizer == nil {
		return nil
	}
	logger := ctxlog.FromContext(ctx)

	model := c.Model()
	if model == nil {
		return fmt.Errorf("%s: optimizer cannot be wired before its model is built", p.spec.Path)
	}
	params := model.Parameters().Trainable()
	logger.Debug("Wiring optimizer.", "path", p.optimizer.spec.Path, "type", p.optimizer.spec.Type, "trainable_params", len(params))

	opt, err := p.optimizer.reg.BuildOptimizer(ctx, p.optimizer.args, params)
	if err == nil && opt == nil {
		err = errors.New("factory returned no optimizer")
	}
	if err != nil {
		return componentError(p.optimizer.spec, p.optimizer.kind, err)
	}
	b.track(opt)
	c.Optimizer = newComponent(p.optimizer, opt)

	if p.scheduler == nil {
		return nil
	}
	logger.Debug("Wiring lr_scheduler.", "path", p.scheduler.spec.Path, "type", p.scheduler.spec.Type)
	sched, err := p.scheduler.reg.BuildScheduler(ctx, p.scheduler.args, opt)
	if err == nil && sched == nil {
		err = errors.New("factory returned no scheduler")
	}
	if err != nil {
		return componentError(p.scheduler.spec, p.scheduler.kind, err)
	}
	b.track(sched)
	c.Scheduler = newComponent(p.scheduler, sched)
	return nil
}

func newComponent(p *plan, instance any) *Component {
	return &Component{
		Path:     p.spec.Path,
		Type:     p.spec.Type,
		Kind:     p.kind,
		Args:     p.args,
		Instance: instance,
	}
}

// componentError attaches the component's key path to a factory or
// validation error. Argument range errors become MalformedConfigErrors at
// the argument's path; configuration errors pass through unchanged.
func componentError(spec *config.ComponentSpec, kind component.Kind, err error) error {
	var argErr *component.ArgError
	if errors.As(err, &argErr) {
		return &cfgerr.MalformedConfigError{Path: cfgerr.Path(spec.Path, "args", argErr.Arg), Detail: argErr.Reason}
	}
	var malformed *cfgerr.MalformedConfigError
	if errors.As(err, &malformed) {
		return err
	}
	return fmt.Errorf("%s: building %s %q: %w", spec.Path, kind, spec.Type, err)
}
