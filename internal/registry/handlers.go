package registry

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/ganbootstrap/internal/component"
)

// Registration holds the compiled Go parts of one component type.
type Registration struct {
	Name     string
	Kind     component.Kind
	ArgsType reflect.Type
	// Args describes the accepted arguments, sorted by name.
	Args []ArgSpec

	newArgs         func() any
	buildModel      func(ctx context.Context, args any) (component.Model, error)
	buildOptimizer  func(ctx context.Context, args any, params component.ParameterSet) (component.Optimizer, error)
	buildDataLoader func(ctx context.Context, args any) (component.DataLoader, error)
	buildScheduler  func(ctx context.Context, args any, opt component.Optimizer) (component.Scheduler, error)
}

// NewArgs returns a fresh pointer to the type's args struct, pre-filled with
// its defaults.
func (r *Registration) NewArgs() any {
	return r.newArgs()
}

// BuildModel runs the factory of a model registration.
func (r *Registration) BuildModel(ctx context.Context, args any) (component.Model, error) {
	if r.buildModel == nil {
		return nil, r.wrongKind(component.KindModel)
	}
	return r.buildModel(ctx, args)
}

// BuildOptimizer runs the factory of an optimizer registration against the
// trainable parameters of the model that owns it.
func (r *Registration) BuildOptimizer(ctx context.Context, args any, params component.ParameterSet) (component.Optimizer, error) {
	if r.buildOptimizer == nil {
		return nil, r.wrongKind(component.KindOptimizer)
	}
	return r.buildOptimizer(ctx, args, params)
}

// BuildDataLoader runs the factory of a data loader registration.
func (r *Registration) BuildDataLoader(ctx context.Context, args any) (component.DataLoader, error) {
	if r.buildDataLoader == nil {
		return nil, r.wrongKind(component.KindDataLoader)
	}
	return r.buildDataLoader(ctx, args)
}

// BuildScheduler runs the factory of a scheduler registration against an
// already built optimizer.
func (r *Registration) BuildScheduler(ctx context.Context, args any, opt component.Optimizer) (component.Scheduler, error) {
	if r.buildScheduler == nil {
		return nil, r.wrongKind(component.KindScheduler)
	}
	return r.buildScheduler(ctx, args, opt)
}

func (r *Registration) wrongKind(want component.Kind) error {
	return fmt.Errorf("type '%s' is registered as %s, not %s", r.Name, r.Kind, want)
}

// RegisterModel registers a model type. newArgs returns the args struct with
// its defaults; build receives it after binding.
func RegisterModel[A any](r *Registry, name string, newArgs func() *A, build func(ctx context.Context, args *A) (component.Model, error)) {
	reg := newRegistration(name, component.KindModel, newArgs)
	reg.buildModel = func(ctx context.Context, args any) (component.Model, error) {
		a, err := cast[A](name, args)
		if err != nil {
			return nil, err
		}
		return build(ctx, a)
	}
	r.add(reg)
}

// RegisterOptimizer registers an optimizer type. The parameter set is never
// part of the args struct; the resolver supplies it from the owning model.
func RegisterOptimizer[A any](r *Registry, name string, newArgs func() *A, build func(ctx context.Context, args *A, params component.ParameterSet) (component.Optimizer, error)) {
	reg := newRegistration(name, component.KindOptimizer, newArgs)
	reg.buildOptimizer = func(ctx context.Context, args any, params component.ParameterSet) (component.Optimizer, error) {
		a, err := cast[A](name, args)
		if err != nil {
			return nil, err
		}
		return build(ctx, a, params)
	}
	r.add(reg)
}

// RegisterDataLoader registers a data loader type.
func RegisterDataLoader[A any](r *Registry, name string, newArgs func() *A, build func(ctx context.Context, args *A) (component.DataLoader, error)) {
	reg := newRegistration(name, component.KindDataLoader, newArgs)
	reg.buildDataLoader = func(ctx context.Context, args any) (component.DataLoader, error) {
		a, err := cast[A](name, args)
		if err != nil {
			return nil, err
		}
		return build(ctx, a)
	}
	r.add(reg)
}

// RegisterScheduler registers a learning rate scheduler type.
func RegisterScheduler[A any](r *Registry, name string, newArgs func() *A, build func(ctx context.Context, args *A, opt component.Optimizer) (component.Scheduler, error)) {
	reg := newRegistration(name, component.KindScheduler, newArgs)
	reg.buildScheduler = func(ctx context.Context, args any, opt component.Optimizer) (component.Scheduler, error) {
		a, err := cast[A](name, args)
		if err != nil {
			return nil, err
		}
		return build(ctx, a, opt)
	}
	r.add(reg)
}

func cast[A any](name string, args any) (*A, error) {
	a, ok := args.(*A)
	if !ok || a == nil {
		return nil, fmt.Errorf("type '%s': expected args of type *%s, got %T", name, reflect.TypeOf((*A)(nil)).Elem(), args)
	}
	return a, nil
}
