package resolver

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/vk/ganbootstrap/internal/component"
	"github.com/vk/ganbootstrap/internal/ctxlog"
	"github.com/vk/ganbootstrap/internal/trainer"
)

// Component is one constructed component together with the bound arguments
// it was built from.
type Component struct {
	Path string
	Type string
	Kind component.Kind
	// Args is the bound args struct (a pointer) passed to the factory.
	Args     any
	Instance any

	// Optimizer and Scheduler are set on models only.
	Optimizer *Component
	Scheduler *Component
}

// Model returns the instance as a model, or nil for other kinds.
func (c *Component) Model() component.Model {
	m, _ := c.Instance.(component.Model)
	return m
}

// DataLoader returns the instance as a data loader, or nil.
func (c *Component) DataLoader() component.DataLoader {
	dl, _ := c.Instance.(component.DataLoader)
	return dl
}

// BoundOptimizer returns the model's optimizer instance, or nil.
func (c *Component) BoundOptimizer() component.Optimizer {
	if c.Optimizer == nil {
		return nil
	}
	o, _ := c.Optimizer.Instance.(component.Optimizer)
	return o
}

// BoundScheduler returns the model's scheduler instance, or nil.
func (c *Component) BoundScheduler() component.Scheduler {
	if c.Scheduler == nil {
		return nil
	}
	s, _ := c.Scheduler.Instance.(component.Scheduler)
	return s
}

// Experiment is the fully resolved experiment handed to the training loop.
type Experiment struct {
	Name string
	NGPU int

	Models          map[string]*Component
	TrainDataLoader *Component
	ValidDataLoader *Component
	Trainer         *trainer.Config
}

// ModelNames returns the model names in sorted order.
func (e *Experiment) ModelNames() []string {
	names := make([]string, 0, len(e.Models))
	for name := range e.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases every component that holds resources, in reverse
// construction order.
func (e *Experiment) Close() error {
	var all []*Component
	for _, name := range e.ModelNames() {
		all = append(all, e.Models[name])
	}
	all = append(all, e.TrainDataLoader, e.ValidDataLoader)
	for _, name := range e.ModelNames() {
		m := e.Models[name]
		all = append(all, m.Optimizer, m.Scheduler)
	}

	var errs []error
	for i := len(all) - 1; i >= 0; i-- {
		if all[i] == nil {
			continue
		}
		if c, ok := all[i].Instance.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// built tracks constructed instances so they can be released when a later
// step fails.
type built struct {
	closers []io.Closer
}

func (b *built) track(instance any) {
	if c, ok := instance.(io.Closer); ok {
		b.closers = append(b.closers, c)
	}
}

func (b *built) closeAll(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			logger.Warn("Failed to close component after resolution error.", "error", err)
		}
	}
	b.closers = nil
}
