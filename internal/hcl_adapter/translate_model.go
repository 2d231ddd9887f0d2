// This file contains the logic for translating the decoded HCL/JSON schema
// structs into the format-agnostic experiment model defined in the config
// package.

package hcl_adapter

import (
	"context"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/ganbootstrap/internal/cfgerr"
	"github.com/vk/ganbootstrap/internal/config"
	"github.com/vk/ganbootstrap/internal/ctxlog"
	"github.com/vk/ganbootstrap/internal/schema"
)

// translateExperiment checks the required top-level keys and translates
// every component block.
func (l *Loader) translateExperiment(ctx context.Context, m *merged) (*config.Experiment, error) {
	missing := func(key string) error {
		return &cfgerr.MalformedConfigError{Path: key, Detail: "missing required top-level key"}
	}

	exp := &config.Experiment{Models: make(map[string]*config.ComponentSpec)}

	if m.name == nil {
		return nil, missing(config.KeyName)
	}
	// The name is free-form; an empty one is allowed.
	name, err := anyStringAttr(config.KeyName, m.name)
	if err != nil {
		return nil, err
	}
	exp.Name = name

	if m.nGPU == nil {
		return nil, missing(config.KeyNGPU)
	}
	if exp.NGPU, err = nonNegativeIntAttr(config.KeyNGPU, m.nGPU); err != nil {
		return nil, err
	}

	if len(m.models) == 0 {
		return nil, missing(config.KeyModels)
	}
	names := make([]string, 0, len(m.models))
	for modelName := range m.models {
		names = append(names, modelName)
	}
	sort.Strings(names)
	for _, modelName := range names {
		spec, err := l.translateModel(ctx, modelName, m.models[modelName].Body)
		if err != nil {
			return nil, err
		}
		exp.Models[modelName] = spec
	}

	if m.trainDataLoader == nil {
		return nil, missing(config.KeyTrainDataLoader)
	}
	if exp.TrainDataLoader, err = l.translateComponent(ctx, config.KeyTrainDataLoader, m.trainDataLoader.Body); err != nil {
		return nil, err
	}
	if m.validDataLoader == nil {
		return nil, missing(config.KeyValidDataLoader)
	}
	if exp.ValidDataLoader, err = l.translateComponent(ctx, config.KeyValidDataLoader, m.validDataLoader.Body); err != nil {
		return nil, err
	}

	if m.trainer == nil {
		return nil, missing(config.KeyTrainer)
	}
	if exp.Trainer, err = bodyValues(config.KeyTrainer, m.trainer.Body); err != nil {
		return nil, err
	}

	return exp, nil
}

// translateModel decodes a model body, including its nested optimizer and
// scheduler.
func (l *Loader) translateModel(ctx context.Context, name string, body hcl.Body) (*config.ComponentSpec, error) {
	path := cfgerr.Path(config.KeyModels, name)
	ctxlog.FromContext(ctx).Debug("Translating model block.", "path", path)

	var mb schema.Model
	if diags := gohcl.DecodeBody(body, nil, &mb); diags.HasErrors() {
		return nil, diagsToError(path, diags)
	}

	spec, err := translateTypeAndArgs(path, body, mb.Type, mb.Args)
	if err != nil {
		return nil, err
	}

	if mb.Optimizer != nil {
		if spec.Optimizer, err = l.translateComponent(ctx, cfgerr.Path(path, config.KeyOptimizer), mb.Optimizer.Body); err != nil {
			return nil, err
		}
	}
	if mb.Scheduler != nil {
		if spec.Scheduler, err = l.translateComponent(ctx, cfgerr.Path(path, config.KeyScheduler), mb.Scheduler.Body); err != nil {
			return nil, err
		}
	}
	return spec, nil
}

// translateComponent decodes a bare {type, args} body.
func (l *Loader) translateComponent(ctx context.Context, path string, body hcl.Body) (*config.ComponentSpec, error) {
	ctxlog.FromContext(ctx).Debug("Translating component block.", "path", path)

	var cb schema.Component
	if diags := gohcl.DecodeBody(body, nil, &cb); diags.HasErrors() {
		return nil, diagsToError(path, diags)
	}
	return translateTypeAndArgs(path, body, cb.Type, cb.Args)
}

func translateTypeAndArgs(path string, body hcl.Body, typeAttr *hcl.Attribute, args *schema.Block) (*config.ComponentSpec, error) {
	if typeAttr == nil {
		return nil, &cfgerr.MalformedConfigError{Path: cfgerr.Path(path, "type"), Pos: body.MissingItemRange().String(), Detail: "missing required key"}
	}
	typeName, err := stringAttr(cfgerr.Path(path, "type"), typeAttr)
	if err != nil {
		return nil, err
	}
	if args == nil {
		return nil, &cfgerr.MalformedConfigError{Path: cfgerr.Path(path, "args"), Pos: body.MissingItemRange().String(), Detail: "missing required key"}
	}
	values, err := bodyValues(cfgerr.Path(path, "args"), args.Body)
	if err != nil {
		return nil, err
	}
	return &config.ComponentSpec{Path: path, Type: typeName, Args: values}, nil
}
