package hcl_adapter

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/ganbootstrap/internal/cfgerr"
	"github.com/vk/ganbootstrap/internal/config"
	"github.com/vk/ganbootstrap/internal/ctxlog"
	"github.com/vk/ganbootstrap/internal/fsutil"
	"github.com/vk/ganbootstrap/internal/schema"
)

// ConfigExtensions are the file extensions the loader picks up when given a
// directory.
var ConfigExtensions = []string{".json", ".hcl"}

// Loader is the HCL/JSON implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// merged accumulates the top-level entries of every file, rejecting
// duplicates across files.
type merged struct {
	name            *hcl.Attribute
	nGPU            *hcl.Attribute
	models          map[string]*schema.LabeledBlock
	trainDataLoader *schema.Block
	validDataLoader *schema.Block
	trainer         *schema.Block
}

// Load orchestrates the entire configuration loading process. Each path may
// be a single .json/.hcl file or a directory; all discovered files are merged
// into one experiment.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Experiment, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Config loader started.", "path_count", len(paths))

	files, err := l.findAllConfigFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, &cfgerr.MalformedConfigError{Detail: fmt.Sprintf("no .json or .hcl configuration files found in %v", paths)}
	}
	logger.Debug("Discovered config files.", "count", len(files), "files", files)

	parser := hclparse.NewParser()
	m := &merged{models: make(map[string]*schema.LabeledBlock)}

	for _, file := range files {
		f, err := parseFile(parser, file)
		if err != nil {
			return nil, nil, err
		}

		var root schema.File
		if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
			return nil, nil, diagsToError("", diags)
		}
		if err := m.add(&root); err != nil {
			return nil, nil, err
		}
		logIgnoredKeys(ctx, file, root.Remain)
		logger.Debug("Successfully decoded config file.", "file", file)
	}

	exp, err := l.translateExperiment(ctx, m)
	if err != nil {
		return nil, nil, err
	}
	exp.Sources = files

	logger.Debug("Config loading complete.", "name", exp.Name, "models", len(exp.Models), "files", len(files))
	return exp, NewConverter(), nil
}

func parseFile(parser *hclparse.Parser, file string) (*hcl.File, error) {
	var f *hcl.File
	var diags hcl.Diagnostics
	switch filepath.Ext(file) {
	case ".json":
		f, diags = parser.ParseJSONFile(file)
	default:
		f, diags = parser.ParseHCLFile(file)
	}
	if diags.HasErrors() {
		err := diagsToError("", diags)
		if me, ok := err.(*cfgerr.MalformedConfigError); ok && me.Pos == "" {
			me.Pos = file
		}
		return nil, err
	}
	return f, nil
}

// add merges one decoded file into the accumulated top level.
func (m *merged) add(root *schema.File) error {
	dupAttr := func(key string, prev, next *hcl.Attribute) error {
		return &cfgerr.MalformedConfigError{
			Path:   key,
			Pos:    next.Range.String(),
			Detail: fmt.Sprintf("%q is already defined at %s", key, prev.Range.String()),
		}
	}
	dupBlock := func(key string) error {
		return &cfgerr.MalformedConfigError{Path: key, Detail: fmt.Sprintf("%q is defined in more than one file", key)}
	}

	if root.Name != nil {
		if m.name != nil {
			return dupAttr(config.KeyName, m.name, root.Name)
		}
		m.name = root.Name
	}
	if root.NGPU != nil {
		if m.nGPU != nil {
			return dupAttr(config.KeyNGPU, m.nGPU, root.NGPU)
		}
		m.nGPU = root.NGPU
	}
	for _, mb := range root.Models {
		if _, exists := m.models[mb.Name]; exists {
			return &cfgerr.MalformedConfigError{
				Path:   cfgerr.Path(config.KeyModels, mb.Name),
				Detail: fmt.Sprintf("model %q is defined more than once", mb.Name),
			}
		}
		m.models[mb.Name] = mb
	}
	if root.TrainDataLoader != nil {
		if m.trainDataLoader != nil {
			return dupBlock(config.KeyTrainDataLoader)
		}
		m.trainDataLoader = root.TrainDataLoader
	}
	if root.ValidDataLoader != nil {
		if m.validDataLoader != nil {
			return dupBlock(config.KeyValidDataLoader)
		}
		m.validDataLoader = root.ValidDataLoader
	}
	if root.Trainer != nil {
		if m.trainer != nil {
			return dupBlock(config.KeyTrainer)
		}
		m.trainer = root.Trainer
	}
	return nil
}

// logIgnoredKeys reports top-level keys the experiment schema does not know.
// They are allowed for forward compatibility.
func logIgnoredKeys(ctx context.Context, file string, remain hcl.Body) {
	if remain == nil {
		return
	}
	attrs, _ := remain.JustAttributes()
	if len(attrs) == 0 {
		return
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	ctxlog.FromContext(ctx).Debug("Ignoring unknown top-level keys.", "file", file, "keys", names)
}

// findAllConfigFiles walks all given paths and returns a flat, de-duplicated
// list of config files. Unlike module discovery, a missing path is an error:
// the operator asked for that file explicitly.
func (l *Loader) findAllConfigFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		found, err := fsutil.FindFilesByExtension(path, ConfigExtensions...)
		if err != nil {
			return nil, fmt.Errorf("error accessing config path %s: %w", path, err)
		}
		for _, f := range found {
			if _, wasSeen := seen[f]; !wasSeen {
				allFiles = append(allFiles, f)
				seen[f] = struct{}{}
			}
		}
	}
	return allFiles, nil
}
