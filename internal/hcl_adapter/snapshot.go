package hcl_adapter

import (
	"sort"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/ganbootstrap/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// Snapshot implements config.Snapshotter.
func (l *Loader) Snapshot(exp *config.Experiment) ([]byte, error) {
	return Snapshot(exp), nil
}

// SnapshotExt implements config.Snapshotter.
func (l *Loader) SnapshotExt() string { return ".hcl" }

// Snapshot renders the effective experiment configuration (after overrides)
// as a native HCL file. Loading the snapshot yields the same experiment.
func Snapshot(exp *config.Experiment) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	body.SetAttributeValue(config.KeyName, cty.StringVal(exp.Name))
	body.SetAttributeValue(config.KeyNGPU, cty.NumberIntVal(int64(exp.NGPU)))

	for _, name := range exp.ModelNames() {
		body.AppendNewline()
		blk := body.AppendNewBlock(config.KeyModels, []string{name})
		writeComponent(blk.Body(), exp.Models[name])
	}

	for _, loader := range []struct {
		key  string
		spec *config.ComponentSpec
	}{
		{config.KeyTrainDataLoader, exp.TrainDataLoader},
		{config.KeyValidDataLoader, exp.ValidDataLoader},
	} {
		if loader.spec == nil {
			continue
		}
		body.AppendNewline()
		blk := body.AppendNewBlock(loader.key, nil)
		writeComponent(blk.Body(), loader.spec)
	}

	body.AppendNewline()
	trainer := body.AppendNewBlock(config.KeyTrainer, nil)
	writeValues(trainer.Body(), exp.Trainer)

	return hclwrite.Format(f.Bytes())
}

func writeComponent(body *hclwrite.Body, spec *config.ComponentSpec) {
	body.SetAttributeValue("type", cty.StringVal(spec.Type))
	args := body.AppendNewBlock("args", nil)
	writeValues(args.Body(), spec.Args)

	if spec.Optimizer != nil {
		writeComponent(body.AppendNewBlock(config.KeyOptimizer, nil).Body(), spec.Optimizer)
	}
	if spec.Scheduler != nil {
		writeComponent(body.AppendNewBlock(config.KeyScheduler, nil).Body(), spec.Scheduler)
	}
}

func writeValues(body *hclwrite.Body, values map[string]cty.Value) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		body.SetAttributeValue(name, values[name])
	}
}
