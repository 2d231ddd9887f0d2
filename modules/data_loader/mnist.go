package data_loader

import (
	"context"

	"github.com/vk/ganbootstrap/internal/component"
)

type MnistArgs struct {
	DataDir         string  `cty:"data_dir"`
	BatchSize       int     `cty:"batch_size"`
	Shuffle         bool    `cty:"shuffle,optional"`
	ValidationSplit float64 `cty:"validation_split,optional"`
	NumWorkers      int     `cty:"num_workers,optional"`
	Training        bool    `cty:"training,optional"`
}

func NewMnistArgs() *MnistArgs {
	return &MnistArgs{Shuffle: true, Training: true}
}

func (a *MnistArgs) Validate() error {
	if err := checkCommon(a.DataDir, a.BatchSize, a.NumWorkers); err != nil {
		return err
	}
	return checkValidationSplit(a.ValidationSplit)
}

// NewMnistLoader configures an MNIST loader. training selects the training
// partition; otherwise the test partition is read.
func NewMnistLoader(ctx context.Context, a *MnistArgs) (component.DataLoader, error) {
	which := "test"
	if a.Training {
		which = "train"
	}
	return newLoader(ctx, &Loader{
		name:            "MnistDataLoader",
		dataDir:         a.DataDir,
		which:           which,
		batchSize:       a.BatchSize,
		workers:         a.NumWorkers,
		shuffle:         a.Shuffle,
		validationSplit: a.ValidationSplit,
	}), nil
}
