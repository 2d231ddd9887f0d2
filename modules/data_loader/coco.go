package data_loader

import (
	"context"

	"github.com/vk/ganbootstrap/internal/component"
)

// TextImageArgs are the arguments of COCOTextImageDataLoader, which pairs
// COCO images with their caption embeddings.
type TextImageArgs struct {
	DataDir         string  `cty:"data_dir"`
	WhichSet        string  `cty:"which_set,optional"`
	ImageSize       int     `cty:"image_size"`
	BatchSize       int     `cty:"batch_size"`
	NumWorkers      int     `cty:"num_workers,optional"`
	ValidationSplit float64 `cty:"validation_split,optional"`
	Shuffle         bool    `cty:"shuffle,optional"`
}

func NewTextImageArgs() *TextImageArgs {
	return &TextImageArgs{WhichSet: "train", Shuffle: true}
}

func (a *TextImageArgs) Validate() error {
	if err := checkCommon(a.DataDir, a.BatchSize, a.NumWorkers); err != nil {
		return err
	}
	if err := checkWhichSet(a.WhichSet); err != nil {
		return err
	}
	if a.ImageSize <= 0 {
		return component.InvalidArg("image_size", "must be > 0, got %d", a.ImageSize)
	}
	return checkValidationSplit(a.ValidationSplit)
}

func NewTextImageLoader(ctx context.Context, a *TextImageArgs) (component.DataLoader, error) {
	return newLoader(ctx, &Loader{
		name:            "COCOTextImageDataLoader",
		dataDir:         a.DataDir,
		which:           a.WhichSet,
		imageSize:       a.ImageSize,
		batchSize:       a.BatchSize,
		workers:         a.NumWorkers,
		shuffle:         a.Shuffle,
		validationSplit: a.ValidationSplit,
	}), nil
}

// CaptionArgs are the arguments of COCOCaptionDataLoader. Batches are always
// shuffled and no validation subset is drawn.
type CaptionArgs struct {
	DataDir    string `cty:"data_dir"`
	WhichSet   string `cty:"which_set"`
	ImageSize  int    `cty:"image_size"`
	BatchSize  int    `cty:"batch_size"`
	NumWorkers int    `cty:"num_workers"`
}

func NewCaptionArgs() *CaptionArgs { return &CaptionArgs{} }

func (a *CaptionArgs) Validate() error {
	if err := checkCommon(a.DataDir, a.BatchSize, a.NumWorkers); err != nil {
		return err
	}
	if err := checkWhichSet(a.WhichSet); err != nil {
		return err
	}
	if a.ImageSize <= 0 {
		return component.InvalidArg("image_size", "must be > 0, got %d", a.ImageSize)
	}
	return nil
}

func NewCaptionLoader(ctx context.Context, a *CaptionArgs) (component.DataLoader, error) {
	return newLoader(ctx, &Loader{
		name:      "COCOCaptionDataLoader",
		dataDir:   a.DataDir,
		which:     a.WhichSet,
		imageSize: a.ImageSize,
		batchSize: a.BatchSize,
		workers:   a.NumWorkers,
		shuffle:   true,
	}), nil
}
