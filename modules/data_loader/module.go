// Package data_loader registers the data loader types. Construction only
// records configuration: datasets are opened later by the training
// pipeline, so a bad config never touches the filesystem.
package data_loader

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/vk/ganbootstrap/internal/component"
	"github.com/vk/ganbootstrap/internal/ctxlog"
	"github.com/vk/ganbootstrap/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// splitSeed seeds the permutation used to carve out a validation set, so
// the same split is drawn on every run.
const splitSeed = 0

// Loader is the bound form of every type in this package.
type Loader struct {
	name            string
	dataDir         string
	which           string
	imageSize       int
	batchSize       int
	workers         int
	shuffle         bool
	validationSplit float64
}

func (l *Loader) Name() string { return l.name }
func (l *Loader) BatchSize() int { return l.batchSize }
func (l *Loader) Workers() int { return l.workers }
func (l *Loader) DataDir() string { return l.dataDir }

// WhichSet is the dataset partition the loader reads: train, val or test.
func (l *Loader) WhichSet() string { return l.which }

func (l *Loader) ImageSize() int { return l.imageSize }

// Shuffle reports whether the training indices are reshuffled every epoch.
// It is false whenever a validation split is drawn, since the split already
// samples in random order.
func (l *Loader) Shuffle() bool { return l.shuffle && l.validationSplit == 0 }

// Split partitions the sample indices 0..n-1. A validation split of 0 keeps
// every index for training, in order. A split below 1 is the fraction of
// samples held out; a whole number of 1 or more is an absolute count, which
// must be smaller than n. Held-out indices are drawn from a fixed-seed
// permutation.
func (l *Loader) Split(n int) (train, valid []int, err error) {
	if n < 0 {
		return nil, nil, fmt.Errorf("%s: negative sample count %d", l.name, n)
	}
	if l.validationSplit == 0 {
		train = make([]int, n)
		for i := range train {
			train[i] = i
		}
		return train, nil, nil
	}

	var nValid int
	if l.validationSplit >= 1 {
		if l.validationSplit >= float64(n) {
			return nil, nil, fmt.Errorf("%s: validation set size %v is not smaller than the dataset (%d samples)", l.name, l.validationSplit, n)
		}
		nValid = int(l.validationSplit)
	} else {
		nValid = int(float64(n) * l.validationSplit)
	}

	perm := rand.New(rand.NewPCG(splitSeed, splitSeed)).Perm(n)
	valid = append([]int(nil), perm[:nValid]...)
	train = append([]int(nil), perm[nValid:]...)
	return train, valid, nil
}

func checkValidationSplit(v float64) error {
	switch {
	case math.IsNaN(v) || v < 0:
		return component.InvalidArg("validation_split", "must be >= 0, got %v", v)
	case v >= 1 && v != math.Trunc(v):
		return component.InvalidArg("validation_split", "must be a fraction below 1 or a whole sample count, got %v", v)
	}
	return nil
}

func checkCommon(dataDir string, batchSize, workers int) error {
	if dataDir == "" {
		return component.InvalidArg("data_dir", "must not be empty")
	}
	if batchSize <= 0 {
		return component.InvalidArg("batch_size", "must be > 0, got %d", batchSize)
	}
	if workers < 0 {
		return component.InvalidArg("num_workers", "must be >= 0, got %d", workers)
	}
	return nil
}

func checkWhichSet(v string) error {
	switch v {
	case "train", "val", "test":
		return nil
	}
	return component.InvalidArg("which_set", "must be one of train, val, test; got %q", v)
}

func newLoader(ctx context.Context, l *Loader) *Loader {
	ctxlog.FromContext(ctx).Debug("Data loader configured.",
		"type", l.name, "data_dir", l.dataDir, "batch_size", l.batchSize, "validation_split", l.validationSplit)
	return l
}

// Register registers the data loader types.
func (m *Module) Register(r *registry.Registry) {
	registry.RegisterDataLoader(r, "COCOTextImageDataLoader", NewTextImageArgs, NewTextImageLoader)
	registry.RegisterDataLoader(r, "COCOCaptionDataLoader", NewCaptionArgs, NewCaptionLoader)
	registry.RegisterDataLoader(r, "MnistDataLoader", NewMnistArgs, NewMnistLoader)
}
