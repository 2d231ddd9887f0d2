// Package caption registers the image captioning models and the MNIST
// classifier used to smoke-test a training setup.
package caption

import (
	"github.com/vk/ganbootstrap/internal/component"
	"github.com/vk/ganbootstrap/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func checkPositive(arg string, v int) error {
	if v <= 0 {
		return component.InvalidArg(arg, "must be > 0, got %d", v)
	}
	return nil
}

// Register registers the model types.
func (m *Module) Register(r *registry.Registry) {
	registry.RegisterModel(r, "MnistModel", NewMnistArgs, NewMnistModel)
	registry.RegisterModel(r, "EncoderCNN", NewEncoderArgs, NewEncoderCNN)
	registry.RegisterModel(r, "DecoderRNN", NewDecoderArgs, NewDecoderRNN)
	registry.RegisterModel(r, "ImageCaptionModel", NewImageCaptionArgs, NewImageCaptionModel)
}
