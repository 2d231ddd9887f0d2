package app

import (
	"github.com/vk/ganbootstrap/internal/registry"
	"github.com/vk/ganbootstrap/modules/caption"
	"github.com/vk/ganbootstrap/modules/damsm"
	"github.com/vk/ganbootstrap/modules/data_loader"
	"github.com/vk/ganbootstrap/modules/hdgan"
	"github.com/vk/ganbootstrap/modules/lr_scheduler"
	"github.com/vk/ganbootstrap/modules/optim"
)

// coreModules is the definitive list of all modules that are compiled into
// the binary.
var coreModules = []registry.Module{
	&hdgan.Module{},
	&caption.Module{},
	&damsm.Module{},
	&optim.Module{},
	&lr_scheduler.Module{},
	&data_loader.Module{},
}
