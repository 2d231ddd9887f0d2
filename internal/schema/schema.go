// Package schema holds the gohcl decoding structs for experiment files. The
// same schema serves native HCL files and JSON files read through HCL's JSON
// syntax, where a labelled block such as `models "Generator" {}` is written
// as `"models": {"Generator": {...}}`.
//
// Decoding is done in two passes: the file level captures each component's
// body unparsed, and each body is then decoded on its own so that any error
// can be reported against the component's key path.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// Block captures a block's body for a later decoding pass. It is used for
// component bodies and for the flat 'args' and 'trainer' blocks, whose
// attributes are read with JustAttributes.
type Block struct {
	Body hcl.Body `hcl:",remain"`
}

// LabeledBlock captures a `models "<name>"` block.
type LabeledBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// Component is the body of a bare component: a data loader, or an optimizer
// or scheduler nested under a model.
type Component struct {
	Type *hcl.Attribute `hcl:"type,optional"`
	Args *Block         `hcl:"args,block"`
}

// Model is the body of a model block. The optimizer is nested so it can only
// ever be bound to the model that owns it.
type Model struct {
	Type      *hcl.Attribute `hcl:"type,optional"`
	Args      *Block         `hcl:"args,block"`
	Optimizer *Block         `hcl:"optimizer,block"`
	Scheduler *Block         `hcl:"lr_scheduler,block"`
}

// File represents the top-level structure of one experiment file. Every key
// is optional here; required keys are checked after all files are merged.
type File struct {
	Name            *hcl.Attribute  `hcl:"name,optional"`
	NGPU            *hcl.Attribute  `hcl:"n_gpu,optional"`
	Models          []*LabeledBlock `hcl:"models,block"`
	TrainDataLoader *Block          `hcl:"train_data_loader,block"`
	ValidDataLoader *Block          `hcl:"valid_data_loader,block"`
	Trainer         *Block          `hcl:"trainer,block"`
	Remain          hcl.Body        `hcl:",remain"`
}
