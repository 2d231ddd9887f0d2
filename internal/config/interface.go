package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths, translates it into the
	// format-agnostic model, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Experiment, Converter, error)
}

// Snapshotter is implemented by loaders that can write an experiment back
// out in their own format.
type Snapshotter interface {
	// Snapshot renders exp so that loading the result yields exp again.
	Snapshot(exp *Experiment) ([]byte, error)
	// SnapshotExt is the file extension of rendered snapshots, e.g. ".hcl".
	SnapshotExt() string
}

// Converter is the interface for argument binding and type conversion. It
// acts as the bridge between raw configuration values and the typed argument
// structs registered for each component.
type Converter interface {
	// Bind decodes args into target, a pointer to an argument struct that
	// already holds the defaults. Unknown keys, missing required keys, and
	// non-primitive coercions are errors reported against path.
	Bind(ctx context.Context, path, typeName string, args map[string]cty.Value, target any) error

	// ToValues converts a bound argument struct back into raw values.
	ToValues(args any) (map[string]cty.Value, error)
}
