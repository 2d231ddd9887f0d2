// Package config defines the format-agnostic experiment model, along with
// the core interfaces (Loader, Converter) for loading configuration files and
// binding component arguments.
//
// The `config.Experiment` is the single source of truth for the `resolver`
// package. Concrete implementations of the interfaces, such as for HCL and
// JSON files, are provided in separate packages.
package config
