// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: load the experiment,
// apply overrides, resolve every component, lay out the run directories,
// and hand the result to the training loop. It is decoupled from any
// specific entrypoint like a CLI.
package app
