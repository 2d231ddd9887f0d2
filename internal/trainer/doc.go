// Package trainer validates the flat trainer section of an experiment and
// drives the epoch loop around an externally supplied EpochRunner.
//
// BuildTrainerConfig is a pure validate-and-translate step: it reports every
// invalid field at once and returns an immutable Config. The Loop owns only
// orchestration (monitoring, early stopping, checkpoint cadence, scalar
// logging); the numerics of an epoch belong to the runner.
package trainer
