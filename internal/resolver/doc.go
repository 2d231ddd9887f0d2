// Package resolver turns a loaded experiment into constructed components.
//
// Resolution runs in three phases, in this order and never interleaved:
//
//  1. Plan: every type name is looked up and every args block is bound and
//     validated. Nothing is constructed, so an unknown type or a bad
//     argument anywhere in the experiment fails with no side effects.
//  2. Construct: models are built in sorted name order, then the train and
//     validation data loaders.
//  3. Wire: each model's optimizer is built against the trainable
//     parameters of the already-built model, then its lr_scheduler against
//     that optimizer.
//
// Any failure aborts the whole resolution. Components built before the
// failure are closed if they implement io.Closer, and no partial result is
// returned.
package resolver
