// Package dashboard publishes per-epoch training scalars: to a JSON-lines
// event file under the run's log directory, to a live socket.io dashboard,
// or both.
package dashboard

import (
	"context"
	"errors"
	"time"
)

// Writer receives the metric log of every epoch.
type Writer interface {
	AddScalars(ctx context.Context, epoch int, scalars map[string]float64) error
	Close() error
}

// Event is one published record.
type Event struct {
	Time    time.Time          `json:"time"`
	Run     string             `json:"run"`
	Epoch   int                `json:"epoch"`
	Scalars map[string]float64 `json:"scalars"`
}

// Nop discards everything.
type Nop struct{}

func (Nop) AddScalars(context.Context, int, map[string]float64) error { return nil }
func (Nop) Close() error { return nil }

// Multi fans every call out to all of its writers. Errors are joined; one
// failing writer does not stop the others.
type Multi []Writer

func (m Multi) AddScalars(ctx context.Context, epoch int, scalars map[string]float64) error {
	var errs []error
	for _, w := range m {
		if err := w.AddScalars(ctx, epoch, scalars); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes the writers in reverse order.
func (m Multi) Close() error {
	var errs []error
	for i := len(m) - 1; i >= 0; i-- {
		if err := m[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Combine returns the smallest writer that fans out to ws.
func Combine(ws ...Writer) Writer {
	var out Multi
	for _, w := range ws {
		if w == nil {
			continue
		}
		if _, nop := w.(Nop); nop {
			continue
		}
		out = append(out, w)
	}
	switch len(out) {
	case 0:
		return Nop{}
	case 1:
		return out[0]
	}
	return out
}

func copyScalars(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
