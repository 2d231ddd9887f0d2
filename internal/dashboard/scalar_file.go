package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vk/ganbootstrap/internal/ctxlog"
)

// ScalarFileName is the event log written under the run's log directory.
const ScalarFileName = "scalars.jsonl"

// ScalarFile appends one JSON event per line.
type ScalarFile struct {
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder
	run  string
	now  func() time.Time
	path string
}

// NewScalarFile opens, or creates, the event log in dir.
func NewScalarFile(dir, run string) (*ScalarFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	path := filepath.Join(dir, ScalarFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening scalar log: %w", err)
	}
	return &ScalarFile{f: f, enc: json.NewEncoder(f), run: run, now: time.Now, path: path}, nil
}

// Path is the location of the event log.
func (s *ScalarFile) Path() string { return s.path }

func (s *ScalarFile) AddScalars(ctx context.Context, epoch int, scalars map[string]float64) error {
	ev := Event{Time: s.now().UTC(), Run: s.run, Epoch: epoch, Scalars: copyScalars(scalars)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return fmt.Errorf("scalar log %s is closed", s.path)
	}
	if err := s.enc.Encode(ev); err != nil {
		return fmt.Errorf("writing scalar event: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Scalars written.", "epoch", epoch, "path", s.path)
	return nil
}

func (s *ScalarFile) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
