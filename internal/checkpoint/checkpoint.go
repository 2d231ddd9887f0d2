// Package checkpoint writes and reads checkpoint manifests: protobuf-encoded
// records of what a run had built and how far it got. Weight tensors belong
// to the numeric engine and are written by an optional StateSaver next to
// each manifest.
package checkpoint

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vk/ganbootstrap/internal/ctxlog"
	"github.com/vk/ganbootstrap/internal/fsutil"
	"github.com/vk/ganbootstrap/internal/resolver"
	"github.com/vk/ganbootstrap/internal/trainer"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// Ext is the manifest file extension.
	Ext        = ".pb"
	BestName   = "model_best" + Ext
	epochStem  = "checkpoint-epoch"
	formatName = "ganbootstrap.checkpoint/v1"
)

// EpochFileName is the manifest name of a periodic checkpoint.
func EpochFileName(epoch int) string {
	return fmt.Sprintf("%s%d%s", epochStem, epoch, Ext)
}

// StateSaver persists the weights and optimizer state that a manifest
// describes. path is the manifest path; implementations choose sibling
// file names from it.
type StateSaver interface {
	SaveState(ctx context.Context, path string, st trainer.State) error
}

// Manager implements trainer.Checkpointer for one resolved experiment.
type Manager struct {
	dir   string
	exp   *resolver.Experiment
	saver StateSaver
	now   func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithStateSaver delegates weight persistence to s.
func WithStateSaver(s StateSaver) Option {
	return func(m *Manager) { m.saver = s }
}

// NewManager writes manifests for exp into dir, which must exist.
func NewManager(dir string, exp *resolver.Experiment, opts ...Option) *Manager {
	m := &Manager{dir: dir, exp: exp, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save writes the periodic manifest, the best-model manifest, or both.
func (m *Manager) Save(ctx context.Context, st trainer.State) error {
	var names []string
	if st.Periodic {
		names = append(names, EpochFileName(st.Epoch))
	}
	if st.IsBest {
		names = append(names, BestName)
	}
	if len(names) == 0 {
		return nil
	}

	manifest, err := m.manifest(st)
	if err != nil {
		return fmt.Errorf("building checkpoint manifest: %w", err)
	}
	data, err := proto.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encoding checkpoint manifest: %w", err)
	}

	logger := ctxlog.FromContext(ctx)
	for _, name := range names {
		path := filepath.Join(m.dir, name)
		if err := writeFile(path, data); err != nil {
			return err
		}
		if m.saver != nil {
			if err := m.saver.SaveState(ctx, path, st); err != nil {
				return fmt.Errorf("saving state for %s: %w", name, err)
			}
		}
		if name == BestName {
			logger.Info("💾 Saving current best.", "path", path, "epoch", st.Epoch, "monitor", st.Monitor.String(), "best", st.Best)
		} else {
			logger.Info("💾 Saving checkpoint.", "path", path, "epoch", st.Epoch)
		}
	}
	return nil
}

func (m *Manager) manifest(st trainer.State) (*structpb.Struct, error) {
	models := make(map[string]any, len(m.exp.Models))
	for _, name := range m.exp.ModelNames() {
		c := m.exp.Models[name]
		entry := map[string]any{"arch": c.Type}
		if model := c.Model(); model != nil {
			ps := model.Parameters()
			entry["arch"] = model.Arch()
			entry["tensors"] = len(ps)
			entry["parameters"] = ps.Count()
			entry["trainable_parameters"] = ps.Trainable().Count()
		}
		if opt := c.BoundOptimizer(); opt != nil {
			entry["optimizer"] = map[string]any{
				"type":            opt.Name(),
				"hyperparameters": opt.Hyperparameters(),
			}
		}
		if sched := c.BoundScheduler(); sched != nil {
			entry["lr_scheduler"] = map[string]any{
				"type": sched.Name(),
				"lr":   sched.LR(st.Epoch),
			}
		}
		models[name] = entry
	}

	fields := map[string]any{
		"format":     formatName,
		"name":       m.exp.Name,
		"epoch":      st.Epoch,
		"monitor":    st.Monitor.String(),
		"metrics":    st.Metrics,
		"models":     models,
		"created_at": m.now().UTC().Format(time.RFC3339),
	}
	if st.Monitor.Enabled() && !math.IsInf(st.Best, 0) && !math.IsNaN(st.Best) {
		fields["monitor_best"] = st.Best
	}
	return toStruct(fields)
}

// writeFile replaces path atomically.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err != nil {
		return fmt.Errorf("creating checkpoint file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing checkpoint file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing checkpoint file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("placing checkpoint file: %w", err)
	}
	return nil
}

// Latest returns the periodic manifest under dir with the highest epoch,
// or "" when there is none. When name is set, manifests written by other
// experiments are skipped. Manifests of the same epoch from different runs
// are told apart by modification time.
func Latest(dir, name string) (string, error) {
	files, err := fsutil.FindFilesByExtension(dir, Ext)
	if err != nil {
		return "", fmt.Errorf("listing checkpoints in %s: %w", dir, err)
	}

	top := -1
	var candidates []string
	for _, f := range files {
		if !strings.HasPrefix(filepath.Base(f), epochStem) {
			continue
		}
		m, err := Load(f)
		if err != nil {
			return "", err
		}
		if name != "" && m.Name() != name {
			continue
		}
		switch epoch := m.Epoch(); {
		case epoch > top:
			top, candidates = epoch, []string{f}
		case epoch == top:
			candidates = append(candidates, f)
		}
	}
	return fsutil.Newest(candidates)
}
