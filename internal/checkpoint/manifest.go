package checkpoint

import (
	"fmt"
	"os"

	"github.com/vk/ganbootstrap/internal/trainer"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Manifest is a decoded checkpoint manifest.
type Manifest struct {
	s *structpb.Struct
}

// Load reads the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint manifest: %w", err)
	}
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decoding checkpoint manifest %s: %w", path, err)
	}
	if got := s.GetFields()["format"].GetStringValue(); got != formatName {
		return nil, fmt.Errorf("%s is not a checkpoint manifest (format %q)", path, got)
	}
	return &Manifest{s: s}, nil
}

func (m *Manifest) Name() string { return m.s.GetFields()["name"].GetStringValue() }

func (m *Manifest) Epoch() int { return int(m.s.GetFields()["epoch"].GetNumberValue()) }

func (m *Manifest) Monitor() string { return m.s.GetFields()["monitor"].GetStringValue() }

// Best returns the best monitored value, if the run was monitoring one.
func (m *Manifest) Best() (float64, bool) {
	v, ok := m.s.GetFields()["monitor_best"]
	if !ok {
		return 0, false
	}
	return v.GetNumberValue(), true
}

// Models returns the per-model section of the manifest as plain Go values.
func (m *Manifest) Models() map[string]any {
	models, _ := m.s.GetFields()["models"].AsInterface().(map[string]any)
	return models
}

// Resume returns the point a new run continues from.
func (m *Manifest) Resume() trainer.Resume {
	best, ok := m.Best()
	return trainer.Resume{Epoch: m.Epoch(), Best: best, HasBest: ok}
}

// toStruct converts nested Go values, including the typed slices and maps
// that structpb does not accept directly.
func toStruct(fields map[string]any) (*structpb.Struct, error) {
	v, err := toValue(fields)
	if err != nil {
		return nil, err
	}
	return v.GetStructValue(), nil
}

func toValue(v any) (*structpb.Value, error) {
	switch t := v.(type) {
	case map[string]any:
		out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(t))}
		for k, e := range t {
			ev, err := toValue(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out.Fields[k] = ev
		}
		return structpb.NewStructValue(out), nil
	case map[string]float64:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = e
		}
		return toValue(m)
	case []float64:
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = e
		}
		return structpb.NewValue(l)
	case []int:
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = e
		}
		return structpb.NewValue(l)
	}
	return structpb.NewValue(v)
}
