package checkpoint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/ganbootstrap/internal/component"
	"github.com/vk/ganbootstrap/internal/resolver"
	"github.com/vk/ganbootstrap/internal/trainer"
)

type fakeOptimizer struct{}

func (fakeOptimizer) Name() string { return "Adam" }
func (fakeOptimizer) BaseLR() float64 { return 4e-4 }
func (fakeOptimizer) Params() component.ParameterSet { return nil }
func (fakeOptimizer) Hyperparameters() map[string]any {
	return map[string]any{"lr": 4e-4, "betas": []float64{0.5, 0.999}, "amsgrad": false}
}

type fakeScheduler struct{}

func (fakeScheduler) Name() string { return "StepLR" }
func (fakeScheduler) LR(epoch int) float64 { return 1 / float64(epoch) }

type recordingSaver struct {
	paths []string
	err   error
}

func (s *recordingSaver) SaveState(_ context.Context, path string, _ trainer.State) error {
	s.paths = append(s.paths, path)
	return s.err
}

func experiment() *resolver.Experiment {
	ps := new(component.Builder).Frozen().Linear("stem", 2, 2).Unfrozen().Linear("head", 2, 1).Build()
	return &resolver.Experiment{
		Name: "HDGAN_COCO",
		Models: map[string]*resolver.Component{
			"Generator": {
				Path:      "models.Generator",
				Type:      "HDGANGenerator",
				Kind:      component.KindModel,
				Instance:  component.NewNet("HDGANGenerator", ps),
				Optimizer: &resolver.Component{Kind: component.KindOptimizer, Instance: fakeOptimizer{}},
				Scheduler: &resolver.Component{Kind: component.KindScheduler, Instance: fakeScheduler{}},
			},
		},
	}
}

func minLoss(t *testing.T) trainer.Monitor {
	t.Helper()
	m, err := trainer.ParseMonitor("min val_loss")
	require.NoError(t, err)
	return m
}

func TestManager_SaveAndLoad(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	saver := &recordingSaver{}
	m := NewManager(dir, experiment(), WithStateSaver(saver))
	m.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	st := trainer.State{
		Epoch:    4,
		Metrics:  map[string]float64{"val_loss": 0.25},
		Monitor:  minLoss(t),
		Best:     0.25,
		Periodic: true,
		IsBest:   true,
	}

	// --- Act ---
	err := m.Save(context.Background(), st)

	// --- Assert ---
	require.NoError(t, err)
	epochPath := filepath.Join(dir, "checkpoint-epoch4.pb")
	bestPath := filepath.Join(dir, BestName)
	require.Equal(t, []string{epochPath, bestPath}, saver.paths)

	for _, path := range []string{epochPath, bestPath} {
		got, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, "HDGAN_COCO", got.Name())
		require.Equal(t, 4, got.Epoch())
		require.Equal(t, "min val_loss", got.Monitor())
		best, ok := got.Best()
		require.True(t, ok)
		require.Equal(t, 0.25, best)
		require.Equal(t, trainer.Resume{Epoch: 4, Best: 0.25, HasBest: true}, got.Resume())

		gen := got.Models()["Generator"].(map[string]any)
		require.Equal(t, "HDGANGenerator", gen["arch"])
		require.Equal(t, float64(4), gen["tensors"])
		require.Equal(t, float64(9), gen["parameters"])
		require.Equal(t, float64(3), gen["trainable_parameters"])
		opt := gen["optimizer"].(map[string]any)
		require.Equal(t, "Adam", opt["type"])
		require.Equal(t, []any{0.5, 0.999}, opt["hyperparameters"].(map[string]any)["betas"])
		require.Equal(t, 0.25, gen["lr_scheduler"].(map[string]any)["lr"])
	}
}

func TestManager_SaveSelectsFiles(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		st        trainer.State
		wantFiles []string
	}{
		{name: "periodic only", st: trainer.State{Epoch: 5, Monitor: trainer.MonitorOff, Periodic: true}, wantFiles: []string{"checkpoint-epoch5.pb"}},
		{name: "best only", st: trainer.State{Epoch: 3, Monitor: trainer.MonitorOff, IsBest: true}, wantFiles: []string{BestName}},
		{name: "neither", st: trainer.State{Epoch: 3, Monitor: trainer.MonitorOff}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			require.NoError(t, NewManager(dir, experiment()).Save(context.Background(), tc.st))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			var names []string
			for _, e := range entries {
				names = append(names, e.Name())
			}
			require.Equal(t, tc.wantFiles, names)
		})
	}
}

func TestManager_MonitorOffHasNoBest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	st := trainer.State{Epoch: 1, Monitor: trainer.MonitorOff, Best: 0, Periodic: true}
	require.NoError(t, NewManager(dir, experiment()).Save(context.Background(), st))

	got, err := Load(filepath.Join(dir, EpochFileName(1)))
	require.NoError(t, err)
	_, ok := got.Best()
	require.False(t, ok)
	require.False(t, got.Resume().HasBest)
}

func TestManager_SaverError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	m := NewManager(t.TempDir(), experiment(), WithStateSaver(&recordingSaver{err: boom}))

	err := m.Save(context.Background(), trainer.State{Epoch: 2, Monitor: trainer.MonitorOff, Periodic: true})

	require.ErrorIs(t, err, boom)
}

func TestLoad_RejectsForeignFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pb")
	require.NoError(t, os.WriteFile(garbage, []byte{0xff, 0xff, 0xff}, 0o644))
	empty := filepath.Join(dir, "empty.pb")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	_, err := Load(garbage)
	require.Error(t, err)
	_, err = Load(empty)
	require.ErrorContains(t, err, "not a checkpoint manifest")
	_, err = Load(filepath.Join(dir, "missing.pb"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func saveEpoch(t *testing.T, dir string, exp *resolver.Experiment, epoch int) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	st := trainer.State{Epoch: epoch, Monitor: trainer.MonitorOff, Periodic: true}
	require.NoError(t, NewManager(dir, exp).Save(context.Background(), st))
	return filepath.Join(dir, EpochFileName(epoch))
}

func TestLatest(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	exp := experiment()
	five := saveEpoch(t, dir, exp, 5)
	ten := saveEpoch(t, dir, exp, 10)
	best := filepath.Join(dir, BestName)
	require.NoError(t, os.WriteFile(best, nil, 0o644))

	// Equal mtimes, as after copying a run directory.
	stamp := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(five, stamp, stamp))
	require.NoError(t, os.Chtimes(ten, stamp, stamp))

	// --- Act ---
	got, err := Latest(dir, "HDGAN_COCO")

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, ten, got, "epoch 10 is later than epoch 5 even though it sorts first by name")

	m, err := Load(got)
	require.NoError(t, err)
	require.Equal(t, 10, m.Resume().Epoch)
}

func TestLatest_PrefersEpochOverModTime(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exp := experiment()
	ten := saveEpoch(t, dir, exp, 10)
	twelve := saveEpoch(t, dir, exp, 12)
	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(twelve, base, base))
	require.NoError(t, os.Chtimes(ten, base.Add(time.Minute), base.Add(time.Minute)))

	got, err := Latest(dir, "HDGAN_COCO")

	require.NoError(t, err)
	require.Equal(t, twelve, got)
}

func TestLatest_SkipsOtherExperiments(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	saved := t.TempDir()
	mine := saveEpoch(t, filepath.Join(saved, "models", "HDGAN_COCO", "0501_120000"), experiment(), 3)
	other := experiment()
	other.Name = "Mnist_LeNet"
	foreign := saveEpoch(t, filepath.Join(saved, "models", "Mnist_LeNet", "0501_120000"), other, 40)

	// --- Act ---
	got, err := Latest(saved, "HDGAN_COCO")

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, mine, got)

	unfiltered, err := Latest(saved, "")
	require.NoError(t, err)
	require.Equal(t, foreign, unfiltered)

	none, err := Latest(saved, "CaptionGAN")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestLatest_EmptyAndCorrupt(t *testing.T) {
	t.Parallel()

	empty, err := Latest(t.TempDir(), "")
	require.NoError(t, err)
	require.Empty(t, empty)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, EpochFileName(1)), []byte("not a manifest"), 0o644))
	_, err = Latest(dir, "")
	require.Error(t, err)
}
