package hcl_adapter

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/ganbootstrap/internal/cfgerr"
	"github.com/zclconf/go-cty/cty"
)

func TestLoad_HDGANConfig(t *testing.T) {
	t.Parallel()

	// --- Act ---
	exp, conv, err := NewLoader().Load(context.Background(), filepath.Join("testdata", "hdgan_coco.json"))

	// --- Assert ---
	require.NoError(t, err)
	require.NotNil(t, conv)
	require.Equal(t, "HDGAN_COCO", exp.Name)
	require.Equal(t, 1, exp.NGPU)
	require.Equal(t, []string{"Discriminator", "Generator"}, exp.ModelNames())

	gen := exp.Models["Generator"]
	require.Equal(t, "models.Generator", gen.Path)
	require.Equal(t, "HDGANGenerator", gen.Type)
	require.Equal(t, []string{"ca_code_dim", "noise_dim", "num_resblock", "side_output_at", "text_embed_dim"}, gen.ArgNames())
	require.NotNil(t, gen.Optimizer)
	require.Equal(t, "models.Generator.optimizer", gen.Optimizer.Path)
	require.Equal(t, "Adam", gen.Optimizer.Type)
	require.Nil(t, gen.Scheduler)

	require.Equal(t, "train_data_loader", exp.TrainDataLoader.Path)
	require.Contains(t, exp.TrainDataLoader.Args, "validation_split")
	require.NotContains(t, exp.ValidDataLoader.Args, "validation_split")

	require.True(t, exp.Trainer["monitor"].RawEquals(cty.StringVal("off")))
	require.True(t, exp.Trainer["tensorboardX"].RawEquals(cty.True))
	require.Len(t, exp.Trainer, 9)
	require.Equal(t, []string{filepath.Join("testdata", "hdgan_coco.json")}, exp.Sources)
}

func TestLoad_JSONAndHCLAgree(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	loader := NewLoader()

	// --- Act ---
	fromJSON, _, err := loader.Load(context.Background(), filepath.Join("testdata", "hdgan_coco.json"))
	require.NoError(t, err)
	fromHCL, _, err := loader.Load(context.Background(), filepath.Join("testdata", "hdgan_coco.hcl"))
	require.NoError(t, err)

	// --- Assert ---
	// The snapshot is a canonical rendering, so equal snapshots mean equal
	// experiments.
	require.Equal(t, string(Snapshot(fromJSON)), string(Snapshot(fromHCL)))
}

func TestLoad_DirectoryMergesFiles(t *testing.T) {
	t.Parallel()

	// --- Act ---
	exp, _, err := NewLoader().Load(context.Background(), filepath.Join("testdata", "split"))

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "split_run", exp.Name)
	require.Equal(t, 0, exp.NGPU)
	require.Equal(t, []string{"Generator"}, exp.ModelNames())
	require.Equal(t, "MnistDataLoader", exp.TrainDataLoader.Type)
	require.Len(t, exp.Trainer, 3)
	require.Len(t, exp.Sources, 2)
}

// validDoc returns a minimal, loadable experiment document.
func validDoc() map[string]any {
	component := func(typ string) map[string]any {
		return map[string]any{"type": typ, "args": map[string]any{}}
	}
	return map[string]any{
		"name":  "test",
		"n_gpu": 0,
		"models": map[string]any{
			"G": map[string]any{
				"type":      "HDGANGenerator",
				"args":      map[string]any{"noise_dim": 100},
				"optimizer": component("Adam"),
			},
		},
		"train_data_loader": component("MnistDataLoader"),
		"valid_data_loader": component("MnistDataLoader"),
		"trainer":           map[string]any{"epochs": 1},
	}
}

func writeDoc(t *testing.T, dir, name string, doc map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, raw, 0644))
	return path
}

func TestLoad_MalformedConfig(t *testing.T) {
	t.Parallel()

	model := func(doc map[string]any) map[string]any {
		return doc["models"].(map[string]any)["G"].(map[string]any)
	}

	testCases := []struct {
		name     string
		mutate   func(doc map[string]any)
		wantPath string
	}{
		{
			name:     "missing trainer",
			mutate:   func(doc map[string]any) { delete(doc, "trainer") },
			wantPath: "trainer",
		},
		{
			name:     "missing models",
			mutate:   func(doc map[string]any) { delete(doc, "models") },
			wantPath: "models",
		},
		{
			name:     "missing name is reported before later keys",
			mutate:   func(doc map[string]any) { delete(doc, "name"); delete(doc, "trainer") },
			wantPath: "name",
		},
		{
			name:     "name is not a string",
			mutate:   func(doc map[string]any) { doc["name"] = 5 },
			wantPath: "name",
		},
		{
			name:     "negative n_gpu",
			mutate:   func(doc map[string]any) { doc["n_gpu"] = -1 },
			wantPath: "n_gpu",
		},
		{
			name:     "fractional n_gpu",
			mutate:   func(doc map[string]any) { doc["n_gpu"] = 1.5 },
			wantPath: "n_gpu",
		},
		{
			name:     "model without type",
			mutate:   func(doc map[string]any) { delete(model(doc), "type") },
			wantPath: "models.G.type",
		},
		{
			name:     "model without args",
			mutate:   func(doc map[string]any) { delete(model(doc), "args") },
			wantPath: "models.G.args",
		},
		{
			name:     "unknown key inside a model",
			mutate:   func(doc map[string]any) { model(doc)["extra"] = 1 },
			wantPath: "models.G",
		},
		{
			name: "optimizer without type",
			mutate: func(doc map[string]any) {
				model(doc)["optimizer"] = map[string]any{"args": map[string]any{}}
			},
			wantPath: "models.G.optimizer.type",
		},
		{
			name: "data loader with empty type",
			mutate: func(doc map[string]any) {
				doc["valid_data_loader"] = map[string]any{"type": "", "args": map[string]any{}}
			},
			wantPath: "valid_data_loader.type",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			doc := validDoc()
			tc.mutate(doc)
			path := writeDoc(t, t.TempDir(), "config.json", doc)

			// --- Act ---
			_, _, err := NewLoader().Load(context.Background(), path)

			// --- Assert ---
			var malformed *cfgerr.MalformedConfigError
			require.True(t, errors.As(err, &malformed), "expected MalformedConfigError, got %v", err)
			require.Equal(t, tc.wantPath, malformed.Path)
		})
	}
}

func TestLoad_UnknownTopLevelKeysAreIgnored(t *testing.T) {
	t.Parallel()

	doc := validDoc()
	doc["arch"] = "whatever"
	doc["metrics"] = []string{"accuracy"}
	path := writeDoc(t, t.TempDir(), "config.json", doc)

	exp, _, err := NewLoader().Load(context.Background(), path)

	require.NoError(t, err)
	require.Equal(t, "test", exp.Name)
}

func TestLoad_NameIsFreeForm(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "HDGAN COCO (256px)"} {
		doc := validDoc()
		doc["name"] = name
		path := writeDoc(t, t.TempDir(), "config.json", doc)

		exp, _, err := NewLoader().Load(context.Background(), path)

		require.NoError(t, err, "name %q", name)
		require.Equal(t, name, exp.Name)
	}
}

func TestLoad_DuplicateAcrossFiles(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	writeDoc(t, dir, "a.json", validDoc())
	writeDoc(t, dir, "b.json", map[string]any{
		"models": map[string]any{
			"G": map[string]any{"type": "HDGANGenerator", "args": map[string]any{}},
		},
	})

	// --- Act ---
	_, _, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	var malformed *cfgerr.MalformedConfigError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, "models.G", malformed.Path)
}

func TestLoad_SyntaxErrorCarriesPosition(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "x",`), 0644))

	_, _, err := NewLoader().Load(context.Background(), path)

	var malformed *cfgerr.MalformedConfigError
	require.ErrorAs(t, err, &malformed)
	require.Contains(t, malformed.Pos, "broken.json")
}

func TestLoad_NoFilesAndMissingPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, _, err := NewLoader().Load(context.Background(), dir)
	var malformed *cfgerr.MalformedConfigError
	require.ErrorAs(t, err, &malformed)

	_, _, err = NewLoader().Load(context.Background(), filepath.Join(dir, "nope.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
