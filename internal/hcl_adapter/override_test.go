package hcl_adapter

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestParseOverride(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		wantPath string
		want     cty.Value
	}{
		{"integer", "trainer.epochs=10", "trainer.epochs", cty.NumberIntVal(10)},
		{"float", "models.Generator.optimizer.args.lr=1e-4", "models.Generator.optimizer.args.lr", cty.MustParseNumberVal("1e-4")},
		{"bool", "trainer.tensorboardX=false", "trainer.tensorboardX", cty.False},
		{"quoted string", `trainer.save_dir="runs/x"`, "trainer.save_dir", cty.StringVal("runs/x")},
		{"bare word", "valid_data_loader.args.which_set=val", "valid_data_loader.args.which_set", cty.StringVal("val")},
		{"bare phrase", "trainer.monitor=min val_loss", "trainer.monitor", cty.StringVal("min val_loss")},
		{"path-like", "trainer.save_dir=saved/", "trainer.save_dir", cty.StringVal("saved/")},
		{"spaces around", " trainer.epochs = 3 ", "trainer.epochs", cty.NumberIntVal(3)},
		{
			"list", "models.Generator.args.side_output_at=[64, 128]", "models.Generator.args.side_output_at",
			cty.TupleVal([]cty.Value{cty.NumberIntVal(64), cty.NumberIntVal(128)}),
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Act ---
			got, err := ParseOverride(tc.input)

			// --- Assert ---
			require.NoError(t, err)
			require.Equal(t, tc.wantPath, got.Path)
			require.True(t, got.Value.Equals(tc.want).True(), "got %#v, want %#v", got.Value, tc.want)
		})
	}
}

func TestParseOverride_Invalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"trainer.epochs", "=5", "   =x"} {
		_, err := ParseOverride(input)
		require.Error(t, err, "input %q", input)
	}
}

func TestParseOverrides_StopsAtFirstError(t *testing.T) {
	t.Parallel()

	got, err := ParseOverrides([]string{"trainer.epochs=1", "trainer.save_period=2"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	_, err = ParseOverrides([]string{"trainer.epochs=1", "broken"})
	require.Error(t, err)
}
