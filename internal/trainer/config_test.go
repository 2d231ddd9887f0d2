package trainer

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/ganbootstrap/internal/cfgerr"
	"github.com/zclconf/go-cty/cty"
)

// hdganTrainer is the trainer section of the HDGAN COCO experiment.
func hdganTrainer() map[string]cty.Value {
	return map[string]cty.Value{
		"epochs":       cty.NumberIntVal(600),
		"KL_coe":       cty.NumberIntVal(4),
		"save_dir":     cty.StringVal("saved/"),
		"save_period":  cty.NumberIntVal(5),
		"verbosity":    cty.NumberIntVal(2),
		"monitor":      cty.StringVal("off"),
		"early_stop":   cty.NumberIntVal(0),
		"tensorboardX": cty.True,
		"log_dir":      cty.StringVal("saved/runs"),
	}
}

func with(base map[string]cty.Value, key string, v cty.Value) map[string]cty.Value {
	out := make(map[string]cty.Value, len(base))
	for k, val := range base {
		out[k] = val
	}
	out[key] = v
	return out
}

func without(base map[string]cty.Value, keys ...string) map[string]cty.Value {
	out := make(map[string]cty.Value, len(base))
	for k, val := range base {
		out[k] = val
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func TestBuildTrainerConfig_MonitorOff(t *testing.T) {
	t.Parallel()

	// --- Act ---
	cfg, err := BuildTrainerConfig(hdganTrainer())

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, 600, cfg.Epochs())
	require.Equal(t, 4.0, cfg.KLCoe())
	require.Equal(t, "saved/", cfg.SaveDir())
	require.Equal(t, 5, cfg.SavePeriod())
	require.Equal(t, MonitorOff, cfg.Monitor())
	require.False(t, cfg.Monitor().Enabled())
	require.Equal(t, 0, cfg.EarlyStop())
	require.True(t, cfg.TensorboardX())
	require.Equal(t, "saved/runs", cfg.LogDir())
	require.True(t, cfg.SaveBest())
	require.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestBuildTrainerConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := BuildTrainerConfig(map[string]cty.Value{
		"epochs":      cty.NumberIntVal(1),
		"save_dir":    cty.StringVal("out"),
		"save_period": cty.NumberIntVal(1),
	})

	require.NoError(t, err)
	require.Equal(t, 0.0, cfg.KLCoe())
	require.Equal(t, 2, cfg.Verbosity())
	require.Equal(t, MonitorOff, cfg.Monitor())
	require.Equal(t, 0, cfg.EarlyStop())
	require.False(t, cfg.TensorboardX())
	require.Empty(t, cfg.LogDir())
	require.Empty(t, cfg.DashboardURL())
	require.True(t, cfg.SaveBest())
}

func TestBuildTrainerConfig_Accepted(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		raw    map[string]cty.Value
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "monitor min",
			raw:  with(hdganTrainer(), "monitor", cty.StringVal("min val_loss")),
			verify: func(t *testing.T, cfg *Config) {
				require.Equal(t, Monitor{Mode: ModeMin, Metric: "val_loss"}, cfg.Monitor())
			},
		},
		{
			name: "monitor max with extra spaces",
			raw:  with(hdganTrainer(), "monitor", cty.StringVal("max   val_accuracy")),
			verify: func(t *testing.T, cfg *Config) {
				require.Equal(t, Monitor{Mode: ModeMax, Metric: "val_accuracy"}, cfg.Monitor())
			},
		},
		{
			name:   "early stop patience",
			raw:    with(hdganTrainer(), "early_stop", cty.NumberIntVal(10)),
			verify: func(t *testing.T, cfg *Config) { require.Equal(t, 10, cfg.EarlyStop()) },
		},
		{
			name:   "early stop off",
			raw:    with(hdganTrainer(), "early_stop", cty.StringVal("off")),
			verify: func(t *testing.T, cfg *Config) { require.Equal(t, 0, cfg.EarlyStop()) },
		},
		{
			name:   "early stop disabled",
			raw:    with(hdganTrainer(), "early_stop", cty.StringVal("disabled")),
			verify: func(t *testing.T, cfg *Config) { require.Equal(t, 0, cfg.EarlyStop()) },
		},
		{
			name:   "early stop false",
			raw:    with(hdganTrainer(), "early_stop", cty.False),
			verify: func(t *testing.T, cfg *Config) { require.Equal(t, 0, cfg.EarlyStop()) },
		},
		{
			name:   "early stop null",
			raw:    with(hdganTrainer(), "early_stop", cty.NullVal(cty.Number)),
			verify: func(t *testing.T, cfg *Config) { require.Equal(t, 0, cfg.EarlyStop()) },
		},
		{
			name:   "no log dir without tensorboard",
			raw:    without(with(hdganTrainer(), "tensorboardX", cty.False), "log_dir"),
			verify: func(t *testing.T, cfg *Config) { require.Empty(t, cfg.LogDir()) },
		},
		{
			name: "dashboard url",
			raw:  with(hdganTrainer(), "dashboard_url", cty.StringVal("http://localhost:3000")),
			verify: func(t *testing.T, cfg *Config) {
				require.Equal(t, "http://localhost:3000", cfg.DashboardURL())
			},
		},
		{
			name:   "verbosity 0",
			raw:    with(hdganTrainer(), "verbosity", cty.NumberIntVal(0)),
			verify: func(t *testing.T, cfg *Config) { require.Equal(t, slog.LevelWarn, cfg.LogLevel()) },
		},
		{
			name:   "fractional KL coefficient",
			raw:    with(hdganTrainer(), "KL_coe", cty.NumberFloatVal(0.5)),
			verify: func(t *testing.T, cfg *Config) { require.Equal(t, 0.5, cfg.KLCoe()) },
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := BuildTrainerConfig(tc.raw)

			require.NoError(t, err)
			tc.verify(t, cfg)
		})
	}
}

func TestBuildTrainerConfig_Violations(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		raw        map[string]cty.Value
		wantFields []string
	}{
		{"epochs zero", with(hdganTrainer(), "epochs", cty.NumberIntVal(0)), []string{"epochs"}},
		{"save period zero", with(hdganTrainer(), "save_period", cty.NumberIntVal(0)), []string{"save_period"}},
		{"early stop negative", with(hdganTrainer(), "early_stop", cty.NumberIntVal(-1)), []string{"early_stop"}},
		{"early stop true", with(hdganTrainer(), "early_stop", cty.True), []string{"early_stop"}},
		{"early stop unknown word", with(hdganTrainer(), "early_stop", cty.StringVal("never")), []string{"early_stop"}},
		{"epochs negative", with(hdganTrainer(), "epochs", cty.NumberIntVal(-3)), []string{"epochs"}},
		{"epochs fractional", with(hdganTrainer(), "epochs", cty.NumberFloatVal(2.5)), []string{"epochs"}},
		{"epochs as string", with(hdganTrainer(), "epochs", cty.StringVal("10")), []string{"epochs"}},
		{"epochs missing", without(hdganTrainer(), "epochs"), []string{"epochs"}},
		{"save dir empty", with(hdganTrainer(), "save_dir", cty.StringVal("")), []string{"save_dir"}},
		{"save dir missing", without(hdganTrainer(), "save_dir"), []string{"save_dir"}},
		{"KL coefficient negative", with(hdganTrainer(), "KL_coe", cty.NumberIntVal(-1)), []string{"KL_coe"}},
		{"verbosity out of range", with(hdganTrainer(), "verbosity", cty.NumberIntVal(3)), []string{"verbosity"}},
		{"monitor without metric", with(hdganTrainer(), "monitor", cty.StringVal("min")), []string{"monitor"}},
		{"monitor bad mode", with(hdganTrainer(), "monitor", cty.StringVal("lowest val_loss")), []string{"monitor"}},
		{"monitor Off is not off", with(hdganTrainer(), "monitor", cty.StringVal("Off")), []string{"monitor"}},
		{"tensorboard needs log dir", without(hdganTrainer(), "log_dir"), []string{"log_dir"}},
		{"tensorboard not a bool", with(hdganTrainer(), "tensorboardX", cty.StringVal("yes")), []string{"tensorboardX"}},
		{"dashboard url scheme", with(hdganTrainer(), "dashboard_url", cty.StringVal("ftp://host")), []string{"dashboard_url"}},
		{"dashboard url host", with(hdganTrainer(), "dashboard_url", cty.StringVal("http://")), []string{"dashboard_url"}},
		{"unknown field", with(hdganTrainer(), "epoch", cty.NumberIntVal(1)), []string{"epoch"}},
		{
			name: "every violation is reported",
			raw: with(with(with(hdganTrainer(),
				"epochs", cty.NumberIntVal(0)),
				"save_period", cty.NumberIntVal(0)),
				"early_stop", cty.NumberIntVal(-5)),
			wantFields: []string{"early_stop", "epochs", "save_period"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Act ---
			cfg, err := BuildTrainerConfig(tc.raw)

			// --- Assert ---
			require.Nil(t, cfg)
			var invalid *cfgerr.InvalidTrainerConfigError
			require.ErrorAs(t, err, &invalid)
			require.Equal(t, tc.wantFields, invalid.Fields())
			require.Equal(t, "trainer", invalid.Path)
			require.Contains(t, err.Error(), "trainer."+tc.wantFields[0])
		})
	}
}

func TestConfig_RawRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []map[string]cty.Value{
		hdganTrainer(),
		with(with(hdganTrainer(), "monitor", cty.StringVal("min val_loss")), "early_stop", cty.StringVal("off")),
		with(without(hdganTrainer(), "log_dir", "tensorboardX"), "dashboard_url", cty.StringVal("ws://dash:8080/ns")),
		with(hdganTrainer(), "KL_coe", cty.NumberFloatVal(0.1)),
	}

	for _, raw := range inputs {
		// --- Act ---
		first, err := BuildTrainerConfig(raw)
		require.NoError(t, err)
		second, err := BuildTrainerConfig(first.Raw())

		// --- Assert ---
		require.NoError(t, err)
		require.Equal(t, first, second)

		third, err := BuildTrainerConfig(second.Raw())
		require.NoError(t, err)
		require.Equal(t, second, third)
	}
}
