package trainer

import (
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"sort"

	"github.com/vk/ganbootstrap/internal/cfgerr"
	"github.com/vk/ganbootstrap/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// Trainer field names as written in experiment files.
const (
	FieldEpochs       = "epochs"
	FieldKLCoe        = "KL_coe"
	FieldSaveDir      = "save_dir"
	FieldSavePeriod   = "save_period"
	FieldVerbosity    = "verbosity"
	FieldMonitor      = "monitor"
	FieldEarlyStop    = "early_stop"
	FieldTensorboardX = "tensorboardX"
	FieldLogDir       = "log_dir"
	FieldDashboardURL = "dashboard_url"
	FieldSaveBest     = "save_best"
)

var knownFields = map[string]struct{}{
	FieldEpochs: {}, FieldKLCoe: {}, FieldSaveDir: {}, FieldSavePeriod: {},
	FieldVerbosity: {}, FieldMonitor: {}, FieldEarlyStop: {}, FieldTensorboardX: {},
	FieldLogDir: {}, FieldDashboardURL: {}, FieldSaveBest: {},
}

// Config is the validated, immutable trainer configuration.
type Config struct {
	epochs       int
	klCoe        float64
	saveDir      string
	savePeriod   int
	verbosity    int
	monitor      Monitor
	earlyStop    int
	tensorboardX bool
	logDir       string
	dashboardURL string
	saveBest     bool
}

func (c *Config) Epochs() int { return c.epochs }
func (c *Config) KLCoe() float64 { return c.klCoe }
func (c *Config) SaveDir() string { return c.saveDir }
func (c *Config) SavePeriod() int { return c.savePeriod }
func (c *Config) Verbosity() int { return c.verbosity }
func (c *Config) Monitor() Monitor { return c.monitor }
func (c *Config) TensorboardX() bool { return c.tensorboardX }
func (c *Config) LogDir() string { return c.logDir }
func (c *Config) DashboardURL() string { return c.dashboardURL }
func (c *Config) SaveBest() bool { return c.saveBest }

// EarlyStop returns the patience in epochs, or 0 when early stopping is
// disabled.
func (c *Config) EarlyStop() int { return c.earlyStop }

// LogLevel maps verbosity 0, 1, 2 to warn, info, debug.
func (c *Config) LogLevel() slog.Level {
	switch c.verbosity {
	case 0:
		return slog.LevelWarn
	case 1:
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// Raw returns the flat field mapping of the config with every default made
// explicit. Building a config from it yields an equal Config.
func (c *Config) Raw() map[string]cty.Value {
	raw := map[string]cty.Value{
		FieldEpochs:       cty.NumberIntVal(int64(c.epochs)),
		FieldKLCoe:        cty.NumberFloatVal(c.klCoe),
		FieldSaveDir:      cty.StringVal(c.saveDir),
		FieldSavePeriod:   cty.NumberIntVal(int64(c.savePeriod)),
		FieldVerbosity:    cty.NumberIntVal(int64(c.verbosity)),
		FieldMonitor:      cty.StringVal(c.monitor.String()),
		FieldEarlyStop:    cty.NumberIntVal(int64(c.earlyStop)),
		FieldTensorboardX: cty.BoolVal(c.tensorboardX),
		FieldSaveBest:     cty.BoolVal(c.saveBest),
	}
	if c.logDir != "" {
		raw[FieldLogDir] = cty.StringVal(c.logDir)
	}
	if c.dashboardURL != "" {
		raw[FieldDashboardURL] = cty.StringVal(c.dashboardURL)
	}
	return raw
}

// BuildTrainerConfig validates the trainer section. Every violated field is
// reported in a single InvalidTrainerConfigError.
func BuildTrainerConfig(raw map[string]cty.Value) (*Config, error) {
	r := &reader{raw: raw}
	c := &Config{}

	c.epochs = r.positiveInt(FieldEpochs)
	c.savePeriod = r.positiveInt(FieldSavePeriod)
	c.saveDir = r.nonEmptyString(FieldSaveDir, true)
	c.klCoe = r.nonNegativeNumber(FieldKLCoe)
	c.verbosity = r.verbosity()
	c.monitor = r.monitor()
	c.earlyStop = r.earlyStop()
	c.tensorboardX = r.boolean(FieldTensorboardX, false)
	c.saveBest = r.boolean(FieldSaveBest, true)
	c.logDir = r.nonEmptyString(FieldLogDir, c.tensorboardX)
	c.dashboardURL = r.dashboardURL()

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := knownFields[name]; !ok {
			r.bad(name, "unknown trainer field")
		}
	}

	if len(r.violations) > 0 {
		return nil, cfgerr.NewInvalidTrainerConfig(config.KeyTrainer, r.violations)
	}
	return c, nil
}

// reader pulls typed fields out of the raw mapping, collecting violations
// instead of stopping at the first one.
type reader struct {
	raw        map[string]cty.Value
	violations []cfgerr.Violation
}

func (r *reader) bad(field, format string, args ...any) {
	r.violations = append(r.violations, cfgerr.Violation{Field: field, Reason: fmt.Sprintf(format, args...)})
}

// get returns the value of a field that is present and not null.
func (r *reader) get(field string) (cty.Value, bool) {
	v, ok := r.raw[field]
	if !ok || v.IsNull() {
		return cty.NilVal, false
	}
	return v, true
}

// wholeNumber converts v to an int if it is a whole number.
func wholeNumber(v cty.Value) (int, bool) {
	if !v.IsKnown() || !v.Type().Equals(cty.Number) {
		return 0, false
	}
	bf := v.AsBigFloat()
	if !bf.IsInt() {
		return 0, false
	}
	i, acc := bf.Int64()
	if acc != big.Exact || int64(int(i)) != i {
		return 0, false
	}
	return int(i), true
}

func (r *reader) positiveInt(field string) int {
	v, ok := r.get(field)
	if !ok {
		r.bad(field, "is required")
		return 0
	}
	n, ok := wholeNumber(v)
	if !ok {
		r.bad(field, "must be an integer, got %s", describe(v))
		return 0
	}
	if n <= 0 {
		r.bad(field, "must be greater than 0, got %d", n)
		return 0
	}
	return n
}

func (r *reader) nonNegativeNumber(field string) float64 {
	v, ok := r.get(field)
	if !ok {
		return 0
	}
	if !v.IsKnown() || !v.Type().Equals(cty.Number) {
		r.bad(field, "must be a number, got %s", describe(v))
		return 0
	}
	f, _ := v.AsBigFloat().Float64()
	if f < 0 {
		r.bad(field, "must be greater than or equal to 0, got %g", f)
		return 0
	}
	return f
}

func (r *reader) nonEmptyString(field string, required bool) string {
	v, ok := r.get(field)
	if !ok {
		if required {
			r.bad(field, "is required")
		}
		return ""
	}
	if !v.IsKnown() || !v.Type().Equals(cty.String) {
		r.bad(field, "must be a string, got %s", describe(v))
		return ""
	}
	s := v.AsString()
	if s == "" && required {
		r.bad(field, "must not be empty")
	}
	return s
}

func (r *reader) boolean(field string, def bool) bool {
	v, ok := r.get(field)
	if !ok {
		return def
	}
	if !v.IsKnown() || !v.Type().Equals(cty.Bool) {
		r.bad(field, "must be a bool, got %s", describe(v))
		return def
	}
	return v.True()
}

func (r *reader) verbosity() int {
	v, ok := r.get(FieldVerbosity)
	if !ok {
		return 2
	}
	n, ok := wholeNumber(v)
	if !ok || n < 0 || n > 2 {
		r.bad(FieldVerbosity, "must be 0, 1 or 2, got %s", describe(v))
		return 2
	}
	return n
}

func (r *reader) monitor() Monitor {
	v, ok := r.get(FieldMonitor)
	if !ok {
		return MonitorOff
	}
	if !v.IsKnown() || !v.Type().Equals(cty.String) {
		r.bad(FieldMonitor, "must be a string, got %s", describe(v))
		return MonitorOff
	}
	m, err := ParseMonitor(v.AsString())
	if err != nil {
		r.bad(FieldMonitor, "%v", err)
		return MonitorOff
	}
	return m
}

// earlyStop accepts a positive patience, or 0, "off", "disabled" and false
// as the disabled sentinel.
func (r *reader) earlyStop() int {
	v, ok := r.get(FieldEarlyStop)
	if !ok || !v.IsKnown() {
		return 0
	}
	switch {
	case v.Type().Equals(cty.Number):
		n, ok := wholeNumber(v)
		if !ok {
			r.bad(FieldEarlyStop, "must be an integer, got %s", describe(v))
			return 0
		}
		if n < 0 {
			r.bad(FieldEarlyStop, "must be a positive patience or 0 to disable, got %d", n)
			return 0
		}
		return n
	case v.Type().Equals(cty.String):
		switch v.AsString() {
		case "off", "disabled":
			return 0
		}
		r.bad(FieldEarlyStop, "must be a positive integer, \"off\" or \"disabled\", got %q", v.AsString())
	case v.Type().Equals(cty.Bool):
		if v.False() {
			return 0
		}
		r.bad(FieldEarlyStop, "true is not a patience; use a positive integer")
	default:
		r.bad(FieldEarlyStop, "must be a positive integer or a disabled sentinel, got %s", describe(v))
	}
	return 0
}

func (r *reader) dashboardURL() string {
	s := r.nonEmptyString(FieldDashboardURL, false)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil {
		r.bad(FieldDashboardURL, "is not a valid URL: %v", err)
		return ""
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		r.bad(FieldDashboardURL, "scheme must be http, https, ws or wss, got %q", u.Scheme)
		return ""
	}
	if u.Host == "" {
		r.bad(FieldDashboardURL, "must include a host")
		return ""
	}
	return s
}

func describe(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	if !v.IsKnown() {
		return "an unknown value"
	}
	switch {
	case v.Type().Equals(cty.String):
		return fmt.Sprintf("%q", v.AsString())
	case v.Type().Equals(cty.Number):
		return v.AsBigFloat().Text('g', -1)
	case v.Type().Equals(cty.Bool):
		return fmt.Sprint(v.True())
	}
	return v.Type().FriendlyName()
}
