package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/ganbootstrap/internal/app"
	"github.com/vk/ganbootstrap/internal/hcl_adapter"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ", ") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated AppConfig,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("ganbootstrap", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
ganbootstrap - Resolves a training configuration into models, optimizers,
data loaders and a validated trainer, then runs the training loop.

Usage:
  ganbootstrap [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a .json or .hcl experiment configuration.

Options:
`)
		flagSet.PrintDefaults()
	}

	var sets stringList
	configFlag := flagSet.String("config", "", "Path to the experiment configuration.")
	cFlag := flagSet.String("c", "", "Path to the experiment configuration (shorthand).")
	flagSet.Var(&sets, "set", "Override a value, e.g. -set models.Generator.optimizer.args.lr=1e-4. Repeatable.")
	runIDFlag := flagSet.String("run-id", "", "Run identifier. Defaults to the start time as MMDD_HHMMSS.")
	resumeFlag := flagSet.String("resume", "", "Checkpoint manifest, or a directory of them, to resume from.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Resolve and validate the configuration without writing anything.")
	listTypesFlag := flagSet.Bool("list-types", false, "List the registered component types and their arguments.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'. Defaults to the trainer's verbosity.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *configFlag != "" {
		path = *configFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Config path determined.", "path", path)

	if path == "" && !*listTypesFlag {
		slog.Debug("No config path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	overrides, err := hcl_adapter.ParseOverrides(sets)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	config, err := app.NewConfig(app.Config{
		ConfigPath:      path,
		Overrides:       overrides,
		RunID:           *runIDFlag,
		Resume:          *resumeFlag,
		DryRun:          *dryRunFlag,
		ListTypes:       *listTypesFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       strings.ToLower(*logFormatFlag),
		LogLevel:        strings.ToLower(*logLevelFlag),
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
