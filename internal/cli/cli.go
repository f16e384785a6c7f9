package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/lazygrid/internal/app"
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

// stringList collects a repeatable flag; each value may hold several
// comma-separated entries.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
//
// When -config names a YAML file, the file is applied on top of the flag
// defaults and flags given explicitly on the command line override it.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("lazygrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
lazygrid - Run a lazily evaluated task graph described in HCL.

Usage:
  lazygrid [options] [GRID_PATH]

Arguments:
  GRID_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	var targets stringList
	gridFlag := flagSet.String("grid", "", "Path to the grid file or directory.")
	gFlag := flagSet.String("g", "", "Path to the grid file or directory (shorthand).")
	flagSet.Var(&targets, "target", "Task to compute. Repeatable or comma-separated. Defaults to every task nothing depends on.")
	describeFlag := flagSet.Bool("describe", false, "Print the dependency graph of the targets as JSON instead of running it.")
	configFlag := flagSet.String("config", "", "Path to a YAML config file.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 0, "Number of concurrent workers. 0 uses one per CPU.")
	continueFlag := flagSet.Bool("continue-on-failure", false, "Keep running independent tasks after a failure.")
	clusterURLFlag := flagSet.String("cluster-url", "", "socket.io URL of a remote worker fleet. Empty runs tasks locally.")
	clusterNSFlag := flagSet.String("cluster-namespace", "", "socket.io namespace of the remote worker fleet.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	cfg := app.Config{
		Describe:          *describeFlag,
		LogFormat:         *logFormatFlag,
		LogLevel:          *logLevelFlag,
		HealthcheckPort:   *healthPortFlag,
		WorkerCount:       *workersFlag,
		ContinueOnFailure: *continueFlag,
	}
	if *configFlag != "" {
		fileCfg, err := app.LoadConfigFile(*configFlag, cfg)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		cfg = fileCfg
		slog.Debug("Config file applied.", "path", *configFlag)
	}

	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "target":
			cfg.Targets = targets
		case "describe":
			cfg.Describe = *describeFlag
		case "healthcheck-port":
			cfg.HealthcheckPort = *healthPortFlag
		case "log-format":
			cfg.LogFormat = *logFormatFlag
		case "log-level":
			cfg.LogLevel = *logLevelFlag
		case "workers":
			cfg.WorkerCount = *workersFlag
		case "continue-on-failure":
			cfg.ContinueOnFailure = *continueFlag
		case "cluster-url":
			cfg.Cluster.URL = *clusterURLFlag
		case "cluster-namespace":
			cfg.Cluster.Namespace = *clusterNSFlag
		}
	})

	if *gridFlag != "" {
		cfg.GridPath = *gridFlag
	} else if *gFlag != "" {
		cfg.GridPath = *gFlag
	} else if flagSet.NArg() > 0 {
		cfg.GridPath = flagSet.Arg(0)
	}
	slog.Debug("Grid path determined.", "path", cfg.GridPath)

	if cfg.GridPath == "" {
		slog.Debug("No grid path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
