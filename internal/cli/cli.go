package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/servinagrero/monaco/internal/app"
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

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly (help was
// requested), or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("monaco", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Monaco - a declarative job runner and templating tool.

Usage:
  monaco [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a config file (.yaml, .yml, .toml, .json or .hcl). When omitted,
    the working directory is probed for monaco.yaml, monaco.yml, monaco.toml,
    monaco.json or monaco.hcl.

Options:
`)
		flagSet.PrintDefaults()
	}

	jobFlag := flagSet.String("job", "", "Run a single job and its dependencies.")
	jFlag := flagSet.String("j", "", "Run a single job and its dependencies (shorthand).")
	dryFlag := flagSet.Bool("dry", false, "Echo commands and render targets without executing anything.")
	checkFlag := flagSet.Bool("check", false, "Validate the configuration and exit.")
	parallelFlag := flagSet.Bool("parallel", false, "Run independent jobs concurrently.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("expected at most one config path, got %d arguments", flagSet.NArg())}
	}
	path := flagSet.Arg(0)

	jobName := *jobFlag
	if jobName == "" {
		jobName = *jFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *healthPortFlag < 0 || *healthPortFlag > 65535 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid healthcheck-port: %d is not a valid port", *healthPortFlag)}
	}

	return &app.Config{
		ConfigPath:      path,
		JobName:         jobName,
		DryRun:          *dryFlag,
		CheckOnly:       *checkFlag,
		Parallel:        *parallelFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
	}, false, nil
}
