package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/chiplettrace/internal/app"
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

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("chiplettrace", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
chiplettrace - Per-chiplet operation traces and deadlock checks for DNN placements.

Usage:
  chiplettrace [options] [PLACEMENT_PATH]
  chiplettrace -check-report REPORT [options]

Arguments:
  PLACEMENT_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	placementFlag := flagSet.String("placement", "", "Path to the placement file or directory.")
	pFlag := flagSet.String("p", "", "Path to the placement file or directory (shorthand).")
	outFlag := flagSet.String("out", "", "Write the report to this file instead of stdout.")
	checkFlag := flagSet.String("check-report", "", "Parse and verify an existing report instead of generating one.")
	meshWidthFlag := flagSet.Int("mesh-width", 0, "Override the mesh width of the placement. 0 keeps it.")
	meshHeightFlag := flagSet.Int("mesh-height", 0, "Override the mesh height of the placement. 0 keeps it.")
	strictFlag := flagSet.Bool("strict", false, "Exit with status 3 when the trace contains a deadlock.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *placementFlag != "" {
		path = *placementFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Placement path determined.", "path", path)

	if path == "" && *checkFlag == "" {
		slog.Debug("No input provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
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
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		PlacementPath:   path,
		CheckReportPath: *checkFlag,
		OutPath:         *outFlag,
		MeshWidth:       *meshWidthFlag,
		MeshHeight:      *meshHeightFlag,
		Strict:          *strictFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
