// Package cli parses the command line into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chris-collard/fidle/internal/app"
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

const usageText = `
Fidle - teaching-materials pipeline: run notebook profiles, build the CI
report and catalog, train the course DCGAN.

Usage:
  fidle <command> [options]

Commands:
  run       Execute a notebook profile and record the CI report.
  report    Build the HTML index report from the CI report.
  catalog   Scan course directories and build the notebook catalog.
  profile   Generate a default run profile from the catalog.
  train     Train the DCGAN from an HCL run configuration.

Run 'fidle <command> -h' for the options of a command.
`

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	if len(args) == 0 {
		fmt.Fprint(output, usageText)
		return nil, true, nil
	}

	command := args[0]
	switch command {
	case "-h", "--help", "help":
		fmt.Fprint(output, usageText)
		return nil, true, nil
	case app.CmdRun, app.CmdReport, app.CmdCatalog, app.CmdProfile, app.CmdTrain:
		// known command, parsed below
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", command)}
	}

	flagSet := flag.NewFlagSet("fidle "+command, flag.ContinueOnError)
	flagSet.SetOutput(output)

	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	cfg := app.Config{Command: command}
	var dirsFlag string

	switch command {
	case app.CmdRun:
		flagSet.StringVar(&cfg.ProfilePath, "profile", "", "Path to the YAML run profile.")
		flagSet.StringVar(&cfg.TopDir, "top-dir", "..", "Path to the course root directory.")
		flagSet.StringVar(&cfg.Filter, "filter", ".*", "Only execute the run ids matching this regexp.")
		flagSet.BoolVar(&cfg.Reset, "reset", false, "Discard any previous report instead of extending it.")
	case app.CmdReport:
		flagSet.StringVar(&cfg.ProfilePath, "profile", "", "Path to the YAML run profile.")
		flagSet.StringVar(&cfg.TopDir, "top-dir", "..", "Path to the course root directory.")
		flagSet.StringVar(&cfg.HeaderLogo, "header-logo", "img/00-Fidle-header-01.svg", "SVG inlined at the top of the report.")
		flagSet.StringVar(&cfg.FooterLogo, "footer-logo", "img/00-Fidle-logo-01-80px.svg", "SVG inlined at the bottom of the report.")
	case app.CmdCatalog:
		flagSet.StringVar(&dirsFlag, "dirs", "", "Comma-separated list of course directories to scan.")
		flagSet.StringVar(&cfg.TopDir, "top-dir", "..", "Path to the course root directory.")
		flagSet.StringVar(&cfg.CatalogPath, "catalog", "catalog.json", "Path of the catalog file to write.")
	case app.CmdProfile:
		flagSet.StringVar(&cfg.CatalogPath, "catalog", "catalog.json", "Path of the catalog file to read.")
		flagSet.StringVar(&cfg.OutPath, "out", "default.yml", "Path of the profile file to write.")
		flagSet.StringVar(&cfg.OutputTag, "output-tag", "==ci==", "Artifact tag of the generated profile.")
	case app.CmdTrain:
		flagSet.StringVar(&cfg.TrainConfigPath, "config", "", "Path to the HCL training run configuration.")
	}

	if err := flagSet.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
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
	cfg.LogFormat = logFormat
	cfg.LogLevel = logLevel

	if dirsFlag != "" {
		for _, d := range strings.Split(dirsFlag, ",") {
			if d = strings.TrimSpace(d); d != "" {
				cfg.Dirs = append(cfg.Dirs, d)
			}
		}
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, false, nil
}
