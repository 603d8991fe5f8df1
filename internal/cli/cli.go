// Package cli parses the assetpipe command line and runs the selected
// command. It owns process-level concerns: flags, logging setup and exit
// codes.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spachava753/assetpipe/internal/config"
)

// ExitError carries the process exit code for a failure.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

func failure(format string, args ...any) error {
	return &ExitError{Code: 1, Message: fmt.Sprintf(format, args...)}
}

type globals struct {
	configPath string
	logLevel   string
	logFormat  string
	stdout     io.Writer
	stderr     io.Writer
}

const usageText = `
assetpipe - a build orchestrator for static theme assets.

Usage:
  assetpipe [options] <command> [arguments]

Commands:
  build [pipeline]   Run a pipeline (default: "default").
  watch              Re-run watch targets when source files change.
  scaffold <name>    Create template and style stubs for a component.
  tasks              List tasks, pipelines and watch bindings.

Options:
`

// Run executes the command line args. Errors that should end the process
// with a specific status are *ExitError.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("assetpipe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}

	g := globals{stdout: stdout, stderr: stderr}
	fs.StringVar(&g.configPath, "config", config.DefaultFile, "Path to the build file (.yaml or .toml).")
	fs.StringVar(&g.logLevel, "log-level", "", "Logging level: 'debug', 'info', 'warn' or 'error'. Defaults to the build file's log_level.")
	fs.StringVar(&g.logFormat, "log-format", "text", "Log output format: 'text' or 'json'.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return usageError("%v", err)
	}

	g.logFormat = strings.ToLower(g.logFormat)
	if g.logFormat != "text" && g.logFormat != "json" {
		return usageError("invalid log-format %q: must be 'text' or 'json'", g.logFormat)
	}
	g.logLevel = strings.ToLower(g.logLevel)
	if g.logLevel != "" {
		if _, err := parseLevel(g.logLevel); err != nil {
			return usageError("%v", err)
		}
	}
	slog.SetDefault(newLogger(g.logLevel, g.logFormat, stderr))

	if fs.NArg() == 0 {
		fs.Usage()
		return usageError("missing command")
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "build":
		return runBuild(ctx, g, rest)
	case "watch":
		return runWatch(ctx, g, rest)
	case "scaffold", "component":
		return runScaffold(g, rest)
	case "tasks":
		return runTasks(g, rest)
	default:
		fs.Usage()
		return usageError("unknown command %q", cmd)
	}
}
