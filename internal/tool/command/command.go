// Package command runs external executables such as the sass compiler and
// postcss.
//
// Arguments may contain {input}, {output} and {name}. {input} is the matched
// file, {name} its base name without extension, and {output} the job output
// with {name} substituted, so "${output}/{name}.css" yields one output per
// input.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spachava753/assetpipe/internal/tool"
)

// Tool runs one executable per matched input, or once when the job has no
// input patterns.
type Tool struct {
	kind    string
	command string
	args    []string
}

// New creates a command tool.
func New(kind, command string, args []string) *Tool {
	return &Tool{kind: kind, command: command, args: args}
}

// Sass runs the dart-sass CLI, which writes {output}.map alongside the
// compiled stylesheet.
func Sass(command string, args []string) *Tool {
	if command == "" {
		command = "sass"
	}
	if len(args) == 0 {
		args = []string{"--style=compressed", "{input}", "{output}"}
	}
	return New("sass", command, args)
}

// Autoprefix runs postcss with the autoprefixer plugin, rewriting each input
// in place.
func Autoprefix(command string, args []string) *Tool {
	if command == "" {
		command = "postcss"
	}
	if len(args) == 0 {
		args = []string{"{input}", "--use", "autoprefixer", "--replace"}
	}
	return New("autoprefix", command, args)
}

// Name returns the tool kind.
func (t *Tool) Name() string {
	return t.kind
}

// Command returns the executable and its argument templates.
func (t *Tool) Command() (string, []string) {
	return t.command, append([]string(nil), t.args...)
}

// Run executes the command.
func (t *Tool) Run(ctx context.Context, job tool.Job) error {
	if len(job.Inputs) == 0 {
		return t.exec(ctx, job, "", job.Output)
	}

	files, err := job.Files()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: %v", tool.ErrNoInputs, job.Inputs)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		output := strings.ReplaceAll(job.Output, "{name}", baseName(f.Path))
		if err := t.exec(ctx, job, f.Path, output); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tool) exec(ctx context.Context, job tool.Job, input, output string) error {
	if output != "" {
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	r := strings.NewReplacer("{input}", input, "{output}", output, "{name}", baseName(input))
	args := make([]string, len(t.args))
	for i, a := range t.args {
		args[i] = r.Replace(a)
	}

	slog.Debug("running command", "task", job.TaskID, "command", t.command, "args", args)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.command, args...)
	cmd.Stdout = tool.Writer(job.Stdout, os.Stdout)
	cmd.Stderr = io.MultiWriter(tool.Writer(job.Stderr, os.Stderr), &stderr)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", t.command, input, ctxErr)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s: %v", tool.ErrToolNotFound, t.command, err)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s %s: %w: %s", t.command, input, err, msg)
		}
		return fmt.Errorf("%s %s: %w", t.command, input, err)
	}
	return nil
}

func baseName(path string) string {
	if path == "" {
		return ""
	}
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
