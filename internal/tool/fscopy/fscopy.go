// Package fscopy mirrors matched files from a base directory into an output
// directory.
package fscopy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/spachava753/assetpipe/internal/tool"
)

const defaultConcurrency = 8

// Tool implements the copy tool.
type Tool struct {
	concurrency int
}

// New creates a copy tool that copies up to concurrency files at once.
func New(concurrency int) *Tool {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Tool{concurrency: concurrency}
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return "copy"
}

// Run copies every matched file to the same path relative to job.Base under
// job.Output.
func (t *Tool) Run(ctx context.Context, job tool.Job) error {
	files, err := job.Files()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		slog.Debug("copy matched no files", "task", job.TaskID, "inputs", job.Inputs)
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for _, f := range files {
		f := f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return copyFile(f.Path, filepath.Join(job.Output, f.Rel))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Debug("copied files", "task", job.TaskID, "count", len(files), "dest", job.Output)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dst, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}
	return nil
}
