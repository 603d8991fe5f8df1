// Package clean empties an output directory.
package clean

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/spachava753/assetpipe/internal/tool"
)

// Tool implements the clean tool.
type Tool struct {
	keep []string
}

// New creates a clean tool. Top-level entries of the output directory whose
// names match one of keep survive.
func New(keep []string) *Tool {
	return &Tool{keep: keep}
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return "clean"
}

// Run removes the contents of job.Output. A missing directory is not an error.
func (t *Tool) Run(ctx context.Context, job tool.Job) error {
	entries, err := os.ReadDir(job.Output)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", job.Output, err)
	}

	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		keep, err := t.kept(e.Name())
		if err != nil {
			return err
		}
		if keep {
			continue
		}
		if err := os.RemoveAll(filepath.Join(job.Output, e.Name())); err != nil {
			return fmt.Errorf("removing %s: %w", e.Name(), err)
		}
		removed++
	}

	slog.Debug("cleaned output", "task", job.TaskID, "dir", job.Output, "removed", removed)
	return nil
}

func (t *Tool) kept(name string) (bool, error) {
	for _, p := range t.keep {
		ok, err := doublestar.Match(p, name)
		if err != nil {
			return false, fmt.Errorf("matching keep pattern %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
