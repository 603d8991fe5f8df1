// Package banner renders the generated-file header and stamps it onto assets.
package banner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aymerick/raymond"

	"github.com/spachava753/assetpipe/internal/models"
	"github.com/spachava753/assetpipe/internal/tool"
)

// Render expands a handlebars banner template with {{{name}}}, {{{version}}}
// and {{{date}}} (YYYY-MM-DD). Banners are code comments, so templates should
// use triple braces; double braces HTML-escape. An empty template renders to an
// empty banner.
func Render(tmpl string, p models.Project, now time.Time) (string, error) {
	if tmpl == "" {
		return "", nil
	}
	out, err := raymond.Render(tmpl, map[string]any{
		"name":    p.Name,
		"version": p.Version,
		"date":    now.Format("2006-01-02"),
	})
	if err != nil {
		return "", fmt.Errorf("rendering banner: %w", err)
	}
	return out, nil
}

// Tool implements the banner tool.
type Tool struct{}

// New creates a banner tool.
func New() *Tool {
	return &Tool{}
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return "banner"
}

// Run prepends job.Banner to every matched file. Files that already start
// with the banner are left alone, so re-running is harmless.
func (t *Tool) Run(ctx context.Context, job tool.Job) error {
	if job.Banner == "" {
		slog.Debug("no banner configured", "task", job.TaskID)
		return nil
	}

	files, err := job.Files()
	if err != nil {
		return err
	}

	stamped := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", f.Path, err)
		}
		if bytes.HasPrefix(data, []byte(job.Banner)) {
			continue
		}
		if err := tool.WriteFile(f.Path, append([]byte(job.Banner), data...)); err != nil {
			return err
		}
		stamped++
	}

	slog.Debug("stamped banner", "task", job.TaskID, "files", stamped)
	return nil
}
