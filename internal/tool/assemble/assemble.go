// Package assemble renders handlebars pages into static HTML.
//
// Each page is rendered with the merged data files as context, then wrapped in
// the layout, which receives the rendered page as {{{body}}}. Partials and data
// files are keyed by their base name without extension, so
// components/site-header.hbs is used as {{> site-header}} and data/nav.yml is
// available as {{nav}}.
package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aymerick/raymond"
	"gopkg.in/yaml.v3"

	"github.com/spachava753/assetpipe/internal/tool"
)

// Tool implements the assemble tool.
type Tool struct {
	layout   string
	partials []string
	data     []string
}

// New creates an assemble tool. layout may be empty; partials and data are
// glob patterns.
func New(layout string, partials, data []string) *Tool {
	return &Tool{layout: layout, partials: partials, data: data}
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return "assemble"
}

// Run renders every matched page into job.Output/<page>.html.
func (t *Tool) Run(ctx context.Context, job tool.Job) error {
	pages, err := job.Files()
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("%w: %v", tool.ErrNoInputs, job.Inputs)
	}

	partials, err := t.loadPartials()
	if err != nil {
		return err
	}
	data, err := t.loadData()
	if err != nil {
		return err
	}

	var layout *raymond.Template
	if t.layout != "" {
		src, err := os.ReadFile(t.layout)
		if err != nil {
			return fmt.Errorf("reading layout: %w", err)
		}
		layout, err = raymond.Parse(string(src))
		if err != nil {
			return fmt.Errorf("parsing layout %s: %w", t.layout, err)
		}
		layout.RegisterPartials(partials)
	}

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		html, err := renderPage(page.Path, layout, partials, data)
		if err != nil {
			return err
		}
		dest := filepath.Join(job.Output, trimExt(filepath.Base(page.Path))+".html")
		if err := tool.WriteFile(dest, []byte(html)); err != nil {
			return err
		}
	}

	slog.Debug("assembled pages", "task", job.TaskID, "count", len(pages), "dest", job.Output)
	return nil
}

func renderPage(path string, layout *raymond.Template, partials map[string]string, data map[string]any) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}
	tpl, err := raymond.Parse(string(src))
	if err != nil {
		return "", fmt.Errorf("parsing page %s: %w", path, err)
	}
	tpl.RegisterPartials(partials)

	ctx := make(map[string]any, len(data)+2)
	for k, v := range data {
		ctx[k] = v
	}
	ctx["page"] = map[string]any{"name": trimExt(filepath.Base(path))}

	body, err := tpl.Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("rendering page %s: %w", path, err)
	}
	if layout == nil {
		return body, nil
	}

	ctx["body"] = body
	out, err := layout.Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("rendering layout for %s: %w", path, err)
	}
	return out, nil
}

func (t *Tool) loadPartials() (map[string]string, error) {
	files, err := tool.Expand("", t.partials)
	if err != nil {
		return nil, err
	}
	partials := make(map[string]string, len(files))
	for _, f := range files {
		src, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("reading partial: %w", err)
		}
		partials[trimExt(filepath.Base(f.Path))] = string(src)
	}
	return partials, nil
}

func (t *Tool) loadData() (map[string]any, error) {
	files, err := tool.Expand("", t.data)
	if err != nil {
		return nil, err
	}
	data := make(map[string]any, len(files))
	for _, f := range files {
		raw, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("reading data file: %w", err)
		}
		var v any
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("parsing data file %s: %w", f.Path, err)
		}
		data[trimExt(filepath.Base(f.Path))] = v
	}
	return data, nil
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
