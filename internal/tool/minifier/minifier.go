// Package minifier minifies JavaScript and CSS assets.
package minifier

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"

	"github.com/spachava753/assetpipe/internal/tool"
)

const (
	mediaJS  = "application/javascript"
	mediaCSS = "text/css"
)

// Tool implements the minify tool.
type Tool struct {
	concat bool
	banner bool
	m      *minify.M
}

// New creates a minify tool. With concat, all inputs are joined into the single
// file job.Output; otherwise each input is written under the job.Output
// directory. With banner, the job's banner is prepended to every output.
func New(concat, banner bool) *Tool {
	m := minify.New()
	m.AddFunc(mediaCSS, css.Minify)
	m.AddFunc(mediaJS, js.Minify)
	return &Tool{concat: concat, banner: banner, m: m}
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return "minify"
}

// MediaType maps a file extension to the minifier that handles it.
func MediaType(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs":
		return mediaJS, nil
	case ".css":
		return mediaCSS, nil
	default:
		return "", fmt.Errorf("no minifier for %s", path)
	}
}

// Run minifies the matched inputs.
func (t *Tool) Run(ctx context.Context, job tool.Job) error {
	files, err := job.Files()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		slog.Debug("minify matched no files", "task", job.TaskID, "inputs", job.Inputs)
		return nil
	}

	if t.concat {
		return t.runConcat(ctx, job, files)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := t.minifyFile(f.Path)
		if err != nil {
			return err
		}
		if err := tool.WriteFile(filepath.Join(job.Output, f.Rel), t.stamp(job, out)); err != nil {
			return err
		}
	}

	slog.Debug("minified files", "task", job.TaskID, "count", len(files))
	return nil
}

func (t *Tool) runConcat(ctx context.Context, job tool.Job, files []tool.Match) error {
	mediaType, err := MediaType(job.Output)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if mt, err := MediaType(f.Path); err != nil || mt != mediaType {
			return fmt.Errorf("cannot concatenate %s into %s", f.Path, job.Output)
		}
		out, err := t.minifyFile(f.Path)
		if err != nil {
			return err
		}
		buf.Write(out)
		// Keep statements of adjacent scripts apart.
		if mediaType == mediaJS {
			buf.WriteString(";\n")
		} else {
			buf.WriteString("\n")
		}
	}

	if err := tool.WriteFile(job.Output, t.stamp(job, buf.Bytes())); err != nil {
		return err
	}

	slog.Debug("minified and concatenated files", "task", job.TaskID, "count", len(files), "dest", job.Output)
	return nil
}

func (t *Tool) minifyFile(path string) ([]byte, error) {
	mediaType, err := MediaType(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	out, err := t.m.Bytes(mediaType, src)
	if err != nil {
		return nil, fmt.Errorf("minifying %s: %w", path, err)
	}
	return out, nil
}

func (t *Tool) stamp(job tool.Job, data []byte) []byte {
	if !t.banner || job.Banner == "" {
		return data
	}
	return append([]byte(job.Banner), data...)
}
