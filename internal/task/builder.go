package task

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spachava753/assetpipe/internal/models"
	"github.com/spachava753/assetpipe/internal/paths"
	"github.com/spachava753/assetpipe/internal/tool"
	"github.com/spachava753/assetpipe/internal/tool/assemble"
	"github.com/spachava753/assetpipe/internal/tool/banner"
	"github.com/spachava753/assetpipe/internal/tool/clean"
	"github.com/spachava753/assetpipe/internal/tool/command"
	"github.com/spachava753/assetpipe/internal/tool/fscopy"
	"github.com/spachava753/assetpipe/internal/tool/minifier"
)

// Builder creates Tasks from declared TaskSpecs.
type Builder struct {
	paths           *paths.Resolver
	copyConcurrency int
}

// NewBuilder creates a Builder that expands path placeholders with r.
func NewBuilder(r *paths.Resolver) *Builder {
	return &Builder{paths: r}
}

// WithCopyConcurrency bounds the number of files copied in parallel by copy
// tasks.
func (b *Builder) WithCopyConcurrency(n int) *Builder {
	b.copyConcurrency = n
	return b
}

// Build expands decl and selects the tool for its kind. Relative inputs are
// anchored at decl.Base, which defaults to the source root.
func (b *Builder) Build(decl models.TaskSpec) (*Task, error) {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: task %q: %s", models.ErrInvalidTask, decl.ID, fmt.Sprintf(format, args...))
	}

	s, err := b.expand(decl)
	if err != nil {
		return nil, fmt.Errorf("%w: task %q: %w", models.ErrInvalidTask, decl.ID, err)
	}

	var t tool.Tool
	switch s.Kind {
	case models.KindCopy:
		if len(s.Inputs) == 0 || s.Output == "" {
			return nil, invalid("copy requires inputs and output")
		}
		t = fscopy.New(b.copyConcurrency)

	case models.KindClean:
		if s.Output == "" {
			return nil, invalid("clean requires output")
		}
		keep, err := keepNames(s.Output, decl.Keep, s.Keep)
		if err != nil {
			return nil, invalid("keep: %v", err)
		}
		t = clean.New(keep)

	case models.KindMinify:
		if len(s.Inputs) == 0 || s.Output == "" {
			return nil, invalid("minify requires inputs and output")
		}
		t = minifier.New(s.Concat, s.Banner)

	case models.KindBanner:
		if len(s.Inputs) == 0 {
			return nil, invalid("banner requires inputs")
		}
		t = banner.New()

	case models.KindAssemble:
		if len(s.Inputs) == 0 || s.Output == "" {
			return nil, invalid("assemble requires inputs and output")
		}
		if err := tool.ValidatePatterns(s.Partials); err != nil {
			return nil, invalid("partials: %v", err)
		}
		if err := tool.ValidatePatterns(s.Data); err != nil {
			return nil, invalid("data: %v", err)
		}
		t = assemble.New(s.Layout, s.Partials, s.Data)

	case models.KindCommand:
		if s.Command == "" {
			return nil, invalid("command requires command")
		}
		t = command.New(string(models.KindCommand), s.Command, s.Args)

	case models.KindSass:
		if len(s.Inputs) == 0 || s.Output == "" {
			return nil, invalid("sass requires inputs and output")
		}
		t = command.Sass(s.Command, s.Args)

	case models.KindAutoprefix:
		if len(s.Inputs) == 0 {
			return nil, invalid("autoprefix requires inputs")
		}
		t = command.Autoprefix(s.Command, s.Args)

	case "":
		return nil, invalid("kind is required")

	default:
		return nil, invalid("unknown kind %q", s.Kind)
	}

	return New(Definition{
		ID:     s.ID,
		Kind:   s.Kind,
		Inputs: s.Inputs,
		Base:   s.Base,
		Output: s.Output,
		Tool:   t,
	})
}

// expand substitutes ${name} placeholders in every path-bearing field. A
// literal relative base is anchored at the source root; relative output, layout,
// partials and data are anchored at the base, like inputs.
func (b *Builder) expand(decl models.TaskSpec) (models.TaskSpec, error) {
	var err error
	out := decl

	if out.Inputs, err = b.paths.ExpandAll(decl.Inputs); err != nil {
		return out, err
	}
	if decl.Base == "" {
		decl.Base = "${" + paths.SourceKey + "}"
	}
	if out.Base, err = b.paths.Expand(decl.Base); err != nil {
		return out, err
	}
	if out.Output, err = b.paths.Expand(decl.Output); err != nil {
		return out, err
	}
	if out.Command, err = b.paths.Expand(decl.Command); err != nil {
		return out, err
	}
	if out.Args, err = b.paths.ExpandAll(decl.Args); err != nil {
		return out, err
	}
	if out.Layout, err = b.paths.Expand(decl.Layout); err != nil {
		return out, err
	}
	if out.Partials, err = b.paths.ExpandAll(decl.Partials); err != nil {
		return out, err
	}
	if out.Data, err = b.paths.ExpandAll(decl.Data); err != nil {
		return out, err
	}
	if out.Keep, err = b.paths.ExpandAll(decl.Keep); err != nil {
		return out, err
	}

	// Placeholders already expand to rooted paths.
	if !filepath.IsAbs(out.Base) && !isTemplated(decl.Base) {
		src, err := b.paths.Resolve(paths.SourceKey)
		if err != nil {
			return out, err
		}
		out.Base = filepath.Join(src, out.Base)
	}
	out.Output = anchor(out.Base, decl.Output, out.Output)
	out.Layout = anchor(out.Base, decl.Layout, out.Layout)
	out.Partials = anchorAll(out.Base, decl.Partials, out.Partials)
	out.Data = anchorAll(out.Base, decl.Data, out.Data)
	return out, nil
}

func isTemplated(raw string) bool {
	return strings.HasPrefix(strings.TrimPrefix(raw, "!"), "${")
}

// anchor joins a relative, literal path onto base.
func anchor(base, raw, p string) string {
	if p == "" || filepath.IsAbs(p) || isTemplated(raw) {
		return p
	}
	return filepath.Join(base, p)
}

func anchorAll(base string, raw, patterns []string) []string {
	if patterns == nil {
		return nil
	}
	out := make([]string, len(patterns))
	for i, p := range patterns {
		rest, neg := strings.CutPrefix(p, "!")
		out[i] = anchor(base, raw[i], rest)
		if neg {
			out[i] = "!" + out[i]
		}
	}
	return out
}

// keepNames turns clean's keep patterns into patterns over the top-level
// entries of output. Absolute or templated patterns, such as
// ${output}/.gitignore, must name a direct child of output.
func keepNames(output string, raw, keep []string) ([]string, error) {
	if err := tool.ValidatePatterns(keep); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keep))
	for i, k := range keep {
		if filepath.IsAbs(k) || isTemplated(raw[i]) {
			rel, err := filepath.Rel(output, k)
			if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
				return nil, fmt.Errorf("%q is not inside %s", k, output)
			}
			k = rel
		}
		k = filepath.ToSlash(filepath.Clean(k))
		if strings.Contains(k, "/") {
			return nil, fmt.Errorf("%q must name a top-level entry of %s", k, output)
		}
		names = append(names, k)
	}
	return names, nil
}
