// Package paths expands the symbolic directory table of a build file.
//
// Templates reference other entries as ${name}. The names "source" and
// "output" are always defined and hold the configured roots. All templates are
// resolved once, when the Resolver is constructed, so lookups afterwards are
// plain map reads.
package paths

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/spachava753/assetpipe/internal/models"
)

const (
	SourceKey = "source"
	OutputKey = "output"
)

var placeholder = regexp.MustCompile(`\$\{([A-Za-z0-9_.-]+)\}`)

// Resolver maps symbolic path names to concrete paths.
type Resolver struct {
	templates map[string]string
	resolved  map[string]string
}

// New validates cfg and resolves every entry. A reference to an undefined name
// fails with models.ErrUnknownPathKey; a self-referencing chain fails with
// models.ErrPathCycle.
func New(cfg map[string]string, sourceRoot, outputRoot string) (*Resolver, error) {
	templates := make(map[string]string, len(cfg)+2)
	for k, v := range cfg {
		if k == SourceKey || k == OutputKey {
			return nil, fmt.Errorf("path %q is reserved for the configured root", k)
		}
		templates[k] = v
	}
	templates[SourceKey] = sourceRoot
	templates[OutputKey] = outputRoot

	r := &Resolver{
		templates: templates,
		resolved:  make(map[string]string, len(templates)),
	}

	keys := make([]string, 0, len(templates))
	for k := range templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := r.resolve(k, nil); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Resolver) resolve(key string, stack []string) (string, error) {
	if v, ok := r.resolved[key]; ok {
		return v, nil
	}
	tmpl, ok := r.templates[key]
	if !ok {
		if len(stack) > 0 {
			return "", fmt.Errorf("%w: %q (referenced by %q)", models.ErrUnknownPathKey, key, stack[len(stack)-1])
		}
		return "", fmt.Errorf("%w: %q", models.ErrUnknownPathKey, key)
	}
	if slices.Contains(stack, key) {
		return "", fmt.Errorf("%w: %s -> %s", models.ErrPathCycle, strings.Join(stack, " -> "), key)
	}
	stack = append(stack, key)

	var firstErr error
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		if firstErr != nil {
			return ""
		}
		v, err := r.resolve(m[2:len(m)-1], stack)
		if err != nil {
			firstErr = err
			return ""
		}
		return v
	})
	if firstErr != nil {
		return "", firstErr
	}

	r.resolved[key] = out
	return out, nil
}

// Resolve returns the concrete path for key.
func (r *Resolver) Resolve(key string) (string, error) {
	v, ok := r.resolved[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", models.ErrUnknownPathKey, key)
	}
	return v, nil
}

// Expand substitutes every ${name} in s.
func (r *Resolver) Expand(s string) (string, error) {
	var firstErr error
	out := placeholder.ReplaceAllStringFunc(s, func(m string) string {
		if firstErr != nil {
			return ""
		}
		v, err := r.Resolve(m[2 : len(m)-1])
		if err != nil {
			firstErr = err
		}
		return v
	})
	if firstErr != nil {
		return "", fmt.Errorf("expanding %q: %w", s, firstErr)
	}
	return out, nil
}

// ExpandAll expands each element of ss.
func (r *Resolver) ExpandAll(ss []string) ([]string, error) {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		v, err := r.Expand(s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Keys returns the defined names in sorted order.
func (r *Resolver) Keys() []string {
	keys := make([]string, 0, len(r.resolved))
	for k := range r.resolved {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
