// Package tool defines the contract between a build task and the external
// library or executable that does its work. Each tool kind lives in its own
// subpackage.
package tool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrNoInputs is returned by tools that require at least one input file.
	ErrNoInputs = errors.New("no input files matched")

	// ErrToolNotFound is returned when an external executable is not installed.
	ErrToolNotFound = errors.New("tool not found")
)

// Tool performs the work of one task.
type Tool interface {
	// Name returns the tool kind (e.g., "copy", "sass").
	Name() string

	// Run performs the work described by job. It must not return until every
	// output has been written.
	Run(ctx context.Context, job Job) error
}

// Job is a single tool invocation.
type Job struct {
	TaskID string

	// Inputs are glob patterns. A leading "!" excludes matches.
	Inputs []string

	// Base anchors relative input patterns and determines the relative path
	// under Output for tools that mirror a tree.
	Base string

	Output string

	// Banner is the rendered header for tools that stamp one.
	Banner string

	Stdout io.Writer
	Stderr io.Writer
}

// Match is one file selected by a job's input patterns.
type Match struct {
	// Path is the file path usable with the os package.
	Path string

	// Rel is Path relative to the job's Base, or the file's base name when the
	// job has no Base.
	Rel string
}

// Files expands the job's input patterns.
func (j Job) Files() ([]Match, error) {
	return Expand(j.Base, j.Inputs)
}

// ValidatePatterns reports the first malformed glob in patterns.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(strings.TrimPrefix(p, "!"))) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// Expand returns the regular files matched by the include patterns and not by
// any "!" pattern. Relative patterns are anchored at base. Matches keep the
// order of the include patterns; within one pattern they are sorted, and a file
// matched twice is reported once.
func Expand(base string, patterns []string) ([]Match, error) {
	var include, exclude []string
	for _, p := range patterns {
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			exclude = append(exclude, anchorPattern(base, rest))
		} else {
			include = append(include, anchorPattern(base, p))
		}
	}

	seen := make(map[string]bool)
	var matches []Match
	for _, pattern := range include {
		root, rel := doublestar.SplitPattern(pattern)
		found, err := doublestar.Glob(os.DirFS(filepath.FromSlash(root)), rel)
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pattern, err)
		}
		sort.Strings(found)

		for _, f := range found {
			full := filepath.Join(filepath.FromSlash(root), filepath.FromSlash(f))
			if seen[full] {
				continue
			}
			info, err := os.Stat(full)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return nil, fmt.Errorf("stat %s: %w", full, err)
			}
			if !info.Mode().IsRegular() {
				continue
			}
			excluded, err := matchAny(exclude, filepath.ToSlash(full))
			if err != nil {
				return nil, err
			}
			if excluded {
				continue
			}
			seen[full] = true
			matches = append(matches, Match{Path: full, Rel: relTo(base, full)})
		}
	}
	return matches, nil
}

// MatchAny reports whether path matches one of the include patterns and none
// of the "!" patterns. Patterns and path are compared as cleaned slash paths.
func MatchAny(patterns []string, path string) (bool, error) {
	var include, exclude []string
	for _, p := range patterns {
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			exclude = append(exclude, cleanSlash(rest))
		} else {
			include = append(include, cleanSlash(p))
		}
	}
	path = cleanSlash(path)

	ok, err := matchAny(include, path)
	if err != nil || !ok {
		return false, err
	}
	excluded, err := matchAny(exclude, path)
	if err != nil {
		return false, err
	}
	return !excluded, nil
}

func matchAny(patterns []string, path string) (bool, error) {
	for _, p := range patterns {
		ok, err := doublestar.Match(p, path)
		if err != nil {
			return false, fmt.Errorf("matching %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func anchorPattern(base, p string) string {
	if base != "" && !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	return cleanSlash(p)
}

func cleanSlash(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

func relTo(base, full string) string {
	if base == "" {
		return filepath.Base(full)
	}
	rel, err := filepath.Rel(base, full)
	if err != nil {
		return filepath.Base(full)
	}
	return rel
}

// Writer returns w, or fallback when w is nil.
func Writer(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
