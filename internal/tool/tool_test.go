package tool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func touch(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(f), 0644); err != nil {
			t.Fatalf("writing %s: %v", f, err)
		}
	}
}

func rels(ms []Match) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, filepath.ToSlash(m.Rel))
	}
	return out
}

func TestExpand(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"scripts/app.js",
		"scripts/nav.js",
		"scripts/vendor/jquery.js",
		"scripts/vendor/min/plugins.js",
		"scripts/readme.md",
	)
	base := filepath.Join(root, "scripts")

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{
			name:     "single level",
			patterns: []string{"*.js"},
			want:     []string{"app.js", "nav.js"},
		},
		{
			name:     "recursive with exclusion",
			patterns: []string{"vendor/**/*.js", "!vendor/min/*.js"},
			want:     []string{"vendor/jquery.js"},
		},
		{
			name:     "everything",
			patterns: []string{"**"},
			want:     []string{"app.js", "nav.js", "readme.md", "vendor/jquery.js", "vendor/min/plugins.js"},
		},
		{
			name:     "duplicates reported once in pattern order",
			patterns: []string{"nav.js", "*.js"},
			want:     []string{"nav.js", "app.js"},
		},
		{
			name:     "no match",
			patterns: []string{"*.css"},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(base, tt.patterns)
			if err != nil {
				t.Fatalf("Expand: %v", err)
			}
			if diff := cmp.Diff(tt.want, rels(got)); diff != "" {
				t.Errorf("Expand mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpand_AbsolutePatternWithoutBase(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "styles/main.css")

	got, err := Expand("", []string{filepath.Join(root, "styles", "*.css")})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
	if got[0].Rel != "main.css" {
		t.Errorf("expected Rel to be the base name, got %q", got[0].Rel)
	}
	if got[0].Path != filepath.Join(root, "styles", "main.css") {
		t.Errorf("unexpected Path %q", got[0].Path)
	}
}

func TestMatchAny(t *testing.T) {
	patterns := []string{"src/assets/scripts/vendor/**/*.js", "!src/assets/scripts/vendor/min/*.js"}

	tests := []struct {
		path string
		want bool
	}{
		{"src/assets/scripts/vendor/a.js", true},
		{"src/assets/scripts/vendor/lib/b.js", true},
		{"./src/assets/scripts/vendor/a.js", true},
		{"src/assets/scripts/vendor/min/plugins.js", false},
		{"src/assets/scripts/app.js", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := MatchAny(patterns, tt.path)
			if err != nil {
				t.Fatalf("MatchAny: %v", err)
			}
			if got != tt.want {
				t.Errorf("MatchAny(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestValidatePatterns(t *testing.T) {
	if err := ValidatePatterns([]string{"**/*.{png,jpg}", "!min/*.js"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidatePatterns([]string{"[unterminated"}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}
