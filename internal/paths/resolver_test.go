package paths

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spachava753/assetpipe/internal/models"
)

func gruntPaths() map[string]string {
	return map[string]string{
		"assets":  "${source}/assets",
		"styles":  "${assets}/styles",
		"scripts": "${assets}/scripts",
		"dist":    "${output}/assets",
		"theme":   "../wp-content/themes/example",
	}
}

func TestResolve(t *testing.T) {
	r, err := New(gruntPaths(), "src", "dist")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"source", "src"},
		{"output", "dist"},
		{"assets", "src/assets"},
		{"styles", "src/assets/styles"},
		{"dist", "dist/assets"},
		{"theme", "../wp-content/themes/example"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := r.Resolve(tt.key)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.key, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.key, got, tt.want)
			}
			again, _ := r.Resolve(tt.key)
			if again != got {
				t.Errorf("Resolve(%q) not deterministic: %q then %q", tt.key, got, again)
			}
		})
	}
}

func TestResolve_UnknownKey(t *testing.T) {
	r, err := New(gruntPaths(), "src", "dist")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = r.Resolve("fonts")
	if !errors.Is(err, models.ErrUnknownPathKey) {
		t.Errorf("expected ErrUnknownPathKey, got %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     map[string]string
		wantErr error
	}{
		{
			name:    "dangling reference",
			cfg:     map[string]string{"styles": "${assets}/styles"},
			wantErr: models.ErrUnknownPathKey,
		},
		{
			name:    "self reference",
			cfg:     map[string]string{"a": "${a}/x"},
			wantErr: models.ErrPathCycle,
		},
		{
			name:    "transitive cycle",
			cfg:     map[string]string{"a": "${b}", "b": "${c}", "c": "${a}"},
			wantErr: models.ErrPathCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, "src", "dist")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_ReservedKey(t *testing.T) {
	if _, err := New(map[string]string{"source": "elsewhere"}, "src", "dist"); err == nil {
		t.Error("expected error when redefining the source root")
	}
}

func TestExpand(t *testing.T) {
	r, err := New(gruntPaths(), "src", "dist")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := r.Expand("${scripts}/vendor/**/*.js")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if got != "src/assets/scripts/vendor/**/*.js" {
		t.Errorf("Expand = %q", got)
	}

	if _, err := r.Expand("${nope}/x"); !errors.Is(err, models.ErrUnknownPathKey) {
		t.Errorf("expected ErrUnknownPathKey, got %v", err)
	}

	all, err := r.ExpandAll([]string{"${styles}/main.scss", "!${dist}/min/*.js"})
	if err != nil {
		t.Fatalf("ExpandAll: %v", err)
	}
	if diff := cmp.Diff([]string{"src/assets/styles/main.scss", "!dist/assets/min/*.js"}, all); diff != "" {
		t.Errorf("ExpandAll mismatch (-want +got):\n%s", diff)
	}
}

func TestKeys(t *testing.T) {
	r, err := New(map[string]string{"b": "x", "a": "${b}"}, "src", "dist")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := []string{"a", "b", "output", "source"}
	if diff := cmp.Diff(want, r.Keys()); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}
}
