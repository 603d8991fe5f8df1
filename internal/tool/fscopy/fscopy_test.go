package fscopy_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spachava753/assetpipe/internal/tool"
	"github.com/spachava753/assetpipe/internal/tool/fscopy"
)

func TestCopyMirrorsTree(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "theme", "assets")

	files := map[string]string{
		"styles/main.css":       "body{}",
		"scripts/app.js":        "var a;",
		"scss/_partial.scss":    ".x{}",
		"images/icons/logo.svg": "<svg/>",
	}
	for name, content := range files {
		path := filepath.Join(src, filepath.FromSlash(name))
		os.MkdirAll(filepath.Dir(path), 0755)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	err := fscopy.New(2).Run(context.Background(), tool.Job{
		TaskID: "copy:theme",
		Base:   src,
		Inputs: []string{"**", "!scss/**"},
		Output: dst,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, name := range []string{"styles/main.css", "scripts/app.js", "images/icons/logo.svg"} {
		got, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(name)))
		if err != nil {
			t.Errorf("expected %s to be copied: %v", name, err)
			continue
		}
		if string(got) != files[name] {
			t.Errorf("%s: got %q, want %q", name, got, files[name])
		}
	}

	if _, err := os.Stat(filepath.Join(dst, "scss")); !os.IsNotExist(err) {
		t.Error("excluded scss directory should not be copied")
	}
}

func TestCopyNoMatches(t *testing.T) {
	err := fscopy.New(0).Run(context.Background(), tool.Job{
		Base:   t.TempDir(),
		Inputs: []string{"**/*.woff"},
		Output: filepath.Join(t.TempDir(), "fonts"),
	})
	if err != nil {
		t.Errorf("copy with no matches should succeed, got %v", err)
	}
}

func TestCopyCancelled(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fscopy.New(1).Run(ctx, tool.Job{
		Base:   src,
		Inputs: []string{"*.txt"},
		Output: t.TempDir(),
	})
	if err == nil {
		t.Error("expected error for cancelled context")
	}
}
