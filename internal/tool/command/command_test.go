package command_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spachava753/assetpipe/internal/tool"
	"github.com/spachava753/assetpipe/internal/tool/command"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandPerInput(t *testing.T) {
	requireShell(t)

	src := t.TempDir()
	out := t.TempDir()
	for _, name := range []string{"main.scss", "print.scss"} {
		if err := os.WriteFile(filepath.Join(src, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}

	c := command.New("command", "sh", []string{"-c", `cp "$0" "$1"`, "{input}", "{output}"})
	err := c.Run(context.Background(), tool.Job{
		TaskID: "fake-sass",
		Base:   src,
		Inputs: []string{"*.scss"},
		Output: filepath.Join(out, "css", "{name}.css"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, name := range []string{"main", "print"} {
		got, err := os.ReadFile(filepath.Join(out, "css", name+".css"))
		if err != nil {
			t.Errorf("expected %s.css: %v", name, err)
			continue
		}
		if string(got) != name+".scss" {
			t.Errorf("%s.css = %q", name, got)
		}
	}
}

func TestCommandFailureIncludesStderr(t *testing.T) {
	requireShell(t)

	var stderr bytes.Buffer
	c := command.New("command", "sh", []string{"-c", "echo 'Error: expected \"}\"' >&2; exit 65"})
	err := c.Run(context.Background(), tool.Job{TaskID: "broken", Stderr: &stderr})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "expected") {
		t.Errorf("error should carry stderr, got %v", err)
	}
	if !strings.Contains(stderr.String(), "expected") {
		t.Errorf("stderr should be streamed, got %q", stderr.String())
	}
}

func TestCommandNotFound(t *testing.T) {
	c := command.New("command", "assetpipe-no-such-binary", nil)
	err := c.Run(context.Background(), tool.Job{TaskID: "missing"})
	if !errors.Is(err, tool.ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}

func TestCommandNoInputs(t *testing.T) {
	c := command.Sass("", nil)
	err := c.Run(context.Background(), tool.Job{
		Base:   t.TempDir(),
		Inputs: []string{"main.scss"},
		Output: filepath.Join(t.TempDir(), "main.css"),
	})
	if !errors.Is(err, tool.ErrNoInputs) {
		t.Errorf("expected ErrNoInputs, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	tests := []struct {
		name     string
		tool     *command.Tool
		wantKind string
		wantCmd  string
		wantArgs []string
	}{
		{"sass", command.Sass("", nil), "sass", "sass", []string{"--style=compressed", "{input}", "{output}"}},
		{"autoprefix", command.Autoprefix("", nil), "autoprefix", "postcss", []string{"{input}", "--use", "autoprefixer", "--replace"}},
		{"override", command.Sass("/opt/sass", []string{"{input}"}), "sass", "/opt/sass", []string{"{input}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name() != tt.wantKind {
				t.Errorf("Name() = %q, want %q", tt.tool.Name(), tt.wantKind)
			}
			cmdName, args := tt.tool.Command()
			if cmdName != tt.wantCmd {
				t.Errorf("command = %q, want %q", cmdName, tt.wantCmd)
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSassIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath("sass"); err != nil {
		t.Skip("sass not installed")
	}

	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "main.scss"), []byte("$c: red;\n.widget { color: $c; }\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "main.css")

	if err := command.Sass("", nil).Run(context.Background(), tool.Job{Base: src, Inputs: []string{"main.scss"}, Output: out}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), ".widget{color:red}") {
		t.Errorf("unexpected css %q", got)
	}
	if _, err := os.Stat(out + ".map"); err != nil {
		t.Errorf("expected source map: %v", err)
	}
}

func TestCommandCancelled(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	c := command.New("command", "sleep", []string{"5"})
	err := c.Run(ctx, tool.Job{TaskID: "slow"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
