package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spachava753/assetpipe/internal/cli"
)

const themeYAML = `source_root: src
output_root: dist
report: build/report.json
tasks:
  - id: clean
    kind: clean
    output: ${output}
  - id: copy:fonts
    kind: copy
    base: ${source}/fonts
    inputs: ["**"]
    output: ${output}/fonts
  - id: uglify:css
    kind: minify
    base: ${source}/styles
    inputs: ["*.css"]
    output: ${output}/styles
  - id: broken
    kind: command
    command: assetpipe-no-such-tool
pipelines:
  - name: default
    steps: [clean, copy:fonts, uglify:css]
  - name: release
    steps: [default, broken]
watch:
  - name: styles
    files: ["styles/**/*.css"]
    targets: [uglify:css]
`

// newTheme writes a build file and a small source tree and returns the path
// of the build file.
func newTheme(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"assetpipe.yaml":                        themeYAML,
		"package.json":                          `{"name": "theme", "version": "1.2.3"}`,
		"src/fonts/icons.woff":                  "woff",
		"src/fonts/sub/glyphs.svg":              "<svg/>",
		"src/styles/main.css":                   "body {\n  margin: 0;\n}\n",
		"src/assets/styles/main.scss":           "@import \"base\";\n",
		"src/templates/components/.gitkeep":     "",
		"src/assets/styles/components/.gitkeep": "",
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return filepath.Join(dir, "assetpipe.yaml")
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := cli.Run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var ee *cli.ExitError
	require.True(t, errors.As(err, &ee), "expected *cli.ExitError, got %v", err)
	return ee.Code
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"deploy"}},
		{"bad flag", []string{"-nope", "build"}},
		{"bad log level", []string{"-log-level", "loud", "build"}},
		{"bad log format", []string{"-log-format", "xml", "build"}},
		{"scaffold without name", []string{"scaffold"}},
		{"tasks with args", []string{"tasks", "extra"}},
		{"build with two pipelines", []string{"build", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, 2, exitCode(t, err))
		})
	}
}

func TestBuild(t *testing.T) {
	cfg := newTheme(t)
	dir := filepath.Dir(cfg)

	stdout, _, err := run(t, "-config", cfg, "build")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Pipeline default succeeded")

	for _, p := range []string{"dist/fonts/icons.woff", "dist/fonts/sub/glyphs.svg", "dist/styles/main.css"} {
		assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(p)))
	}

	css, err := os.ReadFile(filepath.Join(dir, "dist", "styles", "main.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{margin:0}", string(css))

	assert.FileExists(t, filepath.Join(dir, "build", "report.json"))
}

func TestBuildFailure(t *testing.T) {
	cfg := newTheme(t)

	stdout, _, err := run(t, "-config", cfg, "build", "release")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, err.Error(), `"broken"`)
	assert.Contains(t, stdout, "Pipeline release failed")
}

func TestBuildUnknownPipeline(t *testing.T) {
	cfg := newTheme(t)

	_, _, err := run(t, "-config", cfg, "build", "nightly")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(t, err))
}

func TestBuildMissingConfig(t *testing.T) {
	_, _, err := run(t, "-config", filepath.Join(t.TempDir(), "missing.yaml"), "build")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(t, err))
}

func TestScaffold(t *testing.T) {
	cfg := newTheme(t)
	src := filepath.Join(filepath.Dir(cfg), "src")

	stdout, _, err := run(t, "-config", cfg, "scaffold", "site-header")
	require.NoError(t, err)
	assert.Contains(t, stdout, "site-header.hbs")

	assert.FileExists(t, filepath.Join(src, "templates", "components", "site-header.hbs"))
	style, err := os.ReadFile(filepath.Join(src, "assets", "styles", "components", "_site-header.scss"))
	require.NoError(t, err)
	assert.Equal(t, ".site-header {}\n", string(style))

	sheet, err := os.ReadFile(filepath.Join(src, "assets", "styles", "main.scss"))
	require.NoError(t, err)
	assert.Equal(t, "@import \"base\";\n@import \"components/site-header\";\n", string(sheet))

	_, _, err = run(t, "-config", cfg, "component", "site-header")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(t, err))
}

func TestTasks(t *testing.T) {
	cfg := newTheme(t)

	stdout, _, err := run(t, "-config", cfg, "tasks")
	require.NoError(t, err)
	for _, want := range []string{"copy:fonts", "uglify:css", "minify", "release", "default, broken", "styles"} {
		assert.Contains(t, stdout, want)
	}
}
