// Package scaffold creates the files for a new UI component: an empty
// handlebars partial, a style partial with the component's class, and an
// import of that partial in the aggregate stylesheet.
package scaffold

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spachava753/assetpipe/internal/models"
	"github.com/spachava753/assetpipe/internal/paths"
	"github.com/spachava753/assetpipe/internal/util"
)

// Generator writes component stubs.
type Generator struct {
	templates    string
	styles       string
	stylesheet   string
	importPrefix string
	templateExt  string
	styleExt     string

	appendFile func(path string, data []byte) error
}

// New expands the ${name} placeholders in cfg.
func New(cfg models.ScaffoldConfig, r *paths.Resolver) (*Generator, error) {
	g := &Generator{
		importPrefix: cfg.ImportPrefix,
		templateExt:  cfg.TemplateExt,
		styleExt:     cfg.StyleExt,
		appendFile:   appendFile,
	}

	for _, f := range []struct {
		name string
		src  string
		dst  *string
	}{
		{"templates", cfg.Templates, &g.templates},
		{"styles", cfg.Styles, &g.styles},
		{"stylesheet", cfg.Stylesheet, &g.stylesheet},
	} {
		if f.src == "" {
			return nil, fmt.Errorf("scaffold: %s path is required", f.name)
		}
		v, err := r.Expand(f.src)
		if err != nil {
			return nil, fmt.Errorf("scaffold %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return g, nil
}

// Create writes the stubs for component name. Nothing is written when name is
// invalid, the aggregate stylesheet cannot be read, or either stub exists. If
// a later step fails, the error is a *models.PartialScaffoldFailure listing
// the files already created.
func (g *Generator) Create(name string) (*models.ComponentStub, error) {
	if err := util.ValidateComponentName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidComponentName, err)
	}

	stub := &models.ComponentStub{
		Name:       name,
		Template:   filepath.Join(g.templates, name+g.templateExt),
		Style:      filepath.Join(g.styles, "_"+name+g.styleExt),
		Stylesheet: g.stylesheet,
	}

	sheet, err := os.ReadFile(stub.Stylesheet)
	if err != nil {
		return nil, fmt.Errorf("reading stylesheet: %w", err)
	}

	for _, p := range []string{stub.Template, stub.Style} {
		if _, err := os.Lstat(p); err == nil {
			return nil, fmt.Errorf("%w: %s", models.ErrComponentAlreadyExists, p)
		}
	}

	if err := createExclusive(stub.Template, nil); err != nil {
		return nil, err
	}
	created := []string{stub.Template}

	if err := createExclusive(stub.Style, []byte("."+name+" {}\n")); err != nil {
		return nil, &models.PartialScaffoldFailure{Step: models.StepStyle, Created: created, Err: err}
	}
	created = append(created, stub.Style)

	line := fmt.Sprintf("@import %q;", g.importPrefix+name)
	if hasLine(sheet, line) {
		slog.Info("stylesheet already imports component", "stylesheet", stub.Stylesheet, "import", line)
	} else {
		var buf bytes.Buffer
		if len(sheet) > 0 && !bytes.HasSuffix(sheet, []byte("\n")) {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
		if err := g.appendFile(stub.Stylesheet, buf.Bytes()); err != nil {
			return nil, &models.PartialScaffoldFailure{Step: models.StepImport, Created: created, Err: err}
		}
	}

	slog.Info("created component", "name", name, "template", stub.Template, "style", stub.Style)
	return stub, nil
}

// createExclusive creates path with data, failing if it already exists.
func createExclusive(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", models.ErrComponentAlreadyExists, path)
		}
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return f.Close()
}

func hasLine(data []byte, line string) bool {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == line {
			return true
		}
	}
	return false
}
