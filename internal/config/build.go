package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/spachava753/assetpipe/internal/models"
)

// DefaultFile is the build file looked up when none is given.
const DefaultFile = "assetpipe.yaml"

// DefaultBanner mirrors the header stamped on generated assets.
const DefaultBanner = "/** \n" +
	" * Automatically Generated - DO NOT EDIT \n" +
	" * {{{name}}} / v{{{version}}} / {{{date}}} \n" +
	" */ \n\n"

// LogLevels are the accepted values of log_level.
var LogLevels = []string{"debug", "info", "warn", "error"}

// DefaultBuildConfig returns a BuildConfig with default values.
func DefaultBuildConfig() models.BuildConfig {
	return models.BuildConfig{
		SourceRoot: "src",
		OutputRoot: "dist",
		Package:    "package.json",
		Banner:     DefaultBanner,
		LogLevel:   "info",
		Scaffold:   DefaultScaffoldConfig(),
	}
}

// DefaultScaffoldConfig returns the component layout used by the theme.
func DefaultScaffoldConfig() models.ScaffoldConfig {
	return models.ScaffoldConfig{
		Templates:    "${source}/templates/components",
		Styles:       "${source}/assets/styles/components",
		Stylesheet:   "${source}/assets/styles/main.scss",
		ImportPrefix: "components/",
		TemplateExt:  ".hbs",
		StyleExt:     ".scss",
	}
}

// LoadBuildConfig loads and parses a build file. Files ending in .toml are
// decoded as TOML, everything else as YAML. Unknown keys are rejected.
// Relative roots, package and report paths are anchored at the file's directory.
func LoadBuildConfig(path string) (models.BuildConfig, error) {
	cfg := DefaultBuildConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading build config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("parsing build config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("parsing build config: unknown key %q", undecoded[0].String())
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parsing build config: %w", err)
		}
	}

	// Apply defaults for missing values
	if cfg.SourceRoot == "" {
		cfg.SourceRoot = "src"
	}
	if cfg.OutputRoot == "" {
		cfg.OutputRoot = "dist"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if !slices.Contains(LogLevels, cfg.LogLevel) {
		return cfg, fmt.Errorf("invalid log_level %q: must be one of %s", cfg.LogLevel, strings.Join(LogLevels, ", "))
	}
	fillScaffoldDefaults(&cfg.Scaffold)

	for i, p := range cfg.Pipelines {
		if p.Name == "" {
			return cfg, fmt.Errorf("pipeline[%d]: missing name", i)
		}
		if len(p.Steps) == 0 {
			return cfg, fmt.Errorf("pipeline %q: no steps", p.Name)
		}
	}
	for i, w := range cfg.Watch {
		if w.Name == "" {
			return cfg, fmt.Errorf("watch[%d]: missing name", i)
		}
		if len(w.Files) == 0 || len(w.Targets) == 0 {
			return cfg, fmt.Errorf("watch %q: must specify both 'files' and 'targets'", w.Name)
		}
	}

	dir := filepath.Dir(path)
	cfg.SourceRoot = anchor(dir, cfg.SourceRoot)
	cfg.OutputRoot = anchor(dir, cfg.OutputRoot)
	if cfg.Package != "" {
		cfg.Package = anchor(dir, cfg.Package)
	}
	if cfg.Report != "" {
		cfg.Report = anchor(dir, cfg.Report)
	}

	return cfg, nil
}

func fillScaffoldDefaults(s *models.ScaffoldConfig) {
	def := DefaultScaffoldConfig()
	if s.Templates == "" {
		s.Templates = def.Templates
	}
	if s.Styles == "" {
		s.Styles = def.Styles
	}
	if s.Stylesheet == "" {
		s.Stylesheet = def.Stylesheet
	}
	if s.ImportPrefix == "" {
		s.ImportPrefix = def.ImportPrefix
	}
	if s.TemplateExt == "" {
		s.TemplateExt = def.TemplateExt
	}
	if s.StyleExt == "" {
		s.StyleExt = def.StyleExt
	}
}

func anchor(dir, p string) string {
	if filepath.IsAbs(p) || dir == "." || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
