package models

// BuildConfig represents the parsed assetpipe.yaml (or .toml) configuration.
type BuildConfig struct {
	SourceRoot string            `yaml:"source_root" toml:"source_root" json:"source_root"`
	OutputRoot string            `yaml:"output_root" toml:"output_root" json:"output_root"`
	Paths      map[string]string `yaml:"paths,omitempty" toml:"paths,omitempty" json:"paths,omitempty"`
	Package    string            `yaml:"package,omitempty" toml:"package,omitempty" json:"package,omitempty"`
	Banner     string            `yaml:"banner,omitempty" toml:"banner,omitempty" json:"banner,omitempty"`
	Report     string            `yaml:"report,omitempty" toml:"report,omitempty" json:"report,omitempty"`
	LogLevel   string            `yaml:"log_level,omitempty" toml:"log_level,omitempty" json:"log_level,omitempty"`
	Tasks      []TaskSpec        `yaml:"tasks" toml:"tasks" json:"tasks"`
	Pipelines  []Pipeline        `yaml:"pipelines" toml:"pipelines" json:"pipelines"`
	Watch      []WatchBinding    `yaml:"watch,omitempty" toml:"watch,omitempty" json:"watch,omitempty"`
	Scaffold   ScaffoldConfig    `yaml:"scaffold" toml:"scaffold" json:"scaffold"`
}

// TaskKind selects the tool a task wraps.
type TaskKind string

const (
	KindCopy       TaskKind = "copy"
	KindClean      TaskKind = "clean"
	KindMinify     TaskKind = "minify"
	KindBanner     TaskKind = "banner"
	KindAssemble   TaskKind = "assemble"
	KindCommand    TaskKind = "command"
	KindSass       TaskKind = "sass"
	KindAutoprefix TaskKind = "autoprefix"
)

// TaskSpec is a task as declared in the build file. Path fields may contain
// ${name} placeholders; they are expanded when the task is built.
type TaskSpec struct {
	ID     string   `yaml:"id" toml:"id" json:"id"`
	Kind   TaskKind `yaml:"kind" toml:"kind" json:"kind"`
	Inputs []string `yaml:"inputs,omitempty" toml:"inputs,omitempty" json:"inputs,omitempty"`
	Base   string   `yaml:"base,omitempty" toml:"base,omitempty" json:"base,omitempty"`
	Output string   `yaml:"output,omitempty" toml:"output,omitempty" json:"output,omitempty"`

	// command, sass, autoprefix
	Command string   `yaml:"command,omitempty" toml:"command,omitempty" json:"command,omitempty"`
	Args    []string `yaml:"args,omitempty" toml:"args,omitempty" json:"args,omitempty"`

	// minify
	Banner bool `yaml:"banner,omitempty" toml:"banner,omitempty" json:"banner,omitempty"`
	Concat bool `yaml:"concat,omitempty" toml:"concat,omitempty" json:"concat,omitempty"`

	// assemble
	Layout   string   `yaml:"layout,omitempty" toml:"layout,omitempty" json:"layout,omitempty"`
	Partials []string `yaml:"partials,omitempty" toml:"partials,omitempty" json:"partials,omitempty"`
	Data     []string `yaml:"data,omitempty" toml:"data,omitempty" json:"data,omitempty"`

	// clean
	Keep []string `yaml:"keep,omitempty" toml:"keep,omitempty" json:"keep,omitempty"`
}

// Pipeline is a named, ordered list of task or pipeline identifiers.
type Pipeline struct {
	Name  string   `yaml:"name" toml:"name" json:"name"`
	Steps []string `yaml:"steps" toml:"steps" json:"steps"`
}

// WatchBinding maps file globs to the targets re-run when a matching file changes.
type WatchBinding struct {
	Name    string   `yaml:"name" toml:"name" json:"name"`
	Files   []string `yaml:"files" toml:"files" json:"files"`
	Targets []string `yaml:"targets" toml:"targets" json:"targets"`
}

// ScaffoldConfig controls where `assetpipe scaffold` writes component stubs.
type ScaffoldConfig struct {
	Templates    string `yaml:"templates" toml:"templates" json:"templates"`
	Styles       string `yaml:"styles" toml:"styles" json:"styles"`
	Stylesheet   string `yaml:"stylesheet" toml:"stylesheet" json:"stylesheet"`
	ImportPrefix string `yaml:"import_prefix" toml:"import_prefix" json:"import_prefix"`
	TemplateExt  string `yaml:"template_ext" toml:"template_ext" json:"template_ext"`
	StyleExt     string `yaml:"style_ext" toml:"style_ext" json:"style_ext"`
}

// Project holds package metadata stamped into generated banners.
type Project struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ComponentStub describes the files touched by one scaffold invocation.
type ComponentStub struct {
	Name       string
	Template   string
	Style      string
	Stylesheet string
}
