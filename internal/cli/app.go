package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spachava753/assetpipe/internal/config"
	"github.com/spachava753/assetpipe/internal/executor"
	"github.com/spachava753/assetpipe/internal/models"
	"github.com/spachava753/assetpipe/internal/paths"
	"github.com/spachava753/assetpipe/internal/registry"
	"github.com/spachava753/assetpipe/internal/task"
	"github.com/spachava753/assetpipe/internal/tool/banner"
)

// app is a loaded build: configuration, expanded paths, registered tasks and
// a runner over them.
type app struct {
	cfg      models.BuildConfig
	paths    *paths.Resolver
	registry *registry.Registry
	runner   *executor.Runner
}

func loadApp(g globals) (*app, error) {
	configPath, err := filepath.Abs(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	cfg, err := config.LoadBuildConfig(configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel == "" && cfg.LogLevel != "" {
		slog.SetDefault(newLogger(cfg.LogLevel, g.logFormat, g.stderr))
	}
	slog.Debug("loaded build config", "path", configPath, "source", cfg.SourceRoot, "output", cfg.OutputRoot)

	resolver, err := paths.New(cfg.Paths, cfg.SourceRoot, cfg.OutputRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving paths: %w", err)
	}

	project, err := config.LoadProject(cfg.Package)
	if err != nil {
		return nil, err
	}
	header, err := banner.Render(cfg.Banner, project, time.Now())
	if err != nil {
		return nil, fmt.Errorf("rendering banner: %w", err)
	}

	reg, err := registry.Load(cfg, task.NewBuilder(resolver))
	if err != nil {
		return nil, err
	}

	runner := executor.NewRunner(reg,
		executor.WithBanner(header),
		executor.WithReport(cfg.Report),
		executor.WithOutput(g.stdout, g.stderr),
	)

	return &app{cfg: cfg, paths: resolver, registry: reg, runner: runner}, nil
}

// watchBindings returns the configured watch bindings with their file globs
// expanded. Relative globs are anchored at the source root, matching the
// absolute paths reported by the file watcher.
func (a *app) watchBindings() ([]models.WatchBinding, error) {
	out := make([]models.WatchBinding, 0, len(a.cfg.Watch))
	for _, w := range a.cfg.Watch {
		files, err := a.paths.ExpandAll(w.Files)
		if err != nil {
			return nil, fmt.Errorf("watch binding %q: %w", w.Name, err)
		}
		for i, f := range files {
			pattern, neg := strings.CutPrefix(f, "!")
			if !filepath.IsAbs(pattern) {
				pattern = filepath.Join(a.cfg.SourceRoot, pattern)
			}
			if neg {
				pattern = "!" + pattern
			}
			files[i] = pattern
		}
		w.Files = files
		out = append(out, w)
	}
	return out, nil
}
