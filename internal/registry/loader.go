package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spachava753/assetpipe/internal/models"
	"github.com/spachava753/assetpipe/internal/task"
)

// Load builds every task in cfg, registers pipelines so that each is
// registered after the pipelines it references, and checks that every watch
// target resolves.
func Load(cfg models.BuildConfig, b *task.Builder) (*Registry, error) {
	r := New()

	for _, spec := range cfg.Tasks {
		t, err := b.Build(spec)
		if err != nil {
			return nil, err
		}
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}

	byName := make(map[string]models.Pipeline, len(cfg.Pipelines))
	for _, p := range cfg.Pipelines {
		if _, ok := byName[p.Name]; ok {
			return nil, fmt.Errorf("%w: %q", models.ErrDuplicatePipeline, p.Name)
		}
		byName[p.Name] = p
	}

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(byName))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", models.ErrPipelineCycle, strings.Join(append(path, name), " -> "))
		}
		state[name] = visiting

		p := byName[name]
		for _, step := range p.Steps {
			if _, ok := byName[step]; ok && step != name {
				if err := visit(step, append(path, name)); err != nil {
					return err
				}
			}
		}

		state[name] = done
		return r.RegisterPipeline(p)
	}

	for _, p := range cfg.Pipelines {
		if err := visit(p.Name, nil); err != nil {
			return nil, err
		}
	}

	for _, w := range cfg.Watch {
		if _, err := r.Plan(w.Targets); err != nil {
			return nil, fmt.Errorf("watch binding %q: %w", w.Name, err)
		}
	}

	slog.Debug("registry loaded", "tasks", len(r.taskOrder), "pipelines", len(r.pipelineOrder))
	return r, nil
}
