// Package registry holds the tasks and pipelines of a build.
//
// Tasks and pipelines share one namespace, so a pipeline step or watch target
// is unambiguous. Pipelines may name other pipelines; they are flattened into
// task ids when registered.
package registry

import (
	"fmt"
	"slices"

	"github.com/spachava753/assetpipe/internal/models"
	"github.com/spachava753/assetpipe/internal/task"
	"github.com/spachava753/assetpipe/internal/util"
)

// Registry maps identifiers to tasks and pipelines.
type Registry struct {
	tasks     map[string]*task.Task
	taskOrder []string

	pipelines     map[string]models.Pipeline
	flat          map[string][]string
	pipelineOrder []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		tasks:     make(map[string]*task.Task),
		pipelines: make(map[string]models.Pipeline),
		flat:      make(map[string][]string),
	}
}

// Register adds t. It fails with models.ErrDuplicateTaskID if a task or
// pipeline with the same id exists.
func (r *Registry) Register(t *task.Task) error {
	if _, ok := r.tasks[t.ID()]; ok {
		return fmt.Errorf("%w: %q", models.ErrDuplicateTaskID, t.ID())
	}
	if _, ok := r.pipelines[t.ID()]; ok {
		return fmt.Errorf("%w: %q is already a pipeline", models.ErrDuplicateTaskID, t.ID())
	}
	r.tasks[t.ID()] = t
	r.taskOrder = append(r.taskOrder, t.ID())
	return nil
}

// Get returns the task with the given id.
func (r *Registry) Get(id string) (*task.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownTaskID, id)
	}
	return t, nil
}

// Tasks returns all tasks in registration order.
func (r *Registry) Tasks() []*task.Task {
	out := make([]*task.Task, 0, len(r.taskOrder))
	for _, id := range r.taskOrder {
		out = append(out, r.tasks[id])
	}
	return out
}

// RegisterPipeline adds p. Every step must name a registered task or
// pipeline. A step naming p itself fails with models.ErrPipelineCycle; since
// referenced pipelines must already exist, no longer cycle can form.
func (r *Registry) RegisterPipeline(p models.Pipeline) error {
	if err := util.ValidateID(p.Name); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if _, ok := r.pipelines[p.Name]; ok {
		return fmt.Errorf("%w: %q", models.ErrDuplicatePipeline, p.Name)
	}
	if _, ok := r.tasks[p.Name]; ok {
		return fmt.Errorf("%w: %q is already a task", models.ErrDuplicatePipeline, p.Name)
	}

	var flat []string
	for _, step := range p.Steps {
		if step == p.Name {
			return fmt.Errorf("%w: pipeline %q includes itself", models.ErrPipelineCycle, p.Name)
		}
		ids, err := r.expand(step)
		if err != nil {
			return fmt.Errorf("pipeline %q: %w", p.Name, err)
		}
		flat = append(flat, ids...)
	}

	r.pipelines[p.Name] = models.Pipeline{Name: p.Name, Steps: slices.Clone(p.Steps)}
	r.flat[p.Name] = flat
	r.pipelineOrder = append(r.pipelineOrder, p.Name)
	return nil
}

// Pipeline returns the named pipeline with its steps flattened into task ids.
func (r *Registry) Pipeline(name string) (models.Pipeline, error) {
	flat, ok := r.flat[name]
	if !ok {
		return models.Pipeline{}, fmt.Errorf("%w: %q", models.ErrUnknownPipeline, name)
	}
	return models.Pipeline{Name: name, Steps: slices.Clone(flat)}, nil
}

// Pipelines returns the pipelines as declared, in registration order.
func (r *Registry) Pipelines() []models.Pipeline {
	out := make([]models.Pipeline, 0, len(r.pipelineOrder))
	for _, name := range r.pipelineOrder {
		p := r.pipelines[name]
		out = append(out, models.Pipeline{Name: p.Name, Steps: slices.Clone(p.Steps)})
	}
	return out
}

// HasPipeline reports whether name is a registered pipeline.
func (r *Registry) HasPipeline(name string) bool {
	_, ok := r.pipelines[name]
	return ok
}

// Plan flattens targets, each a task or pipeline id, into task ids.
func (r *Registry) Plan(targets []string) ([]string, error) {
	var out []string
	for _, target := range targets {
		ids, err := r.expand(target)
		if err != nil {
			return nil, err
		}
		out = append(out, ids...)
	}
	return out, nil
}

func (r *Registry) expand(id string) ([]string, error) {
	if _, ok := r.tasks[id]; ok {
		return []string{id}, nil
	}
	if flat, ok := r.flat[id]; ok {
		return flat, nil
	}
	return nil, fmt.Errorf("%w: %q", models.ErrUnknownTaskID, id)
}
