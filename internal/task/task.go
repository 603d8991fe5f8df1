// Package task turns declared build steps into immutable, runnable tasks.
package task

import (
	"context"
	"fmt"
	"io"

	"github.com/spachava753/assetpipe/internal/models"
	"github.com/spachava753/assetpipe/internal/tool"
	"github.com/spachava753/assetpipe/internal/util"
)

// Task is a single named build step. All paths are already expanded. A Task
// does not change after construction.
type Task struct {
	id     string
	kind   models.TaskKind
	inputs []string
	base   string
	output string
	tool   tool.Tool
}

// Definition holds the fields of a Task before validation.
type Definition struct {
	ID     string
	Kind   models.TaskKind
	Inputs []string
	Base   string
	Output string
	Tool   tool.Tool
}

// Env carries per-run values shared by every task of a pipeline.
type Env struct {
	Banner string
	Stdout io.Writer
	Stderr io.Writer
}

// New validates def and returns the Task.
func New(def Definition) (*Task, error) {
	if err := util.ValidateID(def.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidTask, err)
	}
	if def.Tool == nil {
		return nil, fmt.Errorf("%w: task %q has no tool", models.ErrInvalidTask, def.ID)
	}
	if err := tool.ValidatePatterns(def.Inputs); err != nil {
		return nil, fmt.Errorf("%w: task %q: %v", models.ErrInvalidTask, def.ID, err)
	}
	kind := def.Kind
	if kind == "" {
		kind = models.TaskKind(def.Tool.Name())
	}

	return &Task{
		id:     def.ID,
		kind:   kind,
		inputs: append([]string(nil), def.Inputs...),
		base:   def.Base,
		output: def.Output,
		tool:   def.Tool,
	}, nil
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// Kind returns the task kind.
func (t *Task) Kind() models.TaskKind { return t.kind }

// Inputs returns a copy of the input glob patterns.
func (t *Task) Inputs() []string { return append([]string(nil), t.inputs...) }

// Base returns the directory relative inputs are anchored at.
func (t *Task) Base() string { return t.base }

// Output returns the output path.
func (t *Task) Output() string { return t.output }

// Run invokes the task's tool and returns once all outputs are written.
func (t *Task) Run(ctx context.Context, env Env) error {
	return t.tool.Run(ctx, tool.Job{
		TaskID: t.id,
		Inputs: t.Inputs(),
		Base:   t.base,
		Output: t.output,
		Banner: env.Banner,
		Stdout: env.Stdout,
		Stderr: env.Stderr,
	})
}
