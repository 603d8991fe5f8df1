// Package executor runs pipelines of registered tasks.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spachava753/assetpipe/internal/models"
	"github.com/spachava753/assetpipe/internal/registry"
	"github.com/spachava753/assetpipe/internal/task"
	"github.com/spachava753/assetpipe/internal/tool"
)

var errTaskPanicked = errors.New("task panicked")

// Runner executes pipelines one task at a time and stops at the first failure.
// There is no rollback: outputs written by earlier tasks stay in place.
type Runner struct {
	reg    *registry.Registry
	banner string
	report string
	stdout io.Writer
	stderr io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithBanner sets the rendered banner handed to tasks that stamp one.
func WithBanner(banner string) Option {
	return func(r *Runner) { r.banner = banner }
}

// WithReport writes the result of every run as JSON to path.
func WithReport(path string) Option {
	return func(r *Runner) { r.report = path }
}

// WithOutput sets where external tools write their output.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// NewRunner creates a Runner over reg.
func NewRunner(reg *registry.Registry, opts ...Option) *Runner {
	r := &Runner{reg: reg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the named pipeline.
func (r *Runner) Run(ctx context.Context, name string) (*models.RunResult, error) {
	p, err := r.reg.Pipeline(name)
	if err != nil {
		return nil, err
	}
	return r.RunPipeline(ctx, p)
}

// RunTargets flattens targets and runs them as a pipeline called name.
func (r *Runner) RunTargets(ctx context.Context, name string, targets []string) (*models.RunResult, error) {
	ids, err := r.reg.Plan(targets)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", name, err)
	}
	return r.RunPipeline(ctx, models.Pipeline{Name: name, Steps: ids})
}

// RunPipeline executes p.Steps, each a task id, in order. Every id is
// resolved before the first task starts. If a task fails, or ctx is done
// before the next task starts, the run stops and the error is a
// *models.PipelineError naming that task. The RunResult is returned in both
// cases.
func (r *Runner) RunPipeline(ctx context.Context, p models.Pipeline) (*models.RunResult, error) {
	tasks := make([]*task.Task, 0, len(p.Steps))
	for _, id := range p.Steps {
		t, err := r.reg.Get(id)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", p.Name, err)
		}
		tasks = append(tasks, t)
	}

	result := &models.RunResult{
		Pipeline:  p.Name,
		StartedAt: time.Now(),
		Tasks:     make([]models.TaskResult, 0, len(tasks)),
	}
	env := task.Env{Banner: r.banner, Stdout: r.stdout, Stderr: r.stderr}

	slog.Info("running pipeline", "pipeline", p.Name, "tasks", len(tasks))

	var runErr *models.PipelineError
	for i, t := range tasks {
		if err := ctx.Err(); err != nil {
			runErr = &models.PipelineError{Pipeline: p.Name, TaskID: t.ID(), Err: err}
			skip(result, tasks[i:], &models.TaskError{Type: models.ErrCancelled, Message: err.Error()})
			break
		}

		slog.Info("running task", "pipeline", p.Name, "task", t.ID(), "kind", t.Kind())
		start := time.Now()
		err := runTask(ctx, t, env)
		tr := models.TaskResult{
			ID:          t.ID(),
			Kind:        t.Kind(),
			Status:      models.StatusSucceeded,
			DurationSec: time.Since(start).Seconds(),
		}

		if err != nil {
			tr.Status = models.StatusFailed
			tr.Error = &models.TaskError{Type: classify(err), Message: err.Error()}
			result.Tasks = append(result.Tasks, tr)
			skip(result, tasks[i+1:], nil)

			slog.Error("task failed", "pipeline", p.Name, "task", t.ID(), "error", err)
			runErr = &models.PipelineError{Pipeline: p.Name, TaskID: t.ID(), Err: err}
			break
		}

		slog.Debug("task finished", "pipeline", p.Name, "task", t.ID(), "duration_sec", tr.DurationSec)
		result.Tasks = append(result.Tasks, tr)
	}

	result.EndedAt = time.Now()
	result.TotalDurationSec = result.EndedAt.Sub(result.StartedAt).Seconds()
	result.Succeeded = runErr == nil
	if runErr != nil {
		result.FailedTask = runErr.TaskID
	}

	r.writeReport(result)

	if runErr != nil {
		return result, runErr
	}
	slog.Info("pipeline finished", "pipeline", p.Name, "duration_sec", result.TotalDurationSec)
	return result, nil
}

func runTask(ctx context.Context, t *task.Task, env task.Env) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%w: %v", errTaskPanicked, v)
		}
	}()
	return t.Run(ctx, env)
}

func skip(result *models.RunResult, tasks []*task.Task, cause *models.TaskError) {
	for _, t := range tasks {
		result.Tasks = append(result.Tasks, models.TaskResult{
			ID:     t.ID(),
			Kind:   t.Kind(),
			Status: models.StatusSkipped,
			Error:  cause,
		})
		cause = nil
	}
}

// classify maps a task error to the category recorded in the run report.
func classify(err error) models.ErrorType {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return models.ErrCancelled
	case errors.Is(err, tool.ErrToolNotFound):
		return models.ErrToolMissing
	case errors.Is(err, tool.ErrNoInputs):
		return models.ErrInputMissing
	case errors.Is(err, errTaskPanicked):
		return models.ErrInternalError
	default:
		return models.ErrToolFailed
	}
}

func (r *Runner) writeReport(result *models.RunResult) {
	if r.report == "" {
		return
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		slog.Warn("encoding run report", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.report), 0755); err != nil {
		slog.Warn("writing run report", "path", r.report, "error", err)
		return
	}
	if err := os.WriteFile(r.report, data, 0644); err != nil {
		slog.Warn("writing run report", "path", r.report, "error", err)
	}
}
