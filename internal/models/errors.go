package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType identifies the category of a task failure in a run report.
type ErrorType string

const (
	ErrToolFailed    ErrorType = "tool_failed"
	ErrToolMissing   ErrorType = "tool_missing"
	ErrInputMissing  ErrorType = "input_missing"
	ErrCancelled     ErrorType = "cancelled"
	ErrInternalError ErrorType = "internal_error"
)

var (
	ErrUnknownPathKey         = errors.New("unknown path key")
	ErrPathCycle              = errors.New("path template cycle")
	ErrDuplicateTaskID        = errors.New("duplicate task id")
	ErrUnknownTaskID          = errors.New("unknown task id")
	ErrDuplicatePipeline      = errors.New("duplicate pipeline")
	ErrUnknownPipeline        = errors.New("unknown pipeline")
	ErrPipelineCycle          = errors.New("pipeline cycle")
	ErrInvalidTask            = errors.New("invalid task")
	ErrInvalidComponentName   = errors.New("invalid component name")
	ErrComponentAlreadyExists = errors.New("component already exists")
)

// PipelineError reports the task that stopped a pipeline run.
type PipelineError struct {
	Pipeline string
	TaskID   string
	Err      error
}

func (e *PipelineError) Error() string {
	if e.Pipeline == "" {
		return fmt.Sprintf("task %q: %v", e.TaskID, e.Err)
	}
	return fmt.Sprintf("pipeline %q: task %q: %v", e.Pipeline, e.TaskID, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// ScaffoldStep names a stage of component scaffolding.
type ScaffoldStep string

const (
	StepTemplate ScaffoldStep = "template"
	StepStyle    ScaffoldStep = "style"
	StepImport   ScaffoldStep = "import"
)

// PartialScaffoldFailure is returned when scaffolding fails after at least one
// file was written. Created lists the files left behind.
type PartialScaffoldFailure struct {
	Step    ScaffoldStep
	Created []string
	Err     error
}

func (e *PartialScaffoldFailure) Error() string {
	return fmt.Sprintf("scaffold step %s failed (left behind: %s): %v", e.Step, strings.Join(e.Created, ", "), e.Err)
}

func (e *PartialScaffoldFailure) Unwrap() error { return e.Err }
