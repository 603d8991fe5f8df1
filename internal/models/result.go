package models

import "time"

// TaskStatus is the outcome of one task within a run.
type TaskStatus string

const (
	StatusSucceeded TaskStatus = "succeeded"
	StatusFailed    TaskStatus = "failed"
	StatusSkipped   TaskStatus = "skipped"
)

// RunResult summarizes a pipeline run.
type RunResult struct {
	Pipeline         string       `json:"pipeline"`
	Succeeded        bool         `json:"succeeded"`
	FailedTask       string       `json:"failed_task,omitempty"`
	TotalDurationSec float64      `json:"total_duration_sec"`
	StartedAt        time.Time    `json:"started_at"`
	EndedAt          time.Time    `json:"ended_at"`
	Tasks            []TaskResult `json:"tasks"`
}

// TaskResult is the outcome of one task.
type TaskResult struct {
	ID          string     `json:"id"`
	Kind        TaskKind   `json:"kind"`
	Status      TaskStatus `json:"status"`
	DurationSec float64    `json:"duration_sec"`
	Error       *TaskError `json:"error,omitempty"`
}

type TaskError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}
