// Package workflow schedules analysis tasks across pluggable handlers.
// Handler failures are recorded on the task and never returned to callers.
package workflow

import (
	"context"
	"errors"
)

// Kind is the closed set of task kinds.
type Kind string

const (
	Simulate Kind = "simulate"
	Verify   Kind = "verify"
	Analyze  Kind = "analyze"
)

// Status is the lifecycle state of a task.
type Status string

const (
	Pending   Status = "pending"
	Running   Status = "running"
	Completed Status = "completed"
	Failed    Status = "failed"
	Cancelled Status = "cancelled"
)

// DefaultPriority is used when a task is created without one.
const DefaultPriority = 0.5

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrNoHandler        = errors.New("no handler for task kind")
)

// Result is the free-form outcome of a task.
type Result map[string]any

// Task is one unit of work.
type Task struct {
	ID           string         `json:"task_id"`
	Kind         Kind           `json:"task_type"`
	Params       map[string]any `json:"parameters"`
	Status       Status         `json:"status"`
	Result       Result         `json:"result,omitempty"`
	Error        string         `json:"error,omitempty"`
	Dependencies []string       `json:"dependencies"`
	Priority     float64        `json:"priority"`
}

// Handler executes tasks of the kinds it accepts.
type Handler interface {
	CanHandle(kind Kind) bool
	Execute(ctx context.Context, t *Task) (Result, error)
}

// String returns the string parameter key, or def.
func (t *Task) String(key, def string) string {
	if v, ok := t.Params[key].(string); ok {
		return v
	}
	return def
}

// Int returns the integer parameter key, or def. Whole floats are accepted
// since parameters decoded from JSON or YAML arrive that way.
func (t *Task) Int(key string, def int) int {
	switch v := t.Params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return def
}

// Float returns the numeric parameter key, or def.
func (t *Task) Float(key string, def float64) float64 {
	switch v := t.Params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

func (t *Task) clone() Task {
	c := *t
	c.Dependencies = append([]string(nil), t.Dependencies...)
	return c
}
