// Package results stores the outcome of executed step tasks so the
// dispatching process can tell when a wave of steps has completed.
package results

import (
	"errors"
	"time"

	"github.com/merlin-wf/merlin/logger"
)

var resultsLog = logger.New("module", "results")

// StepResult records the outcome of one executed task.
type StepResult struct {
	TaskID     string
	StudyName  string
	StepName   string
	Worker     string
	ReturnCode int
	Restarted  bool
	Start      time.Time
	End        time.Time
}

// Succeeded reports whether the step exited cleanly.
func (r *StepResult) Succeeded() bool {
	return r.ReturnCode == 0
}

// Duration is the wall time the task spent executing.
func (r *StepResult) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Store is the interface to a results backend.
type Store interface {
	// Set records the result for a task, replacing any previous one.
	Set(taskID string, r *StepResult) error

	// Get returns the result for a task.
	//
	// Returns:
	//   - the result and nil on success
	//   - nil and ErrNotFound if no result was recorded
	//   - nil and an implementation specific error otherwise
	Get(taskID string) (*StepResult, error)

	// Delete removes the result for a task. Deleting an absent result
	// returns ErrNotFound.
	Delete(taskID string) error

	// Close releases backend connections.
	Close() error
}

var (
	// Instance is the results store selected for this invocation.
	Instance Store

	// ErrNotFound is returned by Get when no result exists for the task.
	ErrNotFound = errors.New("merlin/results: result not found")

	// ErrInvalidValue is returned when a stored payload cannot be decoded.
	ErrInvalidValue = errors.New("merlin/results: invalid result payload")
)

func Set(taskID string, r *StepResult) error { return Instance.Set(taskID, r) }
func Get(taskID string) (*StepResult, error) { return Instance.Get(taskID) }
func Delete(taskID string) error             { return Instance.Delete(taskID) }
