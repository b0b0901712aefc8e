// Package queue provides the task broker that carries step tasks from
// `merlin run` to the workers. It behaves like an expiring keyed store
// of task lists, with one list per named queue.
//
// Many callers will make exclusive use of Push and Pop, but queue
// statistics and consumer tracking are also available for the
// diagnostic commands.
package queue

import (
	"errors"
	"time"
)

// Task is one unit of work: a single expanded study step.
type Task struct {
	ID         string
	StudyName  string
	StepName   string
	Cmd        string
	RestartCmd string
	Shell      string
	Queue      string
	MaxRetries int
	Retries    int
	Workspace  string

	// Stop marks a poison pill pushed by `merlin stop-workers`.
	Stop bool
}

// Broker is the interface to a task queue backend.
//
// Errors other than ErrEmpty are backend specific; callers treat the
// queue as unavailable when they see one.
type Broker interface {
	// Push appends a task to the named queue.
	Push(queue string, t *Task) error

	// Pop removes the oldest task from the named queue, waiting up to
	// timeout for one to arrive.
	//
	// Returns:
	//   - the task and nil on success
	//   - nil and ErrEmpty if no task arrived within the timeout
	//   - nil and an implementation specific error otherwise
	Pop(queue string, timeout time.Duration) (*Task, error)

	// Purge drops all tasks from the given queues and returns how many
	// were removed.
	Purge(queues []string) (int, error)

	// Lengths returns the number of waiting tasks per queue.
	Lengths(queues []string) (map[string]int, error)

	// RegisterConsumer records a worker as consuming from the queue.
	RegisterConsumer(queue, worker string) error

	// UnregisterConsumer removes a worker from the queue's consumer set.
	UnregisterConsumer(queue, worker string) error

	// Consumers lists the workers registered on the queue.
	Consumers(queue string) ([]string, error)

	// Close releases backend connections.
	Close() error
}

var (
	// Instance is the broker selected for this invocation.
	Instance Broker

	// ErrEmpty is returned by Pop when no task arrived in time.
	ErrEmpty = errors.New("merlin/queue: no task available")

	// ErrInvalidValue is returned when a queue payload cannot be decoded.
	ErrInvalidValue = errors.New("merlin/queue: invalid task payload")
)

// The package implements the Broker interface (as sugar).

func Push(queue string, t *Task) error { return Instance.Push(queue, t) }
func Pop(queue string, timeout time.Duration) (*Task, error) {
	return Instance.Pop(queue, timeout)
}
func Purge(queues []string) (int, error)              { return Instance.Purge(queues) }
func Lengths(queues []string) (map[string]int, error) { return Instance.Lengths(queues) }
func RegisterConsumer(queue, worker string) error     { return Instance.RegisterConsumer(queue, worker) }
func UnregisterConsumer(queue, worker string) error   { return Instance.UnregisterConsumer(queue, worker) }
func Consumers(queue string) ([]string, error)        { return Instance.Consumers(queue) }
