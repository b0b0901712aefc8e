// Package worker consumes step tasks from the broker, executes them and
// records their results.
package worker

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/revel/log15"

	"github.com/merlin-wf/merlin/logger"
	"github.com/merlin-wf/merlin/queue"
	"github.com/merlin-wf/merlin/results"
	"github.com/merlin-wf/merlin/study"
)

const defaultShell = "/bin/bash"

// Options configures a worker.
type Options struct {
	// Queues the worker consumes from, in priority order.
	Queues []string

	// Concurrency is the number of tasks executed in parallel.
	Concurrency int

	// LogDir, when set, sends the worker's log to a rotating file
	// named after the worker instead of the process log.
	LogDir string

	// PopTimeout bounds each blocking pop. Short timeouts make the
	// worker notice Stop sooner.
	PopTimeout time.Duration
}

// Worker pulls tasks off its queues and runs them until stopped.
type Worker struct {
	// Name is unique per process so consumer registries and log files
	// from several workers on one host do not collide.
	Name string

	opts   Options
	broker queue.Broker
	store  results.Store
	log    logger.MultiLogger

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// New creates a worker named `<base>-<id>`.
func New(base string, broker queue.Broker, store results.Store, opts Options) *Worker {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 2 * time.Second
	}
	if len(opts.Queues) == 0 {
		opts.Queues = []string{"merlin"}
	}
	name := fmt.Sprintf("%s-%s", base, uuid.New().String()[:8])
	w := &Worker{
		Name:   name,
		opts:   opts,
		broker: broker,
		store:  store,
		log:    logger.New("module", "worker", "worker", name),
		stop:   make(chan struct{}),
	}
	if opts.LogDir != "" {
		h := logger.FileHandler(filepath.Join(opts.LogDir, name+".log"), 50, 14)
		w.log.SetHandler(log15.LvlFilterHandler(log15.LvlInfo, h))
	}
	return w
}

// Run consumes tasks until Stop is called or a stop task arrives. It
// blocks until all in-flight tasks have finished.
func (w *Worker) Run() error {
	for _, q := range w.opts.Queues {
		if err := w.broker.RegisterConsumer(q, w.Name); err != nil {
			return err
		}
	}
	w.log.Info("worker started", "queues", fmt.Sprintf("%v", w.opts.Queues), "concurrency", w.opts.Concurrency)

	w.wg.Add(w.opts.Concurrency)
	for i := 0; i < w.opts.Concurrency; i++ {
		go w.consume()
	}
	w.wg.Wait()

	for _, q := range w.opts.Queues {
		if err := w.broker.UnregisterConsumer(q, w.Name); err != nil {
			w.log.Error("failed to unregister consumer", "queue", q, "error", err)
		}
	}
	w.log.Info("worker stopped")
	return nil
}

// Stop asks the run loops to exit after their current task.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

func (w *Worker) stopped() bool {
	select {
	case <-w.stop:
		return true
	default:
		return false
	}
}

func (w *Worker) consume() {
	defer w.wg.Done()
	for !w.stopped() {
		for _, q := range w.opts.Queues {
			if w.stopped() {
				return
			}
			task, err := w.broker.Pop(q, w.opts.PopTimeout)
			if err == queue.ErrEmpty {
				continue
			}
			if err != nil {
				w.log.Error("pop failed", "queue", q, "error", err)
				continue
			}
			if task.Stop {
				w.log.Info("received stop task", "queue", q)
				w.Stop()
				return
			}
			w.handle(task)
		}
	}
}

func (w *Worker) handle(t *queue.Task) {
	w.log.Info("running step", "study", t.StudyName, "step", t.StepName, "retries", t.Retries)
	result := w.execute(t)

	if result.Succeeded() {
		w.finish(t, result, study.FinishedMarker)
		return
	}

	if t.Retries < t.MaxRetries {
		retry := *t
		retry.Retries++
		w.log.Warn("step failed, requeueing",
			"step", t.StepName, "rc", result.ReturnCode,
			"retry", retry.Retries, "max", t.MaxRetries)
		if err := w.broker.Push(t.Queue, &retry); err != nil {
			w.log.Error("requeue failed", "step", t.StepName, "error", err)
			w.finish(t, result, study.FailedMarker)
		}
		return
	}

	w.log.Error("step failed permanently", "step", t.StepName, "rc", result.ReturnCode)
	w.finish(t, result, study.FailedMarker)
}

// finish stores the final result and drops the status marker into the
// step workspace.
func (w *Worker) finish(t *queue.Task, result *results.StepResult, marker string) {
	if w.store != nil {
		if err := w.store.Set(t.ID, result); err != nil {
			w.log.Error("failed to store result", "step", t.StepName, "error", err)
		}
	}
	if t.Workspace == "" {
		return
	}
	path := filepath.Join(t.Workspace, marker)
	if err := ioutil.WriteFile(path, nil, 0644); err != nil {
		w.log.Error("failed to write status marker", "path", path, "error", err)
	}
}

func (w *Worker) execute(t *queue.Task) *results.StepResult {
	result := &results.StepResult{
		TaskID:    t.ID,
		StudyName: t.StudyName,
		StepName:  t.StepName,
		Worker:    w.Name,
		Restarted: t.Retries > 0,
		Start:     time.Now(),
	}

	cmdStr := t.Cmd
	if t.Retries > 0 && t.RestartCmd != "" {
		cmdStr = t.RestartCmd
	}
	shell := t.Shell
	if shell == "" {
		shell = defaultShell
	}

	cmd := exec.Command(shell, "-c", cmdStr)
	cmd.Env = append(os.Environ(),
		"MERLIN_WORKSPACE="+t.Workspace,
		"MERLIN_STEP_NAME="+t.StepName,
	)
	if t.Workspace != "" {
		if err := os.MkdirAll(t.Workspace, 0755); err != nil {
			w.log.Error("failed to create step workspace", "path", t.Workspace, "error", err)
			result.ReturnCode = -1
			result.End = time.Now()
			return result
		}
		cmd.Dir = t.Workspace

		// Step output lands next to the step script.
		if out, err := os.Create(filepath.Join(t.Workspace, t.StepName+".out")); err == nil {
			defer out.Close()
			cmd.Stdout = out
		}
		if errf, err := os.Create(filepath.Join(t.Workspace, t.StepName+".err")); err == nil {
			defer errf.Close()
			cmd.Stderr = errf
		}
	}

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ReturnCode = exitErr.ExitCode()
		} else {
			w.log.Error("failed to launch step", "step", t.StepName, "error", err)
			result.ReturnCode = -1
		}
	}
	result.End = time.Now()
	return result
}
