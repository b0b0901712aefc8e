// Package router turns CLI requests into broker and workspace actions:
// dispatching studies, purging queues and querying workers.
package router

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/merlin-wf/merlin/logger"
	"github.com/merlin-wf/merlin/queue"
	"github.com/merlin-wf/merlin/results"
	"github.com/merlin-wf/merlin/study"
	"github.com/merlin-wf/merlin/worker"
)

var routerLog = logger.New("module", "router")

// RunOptions control study dispatch.
type RunOptions struct {
	// Local runs an in-process worker instead of relying on external
	// `merlin run-workers` processes.
	Local bool

	// Concurrency is the local worker's parallelism.
	Concurrency int

	// PollInterval is the delay between result polls while waiting for
	// a wave of steps to finish.
	PollInterval time.Duration
}

// RunStudy dispatches the study's steps wave by wave, waiting for each
// wave's results before queueing the next. Steps whose workspace
// already carries a finished marker are skipped, which is what makes
// `merlin restart` resume where a study left off.
func RunStudy(st *study.Study, opts RunOptions) error {
	if err := st.WriteStepScripts(); err != nil {
		return err
	}
	if st.DryRun {
		routerLog.Info("Dry run: workspace and scripts written", "workspace", st.Workspace)
		return nil
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}

	broker := queue.Instance
	store := results.Instance

	var localWorker *worker.Worker
	var localDone chan struct{}
	if opts.Local {
		queues, err := st.Spec.Queues(nil)
		if err != nil {
			return err
		}
		localWorker = worker.New("local_worker", broker, store, worker.Options{
			Queues:      queues,
			Concurrency: opts.Concurrency,
			PopTimeout:  100 * time.Millisecond,
		})
		localDone = make(chan struct{})
		go func() {
			defer close(localDone)
			if err := localWorker.Run(); err != nil {
				routerLog.Error("local worker exited", "error", err)
			}
		}()
		defer func() {
			localWorker.Stop()
			<-localDone
		}()
	}

	name := st.Spec.Description.Name
	for i, wave := range st.Waves() {
		pending := map[string]string{} // task id -> step name
		for _, step := range wave {
			if study.StepFinished(step.Workspace) {
				routerLog.Info("Skipping finished step", "step", step.Name)
				continue
			}
			task := makeTask(st, step)
			if err := broker.Push(task.Queue, task); err != nil {
				return fmt.Errorf("failed to queue step '%s': %w", step.Name, err)
			}
			pending[task.ID] = step.Name
		}
		routerLog.Info("Queued step wave", "study", name, "wave", i+1, "steps", len(pending))
		if err := waitForWave(store, pending, opts.PollInterval); err != nil {
			return err
		}
	}
	routerLog.Info("Study finished", "study", name, "workspace", st.Workspace)
	return nil
}

func makeTask(st *study.Study, step *study.Step) *queue.Task {
	shell := step.Run.Shell
	if shell == "" {
		shell = st.Spec.Batch.Shell
	}
	return &queue.Task{
		ID:         uuid.New().String(),
		StudyName:  st.Spec.Description.Name,
		StepName:   step.Name,
		Cmd:        step.Cmd(),
		RestartCmd: step.RestartCmd(),
		Shell:      shell,
		Queue:      step.TaskQueue(),
		MaxRetries: step.MaxRetries(),
		Workspace:  step.Workspace,
	}
}

// waitForWave polls the results store until every queued task of the
// wave reports a final result. A failed step aborts the study.
func waitForWave(store results.Store, pending map[string]string, poll time.Duration) error {
	for len(pending) > 0 {
		for id, stepName := range pending {
			r, err := store.Get(id)
			if err == results.ErrNotFound {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to read result for step '%s': %w", stepName, err)
			}
			if !r.Succeeded() {
				return fmt.Errorf("step '%s' failed with return code %d", stepName, r.ReturnCode)
			}
			routerLog.Info("Step finished", "step", stepName, "worker", r.Worker, "duration", r.Duration().String())
			delete(pending, id)
		}
		if len(pending) > 0 {
			time.Sleep(poll)
		}
	}
	return nil
}
