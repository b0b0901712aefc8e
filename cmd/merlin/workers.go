package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	merlin "github.com/merlin-wf/merlin"
	"github.com/merlin-wf/merlin/queue"
	"github.com/merlin-wf/merlin/results"
	"github.com/merlin-wf/merlin/router"
	"github.com/merlin-wf/merlin/spec"
	"github.com/merlin-wf/merlin/worker"
)

var cmdRunWorkers = &Command{
	UsageLine: "run-workers [-worker name] [-queues q1,q2] [-echo] [-concurrency n] [-logdir dir] [spec file]",
	Short:     "start workers for a workflow spec",
	Long: `
Run-workers starts the workers defined in the spec's merlin resources
block (or the default worker) and consumes step tasks until stopped by
'merlin stop-workers' or an interrupt.

With -echo the worker launch commands are printed instead of run,
which is useful inside batch scripts. -worker limits startup to the
named workers (repeatable) and -queues overrides the queues they
consume; the -echo output sets both.`,
}

var cmdQueryWorkers = &Command{
	UsageLine: "query-workers [-filter regex] [spec file]",
	Short:     "list the workers connected to the study's queues",
	Long: `
Query-workers lists, per queue, the workers currently registered on
the task server. -filter keeps only worker names matching the given
regular expression.`,
}

var cmdStopWorkers = &Command{
	UsageLine: "stop-workers [-filter regex] [spec file]",
	Short:     "stop the workers connected to the study's queues",
	Long: `
Stop-workers queues one stop task per connected worker so each exits
after its current task. -filter stops only worker names matching the
given regular expression.`,
}

func init() {
	cmdRunWorkers.Run = runWorkers
	cmdQueryWorkers.Run = queryWorkers
	cmdStopWorkers.Run = stopWorkers
}

func runWorkers(args []string) {
	flags := flag.NewFlagSet("run-workers", flag.ExitOnError)
	var names varsFlag
	flags.Var(&names, "worker", "worker name to start (repeatable, default: all)")
	queuesFlag := flags.String("queues", "", "comma separated queues to consume (default: resolved from the spec)")
	echo := flags.Bool("echo", false, "print launch commands instead of starting")
	concurrency := flags.Int("concurrency", 1, "tasks each worker runs in parallel")
	logdir := flags.String("logdir", "", "write per worker rotating logs into this directory")
	flags.Parse(args)

	if flags.NArg() != 1 {
		errorf("No spec file given.\nRun 'merlin help run-workers' for usage.\n")
	}

	s, err := spec.Load(flags.Arg(0))
	panicOnError(err, "Failed to load spec")

	commands, err := worker.LaunchCommands(s, names)
	panicOnError(err, "Failed to resolve workers")
	if *echo {
		fmt.Fprintln(os.Stdout, strings.Join(commands, "\n"))
		return
	}
	fmt.Fprint(os.Stdout, merlin.BannerSmall)

	panicOnError(router.InitBackends(s.TaskServer()), "Failed to connect to task server")
	defer router.CloseBackends()

	workerNames := []string(names)
	if len(workerNames) == 0 {
		workerNames = s.WorkerNames()
	}

	workers := make([]*worker.Worker, 0, len(workerNames))
	done := make(chan struct{}, len(workerNames))
	for _, name := range workerNames {
		var queues []string
		if *queuesFlag != "" {
			queues = strings.Split(*queuesFlag, ",")
		} else {
			queues, err = s.Queues(s.Merlin.Resources.Workers[name].Steps)
			panicOnError(err, "Failed to resolve queues for worker "+name)
		}

		w := worker.New(name, queue.Instance, results.Instance, worker.Options{
			Queues:      queues,
			Concurrency: *concurrency,
			LogDir:      *logdir,
		})
		workers = append(workers, w)
		go func(w *worker.Worker) {
			if err := w.Run(); err != nil {
				merlin.AppLog.Error("worker exited with error", "worker", w.Name, "error", err)
			}
			done <- struct{}{}
		}(w)
	}

	// Interrupts stop the workers after their current task.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	finished := 0
	for finished < len(workers) {
		select {
		case <-signals:
			merlin.AppLog.Info("interrupt received, stopping workers")
			for _, w := range workers {
				w.Stop()
			}
		case <-done:
			finished++
		}
	}
}

func queryWorkers(args []string) {
	flags := flag.NewFlagSet("query-workers", flag.ExitOnError)
	filter := flags.String("filter", "", "regular expression on worker names")
	flags.Parse(args)

	if flags.NArg() != 1 {
		errorf("No spec file given.\nRun 'merlin help query-workers' for usage.\n")
	}

	_, queues := loadSpecQueues(flags.Arg(0))
	defer router.CloseBackends()

	workers, err := router.QueryWorkers(queue.Instance, queues, *filter)
	panicOnError(err, "Failed to query workers")

	for _, q := range queues {
		names := workers[q]
		if len(names) == 0 {
			fmt.Fprintf(os.Stdout, "%s: no workers\n", q)
			continue
		}
		fmt.Fprintf(os.Stdout, "%s: %s\n", q, strings.Join(names, ", "))
	}
}

func stopWorkers(args []string) {
	flags := flag.NewFlagSet("stop-workers", flag.ExitOnError)
	filter := flags.String("filter", "", "regular expression on worker names")
	flags.Parse(args)

	if flags.NArg() != 1 {
		errorf("No spec file given.\nRun 'merlin help stop-workers' for usage.\n")
	}

	_, queues := loadSpecQueues(flags.Arg(0))
	defer router.CloseBackends()

	stopped, err := router.StopWorkers(queue.Instance, queues, *filter)
	panicOnError(err, "Failed to stop workers")
	fmt.Fprintf(os.Stdout, "Queued %d stop tasks.\n", stopped)
}

// loadSpecQueues loads a spec, connects the backends and returns the
// spec with its full queue list.
func loadSpecQueues(path string) (*spec.Spec, []string) {
	s, err := spec.Load(path)
	panicOnError(err, "Failed to load spec")

	queues, err := s.Queues(nil)
	panicOnError(err, "Failed to resolve queues")

	panicOnError(router.InitBackends(s.TaskServer()), "Failed to connect to task server")
	return s, queues
}
