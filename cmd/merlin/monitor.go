package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	merlin "github.com/merlin-wf/merlin"
	"github.com/merlin-wf/merlin/monitor"
	"github.com/merlin-wf/merlin/queue"
	"github.com/merlin-wf/merlin/router"
)

var cmdMonitor = &Command{
	UsageLine: "monitor [-sleep seconds] [-workspace dir] [spec file]",
	Short:     "block until the study's queues are drained",
	Long: `
Monitor keeps the process alive while the study's queues hold tasks,
so a batch allocation does not exit before the workers are done. It
polls the task server every -sleep seconds (default 60) and exits once
every queue is empty, or with an error if tasks sit waiting with no
worker connected.

With -workspace pointing at the study's output directory, step
completions and failures are reported as they land.`,
}

func init() {
	cmdMonitor.Run = monitorStudy
}

func monitorStudy(args []string) {
	flags := flag.NewFlagSet("monitor", flag.ExitOnError)
	sleep := flags.Int("sleep", 60, "seconds between queue polls")
	workspace := flags.String("workspace", "", "study workspace to report step completions from")
	flags.Parse(args)

	if flags.NArg() != 1 {
		errorf("No spec file given.\nRun 'merlin help monitor' for usage.\n")
	}

	_, queues := loadSpecQueues(flags.Arg(0))
	defer router.CloseBackends()

	if *workspace != "" {
		dir, err := merlin.VerifyDirPath(*workspace)
		panicOnError(err, "Bad workspace path")

		w, err := monitor.NewWatcher(dir)
		panicOnError(err, "Failed to watch workspace")
		defer w.Close()
		go func() {
			for event := range w.Events {
				if event.Failed {
					fmt.Fprintf(os.Stdout, "Step '%s' failed.\n", event.Step)
				} else {
					fmt.Fprintf(os.Stdout, "Step '%s' finished.\n", event.Step)
				}
			}
		}()
	}

	m := monitor.New(queue.Instance, queues, monitor.Options{
		Sleep: time.Duration(*sleep) * time.Second,
	})
	panicOnError(m.Wait(), "Monitor gave up")
	fmt.Fprintln(os.Stdout, "All queues drained.")
}
