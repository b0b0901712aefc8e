package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/merlin-wf/merlin/queue"
	"github.com/merlin-wf/merlin/router"
	"github.com/merlin-wf/merlin/spec"
)

var cmdPurge = &Command{
	UsageLine: "purge [-f] [-steps step1,step2] [spec file]",
	Short:     "remove all tasks from the study's queues",
	Long: `
Purge drops every waiting task from the queues the given spec uses.
Running workers are not touched; use 'merlin stop-workers' for that.

Purge asks for confirmation unless -f is given. -steps limits the
purge to the queues of the named steps.`,
}

func init() {
	cmdPurge.Run = purgeTasks
}

func purgeTasks(args []string) {
	flags := flag.NewFlagSet("purge", flag.ExitOnError)
	force := flags.Bool("f", false, "purge without confirmation")
	stepsArg := flags.String("steps", "", "comma separated step names (default: all)")
	flags.Parse(args)

	if flags.NArg() != 1 {
		errorf("No spec file given.\nRun 'merlin help purge' for usage.\n")
	}

	s, err := spec.Load(flags.Arg(0))
	panicOnError(err, "Failed to load spec")

	panicOnError(router.InitBackends(s.TaskServer()), "Failed to connect to task server")
	defer router.CloseBackends()

	purged, err := router.PurgeTasks(queue.Instance, s, splitSteps(*stepsArg), *force, os.Stdin, os.Stdout)
	panicOnError(err, "Failed to purge queues")
	fmt.Fprintf(os.Stdout, "Purged %d tasks.\n", purged)
}

func splitSteps(arg string) []string {
	if arg == "" {
		return nil
	}
	steps := strings.Split(arg, ",")
	for i := range steps {
		steps[i] = strings.TrimSpace(steps[i])
	}
	return steps
}
