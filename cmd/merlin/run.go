package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	merlin "github.com/merlin-wf/merlin"
	"github.com/merlin-wf/merlin/router"
	"github.com/merlin-wf/merlin/spec"
	"github.com/merlin-wf/merlin/study"
)

var cmdRun = &Command{
	UsageLine: "run [-vars NAME=value ...] [-local] [-dry] [-output-path dir] [spec file]",
	Short:     "queue a workflow study",
	Long: `
Run expands the given study spec into a timestamped workspace and
queues its steps on the task server, wave by wave in dependency order.

With -local the steps are executed by an in-process worker instead of
externally launched ones. With -dry the workspace and step scripts are
written but nothing runs.

Variables from the spec's env block can be overridden on the command
line:

    merlin run hello.yaml -vars GREETING=hola -vars WORLD=mundo`,
}

// repeatable -vars flag
type varsFlag []string

func (v *varsFlag) String() string     { return fmt.Sprint(*v) }
func (v *varsFlag) Set(s string) error { *v = append(*v, s); return nil }

func init() {
	cmdRun.Run = runStudy
}

func runStudy(args []string) {
	flags := flag.NewFlagSet("run", flag.ExitOnError)
	var vars varsFlag
	flags.Var(&vars, "vars", "override spec variables, NAME=value (repeatable)")
	local := flags.Bool("local", false, "run tasks with an in-process worker")
	dry := flags.Bool("dry", false, "write the workspace without running")
	outputPath := flags.String("output-path", "", "parent directory for the workspace")
	concurrency := flags.Int("concurrency", 2, "local worker parallelism")
	flags.Parse(args)

	if flags.NArg() != 1 {
		errorf("No spec file given.\nRun 'merlin help run' for usage.\n")
	}
	fmt.Fprint(os.Stdout, merlin.BannerSmall)

	s, err := spec.Load(flags.Arg(0))
	panicOnError(err, "Failed to load spec")

	overrides, err := spec.ParseOverrideVars(vars)
	panicOnError(err, "Bad -vars override")

	st, err := study.New(s, study.Options{
		OverrideVars: overrides,
		OutputPath:   *outputPath,
		DryRun:       *dry,
	})
	panicOnError(err, "Failed to create study workspace")

	dispatch(st, *local, *concurrency)
}

// dispatch wires the task backends and runs the study. Shared with
// `merlin restart`.
func dispatch(st *study.Study, local bool, concurrency int) {
	server := st.Spec.TaskServer()
	if local {
		server = "local"
	}
	panicOnError(router.InitBackends(server), "Failed to connect to task server")
	defer router.CloseBackends()

	err := router.RunStudy(st, router.RunOptions{
		Local:        local,
		Concurrency:  concurrency,
		PollInterval: time.Second,
	})
	panicOnError(err, "Study failed")
}
