package main

import (
	"flag"
	"fmt"
	"os"

	merlin "github.com/merlin-wf/merlin"
	"github.com/merlin-wf/merlin/study"
)

var cmdRestart = &Command{
	UsageLine: "restart [-local] [workspace]",
	Short:     "restart an existing workflow study",
	Long: `
Restart reopens the study workspace created by a previous 'merlin run'
using its provenance spec, skips every step that already finished and
re-queues the rest.

    merlin restart studies/hello_20260830-120000`,
}

func init() {
	cmdRestart.Run = restartStudy
}

func restartStudy(args []string) {
	flags := flag.NewFlagSet("restart", flag.ExitOnError)
	local := flags.Bool("local", false, "run tasks with an in-process worker")
	concurrency := flags.Int("concurrency", 2, "local worker parallelism")
	flags.Parse(args)

	if flags.NArg() != 1 {
		errorf("No workspace given.\nRun 'merlin help restart' for usage.\n")
	}
	fmt.Fprint(os.Stdout, merlin.BannerSmall)

	workspace, err := merlin.VerifyDirPath(flags.Arg(0))
	panicOnError(err, "Bad workspace path")

	st, err := study.Restart(workspace)
	panicOnError(err, "Failed to reopen study")

	dispatch(st, *local, *concurrency)
}
