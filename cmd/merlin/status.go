package main

import (
	"flag"
	"fmt"
	"os"

	merlin "github.com/merlin-wf/merlin"
	"github.com/merlin-wf/merlin/queue"
	"github.com/merlin-wf/merlin/router"
	"github.com/merlin-wf/merlin/status"
)

var cmdStatus = &Command{
	UsageLine: "status [-dump file.csv|file.json] [workspace]",
	Short:     "show the progress of a study workspace",
	Long: `
Status reads a study workspace created by 'merlin run' and reports
every step's state: WAITING, RUNNING, FINISHED or FAILED.

With -dump the report is written to a .csv or .json file instead of
the terminal.`,
}

var cmdQueueInfo = &Command{
	UsageLine: "queue-info [-dump file.csv|file.json] [spec file]",
	Short:     "show task and worker counts for the study's queues",
	Long: `
Queue-info reports, per queue the spec uses, how many tasks are
waiting and how many workers are connected.

With -dump the report is written to a .csv or .json file instead of
the terminal.`,
}

func init() {
	cmdStatus.Run = showStatus
	cmdQueueInfo.Run = showQueueInfo
}

func showStatus(args []string) {
	flags := flag.NewFlagSet("status", flag.ExitOnError)
	dump := flags.String("dump", "", "write the report to a .csv or .json file")
	flags.Parse(args)

	if flags.NArg() != 1 {
		errorf("No workspace given.\nRun 'merlin help status' for usage.\n")
	}

	workspace, err := merlin.VerifyDirPath(flags.Arg(0))
	panicOnError(err, "Bad workspace path")

	report, err := status.Read(workspace)
	panicOnError(err, "Failed to read study status")

	if *dump != "" {
		panicOnError(status.Dump(report, *dump), "Failed to dump status")
		fmt.Fprintf(os.Stdout, "Status written to %s.\n", *dump)
		return
	}
	panicOnError(status.Write(os.Stdout, report), "Failed to render status")
}

func showQueueInfo(args []string) {
	flags := flag.NewFlagSet("queue-info", flag.ExitOnError)
	dump := flags.String("dump", "", "write the report to a .csv or .json file")
	flags.Parse(args)

	if flags.NArg() != 1 {
		errorf("No spec file given.\nRun 'merlin help queue-info' for usage.\n")
	}

	s, _ := loadSpecQueues(flags.Arg(0))
	defer router.CloseBackends()

	info, err := router.QueryQueues(queue.Instance, s, nil)
	panicOnError(err, "Failed to query queues")

	if *dump != "" {
		panicOnError(status.DumpQueueInfo(info, *dump), "Failed to dump queue info")
		fmt.Fprintf(os.Stdout, "Queue info written to %s.\n", *dump)
		return
	}
	panicOnError(status.WriteQueueInfo(os.Stdout, info), "Failed to render queue info")
}
