package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/merlin-wf/merlin/examples"
)

var cmdExample = &Command{
	UsageLine: "example [-outdir dir] [list | name]",
	Short:     "generate an example workflow",
	Long: `
Example copies one of the bundled example workflows into a local
directory so you can run and modify it.

    merlin example list

prints the available examples with their descriptions, and

    merlin example optimization_basic

copies the optimization example into ./optimization/. Use -outdir to
pick a different destination directory.`,
}

func init() {
	cmdExample.Run = exampleRun
}

func exampleRun(args []string) {
	flags := flag.NewFlagSet("example", flag.ExitOnError)
	outdir := flags.String("outdir", "", "destination directory")
	flags.Parse(args)

	if flags.NArg() != 1 {
		errorf("No example name given.\nRun 'merlin help example' for usage.\n")
	}
	name := flags.Arg(0)

	if name == "list" {
		table, err := examples.ListExamples()
		panicOnError(err, "Failed to list examples")
		fmt.Fprintln(os.Stdout, table)
		return
	}

	example, err := examples.SetupExample(name, *outdir)
	panicOnError(err, "Failed to set up example")
	dest := *outdir
	if dest == "" {
		dest = example
	}
	fmt.Fprintf(os.Stdout, "Example '%s' ready in '%s'.\n", name, dest)
}
