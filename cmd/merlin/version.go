package main

import (
	"fmt"
	"os"

	merlin "github.com/merlin-wf/merlin"
)

var cmdVersion = &Command{
	UsageLine: "version",
	Short:     "print the merlin version",
	Long: `
Version prints the merlin version.`,
}

func init() {
	cmdVersion.Run = func(args []string) {
		fmt.Fprintf(os.Stdout, "merlin %s\n", merlin.Version)
	}
}
