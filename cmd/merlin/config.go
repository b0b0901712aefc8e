package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/merlin-wf/merlin/router"
)

var cmdConfig = &Command{
	UsageLine: "config [-broker redis|local] [-output-dir dir] [-force]",
	Short:     "create a default merlin configuration",
	Long: `
Config writes an app.conf with broker and results backend settings
into the merlin home directory (~/.merlin, or $MERLIN_HOME).

    merlin config
    merlin config -broker local
    merlin config -output-dir ./deploy -force`,
}

func init() {
	cmdConfig.Run = createConfig
}

func createConfig(args []string) {
	flags := flag.NewFlagSet("config", flag.ExitOnError)
	broker := flags.String("broker", "redis", "broker type: redis or local")
	outputDir := flags.String("output-dir", "", "directory to write app.conf into")
	force := flags.Bool("force", false, "overwrite an existing app.conf")
	flags.Parse(args)

	if flags.NArg() != 0 {
		errorf("Unexpected arguments.\nRun 'merlin help config' for usage.\n")
	}

	path, err := router.CreateConfig(*broker, *outputDir, *force)
	panicOnError(err, "Failed to write configuration")
	fmt.Fprintf(os.Stdout, "Configuration written to %s.\n", path)
}
