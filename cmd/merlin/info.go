package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	merlin "github.com/merlin-wf/merlin"
)

var cmdInfo = &Command{
	UsageLine: "info",
	Short:     "print configuration and environment details",
	Long: `
Info prints the merlin version, the configuration file in use and the
broker and results settings, for bug reports and debugging connection
problems.`,
}

func init() {
	cmdInfo.Run = func(args []string) {
		writeInfo(os.Stdout)
	}
}

func writeInfo(w io.Writer) {
	fmt.Fprintf(w, "merlin version: %s\n", merlin.Version)
	fmt.Fprintf(w, "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	configFile := filepath.Join(merlin.HomeDir(), merlin.ConfigFileName)
	if merlin.Exists(configFile) {
		fmt.Fprintf(w, "config file: %s\n", configFile)
	} else {
		fmt.Fprintf(w, "config file: %s (not found, run 'merlin config')\n", configFile)
	}

	fmt.Fprintf(w, "broker: redis at %s\n", merlin.Config.StringDefault("broker.redis.host", "localhost:6379"))
	if merlin.Config.StringDefault("broker.redis.password", "") != "" {
		fmt.Fprintln(w, "broker password: set")
	}
	fmt.Fprintf(w, "results: memcached at %s\n", merlin.Config.StringDefault("results.memcached.hosts", "localhost:11211"))
	fmt.Fprintf(w, "log output: %s\n", merlin.Config.StringDefault("log.output", "stderr"))
}
