// Package merlin holds the shared state for the merlin workflow tool:
// the loaded application configuration, the top level loggers and the
// filesystem locations the tool works out of.
package merlin

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/revel/config"

	"github.com/merlin-wf/merlin/logger"
)

const (
	// Version current merlin version.
	Version = "1.12.2"

	// ConfigFileName is the application configuration installed by `merlin config`.
	ConfigFileName = "app.conf"
)

// BannerSmall is printed before workflow-touching commands.
const BannerSmall = `
       *
  *~~~~~~~*      __
 /  ~~~~~~  \   /  \
 |  ~~~~~~  |  | () |   merlin ` + Version + `
  \ ~~~~~~ /    \__/
   *~~~~~~*
`

var (
	// Config holds the merged application config, nil until Init runs.
	Config *config.Context

	// AppLog is the top level application logger.
	AppLog = logger.New("module", "merlin")
)

// HomeDir returns the merlin configuration directory, ~/.merlin by default.
// The MERLIN_HOME environment variable overrides it.
func HomeDir() string {
	if h := os.Getenv("MERLIN_HOME"); h != "" {
		return h
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		// Fall back to the working directory, matching LoadContext behavior.
		return ".merlin"
	}
	return filepath.Join(userHome, ".merlin")
}

// Init loads the application config and wires up log handlers. The log
// level comes from the command line and overrides log.level from app.conf.
// A missing config file is not an error; commands that need broker or
// results settings fail later with a pointer to `merlin config`.
func Init(level string) error {
	ctx, err := config.LoadContext(ConfigFileName, []string{HomeDir(), "."})
	if err == nil {
		Config = ctx
	} else {
		Config = config.NewContext()
	}

	if level == "" {
		level = Config.StringDefault("log.level", "info")
	}
	if err := logger.InitHandlers(level, HomeDir(), Config); err != nil {
		return fmt.Errorf("merlin: init logging: %w", err)
	}
	return nil
}
