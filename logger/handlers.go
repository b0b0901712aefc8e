package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	colorable "github.com/mattn/go-colorable"
	"github.com/revel/config"
	"github.com/revel/log15"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var toLevel = map[string]log15.Lvl{
	"debug": log15.LvlDebug, "trace": log15.LvlDebug,
	"info": log15.LvlInfo, "warn": log15.LvlWarn, "warning": log15.LvlWarn,
	"error": log15.LvlError, "crit": log15.LvlCrit,
}

// LevelFromString maps a CLI / config level name onto a log15 level.
func LevelFromString(level string) (log15.Lvl, error) {
	lvl, ok := toLevel[strings.ToLower(level)]
	if !ok {
		return log15.LvlInfo, fmt.Errorf("unknown log level '%s' (options: debug, info, warn, error, crit)", level)
	}
	return lvl, nil
}

// InitHandlers installs the output handlers on the shared root logger,
// lighting up every module logger at once. The default output is a
// colored terminal stream on stderr filtered at the given level;
// log.output in app.conf can redirect it to a file.
func InitHandlers(level, basePath string, cfg *config.Context) error {
	lvl, err := LevelFromString(level)
	if err != nil {
		return err
	}
	output := "stderr"
	if cfg != nil {
		output = cfg.StringDefault("log.output", "stderr")
	}
	h := HandlerFor(output, basePath, cfg)
	if h == nil {
		SetRootHandler(log15.DiscardHandler())
		return nil
	}
	SetRootHandler(log15.LvlFilterHandler(lvl, h))
	return nil
}

// HandlerFor returns a handler for the output string. Accepted formats are
// `off` `stdout` `stderr` `full/file/path/to/location/app.log`
// `full/file/path/to/location/app.json`.
func HandlerFor(output, basePath string, cfg *config.Context) log15.Handler {
	noColor := false
	maxSize := 1024 * 10
	maxAge := 14
	if cfg != nil {
		noColor = !cfg.BoolDefault("log.colorize", true)
		maxSize = cfg.IntDefault("log.maxsize", 1024*10)
		maxAge = cfg.IntDefault("log.maxage", 14)
	}

	switch strings.TrimSpace(output) {
	case "", "off":
		// No handler, discard data.
		return nil
	case "stdout":
		return log15.StreamHandler(colorable.NewColorableStdout(), TerminalFormat(noColor, true))
	case "stderr":
		return log15.StreamHandler(colorable.NewColorableStderr(), TerminalFormat(noColor, true))
	default:
		if !filepath.IsAbs(output) {
			output = filepath.Join(basePath, output)
		}
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			panic(err)
		}

		logger := &lumberjack.Logger{
			Filename: output,
			MaxSize:  maxSize, // megabytes
			MaxAge:   maxAge,  // days
		}
		// File names ending in json log in json format.
		if strings.HasSuffix(output, "json") {
			return log15.StreamHandler(logger, log15.JsonFormatEx(false, true))
		}
		return log15.StreamHandler(logger, TerminalFormat(true, false))
	}
}

// FileHandler returns a rotating file handler, used for per worker logs.
func FileHandler(path string, maxSizeMB, maxAgeDays int) log15.Handler {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		panic(err)
	}
	return log15.StreamHandler(&lumberjack.Logger{
		Filename: path,
		MaxSize:  maxSizeMB,
		MaxAge:   maxAgeDays,
	}, TerminalFormat(true, false))
}
