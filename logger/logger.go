// Package logger provides the leveled, structured logging used across
// merlin. It is a thin layer over log15 so that handlers can be swapped
// per output (terminal, rotating files, json) from the app config.
package logger

import (
	"os"

	"github.com/go-stack/stack"
	"github.com/revel/log15"
)

// MultiLogger reduces the number of exposed logging variables and allows
// the output to be easily refined.
type MultiLogger interface {
	// New returns a new Logger that has this logger's context plus the given context.
	New(ctx ...interface{}) MultiLogger

	// SetHandler updates the logger to write records to the specified handler.
	SetHandler(h log15.Handler)

	// Log a message at the given level with context key/value pairs.
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})

	// Fatal logs the message as Crit and exits.
	Fatal(msg string, ctx ...interface{})
}

type merlinLogger struct {
	log15.Logger
}

// root is the shared parent of every logger handed out by New. Its
// handler starts as a discard handler; InitHandlers swaps in the real
// outputs, which all children pick up through log15's swap handler.
var root = func() log15.Logger {
	l := log15.New()
	l.SetHandler(log15.DiscardHandler())
	return l
}()

// New creates a logger with the given context, attached to the shared
// root so InitHandlers configures every module logger at once.
func New(ctx ...interface{}) MultiLogger {
	return &merlinLogger{root.New(ctx...)}
}

// SetRootHandler installs h on the shared root logger.
func SetRootHandler(h log15.Handler) {
	root.SetHandler(h)
}

// CallStack records the call stack of the caller as a context value,
// for logging unexpected panics:
//
//	merlin.AppLog.Crit("It all went wrong", "stack", logger.CallStack())
func CallStack() interface{} {
	return stack.Trace()
}

func (l *merlinLogger) New(ctx ...interface{}) MultiLogger {
	return &merlinLogger{l.Logger.New(ctx...)}
}

func (l *merlinLogger) Fatal(msg string, ctx ...interface{}) {
	l.Crit(msg, ctx...)
	os.Exit(1)
}
