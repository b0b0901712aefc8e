package logger

import (
	"fmt"
	"strings"
	"testing"

	"github.com/revel/log15"
	"github.com/stretchr/testify/assert"
)

func TestLevelFromString(t *testing.T) {
	lvl, err := LevelFromString("DEBUG")
	assert.NoError(t, err)
	assert.Equal(t, log15.LvlDebug, lvl)

	lvl, err = LevelFromString("warn")
	assert.NoError(t, err)
	assert.Equal(t, log15.LvlWarn, lvl)

	_, err = LevelFromString("chatty")
	assert.Error(t, err)
}

// The terminal format should carry the message and every context pair.
func TestTerminalFormat(t *testing.T) {
	var captured []byte
	l := New("module", "test")
	l.SetHandler(log15.FuncHandler(func(r *log15.Record) error {
		captured = TerminalFormat(true, true).Format(r)
		return nil
	}))

	l.Info("queue ready", "queue", "merlin", "tasks", 3)
	out := string(captured)
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "queue ready")
	assert.Contains(t, out, "queue=merlin")
	assert.Contains(t, out, "tasks=3")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

// The record's call site must render as file.go:line so terminal lines
// point back at the caller.
func TestTerminalFormatRendersCallSite(t *testing.T) {
	var captured []byte
	l := New("module", "test")
	l.SetHandler(log15.FuncHandler(func(r *log15.Record) error {
		captured = TerminalFormat(true, true).Format(r)
		return nil
	}))

	l.Info("call site check")
	assert.Contains(t, string(captured), "logger_test.go:")
}

func TestCallStack(t *testing.T) {
	trace := fmt.Sprintf("%+v", CallStack())
	assert.Contains(t, trace, "logger_test.go")
}

func TestEscapeString(t *testing.T) {
	assert.Equal(t, "plain", escapeString("plain"))
	assert.Equal(t, `"two words"`, escapeString("two words"))
	assert.Equal(t, `"a\nb"`, escapeString("a\nb"))
}

func TestRootHandlerReachesModuleLoggers(t *testing.T) {
	existing := New("module", "existing")
	var count int
	SetRootHandler(log15.FuncHandler(func(r *log15.Record) error {
		count++
		return nil
	}))
	defer SetRootHandler(log15.DiscardHandler())

	existing.Info("created before the handler")
	created := New("module", "created")
	created.Info("created after the handler")
	assert.Equal(t, 2, count)
}

func TestChildLoggerKeepsContext(t *testing.T) {
	var got *log15.Record
	root := New("module", "merlin")
	root.SetHandler(log15.FuncHandler(func(r *log15.Record) error {
		got = r
		return nil
	}))

	child := root.New("worker", "w-1234")
	child.Warn("retrying step")
	assert.NotNil(t, got)
	assert.Contains(t, got.Ctx, "worker")
	assert.Contains(t, got.Ctx, "w-1234")
}
