package logger

import (
	"bytes"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/revel/log15"
	stack "gopkg.in/stack.v0"
)

const (
	termTimeFormat      = "2006/01/02 15:04:05"
	termSmallTimeFormat = "15:04:05"
	floatFormat         = 'f'
)

var levelString = map[log15.Lvl]string{log15.LvlDebug: "DEBUG",
	log15.LvlInfo: "INFO", log15.LvlWarn: "WARN", log15.LvlError: "ERROR", log15.LvlCrit: "CRIT"}

// TerminalFormat outputs records in a format like
// INFO  09:11:32 generator.go:169: Copying example files name=optimization
func TerminalFormat(noColor bool, smallDate bool) log15.Format {
	dateFormat := termTimeFormat
	if smallDate {
		dateFormat = termSmallTimeFormat
	}
	return log15.FormatFunc(func(r *log15.Record) []byte {
		// Bash coloring http://misc.flogisoft.com/bash/tip_colors_and_formatting
		var color = 0
		switch r.Lvl {
		case log15.LvlCrit:
			color = 35
		case log15.LvlError:
			color = 31
		case log15.LvlWarn:
			color = 33
		case log15.LvlInfo:
			color = 32
		case log15.LvlDebug:
			color = 36
		}

		b := &bytes.Buffer{}
		caller := callSite(r.Call)
		if !noColor && color > 0 {
			fmt.Fprintf(b, "\x1b[%dm%-5s\x1b[0m %s %13s: %s", color, levelString[r.Lvl], r.Time.Format(dateFormat), caller, r.Msg)
		} else {
			fmt.Fprintf(b, "%-5s %s %13s: %s", levelString[r.Lvl], r.Time.Format(dateFormat), caller, r.Msg)
		}

		for i := 0; i < len(r.Ctx); i += 2 {
			k, ok := r.Ctx[i].(string)
			if !ok {
				k = fmt.Sprint(r.Ctx[i])
			}
			var v string
			if i+1 < len(r.Ctx) {
				v = formatLogfmtValue(r.Ctx[i+1])
			}
			if !noColor && color > 0 {
				fmt.Fprintf(b, " \x1b[%dm%s\x1b[0m=%s", color, k, v)
			} else {
				b.WriteByte(' ')
				b.WriteString(k)
				b.WriteByte('=')
				b.WriteString(v)
			}
		}

		b.WriteByte('\n')
		return b.Bytes()
	})
}

// callSite renders the record's call site as file.go:line.
func callSite(c stack.Call) string {
	return fmt.Sprintf("%v", c)
}

// formatLogfmtValue formats a value for serialization.
func formatLogfmtValue(value interface{}) string {
	if value == nil {
		return "nil"
	}

	if t, ok := value.(time.Time); ok {
		// No need for escaping, the time format has no escape characters.
		return t.Format(termTimeFormat)
	}
	value = formatShared(value)
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case float32:
		return strconv.FormatFloat(float64(v), floatFormat, 3, 64)
	case float64:
		return strconv.FormatFloat(v, floatFormat, 7, 64)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", value)
	case string:
		return escapeString(v)
	default:
		return escapeString(fmt.Sprintf("%+v", value))
	}
}

func formatShared(value interface{}) interface{} {
	switch v := value.(type) {
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return v
	}
}

// A reusable buffer for outputting data.
var stringBufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// Escape the string when needed.
func escapeString(s string) string {
	needsQuotes := false
	needsEscape := false
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			needsQuotes = true
		}
		if r == '\\' || r == '"' || r == '\n' || r == '\r' || r == '\t' {
			needsEscape = true
		}
	}
	if !needsEscape && !needsQuotes {
		return s
	}
	e := stringBufPool.Get().(*bytes.Buffer)
	e.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\', '"':
			e.WriteByte('\\')
			e.WriteByte(byte(r))
		case '\n':
			e.WriteString("\\n")
		case '\r':
			e.WriteString("\\r")
		case '\t':
			e.WriteString("\\t")
		default:
			e.WriteRune(r)
		}
	}
	e.WriteByte('"')
	var ret string
	if needsQuotes {
		ret = e.String()
	} else {
		ret = string(e.Bytes()[1 : e.Len()-1])
	}
	e.Reset()
	stringBufPool.Put(e)
	return ret
}
