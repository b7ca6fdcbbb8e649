package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger is the minimal surface the resolver and store log against.
// Messages take trailing key/value pairs, e.g. Debug("read file", "path", p).
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Error(msg string, kv ...any)
}

var Enabled = true

type DefaultLogger struct {
	name string
	out  *log.Logger
}

func NewDefaultLogger(name string) *DefaultLogger {
	return &DefaultLogger{
		name: name,
		out:  log.New(os.Stderr, "", log.LstdFlags),
	}
}

// NewWriterLogger directs output at w, mostly useful in tests.
func NewWriterLogger(name string, w io.Writer) *DefaultLogger {
	return &DefaultLogger{
		name: name,
		out:  log.New(w, "", log.LstdFlags),
	}
}

func (d *DefaultLogger) Debug(msg string, kv ...any) { d.printf("DEBUG", msg, kv...) }
func (d *DefaultLogger) Info(msg string, kv ...any)  { d.printf("INFO", msg, kv...) }
func (d *DefaultLogger) Error(msg string, kv ...any) { d.printf("ERROR", msg, kv...) }

func (d *DefaultLogger) printf(level, msg string, kv ...any) {
	if !Enabled {
		return
	}
	d.out.Printf("[%s] %s | %s%s", level, d.name, msg, formatPairs(kv))
}

func formatPairs(kv []any) string {
	if len(kv) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(kv); i += 2 {
		if i+1 < len(kv) {
			fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
		} else {
			fmt.Fprintf(&b, " %v", kv[i])
		}
	}
	return b.String()
}

// Noop discards everything.
type Noop struct{}

func (Noop) Debug(string, ...any) {}
func (Noop) Info(string, ...any)  {}
func (Noop) Error(string, ...any) {}
