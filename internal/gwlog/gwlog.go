// Package gwlog is a small leveled logger writing RFC 5424 structured
// syslog lines, trimmed from a full ingestion-pipeline logger down to
// what a client library needs: no file rotation, no kernel/syslog relay.
package gwlog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
	Off
)

func (l Level) priority() rfc5424.Priority {
	switch l {
	case Debug:
		return rfc5424.User | rfc5424.Debug
	case Info:
		return rfc5424.User | rfc5424.Info
	case Warn:
		return rfc5424.User | rfc5424.Warning
	case Error:
		return rfc5424.User | rfc5424.Error
	default:
		return rfc5424.User | rfc5424.Debug
	}
}

const defaultID = `bfbc2-statsd@1`

// Logger writes leveled, RFC5424-framed log lines to an io.Writer.
type Logger struct {
	mu       sync.Mutex
	w        io.Writer
	lvl      Level
	hostname string
	appname  string
}

// New creates a Logger at the given level, writing to w.
func New(w io.Writer, lvl Level) *Logger {
	host, _ := os.Hostname()
	return &Logger{w: w, lvl: lvl, hostname: host, appname: "bfbc2-statsd"}
}

// NewDiscard returns a Logger that drops every line; used as the default
// when a caller doesn't supply one.
func NewDiscard() *Logger {
	return New(io.Discard, Off)
}

func (l *Logger) emit(lvl Level, msg string, sds ...rfc5424.SDParam) {
	if l == nil || lvl < l.lvl {
		return
	}
	m := rfc5424.Message{
		Priority:  lvl.priority(),
		Timestamp: time.Now(),
		Hostname:  l.hostname,
		AppName:   l.appname,
		Message:   []byte(msg),
	}
	if len(sds) > 0 {
		m.StructuredData = []rfc5424.StructuredData{{ID: defaultID, Parameters: sds}}
	}
	b, err := m.MarshalBinary()
	if err != nil {
		return
	}
	line := strings.TrimRight(string(b), "\n\t\r")

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, line)
	io.WriteString(l.w, "\n")
}

func (l *Logger) Debugf(f string, args ...interface{}) { l.emit(Debug, fmt.Sprintf(f, args...)) }
func (l *Logger) Infof(f string, args ...interface{})  { l.emit(Info, fmt.Sprintf(f, args...)) }
func (l *Logger) Warnf(f string, args ...interface{})  { l.emit(Warn, fmt.Sprintf(f, args...)) }
func (l *Logger) Errorf(f string, args ...interface{}) { l.emit(Error, fmt.Sprintf(f, args...)) }

// Debug/Info/Warn/Error log a message with structured RFC5424 parameters,
// e.g. l.Info("sent request", gwlog.KV("tid", 7)).
func (l *Logger) Debug(msg string, sds ...rfc5424.SDParam) { l.emit(Debug, msg, sds...) }
func (l *Logger) Info(msg string, sds ...rfc5424.SDParam)  { l.emit(Info, msg, sds...) }
func (l *Logger) Warn(msg string, sds ...rfc5424.SDParam)  { l.emit(Warn, msg, sds...) }
func (l *Logger) Error(msg string, sds ...rfc5424.SDParam) { l.emit(Error, msg, sds...) }

// KV builds a structured log field.
func KV(name string, value interface{}) rfc5424.SDParam {
	if s, ok := value.(string); ok {
		return rfc5424.SDParam{Name: name, Value: s}
	}
	return rfc5424.SDParam{Name: name, Value: fmt.Sprintf("%v", value)}
}

// KVErr builds the structured "error" field logged alongside a failure.
func KVErr(err error) rfc5424.SDParam {
	return KV("error", err)
}
