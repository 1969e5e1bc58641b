// Package observers provides observers for monitoring state machine lifecycle steps
package observers

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/anggasct/kfluo/pkg/core"
)

// LogLevel represents the logging level
type LogLevel int

const (
	// LogError logs only errors
	LogError LogLevel = iota
	// LogWarning logs errors and warnings
	LogWarning
	// LogInfo logs errors, warnings, and info
	LogInfo
	// LogDebug logs errors, warnings, info, and debug
	LogDebug
)

// ParseLogLevel converts a configuration value into a LogLevel
func ParseLogLevel(name string) (LogLevel, error) {
	switch strings.ToLower(name) {
	case "error":
		return LogError, nil
	case "warn", "warning":
		return LogWarning, nil
	case "", "info":
		return LogInfo, nil
	case "debug":
		return LogDebug, nil
	default:
		return LogInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// LoggingObserver logs state machine events
type LoggingObserver struct {
	level     LogLevel
	prefix    string
	out       io.Writer
	mutex     sync.RWMutex
	formatter LogFormatter
}

// LogFormatter formats log messages
type LogFormatter func(level LogLevel, format string, args ...interface{}) string

// DefaultLogFormatter provides default log formatting
func DefaultLogFormatter(level LogLevel, format string, args ...interface{}) string {
	levelStr := "INFO"
	switch level {
	case LogError:
		levelStr = "ERROR"
	case LogWarning:
		levelStr = "WARN"
	case LogInfo:
		levelStr = "INFO"
	case LogDebug:
		levelStr = "DEBUG"
	}

	return fmt.Sprintf("[%s] %s", levelStr, fmt.Sprintf(format, args...))
}

// NewLoggingObserver creates a new logging observer writing to stdout
func NewLoggingObserver(level LogLevel, prefix string) *LoggingObserver {
	return &LoggingObserver{
		level:     level,
		prefix:    prefix,
		out:       os.Stdout,
		formatter: DefaultLogFormatter,
	}
}

// SetFormatter sets the log formatter
func (o *LoggingObserver) SetFormatter(formatter LogFormatter) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.formatter = formatter
}

// SetOutput sets the destination of log lines
func (o *LoggingObserver) SetOutput(out io.Writer) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.out = out
}

// log logs a message at the specified level
func (o *LoggingObserver) log(level LogLevel, format string, args ...interface{}) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if level > o.level || o.out == nil {
		return
	}

	prefix := ""
	if o.prefix != "" {
		prefix = fmt.Sprintf("[%s] ", o.prefix)
	}

	message := ""
	if o.formatter != nil {
		message = o.formatter(level, format, args...)
	} else {
		message = fmt.Sprintf(format, args...)
	}

	fmt.Fprintf(o.out, "%s%s\n", prefix, message)
}

// OnStateEnter logs state entry
func (o *LoggingObserver) OnStateEnter(sm *core.StateMachine, state core.State) {
	o.log(LogInfo, "Entering %s state: %s", state.Kind(), state.Name())
}

// OnStateExit logs state exit
func (o *LoggingObserver) OnStateExit(sm *core.StateMachine, state core.State) {
	o.log(LogInfo, "Exiting %s state: %s", state.Kind(), state.Name())
}

// OnTargetResolved logs one hop of a pseudostate resolution
func (o *LoggingObserver) OnTargetResolved(sm *core.StateMachine, pseudo core.State, target core.State) {
	o.log(LogDebug, "%s resolved to %s", pseudo.Name(), target.Name())
}

// OnError logs errors
func (o *LoggingObserver) OnError(sm *core.StateMachine, err error) {
	o.log(LogError, "Error: %v", err)
}
