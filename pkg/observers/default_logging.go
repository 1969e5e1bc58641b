package observers

import (
	"github.com/anggasct/kfluo/pkg/config"
)

// NewDefaultLoggingObserver creates a logging observer with default settings (LogInfo level)
func NewDefaultLoggingObserver() *LoggingObserver {
	return NewLoggingObserver(LogInfo, "StateMachine")
}

// NewLoggingObserverFromOptions creates a logging observer from loaded options
func NewLoggingObserverFromOptions(opts config.Options) (*LoggingObserver, error) {
	level, err := ParseLogLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	return NewLoggingObserver(level, opts.LogPrefix), nil
}
