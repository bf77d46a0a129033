package log

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/YuminosukeSato/netsecml/pkg/errors"
)

// Output formats accepted by Configure.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatCloud   = "cloud"
)

var (
	providerMu     sync.RWMutex
	globalProvider LoggerProvider = NewZerologProvider(slog.LevelInfo)
)

// SetProvider replaces the process-wide provider and routes warnings raised
// through pkg/errors.Warn to it.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	globalProvider = p
	providerMu.Unlock()

	warnLogger := p.GetLoggerWithName("warnings")
	errors.SetZerologWarnFunc(func(w error) {
		warnLogger.Warn(w.Error(), ErrorTypeKey, fmt.Sprintf("%T", w))
	})
}

// GetProvider returns the process-wide provider.
func GetProvider() LoggerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return globalProvider
}

// GetLogger returns the default logger of the process-wide provider.
func GetLogger() Logger {
	return GetProvider().GetLogger()
}

// GetLoggerWithName returns a component logger of the process-wide provider.
func GetLoggerWithName(name string) Logger {
	return GetProvider().GetLoggerWithName(name)
}

// Configure builds a provider for the given level and format and installs it.
// "cloud" also makes the Cloud Logging handler the slog default.
func Configure(w io.Writer, level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return errors.NewValidationError("log.level", err.Error(), level)
	}

	var p LoggerProvider
	switch format {
	case FormatJSON, "":
		p = NewZerologProviderWithWriter(w, lvl, false)
	case FormatConsole:
		p = NewZerologProviderWithWriter(w, lvl, true)
	case FormatCloud:
		if err := SetupLogger(w, level); err != nil {
			return err
		}
		p = NewSlogProvider(w, lvl)
	default:
		return errors.NewValidationError("log.format", "must be one of json, console, cloud", format)
	}
	SetProvider(p)
	return nil
}
