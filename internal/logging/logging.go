package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	globallog "github.com/rs/zerolog/log"
)

// ConfigureGlobalLogger sets up the zerolog global logger instance.
// With an empty logFilePath, human-readable logs go to stderr at info level
// (debug with isVerbose). Otherwise JSON is appended to logFilePath at debug
// level, which is what background uploads use.
func ConfigureGlobalLogger(isVerbose bool, logFilePath string) (io.Closer, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	logLevel := zerolog.InfoLevel
	if isVerbose {
		logLevel = zerolog.DebugLevel
	}

	if logFilePath == "" {
		globallog.Logger = zerolog.New(ConsoleWriter(os.Stderr)).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(logLevel)
		globallog.Debug().Msgf("Console log level set to: %s", logLevel)
		return io.NopCloser(nil), nil
	}

	dir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}
	fileHandle, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %q: %w", logFilePath, err)
	}

	globallog.Logger = zerolog.New(fileHandle).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	globallog.Debug().Msgf("Configured file logging (JSON format) to: %s", logFilePath)
	return fileHandle, nil
}

// ConsoleWriter renders "[LEVEL] message" lines without quoting.
func ConsoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i any) string {
			if level, ok := i.(string); ok {
				return strings.ToUpper(fmt.Sprintf("[%s]", level))
			}
			return fmt.Sprintf("[%v]", i)
		},
		FormatMessage: func(i any) string {
			if msg, ok := i.(string); ok {
				return msg
			}
			return fmt.Sprintf("%v", i)
		},
	}
}
