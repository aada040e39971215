package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger is the component-scoped logging surface used across the launcher.
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

type ZerologAdapter struct {
	logger zerolog.Logger
	closer io.Closer
}

func NewZerolog(writer io.Writer, level zerolog.Level) *ZerologAdapter {
	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &ZerologAdapter{logger: logger}
}

func NewConsoleLogger(level zerolog.Level) *ZerologAdapter {
	return NewZerolog(consoleWriter(), level)
}

// NewFileLogger writes human-readable lines to stdout and JSON lines to
// logDir/launcher.log. The log file is truncated on every start.
func NewFileLogger(level zerolog.Level, logDir string) (*ZerologAdapter, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	file, err := os.Create(filepath.Join(logDir, "launcher.log"))
	if err != nil {
		return nil, err
	}

	adapter := NewZerolog(zerolog.MultiLevelWriter(consoleWriter(), file), level)
	adapter.closer = file
	return adapter, nil
}

// Nop discards everything.
func Nop() *ZerologAdapter {
	return &ZerologAdapter{logger: zerolog.Nop()}
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
		TimeFormat: "15:04:05",
	}
}

// ParseLevel maps LAUNCHER_LOG_LEVEL style names onto zerolog levels.
func ParseLevel(name string, debug bool) zerolog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	if debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func (z *ZerologAdapter) Info(component, message string, fields map[string]interface{}) {
	event := z.logger.Info().Str("component", component)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(message)
}

func (z *ZerologAdapter) Error(component string, err error, fields map[string]interface{}) {
	event := z.logger.Error().Str("component", component).Err(err)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg("operation failed")
}

func (z *ZerologAdapter) Warning(component, message string, fields map[string]interface{}) {
	event := z.logger.Warn().Str("component", component)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(message)
}

func (z *ZerologAdapter) Debug(component, message string, fields map[string]interface{}) {
	event := z.logger.Debug().Str("component", component)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(message)
}

// Close releases the log file, if any.
func (z *ZerologAdapter) Close() error {
	if z.closer == nil {
		return nil
	}
	return z.closer.Close()
}
