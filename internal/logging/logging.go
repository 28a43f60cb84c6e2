// Package logging adapts zerolog to the hexo.Logger interface.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Logger implements hexo.Logger on top of a zerolog.Logger.
type Logger struct {
	logger zerolog.Logger
}

// Options configures New.
type Options struct {
	// Out is the destination; os.Stderr when nil.
	Out io.Writer
	// Verbose enables debug output.
	Verbose bool
	// Console forces human-readable output. By default it is used only
	// when Out is a terminal.
	Console *bool
	// NoColor disables ANSI colors in console output.
	NoColor bool
}

// New creates a logger. Output is JSON unless it goes to a terminal.
func New(opts Options) *Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	console := isTerminal(out)
	if opts.Console != nil {
		console = *opts.Console
	}

	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: opts.NoColor}
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	return &Logger{
		logger: zerolog.New(out).Level(level).With().Timestamp().Logger(),
	}
}

// Zerolog exposes the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.logger
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}

func isTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(file.Fd())) //nolint:gosec
}
