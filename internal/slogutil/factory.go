package slogutil

import (
	"io"
	"log/slog"

	"javaseeker/internal/config"
	"javaseeker/internal/paths"
)

// LoggerFactory creates loggers for the long-running subsystems (lifecycle,
// api, mcp). Each subsystem writes to <base>/logs/<subsystem>.log, rotated by
// size, optionally teed to a console writer.
// Level precedence: CLI flag > config > info.
type LoggerFactory struct {
	base     string
	config   *config.Config
	cliLevel *slog.Level
	console  io.Writer
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory. cliLevel is nil when no CLI
// override was given; console is nil when logs should only go to files.
func NewLoggerFactory(base string, cfg *config.Config, cliLevel *slog.Level, console io.Writer) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{
		base:     base,
		config:   cfg,
		cliLevel: cliLevel,
		console:  console,
	}
}

// Logger returns the logger for subsystem. When the log file cannot be opened
// the console (or a discard logger) is used instead.
func (f *LoggerFactory) Logger(subsystem string) *slog.Logger {
	level := f.effectiveLevel()
	format := f.config.Logging.Format

	var handlers []slog.Handler
	if f.console != nil {
		handlers = append(handlers, NewHandler(f.console, format, level))
	}

	if f.base != "" {
		if _, err := paths.EnsureDir(paths.LogsDir(f.base)); err == nil {
			if w, err := f.openFile(paths.LogPath(f.base, subsystem)); err == nil {
				f.closers = append(f.closers, w)
				handlers = append(handlers, NewHandler(w, format, level))
			}
		}
	}

	switch len(handlers) {
	case 0:
		return NewDiscardLogger()
	case 1:
		return slog.New(handlers[0]).With("subsystem", subsystem)
	default:
		return slog.New(NewTeeHandler(handlers...)).With("subsystem", subsystem)
	}
}

func (f *LoggerFactory) openFile(path string) (io.WriteCloser, error) {
	size := ParseSize(f.config.Logging.MaxSize)
	return OpenRotatingFile(path, size, f.config.Logging.MaxBackups)
}

func (f *LoggerFactory) effectiveLevel() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelInfo
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
