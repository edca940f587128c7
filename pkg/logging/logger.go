// Package logging provides component-scoped diagnostic logging for the
// browserbase MCP server.
//
// Log lines never go to stdout: the stdio transport owns stdout for protocol
// frames. By default every logger of a process appends to
// ~/.browserbase-mcp/logs/<process-id>.log and mirrors to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a component-tagged logger backed by zap.
//
// All log methods are safe for concurrent use. Children created with With
// share the parent's output and level.
type Logger struct {
	processID string
	component string
	sugar     *zap.SugaredLogger
	level     zap.AtomicLevel
	file      *os.File
	logPath   string
	closeOnce *sync.Once
}

var (
	processID     string
	processIDOnce sync.Once

	logDir   string
	initOnce sync.Once
	initErr  error
)

func getProcessID() string {
	processIDOnce.Do(func() {
		processID = uuid.New().String()
	})
	return processID
}

func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir != "" {
			initErr = os.MkdirAll(logDir, 0o750)
			return
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get home directory: %w", err)
			return
		}
		logDir = filepath.Join(homeDir, ".browserbase-mcp", "logs")
		if err := os.MkdirAll(logDir, 0o750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
		}
	})
	return initErr
}

type options struct {
	level  string
	output io.Writer
	stderr bool
}

// Option configures a Logger.
type Option func(*options)

// WithLevel sets the minimum level ("debug", "info", "warn", "error").
func WithLevel(level string) Option {
	return func(o *options) { o.level = level }
}

// WithOutput writes to w instead of the log file. Used by tests and by
// callers that want log lines in a buffer.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithStderr mirrors file output to stderr.
func WithStderr(enabled bool) Option {
	return func(o *options) { o.stderr = enabled }
}

// NewLogger creates a logger for a component.
//
// If the log directory or file cannot be opened, it returns a logger that
// writes to stderr along with the error, so callers can warn and continue.
func NewLogger(component string, opts ...Option) (*Logger, error) {
	o := options{level: "info", stderr: true}
	for _, opt := range opts {
		opt(&o)
	}

	level, err := parseLevel(o.level)
	if err != nil {
		return newLogger(component, level, zapcore.AddSync(os.Stderr), nil, ""), err
	}

	if o.output != nil {
		return newLogger(component, level, zapcore.AddSync(o.output), nil, ""), nil
	}

	if err := initLogDirectory(); err != nil {
		return newLogger(component, level, zapcore.AddSync(os.Stderr), nil, ""), err
	}

	logPath := filepath.Join(logDir, getProcessID()+".log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return newLogger(component, level, zapcore.AddSync(os.Stderr), nil, ""),
			fmt.Errorf("failed to open log file: %w", err)
	}

	sink := zapcore.AddSync(file)
	if o.stderr {
		sink = zapcore.NewMultiWriteSyncer(sink, zapcore.AddSync(os.Stderr))
	}
	return newLogger(component, level, sink, file, logPath), nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{
		processID: getProcessID(),
		sugar:     zap.NewNop().Sugar(),
		level:     zap.NewAtomicLevel(),
		closeOnce: &sync.Once{},
	}
}

func newLogger(component string, level zap.AtomicLevel, sink zapcore.WriteSyncer, file *os.File, logPath string) *Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), sink, level)

	base := zap.New(core)
	if component != "" {
		base = base.Named(component)
	}

	return &Logger{
		processID: getProcessID(),
		component: component,
		sugar:     base.Sugar(),
		level:     level,
		file:      file,
		logPath:   logPath,
		closeOnce: &sync.Once{},
	}
}

func parseLevel(s string) (zap.AtomicLevel, error) {
	if s == "" {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return zap.NewAtomicLevelAt(lvl), nil
}

// With returns a child logger tagged with a sub-component name.
func (l *Logger) With(component string) *Logger {
	child := *l
	child.sugar = l.sugar.Named(component)
	if l.component == "" {
		child.component = component
	} else {
		child.component = l.component + "." + component
	}
	return &child
}

// Debugf logs a debug-level message.
func (l *Logger) Debugf(format string, v ...any) { l.sugar.Debugf(format, v...) }

// Infof logs an info-level message.
func (l *Logger) Infof(format string, v ...any) { l.sugar.Infof(format, v...) }

// Printf is an alias of Infof so the logger can stand in for log.Printf.
func (l *Logger) Printf(format string, v ...any) { l.sugar.Infof(format, v...) }

// Warnf logs a warning-level message.
func (l *Logger) Warnf(format string, v ...any) { l.sugar.Warnf(format, v...) }

// Errorf logs an error-level message.
func (l *Logger) Errorf(format string, v ...any) { l.sugar.Errorf(format, v...) }

// SetLevel changes the minimum level for this logger and all its children.
func (l *Logger) SetLevel(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.level.SetLevel(lvl)
	return nil
}

// Writer returns the file the logger appends to, or stderr.
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return os.Stderr
}

// ProcessID returns the id shared by every logger of this process.
func (l *Logger) ProcessID() string { return l.processID }

// Component returns the logger's component tag.
func (l *Logger) Component() string { return l.component }

// LogPath returns the path of the log file, empty when not file-backed.
func (l *Logger) LogPath() string { return l.logPath }

// Close flushes and closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		_ = l.sugar.Sync()
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetLogDirectory returns the directory where logs are stored.
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
