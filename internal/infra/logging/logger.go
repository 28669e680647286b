package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Constants for log levels that match slog.Level values.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Type aliases for commonly used slog types.
type (
	Logger  = *slog.Logger
	Handler = slog.Handler
	Level   = slog.Level
)

//nolint:gochecknoglobals
var logLevelStrToLevel = map[string]Level{
	"debug": LevelDebug,
	"info":  LevelInfo,
	"warn":  LevelWarn,
	"error": LevelError,
}

// LoggerConfig holds configuration parameters for logging.
type LoggerConfig struct {
	// Output specifies where logs are written ("stdout", "stderr", "discard" or a file path)
	Output string `env:"OUTPUT" envDefault:"stderr"`

	// Level sets the minimum log level ("debug", "info", "warn", "error")
	Level string `env:"LEVEL" envDefault:"info"`

	// Filter overrides the level per logger name prefix ("repo:warn,svc.examsvc:debug")
	Filter string `env:"FILTER" envDefault:""`

	// JSON enables JSON-formatted output instead of human-readable console output
	JSON bool `env:"JSON" envDefault:"false"`

	// OutputHandle takes precedence over Output when set
	OutputHandle io.Writer
}

//nolint:gochecknoglobals
var (
	Group = slog.Group

	// root is the handler all named loggers derive from; nil discards.
	root       slog.Handler
	rootCloser io.Closer
	rootLock   sync.RWMutex
)

// Configure builds the process-wide log handler. Every record carries
// app=appName, and GetLogger adds the logger name. Loggers obtained before
// Configure discard their output; calling it again replaces the handler for
// loggers obtained afterwards.
func Configure(ctx context.Context, cfg LoggerConfig, appName string) error {
	output, closer, err := openOutput(cfg)
	if err != nil {
		return fmt.Errorf("open log output: %w", err)
	}

	level := parseLogLevel(cfg.Level, LevelInfo)
	handler := newRootHandler(cfg, output, level, appName)

	rootLock.Lock()
	prevCloser := rootCloser
	root, rootCloser = handler, closer
	rootLock.Unlock()

	if prevCloser != nil {
		_ = prevCloser.Close()
	}

	slog.SetLogLoggerLevel(level)

	GetLogger("infra.logging").With(Group("config",
		"app", appName,
		"output", cfg.Output,
		"level", level.String(),
		"filter", cfg.Filter,
		"json", cfg.JSON,
	)).DebugContext(ctx, "logging configured")

	return nil
}

func openOutput(cfg LoggerConfig) (io.Writer, io.Closer, error) {
	if cfg.OutputHandle != nil {
		return cfg.OutputHandle, nil, nil
	}

	switch cfg.Output {
	case "", "discard":
		return io.Discard, nil, nil
	case "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open file: %w", err)
		}

		return file, file, nil
	}
}

func newRootHandler(cfg LoggerConfig, output io.Writer, level Level, appName string) slog.Handler {
	if output == io.Discard {
		return nil
	}

	var handler slog.Handler

	if cfg.JSON {
		//nolint:exhaustruct
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		})
	} else {
		//nolint:exhaustruct
		handler = &ConsoleHandler{
			Output:    output,
			Level:     level,
			PkgLevels: cfg.getPkgLevels(),
		}
	}

	handler = NewTracingHandler(handler)

	if appName != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("app", appName)})
	}

	return handler
}

// GetLogLogger creates a standard library *log.Logger that writes through a slog.Logger.
// http.Server.ErrorLog is the main consumer.
func GetLogLogger(logger Logger, level Level) *log.Logger {
	handler := logger.With("stdlog", true).Handler()

	return slog.NewLogLogger(handler, level)
}

// GetLogger returns a logger named after the dotted component path, e.g.
// "repo.user.sqlite_user_repository". Filter prefixes match against this name.
func GetLogger(name string) Logger {
	rootLock.RLock()
	handler := root
	rootLock.RUnlock()

	if handler == nil {
		return NewNopLogger()
	}

	return slog.New(handler).With("logger", name)
}

// NewNopLogger creates a logger that discards all output.
func NewNopLogger() Logger {
	return slog.New(slog.DiscardHandler)
}

func (cfg LoggerConfig) getPkgLevels() map[string]slog.Level {
	levels := make(map[string]slog.Level)

	for _, pkgLevel := range strings.Split(cfg.Filter, ",") {
		name, level, ok := strings.Cut(pkgLevel, ":")
		if !ok {
			continue
		}

		levels[strings.TrimSpace(name)] = parseLogLevel(level, LevelDebug)
	}

	return levels
}

func parseLogLevel(levelStr string, fallback Level) Level {
	level, ok := logLevelStrToLevel[strings.ToLower(strings.TrimSpace(levelStr))]
	if !ok {
		return fallback
	}

	return level
}
