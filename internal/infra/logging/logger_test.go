package logging

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	context_ "github.com/onlineexam/examsvc/internal/infra/context"
)

func TestConsoleHandler_PkgLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	//nolint:exhaustruct
	handler := &ConsoleHandler{
		Output: &buf,
		Level:  LevelDebug,
		PkgLevels: map[string]slog.Level{
			"repo":              LevelWarn,
			"repo.user.special": LevelDebug,
		},
	}

	ctx := context.Background()

	slog.New(handler).With("logger", "repo.user.sqlite").InfoContext(ctx, "filtered")
	assert.Empty(t, buf.String())

	slog.New(handler).With("logger", "repo.user.sqlite").WarnContext(ctx, "kept")
	assert.Contains(t, buf.String(), "kept")

	buf.Reset()
	slog.New(handler).With("logger", "repo.user.special").DebugContext(ctx, "specific wins")
	assert.Contains(t, buf.String(), "specific wins")

	buf.Reset()
	slog.New(handler).With("logger", "svc.examsvc").DebugContext(ctx, "unfiltered", "user", "alice")
	assert.Contains(t, buf.String(), "unfiltered")
	assert.Contains(t, buf.String(), "user=")
}

func TestConsoleHandler_Groups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	//nolint:exhaustruct
	logger := slog.New(&ConsoleHandler{Output: &buf, Level: LevelDebug})
	logger.With(Group("http", "method", "POST")).Info("request")

	assert.Contains(t, buf.String(), "http.method=")
}

func TestTracingHandler_AddsTraceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(NewTracingHandler(slog.NewJSONHandler(&buf, nil)))
	ctx := context_.WithTraceID(context.Background(), "req-42")

	logger.InfoContext(ctx, "hello")

	assert.Contains(t, buf.String(), `"trace":{"id":"req-42"}`)
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, LevelWarn, parseLogLevel(" WARN ", LevelInfo))
	assert.Equal(t, LevelInfo, parseLogLevel("verbose", LevelInfo))
}

func TestLoggerConfig_GetPkgLevels(t *testing.T) {
	t.Parallel()

	//nolint:exhaustruct
	cfg := LoggerConfig{Filter: "repo:warn, svc.examsvc:debug,broken"}

	assert.Equal(t, map[string]slog.Level{
		"repo":        LevelWarn,
		"svc.examsvc": LevelDebug,
	}, cfg.getPkgLevels())
}

func TestConfigure(t *testing.T) {
	t.Cleanup(func() {
		//nolint:exhaustruct
		_ = Configure(context.Background(), LoggerConfig{Output: "discard"}, "")
	})

	var buf bytes.Buffer

	//nolint:exhaustruct
	err := Configure(context.Background(), LoggerConfig{
		Level:        "info",
		Filter:       "repo:warn",
		OutputHandle: &buf,
	}, "exam.examsvc")
	require.NoError(t, err)

	GetLogger("svc.examsvc.user_service").Info("user registered")
	assert.Contains(t, buf.String(), "user registered")
	assert.Contains(t, buf.String(), "exam.examsvc")
	assert.Contains(t, buf.String(), "svc.examsvc.user_service")

	buf.Reset()
	GetLogger("repo.user.sqlite_user_repository").Info("filtered")
	GetLogger("svc.examsvc.user_service").Debug("below level")
	assert.Empty(t, buf.String())

	//nolint:exhaustruct
	require.NoError(t, Configure(context.Background(), LoggerConfig{Output: "discard"}, "exam.examsvc"))

	GetLogger("svc.examsvc.user_service").Error("discarded")
	assert.Empty(t, buf.String())
}

func TestConfigure_BadOutputPath(t *testing.T) {
	t.Parallel()

	//nolint:exhaustruct
	err := Configure(context.Background(), LoggerConfig{
		Output: filepath.Join(t.TempDir(), "missing", "examsvc.log"),
	}, "exam.examsvc")
	assert.Error(t, err)
}
