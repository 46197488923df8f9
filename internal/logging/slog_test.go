package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufLogger(level slog.Level) (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	ctx := context.Background()
	l, buf := newBufLogger(slog.LevelDebug)

	l.Debug(ctx, "debug msg", "k", "v")
	l.Info(ctx, "info msg")
	l.Warn(ctx, "warn msg")
	l.Error(ctx, "error msg")

	out := buf.String()
	assert.Contains(t, out, "debug msg")
	assert.Contains(t, out, "info msg")
	assert.Contains(t, out, "warn msg")
	assert.Contains(t, out, "error msg")
	assert.Contains(t, out, "k=v")
}

func TestSlogLogger_With(t *testing.T) {
	ctx := context.Background()
	l, buf := newBufLogger(slog.LevelInfo)

	child := l.With("device", "dev-1")
	require.NotNil(t, child)
	child.Info(ctx, "hello")

	assert.Contains(t, buf.String(), "device=dev-1")
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	ctx := context.Background()
	l, buf := newBufLogger(slog.LevelInfo)

	l.Debug(ctx, "invisible")
	assert.NotContains(t, buf.String(), "invisible")
}
