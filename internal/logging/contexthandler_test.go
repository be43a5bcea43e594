package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextHandler_EvaluatesPerRecord(t *testing.T) {
	var buf bytes.Buffer
	count := 0
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		count++
		return []slog.Attr{slog.Int("n", count)}
	})
	logger := slog.New(h)

	logger.Info("first")
	logger.Info("second")

	assert.Contains(t, buf.String(), "msg=first n=1")
	assert.Contains(t, buf.String(), "msg=second n=2")
}

func TestContextHandler_NilProvider(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewTextHandler(&buf, nil), nil))
	logger.Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}

func TestContextHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		return []slog.Attr{slog.String("dyn", "x")}
	})

	assert.Same(t, h, h.WithGroup(""))
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))

	slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "stream")})).Info("attrs")
	assert.Contains(t, buf.String(), "component=stream")
	assert.Contains(t, buf.String(), "dyn=x")
}

func TestContextHandler_RequestAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		return []slog.Attr{slog.Int("activeSessions", 2)}
	}))

	ctx := WithAttrs(context.Background(), slog.String("method", "GET"))
	ctx = WithAttrs(ctx, slog.String("path", "/api/viewpoints"))
	logger.InfoContext(ctx, "request")
	logger.Info("background")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "activeSessions=2 method=GET path=/api/viewpoints")
	assert.NotContains(t, string(lines[1]), "method=")
}

func TestWithAttrs_EmptyKeepsContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithAttrs(ctx))
	assert.Nil(t, AttrsFromContext(ctx))
}
