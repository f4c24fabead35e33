package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func newTestSlog(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestSlog(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG", "msg=dbg", "a=1",
		"level=INFO", "msg=inf", "b=2",
		"level=WARN", "msg=wrn", "c=3",
		"level=ERROR", "msg=err", "d=4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newTestSlog(t)

	log.With("request_id", "r-1", "asset_id", "a-1").Info(context.Background(), "served", "status", 304)

	out := buf.String()
	for _, want := range []string{"msg=served", "request_id=r-1", "asset_id=a-1", "status=304"} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_RequestIDFromContext(t *testing.T) {
	log, buf := newTestSlog(t)
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")

	log.Info(ctx, "served")
	assert.Contains(t, buf.String(), "request_id=req-42")

	buf.Reset()
	log.Info(ctx, "served", "request_id", "explicit")
	assert.Contains(t, buf.String(), "request_id=explicit")
	assert.NotContains(t, buf.String(), "req-42")
}

func TestWithRequestID_DoesNotAliasArgs(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "r")
	args := make([]any, 2, 8)
	args[0], args[1] = "k", "v"

	got := withRequestID(ctx, args)
	assert.Equal(t, []any{"k", "v", "request_id", "r"}, got)
	assert.Len(t, args, 2)
	assert.Equal(t, []any{"k", "v"}, withRequestID(context.Background(), args))
}
