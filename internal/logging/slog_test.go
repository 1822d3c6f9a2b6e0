package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	tests := []struct {
		level string
		msg   string
		attr  string
	}{
		{"DEBUG", "dbg", "a=1"},
		{"INFO", "inf", "b=2"},
		{"WARN", "wrn", "c=3"},
		{"ERROR", "err", "d=4"},
	}
	for _, tc := range tests {
		assert.Contains(t, out, "level="+tc.level)
		assert.Contains(t, out, "msg="+tc.msg)
		assert.Contains(t, out, tc.attr)
	}
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newTestLogger(t)

	log.With("component", "httpapi").Info(context.Background(), "hello", "k", "v")

	out := buf.String()
	assert.Contains(t, out, "component=httpapi")
	assert.Contains(t, out, "k=v")
}

func TestNew_SelectsHandlerByEnv(t *testing.T) {
	var local bytes.Buffer
	New(EnvLocal, &local).Debug("visible")
	assert.Contains(t, local.String(), "msg=visible")

	for _, env := range []string{EnvDev, EnvProd, ""} {
		t.Run("env="+env, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(env, &buf)
			l.Debug("hidden")
			l.Info("shown", "user_id", "u1")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			require.Len(t, lines, 1)

			var rec map[string]any
			require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
			assert.Equal(t, "shown", rec["msg"])
			assert.Equal(t, "u1", rec["user_id"])
		})
	}
}

func TestSlogLogger_Slog(t *testing.T) {
	log, buf := newTestLogger(t)
	log.Slog().Info("raw")
	assert.Contains(t, buf.String(), "msg=raw")
}
