package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whtech/woleet-weblibs/internal/logging"
)

func TestNewLoggerJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lg := logging.NewLogger(logging.LoggerConfig{Out: &buf, JSON: true, Version: "1.2.3"})
	lg.Info("hello", "file", "a.bin")

	out := buf.String()
	require.Contains(t, out, `"msg":"hello"`)
	require.Contains(t, out, `"version":"1.2.3"`)
	require.Contains(t, out, `"file":"a.bin"`)
}

func TestNewLoggerLevelFilters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lg := logging.NewLogger(logging.LoggerConfig{Out: &buf, Level: slog.LevelWarn})
	lg.Info("quiet")
	lg.Warn("loud")

	require.NotContains(t, buf.String(), "quiet")
	require.Contains(t, buf.String(), "loud")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"info":  slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, want := range cases {
		got, err := logging.ParseLevel(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}

	_, err := logging.ParseLevel("loud")
	require.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	lg, _ := logging.NewTestLogger(t)
	ctx := logging.ContextWithLogger(context.Background(), lg)
	require.Same(t, lg, logging.FromContext(ctx))
	require.Same(t, slog.Default(), logging.FromContext(context.Background()))
}

func TestTestHandlerCapturesAttrs(t *testing.T) {
	t.Parallel()

	lg, th := logging.NewTestLogger(t)
	lg.With("component", "hasher").Warn("unexpected", "frame", "{}")

	found := th.Find(func(e logging.LoggedEntry) bool { return e.Msg == "unexpected" })
	require.Len(t, found, 1)
	require.Equal(t, slog.LevelWarn, found[0].Level)
	require.Equal(t, "hasher", found[0].Attrs["component"])
	require.Equal(t, "{}", found[0].Attrs["frame"])
}
