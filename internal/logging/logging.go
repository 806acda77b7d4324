package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// LoggerConfig is the small set of options the tools expose.
type LoggerConfig struct {
	Version string

	// If Out is nil, stderr is used.
	Out io.Writer

	Level slog.Level
	JSON  bool // true => JSON output, false => text
}

// NewLogger creates a configured *slog.Logger.
func NewLogger(cfg LoggerConfig) *slog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.Version != "" {
		logger = logger.With(slog.String("version", cfg.Version))
	}
	return logger
}

// ParseLevel maps a config level name onto a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }

// NewNopLogger returns a logger that discards all log events.
func NewNopLogger() *slog.Logger {
	return slog.New(nopHandler{})
}

///////////////////////////////////////////////////////////////////////////////
// Context helpers
///////////////////////////////////////////////////////////////////////////////

type ctxKeyType struct{}

var ctxKey ctxKeyType

// ContextWithLogger stores lg on ctx.
func ContextWithLogger(ctx context.Context, lg *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey, lg)
}

// FromContext returns the logger stored on ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if lg, ok := ctx.Value(ctxKey).(*slog.Logger); ok && lg != nil {
		return lg
	}
	return slog.Default()
}

///////////////////////////////////////////////////////////////////////////////
// Test handler
///////////////////////////////////////////////////////////////////////////////

// LoggedEntry is one captured record.
type LoggedEntry struct {
	Time  time.Time
	Level slog.Level
	Msg   string
	Attrs map[string]any
}

// testingT is the subset of *testing.T used for echoing entries.
type testingT interface {
	Logf(format string, args ...any)
}

// TestHandler captures structured entries for assertions. It is safe for
// concurrent use.
type TestHandler struct {
	mu      *sync.Mutex
	entries *[]LoggedEntry
	attrs   []slog.Attr
	t       testingT
}

func NewTestHandler(t testingT) *TestHandler {
	return &TestHandler{mu: &sync.Mutex{}, entries: &[]LoggedEntry{}, t: t}
}

func (h *TestHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *TestHandler) Handle(_ context.Context, r slog.Record) error {
	e := LoggedEntry{
		Time:  r.Time,
		Level: r.Level,
		Msg:   r.Message,
		Attrs: make(map[string]any, r.NumAttrs()+len(h.attrs)),
	}
	for _, a := range h.attrs {
		e.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	*h.entries = append(*h.entries, e)
	h.mu.Unlock()

	if h.t != nil {
		h.t.Logf("LOG %v %s %v", e.Level, e.Msg, e.Attrs)
	}
	return nil
}

func (h *TestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *TestHandler) WithGroup(string) slog.Handler { return h }

// Entries returns a copy of everything captured so far.
func (h *TestHandler) Entries() []LoggedEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]LoggedEntry(nil), *h.entries...)
}

// Find copies the entries that match pred.
func (h *TestHandler) Find(pred func(LoggedEntry) bool) []LoggedEntry {
	var out []LoggedEntry
	for _, e := range h.Entries() {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// NewTestLogger returns a logger that writes to a fresh TestHandler.
func NewTestLogger(t testingT) (*slog.Logger, *TestHandler) {
	th := NewTestHandler(t)
	return slog.New(th), th
}

var (
	_ slog.Handler = nopHandler{}
	_ slog.Handler = (*TestHandler)(nil)
)
