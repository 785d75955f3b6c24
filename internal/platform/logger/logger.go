package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
)

// New returns a structured logger writing to stderr through a charmbracelet
// handler. Unknown levels fall back to info.
func New(name, level string) *slog.Logger {
	return NewWithWriter(os.Stderr, name, level)
}

func NewWithWriter(w io.Writer, name, level string) *slog.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return slog.New(log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          name,
		Level:           lvl,
	}))
}

type ctxKey struct{}

// IntoContext adds a logger to a context. Use FromContext to pull it out.
func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// Sub derives a logger whose prefix is extended with suffix.
func Sub(base *slog.Logger, suffix string) *slog.Logger {
	if cl, ok := base.Handler().(*log.Logger); ok {
		child := cl.With()
		prefix := cl.GetPrefix()
		if prefix != "" {
			prefix = prefix + "/" + suffix
		} else {
			prefix = suffix
		}
		child.SetPrefix(prefix)
		return slog.New(child)
	}
	return base.With("component", suffix)
}
