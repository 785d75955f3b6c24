package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "domainreg", "warn")

	l.Info("hidden")
	l.Warn("shown", "domain", "example.tld")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "example.tld")
	assert.Contains(t, out, "domainreg")
}

func TestSub(t *testing.T) {
	var buf bytes.Buffer
	l := Sub(NewWithWriter(&buf, "domainreg", "info"), "dns")
	l.Info("relay started")
	assert.Contains(t, buf.String(), "domainreg/dns")
}

func TestContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	l := NewWithWriter(&bytes.Buffer{}, "x", "info")
	ctx := IntoContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
