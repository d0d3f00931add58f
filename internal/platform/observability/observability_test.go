package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBuffer(t *testing.T, enabled bool) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	shutdown, err := Setup(context.Background(), Config{Enabled: enabled, Service: "image-gateway"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })
	return buf
}

func TestSpanAndMetricWhenEnabled(t *testing.T) {
	buf := setupBuffer(t, true)
	assert.True(t, Enabled())

	_, end := StartSpan(context.Background(), "aiservice", "classify")
	end(errors.New("connection refused"))
	RecordMetric(context.Background(), "aiservice.status", 503, map[string]string{"outcome": "upstream"})

	out := buf.String()
	assert.Contains(t, out, `"msg":"obs span start"`)
	assert.Contains(t, out, `"error":"connection refused"`)
	assert.Contains(t, out, `"metric":"aiservice.status"`)
	assert.Contains(t, out, `"outcome":"upstream"`)
}

func TestHooksAreNoopsWhenDisabled(t *testing.T) {
	buf := setupBuffer(t, false)
	buf.Reset()
	assert.False(t, Enabled())

	_, end := StartSpan(context.Background(), "aiservice", "classify")
	end(nil)
	RecordMetric(context.Background(), "http.requests", 1, nil)

	assert.Empty(t, buf.String())
}
