package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("json output carries attributes", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "info", Format: "json", Output: buf})

		l.With("request_id", "abc").Info("sweep finished", Err(errors.New("boom")))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "sweep finished", entry["msg"])
		assert.Equal(t, "abc", entry["request_id"])
		assert.Equal(t, "boom", entry["error"])
	})

	t.Run("text output", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "info", Format: "text", Output: buf})

		l.Info("hello")
		assert.False(t, strings.HasPrefix(buf.String(), "{"))
		assert.Contains(t, buf.String(), "hello")
	})

	t.Run("level filters lower entries", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "warn", Output: buf})

		l.Info("dropped")
		assert.Empty(t, buf.String())
		l.Warn("kept")
		assert.Contains(t, buf.String(), "kept")
	})
}

func TestContextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(&Config{Output: buf})

	ctx := ContextWithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx, nil))

	fallback := New(&Config{Output: buf})
	assert.Same(t, fallback, FromContext(context.Background(), fallback))
	assert.NotNil(t, FromContext(context.Background(), nil))
}

func TestNewZapLogger(t *testing.T) {
	l, err := NewZapLogger(&ZapConfig{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = NewZapLogger(&ZapConfig{Level: "nonsense"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))

	l, err = NewZapLogger(nil)
	require.NoError(t, err)
	assert.NotNil(t, l)
}
