package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	log.Info("hello", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, `"key":"value"`)
	assert.Contains(t, out, `"level":"INFO"`)
}

func TestJSONLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Info("should not appear")
	log.Debug("also should not appear")
	require.Zero(t, buf.Len(), "unexpected output: %s", buf.String())

	log.Warn("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	log := Discard()
	log.Error("dropped")
	log.With("k", "v").WithGroup("g").Info("dropped too")
}

func TestFromSlog(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := FromSlog(slog.New(slog.NewJSONHandler(&buf, nil)))
	log.With("component", "text").Info("wrapped")
	assert.Contains(t, buf.String(), `"component":"text"`)

	require.NotNil(t, FromSlog(nil))

	sl := slog.New(slog.NewJSONHandler(&buf, nil))
	assert.Same(t, sl, AsSlog(FromSlog(sl)))
	assert.NotNil(t, AsSlog(nil))
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), JSON(&buf, slog.LevelInfo))

	FromContext(ctx).Info("roundtrip test")
	assert.Contains(t, buf.String(), "roundtrip test")
	require.NotNil(t, FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.input)
		if tc.wantErr {
			assert.Error(t, err, "ParseLevel(%q)", tc.input)
			continue
		}
		require.NoError(t, err, "ParseLevel(%q)", tc.input)
		assert.Equal(t, tc.want, got, "ParseLevel(%q)", tc.input)
	}
}

func TestForCLI(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := ForCLI(&buf, FormatAuto, slog.LevelInfo, false)
	require.NoError(t, err)
	log.Info("auto off terminal")
	assert.Contains(t, buf.String(), `"msg":"auto off terminal"`)

	buf.Reset()
	log, err = ForCLI(&buf, FormatAuto, slog.LevelInfo, true)
	require.NoError(t, err)
	log.Info("auto on terminal")
	assert.Contains(t, buf.String(), colorBlue)

	_, err = ForCLI(&buf, Format("xml"), slog.LevelInfo, false)
	require.Error(t, err)
}

func TestPrettyHandler(t *testing.T) {
	t.Parallel()

	t.Run("level filtering", func(t *testing.T) {
		h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}, false)
		assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
		assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	})

	t.Run("plain output without color", func(t *testing.T) {
		var buf bytes.Buffer
		slog.New(NewPrettyHandler(&buf, nil, false)).Info("built", "vocab_size", 300, "path", "a b")
		out := buf.String()
		assert.Contains(t, out, "INFO  built vocab_size=300")
		assert.Contains(t, out, `path="a b"`)
		assert.NotContains(t, out, "\033[")
	})

	t.Run("attrs and nested groups", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewPrettyHandler(&buf, nil, false).
			WithAttrs([]slog.Attr{slog.String("service", "textfeat")}).
			WithGroup("a").
			WithGroup("b")
		slog.New(h).Info("nested", "key", "val")
		assert.Contains(t, buf.String(), "service=textfeat")
		assert.Contains(t, buf.String(), "a.b.key=val")
	})

	t.Run("empty group returns same handler", func(t *testing.T) {
		h := NewPrettyHandler(&bytes.Buffer{}, nil, false)
		assert.Same(t, h, h.WithGroup(""))
	})

	t.Run("group values flatten", func(t *testing.T) {
		var buf bytes.Buffer
		slog.New(NewPrettyHandler(&buf, nil, false)).Info("g", slog.Group("req", "id", "x1"))
		assert.Contains(t, buf.String(), "req.id=x1")
	})
}

func TestNeedsQuoting(t *testing.T) {
	t.Parallel()
	assert.False(t, needsQuoting("simple"))
	assert.False(t, needsQuoting(""))
	assert.True(t, needsQuoting("has space"))
	assert.True(t, needsQuoting("k=v"))
	assert.True(t, needsQuoting(`has"quote`))
}
