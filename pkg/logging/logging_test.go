package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.NotNil(t, cfg.Fields)
}

func TestNewLoggerFromConfigFields(t *testing.T) {
	oldLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(oldLevel) })

	logger := NewLoggerFromConfig(&Config{
		Level:  "info",
		Format: "json",
		Output: "discard",
		Fields: map[string]any{"service": "promise"},
	})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	var buf bytes.Buffer
	out := logger.Output(&buf)
	out.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"service":"promise"`)
}

func TestContextLogger(t *testing.T) {
	tl := NewTestLogger(t)
	ctx := WithLogger(context.Background(), tl.Logger)

	ctx = WithRunID(ctx, "run-123")
	ctx = WithPallet(ctx, "BWB-2022-09-22")
	ctx = WithISBN(ctx, "9781405892469")
	ctx = WithOperation(ctx, "reconcile")

	FromContext(ctx).Info().Msg("batch checked")

	tl.AssertContains(t, `"run_id":"run-123"`)
	tl.AssertContains(t, `"pallet":"BWB-2022-09-22"`)
	tl.AssertContains(t, `"isbn":"9781405892469"`)
	tl.AssertContains(t, `"operation":"reconcile"`)
	assert.Equal(t, "run-123", RunID(ctx))
	assert.Equal(t, 1, tl.Count())
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, Default(), FromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Same(t, Default(), FromContext(nil))
	assert.Empty(t, RunID(context.Background()))
}

func TestWithFieldsTypes(t *testing.T) {
	tl := NewTestLogger(t)
	ctx := WithLogger(context.Background(), tl.Logger)
	ctx = WithFields(ctx, map[string]any{
		"batch":   3,
		"queried": true,
		"delay":   500 * time.Millisecond,
		"cause":   errors.New("boom"),
	})

	Ctx(ctx).Warn().Msg("fields")

	require.Equal(t, 1, tl.Count())
	assert.True(t, tl.ContainsAll(`"batch":3`, `"queried":true`, `"cause":"boom"`, `"delay":`))
}

func TestCaptureLoggingForTest(t *testing.T) {
	before := *Default()

	t.Run("capture", func(t *testing.T) {
		tl := CaptureLoggingForTest(t)
		Info().Str("pallet", "p1").Msg("saved")
		tl.AssertContains(t, "saved")
		tl.AssertNotContains(t, "loaded")
		tl.Clear()
		assert.Zero(t, tl.Count())
	})

	assert.Equal(t, before.GetLevel(), Default().GetLevel())
}

func TestDisableLoggingForTest(t *testing.T) {
	DisableLoggingForTest(t)
	assert.Equal(t, zerolog.Disabled, Default().GetLevel())
}

func TestConfigureFromEnv(t *testing.T) {
	before := *Default()
	oldLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		SetDefault(before)
		zerolog.SetGlobalLevel(oldLevel)
	})

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_OUTPUT", "discard")

	ConfigureFromEnv()
	assert.Equal(t, zerolog.WarnLevel, Default().GetLevel())
}
