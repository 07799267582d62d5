package logging_test

import (
	"context"
	"os"
	"testing"

	"github.com/agentstation/geomanifest/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHelpers(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithRun(ctx, "run-1")
	ctx = logging.WithProject(ctx, "kursk")
	ctx = logging.WithLayer(ctx, "wells")
	ctx = logging.WithStage(ctx, "profile")

	logging.FromContext(ctx).Info().Msg("profiled")

	require.Len(t, tl.Lines(), 1)
	assert.True(t, tl.Contains(`"run_id":"run-1"`))
	assert.True(t, tl.Contains(`"project_id":"kursk"`))
	assert.True(t, tl.Contains(`"layer_id":"wells"`))
	assert.True(t, tl.Contains(`"stage":"profile"`))
	assert.Equal(t, "run-1", logging.RunID(ctx))
}

func TestFromContextDefaults(t *testing.T) {
	//nolint:staticcheck // nil context is handled explicitly
	assert.Equal(t, logging.Default(), logging.FromContext(nil))
	assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))
	assert.Empty(t, logging.RunID(context.Background()))
}

func TestWithFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithFields(ctx, map[string]any{
		"layers":   12,
		"coverage": 87.5,
		"has_aprx": true,
	})

	logging.Ctx(ctx).Info().Msg("done")

	assert.True(t, tl.Contains(`"layers":12`))
	assert.True(t, tl.Contains(`"coverage":87.5`))
	assert.True(t, tl.Contains(`"has_aprx":true`))
}

func TestNewLoggerFromConfig(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{"debug", "debug", zerolog.DebugLevel},
		{"warning alias", "warning", zerolog.WarnLevel},
		{"disabled", "off", zerolog.Disabled},
		{"unknown falls back to info", "chatty", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := logging.NewLoggerFromConfig(&logging.Config{
				Level:  tt.level,
				Format: "json",
				Output: "discard",
			})
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DEBUG", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("GEOMANIFEST_LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("GEOMANIFEST_LOG_FORMAT", "")
	t.Setenv("GEOMANIFEST_LOG_FIELDS", "service=geomanifest, region = kursk,broken")
	t.Setenv("GEOMANIFEST_LOG_CALLER", "true")

	cfg := logging.ConfigFromEnv()
	assert.Equal(t, "warn", cfg.Level, "prefixed variable wins")
	assert.Equal(t, "json", cfg.Format, "unprefixed variable is the fallback")
	assert.True(t, cfg.AddCaller)
	assert.Equal(t, map[string]any{"service": "geomanifest", "region": "kursk"}, cfg.Fields)
}

func TestConfigFromEnvDebug(t *testing.T) {
	t.Setenv("DEBUG", "1")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("GEOMANIFEST_LOG_LEVEL", "")
	assert.Equal(t, "debug", logging.ConfigFromEnv().Level)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"none":    zerolog.Disabled,
		"":        zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(in), in)
	}
}

func TestConfigureFields(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })
	path := t.TempDir() + "/geomanifest.log"

	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "info",
		Format: "json",
		Output: path,
		Fields: map[string]any{"service": "geomanifest", "layers": 3},
	})
	logger.Info().Msg("ingested")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"service":"geomanifest"`)
	assert.Contains(t, string(data), `"layers":3`)
}
