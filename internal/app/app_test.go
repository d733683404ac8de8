package app

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/levelsnap-backend/internal/inference/config"
	"github.com/yungbote/levelsnap-backend/internal/pipeline"
	"github.com/yungbote/levelsnap-backend/internal/services"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, k := range []string{"LOG_MODE", "LOG_LEVEL", "LS_HTTP_ADDR", "LS_MODEL", "LS_STORE_DRIVER", "LS_STORE_DSN", "LS_REDIS_ADDR", "METRICS_ENABLED", "OTEL_ENABLED"} {
		t.Setenv(k, "")
	}
	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	cfg.Env = "test"
	cfg.HTTP.Addr = "127.0.0.1:0"
	return cfg
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 12, 9))))
	return buf.Bytes()
}

func TestNew_DefaultsServeMockScenes(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Repos.Runs)
	assert.Nil(t, a.Metrics)

	out := a.Services.Scenes.Generate(context.Background(), services.GenerateInput{Image: pngBytes(t)})
	assert.Equal(t, pipeline.ProvenanceAI, out.Provenance)
	require.NotNil(t, out.Scene)

	_, err = a.Services.Scenes.ListRuns(context.Background(), 1)
	assert.ErrorIs(t, err, services.ErrRunsDisabled)
}

func TestNew_WithSQLiteRunsAndMetrics(t *testing.T) {
	cfg := testConfig(t)
	t.Setenv("METRICS_ENABLED", "true")
	cfg.Store = config.StoreConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "runs.db")}

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Repos.Runs)
	require.NotNil(t, a.Metrics)

	out := a.Services.Scenes.Generate(context.Background(), services.GenerateInput{Image: pngBytes(t)})
	run, err := a.Services.Scenes.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, "mock-1", run.Model)
	assert.Equal(t, 1.0, a.Metrics.SceneCount("ai"))
}

func TestNew_UnknownPipelineModel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.Model = "missing"
	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestRun_StopsOnCancel(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
