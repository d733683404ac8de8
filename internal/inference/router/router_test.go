package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/levelsnap-backend/internal/inference/config"
	"github.com/yungbote/levelsnap-backend/internal/inference/engine/mock"
	"github.com/yungbote/levelsnap-backend/internal/inference/engine/oaihttp"
)

func TestNew_BuildsRoutes(t *testing.T) {
	r, err := New(context.Background(), &config.Config{Models: []config.ModelConfig{
		{ID: "scripted", Engine: config.EngineConfig{Type: "mock", Replies: []string{"{}"}}},
		{ID: "vision", UpstreamModel: "gpt-4o-mini", Engine: config.EngineConfig{Type: "oai_http", BaseURL: "http://upstream"}},
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"scripted", "vision"}, r.ListModels())

	route, ok := r.RouteForModel(" vision ")
	require.True(t, ok)
	assert.Equal(t, "gpt-4o-mini", route.UpstreamModel)
	assert.IsType(t, &oaihttp.Engine{}, route.Engine)

	route, ok = r.RouteForModel("scripted")
	require.True(t, ok)
	assert.Equal(t, "scripted", route.UpstreamModel)
	assert.IsType(t, &mock.Engine{}, route.Engine)

	_, ok = r.RouteForModel("missing")
	assert.False(t, ok)
}

func TestNew_Errors(t *testing.T) {
	cases := map[string][]config.ModelConfig{
		"duplicate": {{ID: "a", Engine: config.EngineConfig{Type: "mock"}}, {ID: "a", Engine: config.EngineConfig{Type: "mock"}}},
		"unknown":   {{ID: "a", Engine: config.EngineConfig{Type: "smoke-signals"}}},
		"no id":     {{Engine: config.EngineConfig{Type: "mock"}}},
		"no key":    {{ID: "a", Engine: config.EngineConfig{Type: "gemini"}}},
	}
	for name, models := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(context.Background(), &config.Config{Models: models})
			assert.Error(t, err)
		})
	}
}
