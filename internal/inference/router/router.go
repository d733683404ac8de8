package router

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/levelsnap-backend/internal/inference/config"
	"github.com/yungbote/levelsnap-backend/internal/inference/engine"
	"github.com/yungbote/levelsnap-backend/internal/inference/engine/gemini"
	"github.com/yungbote/levelsnap-backend/internal/inference/engine/mock"
	"github.com/yungbote/levelsnap-backend/internal/inference/engine/oaihttp"
)

type Route struct {
	PublicModel   string
	UpstreamModel string
	Engine        engine.Engine
}

type Router struct {
	routes map[string]Route
}

func New(ctx context.Context, cfg *config.Config) (*Router, error) {
	r := &Router{routes: map[string]Route{}}
	for _, m := range cfg.Models {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return nil, fmt.Errorf("model id required")
		}
		if _, exists := r.routes[id]; exists {
			return nil, fmt.Errorf("duplicate model id: %s", id)
		}

		eng, err := newEngine(ctx, m.Engine)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", id, err)
		}

		upstream := strings.TrimSpace(m.UpstreamModel)
		if upstream == "" {
			upstream = id
		}

		r.routes[id] = Route{
			PublicModel:   id,
			UpstreamModel: upstream,
			Engine:        eng,
		}
	}
	return r, nil
}

func newEngine(ctx context.Context, cfg config.EngineConfig) (engine.Engine, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "mock":
		return mock.New(cfg.Replies...), nil
	case "openai_http", "oai_http":
		return oaihttp.New(cfg)
	case "gemini", "genai":
		return gemini.New(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported engine type %q", cfg.Type)
	}
}

func (r *Router) ListModels() []string {
	out := make([]string, 0, len(r.routes))
	for id := range r.routes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Router) RouteForModel(model string) (Route, bool) {
	route, ok := r.routes[strings.TrimSpace(model)]
	return route, ok
}
