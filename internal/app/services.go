package app

import (
	"github.com/yungbote/levelsnap-backend/internal/inference/config"
	"github.com/yungbote/levelsnap-backend/internal/observability"
	"github.com/yungbote/levelsnap-backend/internal/pipeline"
	"github.com/yungbote/levelsnap-backend/internal/platform/logger"
	"github.com/yungbote/levelsnap-backend/internal/services"
)

type Services struct {
	Pipeline *pipeline.Pipeline
	Scenes   services.SceneService
}

func wireServices(log *logger.Logger, cfg *config.Config, clients Clients, repos Repos, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	p := pipeline.New(clients.Route.Engine, clients.Route.UpstreamModel, log, pipeline.Options{
		Temperature:        cfg.Pipeline.Temperature,
		MaxOutputTokens:    cfg.Pipeline.MaxOutputTokens,
		MaxHistoryMessages: cfg.Pipeline.MaxHistoryMessages,
		MaxEchoBytes:       cfg.Pipeline.MaxEchoBytes,
		OnStage: func(rec pipeline.StageRecord) {
			if rec.ErrorClass != "" {
				metrics.ObserveStageError(rec.Stage, rec.ErrorClass)
			}
		},
	})

	scenes := services.NewSceneService(log, p, clients.Cache, repos.Runs, metrics, services.SceneServiceOptions{
		Model:        clients.Route.PublicModel,
		MaxImageSide: cfg.Pipeline.MaxImageSide,
	})

	return Services{
		Pipeline: p,
		Scenes:   scenes,
	}
}
