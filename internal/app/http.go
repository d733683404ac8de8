package app

import (
	"context"

	"github.com/yungbote/levelsnap-backend/internal/http"
	httpH "github.com/yungbote/levelsnap-backend/internal/http/handlers"
	"github.com/yungbote/levelsnap-backend/internal/inference/config"
	"github.com/yungbote/levelsnap-backend/internal/observability"
	"github.com/yungbote/levelsnap-backend/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Scene  *httpH.SceneHandler
	Run    *httpH.RunHandler
}

func wireHandlers(log *logger.Logger, clients Clients, services Services) Handlers {
	log.Info("Wiring handlers...")

	checks := map[string]httpH.ReadinessCheck{}
	if clients.DB != nil {
		checks["store"] = func(ctx context.Context) error {
			sqlDB, err := clients.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}

	return Handlers{
		Health: httpH.NewHealthHandler(checks),
		Scene:  httpH.NewSceneHandler(log, services.Scenes),
		Run:    httpH.NewRunHandler(services.Scenes),
	}
}

func wireServer(log *logger.Logger, cfg *config.Config, handlers Handlers, metrics *observability.Metrics) *http.Server {
	return http.NewServer(http.ServerConfig{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout.Duration,
		IdleTimeout:       cfg.HTTP.IdleTimeout.Duration,
		ShutdownTimeout:   cfg.HTTP.ShutdownTimeout.Duration,
	}, http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		ServiceName:     serviceName,
		CORSOrigins:     cfg.HTTP.CORSOrigins,
		MaxRequestBytes: cfg.HTTP.MaxRequestBytes,
		RequestTimeout:  cfg.HTTP.RequestTimeout.Duration,
		HealthHandler:   handlers.Health,
		SceneHandler:    handlers.Scene,
		RunHandler:      handlers.Run,
	})
}
