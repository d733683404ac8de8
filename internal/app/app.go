package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/levelsnap-backend/internal/http"
	"github.com/yungbote/levelsnap-backend/internal/inference/config"
	"github.com/yungbote/levelsnap-backend/internal/observability"
	"github.com/yungbote/levelsnap-backend/internal/platform/logger"
)

const serviceName = "levelsnap"

// Version is stamped at build time with -ldflags "-X ...app.Version=...".
var Version = "dev"

type App struct {
	Log      *logger.Logger
	Cfg      *config.Config
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics
	Server   *http.Server

	shutdownOTel func(context.Context) error
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	switch strings.ToLower(cfg.Env) {
	case "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfigFromEnv(serviceName, cfg.Env, Version))

	var metrics *observability.Metrics
	if observability.MetricsEnabled() {
		metrics = observability.NewMetrics()
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = shutdownOTel(ctx)
		log.Sync()
		return nil, err
	}
	reposet := wireRepos(clients.DB, log)
	serviceset := wireServices(log, cfg, clients, reposet, metrics)
	handlerset := wireHandlers(log, clients, serviceset)
	server := wireServer(log, cfg, handlerset, metrics)

	log.Info("levelsnap ready",
		"env", cfg.Env,
		"model", clients.Route.PublicModel,
		"models", clients.Models.ListModels(),
		"run_history", reposet.Runs != nil,
		"metrics", metrics != nil,
	)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		Server:       server,
		shutdownOTel: shutdownOTel,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP listening", "addr", a.Cfg.HTTP.Addr)
	return a.Server.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.shutdownOTel != nil {
		if err := a.shutdownOTel(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
