package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/levelsnap-backend/internal/cache"
	"github.com/yungbote/levelsnap-backend/internal/inference/config"
	"github.com/yungbote/levelsnap-backend/internal/inference/router"
	"github.com/yungbote/levelsnap-backend/internal/platform/logger"
	"github.com/yungbote/levelsnap-backend/internal/store"
)

type Clients struct {
	Models *router.Router
	// Route is the model entry the pipeline generates scenes with.
	Route router.Route
	DB    *gorm.DB
	Cache cache.SceneCache
}

func wireClients(ctx context.Context, log *logger.Logger, cfg *config.Config) (Clients, error) {
	log.Info("Wiring clients...")

	models, err := router.New(ctx, cfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init model router: %w", err)
	}
	route, ok := models.RouteForModel(cfg.Pipeline.Model)
	if !ok {
		return Clients{}, fmt.Errorf("pipeline model %q is not configured (have %s)",
			cfg.Pipeline.Model, strings.Join(models.ListModels(), ", "))
	}

	// The database and Redis are dialed in parallel; either may be disabled.
	var (
		db         *gorm.DB
		sceneCache cache.SceneCache = cache.Nop{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := store.Open(cfg.Store, log)
		if errors.Is(err, store.ErrDisabled) {
			log.Info("run history disabled")
			return nil
		}
		if err != nil {
			return fmt.Errorf("init run store: %w", err)
		}
		db = d
		return nil
	})
	g.Go(func() error {
		if strings.TrimSpace(cfg.Cache.RedisAddr) == "" {
			log.Info("scene cache disabled")
			return nil
		}
		c, err := cache.NewRedis(gctx, log, cfg.Cache.RedisAddr, cfg.Cache.Prefix, cfg.Cache.TTL.Duration)
		if err != nil {
			return fmt.Errorf("init scene cache: %w", err)
		}
		sceneCache = c
		return nil
	})
	if err := g.Wait(); err != nil {
		closeDB(db)
		_ = sceneCache.Close()
		return Clients{}, err
	}

	return Clients{
		Models: models,
		Route:  route,
		DB:     db,
		Cache:  sceneCache,
	}, nil
}

func (c Clients) Close() {
	closeDB(c.DB)
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}

func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
