package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/levelsnap-backend/internal/platform/logger"
	"github.com/yungbote/levelsnap-backend/internal/scene"
)

type redisCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects and pings the server before returning.
func NewRedis(ctx context.Context, log *logger.Logger, addr, prefix string, ttl time.Duration) (SceneCache, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("missing redis addr")
	}
	if log == nil {
		log = logger.Nop()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisCache{
		log:    log.With("service", "RedisSceneCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) (*scene.Scene, string, error) {
	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	s, prov, err := decodeEntry(b)
	if err != nil {
		c.log.Warn("dropping bad cache entry", "key", key, "error", err)
		_ = c.rdb.Del(ctx, c.prefix+key).Err()
		return nil, "", nil
	}
	return s, prov, nil
}

func (c *redisCache) Set(ctx context.Context, key string, s *scene.Scene, provenance string) error {
	b, err := encodeEntry(s, provenance)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+key, b, c.ttl).Err()
}

func (c *redisCache) Close() error {
	return c.rdb.Close()
}
