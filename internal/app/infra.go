package app

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/richardklafter/PriceYakalytics/internal/config"
	"github.com/richardklafter/PriceYakalytics/internal/logger"
	"github.com/richardklafter/PriceYakalytics/internal/redis"
	"github.com/richardklafter/PriceYakalytics/internal/report"
)

type Infra struct {
	Redis   *goredis.Client
	Reports report.Store
}

// setupInfra connects the optional backing services. Without a Redis
// address sync reports are kept in process memory.
func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	if cfg.RedisAddr == "" {
		logger.Info("report store in memory", map[string]any{
			"ttl": cfg.ReportTTL,
		})
		return &Infra{Reports: report.NewMemoryStore(cfg.ReportTTL)}, nil
	}

	client, err := redis.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}

	logger.Info("redis ready", map[string]any{
		"addr": cfg.RedisAddr,
	})

	return &Infra{
		Redis:   client,
		Reports: report.NewRedisStore(client, cfg.ReportTTL),
	}, nil
}

func (i *Infra) Close() error {
	if i.Redis != nil {
		return i.Redis.Close()
	}
	return nil
}
