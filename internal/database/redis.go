package database

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/nsxzhou1114/cms-api/internal/config"
	"github.com/nsxzhou1114/cms-api/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 启动时探活的重试次数，容忍依赖服务晚于本服务就绪
const pingAttempts = 3

// OpenRedis 创建Redis客户端并探活，未启用时返回nil
func OpenRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	err := retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx).Err()
		},
		retry.Attempts(pingAttempts),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接redis失败: %w", err)
	}

	logger.Info("redis连接成功", zap.String("addr", cfg.Addr()), zap.Int("db", cfg.DB))
	return client, nil
}
