package database

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/nsxzhou1114/cms-api/internal/config"
	"github.com/nsxzhou1114/cms-api/internal/logger"
	"go.uber.org/zap"
)

// OpenElasticsearch 创建ES客户端并检查集群可用，未启用时返回nil
func OpenElasticsearch(ctx context.Context, cfg *config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	esConfig := elasticsearch.Config{Addresses: cfg.URLs}
	if cfg.Username != "" {
		esConfig.Username = cfg.Username
		esConfig.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, fmt.Errorf("创建elasticsearch客户端失败: %w", err)
	}

	var status string
	err = retry.Do(
		func() error {
			infoCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			res, err := client.Info(client.Info.WithContext(infoCtx))
			if err != nil {
				return err
			}
			defer res.Body.Close()
			if res.IsError() {
				return fmt.Errorf("集群返回 %s", res.Status())
			}
			status = res.Status()
			return nil
		},
		retry.Attempts(pingAttempts),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch健康检查失败: %w", err)
	}

	logger.Info("elasticsearch连接成功",
		zap.String("status", status),
		zap.Strings("addresses", cfg.URLs),
		zap.String("index", cfg.Index),
	)
	return client, nil
}
