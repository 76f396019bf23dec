// Package cron 定时任务
package cron

import (
	"context"
	"time"

	"github.com/nsxzhou1114/cms-api/internal/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 常用表达式（带秒）
//"0 */5 * * * *"     // 每隔5分钟
//"0 0 * * * *"       // 每小时的开始
//"0 0 0 * * *"       // 每天凌晨

// TagCounter 标签文章数同步
type TagCounter interface {
	SyncArticleCounts(ctx context.Context) (int64, error)
}

// Scheduler 定时任务调度器
type Scheduler struct {
	cron *cron.Cron
	log  *zap.SugaredLogger
}

// New 创建调度器并注册任务
func New(cfg config.CronConfig, tags TagCounter, log *zap.SugaredLogger) (*Scheduler, error) {
	loc := time.Local
	if cfg.Timezone != "" && cfg.Timezone != "Local" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, err
		}
		loc = l
	}

	s := &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		log:  log,
	}

	spec := cfg.TagSyncSpec
	if spec == "" {
		spec = "0 0 * * * *"
	}
	if _, err := s.cron.AddFunc(spec, func() { SyncTagCounts(context.Background(), tags, log) }); err != nil {
		return nil, err
	}
	return s, nil
}

// Start 启动调度
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infof("定时任务已启动: %d个任务", len(s.cron.Entries()))
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("等待定时任务结束超时")
	}
}

// SyncTagCounts 同步标签的已审核文章数
func SyncTagCounts(ctx context.Context, tags TagCounter, log *zap.SugaredLogger) {
	start := time.Now()
	n, err := tags.SyncArticleCounts(ctx)
	if err != nil {
		log.Errorf("同步标签文章数失败: %v", err)
		return
	}
	log.Infof("同步标签文章数完成: 更新%d个标签, 耗时%s", n, time.Since(start))
}
