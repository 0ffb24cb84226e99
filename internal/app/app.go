package app

import (
	"context"
	"fmt"
	"time"

	"histvault/internal/api"
	"histvault/internal/config"
	"histvault/internal/ingest"
	"histvault/internal/logger"
	"histvault/internal/status"
	"histvault/internal/store"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排：加载配置→初始化依赖→执行回补或常驻 API 服务。
type App struct {
	cfg     *config.Config
	store   *store.Store
	tracker status.Tracker
	service *ingest.Service
	api     *api.Server
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 执行应用：API 模式常驻监听，否则按配置做一次性回补后退出。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	if a.cfg.API.Enabled {
		group, ctx := errgroup.WithContext(ctx)
		group.Go(func() error {
			if err := a.api.Start(ctx); err != nil {
				return fmt.Errorf("api server error: %w", err)
			}
			return nil
		})
		return group.Wait()
	}
	return a.runOnce(ctx)
}

func (a *App) runOnce(ctx context.Context) error {
	dl := a.cfg.Download
	if len(dl.Symbols) == 0 {
		return fmt.Errorf("download.symbols is empty; nothing to backfill")
	}
	wait := time.Duration(dl.WriterWaitSeconds) * time.Second
	results, err := a.service.Run(ctx, dl.Symbols, dl.Years, dl.Concurrency, wait)
	if err != nil {
		return err
	}
	for sym, res := range results {
		logger.Infof("[backfill] %s total=%d inserted=%d skipped=%d",
			sym, res.TotalRecords, res.Inserted, res.Skipped)
	}
	return nil
}

// Close 释放持有的存储连接。
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if closer, ok := a.tracker.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warnf("[app] 关闭 status tracker 失败: %v", err)
		}
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
