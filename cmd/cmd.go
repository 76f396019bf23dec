package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/cms-api/internal/config"
	"github.com/nsxzhou1114/cms-api/internal/cron"
	"github.com/nsxzhou1114/cms-api/internal/database"
	"github.com/nsxzhou1114/cms-api/internal/logger"
	"github.com/nsxzhou1114/cms-api/internal/middleware"
	"github.com/nsxzhou1114/cms-api/internal/router"
	"github.com/nsxzhou1114/cms-api/internal/service"
	"github.com/nsxzhou1114/cms-api/pkg/auth"
	"github.com/nsxzhou1114/cms-api/pkg/cache"
	"github.com/nsxzhou1114/cms-api/pkg/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var configPath string

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "cms-api",
	Short: "内容管理API服务",
	Long:  `博客内容管理API服务，提供文章、标签、分类管理以及浏览分享统计与相关文章推荐`,
}

// serveCmd 启动服务命令
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务",
	Long:  `启动内容管理API的HTTP服务器及定时任务`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func init() {
	// 添加全局标志
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config", "配置文件路径")

	// 添加子命令
	rootCmd.AddCommand(serveCmd)
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// app 运行时依赖
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	cache   cache.Cache
	es      *elasticsearch.Client
	storage storage.ObjectStorage
	tokens  *auth.Manager
	svc     *service.Services
}

// initializeSystem 初始化配置、日志与各项依赖
func initializeSystem() (*app, error) {
	// 初始化配置
	if err := config.Init(configPath); err != nil {
		return nil, fmt.Errorf("配置初始化失败: %v", err)
	}
	cfg := config.GetConfig()

	// 初始化日志
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("日志初始化失败: %v", err)
	}

	// 初始化MySQL数据库
	db, err := database.InitMySQL(&cfg.MySQL)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, db: db}

	// Redis不可用时缓存与令牌黑名单降级为进程内实现
	ctx := context.Background()
	var blacklist auth.Blacklist = auth.NewMemoryBlacklist()
	client, err := database.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		logger.Warn("redis不可用，缓存已禁用", zap.Error(err))
	} else if client != nil {
		a.cache = cache.NewRedisCache(client, cfg.App.Name+":")
		blacklist = auth.NewCacheBlacklist(a.cache)
	}

	// Elasticsearch不可用时联想回退到数据库
	if a.es, err = database.OpenElasticsearch(ctx, &cfg.Elasticsearch); err != nil {
		logger.Warn("elasticsearch不可用，搜索将回退到数据库", zap.Error(err))
	}

	if a.storage, err = storage.New(cfg.Storage); err != nil {
		return nil, fmt.Errorf("对象存储初始化失败: %v", err)
	}

	a.tokens = auth.NewManager(cfg.JWT, blacklist)
	a.svc = service.New(service.Options{
		DB:      db,
		Log:     logger.GetSugaredLogger(),
		Cache:   a.cache,
		ES:      a.es,
		Storage: a.storage,
		Tokens:  a.tokens,
		Config:  cfg,
	})
	return a, nil
}

// close 释放连接
func (a *app) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Warn("关闭缓存连接失败", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = logger.Sync()
}

// mustInitialize 初始化失败时直接退出
func mustInitialize() *app {
	a, err := initializeSystem()
	if err != nil {
		fmt.Printf("系统初始化失败: %v\n", err)
		os.Exit(1)
	}
	return a
}

// startServer 启动HTTP服务
func startServer() {
	a := mustInitialize()
	defer a.close()

	// 设置Gin模式
	gin.SetMode(a.cfg.App.Mode)

	// 初始化路由
	r := initRouter(a)

	// 启动定时任务
	var scheduler *cron.Scheduler
	if a.cfg.Cron.Enabled {
		var err error
		scheduler, err = cron.New(a.cfg.Cron, a.svc.Tags, logger.GetSugaredLogger())
		if err != nil {
			logger.Fatal("定时任务初始化失败", zap.Error(err))
		}
		scheduler.Start()
	}

	// 启动HTTP服务
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.App.Port),
		Handler: r,
	}

	// 优雅关闭
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP服务启动失败", zap.Error(err))
		}
	}()

	logger.Info("服务已启动", zap.String("addr", srv.Addr))

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("关闭服务...")

	// 设置关闭超时
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务关闭异常", zap.Error(err))
		return
	}

	logger.Info("服务已关闭")
}

// 初始化路由
func initRouter(a *app) *gin.Engine {
	r := gin.New()

	// 使用中间件
	r.Use(logger.GinRecovery())
	r.Use(logger.GinLogger())
	r.Use(middleware.Cors(a.cfg.App.Cors))

	// 初始化API路由
	router.Setup(r, a.svc, a.cfg, a.tokens, logger.GetSugaredLogger())

	return r
}
