package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-gateway/internal/config"
	"chat-gateway/internal/i18n"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repository"
	"chat-gateway/internal/router"
	"chat-gateway/internal/service"
	"chat-gateway/pkg/logger"
	"chat-gateway/pkg/metrics"

	"github.com/go-redis/redis/v8"
)

func main() {
	configFile := flag.String("config", "./config/config.yaml", "配置文件路径")
	envFile := flag.String("env", ".env", ".env 文件路径，用于本地覆盖密钥")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Printf("%v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	appLogger, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	i18n.SetDefaultLanguage(cfg.I18n.DefaultLanguage)

	// 初始化数据库
	if err := models.InitDB(cfg); err != nil {
		appLogger.Fatalf("初始化数据库失败: %v", err)
	}
	db := models.GetDB()

	// 初始化管理员和预置用户
	authService := service.NewAuthService(repository.NewUserRepository(db), cfg, appLogger)
	if err := authService.InitAdmin(); err != nil {
		appLogger.Warnf("初始化管理员失败: %v", err)
	}
	if n, err := authService.SeedUsers(cfg.Admin.SeedUsers); err != nil {
		appLogger.Warnf("导入预置用户失败: %v", err)
	} else if n > 0 {
		appLogger.Infof("导入预置用户 %d 个", n)
	}

	// 初始化Redis，仅在配置了并发限制时使用
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddress(),
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			appLogger.Warnf("Redis 不可用，并发限制将放行: %v", err)
		}
		cancel()
		defer redisClient.Close()
	}

	// 设置路由
	r, err := router.SetupRouter(cfg, appLogger, db, redisClient)
	if err != nil {
		appLogger.Fatalf("初始化路由失败: %v", err)
	}

	srv := &http.Server{
		Addr:    cfg.Server.GetAddress(),
		Handler: r,
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled && cfg.Metrics.Port > 0 {
		metricsSrv = metrics.NewServer(cfg.Metrics.Port, cfg.Metrics.Path)
		go func() {
			appLogger.Infof("监控服务启动在 %s", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Errorf("监控服务异常退出: %v", err)
			}
		}()
	}

	go func() {
		appLogger.Infof("服务器启动在 %s", srv.Addr)
		if !cfg.Server.ProductionMode {
			appLogger.Infof("开发模式: 管理员账号 %s", cfg.Admin.Username)
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("启动服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(ctx)
	}
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Errorf("关闭服务器失败: %v", err)
	}
}
