package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	_ "affiliate-links/docs"
	"affiliate-links/internal/config"
	"affiliate-links/internal/events"
	"affiliate-links/internal/handler"
	"affiliate-links/internal/redirect"
	"affiliate-links/internal/seed"
	"affiliate-links/internal/service"
	"affiliate-links/internal/slug"
	"affiliate-links/internal/store"
	"affiliate-links/pkg/database"
	"affiliate-links/pkg/logger"
	"affiliate-links/pkg/redis"
	"affiliate-links/web"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
)

// @title Affiliate Links API
// @version 1.0
// @description 推广短链接管理与跳转服务
// @BasePath /
func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "配置加载失败:", err)
		os.Exit(1)
	}

	zapLogger, err := logger.InitLogger(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "日志初始化失败:", err)
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()
	sugaredLogger := zapLogger.Sugar()

	db, err := database.Open(database.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		Path:         cfg.Database.Path,
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Name:         cfg.Database.Name,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		Debug:        cfg.Database.Debug,
	})
	if err != nil {
		sugaredLogger.Fatalf("数据库初始化失败: %v", err)
	}
	sugaredLogger.Infow("✅ 数据库连接成功", "driver", cfg.Database.Driver)

	if err := store.Migrate(db); err != nil {
		sugaredLogger.Fatalf("数据库迁移失败: %v", err)
	}
	sugaredLogger.Info("✅ 数据库迁移成功")

	var publisher service.ClickPublisher
	rdb, err := redis.NewClient(&redis.Options{
		Host: cfg.Cache.Host, Port: cfg.Cache.Port, Password: cfg.Cache.Password, DB: cfg.Cache.DB,
	})
	switch {
	case err != nil:
		sugaredLogger.Warnf("Redis 连接失败, 不发布点击事件: %v", err)
	case rdb != nil:
		publisher = events.NewRedisPublisher(rdb, cfg.Cache.Channel)
		sugaredLogger.Infow("✅ 点击事件发布已启用", "channel", cfg.Cache.Channel)
	}

	linkStore := store.New(db, sugaredLogger, cfg.Database.OpTimeoutDuration())
	linkService := service.NewLinkService(linkStore, slug.NewGenerator(), publisher, sugaredLogger)
	resolver := redirect.NewResolver(linkService, sugaredLogger, cfg.Database.OpTimeoutDuration())

	if cfg.App.SeedOnStart {
		if _, err := seed.Run(context.Background(), linkService, seed.DefaultExamples, sugaredLogger.Named("seed")); err != nil {
			sugaredLogger.Errorf("示例数据写入失败: %v", err)
		}
	}

	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	templates, err := web.Templates()
	if err != nil {
		sugaredLogger.Fatalf("页面模板解析失败: %v", err)
	}
	linkHandler := handler.NewLinkHandler(linkService, resolver, cfg.App.Name, sugaredLogger)
	router := handler.NewRouter(linkHandler, templates, zapLogger)
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		sugaredLogger.Fatalf("trusted_proxies 配置无效: %v", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		sugaredLogger.Infof("🚀 服务启动成功, 访问 http://localhost:%d", cfg.Server.Port)
		sugaredLogger.Infof("📚 Swagger 文档地址: http://localhost:%d/swagger/index.html", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugaredLogger.Fatalf("服务启动失败: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				if err := server.Shutdown(ctx); err != nil {
					return err
				}
				// 后台点击写入完成后才能关闭数据库和 Redis
				resolver.Wait()
				if rdb != nil {
					if err := rdb.Close(); err != nil {
						sugaredLogger.Errorf("关闭 Redis 连接失败: %v", err)
					}
				}
				return database.Close(db)
			},
		})
	exitCode := <-wait
	sugaredLogger.Infow("👋 服务已退出", "code", exitCode)
	_ = zapLogger.Sync()
	os.Exit(exitCode)
}
