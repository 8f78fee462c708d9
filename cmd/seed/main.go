package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"affiliate-links/internal/config"
	"affiliate-links/internal/seed"
	"affiliate-links/internal/service"
	"affiliate-links/internal/slug"
	"affiliate-links/internal/store"
	"affiliate-links/pkg/database"
	"affiliate-links/pkg/logger"
)

// 向空库写入示例链接
func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "配置加载失败:", err)
		os.Exit(1)
	}

	zapLogger, err := logger.InitLogger(logger.Options{Level: cfg.Log.Level})
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
	})
	if err != nil {
		sugaredLogger.Fatalf("数据库初始化失败: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	if err := store.Migrate(db); err != nil {
		sugaredLogger.Fatalf("数据库迁移失败: %v", err)
	}

	linkService := service.NewLinkService(
		store.New(db, sugaredLogger, cfg.Database.OpTimeoutDuration()),
		slug.NewGenerator(), nil, sugaredLogger,
	)

	created, err := seed.Run(context.Background(), linkService, seed.DefaultExamples, sugaredLogger.Named("seed"))
	if err != nil {
		sugaredLogger.Errorf("示例数据写入失败: %v", err)
		return
	}
	sugaredLogger.Infow("🌱 示例数据写入完成", "created", len(created))
}
