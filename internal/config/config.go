package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 主配置结构
type Config struct {
	App      App      `yaml:"app"`
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Cache    Cache    `yaml:"cache"`
	Log      Log      `yaml:"log"`
}

// 应用配置
type App struct {
	Name        string `yaml:"name"`
	Mode        string `yaml:"mode"`
	Version     string `yaml:"version"`
	SeedOnStart bool   `yaml:"seed_on_start"`
}

// 服务器配置, 超时单位为秒
type Server struct {
	Port            int      `yaml:"port"`
	ReadTimeout     int      `yaml:"read_timeout"`
	WriteTimeout    int      `yaml:"write_timeout"`
	ShutdownTimeout int      `yaml:"shutdown_timeout"`
	TrustedProxies  []string `yaml:"trusted_proxies"`
}

// 数据库配置
type Database struct {
	Driver       string `yaml:"driver"` // sqlite 或 mysql
	DSN          string `yaml:"dsn"`    // 非空时优先于下面的字段
	Path         string `yaml:"path"`   // sqlite 文件路径
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	OpTimeout    int    `yaml:"op_timeout"` // 单次存储操作超时 (秒)
	Debug        bool   `yaml:"debug"`
}

// 缓存配置 (Redis), 仅用于点击事件发布
type Cache struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// 日志配置
type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Default 返回内置默认配置
func Default() *Config {
	return &Config{
		App: App{Name: "affiliate-links", Mode: "development", Version: "1.0.0"},
		Server: Server{
			Port:            8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			ShutdownTimeout: 30,
		},
		Database: Database{
			Driver:       "sqlite",
			Path:         "data/affiliate.db",
			Port:         3306,
			MaxOpenConns: 10,
			OpTimeout:    5,
		},
		Cache: Cache{Port: 6379, Channel: "link:clicks"},
		Log: Log{
			Level:      "info",
			File:       "./logs/app.log",
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
		},
	}
}

// 加载配置: 默认值 <- YAML 文件 (不存在时跳过) <- .env / 环境变量
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("配置文件解析失败: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("配置文件读取失败: %w", err)
	}

	_ = godotenv.Load() // .env 不存在时忽略
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置是否合法
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.DSN == "" && c.Database.Path == "" {
			return errors.New("sqlite 需要配置 database.path 或 database.dsn")
		}
	case "mysql":
		if c.Database.DSN == "" && c.Database.Host == "" {
			return errors.New("mysql 需要配置 database.host 或 database.dsn")
		}
	default:
		return fmt.Errorf("不支持的数据库驱动: %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("无效的端口: %d", c.Server.Port)
	}
	if c.Database.OpTimeout <= 0 {
		return errors.New("database.op_timeout 必须大于 0")
	}
	return nil
}

// OpTimeoutDuration 单次存储操作的超时时间
func (d Database) OpTimeoutDuration() time.Duration {
	return time.Duration(d.OpTimeout) * time.Second
}

func (c *Config) applyEnv() error {
	str := func(key string, target *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*target = v
		}
	}
	num := func(key string, target *int) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("环境变量 %s 不是整数: %q", key, v)
		}
		*target = n
		return nil
	}

	str("APP_MODE", &c.App.Mode)
	str("DB_DRIVER", &c.Database.Driver)
	str("DB_DSN", &c.Database.DSN)
	str("DB_PATH", &c.Database.Path)
	str("REDIS_HOST", &c.Cache.Host)
	str("LOG_LEVEL", &c.Log.Level)
	if err := num("SERVER_PORT", &c.Server.Port); err != nil {
		return err
	}
	if err := num("REDIS_PORT", &c.Cache.Port); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("SEED_ON_START"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("环境变量 SEED_ON_START 不是布尔值: %q", v)
		}
		c.App.SeedOnStart = b
	}
	return nil
}
