package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options 数据库连接参数
type Options struct {
	Driver       string
	DSN          string
	Path         string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	MaxOpenConns int
	Debug        bool
}

// Open 按驱动打开数据库连接
//
// sqlite 只保留一个连接, 所有读写在连接上串行执行, 同时开启外键约束;
// mysql 使用普通连接池。
func Open(opts Options) (*gorm.DB, error) {
	logLevel := logger.Silent
	if opts.Debug {
		logLevel = logger.Info
	}
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// 把唯一约束冲突翻译成 gorm.ErrDuplicatedKey
		TranslateError: true,
	}

	var (
		connection *gorm.DB
		err        error
	)
	switch opts.Driver {
	case "sqlite":
		connection, err = openSQLite(opts, gormConfig)
	case "mysql":
		connection, err = gorm.Open(mysql.Open(mysqlDSN(opts)), gormConfig)
		if err == nil {
			err = configurePool(connection, opts.MaxOpenConns, time.Hour)
		}
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %q", opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	return connection, nil
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func openSQLite(opts Options, gormConfig *gorm.Config) (*gorm.DB, error) {
	dsn := opts.DSN
	if dsn == "" {
		if opts.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
				return nil, err
			}
		}
		dsn = SQLiteDSN(opts.Path)
	}

	connection, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, err
	}
	// 内存库随连接销毁, 连接不设置过期
	if err := configurePool(connection, 1, 0); err != nil {
		return nil, err
	}
	if err := connection.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}
	return connection, nil
}

// SQLiteDSN 为 sqlite 文件路径附加外键和忙等待参数
func SQLiteDSN(path string) string {
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

func mysqlDSN(opts Options) string {
	if opts.DSN != "" {
		if !strings.Contains(opts.DSN, "parseTime") {
			sep := "?"
			if strings.Contains(opts.DSN, "?") {
				sep = "&"
			}
			return opts.DSN + sep + "parseTime=True"
		}
		return opts.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		opts.User, opts.Password, opts.Host, opts.Port, opts.Name)
}

func configurePool(connection *gorm.DB, maxOpen int, lifetime time.Duration) error {
	sqlDB, err := connection.DB()
	if err != nil {
		return err
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen)
	}
	sqlDB.SetConnMaxLifetime(lifetime)
	return nil
}
