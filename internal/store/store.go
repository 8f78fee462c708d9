package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"affiliate-links/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound 链接不存在
	ErrNotFound = errors.New("链接不存在")
	// ErrDuplicateSlug slug 已被占用
	ErrDuplicateSlug = errors.New("slug 已存在")
	// ErrUnavailable 底层存储不可用 (连接失败, 超时等)
	ErrUnavailable = errors.New("存储不可用")
)

// DefaultOpTimeout 单次操作默认超时
const DefaultOpTimeout = 5 * time.Second

// Store 基于 gorm 的链接与点击记录存储
//
// 每个操作都在自己的超时上下文中获取连接, 返回前提交或回滚,
// 不会跨调用持有连接。
type Store struct {
	db        *gorm.DB
	logger    *zap.SugaredLogger
	opTimeout time.Duration
}

// New 创建存储实例, opTimeout <= 0 时使用默认值
func New(db *gorm.DB, logger *zap.SugaredLogger, opTimeout time.Duration) *Store {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return &Store{
		db:        db,
		logger:    logger.Named("store"),
		opTimeout: opTimeout,
	}
}

// Migrate 建表, 已存在的数据保持不变
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Link{}, &model.Click{}); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	return nil
}

// Ping 检查数据库连接
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap(err)
	}
	return wrap(sqlDB.PingContext(ctx))
}

// ListLinks 返回全部链接及其点击次数, 按创建时间倒序
func (s *Store) ListLinks(ctx context.Context) ([]model.LinkSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	links := make([]model.LinkSummary, 0)
	err := s.db.WithContext(ctx).
		Model(&model.Link{}).
		Select("links.id, links.title, links.url, links.slug, links.created_at, COUNT(clicks.id) AS clicks").
		Joins("LEFT JOIN clicks ON clicks.link_id = links.id").
		Group("links.id, links.title, links.url, links.slug, links.created_at").
		Order("links.created_at DESC, links.id DESC").
		Scan(&links).Error
	if err != nil {
		return nil, wrap(err)
	}
	return links, nil
}

// CountLinks 返回链接总数
func (s *Store) CountLinks(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Link{}).Count(&count).Error; err != nil {
		return 0, wrap(err)
	}
	return count, nil
}

// GetLinkBySlug 按 slug 查找链接, 不存在时返回 ErrNotFound
func (s *Store) GetLinkBySlug(ctx context.Context, slug string) (*model.Link, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var link model.Link
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&link).Error; err != nil {
		return nil, wrap(err)
	}
	return &link, nil
}

// GetLinkByID 按 ID 查找链接, 不存在时返回 ErrNotFound
func (s *Store) GetLinkByID(ctx context.Context, id uint) (*model.Link, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var link model.Link
	if err := s.db.WithContext(ctx).First(&link, id).Error; err != nil {
		return nil, wrap(err)
	}
	return &link, nil
}

// SlugExists 检查 slug 是否已被占用
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Link{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, wrap(err)
	}
	return count > 0, nil
}

// InsertLink 插入新链接, slug 冲突由唯一索引原子判定并返回 ErrDuplicateSlug
func (s *Store) InsertLink(ctx context.Context, title, url, slug string) (*model.Link, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	link := &model.Link{Title: title, URL: url, Slug: slug}
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		return nil, wrap(err)
	}
	return link, nil
}

// UpdateLink 更新标题和地址, slug 仅在非空时替换
func (s *Store) UpdateLink(ctx context.Context, id uint, title, url, slug string) (*model.Link, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var link model.Link
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&link, id).Error; err != nil {
			return err
		}

		updates := map[string]any{"title": title, "url": url}
		if slug != "" {
			updates["slug"] = slug
		}
		if err := tx.Model(&link).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&link, id).Error
	})
	if err != nil {
		return nil, wrap(err)
	}
	return &link, nil
}

// DeleteLink 删除链接及其全部点击记录, 链接不存在时返回 false
func (s *Store) DeleteLink(ctx context.Context, id uint) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 外键上已有 ON DELETE CASCADE, 这里显式删除以兼容未开启外键的连接
		if err := tx.Where("link_id = ?", id).Delete(&model.Click{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Link{}, id)
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, wrap(err)
	}
	return deleted, nil
}

// InsertClick 追加一条点击记录
//
// 失败只记录日志不向上返回, 点击统计不能影响跳转。
// 返回值表示记录是否已写入。
func (s *Store) InsertClick(ctx context.Context, linkID uint, ip string) (*model.Click, bool) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	click := &model.Click{LinkID: linkID, IP: ip}
	if err := s.db.WithContext(ctx).Create(click).Error; err != nil {
		s.logger.Warnw("点击记录写入失败", "link_id", linkID, "ip", ip, "error", err)
		return nil, false
	}
	return click, true
}

// CountClicks 返回某条链接的点击次数
func (s *Store) CountClicks(ctx context.Context, linkID uint) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Click{}).Where("link_id = ?", linkID).Count(&count).Error; err != nil {
		return 0, wrap(err)
	}
	return count, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// wrap 把 gorm 错误映射为本包的错误类型
func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateSlug
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}
