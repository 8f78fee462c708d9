package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"affiliate-links/internal/events"
	"affiliate-links/internal/model"
	"affiliate-links/internal/slug"
	"affiliate-links/internal/store"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// 与存储层共用的错误类型
var (
	ErrNotFound      = store.ErrNotFound
	ErrDuplicateSlug = store.ErrDuplicateSlug
	ErrUnavailable   = store.ErrUnavailable
)

const (
	// 预检冲突时追加的数字后缀长度
	retrySuffixLength = 3
	// 插入仍冲突时重新生成 slug 的数字后缀长度
	fallbackSuffixLength = 4
)

// LinkStore 服务依赖的存储操作
type LinkStore interface {
	ListLinks(ctx context.Context) ([]model.LinkSummary, error)
	CountLinks(ctx context.Context) (int64, error)
	GetLinkBySlug(ctx context.Context, slug string) (*model.Link, error)
	GetLinkByID(ctx context.Context, id uint) (*model.Link, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	InsertLink(ctx context.Context, title, url, slug string) (*model.Link, error)
	UpdateLink(ctx context.Context, id uint, title, url, slug string) (*model.Link, error)
	DeleteLink(ctx context.Context, id uint) (bool, error)
	InsertClick(ctx context.Context, linkID uint, ip string) (*model.Click, bool)
	Ping(ctx context.Context) error
}

// SlugGenerator slug 生成
type SlugGenerator interface {
	Make(text string) string
	Random(length int) string
	Digits(length int) string
}

// ClickPublisher 点击事件发布, 可选
type ClickPublisher interface {
	PublishClick(ctx context.Context, event events.ClickEvent) error
}

// LinkService 链接的增删改查与点击记录
type LinkService struct {
	store     LinkStore
	slugs     SlugGenerator
	publisher ClickPublisher
	validate  *validator.Validate
	logger    *zap.SugaredLogger
}

// NewLinkService 创建服务, publisher 为 nil 时不发布点击事件
func NewLinkService(s LinkStore, slugs SlugGenerator, publisher ClickPublisher, logger *zap.SugaredLogger) *LinkService {
	return &LinkService{
		store:     s,
		slugs:     slugs,
		publisher: publisher,
		validate:  newValidator(),
		logger:    logger.Named("service"),
	}
}

// Create 创建链接
//
// slug 为空时由标题生成。预检发现冲突则追加随机数字后缀;
// 插入时仍冲突 (并发插入) 则由标题重新生成带后缀的 slug 再插入一次,
// 还失败就返回 ErrDuplicateSlug。
func (s *LinkService) Create(ctx context.Context, title, url, wantSlug string) (*model.Link, error) {
	in, err := s.normalize(title, url, wantSlug)
	if err != nil {
		return nil, err
	}

	candidate := in.Slug
	if candidate == "" {
		candidate = s.deriveSlug(in.Title)
	}

	exists, err := s.store.SlugExists(ctx, candidate)
	if err != nil {
		return nil, err
	}
	// 由标题生成的 slug 与固定路由同名时按冲突处理
	if exists || slug.IsReserved(candidate) {
		candidate = slug.WithSuffix(candidate, s.slugs.Digits(retrySuffixLength))
	}

	link, err := s.store.InsertLink(ctx, in.Title, in.URL, candidate)
	if !errors.Is(err, ErrDuplicateSlug) {
		return link, err
	}

	fallback := slug.WithSuffix(s.deriveSlug(in.Title), s.slugs.Digits(fallbackSuffixLength))
	s.logger.Infow("slug 插入冲突, 使用备用 slug 重试", "slug", candidate, "fallback", fallback)
	return s.store.InsertLink(ctx, in.Title, in.URL, fallback)
}

// CreateExact 使用给定的 slug 创建链接, 冲突时直接返回 ErrDuplicateSlug
func (s *LinkService) CreateExact(ctx context.Context, title, url, wantSlug string) (*model.Link, error) {
	in, err := s.normalize(title, url, wantSlug)
	if err != nil {
		return nil, err
	}
	if in.Slug == "" {
		return nil, &ValidationError{Field: "slug", Msg: "不能为空"}
	}
	return s.store.InsertLink(ctx, in.Title, in.URL, in.Slug)
}

// Update 更新链接, slug 为空时保持不变
func (s *LinkService) Update(ctx context.Context, id uint, title, url, wantSlug string) (*model.Link, error) {
	in, err := s.normalize(title, url, wantSlug)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateLink(ctx, id, in.Title, in.URL, in.Slug)
}

// Delete 删除链接及其点击记录, 链接不存在时返回 false
func (s *LinkService) Delete(ctx context.Context, id uint) (bool, error) {
	return s.store.DeleteLink(ctx, id)
}

// Get 按 ID 查找
func (s *LinkService) Get(ctx context.Context, id uint) (*model.Link, error) {
	return s.store.GetLinkByID(ctx, id)
}

// GetBySlug 按 slug 查找, 忽略大小写
func (s *LinkService) GetBySlug(ctx context.Context, slugValue string) (*model.Link, error) {
	return s.store.GetLinkBySlug(ctx, strings.ToLower(slugValue))
}

// ListAll 全部链接及点击数, 最新的在前
func (s *LinkService) ListAll(ctx context.Context) ([]model.LinkSummary, error) {
	return s.store.ListLinks(ctx)
}

// Count 链接总数
func (s *LinkService) Count(ctx context.Context) (int64, error) {
	return s.store.CountLinks(ctx)
}

// Ping 检查存储是否可用
func (s *LinkService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// RecordClick 记录一次点击
//
// 任何失败 (包括 panic) 只写日志, 不影响调用方。
func (s *LinkService) RecordClick(ctx context.Context, linkID uint, ip string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("记录点击时发生 panic", "link_id", linkID, "panic", fmt.Sprint(r))
		}
	}()

	if ip == "" {
		ip = "unknown"
	}
	click, ok := s.store.InsertClick(ctx, linkID, ip)
	if !ok || s.publisher == nil {
		return
	}

	event := events.ClickEvent{LinkID: click.LinkID, IP: click.IP, CreatedAt: click.CreatedAt}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if err := s.publisher.PublishClick(ctx, event); err != nil {
		s.logger.Warnw("点击事件发布失败", "link_id", linkID, "error", err)
	}
}

// deriveSlug 标题不含字母数字时使用纯随机 slug
func (s *LinkService) deriveSlug(title string) string {
	if slug.Clean(title) == "" {
		return s.slugs.Random(slug.DefaultRandomLength)
	}
	return s.slugs.Make(title)
}
