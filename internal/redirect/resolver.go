package redirect

import (
	"context"
	"errors"
	"sync"
	"time"

	"affiliate-links/internal/model"
	"affiliate-links/internal/store"

	"go.uber.org/zap"
)

// ErrLinkNotFound slug 不存在
var ErrLinkNotFound = errors.New("链接不存在")

// DefaultClickTimeout 后台写点击记录的超时
const DefaultClickTimeout = 5 * time.Second

// State 一次跳转解析所处的状态
type State int

const (
	Resolving State = iota
	Found
	NotFound
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Result 解析结果
type Result struct {
	State  State
	LinkID uint
	URL    string
}

// Links 解析所需的链接服务
type Links interface {
	GetBySlug(ctx context.Context, slug string) (*model.Link, error)
	RecordClick(ctx context.Context, linkID uint, ip string)
}

// Resolver 把 slug 解析为目标地址, 命中时在后台记录点击
type Resolver struct {
	links        Links
	logger       *zap.SugaredLogger
	clickTimeout time.Duration
	wg           sync.WaitGroup
}

// NewResolver 创建解析器, clickTimeout <= 0 时使用默认值
func NewResolver(links Links, logger *zap.SugaredLogger, clickTimeout time.Duration) *Resolver {
	if clickTimeout <= 0 {
		clickTimeout = DefaultClickTimeout
	}
	return &Resolver{
		links:        links,
		logger:       logger.Named("redirect"),
		clickTimeout: clickTimeout,
	}
}

// Resolve 查找 slug, 不存在时返回 ErrLinkNotFound, 不重试
//
// 点击记录不阻塞返回, 使用与请求解耦的上下文, 请求结束后仍会写入。
func (r *Resolver) Resolve(ctx context.Context, slug, ip string) (Result, error) {
	link, err := r.links.GetBySlug(ctx, slug)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Result{State: NotFound}, ErrLinkNotFound
	case err != nil:
		return Result{State: Resolving}, err
	}

	clickCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.clickTimeout)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		r.links.RecordClick(clickCtx, link.ID, ip)
	}()

	return Result{State: Found, LinkID: link.ID, URL: link.URL}, nil
}

// Wait 等待所有后台点击写入完成
func (r *Resolver) Wait() {
	r.wg.Wait()
}
