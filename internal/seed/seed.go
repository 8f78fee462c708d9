package seed

import (
	"context"
	"fmt"

	"affiliate-links/internal/model"

	"go.uber.org/zap"
)

// Example 一条示例链接
type Example struct {
	Title string
	URL   string
}

// DefaultExamples 首次运行时写入的示例链接
var DefaultExamples = []Example{
	{Title: "Example Product 1", URL: "https://example.com/product1"},
	{Title: "Example Product 2", URL: "https://example.com/product2"},
	{Title: "Learn FastAPI", URL: "https://fastapi.tiangolo.com/"},
}

// Creator 写入示例所需的服务方法
type Creator interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, title, url, slug string) (*model.Link, error)
}

// Run 仅在库中没有任何链接时按顺序创建示例, 返回创建的链接
func Run(ctx context.Context, svc Creator, examples []Example, logger *zap.SugaredLogger) ([]*model.Link, error) {
	count, err := svc.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("统计链接失败: %w", err)
	}
	if count > 0 {
		logger.Infow("已有链接, 跳过示例数据", "count", count)
		return nil, nil
	}

	created := make([]*model.Link, 0, len(examples))
	for _, ex := range examples {
		link, err := svc.Create(ctx, ex.Title, ex.URL, "")
		if err != nil {
			return created, fmt.Errorf("创建示例链接 %q 失败: %w", ex.Title, err)
		}
		logger.Infow("✅ 已创建示例链接", "title", link.Title, "slug", link.Slug)
		created = append(created, link)
	}
	return created, nil
}
