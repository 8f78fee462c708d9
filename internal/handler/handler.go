package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"affiliate-links/internal/model"
	"affiliate-links/internal/redirect"
	"affiliate-links/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LinkManager 管理接口依赖的链接服务
type LinkManager interface {
	ListAll(ctx context.Context) ([]model.LinkSummary, error)
	Create(ctx context.Context, title, url, slug string) (*model.Link, error)
	CreateExact(ctx context.Context, title, url, slug string) (*model.Link, error)
	Update(ctx context.Context, id uint, title, url, slug string) (*model.Link, error)
	Delete(ctx context.Context, id uint) (bool, error)
	Ping(ctx context.Context) error
}

// SlugResolver 跳转依赖的解析器
type SlugResolver interface {
	Resolve(ctx context.Context, slug, ip string) (redirect.Result, error)
}

// LinkHandler 处理器
type LinkHandler struct {
	links    LinkManager
	resolver SlugResolver
	appName  string
	logger   *zap.SugaredLogger
}

// NewLinkHandler 创建处理器实例
func NewLinkHandler(links LinkManager, resolver SlugResolver, appName string, logger *zap.SugaredLogger) *LinkHandler {
	return &LinkHandler{
		links:    links,
		resolver: resolver,
		appName:  appName,
		logger:   logger.Named("handler"),
	}
}

// LinkForm 创建或更新链接的表单, 同时接受 JSON
type LinkForm struct {
	Title string `form:"title" json:"title" example:"Example Product 1"`
	URL   string `form:"url" json:"url" example:"https://example.com/product1"`
	Slug  string `form:"slug" json:"slug" example:"product-1"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error" example:"链接不存在"`
}

// MessageResponse 操作结果
type MessageResponse struct {
	Message string `json:"message" example:"链接已删除"`
}

// IndexPage 首页
func (h *LinkHandler) IndexPage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"title": h.appName})
}

// AdminPage 管理后台, 按创建时间倒序列出全部链接
func (h *LinkHandler) AdminPage(c *gin.Context) {
	links, err := h.links.ListAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "admin.html", gin.H{"links": links, "total": len(links)})
}

// HealthCheck godoc
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *LinkHandler) HealthCheck(c *gin.Context) {
	if err := h.links.Ping(c.Request.Context()); err != nil {
		h.logger.Warnw("健康检查失败", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "timestamp": time.Now()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

// ListLinks godoc
// @Summary 获取全部链接
// @Description 返回全部链接及点击次数, 最新创建的在前
// @Tags Links
// @Produce json
// @Success 200 {array} model.LinkSummary
// @Failure 500 {object} ErrorResponse
// @Router /links [get]
func (h *LinkHandler) ListLinks(c *gin.Context) {
	links, err := h.links.ListAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

// CreateLink godoc
// @Summary 创建链接
// @Description 未提供 slug 时由标题生成; 提供的 slug 已存在时返回 400
// @Tags Links
// @Accept x-www-form-urlencoded
// @Param title formData string true "标题"
// @Param url formData string true "目标地址"
// @Param slug formData string false "自定义 slug"
// @Success 303 "跳转到 /admin"
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /links [post]
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var form LinkForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "无效的请求数据: " + err.Error()})
		return
	}

	var (
		link *model.Link
		err  error
	)
	if form.Slug != "" {
		link, err = h.links.CreateExact(c.Request.Context(), form.Title, form.URL, form.Slug)
	} else {
		link, err = h.links.Create(c.Request.Context(), form.Title, form.URL, "")
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Infow("✅ 新增链接", "title", link.Title, "slug", link.Slug)
	c.Redirect(http.StatusSeeOther, "/admin")
}

// UpdateLink godoc
// @Summary 更新链接
// @Description slug 为空时保持不变
// @Tags Links
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Param id path int true "链接 ID"
// @Param title formData string true "标题"
// @Param url formData string true "目标地址"
// @Param slug formData string false "新的 slug"
// @Success 200 {object} model.Link
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /links/{id} [put]
func (h *LinkHandler) UpdateLink(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var form LinkForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "无效的请求数据: " + err.Error()})
		return
	}

	link, err := h.links.Update(c.Request.Context(), id, form.Title, form.URL, form.Slug)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// DeleteLink godoc
// @Summary 删除链接
// @Description 同时删除该链接的全部点击记录
// @Tags Links
// @Produce json
// @Param id path int true "链接 ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Router /links/{id} [delete]
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	deleted, err := h.links.Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "链接不存在"})
		return
	}

	h.logger.Infow("🗑 已删除链接", "id", id)
	c.JSON(http.StatusOK, MessageResponse{Message: "链接已删除"})
}

// Redirect godoc
// @Summary 短链接跳转
// @Description 302 跳转到目标地址并记录一次点击
// @Tags Redirect
// @Param slug path string true "slug"
// @Success 302 "跳转到目标地址"
// @Failure 404 {object} ErrorResponse
// @Router /{slug} [get]
func (h *LinkHandler) Redirect(c *gin.Context) {
	slug := c.Param("slug")
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}

	result, err := h.resolver.Resolve(c.Request.Context(), slug, ip)
	if errors.Is(err, redirect.ErrLinkNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "链接不存在"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Debugw("➡️ 跳转", "slug", slug, "url", result.URL, "ip", ip)
	c.Redirect(http.StatusFound, result.URL)
}

// fail 把服务层错误映射为 HTTP 状态码
func (h *LinkHandler) fail(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ve.Error()})
	case errors.Is(err, service.ErrDuplicateSlug):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "slug 已存在"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "链接不存在"})
	default:
		h.logger.Errorw("请求处理失败", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "服务器内部错误"})
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "无效的链接 ID"})
		return 0, false
	}
	return uint(id), true
}
