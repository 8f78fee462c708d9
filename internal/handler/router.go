package handler

import (
	"html/template"

	"affiliate-links/internal/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// NewRouter 创建 gin 引擎并挂载中间件和全部路由
func NewRouter(h *LinkHandler, templates *template.Template, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.GinZapRecovery(logger, true))
	router.Use(middleware.GinZapLogger(logger))
	router.SetHTMLTemplate(templates)

	RegisterRoutes(router, h)
	return router
}

// RegisterRoutes 注册路由, 静态路由优先于 /:slug 匹配
func RegisterRoutes(router *gin.Engine, h *LinkHandler) {
	router.GET("/", h.IndexPage)
	router.GET("/admin", h.AdminPage)
	router.GET("/health", h.HealthCheck)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	links := router.Group("/links")
	{
		links.GET("", h.ListLinks)
		links.POST("", h.CreateLink)
		links.PUT("/:id", h.UpdateLink)
		links.DELETE("/:id", h.DeleteLink)
	}

	router.GET("/:slug", h.Redirect)
}
