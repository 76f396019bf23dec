package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/cms-api/internal/config"
	"github.com/nsxzhou1114/cms-api/internal/controller"
	"github.com/nsxzhou1114/cms-api/internal/middleware"
	"github.com/nsxzhou1114/cms-api/internal/service"
	"github.com/nsxzhou1114/cms-api/pkg/auth"
	"go.uber.org/zap"
)

// routes 路由依赖
type routes struct {
	svc       *service.Services
	cfg       *config.Config
	log       *zap.SugaredLogger
	jwtAuth   gin.HandlerFunc
	adminAuth gin.HandlerFunc
	optional  gin.HandlerFunc
}

// Setup 设置API路由
func Setup(r *gin.Engine, svc *service.Services, cfg *config.Config, tokens *auth.Manager, log *zap.SugaredLogger) {
	// 本地存储时提供上传文件的静态访问
	if cfg.Storage.Type == "local" {
		r.Static(cfg.Storage.Local.URLPrefix, cfg.Storage.Local.Path)
	}

	buffer := time.Duration(cfg.JWT.BufferSeconds) * time.Second
	rt := &routes{
		svc:       svc,
		cfg:       cfg,
		log:       log,
		jwtAuth:   middleware.JWTAuth(tokens, buffer),
		adminAuth: middleware.AdminAuth(tokens, buffer),
		optional:  middleware.OptionalAuth(tokens),
	}

	// API 路由组
	api := r.Group("/api")

	rt.setupUserRoutes(api)
	rt.setupTagRoutes(api)
	rt.setupCategoryRoutes(api)
	rt.setupArticleRoutes(api)
	rt.setupImageRoutes(api)
	rt.setupSitemapRoutes(r)
}

// setupUserRoutes 设置用户相关路由
func (rt *routes) setupUserRoutes(api *gin.RouterGroup) {
	userApi := controller.NewUserApi(rt.svc, rt.log)

	userRoutes := api.Group("/users")
	{
		// 注册
		userRoutes.POST("/signup", userApi.Signup)
		// 登录
		userRoutes.POST("/login", userApi.Login)
		// 刷新令牌
		userRoutes.POST("/refresh", userApi.RefreshToken)
	}

	authUserRoutes := api.Group("/users", rt.jwtAuth)
	{
		// 获取当前用户信息
		authUserRoutes.GET("/me", userApi.Me)
		// 登出
		authUserRoutes.POST("/logout", userApi.Logout)
	}
}

// setupTagRoutes 设置标签相关路由
func (rt *routes) setupTagRoutes(api *gin.RouterGroup) {
	tagApi := controller.NewTagApi(rt.svc, rt.log)

	tagRoutes := api.Group("/tags")
	{
		tagRoutes.GET("", tagApi.List)
		tagRoutes.GET("/:value", tagApi.Get)
		tagRoutes.GET("/:value/articles", tagApi.Articles)
	}

	adminTagRoutes := api.Group("/tags", rt.adminAuth)
	{
		adminTagRoutes.POST("", tagApi.Create)
		adminTagRoutes.PUT("/:value", tagApi.Update)
		adminTagRoutes.DELETE("/:value", tagApi.Delete)
	}
}

// setupCategoryRoutes 设置分类相关路由
func (rt *routes) setupCategoryRoutes(api *gin.RouterGroup) {
	categoryApi := controller.NewCategoryApi(rt.svc, rt.log)

	categoryRoutes := api.Group("/categories")
	{
		categoryRoutes.GET("", categoryApi.List)
		categoryRoutes.GET("/:value", categoryApi.Get)
		categoryRoutes.GET("/:value/articles", categoryApi.Articles)
	}

	adminCategoryRoutes := api.Group("/categories", rt.adminAuth)
	{
		adminCategoryRoutes.POST("", categoryApi.Create)
		adminCategoryRoutes.PUT("/:value", categoryApi.Update)
		adminCategoryRoutes.DELETE("/:value", categoryApi.Delete)
	}
}

// setupArticleRoutes 设置文章相关路由
func (rt *routes) setupArticleRoutes(api *gin.RouterGroup) {
	articleApi := controller.NewArticleApi(rt.svc, rt.cfg.Metric, rt.log)

	// 公开路由，管理员登录后可见非审核通过的文章
	articleRoutes := api.Group("/articles", rt.optional)
	{
		articleRoutes.GET("", articleApi.List)
		articleRoutes.GET("/slugs", articleApi.Slugs)
		articleRoutes.GET("/suggestions", articleApi.Suggestions)
		// 获取文章详情，同时记录浏览
		articleRoutes.GET("/:value", articleApi.GetDetail)
		articleRoutes.GET("/:value/related", articleApi.Related)
		// 记录分享
		articleRoutes.PUT("/:value/share", articleApi.Share)
	}

	adminArticleRoutes := api.Group("/articles", rt.adminAuth)
	{
		adminArticleRoutes.POST("", articleApi.Create)
		adminArticleRoutes.PUT("/:value", articleApi.Update)
		adminArticleRoutes.PUT("/:value/status", articleApi.UpdateStatus)
		adminArticleRoutes.PUT("/:value/category", articleApi.UpdateCategory)
		adminArticleRoutes.DELETE("/:value", articleApi.Delete)
		adminArticleRoutes.PUT("/:value/restore", articleApi.Restore)
		adminArticleRoutes.POST("/:value/tags/:tagId", articleApi.AttachTag)
	}
}

// setupImageRoutes 设置图片相关路由
func (rt *routes) setupImageRoutes(api *gin.RouterGroup) {
	imageApi := controller.NewImageApi(rt.svc, rt.log)

	imageRoutes := api.Group("/images")
	{
		imageRoutes.GET("", imageApi.ListByOwner)
		imageRoutes.GET("/:id", imageApi.Get)
		// 登录用户更换自己的头像
		imageRoutes.PUT("/user", rt.jwtAuth, imageApi.ReplaceUserImage)
	}

	adminImageRoutes := api.Group("/images", rt.adminAuth)
	{
		adminImageRoutes.POST("", imageApi.Upload)
		adminImageRoutes.DELETE("", imageApi.DeleteByOwner)
		adminImageRoutes.DELETE("/permanent", imageApi.DeletePermanently)
	}
}

// setupSitemapRoutes 站点地图挂在根路径
func (rt *routes) setupSitemapRoutes(r *gin.Engine) {
	sitemapApi := controller.NewSitemapApi(rt.svc, rt.log)
	r.GET("/sitemap.xml", sitemapApi.Get)
}
