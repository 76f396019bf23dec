package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/cms-api/internal/config"
	"github.com/nsxzhou1114/cms-api/internal/dto"
	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/nsxzhou1114/cms-api/internal/service"
	"github.com/nsxzhou1114/cms-api/pkg/response"
	"go.uber.org/zap"
)

// ArticleApi 文章控制器
type ArticleApi struct {
	logger      *zap.SugaredLogger
	articles    *service.ArticleService
	related     *service.RelatedService
	metrics     *service.MetricService
	articleTags *service.ArticleTagService
	cookie      config.MetricConfig
}

// NewArticleApi 创建文章控制器实例
func NewArticleApi(svc *service.Services, cookie config.MetricConfig, log *zap.SugaredLogger) *ArticleApi {
	return &ArticleApi{
		logger:      log,
		articles:    svc.Articles,
		related:     svc.Related,
		metrics:     svc.Metrics,
		articleTags: svc.ArticleTags,
		cookie:      cookie,
	}
}

// List 文章列表，非管理员只能看到已审核文章
func (api *ArticleApi) List(c *gin.Context) {
	var q dto.ArticleListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	if !isAdmin(c) {
		q.Status = model.ArticleStatusApproved
	}

	articles, total, err := api.articles.List(c.Request.Context(), &q)
	if err != nil {
		handleError(c, api.logger, "获取文章列表", err)
		return
	}

	page, size := pageOf(&q)
	response.SuccessPage(c, "获取成功", toArticleList(articles), page, size, total)
}

// Slugs 全部已审核文章的slug
func (api *ArticleApi) Slugs(c *gin.Context) {
	slugs, err := api.articles.Slugs(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, "获取文章slug", err)
		return
	}
	response.Success(c, "获取成功", slugs)
}

// Suggestions 标题联想
func (api *ArticleApi) Suggestions(c *gin.Context) {
	titles, err := api.articles.Suggestions(c.Request.Context(), c.Query("q"))
	if err != nil {
		handleError(c, api.logger, "获取联想", err)
		return
	}
	response.Success(c, "获取成功", titles)
}

// GetDetail 文章详情，同时记录一次浏览
func (api *ArticleApi) GetDetail(c *gin.Context) {
	ctx := c.Request.Context()
	article, err := api.articles.Get(ctx, c.Param("value"), isAdmin(c))
	if err != nil {
		handleError(c, api.logger, "获取文章", err)
		return
	}

	api.record(c, model.MetricView, article.ID)

	response.Success(c, "获取成功", article)
}

// Related 相关文章
func (api *ArticleApi) Related(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := api.articles.Resolve(ctx, c.Param("value"), false)
	if err != nil {
		handleError(c, api.logger, "获取相关文章", err)
		return
	}

	articles, err := api.related.ForArticle(ctx, id)
	if err != nil {
		handleError(c, api.logger, "获取相关文章", err)
		return
	}
	response.Success(c, "获取成功", toRelatedArticles(articles))
}

// Share 记录一次分享
func (api *ArticleApi) Share(c *gin.Context) {
	id, err := api.articles.Resolve(c.Request.Context(), c.Param("value"), false)
	if err != nil {
		handleError(c, api.logger, "记录分享", err)
		return
	}

	visitorUUID, ok := api.record(c, model.MetricShare, id)
	if !ok {
		response.InternalServerError(c, "记录分享失败", nil)
		return
	}
	response.Success(c, "分享成功", dto.MetricResponse{UUID: visitorUUID})
}

// record 记录浏览/分享并回写访客cookie，失败只记录日志
func (api *ArticleApi) record(c *gin.Context, kind model.MetricKind, articleID uint) (string, bool) {
	previous, _ := c.Cookie(kind.CookieName())
	id, err := api.metrics.Record(c.Request.Context(), kind, service.RecordMetricInput{
		ArticleID:   articleID,
		VisitorUUID: previous,
		VisitorIP:   c.ClientIP(),
	})
	if err != nil {
		api.logger.Warnf("记录%s失败: articleID=%d, err=%v", kind, articleID, err)
		return "", false
	}

	api.setVisitorCookie(c, kind.CookieName(), id)
	return id, true
}

func (api *ArticleApi) setVisitorCookie(c *gin.Context, name, value string) {
	switch strings.ToLower(api.cookie.SameSite) {
	case "strict":
		c.SetSameSite(http.SameSiteStrictMode)
	case "none":
		c.SetSameSite(http.SameSiteNoneMode)
	default:
		c.SetSameSite(http.SameSiteLaxMode)
	}
	maxAge := int(api.cookie.Window().Seconds())
	c.SetCookie(name, value, maxAge, "/", api.cookie.CookieDomain, api.cookie.CookieSecure, true)
}

// Create 创建文章
func (api *ArticleApi) Create(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "请先登录", err)
		return
	}

	var req dto.ArticleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	article, err := api.articles.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, api.logger, "创建文章", err)
		return
	}
	response.Success(c, "创建成功", article)
}

// Update 更新文章
func (api *ArticleApi) Update(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := api.articles.Resolve(ctx, c.Param("value"), false)
	if err != nil {
		handleError(c, api.logger, "更新文章", err)
		return
	}

	var req dto.ArticleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	article, err := api.articles.Update(ctx, id, &req)
	if err != nil {
		handleError(c, api.logger, "更新文章", err)
		return
	}
	response.Success(c, "更新成功", article)
}

// UpdateStatus 更新文章状态
func (api *ArticleApi) UpdateStatus(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := api.articles.Resolve(ctx, c.Param("value"), false)
	if err != nil {
		handleError(c, api.logger, "更新文章状态", err)
		return
	}

	var req dto.ArticleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := api.articles.UpdateStatus(ctx, id, req.Status); err != nil {
		handleError(c, api.logger, "更新文章状态", err)
		return
	}
	response.Success(c, "更新成功", nil)
}

// UpdateCategory 修改文章分类
func (api *ArticleApi) UpdateCategory(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := api.articles.Resolve(ctx, c.Param("value"), false)
	if err != nil {
		handleError(c, api.logger, "修改文章分类", err)
		return
	}

	var req dto.ArticleCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := api.articles.UpdateCategory(ctx, id, req.CategoryID); err != nil {
		handleError(c, api.logger, "修改文章分类", err)
		return
	}
	response.Success(c, "更新成功", nil)
}

// Delete 删除文章
func (api *ArticleApi) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := api.articles.Resolve(ctx, c.Param("value"), false)
	if err != nil {
		handleError(c, api.logger, "删除文章", err)
		return
	}

	if err := api.articles.Delete(ctx, id); err != nil {
		handleError(c, api.logger, "删除文章", err)
		return
	}
	response.Success(c, "删除成功", nil)
}

// Restore 恢复已删除的文章
func (api *ArticleApi) Restore(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := api.articles.Resolve(ctx, c.Param("value"), true)
	if err != nil {
		handleError(c, api.logger, "恢复文章", err)
		return
	}

	article, err := api.articles.Restore(ctx, id)
	if err != nil {
		handleError(c, api.logger, "恢复文章", err)
		return
	}
	response.Success(c, "恢复成功", article)
}

// AttachTag 为文章关联标签
func (api *ArticleApi) AttachTag(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := api.articles.Resolve(ctx, c.Param("value"), false)
	if err != nil {
		handleError(c, api.logger, "关联标签", err)
		return
	}
	tagID, ok := parseID(c, "tagId")
	if !ok {
		return
	}

	link, err := api.articleTags.Attach(ctx, id, tagID)
	if err != nil {
		handleError(c, api.logger, "关联标签", err)
		return
	}
	response.Success(c, "关联成功", link)
}
