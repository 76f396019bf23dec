package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/cms-api/internal/dto"
	"github.com/nsxzhou1114/cms-api/internal/service"
	"github.com/nsxzhou1114/cms-api/pkg/response"
	"go.uber.org/zap"
)

// TagApi 标签API控制器
type TagApi struct {
	logger     *zap.SugaredLogger
	tagService *service.TagService
}

// NewTagApi 创建标签API控制器
func NewTagApi(svc *service.Services, log *zap.SugaredLogger) *TagApi {
	return &TagApi{logger: log, tagService: svc.Tags}
}

// Create 创建标签
func (api *TagApi) Create(c *gin.Context) {
	var req dto.TagCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tag, err := api.tagService.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, "创建标签", err)
		return
	}

	response.Success(c, "创建成功", gin.H{"tag": toTagResponse(tag)})
}

// Update 更新标签
func (api *TagApi) Update(c *gin.Context) {
	id, ok := parseID(c, "value")
	if !ok {
		return
	}

	var req dto.TagUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tag, err := api.tagService.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, api.logger, "更新标签", err)
		return
	}

	response.Success(c, "更新成功", gin.H{"tag": toTagResponse(tag)})
}

// Delete 删除标签
func (api *TagApi) Delete(c *gin.Context) {
	id, ok := parseID(c, "value")
	if !ok {
		return
	}

	if err := api.tagService.Delete(c.Request.Context(), id); err != nil {
		handleError(c, api.logger, "删除标签", err)
		return
	}

	response.Success(c, "删除成功", nil)
}

// Get 根据ID或名称获取标签
func (api *TagApi) Get(c *gin.Context) {
	tag, err := api.tagService.Get(c.Request.Context(), c.Param("value"))
	if err != nil {
		handleError(c, api.logger, "获取标签", err)
		return
	}

	response.Success(c, "获取成功", gin.H{"tag": toTagResponse(tag)})
}

// List 标签列表
func (api *TagApi) List(c *gin.Context) {
	tags, err := api.tagService.List(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, "获取标签列表", err)
		return
	}

	list := make([]dto.TagResponse, 0, len(tags))
	for i := range tags {
		list = append(list, toTagResponse(&tags[i]))
	}
	response.Success(c, "获取成功", list)
}

// Articles 标签下的文章
func (api *TagApi) Articles(c *gin.Context) {
	var q dto.ArticleListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	articles, total, err := api.tagService.Articles(c.Request.Context(), c.Param("value"), &q)
	if err != nil {
		handleError(c, api.logger, "获取标签文章", err)
		return
	}

	page, size := pageOf(&q)
	response.SuccessPage(c, "获取成功", toArticleList(articles), page, size, total)
}
