package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/cms-api/internal/dto"
	"github.com/nsxzhou1114/cms-api/internal/service"
	"github.com/nsxzhou1114/cms-api/pkg/response"
	"go.uber.org/zap"
)

// CategoryApi 分类API控制器
type CategoryApi struct {
	logger          *zap.SugaredLogger
	categoryService *service.CategoryService
}

// NewCategoryApi 创建分类API控制器
func NewCategoryApi(svc *service.Services, log *zap.SugaredLogger) *CategoryApi {
	return &CategoryApi{logger: log, categoryService: svc.Categories}
}

// Create 创建分类
func (api *CategoryApi) Create(c *gin.Context) {
	var req dto.CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	category, err := api.categoryService.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, "创建分类", err)
		return
	}
	response.Success(c, "创建成功", gin.H{"category": toCategoryResponse(category)})
}

// Update 更新分类
func (api *CategoryApi) Update(c *gin.Context) {
	id, ok := parseID(c, "value")
	if !ok {
		return
	}

	var req dto.CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	category, err := api.categoryService.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, api.logger, "更新分类", err)
		return
	}
	response.Success(c, "更新成功", gin.H{"category": toCategoryResponse(category)})
}

// Delete 删除分类
func (api *CategoryApi) Delete(c *gin.Context) {
	id, ok := parseID(c, "value")
	if !ok {
		return
	}

	if err := api.categoryService.Delete(c.Request.Context(), id); err != nil {
		handleError(c, api.logger, "删除分类", err)
		return
	}
	response.Success(c, "删除成功", nil)
}

// Get 根据ID或名称获取分类
func (api *CategoryApi) Get(c *gin.Context) {
	category, err := api.categoryService.Get(c.Request.Context(), c.Param("value"))
	if err != nil {
		handleError(c, api.logger, "获取分类", err)
		return
	}
	response.Success(c, "获取成功", gin.H{"category": toCategoryResponse(category)})
}

// List 分类列表
func (api *CategoryApi) List(c *gin.Context) {
	categories, err := api.categoryService.List(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, "获取分类列表", err)
		return
	}

	list := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		list = append(list, toCategoryResponse(&categories[i]))
	}
	response.Success(c, "获取成功", list)
}

// Articles 分类下的文章
func (api *CategoryApi) Articles(c *gin.Context) {
	var q dto.ArticleListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	articles, total, err := api.categoryService.Articles(c.Request.Context(), c.Param("value"), &q)
	if err != nil {
		handleError(c, api.logger, "获取分类文章", err)
		return
	}

	page, size := pageOf(&q)
	response.SuccessPage(c, "获取成功", toArticleList(articles), page, size, total)
}
