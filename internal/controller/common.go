package controller

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nsxzhou1114/cms-api/internal/dto"
	"github.com/nsxzhou1114/cms-api/internal/middleware"
	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/nsxzhou1114/cms-api/internal/service"
	"github.com/nsxzhou1114/cms-api/pkg/response"
	"go.uber.org/zap"
)

const timeLayout = "2006-01-02 15:04:05"

// getUserIDFromContext 从上下文中获取用户ID
func getUserIDFromContext(c *gin.Context) (uint, error) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		return 0, errors.New("用户未登录")
	}
	return userID, nil
}

// isAdmin 当前请求是否来自管理员
func isAdmin(c *gin.Context) bool {
	role, _ := middleware.GetUserRole(c)
	return role == model.RoleAdmin
}

// parseID 解析路径中的数字ID
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "无效的ID", err)
		return 0, false
	}
	return uint(id), true
}

// 校验错误信息映射
var validationMessages = map[string]string{
	"required": "不能为空",
	"min":      "不能小于%v",
	"max":      "不能大于%v",
	"email":    "必须是有效的邮箱地址",
	"oneof":    "必须是[%v]中的一个",
}

// formatValidationError 取第一个校验错误转为可读信息
func formatValidationError(errs validator.ValidationErrors) string {
	first := errs[0]
	tmpl, ok := validationMessages[first.Tag()]
	if !ok {
		return first.Field() + "验证失败"
	}
	if first.Param() != "" {
		return first.Field() + fmt.Sprintf(tmpl, first.Param())
	}
	return first.Field() + tmpl
}

// bindError 参数绑定失败时返回400
func bindError(c *gin.Context, err error) {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		response.BadRequest(c, formatValidationError(errs), err)
		return
	}
	response.BadRequest(c, "参数错误", err)
}

// handleError 将业务错误映射为HTTP响应，未知错误记录日志并返回500
func handleError(c *gin.Context, log *zap.SugaredLogger, action string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, service.ErrHasDependents):
		response.BadRequest(c, err.Error(), err)
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error(), err)
	case errors.Is(err, service.ErrNotDeleted):
		response.Conflict(c, err.Error(), err)
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error(), err)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error(), err)
	default:
		log.Errorf("%s失败: %v", action, err)
		response.InternalServerError(c, action+"失败", err)
	}
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func tagInfos(tags []model.Tag) []dto.TagInfo {
	infos := make([]dto.TagInfo, 0, len(tags))
	for _, t := range tags {
		infos = append(infos, dto.TagInfo{ID: t.ID, Name: t.Name})
	}
	return infos
}

func toArticleListItem(a *model.Article) dto.ArticleListItem {
	item := dto.ArticleListItem{
		ID:           a.ID,
		Title:        a.Title,
		Slug:         a.Slug,
		Description:  a.Description,
		Status:       a.Status,
		AuthorID:     a.AuthorID,
		CategoryID:   a.CategoryID,
		Tags:         tagInfos(a.Tags),
		ThumbnailURL: a.ThumbnailURL,
		ViewCount:    a.ViewCount,
		ShareCount:   a.ShareCount,
		CreatedAt:    a.CreatedAt,
	}
	if a.Author != nil {
		item.AuthorName = a.Author.Name
	}
	if a.Category != nil {
		item.CategoryName = a.Category.Name
	}
	if a.DeletedAt.Valid {
		deletedAt := a.DeletedAt.Time
		item.DeletedAt = &deletedAt
	}
	return item
}

func toArticleList(articles []model.Article) []dto.ArticleListItem {
	items := make([]dto.ArticleListItem, 0, len(articles))
	for i := range articles {
		items = append(items, toArticleListItem(&articles[i]))
	}
	return items
}

func toRelatedArticles(articles []model.Article) []dto.RelatedArticle {
	items := make([]dto.RelatedArticle, 0, len(articles))
	for _, a := range articles {
		items = append(items, dto.RelatedArticle{
			ID:           a.ID,
			Title:        a.Title,
			Slug:         a.Slug,
			Description:  a.Description,
			ThumbnailURL: a.ThumbnailURL,
			CreatedAt:    a.CreatedAt,
		})
	}
	return items
}

func toTagResponse(t *model.Tag) dto.TagResponse {
	return dto.TagResponse{
		ID:           t.ID,
		Name:         t.Name,
		ArticleCount: t.ArticleCount,
		CreatedAt:    formatTime(t.CreatedAt),
		UpdatedAt:    formatTime(t.UpdatedAt),
	}
}

func toCategoryResponse(cat *model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          cat.ID,
		Name:        cat.Name,
		Description: cat.Description,
		CreatedAt:   formatTime(cat.CreatedAt),
		UpdatedAt:   formatTime(cat.UpdatedAt),
	}
}

func toImageResponse(img *model.Image) dto.ImageResponse {
	return dto.ImageResponse{
		ID:        img.ID,
		Name:      img.Name,
		URL:       img.URL,
		Capture:   img.Capture,
		OwnerType: string(img.ImageableType),
		OwnerID:   img.ImageableID,
	}
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// pageOf 返回查询实际使用的页码与页大小
func pageOf(q *dto.ArticleListQuery) (int, int) {
	page, size := q.Page, q.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = service.DefaultArticlePageSize
	}
	return page, size
}
