package dto

import "time"

// ArticleCreateRequest 创建文章请求
type ArticleCreateRequest struct {
	Title       string   `json:"title" binding:"required,max=255"`                   // 文章标题
	Description string   `json:"description" binding:"max=500"`                      // 文章简介
	Content     string   `json:"content" binding:"required"`                         // HTML正文，图片以data-name引用已上传对象
	CategoryID  uint     `json:"category_id" binding:"required"`                     // 分类ID
	Tags        []string `json:"tags" binding:"required,min=1,dive,required,max=50"` // 标签名列表
}

// ArticleUpdateRequest 更新文章请求，未提供的字段保持不变
type ArticleUpdateRequest struct {
	Title       *string  `json:"title" binding:"omitempty,max=255"`
	Description *string  `json:"description" binding:"omitempty,max=500"`
	Content     *string  `json:"content"`
	CategoryID  *uint    `json:"category_id" binding:"omitempty,min=1"`
	Tags        []string `json:"tags" binding:"omitempty,dive,required,max=50"` // 非空时整体替换标签
}

// ArticleStatusRequest 更新文章状态请求
type ArticleStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Approved Pending Rejected Trashed"`
}

// ArticleCategoryRequest 修改文章分类请求
type ArticleCategoryRequest struct {
	CategoryID uint `json:"category_id" binding:"required,min=1"`
}

// ArticleListQuery 文章列表查询
type ArticleListQuery struct {
	Search     string `form:"search" binding:"omitempty,max=255"`                                 // 标题前缀
	Status     string `form:"status" binding:"omitempty,oneof=Approved Pending Rejected Trashed"` // Trashed 列出已删除文章
	OrderBy    string `form:"order_by" binding:"omitempty,oneof=created_at views shares"`
	Order      string `form:"order" binding:"omitempty,oneof=asc desc"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=50"`
	CategoryID uint   `form:"-"`
	TagID      uint   `form:"-"`
}

// ArticleListItem 文章列表项
type ArticleListItem struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	AuthorID     uint       `json:"author_id"`
	AuthorName   string     `json:"author_name,omitempty"`
	CategoryID   *uint      `json:"category_id"`
	CategoryName string     `json:"category_name,omitempty"`
	Tags         []TagInfo  `json:"tags"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	ViewCount    int64      `json:"view_count"`
	ShareCount   int64      `json:"share_count"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// RelatedArticle 相关文章
type RelatedArticle struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TagInfo 标签简要信息
type TagInfo struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// MetricResponse 记录浏览/分享后的响应
type MetricResponse struct {
	UUID string `json:"uuid"`
}
