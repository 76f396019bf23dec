package dto

// TagCreateRequest 创建标签请求
type TagCreateRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

// TagUpdateRequest 更新标签请求
type TagUpdateRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

// TagResponse 标签响应
type TagResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	ArticleCount int    `json:"article_count"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}
