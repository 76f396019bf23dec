package dto

// ImageUploadRequest 图片上传请求（multipart表单，文件字段名为file）
type ImageUploadRequest struct {
	OwnerType string `form:"owner_type" binding:"required,oneof=Article User Comment"`
	OwnerID   uint   `form:"owner_id" binding:"required,min=1"`
	Capture   string `form:"capture" binding:"max=255"`
}

// ImageOwnerQuery 按所属实体查询图片
type ImageOwnerQuery struct {
	OwnerType string `form:"owner_type" binding:"required,oneof=Article User Comment"`
	OwnerID   uint   `form:"owner_id" binding:"required,min=1"`
}

// ImagePermanentDeleteQuery 永久删除图片，name为存储key
type ImagePermanentDeleteQuery struct {
	Name      string `form:"name" binding:"required,max=255"`
	OwnerType string `form:"owner_type" binding:"required,oneof=Article User Comment"`
}

// ImageResponse 图片响应
type ImageResponse struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	URL       string  `json:"url"`
	Capture   *string `json:"capture"`
	OwnerType string  `json:"owner_type"`
	OwnerID   uint    `json:"owner_id"`
}
