package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/cms-api/internal/dto"
	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/nsxzhou1114/cms-api/internal/service"
	"github.com/nsxzhou1114/cms-api/pkg/response"
	"go.uber.org/zap"
)

// ImageApi 图片API控制器
type ImageApi struct {
	logger       *zap.SugaredLogger
	imageService *service.ImageService
}

// NewImageApi 创建图片API控制器
func NewImageApi(svc *service.Services, log *zap.SugaredLogger) *ImageApi {
	return &ImageApi{logger: log, imageService: svc.Images}
}

// Upload 上传图片
func (api *ImageApi) Upload(c *gin.Context) {
	var req dto.ImageUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "请选择要上传的文件", err)
		return
	}

	owner, err := model.NewImageOwner(model.ImageableType(req.OwnerType), req.OwnerID)
	if err != nil {
		response.BadRequest(c, err.Error(), err)
		return
	}

	image, err := api.imageService.Upload(c.Request.Context(), owner, file, req.Capture)
	if err != nil {
		handleError(c, api.logger, "上传图片", err)
		return
	}
	response.Success(c, "上传成功", toImageResponse(image))
}

// ListByOwner 获取实体的图片
func (api *ImageApi) ListByOwner(c *gin.Context) {
	var q dto.ImageOwnerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	owner, err := model.NewImageOwner(model.ImageableType(q.OwnerType), q.OwnerID)
	if err != nil {
		response.BadRequest(c, err.Error(), err)
		return
	}

	images, err := api.imageService.ListByOwner(c.Request.Context(), owner)
	if err != nil {
		handleError(c, api.logger, "获取图片", err)
		return
	}

	list := make([]dto.ImageResponse, 0, len(images))
	for i := range images {
		list = append(list, toImageResponse(&images[i]))
	}
	response.Success(c, "获取成功", list)
}

// Get 获取图片访问地址
func (api *ImageApi) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	image, err := api.imageService.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, api.logger, "获取图片", err)
		return
	}
	response.Success(c, "获取成功", toImageResponse(image))
}

// DeleteByOwner 软删除实体的全部图片
func (api *ImageApi) DeleteByOwner(c *gin.Context) {
	var q dto.ImageOwnerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	owner, err := model.NewImageOwner(model.ImageableType(q.OwnerType), q.OwnerID)
	if err != nil {
		response.BadRequest(c, err.Error(), err)
		return
	}

	n, err := api.imageService.DeleteByOwner(c.Request.Context(), owner)
	if err != nil {
		handleError(c, api.logger, "删除图片", err)
		return
	}
	response.Success(c, "删除成功", gin.H{"deleted": n})
}

// DeletePermanently 永久删除图片及存储对象
func (api *ImageApi) DeletePermanently(c *gin.Context) {
	var q dto.ImagePermanentDeleteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	if err := api.imageService.DeletePermanently(c.Request.Context(), q.Name, model.ImageableType(q.OwnerType)); err != nil {
		handleError(c, api.logger, "永久删除图片", err)
		return
	}
	response.Success(c, "删除成功", nil)
}

// ReplaceUserImage 更换当前用户的头像
func (api *ImageApi) ReplaceUserImage(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "请先登录", err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "请选择要上传的文件", err)
		return
	}

	image, err := api.imageService.ReplaceUserImage(c.Request.Context(), userID, file)
	if err != nil {
		handleError(c, api.logger, "更换头像", err)
		return
	}
	response.Success(c, "更换成功", toImageResponse(image))
}
