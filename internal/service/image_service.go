package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nsxzhou1114/cms-api/internal/config"
	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/nsxzhou1114/cms-api/pkg/cache"
	"github.com/nsxzhou1114/cms-api/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImageService 图片服务
type ImageService struct {
	db      *gorm.DB
	log     *zap.SugaredLogger
	cache   cache.Cache // 可为空
	storage storage.ObjectStorage
	limit   config.StorageLimit
}

// NewImageService 创建图片服务实例
func NewImageService(db *gorm.DB, log *zap.SugaredLogger, c cache.Cache, store storage.ObjectStorage, limit config.StorageLimit) *ImageService {
	return &ImageService{db: db, log: log, cache: c, storage: store, limit: limit}
}

// Upload 上传图片到对象存储并记录所属实体
func (s *ImageService) Upload(ctx context.Context, owner model.ImageOwner, file *multipart.FileHeader, capture string) (*model.Image, error) {
	if err := s.validateImageFile(file); err != nil {
		return nil, err
	}
	if err := s.ensureOwnerExists(ctx, owner); err != nil {
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer src.Close()

	key := "images/" + uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	if err := s.storage.Put(ctx, key, src, file.Header.Get("Content-Type")); err != nil {
		return nil, fmt.Errorf("上传文件失败: %w", err)
	}

	image := &model.Image{Name: key}
	if capture = strings.TrimSpace(capture); capture != "" {
		image.Capture = &capture
	}
	image.SetOwner(owner)
	if err := s.db.WithContext(ctx).Create(image).Error; err != nil {
		// 记录写入失败时清理已上传的对象
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.log.Warnf("清理上传对象失败: key=%s, err=%v", key, delErr)
		}
		return nil, err
	}

	image.URL = s.storage.URL(key)
	s.log.Infof("图片上传成功: id=%d, key=%s, owner=%s:%d", image.ID, key, owner.OwnerType(), owner.OwnerID())
	return image, nil
}

// ListByOwner 获取实体拥有的图片
func (s *ImageService) ListByOwner(ctx context.Context, owner model.ImageOwner) ([]model.Image, error) {
	images := []model.Image{}
	err := s.db.WithContext(ctx).
		Where("imageable_type = ? AND imageable_id = ?", owner.OwnerType(), owner.OwnerID()).
		Order("id ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	for i := range images {
		images[i].URL = s.storage.URL(images[i].Name)
	}
	return images, nil
}

// URL 解析图片的访问地址
func (s *ImageService) URL(image *model.Image) string {
	return s.storage.URL(image.Name)
}

// Get 获取图片并解析访问地址
func (s *ImageService) Get(ctx context.Context, id uint) (*model.Image, error) {
	var image model.Image
	if err := s.db.WithContext(ctx).First(&image, id).Error; err != nil {
		return nil, translateNotFound(err, "图片")
	}
	image.URL = s.storage.URL(image.Name)
	return &image, nil
}

// DeleteByOwner 软删除实体的全部图片，存储对象保留以便随文章恢复。
// 用户头像只能通过ReplaceUserImage更换。
func (s *ImageService) DeleteByOwner(ctx context.Context, owner model.ImageOwner) (int64, error) {
	if _, ok := owner.(model.UserOwner); ok {
		return 0, invalidArgument("用户头像请通过头像更换接口修改")
	}

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&model.Image{}).
			Where("imageable_type = ? AND imageable_id = ?", owner.OwnerType(), owner.OwnerID()).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return notFound("图片")
		}
		if err := clearThumbnails(tx, ids); err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&model.Image{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}

	s.invalidateRelated(ctx)
	s.log.Infof("图片已删除: owner=%s:%d, count=%d", owner.OwnerType(), owner.OwnerID(), deleted)
	return deleted, nil
}

// DeletePermanently 物理删除指定名称与所属类型的图片记录，并删除存储对象
func (s *ImageService) DeletePermanently(ctx context.Context, name string, ownerType model.ImageableType) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalidArgument("图片名称不能为空")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Unscoped().Model(&model.Image{}).
			Where("name = ? AND imageable_type = ?", name, ownerType).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return notFound("图片")
		}
		if err := clearThumbnails(tx, ids); err != nil {
			return err
		}
		return tx.Unscoped().Where("id IN ?", ids).Delete(&model.Image{}).Error
	})
	if err != nil {
		return err
	}

	s.removeObject(ctx, name)
	s.invalidateRelated(ctx)
	s.log.Infof("图片已永久删除: name=%s, type=%s", name, ownerType)
	return nil
}

// ReplaceUserImage 更换用户头像，新图上传成功后才删除旧头像
func (s *ImageService) ReplaceUserImage(ctx context.Context, userID uint, file *multipart.FileHeader) (*model.Image, error) {
	owner := model.UserOwner{UserID: userID}

	var old []model.Image
	if err := s.db.WithContext(ctx).Unscoped().
		Where("imageable_type = ? AND imageable_id = ?", owner.OwnerType(), owner.OwnerID()).
		Find(&old).Error; err != nil {
		return nil, err
	}

	image, err := s.Upload(ctx, owner, file, "")
	if err != nil {
		return nil, err
	}
	if len(old) == 0 {
		return image, nil
	}

	ids := make([]uint, 0, len(old))
	for _, img := range old {
		ids = append(ids, img.ID)
	}
	if err := s.db.WithContext(ctx).Unscoped().Where("id IN ?", ids).Delete(&model.Image{}).Error; err != nil {
		s.log.Warnf("删除旧头像记录失败: userID=%d, err=%v", userID, err)
		return image, nil
	}
	for _, img := range old {
		s.removeObject(ctx, img.Name)
	}
	return image, nil
}

// clearThumbnails 解除文章对即将删除图片的缩略图引用
func clearThumbnails(tx *gorm.DB, imageIDs []uint) error {
	return tx.Unscoped().Model(&model.Article{}).
		Where("thumbnail_id IN ?", imageIDs).
		Update("thumbnail_id", nil).Error
}

func (s *ImageService) removeObject(ctx context.Context, name string) {
	if err := s.storage.Delete(ctx, name); err != nil {
		s.log.Warnf("删除存储对象失败: key=%s, err=%v", name, err)
	}
}

// invalidateRelated 相关文章列表带有缩略图地址
func (s *ImageService) invalidateRelated(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := cache.BumpRelatedVersion(ctx, s.cache); err != nil {
		s.log.Warnf("更新相关文章缓存版本失败: %v", err)
	}
}

func (s *ImageService) validateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return invalidArgument("缺少上传文件")
	}
	if s.limit.MaxSize > 0 && file.Size > s.limit.MaxSize {
		return invalidArgument("文件大小超过限制，最大允许 %d MB", s.limit.MaxSize/(1024*1024))
	}

	if len(s.limit.AllowTypes) == 0 {
		return nil
	}
	contentType := file.Header.Get("Content-Type")
	for _, t := range s.limit.AllowTypes {
		if t == contentType {
			return nil
		}
	}
	return invalidArgument("不支持的文件类型: %s", contentType)
}

// ensureOwnerExists 文章与用户必须存在，评论不落库故不校验
func (s *ImageService) ensureOwnerExists(ctx context.Context, owner model.ImageOwner) error {
	var (
		m    interface{}
		what string
	)
	switch owner.(type) {
	case model.ArticleOwner:
		m, what = &model.Article{}, "文章"
	case model.UserOwner:
		m, what = &model.User{}, "用户"
	default:
		return nil
	}
	if err := s.db.WithContext(ctx).Select("id").First(m, owner.OwnerID()).Error; err != nil {
		return translateNotFound(err, what)
	}
	return nil
}
