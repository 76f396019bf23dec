package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/nsxzhou1114/cms-api/internal/dto"
	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/nsxzhou1114/cms-api/pkg/cache"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// approvedLinksSQL 统计标签被已审核有效文章引用的次数
const approvedLinksSQL = "SELECT COUNT(*) FROM article_tags JOIN articles ON articles.id = article_tags.article_id" +
	" WHERE article_tags.tag_id = tags.id AND article_tags.deleted_at IS NULL" +
	" AND articles.deleted_at IS NULL AND articles.status = ?"

// TagService 标签服务
type TagService struct {
	db       *gorm.DB
	log      *zap.SugaredLogger
	cache    cache.Cache // 可为空
	articles *ArticleService
}

// NewTagService 创建标签服务实例
func NewTagService(db *gorm.DB, log *zap.SugaredLogger, c cache.Cache, articles *ArticleService) *TagService {
	return &TagService{db: db, log: log, cache: c, articles: articles}
}

// Create 创建标签，同名标签已存在时直接返回，已软删除的同名标签会被恢复
func (s *TagService) Create(ctx context.Context, req *dto.TagCreateRequest) (*model.Tag, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalidArgument("标签名不能为空")
	}

	var tag *model.Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		tag, err = findOrCreateTag(tx, name)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return tag, nil
}

// Update 重命名标签
func (s *TagService) Update(ctx context.Context, id uint, req *dto.TagUpdateRequest) (*model.Tag, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalidArgument("标签名不能为空")
	}

	var tag model.Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tag, id).Error; err != nil {
			return translateNotFound(err, "标签")
		}
		if tag.Name == name {
			return nil
		}

		// 唯一索引包含已删除的行
		var count int64
		if err := tx.Unscoped().Model(&model.Tag{}).Where("name = ? AND id <> ?", name, id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return invalidArgument("标签名已存在: %s", name)
		}
		return tx.Model(&tag).Update("name", name).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return &tag, nil
}

// Delete 删除标签，仍被有效文章引用时拒绝删除
func (s *TagService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag model.Tag
		if err := tx.First(&tag, id).Error; err != nil {
			return translateNotFound(err, "标签")
		}

		count, err := countActiveTagLinks(tx, id, 0)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrHasDependents
		}

		if err := tx.Where("tag_id = ?", id).Delete(&model.ArticleTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
	if err != nil {
		return err
	}

	s.log.Infof("标签已删除: id=%d", id)
	s.invalidate(ctx)
	return nil
}

// Get 按ID或名称获取标签
func (s *TagService) Get(ctx context.Context, value string) (*model.Tag, error) {
	query := s.db.WithContext(ctx)
	if id, err := strconv.ParseUint(value, 10, 64); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("name = ?", value)
	}

	var tag model.Tag
	if err := query.First(&tag).Error; err != nil {
		return nil, translateNotFound(err, "标签")
	}
	return &tag, nil
}

// List 获取全部标签，按已审核文章数降序
func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	if s.cache != nil {
		var cached []model.Tag
		if err := s.cache.GetJSON(ctx, cache.TagListKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			s.log.Warnf("读取标签缓存失败: %v", err)
		}
	}

	tags := []model.Tag{}
	err := s.db.WithContext(ctx).Model(&model.Tag{}).
		Select("tags.id, tags.name, tags.created_at, tags.updated_at, ("+approvedLinksSQL+") AS article_count",
			model.ArticleStatusApproved).
		Order("article_count DESC").
		Order("tags.id ASC").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.TagListKey, tags, cache.TagListExpiration); err != nil {
			s.log.Warnf("写入标签缓存失败: %v", err)
		}
	}
	return tags, nil
}

// Articles 分页获取标签下的已审核文章
func (s *TagService) Articles(ctx context.Context, value string, q *dto.ArticleListQuery) ([]model.Article, int64, error) {
	tag, err := s.Get(ctx, value)
	if err != nil {
		return nil, 0, err
	}

	q.TagID = tag.ID
	q.CategoryID = 0
	q.Status = model.ArticleStatusApproved
	return s.articles.List(ctx, q)
}

// SyncArticleCounts 重新计算全部标签的已审核文章数，返回更新的行数
func (s *TagService) SyncArticleCounts(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().Model(&model.Tag{}).
		Where("1 = 1").
		Update("article_count", gorm.Expr("("+approvedLinksSQL+")", model.ArticleStatusApproved))
	if res.Error != nil {
		return 0, res.Error
	}

	s.invalidate(ctx)
	return res.RowsAffected, nil
}

func (s *TagService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.TagListKey); err != nil {
		s.log.Warnf("清除标签缓存失败: %v", err)
	}
}
