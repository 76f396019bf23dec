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

const categoryListLimit = 16

// CategoryService 分类服务
type CategoryService struct {
	db       *gorm.DB
	log      *zap.SugaredLogger
	cache    cache.Cache // 可为空
	articles *ArticleService
}

// NewCategoryService 创建分类服务实例
func NewCategoryService(db *gorm.DB, log *zap.SugaredLogger, c cache.Cache, articles *ArticleService) *CategoryService {
	return &CategoryService{db: db, log: log, cache: c, articles: articles}
}

// Create 创建分类，同名分类已存在时直接返回，已软删除的同名分类会被恢复
func (s *CategoryService) Create(ctx context.Context, req *dto.CategoryCreateRequest) (*model.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalidArgument("分类名不能为空")
	}

	var category *model.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		category, err = findOrCreateCategory(tx, name, req.Description)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return category, nil
}

// Update 更新分类
func (s *CategoryService) Update(ctx context.Context, id uint, req *dto.CategoryUpdateRequest) (*model.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalidArgument("分类名不能为空")
	}

	var category model.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			return translateNotFound(err, "分类")
		}

		updates := map[string]interface{}{}
		if category.Name != name {
			var count int64
			if err := tx.Unscoped().Model(&model.Category{}).Where("name = ? AND id <> ?", name, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return invalidArgument("分类名已存在: %s", name)
			}
			updates["name"] = name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&category).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return &category, nil
}

// Delete 删除分类，仍有有效文章时拒绝删除
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category model.Category
		if err := tx.First(&category, id).Error; err != nil {
			return translateNotFound(err, "分类")
		}

		count, err := countActiveArticlesInCategory(tx, id, 0)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrHasDependents
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		return err
	}

	s.log.Infof("分类已删除: id=%d", id)
	s.invalidate(ctx)
	return nil
}

// Get 按ID或名称获取分类
func (s *CategoryService) Get(ctx context.Context, value string) (*model.Category, error) {
	query := s.db.WithContext(ctx)
	if id, err := strconv.ParseUint(value, 10, 64); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("name = ?", value)
	}

	var category model.Category
	if err := query.First(&category).Error; err != nil {
		return nil, translateNotFound(err, "分类")
	}
	return &category, nil
}

// List 获取分类列表
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	if s.cache != nil {
		var cached []model.Category
		if err := s.cache.GetJSON(ctx, cache.CategoryListKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			s.log.Warnf("读取分类缓存失败: %v", err)
		}
	}

	categories := []model.Category{}
	if err := s.db.WithContext(ctx).Order("id ASC").Limit(categoryListLimit).Find(&categories).Error; err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.CategoryListKey, categories, cache.CategoryListExpiration); err != nil {
			s.log.Warnf("写入分类缓存失败: %v", err)
		}
	}
	return categories, nil
}

// Articles 分页获取分类下的已审核文章
func (s *CategoryService) Articles(ctx context.Context, value string, q *dto.ArticleListQuery) ([]model.Article, int64, error) {
	category, err := s.Get(ctx, value)
	if err != nil {
		return nil, 0, err
	}

	q.CategoryID = category.ID
	q.TagID = 0
	q.Status = model.ArticleStatusApproved
	return s.articles.List(ctx, q)
}

func (s *CategoryService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.CategoryListKey); err != nil {
		s.log.Warnf("清除分类缓存失败: %v", err)
	}
}
