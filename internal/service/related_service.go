package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/nsxzhou1114/cms-api/pkg/cache"
	"github.com/nsxzhou1114/cms-api/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// RelatedLimit 相关文章数量上限
const RelatedLimit = 6

// RelatedService 相关文章服务
type RelatedService struct {
	db      *gorm.DB
	log     *zap.SugaredLogger
	cache   cache.Cache // 可为空
	storage storage.ObjectStorage
	group   singleflight.Group
}

// NewRelatedService 创建相关文章服务实例
func NewRelatedService(db *gorm.DB, log *zap.SugaredLogger, c cache.Cache, store storage.ObjectStorage) *RelatedService {
	return &RelatedService{db: db, log: log, cache: c, storage: store}
}

// ForArticle 获取文章的相关文章，分类与标签取自文章当前的有效关联
func (s *RelatedService) ForArticle(ctx context.Context, articleID uint) ([]model.Article, error) {
	version := "0"
	if s.cache != nil {
		v, err := cache.RelatedVersion(ctx, s.cache)
		if err != nil {
			s.log.Warnf("读取相关文章缓存版本失败: %v", err)
		} else {
			version = v
			var cached []model.Article
			err := s.cache.GetJSON(ctx, cache.RelatedKey(version, articleID), &cached)
			if err == nil {
				return cached, nil
			}
			if !errors.Is(err, cache.ErrMiss) {
				s.log.Warnf("读取相关文章缓存失败: articleID=%d, err=%v", articleID, err)
			}
		}
	}

	// 合并的加载不随单个请求取消
	loadCtx := context.WithoutCancel(ctx)
	flightKey := version + ":" + strconv.FormatUint(uint64(articleID), 10)
	v, err, _ := s.group.Do(flightKey, func() (interface{}, error) {
		related, err := s.load(loadCtx, articleID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetJSON(loadCtx, cache.RelatedKey(version, articleID), related, cache.ArticleRelatedExpiration); err != nil {
				s.log.Warnf("写入相关文章缓存失败: articleID=%d, err=%v", articleID, err)
			}
		}
		return related, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Article), nil
}

// Invalidate 使全部文章的相关列表缓存失效
func (s *RelatedService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return cache.BumpRelatedVersion(ctx, s.cache)
}

func (s *RelatedService) load(ctx context.Context, articleID uint) ([]model.Article, error) {
	var article model.Article
	if err := s.db.WithContext(ctx).Select("id", "category_id").First(&article, articleID).Error; err != nil {
		return nil, translateNotFound(err, "文章")
	}

	var tagIDs []uint
	if err := s.db.WithContext(ctx).Model(&model.ArticleTag{}).
		Where("article_id = ?", articleID).
		Pluck("tag_id", &tagIDs).Error; err != nil {
		return nil, err
	}

	var categoryID uint
	if article.CategoryID != nil {
		categoryID = *article.CategoryID
	}
	return s.Get(ctx, articleID, categoryID, tagIDs)
}

// Get 分三级补足相关文章：同分类且同标签、同分类、全站最新。
// 每级只查询缺额，排除已选文章与文章本身；categoryID为0时跳过前两级。
func (s *RelatedService) Get(ctx context.Context, articleID, categoryID uint, tagIDs []uint) ([]model.Article, error) {
	db := s.db.WithContext(ctx)
	chosen := []uint{articleID}
	result := make([]model.Article, 0, RelatedLimit)

	fill := func(scope func(*gorm.DB) *gorm.DB) error {
		shortfall := RelatedLimit - len(result)
		if shortfall <= 0 {
			return nil
		}
		var batch []model.Article
		err := scope(db.Model(&model.Article{})).
			Omit("content").
			Where("status = ? AND id NOT IN ?", model.ArticleStatusApproved, chosen).
			Order("created_at DESC").
			Order("id DESC").
			Limit(shortfall).
			Find(&batch).Error
		if err != nil {
			return err
		}
		for _, a := range batch {
			chosen = append(chosen, a.ID)
		}
		result = append(result, batch...)
		return nil
	}

	if categoryID != 0 {
		if len(tagIDs) > 0 {
			err := fill(func(q *gorm.DB) *gorm.DB {
				return q.Where("category_id = ? AND id IN (?)", categoryID,
					db.Model(&model.ArticleTag{}).Select("article_id").Where("tag_id IN ?", tagIDs))
			})
			if err != nil {
				return nil, err
			}
		}
		err := fill(func(q *gorm.DB) *gorm.DB {
			return q.Where("category_id = ?", categoryID)
		})
		if err != nil {
			return nil, err
		}
	}
	if err := fill(func(q *gorm.DB) *gorm.DB { return q }); err != nil {
		return nil, err
	}

	s.resolveThumbnails(db, result)
	return result, nil
}

// resolveThumbnails 填充缩略图地址，失败只记录日志
func (s *RelatedService) resolveThumbnails(db *gorm.DB, articles []model.Article) {
	ids := make([]uint, 0, len(articles))
	for _, a := range articles {
		if a.ThumbnailID != nil {
			ids = append(ids, *a.ThumbnailID)
		}
	}
	if len(ids) == 0 || s.storage == nil {
		return
	}

	var images []model.Image
	if err := db.Where("id IN ?", ids).Find(&images).Error; err != nil {
		s.log.Warnf("加载相关文章缩略图失败: %v", err)
		return
	}
	urls := make(map[uint]string, len(images))
	for _, img := range images {
		urls[img.ID] = s.storage.URL(img.Name)
	}
	for i := range articles {
		if articles[i].ThumbnailID != nil {
			articles[i].ThumbnailURL = urls[*articles[i].ThumbnailID]
		}
	}
}
