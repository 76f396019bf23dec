package service

import (
	"context"

	"github.com/nsxzhou1114/cms-api/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ArticleTagService 文章-标签关联服务
type ArticleTagService struct {
	db       *gorm.DB
	log      *zap.SugaredLogger
	articles *ArticleService
}

// NewArticleTagService 创建文章-标签关联服务实例
func NewArticleTagService(db *gorm.DB, log *zap.SugaredLogger, articles *ArticleService) *ArticleTagService {
	return &ArticleTagService{db: db, log: log, articles: articles}
}

// Attach 为文章关联标签。文章与标签均须存在（标签可以是已软删除的），
// 已软删除的关联会连同标签一起恢复。
func (s *ArticleTagService) Attach(ctx context.Context, articleID, tagID uint) (*model.ArticleTag, error) {
	var link *model.ArticleTag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&model.Article{}, articleID).Error; err != nil {
			return translateNotFound(err, "文章")
		}
		if err := tx.Unscoped().Select("id").First(&model.Tag{}, tagID).Error; err != nil {
			return translateNotFound(err, "标签")
		}
		if err := restoreRow(tx, &model.Tag{}, tagID); err != nil {
			return err
		}

		var err error
		link, err = attachTag(tx, articleID, tagID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("标签已关联: articleID=%d, tagID=%d", articleID, tagID)
	s.articles.afterWrite(ctx, articleID, false)
	return link, nil
}
