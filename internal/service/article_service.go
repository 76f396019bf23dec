package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nsxzhou1114/cms-api/internal/dto"
	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/nsxzhou1114/cms-api/pkg/cache"
	"github.com/nsxzhou1114/cms-api/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// DefaultArticlePageSize 文章列表默认页大小
	DefaultArticlePageSize = 5
	maxSuggestions         = 5
)

// ArticleService 文章服务
type ArticleService struct {
	db      *gorm.DB
	log     *zap.SugaredLogger
	cache   cache.Cache           // 可为空
	search  *ArticleSearchService // 可为空
	storage storage.ObjectStorage
	metrics *MetricService
}

// NewArticleService 创建文章服务实例
func NewArticleService(db *gorm.DB, log *zap.SugaredLogger, c cache.Cache, search *ArticleSearchService,
	store storage.ObjectStorage, metrics *MetricService) *ArticleService {
	return &ArticleService{
		db:      db,
		log:     log,
		cache:   c,
		search:  search,
		storage: store,
		metrics: metrics,
	}
}

// Create 创建文章，新文章总是待审核状态
func (s *ArticleService) Create(ctx context.Context, authorID uint, req *dto.ArticleCreateRequest) (*model.Article, error) {
	content, images, err := processContent(req.Content)
	if err != nil {
		return nil, err
	}
	tagNames := normalizeNames(req.Tags)
	if len(tagNames) == 0 {
		return nil, invalidArgument("文章至少需要一个标签")
	}

	categoryID := req.CategoryID
	article := &model.Article{
		Title:       strings.TrimSpace(req.Title),
		Slug:        CreateSlug(req.Title),
		Description: req.Description,
		Content:     content,
		AuthorID:    authorID,
		CategoryID:  &categoryID,
		Status:      model.ArticleStatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := requireActiveCategory(tx, categoryID); err != nil {
			return err
		}
		if err := ensureSlugAvailable(tx, article.Slug, 0); err != nil {
			return err
		}
		if err := tx.Create(article).Error; err != nil {
			return err
		}

		created, err := s.attachContentImages(tx, article.ID, images)
		if err != nil {
			return err
		}
		// 第一张图片作为缩略图
		if len(created) > 0 {
			if err := tx.Model(article).Update("thumbnail_id", created[0].ID).Error; err != nil {
				return err
			}
		}

		return s.linkTags(tx, article.ID, tagNames)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("文章创建成功: id=%d, slug=%s", article.ID, article.Slug)
	s.afterWrite(ctx, article.ID, false)
	return s.loadArticle(ctx, s.db.WithContext(ctx), article.ID)
}

// Update 更新文章；标签列表非空时整体替换，被移除且无人引用的标签会被软删除
func (s *ArticleService) Update(ctx context.Context, id uint, req *dto.ArticleUpdateRequest) (*model.Article, error) {
	var (
		content string
		images  []contentImage
		err     error
	)
	if req.Content != nil {
		if content, images, err = processContent(*req.Content); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article model.Article
		if err := tx.First(&article, id).Error; err != nil {
			return translateNotFound(err, "文章")
		}

		updates := make(map[string]interface{})
		if req.Title != nil {
			slug := CreateSlug(*req.Title)
			if err := ensureSlugAvailable(tx, slug, id); err != nil {
				return err
			}
			updates["title"] = strings.TrimSpace(*req.Title)
			updates["slug"] = slug
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.Content != nil {
			updates["content"] = content
			created, err := s.attachContentImages(tx, id, images)
			if err != nil {
				return err
			}
			if article.ThumbnailID == nil && len(created) > 0 {
				updates["thumbnail_id"] = created[0].ID
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&article).Updates(updates).Error; err != nil {
				return err
			}
		}

		if names := normalizeNames(req.Tags); len(names) > 0 {
			if err := s.replaceTags(tx, id, names); err != nil {
				return err
			}
		}

		if req.CategoryID != nil && (article.CategoryID == nil || *article.CategoryID != *req.CategoryID) {
			return changeCategory(tx, &article, *req.CategoryID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, id, false)
	return s.loadArticle(ctx, s.db.WithContext(ctx), id)
}

// UpdateStatus 更新文章状态
func (s *ArticleService) UpdateStatus(ctx context.Context, id uint, status string) error {
	if !model.ValidArticleStatus(status) {
		return invalidArgument("未知的文章状态: %s", status)
	}

	res := s.db.WithContext(ctx).Model(&model.Article{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("文章")
	}

	s.afterWrite(ctx, id, false)
	return nil
}

// UpdateCategory 修改文章分类，新分类必须是未删除的分类
func (s *ArticleService) UpdateCategory(ctx context.Context, articleID, newCategoryID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article model.Article
		if err := tx.First(&article, articleID).Error; err != nil {
			return translateNotFound(err, "文章")
		}
		return changeCategory(tx, &article, newCategoryID)
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, articleID, false)
	return nil
}

// Delete 删除文章：置为回收站状态并软删除，同时级联处理标签、分类、图片与统计记录
func (s *ArticleService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article model.Article
		if err := tx.First(&article, id).Error; err != nil {
			return translateNotFound(err, "文章")
		}

		if err := tx.Model(&article).Update("status", model.ArticleStatusTrashed).Error; err != nil {
			return err
		}
		if err := tx.Delete(&article).Error; err != nil {
			return err
		}

		var tagIDs []uint
		if err := tx.Model(&model.ArticleTag{}).Where("article_id = ?", id).Pluck("tag_id", &tagIDs).Error; err != nil {
			return err
		}
		for _, tagID := range tagIDs {
			if err := releaseTagIfOrphaned(tx, id, tagID); err != nil {
				return err
			}
		}

		if article.CategoryID != nil {
			if err := releaseCategoryIfOrphaned(tx, *article.CategoryID, id); err != nil {
				return err
			}
		}

		if err := tx.Where("imageable_type = ? AND imageable_id = ?", model.ImageableArticle, id).
			Delete(&model.Image{}).Error; err != nil {
			return err
		}

		// 统计记录不可恢复
		return s.metrics.DeleteForArticle(tx, id)
	})
	if err != nil {
		return err
	}

	s.log.Infof("文章已删除: id=%d", id)
	s.afterWrite(ctx, id, true)
	return nil
}

// Restore 恢复已删除的文章，状态总是重置为待审核，并恢复其分类、标签、关联、图片与统计记录
func (s *ArticleService) Restore(ctx context.Context, id uint) (*model.Article, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article model.Article
		if err := tx.Unscoped().First(&article, id).Error; err != nil {
			return translateNotFound(err, "文章")
		}
		if !article.DeletedAt.Valid {
			return ErrNotDeleted
		}

		if err := tx.Unscoped().Model(&article).Updates(map[string]interface{}{
			"deleted_at": nil,
			"status":     model.ArticleStatusPending,
		}).Error; err != nil {
			return err
		}

		if article.CategoryID != nil {
			if err := restoreRow(tx, &model.Category{}, *article.CategoryID); err != nil {
				return err
			}
		}

		var tagIDs []uint
		if err := tx.Unscoped().Model(&model.ArticleTag{}).Where("article_id = ?", id).Pluck("tag_id", &tagIDs).Error; err != nil {
			return err
		}
		if len(tagIDs) > 0 {
			if err := tx.Unscoped().Model(&model.Tag{}).
				Where("id IN ? AND deleted_at IS NOT NULL", tagIDs).
				Update("deleted_at", nil).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Model(&model.ArticleTag{}).
				Where("article_id = ? AND deleted_at IS NOT NULL", id).
				Update("deleted_at", nil).Error; err != nil {
				return err
			}
		}

		if err := tx.Unscoped().Model(&model.Image{}).
			Where("imageable_type = ? AND imageable_id = ? AND deleted_at IS NOT NULL", model.ImageableArticle, id).
			Update("deleted_at", nil).Error; err != nil {
			return err
		}

		return s.metrics.RestoreForArticle(tx, id)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("文章已恢复: id=%d", id)
	s.afterWrite(ctx, id, false)
	return s.loadArticle(ctx, s.db.WithContext(ctx), id)
}

// Resolve 将路径参数（ID或slug）解析为文章ID
func (s *ArticleService) Resolve(ctx context.Context, value string, withDeleted bool) (uint, error) {
	db := s.db.WithContext(ctx)
	if withDeleted {
		db = db.Unscoped()
	}

	var article model.Article
	if id, err := strconv.ParseUint(value, 10, 64); err == nil {
		db = db.Where("id = ?", id)
	} else {
		db = db.Where("slug = ?", value)
	}
	if err := db.Select("id").First(&article).Error; err != nil {
		return 0, translateNotFound(err, "文章")
	}
	return article.ID, nil
}

// Get 按ID或slug获取文章详情；allStatuses为false时只返回已审核文章
func (s *ArticleService) Get(ctx context.Context, value string, allStatuses bool) (*model.Article, error) {
	id, err := s.Resolve(ctx, value, false)
	if err != nil {
		return nil, err
	}

	article, err := s.loadArticle(ctx, s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !allStatuses && article.Status != model.ArticleStatusApproved {
		return nil, notFound("文章")
	}
	return article, nil
}

// List 分页查询文章
func (s *ArticleService) List(ctx context.Context, q *dto.ArticleListQuery) ([]model.Article, int64, error) {
	page, pageSize := q.Page, q.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultArticlePageSize
	}

	query := s.db.WithContext(ctx).Model(&model.Article{})
	switch q.Status {
	case "":
	case model.ArticleStatusTrashed:
		query = query.Unscoped().Where("articles.deleted_at IS NOT NULL")
	default:
		query = query.Where("articles.status = ?", q.Status)
	}
	if q.Search != "" {
		query = query.Where("articles.title LIKE ? ESCAPE '!'", likePrefix(q.Search))
	}
	if q.CategoryID != 0 {
		query = query.Where("articles.category_id = ?", q.CategoryID)
	}
	if q.TagID != 0 {
		query = query.Where("articles.id IN (?)", s.db.Table("article_tags").
			Select("article_id").Where("tag_id = ? AND deleted_at IS NULL", q.TagID))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var articles []model.Article
	err := query.Omit("content").
		Preload("Author").
		Preload("Category").
		Order(articleOrder(q.OrderBy, q.Order)).
		Order("articles.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&articles).Error
	if err != nil {
		return nil, 0, err
	}

	if err := s.decorate(ctx, s.db.WithContext(ctx), articles); err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// Slugs 返回全部已审核文章的slug
func (s *ArticleService) Slugs(ctx context.Context) ([]string, error) {
	var slugs []string
	err := s.db.WithContext(ctx).Model(&model.Article{}).
		Where("status = ?", model.ArticleStatusApproved).
		Order("id ASC").
		Pluck("slug", &slugs).Error
	return slugs, err
}

// Suggestions 标题前缀联想，优先使用Elasticsearch
func (s *ArticleService) Suggestions(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []string{}, nil
	}

	if s.search.Enabled() {
		titles, err := s.search.Suggest(ctx, prefix, maxSuggestions)
		if err == nil {
			return titles, nil
		}
		s.log.Warnf("搜索联想失败，回退到数据库: %v", err)
	}

	titles := []string{}
	err := s.db.WithContext(ctx).Model(&model.Article{}).
		Where("status = ? AND title LIKE ? ESCAPE '!'", model.ArticleStatusApproved, likePrefix(prefix)).
		Order("created_at DESC").
		Limit(maxSuggestions).
		Pluck("title", &titles).Error
	return titles, err
}

// Reindex 将全部未删除的文章重新写入搜索索引，返回写入数量
func (s *ArticleService) Reindex(ctx context.Context) (int, error) {
	if !s.search.Enabled() {
		return 0, nil
	}
	if _, err := s.search.EnsureIndex(ctx); err != nil {
		return 0, err
	}

	db := s.db.WithContext(ctx)
	indexed := 0
	var batch []model.Article
	err := db.Model(&model.Article{}).Select("id").
		FindInBatches(&batch, 100, func(_ *gorm.DB, _ int) error {
			for _, row := range batch {
				article, err := s.loadArticle(ctx, db, row.ID)
				if err != nil {
					return err
				}
				if err := s.search.Index(ctx, article); err != nil {
					return err
				}
				indexed++
			}
			return nil
		}).Error
	if err != nil {
		return indexed, fmt.Errorf("重建文章索引失败: %w", err)
	}

	s.log.Infof("重建文章索引完成: count=%d", indexed)
	return indexed, nil
}

// loadArticle 加载文章及其作者、分类、标签、图片
func (s *ArticleService) loadArticle(ctx context.Context, db *gorm.DB, id uint) (*model.Article, error) {
	var article model.Article
	if err := db.Preload("Author").Preload("Category").Preload("Images").First(&article, id).Error; err != nil {
		return nil, translateNotFound(err, "文章")
	}

	articles := []model.Article{article}
	if err := s.decorate(ctx, db, articles); err != nil {
		return nil, err
	}
	for i := range articles[0].Images {
		articles[0].Images[i].URL = s.storage.URL(articles[0].Images[i].Name)
	}
	return &articles[0], nil
}

// decorate 批量填充标签、缩略图地址与统计数
func (s *ArticleService) decorate(ctx context.Context, db *gorm.DB, articles []model.Article) error {
	if len(articles) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(articles))
	thumbIDs := make([]uint, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
		if a.ThumbnailID != nil {
			thumbIDs = append(thumbIDs, *a.ThumbnailID)
		}
	}

	tags, err := loadArticleTags(db, ids)
	if err != nil {
		return err
	}

	thumbs := make(map[uint]string, len(thumbIDs))
	if len(thumbIDs) > 0 {
		var images []model.Image
		if err := db.Unscoped().Where("id IN ?", thumbIDs).Find(&images).Error; err != nil {
			return err
		}
		for _, img := range images {
			thumbs[img.ID] = s.storage.URL(img.Name)
		}
	}

	counts, err := s.metrics.Counts(ctx, ids)
	if err != nil {
		return err
	}

	for i := range articles {
		a := &articles[i]
		a.Tags = tags[a.ID]
		if a.ThumbnailID != nil {
			a.ThumbnailURL = thumbs[*a.ThumbnailID]
		}
		a.ViewCount = counts[a.ID].Views
		a.ShareCount = counts[a.ID].Shares
	}
	return nil
}

// loadArticleTags 批量加载文章通过有效关联挂载的标签
func loadArticleTags(db *gorm.DB, articleIDs []uint) (map[uint][]model.Tag, error) {
	var links []model.ArticleTag
	if err := db.Where("article_id IN ?", articleIDs).Order("id ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return map[uint][]model.Tag{}, nil
	}

	tagIDs := make([]uint, 0, len(links))
	for _, l := range links {
		tagIDs = append(tagIDs, l.TagID)
	}
	var tags []model.Tag
	if err := db.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Tag, len(tags))
	for _, t := range tags {
		byID[t.ID] = t
	}

	result := make(map[uint][]model.Tag, len(articleIDs))
	for _, l := range links {
		if t, ok := byID[l.TagID]; ok {
			result[l.ArticleID] = append(result[l.ArticleID], t)
		}
	}
	return result, nil
}

// linkTags 按名称查找或创建标签并关联到文章
func (s *ArticleService) linkTags(tx *gorm.DB, articleID uint, names []string) error {
	for _, name := range names {
		tag, err := findOrCreateTag(tx, name)
		if err != nil {
			return err
		}
		if _, err := attachTag(tx, articleID, tag.ID); err != nil {
			return err
		}
	}
	return nil
}

// replaceTags 整体替换文章标签
func (s *ArticleService) replaceTags(tx *gorm.DB, articleID uint, names []string) error {
	var current []model.Tag
	if err := tx.Model(&model.Tag{}).
		Joins("JOIN article_tags ON article_tags.tag_id = tags.id AND article_tags.deleted_at IS NULL").
		Where("article_tags.article_id = ?", articleID).
		Find(&current).Error; err != nil {
		return err
	}

	if err := s.linkTags(tx, articleID, names); err != nil {
		return err
	}

	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	for _, tag := range current {
		if keep[tag.Name] {
			continue
		}
		if err := detachTag(tx, articleID, tag.ID); err != nil {
			return err
		}
	}
	return nil
}

// attachContentImages 为正文引用的图片建立记录，已存在的同名图片跳过
func (s *ArticleService) attachContentImages(tx *gorm.DB, articleID uint, images []contentImage) ([]model.Image, error) {
	if len(images) == 0 {
		return nil, nil
	}

	var existing []string
	if err := tx.Model(&model.Image{}).
		Where("imageable_type = ? AND imageable_id = ?", model.ImageableArticle, articleID).
		Pluck("name", &existing).Error; err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, n := range existing {
		known[n] = true
	}

	created := make([]model.Image, 0, len(images))
	for _, ci := range images {
		if known[ci.Name] {
			continue
		}
		img := model.Image{Name: ci.Name, Capture: ci.Capture}
		img.SetOwner(model.ArticleOwner{ArticleID: articleID})
		if err := tx.Create(&img).Error; err != nil {
			return nil, err
		}
		created = append(created, img)
	}
	return created, nil
}

// afterWrite 提交后的缓存失效与搜索索引同步，失败只记录日志
func (s *ArticleService) afterWrite(ctx context.Context, articleID uint, removed bool) {
	if s.cache != nil {
		// 文章变更会影响标签计数与分类列表，也可能进出任意文章的相关列表
		if err := s.cache.Delete(ctx, cache.TagListKey, cache.CategoryListKey); err != nil {
			s.log.Warnf("清除文章缓存失败: articleID=%d, err=%v", articleID, err)
		}
		if err := cache.BumpRelatedVersion(ctx, s.cache); err != nil {
			s.log.Warnf("更新相关文章缓存版本失败: articleID=%d, err=%v", articleID, err)
		}
	}

	if !s.search.Enabled() {
		return
	}
	if removed {
		if err := s.search.Remove(ctx, articleID); err != nil {
			s.log.Warnf("删除文章索引失败: articleID=%d, err=%v", articleID, err)
		}
		return
	}

	article, err := s.loadArticle(ctx, s.db.WithContext(ctx), articleID)
	if err != nil {
		s.log.Warnf("加载文章失败，跳过索引: articleID=%d, err=%v", articleID, err)
		return
	}
	if err := s.search.Index(ctx, article); err != nil {
		s.log.Warnf("更新文章索引失败: articleID=%d, err=%v", articleID, err)
	}
}

// ensureSlugAvailable slug在包括已删除文章在内的范围内唯一
func ensureSlugAvailable(tx *gorm.DB, slug string, selfID uint) error {
	if slug == "" {
		return invalidArgument("文章标题不能为空")
	}
	var count int64
	if err := tx.Unscoped().Model(&model.Article{}).
		Where("slug = ? AND id <> ?", slug, selfID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return invalidArgument("已存在相同标题的文章: %s", slug)
	}
	return nil
}

// articleOrder 构造排序子句
func articleOrder(orderBy, order string) string {
	dir := "DESC"
	if strings.EqualFold(order, "asc") {
		dir = "ASC"
	}
	switch orderBy {
	case "views":
		return "(SELECT COUNT(*) FROM views WHERE views.article_id = articles.id AND views.deleted_at IS NULL) " + dir
	case "shares":
		return "(SELECT COUNT(*) FROM shares WHERE shares.article_id = articles.id AND shares.deleted_at IS NULL) " + dir
	default:
		return "articles.created_at " + dir
	}
}

// normalizeNames 去除首尾空白、空值与重复项，保持原有顺序
func normalizeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		result = append(result, n)
	}
	return result
}

// likePrefix 构造前缀匹配参数，配合 ESCAPE '!' 使用
func likePrefix(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s) + "%"
}
