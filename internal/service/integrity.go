package service

import (
	"errors"

	"github.com/nsxzhou1114/cms-api/internal/model"
	"gorm.io/gorm"
)

// 文章软删除后的级联规则。所有函数只使用传入的事务句柄。

// activeArticles 未软删除且不在回收站中的文章
func activeArticles(tx *gorm.DB) *gorm.DB {
	return tx.Model(&model.Article{}).Where("articles.status <> ?", model.ArticleStatusTrashed)
}

// countActiveArticlesInCategory 统计分类下的有效文章数，excludeID为0时不排除
func countActiveArticlesInCategory(tx *gorm.DB, categoryID, excludeID uint) (int64, error) {
	var count int64
	err := activeArticles(tx).
		Where("articles.category_id = ? AND articles.id <> ?", categoryID, excludeID).
		Count(&count).Error
	return count, err
}

// countActiveTagLinks 统计其他有效文章对标签的有效关联数
func countActiveTagLinks(tx *gorm.DB, tagID, excludeArticleID uint) (int64, error) {
	var count int64
	err := tx.Model(&model.ArticleTag{}).
		Joins("JOIN articles ON articles.id = article_tags.article_id AND articles.deleted_at IS NULL AND articles.status <> ?",
			model.ArticleStatusTrashed).
		Where("article_tags.tag_id = ? AND article_tags.article_id <> ?", tagID, excludeArticleID).
		Count(&count).Error
	return count, err
}

// releaseCategoryIfOrphaned 分类下已无有效文章时软删除该分类
func releaseCategoryIfOrphaned(tx *gorm.DB, categoryID, excludeArticleID uint) error {
	count, err := countActiveArticlesInCategory(tx, categoryID, excludeArticleID)
	if err != nil || count > 0 {
		return err
	}
	return tx.Delete(&model.Category{}, categoryID).Error
}

// releaseTagIfOrphaned 标签已无其他有效文章引用时，软删除本文章的关联及标签本身
func releaseTagIfOrphaned(tx *gorm.DB, articleID, tagID uint) error {
	count, err := countActiveTagLinks(tx, tagID, articleID)
	if err != nil || count > 0 {
		return err
	}
	if err := tx.Where("article_id = ? AND tag_id = ?", articleID, tagID).Delete(&model.ArticleTag{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Tag{}, tagID).Error
}

// detachTag 移除文章与标签的关联，标签失去最后一个引用时一并软删除
func detachTag(tx *gorm.DB, articleID, tagID uint) error {
	if err := tx.Where("article_id = ? AND tag_id = ?", articleID, tagID).Delete(&model.ArticleTag{}).Error; err != nil {
		return err
	}
	count, err := countActiveTagLinks(tx, tagID, articleID)
	if err != nil || count > 0 {
		return err
	}
	return tx.Delete(&model.Tag{}, tagID).Error
}

// requireActiveCategory 分类必须存在且未删除
func requireActiveCategory(tx *gorm.DB, categoryID uint) (*model.Category, error) {
	var category model.Category
	if err := tx.First(&category, categoryID).Error; err != nil {
		return nil, translateNotFound(err, "分类")
	}
	return &category, nil
}

// changeCategory 修改文章分类，旧分类失去全部有效文章时软删除
func changeCategory(tx *gorm.DB, article *model.Article, newCategoryID uint) error {
	if _, err := requireActiveCategory(tx, newCategoryID); err != nil {
		return err
	}

	// gorm回写时会改动指针指向的值，旧分类必须先按值取出
	var oldCategoryID uint
	if article.CategoryID != nil {
		oldCategoryID = *article.CategoryID
	}
	if err := tx.Model(article).Update("category_id", newCategoryID).Error; err != nil {
		return err
	}
	categoryID := newCategoryID
	article.CategoryID = &categoryID

	if oldCategoryID == 0 || oldCategoryID == newCategoryID {
		return nil
	}
	return releaseCategoryIfOrphaned(tx, oldCategoryID, 0)
}

// findOrCreateTag 按名称查找标签，已软删除的直接恢复
func findOrCreateTag(tx *gorm.DB, name string) (*model.Tag, error) {
	var tag model.Tag
	err := tx.Unscoped().Where("name = ?", name).First(&tag).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		tag = model.Tag{Name: name}
		if err := tx.Create(&tag).Error; err != nil {
			return nil, err
		}
		return &tag, nil
	case err != nil:
		return nil, err
	}

	if tag.DeletedAt.Valid {
		if err := restoreRow(tx, &model.Tag{}, tag.ID); err != nil {
			return nil, err
		}
		tag.DeletedAt = gorm.DeletedAt{}
	}
	return &tag, nil
}

// findOrCreateCategory 按名称查找分类，已软删除的直接恢复
func findOrCreateCategory(tx *gorm.DB, name, description string) (*model.Category, error) {
	var category model.Category
	err := tx.Unscoped().Where("name = ?", name).First(&category).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		category = model.Category{Name: name, Description: description}
		if err := tx.Create(&category).Error; err != nil {
			return nil, err
		}
		return &category, nil
	case err != nil:
		return nil, err
	}

	if category.DeletedAt.Valid {
		if err := restoreRow(tx, &model.Category{}, category.ID); err != nil {
			return nil, err
		}
		category.DeletedAt = gorm.DeletedAt{}
	}
	return &category, nil
}

// attachTag 建立文章与标签的关联；已软删除的关联连同标签一起恢复
func attachTag(tx *gorm.DB, articleID, tagID uint) (*model.ArticleTag, error) {
	var link model.ArticleTag
	err := tx.Unscoped().Where("article_id = ? AND tag_id = ?", articleID, tagID).First(&link).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		link = model.ArticleTag{ArticleID: articleID, TagID: tagID}
		if err := tx.Create(&link).Error; err != nil {
			return nil, err
		}
		return &link, nil
	case err != nil:
		return nil, err
	}

	if link.DeletedAt.Valid {
		if err := restoreRow(tx, &model.ArticleTag{}, link.ID); err != nil {
			return nil, err
		}
		if err := restoreRow(tx, &model.Tag{}, tagID); err != nil {
			return nil, err
		}
		link.DeletedAt = gorm.DeletedAt{}
	}
	return &link, nil
}

// restoreRow 清除单行的软删除标记
func restoreRow(tx *gorm.DB, m interface{}, id uint) error {
	return tx.Unscoped().Model(m).Where("id = ?", id).Update("deleted_at", nil).Error
}
