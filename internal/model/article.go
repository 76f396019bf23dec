package model

import (
	"fmt"

	"gorm.io/gorm"
)

// 文章状态
const (
	ArticleStatusApproved = "Approved"
	ArticleStatusPending  = "Pending"
	ArticleStatusRejected = "Rejected"
	ArticleStatusTrashed  = "Trashed"
)

// ValidArticleStatus 判断状态是否合法
func ValidArticleStatus(status string) bool {
	switch status {
	case ArticleStatusApproved, ArticleStatusPending, ArticleStatusRejected, ArticleStatusTrashed:
		return true
	}
	return false
}

// Article 文章模型
type Article struct {
	Base
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Slug        string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	Content     string         `gorm:"type:longtext" json:"content,omitempty"`
	AuthorID    uint           `gorm:"type:int(11);not null;index" json:"author_id"`
	CategoryID  *uint          `gorm:"type:int(11);index" json:"category_id"`
	ThumbnailID *uint          `gorm:"type:int(11)" json:"thumbnail_id"`
	Status      string         `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// 关联
	Author   *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Images   []Image   `gorm:"polymorphic:Imageable;polymorphicValue:Article" json:"images,omitempty"`

	// 标签经由 article_tags 关联行加载，关联行可独立软删除
	Tags         []Tag  `gorm:"-" json:"tags,omitempty"`
	ThumbnailURL string `gorm:"-" json:"thumbnail_url,omitempty"`
	ViewCount    int64  `gorm:"-" json:"view_count"`
	ShareCount   int64  `gorm:"-" json:"share_count"`
}

// TableName 指定表名
func (Article) TableName() string {
	return "articles"
}

// ESDocID Elasticsearch文档ID
func (a *Article) ESDocID() string {
	return fmt.Sprintf("article_%d", a.ID)
}

// ToSearchDocument 转换为搜索文档
func (a *Article) ToSearchDocument() *ESArticle {
	tags := make([]string, 0, len(a.Tags))
	for _, tag := range a.Tags {
		tags = append(tags, tag.Name)
	}

	doc := &ESArticle{
		ID:          a.ESDocID(),
		ArticleID:   a.ID,
		Title:       a.Title,
		Slug:        a.Slug,
		Description: a.Description,
		AuthorID:    a.AuthorID,
		Tags:        tags,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.CategoryID != nil {
		doc.CategoryID = *a.CategoryID
	}
	if a.Category != nil {
		doc.CategoryName = a.Category.Name
	}
	return doc
}
