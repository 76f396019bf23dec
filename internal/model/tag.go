package model

import "gorm.io/gorm"

// Tag 标签模型
type Tag struct {
	Base
	Name         string         `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	ArticleCount int            `gorm:"type:int(11);not null;default:0" json:"article_count"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (Tag) TableName() string {
	return "tags"
}

// ArticleTag 文章-标签关联模型，每条关联可独立软删除
type ArticleTag struct {
	Base
	ArticleID uint           `gorm:"type:int(11);not null;uniqueIndex:idx_article_tag" json:"article_id"`
	TagID     uint           `gorm:"type:int(11);not null;uniqueIndex:idx_article_tag;index" json:"tag_id"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (ArticleTag) TableName() string {
	return "article_tags"
}
