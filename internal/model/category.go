package model

import "gorm.io/gorm"

// Category 分类模型
type Category struct {
	Base
	Name        string         `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}
