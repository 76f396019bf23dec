package model

import (
	"fmt"

	"gorm.io/gorm"
)

// MetricKind 统计类型
type MetricKind string

const (
	MetricView  MetricKind = "view"
	MetricShare MetricKind = "share"
)

// Table 统计类型对应的表名
func (k MetricKind) Table() string {
	switch k {
	case MetricView:
		return View{}.TableName()
	case MetricShare:
		return Share{}.TableName()
	}
	return ""
}

// CookieName 访客标识cookie名
func (k MetricKind) CookieName() string {
	return string(k) + "UUID"
}

// Validate 校验统计类型
func (k MetricKind) Validate() error {
	if k.Table() == "" {
		return fmt.Errorf("未知的统计类型: %s", k)
	}
	return nil
}

// View 浏览记录
type View struct {
	Base
	ArticleID uint           `gorm:"type:int(11);not null;uniqueIndex:idx_view_visitor" json:"article_id"`
	IPAddress string         `gorm:"type:varchar(45);not null;uniqueIndex:idx_view_visitor" json:"ip_address"`
	UUID      string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_view_visitor;index" json:"uuid"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (View) TableName() string {
	return "views"
}

// Share 分享记录
type Share struct {
	Base
	ArticleID uint           `gorm:"type:int(11);not null;uniqueIndex:idx_share_visitor" json:"article_id"`
	IPAddress string         `gorm:"type:varchar(45);not null;uniqueIndex:idx_share_visitor" json:"ip_address"`
	UUID      string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_share_visitor;index" json:"uuid"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (Share) TableName() string {
	return "shares"
}
