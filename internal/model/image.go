package model

import (
	"fmt"

	"gorm.io/gorm"
)

// ImageableType 图片所属实体类型
type ImageableType string

const (
	ImageableArticle ImageableType = "Article"
	ImageableUser    ImageableType = "User"
	ImageableComment ImageableType = "Comment"
)

// ImageOwner 图片所属实体，由类型与ID共同确定
type ImageOwner interface {
	OwnerType() ImageableType
	OwnerID() uint
}

// ArticleOwner 文章所属
type ArticleOwner struct{ ArticleID uint }

func (o ArticleOwner) OwnerType() ImageableType { return ImageableArticle }
func (o ArticleOwner) OwnerID() uint            { return o.ArticleID }

// UserOwner 用户所属（头像等）
type UserOwner struct{ UserID uint }

func (o UserOwner) OwnerType() ImageableType { return ImageableUser }
func (o UserOwner) OwnerID() uint            { return o.UserID }

// CommentOwner 评论所属
type CommentOwner struct{ CommentID uint }

func (o CommentOwner) OwnerType() ImageableType { return ImageableComment }
func (o CommentOwner) OwnerID() uint            { return o.CommentID }

// NewImageOwner 根据类型标识构造所属实体
func NewImageOwner(t ImageableType, id uint) (ImageOwner, error) {
	if id == 0 {
		return nil, fmt.Errorf("图片所属ID不能为空")
	}
	switch t {
	case ImageableArticle:
		return ArticleOwner{ArticleID: id}, nil
	case ImageableUser:
		return UserOwner{UserID: id}, nil
	case ImageableComment:
		return CommentOwner{CommentID: id}, nil
	}
	return nil, fmt.Errorf("未知的图片所属类型: %s", t)
}

// Image 图片模型
type Image struct {
	Base
	ImageableID   uint           `gorm:"type:int(11);not null;index:idx_imageable" json:"imageable_id"`
	ImageableType ImageableType  `gorm:"type:varchar(20);not null;index:idx_imageable" json:"imageable_type"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"` // 对象存储key
	Capture       *string        `gorm:"type:varchar(255)" json:"capture"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	URL string `gorm:"-" json:"url,omitempty"`
}

// TableName 指定表名
func (Image) TableName() string {
	return "images"
}

// Owner 返回图片所属实体
func (i *Image) Owner() (ImageOwner, error) {
	return NewImageOwner(i.ImageableType, i.ImageableID)
}

// SetOwner 设置图片所属实体
func (i *Image) SetOwner(owner ImageOwner) {
	i.ImageableType = owner.OwnerType()
	i.ImageableID = owner.OwnerID()
}
