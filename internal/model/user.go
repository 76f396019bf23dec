package model

import (
	"time"

	"gorm.io/gorm"
)

// 用户角色
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User 用户模型
type User struct {
	Base
	Name        string         `gorm:"type:varchar(50);not null" json:"name"`
	Email       string         `gorm:"type:varchar(100);not null;uniqueIndex" json:"email"`
	Password    string         `gorm:"type:varchar(100);not null" json:"-"`
	Role        string         `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
