package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 业务错误，控制器据此映射HTTP状态码
var (
	ErrInvalidArgument    = errors.New("参数无效")
	ErrNotFound           = errors.New("资源不存在")
	ErrHasDependents      = errors.New("仍有关联的文章，无法删除")
	ErrNotDeleted         = errors.New("资源未被删除")
	ErrForbidden          = errors.New("没有操作权限")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
)

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return fmt.Errorf("%s%w", what, ErrNotFound)
}

// translateNotFound 将gorm的记录不存在转换为业务错误
func translateNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what)
	}
	return err
}
