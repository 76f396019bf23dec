// Package storage 对象存储：图片名即存储key，由存储实现解析为可访问的URL
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/nsxzhou1114/cms-api/internal/config"
)

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// Put 上传对象
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Delete 删除对象
	Delete(ctx context.Context, key string) error
	// URL 解析对象的访问地址
	URL(key string) string
}

// New 根据配置创建对象存储
func New(cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.Local.Path, cfg.Local.URLPrefix), nil
	case "cos":
		return NewCOSStorage(cfg.COS)
	}
	return nil, fmt.Errorf("不支持的存储类型: %s", cfg.Type)
}
