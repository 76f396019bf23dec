package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nsxzhou1114/cms-api/internal/config"
	"github.com/tencentyun/cos-go-sdk-v5"
)

// COSStorage 腾讯云COS存储
type COSStorage struct {
	client    *cos.Client
	urlPrefix string
}

// NewCOSStorage 创建COS存储
func NewCOSStorage(cfg config.COSStorage) (*COSStorage, error) {
	u, err := url.Parse(cfg.BucketURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("解析COS URL失败: %q", cfg.BucketURL)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	prefix := cfg.URLPrefix
	if prefix == "" {
		prefix = cfg.BucketURL
	}
	return &COSStorage{client: client, urlPrefix: strings.TrimRight(prefix, "/")}, nil
}

// Put 上传对象
func (s *COSStorage) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{ContentType: contentType},
	}
	if _, err := s.client.Object.Put(ctx, key, r, opt); err != nil {
		return fmt.Errorf("上传到腾讯云失败: %v", err)
	}
	return nil
}

// Delete 删除对象
func (s *COSStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Object.Delete(ctx, key); err != nil {
		return fmt.Errorf("从腾讯云删除失败: %v", err)
	}
	return nil
}

// URL 返回CDN或存储桶上的访问地址
func (s *COSStorage) URL(key string) string {
	return fmt.Sprintf("%s/%s", s.urlPrefix, strings.TrimLeft(key, "/"))
}
