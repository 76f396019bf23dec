package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage 本地磁盘存储
type LocalStorage struct {
	root      string
	urlPrefix string
}

// NewLocalStorage 创建本地存储
func NewLocalStorage(root, urlPrefix string) *LocalStorage {
	return &LocalStorage{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

func (s *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("非法的存储key: %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Put 保存文件
func (s *LocalStorage) Put(_ context.Context, key string, r io.Reader, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("创建上传目录失败: %v", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("保存文件失败: %v", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("保存文件失败: %v", err)
	}
	return nil
}

// Delete 删除文件，文件不存在不视为错误
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL 生成访问URL
func (s *LocalStorage) URL(key string) string {
	return fmt.Sprintf("%s/%s", s.urlPrefix, strings.TrimLeft(key, "/"))
}
