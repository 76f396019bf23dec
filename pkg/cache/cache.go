package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache: key not found")

// Cache 缓存接口
type Cache interface {
	// Get 获取缓存
	Get(ctx context.Context, key string) (string, error)

	// Set 设置缓存
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Delete 删除缓存
	Delete(ctx context.Context, keys ...string) error

	// GetJSON 获取JSON格式的缓存并反序列化
	GetJSON(ctx context.Context, key string, dest interface{}) error

	// SetJSON 序列化为JSON并设置缓存
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Close 关闭连接
	Close() error
}

// CacheKey 缓存键名常量
const (
	// 相关文章列表，%s为版本号。任一文章变更都会使所有文章的相关列表失效，
	// 因此写入时只更新版本号，旧版本的键等待过期
	ArticleRelatedKey = "related:%s:%d"
	RelatedVersionKey = "related:version"
	TagListKey        = "tag:list:hot"     // 热门标签列表
	CategoryListKey   = "category:list"    // 分类列表
	TokenBlacklistKey = "jwt:blacklist:%s" // 已注销的令牌
)

// CacheExpiration 缓存过期时间常量
const (
	ArticleRelatedExpiration = 5 * time.Minute
	TagListExpiration        = 2 * time.Hour
	CategoryListExpiration   = 1 * time.Hour
)

// RelatedKey 指定版本下文章的相关列表键
func RelatedKey(version string, articleID uint) string {
	return fmt.Sprintf(ArticleRelatedKey, version, articleID)
}

// RelatedVersion 读取相关文章缓存的当前版本，未设置时为"0"
func RelatedVersion(ctx context.Context, c Cache) (string, error) {
	v, err := c.Get(ctx, RelatedVersionKey)
	if errors.Is(err, ErrMiss) {
		return "0", nil
	}
	return v, err
}

// BumpRelatedVersion 使全部相关文章缓存失效
func BumpRelatedVersion(ctx context.Context, c Cache) error {
	return c.Set(ctx, RelatedVersionKey, strconv.FormatInt(time.Now().UnixNano(), 36), 0)
}
