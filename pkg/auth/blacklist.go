package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nsxzhou1114/cms-api/pkg/cache"
)

// Blacklist 令牌黑名单
type Blacklist interface {
	// Add 将令牌添加到黑名单，直到expireAt自然过期
	Add(ctx context.Context, token string, expireAt time.Time) error
	// Contains 检查令牌是否在黑名单中
	Contains(ctx context.Context, token string) bool
}

// MemoryBlacklist 进程内令牌黑名单
type MemoryBlacklist struct {
	tokens map[string]time.Time // 令牌->过期时间映射
	mutex  sync.RWMutex
}

// NewMemoryBlacklist 创建内存黑名单
func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{tokens: make(map[string]time.Time)}
}

// Add 将令牌添加到黑名单
func (b *MemoryBlacklist) Add(_ context.Context, token string, expireAt time.Time) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	now := time.Now()
	// 顺带清理已过期的令牌
	for t, exp := range b.tokens {
		if now.After(exp) {
			delete(b.tokens, t)
		}
	}
	b.tokens[token] = expireAt
	return nil
}

// Contains 检查令牌是否在黑名单中
func (b *MemoryBlacklist) Contains(_ context.Context, token string) bool {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	_, exists := b.tokens[token]
	return exists
}

// CacheBlacklist 基于缓存（Redis）的令牌黑名单，多实例共享
type CacheBlacklist struct {
	cache cache.Cache
}

// NewCacheBlacklist 创建缓存黑名单
func NewCacheBlacklist(c cache.Cache) *CacheBlacklist {
	return &CacheBlacklist{cache: c}
}

// Add 将令牌添加到黑名单
func (b *CacheBlacklist) Add(ctx context.Context, token string, expireAt time.Time) error {
	ttl := time.Until(expireAt)
	if ttl <= 0 {
		return nil // 已过期的令牌无需添加
	}
	if err := b.cache.Set(ctx, fmt.Sprintf(cache.TokenBlacklistKey, token), "1", ttl); err != nil {
		return fmt.Errorf("添加令牌到黑名单失败: %w", err)
	}
	return nil
}

// Contains 检查令牌是否在黑名单中，缓存不可用时视为未撤销
func (b *CacheBlacklist) Contains(ctx context.Context, token string) bool {
	_, err := b.cache.Get(ctx, fmt.Sprintf(cache.TokenBlacklistKey, token))
	return err == nil
}
