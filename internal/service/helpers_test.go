package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/nsxzhou1114/cms-api/internal/config"
	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/nsxzhou1114/cms-api/internal/testutil"
	"github.com/nsxzhou1114/cms-api/pkg/auth"
	"github.com/nsxzhou1114/cms-api/pkg/cache"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memCache 内存缓存
type memCache struct {
	mu      sync.Mutex
	data    map[string]string
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = fmt.Sprint(value)
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *memCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	v, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(v), dest)
}

func (c *memCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, string(data), expiration)
}

func (c *memCache) Close() error { return nil }

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// memStorage 内存对象存储
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (s *memStorage) Put(_ context.Context, key string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memStorage) URL(key string) string {
	return "https://cdn.test/" + key
}

type testEnv struct {
	db      *gorm.DB
	cache   *memCache
	storage *memStorage
	svc     *Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	c := newMemCache()
	store := newMemStorage()
	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret", AccessExpireSeconds: 900, RefreshExpireSeconds: 3600},
		Storage: config.StorageConfig{Limit: config.StorageLimit{
			MaxSize:    1 << 20,
			AllowTypes: []string{"image/png", "image/jpeg"},
		}},
	}

	svc := New(Options{
		DB:      db,
		Log:     testutil.Logger(),
		Cache:   c,
		Storage: store,
		Tokens:  auth.NewManager(cfg.JWT, nil),
		Config:  cfg,
	})
	return &testEnv{db: db, cache: c, storage: store, svc: svc}
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func (e *testEnv) category(t *testing.T, name string) *model.Category {
	t.Helper()
	c := &model.Category{Name: name}
	require.NoError(t, e.db.Create(c).Error)
	return c
}

func (e *testEnv) tag(t *testing.T, name string) *model.Tag {
	t.Helper()
	tag := &model.Tag{Name: name}
	require.NoError(t, e.db.Create(tag).Error)
	return tag
}

// article 直接写入一篇文章，minutes为相对baseTime的创建时间偏移
func (e *testEnv) article(t *testing.T, title, status string, categoryID uint, minutes int, tags ...*model.Tag) *model.Article {
	t.Helper()
	created := baseTime.Add(time.Duration(minutes) * time.Minute)
	a := &model.Article{
		Base:     model.Base{CreatedAt: created, UpdatedAt: created},
		Title:    title,
		Slug:     CreateSlug(title),
		AuthorID: 1,
		Status:   status,
	}
	if categoryID != 0 {
		a.CategoryID = &categoryID
	}
	require.NoError(t, e.db.Create(a).Error)
	for _, tag := range tags {
		require.NoError(t, e.db.Create(&model.ArticleTag{ArticleID: a.ID, TagID: tag.ID}).Error)
	}
	return a
}

func articleIDs(articles []model.Article) []uint {
	ids := make([]uint, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	return ids
}

func isSoftDeleted(t *testing.T, db *gorm.DB, m interface{}, id uint) bool {
	t.Helper()
	var count int64
	require.NoError(t, db.Unscoped().Model(m).Where("id = ? AND deleted_at IS NOT NULL", id).Count(&count).Error)
	return count > 0
}
