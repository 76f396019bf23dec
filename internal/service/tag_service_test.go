package service

import (
	"context"
	"testing"

	"github.com/nsxzhou1114/cms-api/internal/dto"
	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/nsxzhou1114/cms-api/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagCreateIsIdempotentAndRestores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tag, err := env.svc.Tags.Create(ctx, &dto.TagCreateRequest{Name: " go "})
	require.NoError(t, err)
	assert.Equal(t, "go", tag.Name)

	again, err := env.svc.Tags.Create(ctx, &dto.TagCreateRequest{Name: "go"})
	require.NoError(t, err)
	assert.Equal(t, tag.ID, again.ID)

	require.NoError(t, env.db.Delete(tag).Error)
	restored, err := env.svc.Tags.Create(ctx, &dto.TagCreateRequest{Name: "go"})
	require.NoError(t, err)
	assert.Equal(t, tag.ID, restored.ID)
	assert.False(t, isSoftDeleted(t, env.db, &model.Tag{}, tag.ID))
}

func TestTagUpdate(t *testing.T) {
	env := newTestEnv(t)
	tag := env.tag(t, "go")
	env.tag(t, "rust")
	ctx := context.Background()

	updated, err := env.svc.Tags.Update(ctx, tag.ID, &dto.TagUpdateRequest{Name: "golang"})
	require.NoError(t, err)
	assert.Equal(t, "golang", updated.Name)

	_, err = env.svc.Tags.Update(ctx, tag.ID, &dto.TagUpdateRequest{Name: "rust"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.svc.Tags.Update(ctx, 999, &dto.TagUpdateRequest{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTagListOrderedByApprovedArticles(t *testing.T) {
	env := newTestEnv(t)
	quiet := env.tag(t, "quiet")
	busy := env.tag(t, "busy")
	env.article(t, "a", model.ArticleStatusApproved, 0, 0, busy, quiet)
	env.article(t, "b", model.ArticleStatusApproved, 0, 1, busy)
	env.article(t, "c", model.ArticleStatusPending, 0, 2, quiet)
	ctx := context.Background()

	tags, err := env.svc.Tags.List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "busy", tags[0].Name)
	assert.Equal(t, 2, tags[0].ArticleCount)
	assert.Equal(t, 1, tags[1].ArticleCount)
	assert.True(t, env.cache.has(cache.TagListKey))

	_, err = env.svc.Tags.Create(ctx, &dto.TagCreateRequest{Name: "new"})
	require.NoError(t, err)
	assert.False(t, env.cache.has(cache.TagListKey))
}

func TestTagGetAndArticles(t *testing.T) {
	env := newTestEnv(t)
	tag := env.tag(t, "go")
	approved := env.article(t, "approved", model.ArticleStatusApproved, 0, 0, tag)
	env.article(t, "pending", model.ArticleStatusPending, 0, 1, tag)
	env.article(t, "untagged", model.ArticleStatusApproved, 0, 2)
	ctx := context.Background()

	byName, err := env.svc.Tags.Get(ctx, "go")
	require.NoError(t, err)
	byID, err := env.svc.Tags.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, byName.ID, byID.ID)

	_, err = env.svc.Tags.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	list, total, err := env.svc.Tags.Articles(ctx, "go", &dto.ArticleListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []uint{approved.ID}, articleIDs(list))
}

func TestSyncArticleCounts(t *testing.T) {
	env := newTestEnv(t)
	tag := env.tag(t, "go")
	idle := env.tag(t, "idle")
	env.article(t, "a", model.ArticleStatusApproved, 0, 0, tag)
	env.article(t, "b", model.ArticleStatusApproved, 0, 1, tag)
	trashed := env.article(t, "c", model.ArticleStatusApproved, 0, 2, tag)
	require.NoError(t, env.db.Model(idle).Update("article_count", 9).Error)
	ctx := context.Background()
	require.NoError(t, env.svc.Articles.Delete(ctx, trashed.ID))

	n, err := env.svc.Tags.SyncArticleCounts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	var used, unused model.Tag
	require.NoError(t, env.db.First(&used, tag.ID).Error)
	assert.Equal(t, 2, used.ArticleCount)
	require.NoError(t, env.db.First(&unused, idle.ID).Error)
	assert.Equal(t, 0, unused.ArticleCount)
}

func TestCategoryService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat, err := env.svc.Categories.Create(ctx, &dto.CategoryCreateRequest{Name: "go", Description: "gophers"})
	require.NoError(t, err)
	again, err := env.svc.Categories.Create(ctx, &dto.CategoryCreateRequest{Name: "go"})
	require.NoError(t, err)
	assert.Equal(t, cat.ID, again.ID)

	desc := "updated"
	updated, err := env.svc.Categories.Update(ctx, cat.ID, &dto.CategoryUpdateRequest{Name: "golang", Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "golang", updated.Name)
	assert.Equal(t, "updated", updated.Description)

	got, err := env.svc.Categories.Get(ctx, "golang")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, got.ID)

	for i := 0; i < 20; i++ {
		env.category(t, "extra"+string(rune('a'+i)))
	}
	list, err := env.svc.Categories.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, categoryListLimit)
	assert.True(t, env.cache.has(cache.CategoryListKey))

	a := env.article(t, "post", model.ArticleStatusApproved, cat.ID, 0)
	env.article(t, "draft", model.ArticleStatusPending, cat.ID, 1)
	articles, total, err := env.svc.Categories.Articles(ctx, "golang", &dto.ArticleListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []uint{a.ID}, articleIDs(articles))
}
