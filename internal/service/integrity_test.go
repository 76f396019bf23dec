package service

import (
	"context"
	"testing"

	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/nsxzhou1114/cms-api/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteArticleReleasesExclusiveTag(t *testing.T) {
	env := newTestEnv(t)
	cat := env.category(t, "go")
	exclusive := env.tag(t, "exclusive")
	shared := env.tag(t, "shared")
	a := env.article(t, "first", model.ArticleStatusApproved, cat.ID, 0, exclusive, shared)
	env.article(t, "second", model.ArticleStatusPending, cat.ID, 1, shared)

	require.NoError(t, env.svc.Articles.Delete(context.Background(), a.ID))

	assert.True(t, isSoftDeleted(t, env.db, &model.Tag{}, exclusive.ID))
	assert.False(t, isSoftDeleted(t, env.db, &model.Tag{}, shared.ID))

	var links []model.ArticleTag
	require.NoError(t, env.db.Unscoped().Where("article_id = ?", a.ID).Order("tag_id").Find(&links).Error)
	require.Len(t, links, 2)
	assert.True(t, links[0].DeletedAt.Valid, "独占标签的关联应被软删除")
	assert.False(t, links[1].DeletedAt.Valid, "共享标签的关联保持不变")

	// 另一篇文章仍在，分类保留
	assert.False(t, isSoftDeleted(t, env.db, &model.Category{}, cat.ID))

	var deleted model.Article
	require.NoError(t, env.db.Unscoped().First(&deleted, a.ID).Error)
	assert.Equal(t, model.ArticleStatusTrashed, deleted.Status)
	assert.True(t, deleted.DeletedAt.Valid)
}

func TestDeleteArticleTrashedPeerDoesNotKeepTag(t *testing.T) {
	env := newTestEnv(t)
	tag := env.tag(t, "go")
	a := env.article(t, "first", model.ArticleStatusApproved, 0, 0, tag)
	env.article(t, "trashed", model.ArticleStatusTrashed, 0, 1, tag)

	require.NoError(t, env.svc.Articles.Delete(context.Background(), a.ID))
	assert.True(t, isSoftDeleted(t, env.db, &model.Tag{}, tag.ID))
}

func TestDeleteArticleOrphansCategoryAndImages(t *testing.T) {
	env := newTestEnv(t)
	cat := env.category(t, "lonely")
	a := env.article(t, "only", model.ArticleStatusApproved, cat.ID, 0)

	img := &model.Image{Name: "images/a.png"}
	img.SetOwner(model.ArticleOwner{ArticleID: a.ID})
	require.NoError(t, env.db.Create(img).Error)
	require.NoError(t, env.db.Create(&model.View{ArticleID: a.ID, IPAddress: "10.0.0.1", UUID: "u1"}).Error)
	require.NoError(t, env.db.Create(&model.Share{ArticleID: a.ID, IPAddress: "10.0.0.1", UUID: "u2"}).Error)

	ctx := context.Background()
	require.NoError(t, env.svc.Articles.Delete(ctx, a.ID))

	assert.True(t, isSoftDeleted(t, env.db, &model.Category{}, cat.ID))
	assert.True(t, isSoftDeleted(t, env.db, &model.Image{}, img.ID))
	// 统计记录被物理删除
	assert.EqualValues(t, 0, countMetrics(t, env.db, model.MetricView, a.ID))
	assert.EqualValues(t, 0, countMetrics(t, env.db, model.MetricShare, a.ID))
	assert.True(t, env.cache.has(cache.RelatedVersionKey))
}

func TestDeleteArticleNotFound(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.svc.Articles.Delete(context.Background(), 42), ErrNotFound)
}

func TestRestoreArticleRestoresEverything(t *testing.T) {
	env := newTestEnv(t)
	cat := env.category(t, "go")
	tag := env.tag(t, "tips")
	a := env.article(t, "first", model.ArticleStatusApproved, cat.ID, 0, tag)

	img := &model.Image{Name: "images/a.png"}
	img.SetOwner(model.ArticleOwner{ArticleID: a.ID})
	require.NoError(t, env.db.Create(img).Error)

	ctx := context.Background()
	require.NoError(t, env.svc.Articles.Delete(ctx, a.ID))
	require.True(t, isSoftDeleted(t, env.db, &model.Category{}, cat.ID))
	require.True(t, isSoftDeleted(t, env.db, &model.Tag{}, tag.ID))

	// 其他途径软删除的统计记录随文章恢复
	view := &model.View{ArticleID: a.ID, IPAddress: "10.0.0.1", UUID: "u1"}
	share := &model.Share{ArticleID: a.ID, IPAddress: "10.0.0.1", UUID: "u2"}
	require.NoError(t, env.db.Create(view).Error)
	require.NoError(t, env.db.Create(share).Error)
	require.NoError(t, env.db.Delete(view).Error)
	require.NoError(t, env.db.Delete(share).Error)

	restored, err := env.svc.Articles.Restore(ctx, a.ID)
	require.NoError(t, err)

	assert.Equal(t, model.ArticleStatusPending, restored.Status)
	assert.False(t, restored.DeletedAt.Valid)
	assert.False(t, isSoftDeleted(t, env.db, &model.Category{}, cat.ID))
	assert.False(t, isSoftDeleted(t, env.db, &model.Tag{}, tag.ID))
	assert.False(t, isSoftDeleted(t, env.db, &model.Image{}, img.ID))
	assert.False(t, isSoftDeleted(t, env.db, &model.View{}, view.ID))
	assert.False(t, isSoftDeleted(t, env.db, &model.Share{}, share.ID))

	var link model.ArticleTag
	require.NoError(t, env.db.Where("article_id = ? AND tag_id = ?", a.ID, tag.ID).First(&link).Error)

	require.Len(t, restored.Tags, 1)
	assert.Equal(t, "tips", restored.Tags[0].Name)
	assert.EqualValues(t, 1, restored.ViewCount)
	assert.EqualValues(t, 1, restored.ShareCount)
}

func TestRestoreRejectedArticleBecomesPending(t *testing.T) {
	env := newTestEnv(t)
	a := env.article(t, "rejected", model.ArticleStatusRejected, 0, 0)
	ctx := context.Background()

	require.NoError(t, env.svc.Articles.Delete(ctx, a.ID))
	restored, err := env.svc.Articles.Restore(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ArticleStatusPending, restored.Status)
}

func TestRestoreArticleErrors(t *testing.T) {
	env := newTestEnv(t)
	a := env.article(t, "alive", model.ArticleStatusApproved, 0, 0)
	ctx := context.Background()

	_, err := env.svc.Articles.Restore(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotDeleted)

	_, err = env.svc.Articles.Restore(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCategoryOrphansOldCategory(t *testing.T) {
	env := newTestEnv(t)
	oldCat := env.category(t, "old")
	newCat := env.category(t, "new")
	a := env.article(t, "move me", model.ArticleStatusApproved, oldCat.ID, 0)
	ctx := context.Background()

	require.NoError(t, env.svc.Articles.UpdateCategory(ctx, a.ID, newCat.ID))

	assert.True(t, isSoftDeleted(t, env.db, &model.Category{}, oldCat.ID))
	var moved model.Article
	require.NoError(t, env.db.First(&moved, a.ID).Error)
	require.NotNil(t, moved.CategoryID)
	assert.Equal(t, newCat.ID, *moved.CategoryID)
}

func TestUpdateCategoryKeepsSharedOldCategory(t *testing.T) {
	env := newTestEnv(t)
	oldCat := env.category(t, "old")
	newCat := env.category(t, "new")
	a := env.article(t, "move me", model.ArticleStatusApproved, oldCat.ID, 0)
	env.article(t, "stay", model.ArticleStatusRejected, oldCat.ID, 1)

	require.NoError(t, env.svc.Articles.UpdateCategory(context.Background(), a.ID, newCat.ID))
	assert.False(t, isSoftDeleted(t, env.db, &model.Category{}, oldCat.ID))
}

func TestUpdateCategoryRequiresActiveCategory(t *testing.T) {
	env := newTestEnv(t)
	oldCat := env.category(t, "old")
	gone := env.category(t, "gone")
	require.NoError(t, env.db.Delete(gone).Error)
	a := env.article(t, "move me", model.ArticleStatusApproved, oldCat.ID, 0)
	ctx := context.Background()

	assert.ErrorIs(t, env.svc.Articles.UpdateCategory(ctx, a.ID, gone.ID), ErrNotFound)
	assert.ErrorIs(t, env.svc.Articles.UpdateCategory(ctx, 999, oldCat.ID), ErrNotFound)

	// 失败时不做任何修改
	var unchanged model.Article
	require.NoError(t, env.db.First(&unchanged, a.ID).Error)
	assert.Equal(t, oldCat.ID, *unchanged.CategoryID)
	assert.True(t, isSoftDeleted(t, env.db, &model.Category{}, gone.ID))
}

func TestDeleteTagWithDependents(t *testing.T) {
	env := newTestEnv(t)
	tag := env.tag(t, "busy")
	env.article(t, "first", model.ArticleStatusPending, 0, 0, tag)
	ctx := context.Background()

	err := env.svc.Tags.Delete(ctx, tag.ID)
	assert.ErrorIs(t, err, ErrHasDependents)

	var unchanged model.Tag
	require.NoError(t, env.db.First(&unchanged, tag.ID).Error)
	assert.Equal(t, "busy", unchanged.Name)
	assert.Equal(t, tag.UpdatedAt.Unix(), unchanged.UpdatedAt.Unix())
}

func TestDeleteTagWithoutDependents(t *testing.T) {
	env := newTestEnv(t)
	tag := env.tag(t, "idle")
	a := env.article(t, "trashed", model.ArticleStatusTrashed, 0, 0, tag)
	ctx := context.Background()

	require.NoError(t, env.svc.Tags.Delete(ctx, tag.ID))
	assert.True(t, isSoftDeleted(t, env.db, &model.Tag{}, tag.ID))

	var link model.ArticleTag
	require.NoError(t, env.db.Unscoped().Where("article_id = ?", a.ID).First(&link).Error)
	assert.True(t, link.DeletedAt.Valid)

	assert.ErrorIs(t, env.svc.Tags.Delete(ctx, tag.ID), ErrNotFound)
}

func TestDeleteCategory(t *testing.T) {
	env := newTestEnv(t)
	busy := env.category(t, "busy")
	idle := env.category(t, "idle")
	env.article(t, "first", model.ArticleStatusApproved, busy.ID, 0)
	ctx := context.Background()

	assert.ErrorIs(t, env.svc.Categories.Delete(ctx, busy.ID), ErrHasDependents)
	assert.False(t, isSoftDeleted(t, env.db, &model.Category{}, busy.ID))

	require.NoError(t, env.svc.Categories.Delete(ctx, idle.ID))
	assert.True(t, isSoftDeleted(t, env.db, &model.Category{}, idle.ID))

	assert.ErrorIs(t, env.svc.Categories.Delete(ctx, 999), ErrNotFound)
}

func TestAttachRestoresSoftDeletedLinkAndTag(t *testing.T) {
	env := newTestEnv(t)
	tag := env.tag(t, "go")
	a := env.article(t, "first", model.ArticleStatusApproved, 0, 0, tag)
	ctx := context.Background()

	require.NoError(t, env.db.Where("article_id = ?", a.ID).Delete(&model.ArticleTag{}).Error)
	require.NoError(t, env.db.Delete(tag).Error)

	link, err := env.svc.ArticleTags.Attach(ctx, a.ID, tag.ID)
	require.NoError(t, err)
	assert.False(t, link.DeletedAt.Valid)
	assert.False(t, isSoftDeleted(t, env.db, &model.Tag{}, tag.ID))

	var count int64
	require.NoError(t, env.db.Unscoped().Model(&model.ArticleTag{}).Where("article_id = ?", a.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// 重复关联是幂等的
	again, err := env.svc.ArticleTags.Attach(ctx, a.ID, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, link.ID, again.ID)

	_, err = env.svc.ArticleTags.Attach(ctx, a.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
