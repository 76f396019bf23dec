package service

import (
	"context"
	"testing"

	"github.com/nsxzhou1114/cms-api/internal/dto"
	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateArticle(t *testing.T) {
	env := newTestEnv(t)
	cat := env.category(t, "go")
	ctx := context.Background()

	article, err := env.svc.Articles.Create(ctx, 7, &dto.ArticleCreateRequest{
		Title:       "Hello, World",
		Description: "intro",
		Content:     `<p>hi</p><img data-name="images/a.png" alt="cover"><img data-name="images/b.png"><script>x()</script>`,
		CategoryID:  cat.ID,
		Tags:        []string{"go", " web ", "go"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello-World", article.Slug)
	assert.Equal(t, model.ArticleStatusPending, article.Status)
	assert.NotContains(t, article.Content, "<script")
	require.Len(t, article.Tags, 2)
	assert.Equal(t, "go", article.Tags[0].Name)
	assert.Equal(t, "web", article.Tags[1].Name)

	require.Len(t, article.Images, 2)
	require.NotNil(t, article.ThumbnailID)
	assert.Equal(t, article.Images[0].ID, *article.ThumbnailID)
	assert.Equal(t, "https://cdn.test/images/a.png", article.ThumbnailURL)
	require.NotNil(t, article.Images[0].Capture)
	assert.Equal(t, "cover", *article.Images[0].Capture)
}

func TestCreateArticleValidation(t *testing.T) {
	env := newTestEnv(t)
	cat := env.category(t, "go")
	ctx := context.Background()

	_, err := env.svc.Articles.Create(ctx, 1, &dto.ArticleCreateRequest{
		Title: "no category", Content: "<p>x</p>", CategoryID: 999, Tags: []string{"go"},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.Articles.Create(ctx, 1, &dto.ArticleCreateRequest{
		Title: "no tags", Content: "<p>x</p>", CategoryID: cat.ID, Tags: []string{" "},
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	env.article(t, "taken", model.ArticleStatusApproved, cat.ID, 0)
	_, err = env.svc.Articles.Create(ctx, 1, &dto.ArticleCreateRequest{
		Title: "taken", Content: "<p>x</p>", CategoryID: cat.ID, Tags: []string{"go"},
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	var count int64
	require.NoError(t, env.db.Model(&model.Tag{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "失败的创建不应留下标签")
}

func TestCreateArticleRestoresSoftDeletedTag(t *testing.T) {
	env := newTestEnv(t)
	cat := env.category(t, "go")
	old := env.tag(t, "legacy")
	require.NoError(t, env.db.Delete(old).Error)

	article, err := env.svc.Articles.Create(context.Background(), 1, &dto.ArticleCreateRequest{
		Title: "revive", Content: "<p>x</p>", CategoryID: cat.ID, Tags: []string{"legacy"},
	})
	require.NoError(t, err)
	require.Len(t, article.Tags, 1)
	assert.Equal(t, old.ID, article.Tags[0].ID)
	assert.False(t, isSoftDeleted(t, env.db, &model.Tag{}, old.ID))
}

func TestUpdateArticleReplacesTags(t *testing.T) {
	env := newTestEnv(t)
	cat := env.category(t, "go")
	exclusive := env.tag(t, "exclusive")
	shared := env.tag(t, "shared")
	a := env.article(t, "first", model.ArticleStatusApproved, cat.ID, 0, exclusive, shared)
	env.article(t, "second", model.ArticleStatusApproved, cat.ID, 1, shared)
	ctx := context.Background()

	title := "first, renamed"
	updated, err := env.svc.Articles.Update(ctx, a.ID, &dto.ArticleUpdateRequest{
		Title: &title,
		Tags:  []string{"fresh"},
	})
	require.NoError(t, err)

	assert.Equal(t, "first-renamed", updated.Slug)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "fresh", updated.Tags[0].Name)
	assert.True(t, isSoftDeleted(t, env.db, &model.Tag{}, exclusive.ID))
	assert.False(t, isSoftDeleted(t, env.db, &model.Tag{}, shared.ID))
}

func TestUpdateArticleChangesCategory(t *testing.T) {
	env := newTestEnv(t)
	oldCat := env.category(t, "old")
	newCat := env.category(t, "new")
	a := env.article(t, "first", model.ArticleStatusApproved, oldCat.ID, 0)

	updated, err := env.svc.Articles.Update(context.Background(), a.ID, &dto.ArticleUpdateRequest{CategoryID: &newCat.ID})
	require.NoError(t, err)
	assert.Equal(t, newCat.ID, *updated.CategoryID)
	assert.True(t, isSoftDeleted(t, env.db, &model.Category{}, oldCat.ID))
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	a := env.article(t, "first", model.ArticleStatusPending, 0, 0)
	ctx := context.Background()

	require.NoError(t, env.svc.Articles.UpdateStatus(ctx, a.ID, model.ArticleStatusApproved))
	assert.ErrorIs(t, env.svc.Articles.UpdateStatus(ctx, a.ID, "Published"), ErrInvalidArgument)
	assert.ErrorIs(t, env.svc.Articles.UpdateStatus(ctx, 999, model.ArticleStatusApproved), ErrNotFound)

	got, err := env.svc.Articles.Get(ctx, a.Slug, false)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestGetArticle(t *testing.T) {
	env := newTestEnv(t)
	approved := env.article(t, "approved", model.ArticleStatusApproved, 0, 0)
	pending := env.article(t, "pending", model.ArticleStatusPending, 0, 1)
	ctx := context.Background()

	got, err := env.svc.Articles.Get(ctx, "approved", false)
	require.NoError(t, err)
	assert.Equal(t, approved.ID, got.ID)

	_, err = env.svc.Articles.Get(ctx, "pending", false)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = env.svc.Articles.Get(ctx, "2", true)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, got.ID)

	_, err = env.svc.Articles.Get(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListArticles(t *testing.T) {
	env := newTestEnv(t)
	cat := env.category(t, "go")
	tag := env.tag(t, "tips")
	old := env.article(t, "go basics", model.ArticleStatusApproved, cat.ID, 0, tag)
	mid := env.article(t, "go_advanced", model.ArticleStatusApproved, cat.ID, 10)
	env.article(t, "rust intro", model.ArticleStatusPending, 0, 20)
	gone := env.article(t, "go away", model.ArticleStatusApproved, 0, 30)
	ctx := context.Background()
	require.NoError(t, env.svc.Articles.Delete(ctx, gone.ID))

	require.NoError(t, env.db.Create(&model.View{ArticleID: old.ID, IPAddress: "10.0.0.1", UUID: "v1"}).Error)
	require.NoError(t, env.db.Create(&model.View{ArticleID: old.ID, IPAddress: "10.0.0.2", UUID: "v2"}).Error)

	list, total, err := env.svc.Articles.List(ctx, &dto.ArticleListQuery{Status: model.ArticleStatusApproved})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []uint{mid.ID, old.ID}, articleIDs(list))
	assert.Empty(t, list[0].Content)

	list, _, err = env.svc.Articles.List(ctx, &dto.ArticleListQuery{OrderBy: "views"})
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, old.ID, list[0].ID)
	assert.EqualValues(t, 2, list[0].ViewCount)

	// 下划线按字面匹配
	list, total, err = env.svc.Articles.List(ctx, &dto.ArticleListQuery{Search: "go_"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []uint{mid.ID}, articleIDs(list))

	list, _, err = env.svc.Articles.List(ctx, &dto.ArticleListQuery{Status: model.ArticleStatusTrashed})
	require.NoError(t, err)
	assert.Equal(t, []uint{gone.ID}, articleIDs(list))

	list, total, err = env.svc.Articles.List(ctx, &dto.ArticleListQuery{Page: 2, PageSize: 1, Status: model.ArticleStatusApproved})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []uint{old.ID}, articleIDs(list))
	require.Len(t, list[0].Tags, 1)
	assert.Equal(t, "tips", list[0].Tags[0].Name)
}

func TestSlugsAndSuggestionsFallback(t *testing.T) {
	env := newTestEnv(t)
	env.article(t, "Go tips", model.ArticleStatusApproved, 0, 0)
	env.article(t, "Go tricks", model.ArticleStatusApproved, 0, 1)
	env.article(t, "Go drafts", model.ArticleStatusPending, 0, 2)
	env.article(t, "Rust", model.ArticleStatusApproved, 0, 3)
	ctx := context.Background()

	slugs, err := env.svc.Articles.Slugs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go-tips", "Go-tricks", "Rust"}, slugs)

	titles, err := env.svc.Articles.Suggestions(ctx, "Go t")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go tricks", "Go tips"}, titles)

	titles, err = env.svc.Articles.Suggestions(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, titles)
}
