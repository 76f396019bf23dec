package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/nsxzhou1114/cms-api/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader 构造一个内容类型为image/png的上传文件
func pngHeader(t *testing.T, filename string) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func (e *testEnv) user(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := e.svc.Users.Create(context.Background(), "tester", email, "secret-password", model.RoleUser)
	require.NoError(t, err)
	return u
}

func TestImageGet(t *testing.T) {
	env := newTestEnv(t)
	a := env.article(t, "a", model.ArticleStatusApproved, 0, 0)
	ctx := context.Background()

	img, err := env.svc.Images.Upload(ctx, model.ArticleOwner{ArticleID: a.ID}, pngHeader(t, "a.png"), "")
	require.NoError(t, err)

	got, err := env.svc.Images.Get(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/"+img.Name, got.URL)

	_, err = env.svc.Images.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImageDeleteByOwnerClearsThumbnail(t *testing.T) {
	env := newTestEnv(t)
	a := env.article(t, "a", model.ArticleStatusApproved, 0, 0)
	ctx := context.Background()
	owner := model.ArticleOwner{ArticleID: a.ID}

	img, err := env.svc.Images.Upload(ctx, owner, pngHeader(t, "a.png"), "cover")
	require.NoError(t, err)
	require.NoError(t, env.db.Model(a).Update("thumbnail_id", img.ID).Error)

	n, err := env.svc.Images.DeleteByOwner(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.True(t, isSoftDeleted(t, env.db, &model.Image{}, img.ID))
	// 软删除保留存储对象
	assert.Contains(t, env.storage.objects, img.Name)

	var reloaded model.Article
	require.NoError(t, env.db.First(&reloaded, a.ID).Error)
	assert.Nil(t, reloaded.ThumbnailID)
	assert.True(t, env.cache.has(cache.RelatedVersionKey))

	_, err = env.svc.Images.DeleteByOwner(ctx, owner)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImageDeleteByOwnerRejectsUserImages(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "a@example.com")

	_, err := env.svc.Images.DeleteByOwner(context.Background(), model.UserOwner{UserID: u.ID})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestImageDeletePermanently(t *testing.T) {
	env := newTestEnv(t)
	a := env.article(t, "a", model.ArticleStatusApproved, 0, 0)
	ctx := context.Background()

	img, err := env.svc.Images.Upload(ctx, model.ArticleOwner{ArticleID: a.ID}, pngHeader(t, "a.png"), "")
	require.NoError(t, err)
	// 已软删除的图片同样可以永久删除
	require.NoError(t, env.db.Delete(img).Error)

	assert.ErrorIs(t, env.svc.Images.DeletePermanently(ctx, img.Name, model.ImageableUser), ErrNotFound)
	require.NoError(t, env.svc.Images.DeletePermanently(ctx, img.Name, model.ImageableArticle))

	var count int64
	require.NoError(t, env.db.Unscoped().Model(&model.Image{}).Where("id = ?", img.ID).Count(&count).Error)
	assert.Zero(t, count)
	assert.NotContains(t, env.storage.objects, img.Name)

	assert.ErrorIs(t, env.svc.Images.DeletePermanently(ctx, " ", model.ImageableArticle), ErrInvalidArgument)
}

func TestImageReplaceUserImage(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "a@example.com")
	ctx := context.Background()

	first, err := env.svc.Images.ReplaceUserImage(ctx, u.ID, pngHeader(t, "one.png"))
	require.NoError(t, err)
	second, err := env.svc.Images.ReplaceUserImage(ctx, u.ID, pngHeader(t, "two.png"))
	require.NoError(t, err)

	images, err := env.svc.Images.ListByOwner(ctx, model.UserOwner{UserID: u.ID})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, second.ID, images[0].ID)
	assert.NotContains(t, env.storage.objects, first.Name)
	assert.Contains(t, env.storage.objects, second.Name)

	_, err = env.svc.Images.ReplaceUserImage(ctx, 999, pngHeader(t, "x.png"))
	assert.ErrorIs(t, err, ErrNotFound)
}
