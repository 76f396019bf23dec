package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImageOwner(t *testing.T) {
	owner, err := NewImageOwner(ImageableArticle, 7)
	require.NoError(t, err)
	assert.Equal(t, ArticleOwner{ArticleID: 7}, owner)

	owner, err = NewImageOwner(ImageableUser, 3)
	require.NoError(t, err)
	assert.Equal(t, ImageableUser, owner.OwnerType())
	assert.Equal(t, uint(3), owner.OwnerID())

	_, err = NewImageOwner("Post", 1)
	assert.Error(t, err)

	_, err = NewImageOwner(ImageableComment, 0)
	assert.Error(t, err)
}

func TestImageOwnerRoundTrip(t *testing.T) {
	var img Image
	img.SetOwner(CommentOwner{CommentID: 12})
	assert.Equal(t, ImageableComment, img.ImageableType)
	assert.Equal(t, uint(12), img.ImageableID)

	owner, err := img.Owner()
	require.NoError(t, err)
	assert.Equal(t, CommentOwner{CommentID: 12}, owner)
}

func TestMetricKind(t *testing.T) {
	assert.Equal(t, "views", MetricView.Table())
	assert.Equal(t, "shares", MetricShare.Table())
	assert.Equal(t, "viewUUID", MetricView.CookieName())
	assert.Equal(t, "shareUUID", MetricShare.CookieName())
	assert.NoError(t, MetricView.Validate())
	assert.Error(t, MetricKind("like").Validate())
}

func TestValidArticleStatus(t *testing.T) {
	for _, s := range []string{ArticleStatusApproved, ArticleStatusPending, ArticleStatusRejected, ArticleStatusTrashed} {
		assert.True(t, ValidArticleStatus(s), s)
	}
	assert.False(t, ValidArticleStatus("draft"))
}

func TestToSearchDocument(t *testing.T) {
	categoryID := uint(4)
	a := &Article{
		Base:       Base{ID: 9},
		Title:      "Go in practice",
		Slug:       "Go-in-practice",
		CategoryID: &categoryID,
		Category:   &Category{Name: "golang"},
		Tags:       []Tag{{Name: "go"}, {Name: "gorm"}},
		Status:     ArticleStatusApproved,
	}
	doc := a.ToSearchDocument()
	assert.Equal(t, "article_9", doc.ID)
	assert.Equal(t, uint(4), doc.CategoryID)
	assert.Equal(t, "golang", doc.CategoryName)
	assert.Equal(t, []string{"go", "gorm"}, doc.Tags)
}
