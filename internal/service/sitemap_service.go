package service

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/nsxzhou1114/cms-api/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// SitemapService 站点地图服务
type SitemapService struct {
	db      *gorm.DB
	log     *zap.SugaredLogger
	siteURL string
	now     func() time.Time
}

// NewSitemapService 创建站点地图服务实例
func NewSitemapService(db *gorm.DB, log *zap.SugaredLogger, siteURL string) *SitemapService {
	return &SitemapService{db: db, log: log, siteURL: strings.TrimRight(siteURL, "/"), now: time.Now}
}

// Build 生成站点地图：首页、各列表分页、搜索页、已发布文章、标签页与各标签
func (s *SitemapService) Build(ctx context.Context) ([]byte, error) {
	db := s.db.WithContext(ctx)
	now := s.now().UTC().Format(time.RFC3339)

	var articles []model.Article
	if err := activeArticles(db).
		Select("slug", "updated_at").
		Where("status = ?", model.ArticleStatusApproved).
		Order("updated_at DESC").
		Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("查询文章失败: %w", err)
	}

	var tagNames []string
	if err := db.Model(&model.Tag{}).Order("name ASC").Pluck("name", &tagNames).Error; err != nil {
		return nil, fmt.Errorf("查询标签失败: %w", err)
	}

	set := urlSet{Xmlns: sitemapNamespace}
	add := func(path, lastMod string) {
		set.URLs = append(set.URLs, sitemapURL{Loc: s.siteURL + path, LastMod: lastMod})
	}

	add("", now)
	pages := (len(articles) + DefaultArticlePageSize - 1) / DefaultArticlePageSize
	for i := 1; i <= pages; i++ {
		add(fmt.Sprintf("/?page=%d", i), now)
	}
	add("/search", now)
	for _, a := range articles {
		add("/"+a.Slug, a.UpdatedAt.UTC().Format(time.RFC3339))
	}
	add("/tags", now)
	for _, name := range tagNames {
		add("/tags/"+strings.Join(strings.Fields(name), "-"), now)
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
