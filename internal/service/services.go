package service

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/nsxzhou1114/cms-api/internal/config"
	"github.com/nsxzhou1114/cms-api/pkg/auth"
	"github.com/nsxzhou1114/cms-api/pkg/cache"
	"github.com/nsxzhou1114/cms-api/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options 构造服务所需的依赖，Cache与ES可为空
type Options struct {
	DB      *gorm.DB
	Log     *zap.SugaredLogger
	Cache   cache.Cache
	ES      *elasticsearch.Client
	Storage storage.ObjectStorage
	Tokens  *auth.Manager
	Config  *config.Config
}

// Services 全部业务服务
type Services struct {
	Metrics     *MetricService
	Search      *ArticleSearchService
	Articles    *ArticleService
	Related     *RelatedService
	Tags        *TagService
	Categories  *CategoryService
	ArticleTags *ArticleTagService
	Images      *ImageService
	Users       *UserService
	Sitemap     *SitemapService
}

// New 按依赖关系组装服务
func New(opts Options) *Services {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	metrics := NewMetricService(opts.DB, opts.Log, cfg.Metric.Window())
	search := NewArticleSearchService(opts.ES, cfg.Elasticsearch.Index, opts.Log)
	articles := NewArticleService(opts.DB, opts.Log, opts.Cache, search, opts.Storage, metrics)

	return &Services{
		Metrics:     metrics,
		Search:      search,
		Articles:    articles,
		Related:     NewRelatedService(opts.DB, opts.Log, opts.Cache, opts.Storage),
		Tags:        NewTagService(opts.DB, opts.Log, opts.Cache, articles),
		Categories:  NewCategoryService(opts.DB, opts.Log, opts.Cache, articles),
		ArticleTags: NewArticleTagService(opts.DB, opts.Log, articles),
		Images:      NewImageService(opts.DB, opts.Log, opts.Cache, opts.Storage, cfg.Storage.Limit),
		Users:       NewUserService(opts.DB, opts.Log, opts.Tokens),
		Sitemap:     NewSitemapService(opts.DB, opts.Log, cfg.App.SiteURL),
	}
}
