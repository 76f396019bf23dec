package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/cms-api/internal/service"
	"go.uber.org/zap"
)

// SitemapApi 站点地图控制器
type SitemapApi struct {
	logger         *zap.SugaredLogger
	sitemapService *service.SitemapService
}

// NewSitemapApi 创建站点地图控制器
func NewSitemapApi(svc *service.Services, log *zap.SugaredLogger) *SitemapApi {
	return &SitemapApi{logger: log, sitemapService: svc.Sitemap}
}

// Get 输出XML站点地图
func (api *SitemapApi) Get(c *gin.Context) {
	body, err := api.sitemapService.Build(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, "生成站点地图", err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}
