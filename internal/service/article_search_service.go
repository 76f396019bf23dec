package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/nsxzhou1114/cms-api/internal/model"
	"go.uber.org/zap"
)

// ArticleSearchService 文章搜索服务，client为空时视为未启用
type ArticleSearchService struct {
	client *elasticsearch.Client
	index  string
	log    *zap.SugaredLogger
}

// NewArticleSearchService 创建文章搜索服务实例
func NewArticleSearchService(client *elasticsearch.Client, index string, log *zap.SugaredLogger) *ArticleSearchService {
	if index == "" {
		index = model.ESArticle{}.ESIndexName()
	}
	return &ArticleSearchService{client: client, index: index, log: log}
}

// Enabled 是否启用了Elasticsearch
func (s *ArticleSearchService) Enabled() bool {
	return s != nil && s.client != nil
}

// EnsureIndex 索引不存在时按映射创建
func (s *ArticleSearchService) EnsureIndex(ctx context.Context) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	return model.InitESIndices(ctx, s.client, s.index)
}

// Index 写入或覆盖文章文档
func (s *ArticleSearchService) Index(ctx context.Context, article *model.Article) error {
	doc := article.ToSearchDocument()
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("保存到ES失败: %s", res.String())
	}
	return nil
}

// Remove 删除文章文档，文档不存在不视为错误
func (s *ArticleSearchService) Remove(ctx context.Context, articleID uint) error {
	req := esapi.DeleteRequest{
		Index:      s.index,
		DocumentID: (&model.Article{Base: model.Base{ID: articleID}}).ESDocID(),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("从ES删除文章失败: %s", res.String())
	}
	return nil
}

// suggestResponse 联想查询只关心标题
type suggestResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				Title string `json:"title"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Suggest 已审核文章标题的前缀联想
func (s *ArticleSearchService) Suggest(ctx context.Context, prefix string, size int) ([]string, error) {
	query := map[string]interface{}{
		"size":    size,
		"_source": []string{"title"},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"match_phrase_prefix": map[string]interface{}{
						"title": prefix,
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"status": model.ArticleStatusApproved},
				},
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("ES联想查询失败: %s", res.String())
	}

	var parsed suggestResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		titles = append(titles, hit.Source.Title)
	}
	return titles, nil
}
