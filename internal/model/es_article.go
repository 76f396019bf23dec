package model

import "time"

// ESArticle Elasticsearch文章文档模型
type ESArticle struct {
	ID           string    `json:"id"`         // ES文档ID，格式为"article_{mysql_id}"
	ArticleID    uint      `json:"article_id"` // MySQL中的文章ID
	Title        string    `json:"title"`      // 标题，同时用于前缀联想
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	AuthorID     uint      `json:"author_id"`
	CategoryID   uint      `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Tags         []string  `json:"tags"`
	Status       string    `json:"status"` // 仅 Approved 参与联想
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ESIndexName 返回ES默认索引名称
func (ESArticle) ESIndexName() string {
	return "articles"
}

// ESMapping 返回ES索引映射
func (ESArticle) ESMapping() string {
	return `{
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 1,
			"analysis": {
				"analyzer": {
					"text_analyzer": {
						"type": "custom",
						"tokenizer": "standard",
						"char_filter": ["html_strip"],
						"filter": ["lowercase", "asciifolding"]
					}
				}
			}
		},
		"mappings": {
			"properties": {
				"id": { "type": "keyword" },
				"article_id": { "type": "long" },
				"title": {
					"type": "text",
					"analyzer": "text_analyzer",
					"fields": {
						"keyword": { "type": "keyword" }
					}
				},
				"slug": { "type": "keyword" },
				"description": { "type": "text", "analyzer": "text_analyzer" },
				"author_id": { "type": "long" },
				"category_id": { "type": "long" },
				"category_name": { "type": "keyword" },
				"tags": { "type": "keyword" },
				"status": { "type": "keyword" },
				"created_at": { "type": "date" },
				"updated_at": { "type": "date" }
			}
		}
	}`
}
