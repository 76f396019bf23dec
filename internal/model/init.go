package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"gorm.io/gorm"
)

// ESModel 定义支持Elasticsearch操作的模型接口
type ESModel interface {
	ESIndexName() string
	ESMapping() string
}

// 需要自动迁移的模型列表
var models = []interface{}{
	&User{},
	&Category{},
	&Article{},
	&Tag{},
	&ArticleTag{},
	&Image{},
	&View{},
	&Share{},
}

// InitTables 初始化数据库表
func InitTables(db *gorm.DB) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("自动迁移数据库表失败: %v", err)
	}
	return nil
}

// InitESIndices 初始化Elasticsearch索引，indexName为空时使用模型默认索引名
func InitESIndices(ctx context.Context, client *elasticsearch.Client, indexName string) (created bool, err error) {
	var m ESModel = ESArticle{}
	if indexName == "" {
		indexName = m.ESIndexName()
	}

	resp, err := client.Indices.Exists([]string{indexName}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("检查索引 %s 是否存在时出错: %v", indexName, err)
	}
	resp.Body.Close()

	// 索引已存在则跳过
	if resp.StatusCode != 404 {
		return false, nil
	}

	createResp, err := client.Indices.Create(
		indexName,
		client.Indices.Create.WithContext(ctx),
		client.Indices.Create.WithBody(strings.NewReader(m.ESMapping())),
	)
	if err != nil {
		return false, fmt.Errorf("创建索引 %s 失败: %v", indexName, err)
	}
	defer createResp.Body.Close()
	if createResp.IsError() {
		return false, fmt.Errorf("创建索引 %s 返回错误: %s", indexName, createResp.String())
	}
	return true, nil
}
