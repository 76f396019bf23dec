package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/spf13/cobra"
)

var reindex bool

// migrateCmd 初始化数据库表与搜索索引
// 示例：./cms-api migrate --reindex
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "初始化数据库表",
	Long:  `自动迁移数据库表并创建Elasticsearch索引，--reindex 时将现有文章重新写入索引`,
	Run: func(cmd *cobra.Command, args []string) {
		migrate()
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&reindex, "reindex", false, "重建文章搜索索引")
	rootCmd.AddCommand(migrateCmd)
}

// migrate 执行迁移
func migrate() {
	a := mustInitialize()
	defer a.close()

	if err := model.InitTables(a.db); err != nil {
		fmt.Printf("初始化数据库表失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("数据库表初始化完成")

	if !a.svc.Search.Enabled() {
		fmt.Println("Elasticsearch未启用，跳过索引初始化")
		return
	}

	ctx := context.Background()
	created, err := a.svc.Search.EnsureIndex(ctx)
	if err != nil {
		fmt.Printf("初始化Elasticsearch索引失败: %v\n", err)
		os.Exit(1)
	}
	if created {
		fmt.Println("Elasticsearch索引已创建")
	}

	if reindex {
		count, err := a.svc.Articles.Reindex(ctx)
		if err != nil {
			fmt.Printf("重建索引失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("成功写入 %d 篇文章到索引\n", count)
	}
}
