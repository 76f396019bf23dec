package cmd

import (
	"context"

	"github.com/nsxzhou1114/cms-api/internal/cron"
	"github.com/nsxzhou1114/cms-api/internal/logger"
	"github.com/spf13/cobra"
)

// tagsCmd 标签维护命令
var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "标签维护命令",
}

// syncTagsCmd 立即执行一次标签文章数同步
var syncTagsCmd = &cobra.Command{
	Use:   "sync",
	Short: "同步标签文章数",
	Long:  `按当前审核通过的文章重新计算每个标签的文章数`,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustInitialize()
		defer a.close()
		cron.SyncTagCounts(context.Background(), a.svc.Tags, logger.GetSugaredLogger())
	},
}

func init() {
	tagsCmd.AddCommand(syncTagsCmd)
	rootCmd.AddCommand(tagsCmd)
}
