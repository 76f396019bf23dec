package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// 构建时通过 -ldflags "-X github.com/nsxzhou1114/cms-api/cmd.Version=..." 注入
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeVersion(cmd.OutOrStdout(), versionShort)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "只输出版本号")
	rootCmd.AddCommand(versionCmd)
}

func writeVersion(w io.Writer, short bool) error {
	if short {
		_, err := fmt.Fprintln(w, Version)
		return err
	}
	_, err := fmt.Fprintf(w, "cms-api %s (commit %s, built %s, %s %s/%s)\n",
		Version, GitCommit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return err
}
