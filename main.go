package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/CodMac/arch-depends/x/golang"
	_ "github.com/CodMac/arch-depends/x/java"
)

var version = "dev"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "arch-depends",
	Short: "源码依赖分析",
	Long: `arch-depends 解析 Java / Go 源码，构建实体级依赖图并导出。

每条依赖边上带有按关系类型 (CALL / CREATE / EXTEND / ...) 汇总的权重，
权重反映解析置信度。`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "打印版本",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "arch-depends", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径 (默认在源码根目录查找 arch-depends.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别: debug, info, warn, error")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
