package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zoeyai/winmacro/internal/logger"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:           "winmacro",
	Short:         "窗口自动化与多角色配置同步工具",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		logger.Default().SetLevel(logger.ParseLevel(level))
		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			logger.Default().SetConsole(false)
		}

		if path, _ := cmd.Flags().GetString("log-file"); path != "" {
			if err := logger.Default().SetFile(true, path); err != nil {
				return fmt.Errorf("打开日志文件失败: %w", err)
			}
			logger.Default().History().SetLimit(logger.DefaultHistoryLimit)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("winmacro v%s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config-dir", "", "配置目录 (默认 ~/.winmacro)")
	pf.String("log-level", "info", "日志级别: debug, info, warn, error, off")
	pf.BoolP("quiet", "q", false, "不在控制台输出日志")
	pf.String("log-file", "", "同时写入日志文件")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	err := rootCmd.Execute()
	logger.Default().Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
}
