// Package commands 命令行入口
package commands

import (
	"fmt"

	"chat_widget_mini/internal/config"
	"chat_widget_mini/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chat_widget_mini",
	Short: "Inkslap 聊天组件后端",
	Long: `Inkslap 聊天组件的后端服务：转发对话请求、解析回复中的商品、
保存对话记录，并提供会话接口、WebSocket 推送和命令行对话。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		logger.Setup(logger.Options{Level: loaded.Log.Level, Format: loaded.Log.Format})
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别，覆盖配置文件")
}

// Execute 执行根命令
func Execute() error {
	return rootCmd.Execute()
}
