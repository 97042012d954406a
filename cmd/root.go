package main

import (
	"context"
	"fmt"
	"os"

	"HackathonSync/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configDir string
	logLevel  string
	cfg       *config.Config
	logger    = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "hackathonsync",
	Short: "Hackathon 聚合服务：多来源抓取、规范化、去重与查询",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("无效的日志级别 %q: %w", logLevel, err)
		}
		logger.SetLevel(level)

		cfg, err = config.LoadConfig(configDir)
		if err != nil {
			return fmt.Errorf("加载配置文件失败: %w", err)
		}
		if cfg.Server.Mode == "release" {
			logger.SetFormatter(&logrus.JSONFormatter{})
		}
		logger.Info("配置文件加载成功")
		return nil
	},
	SilenceUsage: true,
}

// Execute 命令入口
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "./config", "config.yaml 所在目录")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "日志级别：debug/info/warn/error")
}
