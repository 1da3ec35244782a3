package main

import (
	"fmt"
	"os"

	"newsboard/internal/config"
	"newsboard/internal/db"
	"newsboard/internal/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "newsboard",
	Short:         "Social news API server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "配置文件路径")
	rootCmd.AddCommand(serveCmd, migrateCmd, recomputeCmd, recountCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap 加载配置、初始化日志并连接数据库
func bootstrap() (*config.AppConfig, *gorm.DB, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(conf.Log.Level, conf.Log.Format, conf.Env)

	if err := db.Init(conf.Database); err != nil {
		return nil, nil, err
	}
	return conf, db.DB, nil
}
