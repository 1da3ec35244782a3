package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// 全局日志
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// 非 main 入口（单元测试）下也保证 Log 可用
func init() {
	Init("info", "text", "development")
}

// Init 按配置重建全局 logger
func Init(level, format, env string) {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	Log = logger.WithFields(logrus.Fields{
		"service": "newsboard",
		"env":     env,
	})
}
