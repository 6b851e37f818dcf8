// archive 将过期对话和全部用量日志转存到按日期命名的 sqlite 文件，建议每日定时执行
package main

import (
	"flag"
	"log"

	"chat-gateway/internal/config"
	"chat-gateway/internal/models"
	"chat-gateway/internal/service"
	"chat-gateway/pkg/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	configFile := flag.String("config", "./config/config.yaml", "配置文件路径")
	envFile := flag.String("env", ".env", ".env 文件路径")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Printf("%v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	appLogger, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	if err := models.InitDB(cfg); err != nil {
		appLogger.Fatalf("初始化数据库失败: %v", err)
	}

	result, err := service.NewArchiveService(models.GetDB(), cfg.Archive, appLogger).Run()
	if err != nil {
		appLogger.Fatalf("归档失败: %v", err)
	}

	appLogger.WithFields(logrus.Fields{
		"file":    result.File,
		"dialogs": result.Dialogs,
		"logs":    result.Logs,
	}).Info("归档完成")
}
